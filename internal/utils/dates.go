package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/trainplan/internal/constants"
)

// ParseDate parses a date string (YYYY-MM-DD) as midnight UTC.
// Surrounding whitespace is ignored.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns t shifted by n calendar days
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// WeekStart returns the Monday of the ISO week containing t. It works on
// calendar dates only, so month and year boundaries need no special casing.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return AddDays(d, -offset)
}

// WeekEnd returns the Sunday of the ISO week containing t
func WeekEnd(t time.Time) time.Time {
	return AddDays(WeekStart(t), 6)
}

// AgeOn returns the age in whole years on the given date for a date of birth.
// It returns false when the DOB is missing, malformed, or after the date.
func AgeOn(dob string, on time.Time) (int, bool) {
	if strings.TrimSpace(dob) == "" {
		return 0, false
	}
	birth, err := ParseDate(dob)
	if err != nil {
		return 0, false
	}
	on = Day(on)
	if birth.After(on) {
		return 0, false
	}
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	if age > 120 {
		return 0, false
	}
	return age, true
}

// DateRange returns every date from start to end inclusive
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	dates := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = AddDays(d, 1) {
		dates = append(dates, d)
	}
	return dates
}
