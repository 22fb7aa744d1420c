package calibration

import (
	"sort"
	"time"

	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// WeeklyLoads sums training stress per ISO week (Monday start) for records
// dated within the trailing windowDays ending on asOf. Records with a
// malformed date are skipped and counted.
func WeeklyLoads(records []models.ActivityRecord, asOf time.Time, windowDays int) (map[time.Time]float64, int) {
	asOf = utils.Day(asOf)
	from := utils.AddDays(asOf, -(windowDays - 1))

	weeks := make(map[time.Time]float64)
	dropped := 0
	for _, r := range records {
		d, err := utils.ParseDate(r.Date)
		if err != nil {
			dropped++
			continue
		}
		if d.Before(from) || d.After(asOf) {
			continue
		}
		weeks[utils.WeekStart(d)] += utils.NonNegative(r.TrainingStressScore)
	}
	return weeks, dropped
}

// Percentile returns the p-th percentile of values using linear
// interpolation between closest ranks. values need not be sorted.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// LearnRamp estimates the largest week-over-week load increase the athlete
// has tolerated. Deltas are taken between adjacent calendar weeks that both
// carry data, so a gap in the log is not read as a ramp from zero.
// The second return value is the number of records dropped for bad dates.
func (c Calibrator) LearnRamp(records []models.ActivityRecord, asOf time.Time) (models.LearnedRamp, int) {
	r := c.cal.Ramp
	weeks, dropped := WeeklyLoads(records, asOf, r.WindowDays)

	starts := make([]time.Time, 0, len(weeks))
	for ws := range weeks {
		starts = append(starts, ws)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	learned := models.LearnedRamp{
		MaxSafeRate:   r.DefaultRate,
		Confidence:    models.ConfidenceLow,
		WeeksObserved: len(starts),
	}

	var deltas []float64
	for i := 1; i < len(starts); i++ {
		if utils.DaysBetween(starts[i-1], starts[i]) != 7 {
			continue
		}
		if delta := weeks[starts[i]] - weeks[starts[i-1]]; delta > 0 {
			deltas = append(deltas, delta)
		}
	}
	learned.PositiveDeltas = len(deltas)

	if len(starts) < r.MinWeeks || len(deltas) == 0 {
		return learned, dropped
	}

	learned.MaxSafeRate = utils.Round1(utils.Clamp(Percentile(deltas, r.Percentile), r.MinRate, r.MaxRate))
	learned.Confidence = c.rampConfidence(len(deltas))
	return learned, dropped
}

func (c Calibrator) rampConfidence(deltas int) models.Confidence {
	r := c.cal.Ramp
	switch {
	case deltas > r.HighDeltasMin:
		return models.ConfidenceHigh
	case deltas >= r.MediumDeltas:
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}
