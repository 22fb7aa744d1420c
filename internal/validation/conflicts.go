package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/trainplan/internal/constants"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// Conflicts lists cap violations from the feasibility verdict and recovery
// collisions between consecutive goals. Only a recovery window that reaches
// the next goal blocks creation.
func (v *Validator) Conflicts(chart models.ProjectionChart, feas models.ProjectionFeasibility, cfg models.NormalizedCreationConfig) models.Conflicts {
	items := make([]models.ConflictItem, 0)

	for _, g := range feas.Goals {
		if g.RequiredTSSRampPct > cfg.MaxWeeklyTSSRampPct {
			msg := fmt.Sprintf("%s needs %.2f%% weekly TSS growth, above the %.2f%% cap",
				g.GoalName, g.RequiredTSSRampPct, cfg.MaxWeeklyTSSRampPct)
			items = append(items, models.ConflictItem{
				Code:         constants.ConflictTSSRampExceedsCap,
				Message:      msg,
				RelatedDates: []string{g.TargetDate},
			})
		}
		if g.RequiredCTLRamp > cfg.MaxCTLRampPerWeek {
			msg := fmt.Sprintf("%s needs %.2f CTL per week, above the %.2f cap",
				g.GoalName, g.RequiredCTLRamp, cfg.MaxCTLRampPerWeek)
			items = append(items, models.ConflictItem{
				Code:         constants.ConflictCTLRampExceedsCap,
				Message:      msg,
				RelatedDates: []string{g.TargetDate},
			})
		}
	}

	items = append(items, v.recoveryConflicts(chart.GoalMarkers, cfg.PostGoalRecoveryDays)...)

	out := models.Conflicts{Items: items}
	for _, item := range items {
		if item.IsBlocking {
			out.IsBlocking = true
		}
	}
	return out
}

// recoveryConflicts compares each goal date with the next distinct one.
// Goals on the same day share a single recovery window.
func (v *Validator) recoveryConflicts(markers []models.GoalMarker, recoveryDays int) []models.ConflictItem {
	if recoveryDays <= 0 {
		return nil
	}
	byDate := make(map[string][]string)
	for _, m := range markers {
		byDate[m.Date] = append(byDate[m.Date], m.Name)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var items []models.ConflictItem
	for i := 0; i+1 < len(dates); i++ {
		from, err1 := utils.ParseDate(dates[i])
		to, err2 := utils.ParseDate(dates[i+1])
		if err1 != nil || err2 != nil {
			continue
		}
		gap := utils.DaysBetween(from, to)
		prep := gap - recoveryDays
		related := []string{dates[i], dates[i+1]}
		prev, next := strings.Join(byDate[dates[i]], ", "), strings.Join(byDate[dates[i+1]], ", ")

		switch {
		case prep <= 0:
			msg := fmt.Sprintf("%d recovery days after %s run into %s, %d days later",
				recoveryDays, prev, next, gap)
			items = append(items, models.ConflictItem{
				Code:         constants.ConflictRecoveryOverlapsNextGoal,
				IsBlocking:   true,
				Message:      msg,
				RelatedDates: related,
			})
		case prep < v.cal.Conflicts.MinPrepDays:
			msg := fmt.Sprintf("only %d preparation days remain for %s after recovering from %s (want %d)",
				prep, next, prev, v.cal.Conflicts.MinPrepDays)
			items = append(items, models.ConflictItem{
				Code:         constants.ConflictRecoveryCompressesPrep,
				Message:      msg,
				RelatedDates: related,
			})
		}
	}
	return items
}

// FormatReport returns a human-readable report of all conflicts
func FormatReport(c models.Conflicts) string {
	if len(c.Items) == 0 {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, item := range c.Items {
		marker := " "
		if item.IsBlocking {
			marker = "!"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", marker, item.Code, item.Message)
	}
	return b.String()
}
