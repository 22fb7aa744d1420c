package validation

import (
	"fmt"
	"time"

	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// ScheduleRequest is an activity plan proposed for a date in a stored plan.
// Scheduled holds the sessions already placed in that plan.
type ScheduleRequest struct {
	Plan         models.PlanDocument
	Scheduled    []models.ScheduledActivity
	ActivityPlan models.ActivityPlan
	Date         string
}

// Schedule runs every scheduling rule. The activity can be scheduled
// unless a blocking rule is violated.
func (v *Validator) Schedule(req ScheduleRequest) (models.ScheduleValidation, error) {
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return models.ScheduleValidation{}, errors.Invalid("scheduled_date: %v", err)
	}

	c := models.ScheduleConstraints{
		WithinPlanRange:   withinPlanRange(req.Plan, date),
		WeeklyTSSBudget:   v.weeklyBudget(req, date),
		PostGoalRecovery:  postGoalRecovery(req, date),
		DailySessionLimit: v.dailySessions(req, date),
	}

	can := true
	for _, r := range []models.ConstraintResult{c.WithinPlanRange, c.WeeklyTSSBudget, c.PostGoalRecovery, c.DailySessionLimit} {
		if r.Violated() && r.Blocking {
			can = false
		}
	}
	return models.ScheduleValidation{CanSchedule: can, Constraints: c}, nil
}

func passed(format string, args ...interface{}) models.ConstraintResult {
	return models.ConstraintResult{Status: models.ConstraintOK, Message: fmt.Sprintf(format, args...)}
}

func violated(blocking bool, format string, args ...interface{}) models.ConstraintResult {
	return models.ConstraintResult{Status: models.ConstraintViolated, Blocking: blocking, Message: fmt.Sprintf(format, args...)}
}

// planRange prefers the stored chart bounds and falls back to the goals
func planRange(plan models.PlanDocument) (time.Time, time.Time, bool) {
	startStr, endStr := plan.ProjectionChart.StartDate, plan.ProjectionChart.EndDate
	if startStr == "" {
		startStr = plan.MinimalPlan.PlanStartDate
	}
	if endStr == "" {
		for _, g := range plan.MinimalPlan.Goals {
			if g.TargetDate > endStr {
				endStr = g.TargetDate
			}
		}
	}
	start, err1 := utils.ParseDate(startStr)
	end, err2 := utils.ParseDate(endStr)
	return start, end, err1 == nil && err2 == nil
}

func withinPlanRange(plan models.PlanDocument, date time.Time) models.ConstraintResult {
	start, end, valid := planRange(plan)
	if !valid {
		return violated(true, "plan has no valid date range")
	}
	if date.Before(start) || date.After(end) {
		return violated(true, "%s is outside the plan range %s to %s",
			utils.FormatDate(date), utils.FormatDate(start), utils.FormatDate(end))
	}
	return passed("%s is within the plan range", utils.FormatDate(date))
}

// weeklyBudget compares the week's scheduled stress plus the new session
// with the microcycle's planned load, allowing the configured tolerance.
func (v *Validator) weeklyBudget(req ScheduleRequest, date time.Time) models.ConstraintResult {
	day := utils.FormatDate(date)
	var cycle *models.Microcycle
	for i := range req.Plan.ProjectionChart.Microcycles {
		m := req.Plan.ProjectionChart.Microcycles[i]
		if m.WeekStart <= day && day <= m.WeekEnd {
			cycle = &m
			break
		}
	}
	if cycle == nil {
		return passed("no planned week covers %s", day)
	}

	total := req.ActivityPlan.EstimatedTSS
	for _, s := range req.Scheduled {
		if s.Date >= cycle.WeekStart && s.Date <= cycle.WeekEnd {
			total += s.EstimatedTSS
		}
	}
	budget := cycle.PlannedWeeklyTSS * (1 + v.cal.Scheduling.WeeklyBudgetTolerance)
	if total > budget {
		return violated(false, "week of %s would carry %.1f TSS, above the %.1f planned (+%.0f%%)",
			cycle.WeekStart, total, cycle.PlannedWeeklyTSS, v.cal.Scheduling.WeeklyBudgetTolerance*100)
	}
	return passed("week of %s carries %.1f of %.1f planned TSS", cycle.WeekStart, total, cycle.PlannedWeeklyTSS)
}

// postGoalRecovery keeps the days after a goal free of hard sessions.
// High intensity blocks; moderate intensity only warns.
func postGoalRecovery(req ScheduleRequest, date time.Time) models.ConstraintResult {
	recovery := req.Plan.NormalizedCreationConfig.PostGoalRecoveryDays
	for _, g := range req.Plan.MinimalPlan.Goals {
		goalDate, err := utils.ParseDate(g.TargetDate)
		if err != nil {
			continue
		}
		since := utils.DaysBetween(goalDate, date)
		if since < 1 || since > recovery {
			continue
		}
		switch req.ActivityPlan.Intensity {
		case models.IntensityHigh:
			return violated(true, "%s is day %d of recovery after %s", utils.FormatDate(date), since, g.Name)
		case models.IntensityModerate:
			return violated(false, "%s is day %d of recovery after %s; keep it easy", utils.FormatDate(date), since, g.Name)
		}
		return passed("low intensity session during recovery after %s", g.Name)
	}
	return passed("%s is outside every recovery window", utils.FormatDate(date))
}

func (v *Validator) dailySessions(req ScheduleRequest, date time.Time) models.ConstraintResult {
	day := utils.FormatDate(date)
	count := 1
	for _, s := range req.Scheduled {
		if s.Date == day {
			count++
		}
	}
	limit := v.cal.Scheduling.MaxSessionsPerDay
	if count > limit {
		return violated(true, "%s would have %d sessions, the limit is %d", day, count, limit)
	}
	return passed("%s would have %d of %d sessions", day, count, limit)
}
