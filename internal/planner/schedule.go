package planner

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/logger"
	"github.com/julianstephens/trainplan/internal/metrics"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
	"github.com/julianstephens/trainplan/internal/validation"
)

// loadSchedule fetches the plan, the activity plan and the sessions already
// scheduled, mapping missing rows to not_found.
func (s *Service) loadSchedule(ctx context.Context, planID, date, activityPlanID string) (validation.ScheduleRequest, error) {
	if s.deps.PlanReader == nil || s.deps.ActivityPlans == nil || s.deps.Schedule == nil {
		return validation.ScheduleRequest{}, errors.Storage("no plan store configured", nil)
	}

	plan, err := s.deps.PlanReader.GetPlan(ctx, planID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return validation.ScheduleRequest{}, errors.NotFound("training plan %q not found", planID)
		}
		return validation.ScheduleRequest{}, errors.Storage("failed to read plan", err)
	}
	ap, err := s.deps.ActivityPlans.GetActivityPlan(ctx, activityPlanID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return validation.ScheduleRequest{}, errors.NotFound("activity plan %q not found", activityPlanID)
		}
		return validation.ScheduleRequest{}, errors.Storage("failed to read activity plan", err)
	}
	scheduled, err := s.deps.Schedule.GetScheduledActivities(ctx, planID)
	if err != nil {
		return validation.ScheduleRequest{}, errors.Storage("failed to read scheduled activities", err)
	}

	return validation.ScheduleRequest{
		Plan:         plan,
		Scheduled:    scheduled,
		ActivityPlan: ap,
		Date:         date,
	}, nil
}

// ValidateConstraints reports whether an activity plan can be scheduled on a
// date of a stored training plan. It never writes.
func (s *Service) ValidateConstraints(ctx context.Context, trainingPlanID, scheduledDate, activityPlanID string) (result models.ScheduleValidation, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordRequest(metrics.OpConstraints, outcomeOf(err), start) }()

	if _, err := utils.ParseDate(scheduledDate); err != nil {
		return models.ScheduleValidation{}, errors.Invalid("scheduled_date: %v", err)
	}
	req, err := s.loadSchedule(ctx, trainingPlanID, scheduledDate, activityPlanID)
	if err != nil {
		return models.ScheduleValidation{}, err
	}
	return s.validator.Schedule(req)
}

// ScheduleActivity validates and then stores a scheduled session. The
// returned validation explains a refusal.
func (s *Service) ScheduleActivity(ctx context.Context, trainingPlanID, scheduledDate, activityPlanID string) (models.ScheduledActivity, models.ScheduleValidation, error) {
	check, err := s.ValidateConstraints(ctx, trainingPlanID, scheduledDate, activityPlanID)
	if err != nil {
		return models.ScheduledActivity{}, check, err
	}
	if !check.CanSchedule {
		return models.ScheduledActivity{}, check, errors.Blocked("activity cannot be scheduled on %s", scheduledDate)
	}

	ap, err := s.deps.ActivityPlans.GetActivityPlan(ctx, activityPlanID)
	if err != nil {
		return models.ScheduledActivity{}, check, errors.Storage("failed to read activity plan", err)
	}
	date, _ := utils.ParseDate(scheduledDate)
	sa := models.ScheduledActivity{
		ID:             uuid.New().String(),
		PlanID:         trainingPlanID,
		ActivityPlanID: activityPlanID,
		Date:           utils.FormatDate(date),
		EstimatedTSS:   ap.EstimatedTSS,
		Intensity:      ap.Intensity,
	}
	if err := s.deps.Schedule.AddScheduledActivity(ctx, sa); err != nil {
		return models.ScheduledActivity{}, check, errors.Storage("failed to save scheduled activity", err)
	}
	logger.Info("Scheduled activity", "plan", trainingPlanID, "date", sa.Date, "activity_plan", activityPlanID)
	return sa, check, nil
}
