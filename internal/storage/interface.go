// Package storage defines the persistence contract shared by the sqlite and
// postgres backends.
package storage

import (
	"context"

	"github.com/julianstephens/trainplan/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	GetConfigPath() string

	// Athlete history
	AddActivities(ctx context.Context, records []models.ActivityRecord) (int, error)
	GetActivities(ctx context.Context, startDay, endDay string) ([]models.ActivityRecord, error)
	AddEffortBest(ctx context.Context, best models.EffortBest) error
	GetEffortBests(ctx context.Context) ([]models.EffortBest, error)
	GetProfile(ctx context.Context) (models.Profile, error)
	SaveProfile(ctx context.Context, profile models.Profile) error

	// Session templates
	AddActivityPlan(ctx context.Context, ap models.ActivityPlan) error
	GetActivityPlan(ctx context.Context, id string) (models.ActivityPlan, error)
	ListActivityPlans(ctx context.Context) ([]models.ActivityPlan, error)

	// Training plans. SavePlan returns planner.ErrSnapshotConsumed for a
	// reused snapshot token; lookups return planner.ErrNotFound.
	SavePlan(ctx context.Context, doc models.PlanDocument) error
	GetPlan(ctx context.Context, id string) (models.PlanDocument, error)
	ListPlans(ctx context.Context) ([]models.PlanSummary, error)

	// Scheduling
	GetScheduledActivities(ctx context.Context, planID string) ([]models.ScheduledActivity, error)
	AddScheduledActivity(ctx context.Context, a models.ScheduledActivity) error
}
