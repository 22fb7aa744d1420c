// Package planner runs the full projection pipeline behind the preview,
// create, suggestion and scheduling operations.
package planner

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/julianstephens/trainplan/internal/calibration"
	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/metrics"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/optimizer"
	"github.com/julianstephens/trainplan/internal/snapshot"
	"github.com/julianstephens/trainplan/internal/trainingctx"
	"github.com/julianstephens/trainplan/internal/utils"
	"github.com/julianstephens/trainplan/internal/validation"
)

// ErrNotFound and ErrSnapshotConsumed are returned by stores
var (
	ErrNotFound         = stderrors.New("not found")
	ErrSnapshotConsumed = stderrors.New("snapshot token already used")
)

// PlanWriter persists a created plan. It must return ErrSnapshotConsumed
// when doc.SnapshotToken was already stored with another plan.
type PlanWriter interface {
	SavePlan(ctx context.Context, doc models.PlanDocument) error
}

// PlanReader returns a stored plan, or ErrNotFound
type PlanReader interface {
	GetPlan(ctx context.Context, id string) (models.PlanDocument, error)
}

// ActivityPlanReader returns a session template, or ErrNotFound
type ActivityPlanReader interface {
	GetActivityPlan(ctx context.Context, id string) (models.ActivityPlan, error)
}

// ScheduleStore reads and adds the sessions placed in a plan
type ScheduleStore interface {
	GetScheduledActivities(ctx context.Context, planID string) ([]models.ScheduledActivity, error)
	AddScheduledActivity(ctx context.Context, a models.ScheduledActivity) error
}

// Deps are the service's collaborators. Efforts, Metrics and Now are
// optional.
type Deps struct {
	History       trainingctx.HistoryReader
	Efforts       trainingctx.EffortReader
	Profile       trainingctx.ProfileReader
	PlanWriter    PlanWriter
	PlanReader    PlanReader
	ActivityPlans ActivityPlanReader
	Schedule      ScheduleStore
	Calibration   config.Calibration
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// Service is stateless between calls; every request derives its own context
type Service struct {
	deps      Deps
	cal       config.Calibration
	deriver   *trainingctx.Deriver
	engine    *optimizer.Engine
	validator *validation.Validator
	now       func() time.Time
}

func New(deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		deps:      deps,
		cal:       deps.Calibration,
		deriver:   trainingctx.NewDeriver(deps.History, deps.Efforts, deps.Profile, calibration.New(deps.Calibration)),
		engine:    optimizer.New(deps.Calibration.Optimizer),
		validator: validation.New(deps.Calibration),
		now:       now,
	}
}

// PreviewRequest is the input shared by preview and create
type PreviewRequest struct {
	Plan                models.MinimalPlan    `json:"plan" yaml:"plan"`
	CreationInput       models.CreationConfig `json:"creation_input" yaml:"creation_input"`
	StartingCTLOverride *float64              `json:"starting_ctl_override,omitempty" yaml:"starting_ctl_override,omitempty"`
}

// CreateRequest adds the token a preview issued. An empty token creates
// without a preview.
type CreateRequest struct {
	PreviewRequest       `yaml:",inline"`
	PreviewSnapshotToken string `json:"preview_snapshot_token,omitempty" yaml:"preview_snapshot_token,omitempty"`
}

type PreviewResult struct {
	NormalizedCreationConfig models.NormalizedCreationConfig `json:"normalized_creation_config"`
	Conflicts                models.Conflicts                `json:"conflicts"`
	ProjectionFeasibility    models.ProjectionFeasibility    `json:"projection_feasibility"`
	ProjectionChart          models.ProjectionChart          `json:"projection_chart"`
	PlanPreview              models.PlanPreview              `json:"plan_preview"`
	PreviewSnapshot          models.PreviewSnapshot          `json:"preview_snapshot"`
	TrainingContext          models.TrainingContext          `json:"training_context"`
}

type CreationSummary struct {
	NormalizedCreationConfig models.NormalizedCreationConfig `json:"normalized_creation_config"`
	Conflicts                models.Conflicts                `json:"conflicts"`
	ProjectionFeasibility    models.ProjectionFeasibility    `json:"projection_feasibility"`
	ProjectionChart          models.ProjectionChart          `json:"projection_chart"`
}

type CreateResult struct {
	ID              string          `json:"id"`
	CreationSummary CreationSummary `json:"creation_summary"`
}

// asOf is the last day before the plan starts, never later than today
func (s *Service) asOf(plan models.MinimalPlan) time.Time {
	today := utils.Day(s.now())
	start, err := utils.ParseDate(plan.PlanStartDate)
	if err != nil {
		return today
	}
	before := utils.AddDays(start, -1)
	if before.After(today) {
		return today
	}
	return before
}

// snapshotInputs collects what the token binds
func (s *Service) snapshotInputs(req PreviewRequest, cfg models.NormalizedCreationConfig, fingerprint uint64) snapshot.Inputs {
	return snapshot.Inputs{
		Calibration:        s.cal,
		Config:             cfg,
		Plan:               req.Plan,
		HistoryFingerprint: fingerprint,
		StartingCTL:        req.StartingCTLOverride,
	}
}

func outcomeOf(err error) string {
	switch errors.CodeOf(err) {
	case "":
		if err == nil {
			return metrics.OutcomeOK
		}
		return metrics.OutcomeError
	case errors.CodeStorage:
		return metrics.OutcomeError
	}
	return metrics.OutcomeRejected
}

func planPreview(plan models.MinimalPlan, chart models.ProjectionChart) models.PlanPreview {
	total := 0.0
	for _, m := range chart.Microcycles {
		total += m.PlannedWeeklyTSS
	}
	goals := append([]models.Goal(nil), plan.Goals...)
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].TargetDate != goals[j].TargetDate {
			return goals[i].TargetDate < goals[j].TargetDate
		}
		return goals[i].EffectivePriority() < goals[j].EffectivePriority()
	})
	return models.PlanPreview{
		PlanStartDate:   chart.StartDate,
		EndDate:         chart.EndDate,
		Goals:           goals,
		Weeks:           len(chart.Microcycles),
		TotalPlannedTSS: utils.Round1(total),
	}
}
