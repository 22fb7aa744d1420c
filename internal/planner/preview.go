package planner

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/feasibility"
	"github.com/julianstephens/trainplan/internal/logger"
	"github.com/julianstephens/trainplan/internal/metrics"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/optimizer"
	"github.com/julianstephens/trainplan/internal/snapshot"
	"github.com/julianstephens/trainplan/internal/trainingctx"
)

// computation is one run of the pipeline
type computation struct {
	config      models.NormalizedCreationConfig
	context     models.TrainingContext
	chart       models.ProjectionChart
	feasibility models.ProjectionFeasibility
	conflicts   models.Conflicts
	inputs      snapshot.Inputs
}

// compute validates the request, derives the context and projects it.
// Only invalid input, cancellation and hashing failures return errors.
func (s *Service) compute(ctx context.Context, req PreviewRequest) (computation, error) {
	if err := s.validator.Plan(req.Plan, req.CreationInput); err != nil {
		return computation{}, err
	}
	cfg, err := s.validator.Normalize(req.CreationInput)
	if err != nil {
		return computation{}, err
	}

	derived, err := s.deriver.Derive(ctx, s.asOf(req.Plan))
	if err != nil {
		return computation{}, err
	}
	tc := derived.Context
	if req.StartingCTLOverride != nil {
		tc = trainingctx.WithStartingCTL(tc, *req.StartingCTLOverride)
	}
	s.deps.Metrics.RecordRationale(tc.RationaleCodes)

	chart, err := s.engine.Project(optimizer.Input{
		Plan:        req.Plan,
		Config:      cfg,
		Context:     tc,
		EffortBests: derived.EffortBests,
		Calibration: s.cal,
	})
	if err != nil {
		return computation{}, errors.Invalid("%v", err)
	}

	feas := feasibility.Evaluate(feasibility.Input{
		Plan:        req.Plan,
		Config:      cfg,
		Context:     tc,
		Chart:       chart,
		Calibration: s.cal,
	})
	s.deps.Metrics.RecordProjection(chart.Diagnostics, feas.State)

	return computation{
		config:      cfg,
		context:     tc,
		chart:       chart,
		feasibility: feas,
		conflicts:   s.validator.Conflicts(chart, feas, cfg),
		inputs:      s.snapshotInputs(req, cfg, derived.Fingerprint),
	}, nil
}

// PreviewCreationConfig computes the full result and issues a snapshot token
// that a later create must reproduce. Nothing is persisted.
func (s *Service) PreviewCreationConfig(ctx context.Context, req PreviewRequest) (result PreviewResult, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordRequest(metrics.OpPreview, outcomeOf(err), start) }()

	c, err := s.compute(ctx, req)
	if err != nil {
		return PreviewResult{}, err
	}
	snap, err := snapshot.Compute(c.inputs)
	if err != nil {
		return PreviewResult{}, err
	}

	logger.Info("Previewed plan", "start", req.Plan.PlanStartDate, "goals", len(req.Plan.Goals),
		"state", c.feasibility.State, "blocking", c.conflicts.IsBlocking, "token", snap.Token)
	return PreviewResult{
		NormalizedCreationConfig: c.config,
		Conflicts:                c.conflicts,
		ProjectionFeasibility:    c.feasibility,
		ProjectionChart:          c.chart,
		PlanPreview:              planPreview(req.Plan, c.chart),
		PreviewSnapshot:          snap,
		TrainingContext:          c.context,
	}, nil
}

// CreateFromCreationConfig recomputes the preview, rejects stale tokens and
// blocking conflicts, and persists the plan.
func (s *Service) CreateFromCreationConfig(ctx context.Context, req CreateRequest) (result CreateResult, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordRequest(metrics.OpCreate, outcomeOf(err), start) }()

	if s.deps.PlanWriter == nil {
		return CreateResult{}, errors.Storage("no plan writer configured", nil)
	}

	c, err := s.compute(ctx, req.PreviewRequest)
	if err != nil {
		return CreateResult{}, err
	}
	if err := snapshot.Verify(c.inputs, req.PreviewSnapshotToken); err != nil {
		return CreateResult{}, err
	}
	if c.conflicts.IsBlocking {
		codes := make([]string, 0, len(c.conflicts.Items))
		for _, item := range c.conflicts.Items {
			if item.IsBlocking {
				codes = append(codes, item.Code)
			}
		}
		return CreateResult{}, errors.Blocked("plan has blocking conflicts: %v", codes)
	}

	doc := models.PlanDocument{
		ID:                       uuid.New().String(),
		CreatedAt:                s.now().UTC().Format(time.RFC3339),
		SnapshotToken:            req.PreviewSnapshotToken,
		MinimalPlan:              req.Plan,
		NormalizedCreationConfig: c.config,
		Conflicts:                c.conflicts,
		ProjectionFeasibility:    c.feasibility,
		ProjectionChart:          c.chart,
	}
	if err := s.deps.PlanWriter.SavePlan(ctx, doc); err != nil {
		if stderrors.Is(err, ErrSnapshotConsumed) {
			logger.Warn("Snapshot token reused", "token", req.PreviewSnapshotToken)
			return CreateResult{}, errors.Stale()
		}
		return CreateResult{}, errors.Storage("failed to save plan", err)
	}

	logger.Info("Created plan", "id", doc.ID, "state", c.feasibility.State, "selected_path", c.chart.Diagnostics.SelectedPath)
	return CreateResult{
		ID: doc.ID,
		CreationSummary: CreationSummary{
			NormalizedCreationConfig: c.config,
			Conflicts:                c.conflicts,
			ProjectionFeasibility:    c.feasibility,
			ProjectionChart:          c.chart,
		},
	}, nil
}
