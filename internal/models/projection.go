package models

// ProjectionPoint is one predicted day
type ProjectionPoint struct {
	Date                string  `json:"date"`
	PredictedLoadTSS    float64 `json:"predicted_load_tss"`
	PredictedFitnessCTL float64 `json:"predicted_fitness_ctl"`
	PredictedFatigueATL float64 `json:"predicted_fatigue_atl"`
	PredictedFormTSB    float64 `json:"predicted_form_tsb"`
}

// GoalMarker pins a goal onto the projection chart
type GoalMarker struct {
	Name      string  `json:"name"`
	Date      string  `json:"date"`
	Priority  int     `json:"priority"`
	DemandCTL float64 `json:"demand_ctl"`
}

type TSSRampMeta struct {
	PreviousWeekTSS    float64 `json:"previous_week_tss"`
	RequestedWeeklyTSS float64 `json:"requested_weekly_tss"`
}

type CTLRampMeta struct {
	RequestedCTLRamp float64 `json:"requested_ctl_ramp"`
}

type MicrocycleMetadata struct {
	TSSRamp TSSRampMeta `json:"tss_ramp"`
	CTLRamp CTLRampMeta `json:"ctl_ramp"`
}

// Microcycle is one planned calendar week (Monday start), clipped to the plan range
type Microcycle struct {
	WeekStart        string             `json:"week_start"`
	WeekEnd          string             `json:"week_end"`
	PlannedWeeklyTSS float64            `json:"planned_weekly_tss"`
	Metadata         MicrocycleMetadata `json:"metadata"`
}

// OptimizerPath names one optimizer tier
type OptimizerPath string

const (
	PathFullMPC            OptimizerPath = "full_mpc"
	PathDegradedBoundedMPC OptimizerPath = "degraded_bounded_mpc"
	PathLegacyOptimizer    OptimizerPath = "legacy_optimizer"
	PathCapOnlyBaseline    OptimizerPath = "cap_only_baseline"
)

// OptimizerPaths lists the tiers in the order they are attempted
var OptimizerPaths = []OptimizerPath{
	PathFullMPC,
	PathDegradedBoundedMPC,
	PathLegacyOptimizer,
	PathCapOnlyBaseline,
}

// TierCounts holds one counter per optimizer tier. Every field is always
// serialized, including zeros.
type TierCounts struct {
	FullMPC            int `json:"full_mpc"`
	DegradedBoundedMPC int `json:"degraded_bounded_mpc"`
	LegacyOptimizer    int `json:"legacy_optimizer"`
	CapOnlyBaseline    int `json:"cap_only_baseline"`
}

// Get returns the counter for path
func (tc TierCounts) Get(path OptimizerPath) int {
	switch path {
	case PathFullMPC:
		return tc.FullMPC
	case PathDegradedBoundedMPC:
		return tc.DegradedBoundedMPC
	case PathLegacyOptimizer:
		return tc.LegacyOptimizer
	case PathCapOnlyBaseline:
		return tc.CapOnlyBaseline
	}
	return 0
}

// Add increments the counter for path by n
func (tc *TierCounts) Add(path OptimizerPath, n int) {
	switch path {
	case PathFullMPC:
		tc.FullMPC += n
	case PathDegradedBoundedMPC:
		tc.DegradedBoundedMPC += n
	case PathLegacyOptimizer:
		tc.LegacyOptimizer += n
	case PathCapOnlyBaseline:
		tc.CapOnlyBaseline += n
	}
}

// ProjectionDiagnostics explains how the optimizer reached its trajectory
type ProjectionDiagnostics struct {
	SelectedPath      OptimizerPath `json:"selected_path"`
	CandidateCounts   TierCounts    `json:"candidate_counts"`
	PruneCounts       TierCounts    `json:"prune_counts"`
	ActiveConstraints []string      `json:"active_constraints"`
	TieBreakChain     []string      `json:"tie_break_chain"`
	FallbackReason    *string       `json:"fallback_reason"`
}

// EvidenceConfidence scores the evidence behind an inferred fitness floor
type EvidenceConfidence struct {
	Score   float64    `json:"score"`
	State   Confidence `json:"state"`
	Reasons []string   `json:"reasons"`
}

// NoHistoryFloor is the inferred starting fitness used when there is no history
type NoHistoryFloor struct {
	FitnessLevel               string             `json:"fitness_level"`
	FitnessInferenceReasons    []string           `json:"fitness_inference_reasons"`
	ProjectionFloorConfidence  Confidence         `json:"projection_floor_confidence"`
	EvidenceConfidence         EvidenceConfidence `json:"evidence_confidence"`
	RawFloorCTL                float64            `json:"raw_floor_ctl"`
	FloorCTL                   float64            `json:"floor_ctl"`
	FloorClampedByAvailability bool               `json:"floor_clamped_by_availability"`
}

// ProjectionChart is the full day-by-day and week-by-week forecast
type ProjectionChart struct {
	StartDate   string                `json:"start_date"`
	EndDate     string                `json:"end_date"`
	Points      []ProjectionPoint     `json:"points"`
	GoalMarkers []GoalMarker          `json:"goal_markers"`
	Microcycles []Microcycle          `json:"microcycles"`
	Diagnostics ProjectionDiagnostics `json:"diagnostics"`
	NoHistory   *NoHistoryFloor       `json:"no_history,omitempty"`
}

// PointOn returns the projection point for date
func (c ProjectionChart) PointOn(date string) (ProjectionPoint, bool) {
	for _, p := range c.Points {
		if p.Date == date {
			return p, true
		}
	}
	return ProjectionPoint{}, false
}
