package models

// FeasibilityState is the overall verdict on a projection
type FeasibilityState string

const (
	FeasibilitySafe       FeasibilityState = "safe"
	FeasibilityAggressive FeasibilityState = "aggressive"
	FeasibilityUnsafe     FeasibilityState = "unsafe"
)

// Severity orders states so the worst one can be picked
func (s FeasibilityState) Severity() int {
	switch s {
	case FeasibilityUnsafe:
		return 2
	case FeasibilityAggressive:
		return 1
	}
	return 0
}

type ReadinessComponents struct {
	LoadState           float64 `json:"load_state"`
	IntensityBalance    float64 `json:"intensity_balance"`
	Specificity         float64 `json:"specificity"`
	ExecutionConfidence float64 `json:"execution_confidence"`
}

type ProjectionUncertainty struct {
	TSSLow     float64    `json:"tss_low"`
	TSSLikely  float64    `json:"tss_likely"`
	TSSHigh    float64    `json:"tss_high"`
	Confidence Confidence `json:"confidence"`
}

// GoalFeasibility is the verdict for a single goal
type GoalFeasibility struct {
	GoalName           string           `json:"goal_name"`
	TargetDate         string           `json:"target_date"`
	DemandCTL          float64          `json:"demand_ctl"`
	ProjectedCTL       float64          `json:"projected_ctl"`
	DemandGap          float64          `json:"demand_gap"`
	RequiredTSSRampPct float64          `json:"required_tss_ramp_pct"`
	RequiredCTLRamp    float64          `json:"required_ctl_ramp"`
	State              FeasibilityState `json:"state"`
	Reasons            []string         `json:"reasons"`
}

// ProjectionFeasibility is the aggregate verdict
type ProjectionFeasibility struct {
	State                 FeasibilityState      `json:"state"`
	Reasons               []string              `json:"reasons"`
	DemandGap             float64               `json:"demand_gap"`
	ReadinessScore        float64               `json:"readiness_score"`
	ReadinessComponents   ReadinessComponents   `json:"readiness_components"`
	ProjectionUncertainty ProjectionUncertainty `json:"projection_uncertainty"`
	Goals                 []GoalFeasibility     `json:"goals"`
}

// ConflictItem is a single detected conflict
type ConflictItem struct {
	Code         string   `json:"code"`
	IsBlocking   bool     `json:"is_blocking"`
	Message      string   `json:"message"`
	RelatedDates []string `json:"related_dates"`
}

// Conflicts aggregates items; IsBlocking is the OR of item flags
type Conflicts struct {
	IsBlocking bool           `json:"is_blocking"`
	Items      []ConflictItem `json:"items"`
}

// HasCode reports whether any item carries code
func (c Conflicts) HasCode(code string) bool {
	for _, item := range c.Items {
		if item.Code == code {
			return true
		}
	}
	return false
}

// PreviewSnapshot binds a preview to the inputs it was computed from
type PreviewSnapshot struct {
	Version int    `json:"version"`
	Token   string `json:"token"`
}
