package models

// TargetKind discriminates the Target variant
type TargetKind string

const (
	TargetRacePerformance TargetKind = "race_performance"
	TargetHRThreshold     TargetKind = "hr_threshold"
)

// Activity categories understood by the demand model
const (
	CategoryRun   = "run"
	CategoryBike  = "bike"
	CategorySwim  = "swim"
	CategoryOther = "other"
)

// Target is a tagged variant. Only the fields of the selected Kind are read:
// race_performance uses DistanceM, TargetTimeS and ActivityCategory;
// hr_threshold uses TargetLTHRBpm.
type Target struct {
	Kind             TargetKind `json:"kind" yaml:"kind" validate:"required,oneof=race_performance hr_threshold"`
	DistanceM        float64    `json:"distance_m,omitempty" yaml:"distance_m,omitempty" validate:"gte=0"`
	TargetTimeS      float64    `json:"target_time_s,omitempty" yaml:"target_time_s,omitempty" validate:"gte=0"`
	ActivityCategory string     `json:"activity_category,omitempty" yaml:"activity_category,omitempty"`
	TargetLTHRBpm    float64    `json:"target_lthr_bpm,omitempty" yaml:"target_lthr_bpm,omitempty" validate:"gte=0,lte=230"`
}

// Goal is a dated training objective
type Goal struct {
	Name       string   `json:"name" yaml:"name" validate:"required,max=200"`
	TargetDate string   `json:"target_date" yaml:"target_date" validate:"required,isodate"`
	Priority   int      `json:"priority" yaml:"priority" validate:"gte=0,lte=10"` // 1 is the highest priority; 0 means unset
	Targets    []Target `json:"targets" yaml:"targets" validate:"dive"`
}

// EffectivePriority returns the priority with the unset value mapped to 1
func (g Goal) EffectivePriority() int {
	if g.Priority < 1 {
		return 1
	}
	return g.Priority
}

// MinimalPlan is the smallest description of a plan a caller can submit
type MinimalPlan struct {
	PlanStartDate string `json:"plan_start_date" yaml:"plan_start_date" validate:"required,isodate"`
	Goals         []Goal `json:"goals" yaml:"goals" validate:"required,min=1,max=20,dive"`
}
