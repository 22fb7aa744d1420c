package models

// OptimizationProfile selects the default caps applied during normalization
type OptimizationProfile string

const (
	ProfileOutcomeFirst OptimizationProfile = "outcome_first"
	ProfileBalanced     OptimizationProfile = "balanced"
	ProfileSustainable  OptimizationProfile = "sustainable"
)

// Availability describes how much time the athlete can train per week.
// Zero values mean "not provided".
type Availability struct {
	DaysPerWeek    int     `json:"days_per_week" yaml:"days_per_week" validate:"gte=0,lte=7"`
	MaxWeeklyHours float64 `json:"max_weekly_hours" yaml:"max_weekly_hours" validate:"gte=0,lte=60"`
}

// CreationConfig is the user-suppliable, partial configuration. Nil pointers
// are filled from the optimization profile during normalization.
type CreationConfig struct {
	OptimizationProfile  OptimizationProfile `json:"optimization_profile,omitempty" yaml:"optimization_profile,omitempty" validate:"omitempty,oneof=outcome_first balanced sustainable"`
	PostGoalRecoveryDays *int                `json:"post_goal_recovery_days,omitempty" yaml:"post_goal_recovery_days,omitempty" validate:"omitempty,gte=0,lte=60"`
	MaxWeeklyTSSRampPct  *float64            `json:"max_weekly_tss_ramp_pct,omitempty" yaml:"max_weekly_tss_ramp_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxCTLRampPerWeek    *float64            `json:"max_ctl_ramp_per_week,omitempty" yaml:"max_ctl_ramp_per_week,omitempty" validate:"omitempty,gte=0,lte=20"`
	Availability         *Availability       `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// NormalizedCreationConfig has every field resolved
type NormalizedCreationConfig struct {
	OptimizationProfile  OptimizationProfile `json:"optimization_profile"`
	PostGoalRecoveryDays int                 `json:"post_goal_recovery_days"`
	MaxWeeklyTSSRampPct  float64             `json:"max_weekly_tss_ramp_pct"`
	MaxCTLRampPerWeek    float64             `json:"max_ctl_ramp_per_week"`
	Availability         Availability        `json:"availability"`
}
