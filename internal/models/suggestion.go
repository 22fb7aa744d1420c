package models

// Suggestion sources
const (
	SourceExisting = "existing"
	SourceHistory  = "history"
	SourceDefault  = "default"
)

// Suggested creation fields
const (
	FieldOptimizationProfile  = "optimization_profile"
	FieldMaxWeeklyTSSRampPct  = "max_weekly_tss_ramp_pct"
	FieldMaxCTLRampPerWeek    = "max_ctl_ramp_per_week"
	FieldPostGoalRecoveryDays = "post_goal_recovery_days"
	FieldDaysPerWeek          = "availability.days_per_week"
	FieldMaxWeeklyHours       = "availability.max_weekly_hours"
)

// Suggestion is a proposed value for one creation field
type Suggestion struct {
	Field     string      `json:"field"`
	Value     interface{} `json:"value"`
	Source    string      `json:"source"`
	Rationale string      `json:"rationale"`
}

// ContextSummary is the slice of a training context shown alongside suggestions
type ContextSummary struct {
	AsOf                     string              `json:"as_of"`
	CurrentCTL               float64             `json:"current_ctl"`
	CurrentATL               float64             `json:"current_atl"`
	CurrentTSB               float64             `json:"current_tsb"`
	HistoryAvailabilityState HistoryAvailability `json:"history_availability_state"`
	LearnedRamp              LearnedRamp         `json:"learned_ramp"`
	ActiveDaysPerWeek        float64             `json:"active_days_per_week"`
	WeeklyHours              float64             `json:"weekly_hours"`
	RationaleCodes           []string            `json:"rationale_codes"`
}

// CreationSuggestions is the result of a suggestion request
type CreationSuggestions struct {
	ContextSummary ContextSummary `json:"context_summary"`
	Suggestions    []Suggestion   `json:"suggestions"`
}
