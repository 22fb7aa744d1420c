package models

// PlanDocument is the structure persisted by the plan writer on commit
type PlanDocument struct {
	ID                       string                   `json:"id"`
	CreatedAt                string                   `json:"created_at"`
	SnapshotToken            string                   `json:"snapshot_token,omitempty"`
	MinimalPlan              MinimalPlan              `json:"minimal_plan"`
	NormalizedCreationConfig NormalizedCreationConfig `json:"normalized_creation_config"`
	Conflicts                Conflicts                `json:"conflicts"`
	ProjectionFeasibility    ProjectionFeasibility    `json:"projection_feasibility"`
	ProjectionChart          ProjectionChart          `json:"projection_chart"`
}

// Intensity labels for activity plans
const (
	IntensityLow      = "low"
	IntensityModerate = "moderate"
	IntensityHigh     = "high"
)

// ActivityPlan is a reusable session template that can be scheduled into a plan
type ActivityPlan struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ActivityCategory string  `json:"activity_category"`
	EstimatedTSS     float64 `json:"estimated_tss"`
	Intensity        string  `json:"intensity"`
}

// ScheduledActivity places an activity plan on a date inside a training plan
type ScheduledActivity struct {
	ID             string  `json:"id"`
	PlanID         string  `json:"plan_id"`
	ActivityPlanID string  `json:"activity_plan_id"`
	Date           string  `json:"date"`
	EstimatedTSS   float64 `json:"estimated_tss"`
	Intensity      string  `json:"intensity"`
}

// ConstraintStatus values
const (
	ConstraintOK       = "ok"
	ConstraintViolated = "violated"
)

// ConstraintResult is the outcome of one scheduling rule
type ConstraintResult struct {
	Status   string `json:"status"`
	Blocking bool   `json:"blocking"`
	Message  string `json:"message"`
}

// Violated reports whether the rule failed
func (r ConstraintResult) Violated() bool {
	return r.Status == ConstraintViolated
}

type ScheduleConstraints struct {
	WithinPlanRange   ConstraintResult `json:"within_plan_range"`
	WeeklyTSSBudget   ConstraintResult `json:"weekly_tss_budget"`
	PostGoalRecovery  ConstraintResult `json:"post_goal_recovery"`
	DailySessionLimit ConstraintResult `json:"daily_session_limit"`
}

// ScheduleValidation answers whether an activity plan fits on a date
type ScheduleValidation struct {
	CanSchedule bool                `json:"canSchedule"`
	Constraints ScheduleConstraints `json:"constraints"`
}

// PlanPreview summarizes the plan a create call would persist
type PlanPreview struct {
	PlanStartDate   string  `json:"plan_start_date"`
	EndDate         string  `json:"end_date"`
	Goals           []Goal  `json:"goals"`
	Weeks           int     `json:"weeks"`
	TotalPlannedTSS float64 `json:"total_planned_tss"`
}

// PlanSummary is the list view of a stored plan
type PlanSummary struct {
	ID               string           `json:"id"`
	CreatedAt        string           `json:"created_at"`
	PlanStartDate    string           `json:"plan_start_date"`
	EndDate          string           `json:"end_date"`
	FeasibilityState FeasibilityState `json:"feasibility_state"`
}
