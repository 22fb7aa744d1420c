package models

// Confidence is a coarse three-level confidence label
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// HistoryAvailability classifies how much usable history backs a context
type HistoryAvailability string

const (
	HistoryNone       HistoryAvailability = "none"
	HistorySparse     HistoryAvailability = "sparse"
	HistorySufficient HistoryAvailability = "sufficient"
)

// Gender values recognised by the calibrator. Anything else is unspecified.
const (
	GenderFemale = "female"
	GenderMale   = "male"
)

// LearnedRamp is the individual week-over-week load increase the athlete has
// historically tolerated, in TSS per week.
type LearnedRamp struct {
	MaxSafeRate    float64    `json:"max_safe_rate"`
	Confidence     Confidence `json:"confidence"`
	PositiveDeltas int        `json:"positive_deltas"`
	WeeksObserved  int        `json:"weeks_observed"`
}

// Training quality sources
const (
	QualitySourcePower     = "power"
	QualitySourceHeartRate = "heart_rate"
	QualitySourceMixed     = "mixed"
	QualitySourceNeutral   = "neutral"
)

// TrainingQuality is the rolling intensity distribution of recent training
type TrainingQuality struct {
	LowPct              float64 `json:"low_pct"`
	ModeratePct         float64 `json:"moderate_pct"`
	HighPct             float64 `json:"high_pct"`
	IntensityLoadFactor float64 `json:"intensity_load_factor"`
	PolarizationScore   float64 `json:"polarization_score"`
	Source              string  `json:"source"`
}

// TimeConstants are the personalized fitness/fatigue decay constants in days
type TimeConstants struct {
	Fitness int `json:"fitness"`
	Fatigue int `json:"fatigue"`
}

// CategoryShare is the fraction of recent training stress in one category
type CategoryShare struct {
	Category string  `json:"category"`
	Share    float64 `json:"share"`
}

// TrainingContext is built once per request and never mutated afterwards
type TrainingContext struct {
	AsOf                     string              `json:"as_of"`
	CurrentCTL               float64             `json:"current_ctl"`
	CurrentATL               float64             `json:"current_atl"`
	CurrentTSB               float64             `json:"current_tsb"`
	UserAge                  *int                `json:"user_age,omitempty"`
	UserGender               *string             `json:"user_gender,omitempty"`
	LearnedRamp              LearnedRamp         `json:"learned_ramp"`
	TrainingQuality          TrainingQuality     `json:"training_quality"`
	TimeConstants            TimeConstants       `json:"time_constants"`
	MaxSustainableCTL        float64             `json:"max_sustainable_ctl"`
	HistoryAvailabilityState HistoryAvailability `json:"history_availability_state"`
	RationaleCodes           []string            `json:"rationale_codes"`
	RecentCategoryShare      []CategoryShare     `json:"recent_category_share"`
	HasEffortBests           bool                `json:"has_effort_bests"`
	DroppedRecords           int                 `json:"dropped_records"`
}

// HasRationale reports whether code is among the rationale codes
func (c TrainingContext) HasRationale(code string) bool {
	for _, rc := range c.RationaleCodes {
		if rc == code {
			return true
		}
	}
	return false
}

// CategoryShareOf returns the recent share of a category, zero if absent
func (c TrainingContext) CategoryShareOf(category string) float64 {
	for _, cs := range c.RecentCategoryShare {
		if cs.Category == category {
			return cs.Share
		}
	}
	return 0
}
