package models

// ActivityRecord is one recorded activity as returned by the history reader.
// Date is kept as the raw YYYY-MM-DD string so malformed rows can be dropped
// and counted instead of failing the read.
type ActivityRecord struct {
	ID                  string    `json:"id" yaml:"id,omitempty"`
	Date                string    `json:"date" yaml:"date"`
	ActivityCategory    string    `json:"activity_category" yaml:"activity_category"`
	DurationSeconds     float64   `json:"duration_seconds" yaml:"duration_seconds"`
	TrainingStressScore float64   `json:"training_stress_score" yaml:"training_stress_score"`
	HRZoneSeconds       []float64 `json:"hr_zone_seconds,omitempty" yaml:"hr_zone_seconds,omitempty"`
	PowerZoneSeconds    []float64 `json:"power_zone_seconds,omitempty" yaml:"power_zone_seconds,omitempty"`
}

// EffortBest is a best recorded effort over a distance
type EffortBest struct {
	ID               string  `json:"id" yaml:"id,omitempty"`
	Date             string  `json:"date" yaml:"date"`
	ActivityCategory string  `json:"activity_category" yaml:"activity_category"`
	DistanceM        float64 `json:"distance_m" yaml:"distance_m"`
	DurationS        float64 `json:"duration_s" yaml:"duration_s"`
}

// Profile is the athlete snapshot. Empty strings mean "not provided".
type Profile struct {
	DOB    string `json:"dob,omitempty" yaml:"dob,omitempty"`
	Gender string `json:"gender,omitempty" yaml:"gender,omitempty"`
}
