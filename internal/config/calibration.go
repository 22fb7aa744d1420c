package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/trainplan/internal/models"
)

// CalibrationVersion is the version of the built-in constants table. It is
// folded into every snapshot token, so bump it whenever a default changes.
const CalibrationVersion = 1

// AgeBucket applies to ages >= MinAge up to the next bucket's MinAge
type AgeBucket struct {
	MinAge            int     `yaml:"min_age" validate:"gte=0,lte=120"`
	FitnessTC         int     `yaml:"fitness_tc" validate:"gte=1"`
	FatigueTC         int     `yaml:"fatigue_tc" validate:"gte=1"`
	MaxSustainableCTL float64 `yaml:"max_sustainable_ctl" validate:"gt=0"`
}

// CapSet is the set of caps a profile name expands to
type CapSet struct {
	PostGoalRecoveryDays int     `yaml:"post_goal_recovery_days" validate:"gte=0"`
	MaxWeeklyTSSRampPct  float64 `yaml:"max_weekly_tss_ramp_pct" validate:"gte=0"`
	MaxCTLRampPerWeek    float64 `yaml:"max_ctl_ramp_per_week" validate:"gte=0"`
}

type ProfileDefaults struct {
	Default      models.OptimizationProfile `yaml:"default" validate:"oneof=outcome_first balanced sustainable"`
	OutcomeFirst CapSet                     `yaml:"outcome_first"`
	Balanced     CapSet                     `yaml:"balanced"`
	Sustainable  CapSet                     `yaml:"sustainable"`
}

// For returns the caps of a profile, and false for an unknown name
func (p ProfileDefaults) For(name models.OptimizationProfile) (CapSet, bool) {
	switch name {
	case models.ProfileOutcomeFirst:
		return p.OutcomeFirst, true
	case models.ProfileBalanced:
		return p.Balanced, true
	case models.ProfileSustainable:
		return p.Sustainable, true
	}
	return CapSet{}, false
}

type Personalization struct {
	BaselineFitnessTC         int         `yaml:"baseline_fitness_tc" validate:"gte=1"`
	BaselineFatigueTC         int         `yaml:"baseline_fatigue_tc" validate:"gte=1"`
	BaselineMaxSustainableCTL float64     `yaml:"baseline_max_sustainable_ctl" validate:"gt=0"`
	AgeBuckets                []AgeBucket `yaml:"age_buckets" validate:"dive"`
	EnableAge                 bool        `yaml:"enable_age"`
	EnableGender              bool        `yaml:"enable_gender"`
	EnableIntensity           bool        `yaml:"enable_intensity"`
	FemaleFatigueMultiplier   float64     `yaml:"female_fatigue_multiplier" validate:"gt=0"`
	MaleFatigueMultiplier     float64     `yaml:"male_fatigue_multiplier" validate:"gt=0"`
}

type Ramp struct {
	WindowDays    int     `yaml:"window_days" validate:"gte=7"`
	Percentile    float64 `yaml:"percentile" validate:"gte=0,lte=100"`
	MinRate       float64 `yaml:"min_rate" validate:"gte=0"`
	MaxRate       float64 `yaml:"max_rate" validate:"gtefield=MinRate"`
	DefaultRate   float64 `yaml:"default_rate" validate:"gte=0"`
	MinWeeks      int     `yaml:"min_weeks" validate:"gte=1"`
	MediumDeltas  int     `yaml:"medium_deltas" validate:"gte=1"`
	HighDeltasMin int     `yaml:"high_deltas_min" validate:"gtefield=MediumDeltas"`
}

type Quality struct {
	WindowDays         int     `yaml:"window_days" validate:"gte=1"`
	LowWeight          float64 `yaml:"low_weight" validate:"gt=0"`
	ModerateWeight     float64 `yaml:"moderate_weight" validate:"gt=0"`
	HighWeight         float64 `yaml:"high_weight" validate:"gt=0"`
	NeutralLowPct      float64 `yaml:"neutral_low_pct" validate:"gte=0,lte=100"`
	NeutralModeratePct float64 `yaml:"neutral_moderate_pct" validate:"gte=0,lte=100"`
	NeutralHighPct     float64 `yaml:"neutral_high_pct" validate:"gte=0,lte=100"`
	ExtensionOneFactor float64 `yaml:"extension_one_factor" validate:"gt=0"`
	ExtensionTwoFactor float64 `yaml:"extension_two_factor" validate:"gtefield=ExtensionOneFactor"`
	ExtensionOneDays   int     `yaml:"extension_one_days" validate:"gte=0"`
	ExtensionTwoDays   int     `yaml:"extension_two_days" validate:"gte=0"`
}

type Availability struct {
	SparseWindowDays int `yaml:"sparse_window_days" validate:"gte=1"`
	SparseActiveDays int `yaml:"sparse_active_days" validate:"gte=0"`
	SparseMinWeeks   int `yaml:"sparse_min_weeks" validate:"gte=0"`
}

type Demand struct {
	DefaultGoalCTL  float64 `yaml:"default_goal_ctl" validate:"gt=0"`
	MinGoalCTL      float64 `yaml:"min_goal_ctl" validate:"gt=0"`
	RunRefSpeed     float64 `yaml:"run_ref_speed" validate:"gt=0"`
	BikeRefSpeed    float64 `yaml:"bike_ref_speed" validate:"gt=0"`
	SwimRefSpeed    float64 `yaml:"swim_ref_speed" validate:"gt=0"`
	OtherRefSpeed   float64 `yaml:"other_ref_speed" validate:"gt=0"`
	HRBaseCTL       float64 `yaml:"hr_base_ctl" validate:"gt=0"`
	HRBaseLTHR      float64 `yaml:"hr_base_lthr" validate:"gt=0"`
	HRCTLPerBeat    float64 `yaml:"hr_ctl_per_beat" validate:"gte=0"`
	MinBaselineWeek float64 `yaml:"min_baseline_weekly_tss" validate:"gt=0"`
}

// RefSpeed returns the reference speed in m/s for a category
func (d Demand) RefSpeed(category string) float64 {
	switch category {
	case models.CategoryRun:
		return d.RunRefSpeed
	case models.CategoryBike:
		return d.BikeRefSpeed
	case models.CategorySwim:
		return d.SwimRefSpeed
	}
	return d.OtherRefSpeed
}

type Optimizer struct {
	FullHorizonWeeks     int       `yaml:"full_horizon_weeks" validate:"gte=1,lte=6"`
	FullRampFractions    []float64 `yaml:"full_ramp_fractions" validate:"min=1,dive,gte=0,lte=1"`
	DegradedHorizonWeeks int       `yaml:"degraded_horizon_weeks" validate:"gte=1,lte=6"`
	DegradedFractions    []float64 `yaml:"degraded_ramp_fractions" validate:"min=1,dive,gte=0,lte=1"`
	RecoveryLevel        float64   `yaml:"recovery_level" validate:"gt=0,lte=1"`
	RecoveryDayFactor    float64   `yaml:"recovery_day_factor" validate:"gte=0,lte=1"`
	DemandUpperFactor    float64   `yaml:"demand_upper_factor" validate:"gte=1"`
	EvaluationBudget     int       `yaml:"evaluation_budget" validate:"gte=1"`
	SmoothnessWeight     float64   `yaml:"smoothness_weight" validate:"gte=0"`
	TerminalWeight       float64   `yaml:"terminal_weight" validate:"gte=0"`
	FormFloor            float64   `yaml:"form_floor"`
	FormPenaltyWeight    float64   `yaml:"form_penalty_weight" validate:"gte=0"`
	TieEpsilon           float64   `yaml:"tie_epsilon" validate:"gte=0"`
}

type NoHistory struct {
	UntrainedCTL    float64 `yaml:"untrained_ctl" validate:"gte=0"`
	RecreationalCTL float64 `yaml:"recreational_ctl" validate:"gte=0"`
	TrainedCTL      float64 `yaml:"trained_ctl" validate:"gte=0"`
	TSSPerHour      float64 `yaml:"tss_per_hour" validate:"gt=0"`
	TrainedSpeedPct float64 `yaml:"trained_speed_pct" validate:"gt=0"`
}

type Feasibility struct {
	AggressiveMargin          float64 `yaml:"aggressive_margin" validate:"gt=0,lte=1"`
	LoadStateWeight           float64 `yaml:"load_state_weight" validate:"gte=0"`
	IntensityBalanceWeight    float64 `yaml:"intensity_balance_weight" validate:"gte=0"`
	SpecificityWeight         float64 `yaml:"specificity_weight" validate:"gte=0"`
	ExecutionConfidenceWeight float64 `yaml:"execution_confidence_weight" validate:"gte=0"`
	SpreadNone                float64 `yaml:"spread_none" validate:"gte=0,lte=1"`
	SpreadSparse              float64 `yaml:"spread_sparse" validate:"gte=0,lte=1"`
	SpreadSufficient          float64 `yaml:"spread_sufficient" validate:"gte=0,lte=1"`
}

type Conflicts struct {
	MinPrepDays int `yaml:"min_prep_days" validate:"gte=0"`
}

type Suggestions struct {
	WindowDays         int     `yaml:"window_days" validate:"gte=7"`
	DefaultDaysPerWeek int     `yaml:"default_days_per_week" validate:"gte=1,lte=7"`
	DefaultWeeklyHours float64 `yaml:"default_weekly_hours" validate:"gt=0"`
	OutcomeFirstRate   float64 `yaml:"outcome_first_rate" validate:"gte=0"`
}

type Scheduling struct {
	WeeklyBudgetTolerance float64 `yaml:"weekly_budget_tolerance" validate:"gte=0"`
	MaxSessionsPerDay     int     `yaml:"max_sessions_per_day" validate:"gte=1"`
}

// Calibration is the explicit, versioned constants table. It is passed by
// value into the calibrator and optimizer; nothing reads it from globals.
type Calibration struct {
	Version         int             `yaml:"version" validate:"gte=1"`
	Profiles        ProfileDefaults `yaml:"profiles"`
	Personalization Personalization `yaml:"personalization"`
	Ramp            Ramp            `yaml:"ramp"`
	Quality         Quality         `yaml:"quality"`
	Availability    Availability    `yaml:"availability"`
	Demand          Demand          `yaml:"demand"`
	Optimizer       Optimizer       `yaml:"optimizer"`
	NoHistory       NoHistory       `yaml:"no_history"`
	Feasibility     Feasibility     `yaml:"feasibility"`
	Conflicts       Conflicts       `yaml:"conflicts"`
	Scheduling      Scheduling      `yaml:"scheduling"`
	Suggestions     Suggestions     `yaml:"suggestions"`
}

// Default returns the built-in calibration table
func Default() Calibration {
	return Calibration{
		Version: CalibrationVersion,
		Profiles: ProfileDefaults{
			Default:      models.ProfileBalanced,
			OutcomeFirst: CapSet{PostGoalRecoveryDays: 3, MaxWeeklyTSSRampPct: 10, MaxCTLRampPerWeek: 5},
			Balanced:     CapSet{PostGoalRecoveryDays: 5, MaxWeeklyTSSRampPct: 7, MaxCTLRampPerWeek: 3},
			Sustainable:  CapSet{PostGoalRecoveryDays: 7, MaxWeeklyTSSRampPct: 5, MaxCTLRampPerWeek: 2},
		},
		Personalization: Personalization{
			BaselineFitnessTC:         42,
			BaselineFatigueTC:         7,
			BaselineMaxSustainableCTL: 150,
			AgeBuckets: []AgeBucket{
				{MinAge: 0, FitnessTC: 42, FatigueTC: 7, MaxSustainableCTL: 150},
				{MinAge: 30, FitnessTC: 42, FatigueTC: 8, MaxSustainableCTL: 130},
				{MinAge: 40, FitnessTC: 45, FatigueTC: 9, MaxSustainableCTL: 115},
				{MinAge: 50, FitnessTC: 48, FatigueTC: 10, MaxSustainableCTL: 100},
			},
			EnableAge:               true,
			EnableGender:            true,
			EnableIntensity:         true,
			FemaleFatigueMultiplier: 1.1,
			MaleFatigueMultiplier:   1.0,
		},
		Ramp: Ramp{
			WindowDays:    365,
			Percentile:    75,
			MinRate:       30,
			MaxRate:       70,
			DefaultRate:   40,
			MinWeeks:      10,
			MediumDeltas:  15,
			HighDeltasMin: 30,
		},
		Quality: Quality{
			WindowDays:         28,
			LowWeight:          1.0,
			ModerateWeight:     1.2,
			HighWeight:         1.5,
			NeutralLowPct:      70,
			NeutralModeratePct: 20,
			NeutralHighPct:     10,
			ExtensionOneFactor: 1.2,
			ExtensionTwoFactor: 1.3,
			ExtensionOneDays:   1,
			ExtensionTwoDays:   2,
		},
		Availability: Availability{
			SparseWindowDays: 42,
			SparseActiveDays: 12,
			SparseMinWeeks:   4,
		},
		Demand: Demand{
			DefaultGoalCTL:  50,
			MinGoalCTL:      20,
			RunRefSpeed:     3.0,
			BikeRefSpeed:    8.0,
			SwimRefSpeed:    1.0,
			OtherRefSpeed:   3.0,
			HRBaseCTL:       40,
			HRBaseLTHR:      150,
			HRCTLPerBeat:    1.5,
			MinBaselineWeek: 70,
		},
		Optimizer: Optimizer{
			FullHorizonWeeks:     3,
			FullRampFractions:    []float64{0, 0.33, 0.66, 1.0},
			DegradedHorizonWeeks: 2,
			DegradedFractions:    []float64{0, 1.0},
			RecoveryLevel:        0.6,
			RecoveryDayFactor:    0.5,
			DemandUpperFactor:    1.3,
			EvaluationBudget:     250000,
			SmoothnessWeight:     0.002,
			TerminalWeight:       1.0,
			FormFloor:            -10,
			FormPenaltyWeight:    0.5,
			TieEpsilon:           1e-9,
		},
		NoHistory: NoHistory{
			UntrainedCTL:    15,
			RecreationalCTL: 25,
			TrainedCTL:      40,
			TSSPerHour:      55,
			TrainedSpeedPct: 1.1,
		},
		Feasibility: Feasibility{
			AggressiveMargin:          0.95,
			LoadStateWeight:           0.40,
			IntensityBalanceWeight:    0.15,
			SpecificityWeight:         0.20,
			ExecutionConfidenceWeight: 0.25,
			SpreadNone:                0.30,
			SpreadSparse:              0.20,
			SpreadSufficient:          0.10,
		},
		Conflicts: Conflicts{
			MinPrepDays: 14,
		},
		Scheduling: Scheduling{
			WeeklyBudgetTolerance: 0.10,
			MaxSessionsPerDay:     2,
		},
		Suggestions: Suggestions{
			WindowDays:         28,
			DefaultDaysPerWeek: 4,
			DefaultWeeklyHours: 6,
			OutcomeFirstRate:   55,
		},
	}
}

var validate = validator.New()

// Validate checks field bounds and cross-field invariants
func (c Calibration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid calibration: %w", err)
	}
	if len(c.Personalization.AgeBuckets) > 0 && c.Personalization.AgeBuckets[0].MinAge != 0 {
		return fmt.Errorf("invalid calibration: first age bucket must start at 0")
	}
	return nil
}

// Load reads a YAML calibration file layered over the defaults. An empty
// path returns the defaults.
func Load(path string) (Calibration, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("failed to read calibration file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Calibration{}, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	sort.SliceStable(cfg.Personalization.AgeBuckets, func(i, j int) bool {
		return cfg.Personalization.AgeBuckets[i].MinAge < cfg.Personalization.AgeBuckets[j].MinAge
	})

	if err := cfg.Validate(); err != nil {
		return Calibration{}, err
	}
	return cfg, nil
}
