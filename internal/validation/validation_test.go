package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/constants"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func validPlan() models.MinimalPlan {
	return models.MinimalPlan{
		PlanStartDate: "2025-01-06",
		Goals: []models.Goal{{
			Name:       "10k",
			TargetDate: "2025-03-30",
			Priority:   1,
			Targets:    []models.Target{{Kind: models.TargetRacePerformance, ActivityCategory: models.CategoryRun, DistanceM: 10000, TargetTimeS: 3000}},
		}},
	}
}

func TestPlan_Valid(t *testing.T) {
	v := New(config.Default())
	if err := v.Plan(validPlan(), models.CreationConfig{}); err != nil {
		t.Errorf("Plan() error = %v, want nil", err)
	}
}

func TestISODateRule(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{value: "2025-01-06", ok: true},
		{value: "2024-02-29", ok: true},
		{value: "2025-02-29", ok: false},
		{value: "2025-1-6", ok: false},
		{value: "06/01/2025", ok: false},
		{value: "", ok: false},
	}
	for _, tt := range tests {
		err := inputValidate.Var(tt.value, "isodate")
		if got := err == nil; got != tt.ok {
			t.Errorf("isodate(%q) ok = %v, want %v (err %v)", tt.value, got, tt.ok, err)
		}
	}
}

func TestPlan_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.MinimalPlan, c *models.CreationConfig)
		want   string
	}{
		{
			name:   "missing start",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { p.PlanStartDate = "" },
			want:   "plan_start_date is required",
		},
		{
			name:   "malformed goal date",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { p.Goals[0].TargetDate = "30/03/2025" },
			want:   "goals[0].target_date must be a YYYY-MM-DD date",
		},
		{
			name:   "malformed start date",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { p.PlanStartDate = "2025-13-01" },
			want:   "plan_start_date must be a YYYY-MM-DD date",
		},
		{
			name:   "no goals",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { p.Goals = nil },
			want:   "goals is required",
		},
		{
			name:   "start after goal",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { p.PlanStartDate = "2025-04-01" },
			want:   "is before plan_start_date",
		},
		{
			name:   "unknown profile",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { c.OptimizationProfile = "reckless" },
			want:   "optimization_profile must be one of",
		},
		{
			name:   "negative recovery",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) { c.PostGoalRecoveryDays = intPtr(-1) },
			want:   "post_goal_recovery_days fails gte=0",
		},
		{
			name: "distance without time",
			mutate: func(p *models.MinimalPlan, c *models.CreationConfig) {
				p.Goals[0].Targets[0].TargetTimeS = 0
			},
			want: "needs both distance_m and target_time_s",
		},
	}

	v := New(config.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, cfg := validPlan(), models.CreationConfig{}
			tt.mutate(&plan, &cfg)

			err := v.Plan(plan, cfg)
			if err == nil {
				t.Fatal("Plan() error = nil, want rejection")
			}
			if errors.CodeOf(err) != errors.CodeInvalidInput {
				t.Errorf("CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeInvalidInput)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestNormalize_Profiles(t *testing.T) {
	tests := []struct {
		profile  models.OptimizationProfile
		recovery int
		tss      float64
		ctl      float64
	}{
		{profile: models.ProfileOutcomeFirst, recovery: 3, tss: 10, ctl: 5},
		{profile: models.ProfileBalanced, recovery: 5, tss: 7, ctl: 3},
		{profile: models.ProfileSustainable, recovery: 7, tss: 5, ctl: 2},
		{profile: "", recovery: 5, tss: 7, ctl: 3},
	}

	v := New(config.Default())
	for _, tt := range tests {
		got, err := v.Normalize(models.CreationConfig{OptimizationProfile: tt.profile})
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", tt.profile, err)
		}
		if got.PostGoalRecoveryDays != tt.recovery || got.MaxWeeklyTSSRampPct != tt.tss || got.MaxCTLRampPerWeek != tt.ctl {
			t.Errorf("Normalize(%q) = %+v, want {%d, %v, %v}", tt.profile, got, tt.recovery, tt.tss, tt.ctl)
		}
	}
}

func TestNormalize_ExplicitValuesWin(t *testing.T) {
	v := New(config.Default())
	got, err := v.Normalize(models.CreationConfig{
		OptimizationProfile: models.ProfileSustainable,
		MaxCTLRampPerWeek:   floatPtr(0),
		Availability:        &models.Availability{DaysPerWeek: 5, MaxWeeklyHours: 8},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.MaxCTLRampPerWeek != 0 {
		t.Errorf("MaxCTLRampPerWeek = %v, want explicit 0", got.MaxCTLRampPerWeek)
	}
	if got.MaxWeeklyTSSRampPct != 5 || got.PostGoalRecoveryDays != 7 {
		t.Errorf("profile fields = %+v, want sustainable defaults", got)
	}
	if got.Availability.DaysPerWeek != 5 || got.Availability.MaxWeeklyHours != 8 {
		t.Errorf("Availability = %+v", got.Availability)
	}
}

func TestNormalize_UnknownProfile(t *testing.T) {
	v := New(config.Default())
	_, err := v.Normalize(models.CreationConfig{OptimizationProfile: "reckless"})
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Errorf("CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeInvalidInput)
	}
}

func twoGoalChart(first, second string) models.ProjectionChart {
	return models.ProjectionChart{
		GoalMarkers: []models.GoalMarker{
			{Name: "half", Date: first, Priority: 1},
			{Name: "10k", Date: second, Priority: 2},
		},
	}
}

func TestConflicts_RecoveryOverlap(t *testing.T) {
	v := New(config.Default())
	cfg := models.NormalizedCreationConfig{PostGoalRecoveryDays: 14, MaxWeeklyTSSRampPct: 10, MaxCTLRampPerWeek: 5}

	got := v.Conflicts(twoGoalChart("2025-03-01", "2025-03-10"), models.ProjectionFeasibility{}, cfg)

	if !got.IsBlocking {
		t.Error("IsBlocking = false, want true")
	}
	if !got.HasCode(constants.ConflictRecoveryOverlapsNextGoal) {
		t.Fatalf("items = %+v, want %s", got.Items, constants.ConflictRecoveryOverlapsNextGoal)
	}
	item := got.Items[0]
	if len(item.RelatedDates) != 2 || item.RelatedDates[0] != "2025-03-01" || item.RelatedDates[1] != "2025-03-10" {
		t.Errorf("RelatedDates = %v", item.RelatedDates)
	}
}

func TestConflicts_RecoveryCompressesPrep(t *testing.T) {
	v := New(config.Default())
	cfg := models.NormalizedCreationConfig{PostGoalRecoveryDays: 7, MaxWeeklyTSSRampPct: 10, MaxCTLRampPerWeek: 5}

	// 20 days apart leaves 13 days of preparation
	got := v.Conflicts(twoGoalChart("2025-03-01", "2025-03-21"), models.ProjectionFeasibility{}, cfg)

	if got.IsBlocking {
		t.Error("IsBlocking = true, want false")
	}
	if !got.HasCode(constants.ConflictRecoveryCompressesPrep) {
		t.Errorf("items = %+v, want %s", got.Items, constants.ConflictRecoveryCompressesPrep)
	}

	got = v.Conflicts(twoGoalChart("2025-03-01", "2025-03-22"), models.ProjectionFeasibility{}, cfg)
	if len(got.Items) != 0 {
		t.Errorf("items = %+v, want none with 14 prep days", got.Items)
	}
}

func TestConflicts_SameDayGoalsDoNotCollide(t *testing.T) {
	v := New(config.Default())
	cfg := models.NormalizedCreationConfig{PostGoalRecoveryDays: 5}
	got := v.Conflicts(twoGoalChart("2025-03-01", "2025-03-01"), models.ProjectionFeasibility{}, cfg)
	if len(got.Items) != 0 {
		t.Errorf("items = %+v, want none", got.Items)
	}
}

func TestConflicts_CapViolationsDoNotBlock(t *testing.T) {
	v := New(config.Default())
	cfg := models.NormalizedCreationConfig{}
	feas := models.ProjectionFeasibility{Goals: []models.GoalFeasibility{{
		GoalName:           "10k",
		TargetDate:         "2025-03-30",
		RequiredTSSRampPct: 4.1,
		RequiredCTLRamp:    2,
	}}}

	got := v.Conflicts(models.ProjectionChart{}, feas, cfg)

	if got.IsBlocking {
		t.Error("IsBlocking = true, want false")
	}
	for _, code := range []string{constants.ConflictTSSRampExceedsCap, constants.ConflictCTLRampExceedsCap} {
		if !got.HasCode(code) {
			t.Errorf("items = %+v, missing %s", got.Items, code)
		}
	}
}

func TestFormatReport(t *testing.T) {
	if got := FormatReport(models.Conflicts{}); got != "No conflicts detected." {
		t.Errorf("FormatReport(empty) = %q", got)
	}
	report := FormatReport(models.Conflicts{Items: []models.ConflictItem{{Code: "x", IsBlocking: true, Message: "boom"}}})
	if !strings.Contains(report, "! x: boom") {
		t.Errorf("FormatReport = %q", report)
	}
}

func storedPlan() models.PlanDocument {
	return models.PlanDocument{
		ID:          "plan-1",
		MinimalPlan: validPlan(),
		NormalizedCreationConfig: models.NormalizedCreationConfig{
			PostGoalRecoveryDays: 5,
		},
		ProjectionChart: models.ProjectionChart{
			StartDate: "2025-01-06",
			EndDate:   "2025-04-06",
			Microcycles: []models.Microcycle{
				{WeekStart: "2025-03-24", WeekEnd: "2025-03-30", PlannedWeeklyTSS: 300},
				{WeekStart: "2025-03-31", WeekEnd: "2025-04-06", PlannedWeeklyTSS: 150},
			},
		},
	}
}

func TestSchedule(t *testing.T) {
	easy := models.ActivityPlan{ID: "ap-easy", EstimatedTSS: 40, Intensity: models.IntensityLow}
	hard := models.ActivityPlan{ID: "ap-hard", EstimatedTSS: 90, Intensity: models.IntensityHigh}
	moderate := models.ActivityPlan{ID: "ap-mod", EstimatedTSS: 60, Intensity: models.IntensityModerate}

	tests := []struct {
		name      string
		date      string
		ap        models.ActivityPlan
		scheduled []models.ScheduledActivity
		can       bool
		check     func(c models.ScheduleConstraints) bool
	}{
		{
			name:  "easy session mid plan",
			date:  "2025-03-25",
			ap:    easy,
			can:   true,
			check: func(c models.ScheduleConstraints) bool { return !c.WithinPlanRange.Violated() },
		},
		{
			name:  "before plan start",
			date:  "2025-01-01",
			ap:    easy,
			can:   false,
			check: func(c models.ScheduleConstraints) bool { return c.WithinPlanRange.Violated() && c.WithinPlanRange.Blocking },
		},
		{
			name:  "hard session in recovery",
			date:  "2025-04-01",
			ap:    hard,
			can:   false,
			check: func(c models.ScheduleConstraints) bool { return c.PostGoalRecovery.Violated() && c.PostGoalRecovery.Blocking },
		},
		{
			name:  "moderate session in recovery warns",
			date:  "2025-04-02",
			ap:    moderate,
			can:   true,
			check: func(c models.ScheduleConstraints) bool { return c.PostGoalRecovery.Violated() && !c.PostGoalRecovery.Blocking },
		},
		{
			name: "weekly budget exceeded warns",
			date: "2025-03-27",
			ap:   hard,
			scheduled: []models.ScheduledActivity{
				{Date: "2025-03-24", EstimatedTSS: 130},
				{Date: "2025-03-25", EstimatedTSS: 130},
			},
			can:   true,
			check: func(c models.ScheduleConstraints) bool { return c.WeeklyTSSBudget.Violated() && !c.WeeklyTSSBudget.Blocking },
		},
		{
			name: "weekly budget within tolerance",
			date: "2025-03-27",
			ap:   easy,
			scheduled: []models.ScheduledActivity{
				{Date: "2025-03-24", EstimatedTSS: 150},
				{Date: "2025-03-25", EstimatedTSS: 130},
			},
			can:   true,
			check: func(c models.ScheduleConstraints) bool { return !c.WeeklyTSSBudget.Violated() },
		},
		{
			name: "third session on a day",
			date: "2025-03-25",
			ap:   easy,
			scheduled: []models.ScheduledActivity{
				{Date: "2025-03-25", EstimatedTSS: 20},
				{Date: "2025-03-25", EstimatedTSS: 20},
			},
			can:   false,
			check: func(c models.ScheduleConstraints) bool { return c.DailySessionLimit.Violated() && c.DailySessionLimit.Blocking },
		},
	}

	v := New(config.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Schedule(ScheduleRequest{Plan: storedPlan(), Scheduled: tt.scheduled, ActivityPlan: tt.ap, Date: tt.date})
			if err != nil {
				t.Fatalf("Schedule() error = %v", err)
			}
			if got.CanSchedule != tt.can {
				t.Errorf("CanSchedule = %v, want %v (%+v)", got.CanSchedule, tt.can, got.Constraints)
			}
			if !tt.check(got.Constraints) {
				t.Errorf("constraints = %+v", got.Constraints)
			}
		})
	}
}

func TestSchedule_BadDate(t *testing.T) {
	v := New(config.Default())
	_, err := v.Schedule(ScheduleRequest{Plan: storedPlan(), Date: "tomorrow"})
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Errorf("CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeInvalidInput)
	}
}
