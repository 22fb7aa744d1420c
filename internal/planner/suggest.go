package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/metrics"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// GetCreationSuggestions proposes creation values from the athlete's
// history without projecting a plan. asOf defaults to today; fields set in
// existing are echoed back with source "existing".
func (s *Service) GetCreationSuggestions(ctx context.Context, asOf *time.Time, existing models.CreationConfig) (result models.CreationSuggestions, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordRequest(metrics.OpSuggest, outcomeOf(err), start) }()

	day := utils.Day(s.now())
	if asOf != nil {
		day = utils.Day(*asOf)
	}
	derived, err := s.deriver.Derive(ctx, day)
	if err != nil {
		return models.CreationSuggestions{}, err
	}
	tc := derived.Context

	window := s.cal.Suggestions.WindowDays
	from := utils.AddDays(day, -(window - 1))
	activeDays, hours := 0, 0.0
	seen := make(map[string]bool)
	for _, r := range derived.Records {
		d, _ := utils.ParseDate(r.Date)
		if d.Before(from) {
			continue
		}
		if !seen[r.Date] {
			seen[r.Date] = true
			activeDays++
		}
		hours += r.DurationSeconds / 3600
	}
	weeks := float64(window) / 7
	summary := models.ContextSummary{
		AsOf:                     tc.AsOf,
		CurrentCTL:               tc.CurrentCTL,
		CurrentATL:               tc.CurrentATL,
		CurrentTSB:               tc.CurrentTSB,
		HistoryAvailabilityState: tc.HistoryAvailabilityState,
		LearnedRamp:              tc.LearnedRamp,
		ActiveDaysPerWeek:        utils.Round1(float64(activeDays) / weeks),
		WeeklyHours:              utils.Round1(hours / weeks),
		RationaleCodes:           tc.RationaleCodes,
	}

	profile := s.suggestProfile(tc, existing)
	caps, ok := s.cal.Profiles.For(profile.Value.(models.OptimizationProfile))
	if !ok {
		caps, _ = s.cal.Profiles.For(s.cal.Profiles.Default)
	}

	suggestions := []models.Suggestion{
		profile,
		s.suggestTSSRamp(tc, existing, caps),
		s.suggestCTLRamp(tc, existing, caps),
		suggestRecovery(existing, caps, profile.Value),
	}
	suggestions = append(suggestions, s.suggestAvailability(tc, existing, summary)...)

	return models.CreationSuggestions{ContextSummary: summary, Suggestions: suggestions}, nil
}

func (s *Service) suggestProfile(tc models.TrainingContext, existing models.CreationConfig) models.Suggestion {
	sg := models.Suggestion{Field: models.FieldOptimizationProfile}
	switch {
	case existing.OptimizationProfile != "":
		sg.Value, sg.Source, sg.Rationale = existing.OptimizationProfile, models.SourceExisting, "supplied by caller"
	case tc.HistoryAvailabilityState != models.HistorySufficient:
		sg.Value, sg.Source = models.ProfileSustainable, models.SourceHistory
		sg.Rationale = fmt.Sprintf("%s history; start conservatively", tc.HistoryAvailabilityState)
	case tc.LearnedRamp.Confidence == models.ConfidenceHigh && tc.LearnedRamp.MaxSafeRate >= s.cal.Suggestions.OutcomeFirstRate:
		sg.Value, sg.Source = models.ProfileOutcomeFirst, models.SourceHistory
		sg.Rationale = fmt.Sprintf("history shows weekly ramps of %.1f TSS absorbed with high confidence", tc.LearnedRamp.MaxSafeRate)
	case tc.LearnedRamp.Confidence == models.ConfidenceLow:
		sg.Value, sg.Source, sg.Rationale = s.cal.Profiles.Default, models.SourceDefault, "too few weekly ramps to personalize"
	default:
		sg.Value, sg.Source = models.ProfileBalanced, models.SourceHistory
		sg.Rationale = fmt.Sprintf("learned weekly ramp of %.1f TSS (%s confidence)", tc.LearnedRamp.MaxSafeRate, tc.LearnedRamp.Confidence)
	}
	return sg
}

// historyRamps is usable only with sufficient history and a learned ramp
func historyRamps(tc models.TrainingContext) bool {
	return tc.HistoryAvailabilityState == models.HistorySufficient && tc.LearnedRamp.Confidence != models.ConfidenceLow
}

// suggestTSSRamp expresses the learned weekly increase as a share of the
// current weekly load, kept between the sustainable and outcome-first caps.
func (s *Service) suggestTSSRamp(tc models.TrainingContext, existing models.CreationConfig, caps config.CapSet) models.Suggestion {
	sg := models.Suggestion{Field: models.FieldMaxWeeklyTSSRampPct}
	switch {
	case existing.MaxWeeklyTSSRampPct != nil:
		sg.Value, sg.Source, sg.Rationale = *existing.MaxWeeklyTSSRampPct, models.SourceExisting, "supplied by caller"
	case historyRamps(tc):
		base := math.Max(tc.CurrentCTL*7, s.cal.Demand.MinBaselineWeek)
		pct := utils.Clamp(tc.LearnedRamp.MaxSafeRate/base*100,
			s.cal.Profiles.Sustainable.MaxWeeklyTSSRampPct, s.cal.Profiles.OutcomeFirst.MaxWeeklyTSSRampPct)
		sg.Value, sg.Source = utils.Round1(pct), models.SourceHistory
		sg.Rationale = fmt.Sprintf("learned ramp of %.1f TSS on a %.0f TSS week", tc.LearnedRamp.MaxSafeRate, base)
	default:
		sg.Value, sg.Source, sg.Rationale = caps.MaxWeeklyTSSRampPct, models.SourceDefault, "profile default"
	}
	return sg
}

// suggestCTLRamp converts the learned weekly load increase into the
// steady-state fitness gain it produces.
func (s *Service) suggestCTLRamp(tc models.TrainingContext, existing models.CreationConfig, caps config.CapSet) models.Suggestion {
	sg := models.Suggestion{Field: models.FieldMaxCTLRampPerWeek}
	switch {
	case existing.MaxCTLRampPerWeek != nil:
		sg.Value, sg.Source, sg.Rationale = *existing.MaxCTLRampPerWeek, models.SourceExisting, "supplied by caller"
	case historyRamps(tc):
		ramp := utils.Clamp(tc.LearnedRamp.MaxSafeRate/7,
			s.cal.Profiles.Sustainable.MaxCTLRampPerWeek, s.cal.Profiles.OutcomeFirst.MaxCTLRampPerWeek)
		sg.Value, sg.Source = utils.Round1(ramp), models.SourceHistory
		sg.Rationale = fmt.Sprintf("learned ramp of %.1f TSS per week", tc.LearnedRamp.MaxSafeRate)
	default:
		sg.Value, sg.Source, sg.Rationale = caps.MaxCTLRampPerWeek, models.SourceDefault, "profile default"
	}
	return sg
}

func suggestRecovery(existing models.CreationConfig, caps config.CapSet, profile interface{}) models.Suggestion {
	if existing.PostGoalRecoveryDays != nil {
		return models.Suggestion{
			Field:     models.FieldPostGoalRecoveryDays,
			Value:     *existing.PostGoalRecoveryDays,
			Source:    models.SourceExisting,
			Rationale: "supplied by caller",
		}
	}
	return models.Suggestion{
		Field:     models.FieldPostGoalRecoveryDays,
		Value:     caps.PostGoalRecoveryDays,
		Source:    models.SourceDefault,
		Rationale: fmt.Sprintf("%v profile default", profile),
	}
}

func (s *Service) suggestAvailability(tc models.TrainingContext, existing models.CreationConfig, summary models.ContextSummary) []models.Suggestion {
	days := models.Suggestion{Field: models.FieldDaysPerWeek}
	hours := models.Suggestion{Field: models.FieldMaxWeeklyHours}

	switch {
	case existing.Availability != nil && existing.Availability.DaysPerWeek > 0:
		days.Value, days.Source, days.Rationale = existing.Availability.DaysPerWeek, models.SourceExisting, "supplied by caller"
	case tc.HistoryAvailabilityState != models.HistoryNone && summary.ActiveDaysPerWeek > 0:
		days.Value, days.Source = int(math.Min(7, math.Ceil(summary.ActiveDaysPerWeek))), models.SourceHistory
		days.Rationale = fmt.Sprintf("%.1f active days per week over the last %d days", summary.ActiveDaysPerWeek, s.cal.Suggestions.WindowDays)
	default:
		days.Value, days.Source, days.Rationale = s.cal.Suggestions.DefaultDaysPerWeek, models.SourceDefault, "no recent activity"
	}

	switch {
	case existing.Availability != nil && existing.Availability.MaxWeeklyHours > 0:
		hours.Value, hours.Source, hours.Rationale = existing.Availability.MaxWeeklyHours, models.SourceExisting, "supplied by caller"
	case tc.HistoryAvailabilityState != models.HistoryNone && summary.WeeklyHours > 0:
		hours.Value, hours.Source = summary.WeeklyHours, models.SourceHistory
		hours.Rationale = fmt.Sprintf("%.1f hours per week over the last %d days", summary.WeeklyHours, s.cal.Suggestions.WindowDays)
	default:
		hours.Value, hours.Source, hours.Rationale = s.cal.Suggestions.DefaultWeeklyHours, models.SourceDefault, "no recent activity"
	}
	return []models.Suggestion{days, hours}
}
