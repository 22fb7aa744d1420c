package validation

import (
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
)

// Normalize fills every omitted field of cfg from its profile. An empty
// profile resolves to the calibration default; explicit values win.
func (v *Validator) Normalize(cfg models.CreationConfig) (models.NormalizedCreationConfig, error) {
	profile := cfg.OptimizationProfile
	if profile == "" {
		profile = v.cal.Profiles.Default
	}
	caps, ok := v.cal.Profiles.For(profile)
	if !ok {
		return models.NormalizedCreationConfig{}, errors.Invalid("unknown optimization_profile %q", profile)
	}

	out := models.NormalizedCreationConfig{
		OptimizationProfile:  profile,
		PostGoalRecoveryDays: caps.PostGoalRecoveryDays,
		MaxWeeklyTSSRampPct:  caps.MaxWeeklyTSSRampPct,
		MaxCTLRampPerWeek:    caps.MaxCTLRampPerWeek,
	}
	if cfg.PostGoalRecoveryDays != nil {
		out.PostGoalRecoveryDays = *cfg.PostGoalRecoveryDays
	}
	if cfg.MaxWeeklyTSSRampPct != nil {
		out.MaxWeeklyTSSRampPct = *cfg.MaxWeeklyTSSRampPct
	}
	if cfg.MaxCTLRampPerWeek != nil {
		out.MaxCTLRampPerWeek = *cfg.MaxCTLRampPerWeek
	}
	if cfg.Availability != nil {
		out.Availability = *cfg.Availability
	}
	return out, nil
}
