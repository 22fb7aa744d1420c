// Package snapshot binds a preview to the inputs it was computed from, so a
// later create can prove nothing drifted in between.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/logger"
	"github.com/julianstephens/trainplan/internal/models"
)

// Inputs is everything a token depends on. The whole calibration table is
// bound, so editing any constant without bumping its version still drifts.
type Inputs struct {
	Calibration        config.Calibration
	Config             models.NormalizedCreationConfig
	Plan               models.MinimalPlan
	HistoryFingerprint uint64
	StartingCTL        *float64
}

type canonicalTarget struct {
	Kind             string
	DistanceM        float64
	TargetTimeS      float64
	ActivityCategory string
	TargetLTHRBpm    float64
}

type canonicalGoal struct {
	Name       string
	TargetDate string
	Priority   int
	Targets    []canonicalTarget
}

// canonicalInputs has no maps and no pointers. Floats are hashed by their
// bits, and a missing override is distinct from an override of zero.
type canonicalInputs struct {
	Calibration        config.Calibration
	Config             models.NormalizedCreationConfig
	PlanStartDate      string
	Goals              []canonicalGoal
	HistoryFingerprint uint64
	HasStartingCTL     bool
	StartingCTL        float64
}

// canonicalGoals orders goals by date, priority and name so that callers
// listing the same calendar in a different order get the same token.
func canonicalGoals(goals []models.Goal) []canonicalGoal {
	out := make([]canonicalGoal, 0, len(goals))
	for _, g := range goals {
		targets := make([]canonicalTarget, 0, len(g.Targets))
		for _, t := range g.Targets {
			targets = append(targets, canonicalTarget{
				Kind:             string(t.Kind),
				DistanceM:        t.DistanceM,
				TargetTimeS:      t.TargetTimeS,
				ActivityCategory: t.ActivityCategory,
				TargetLTHRBpm:    t.TargetLTHRBpm,
			})
		}
		out = append(out, canonicalGoal{
			Name:       g.Name,
			TargetDate: g.TargetDate,
			Priority:   g.EffectivePriority(),
			Targets:    targets,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TargetDate != out[j].TargetDate {
			return out[i].TargetDate < out[j].TargetDate
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Compute returns the snapshot for in. Equal inputs always yield equal tokens.
func Compute(in Inputs) (models.PreviewSnapshot, error) {
	c := canonicalInputs{
		Calibration:        in.Calibration,
		Config:             in.Config,
		PlanStartDate:      in.Plan.PlanStartDate,
		Goals:              canonicalGoals(in.Plan.Goals),
		HistoryFingerprint: in.HistoryFingerprint,
	}
	if in.StartingCTL != nil {
		c.HasStartingCTL = true
		c.StartingCTL = *in.StartingCTL
	}

	h, err := hashstructure.Hash(c, hashstructure.FormatV2, nil)
	if err != nil {
		return models.PreviewSnapshot{}, fmt.Errorf("failed to compute snapshot token: %w", err)
	}
	return models.PreviewSnapshot{
		Version: in.Calibration.Version,
		Token:   fmt.Sprintf("v%d-%016x", in.Calibration.Version, h),
	}, nil
}

// Verify recomputes the token for in and compares it with supplied. An
// empty supplied token is a direct create and always passes.
func Verify(in Inputs, supplied string) error {
	if supplied == "" {
		return nil
	}
	current, err := Compute(in)
	if err != nil {
		return err
	}
	if current.Token != supplied {
		logger.Warn("Snapshot token mismatch", "supplied", supplied, "current", current.Token)
		return errors.Stale()
	}
	return nil
}
