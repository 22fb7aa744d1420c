// Package optimizer projects day-by-day training load toward a set of goals.
// It tries a sequence of strategies from most to least expensive and keeps
// the first that yields a trajectory; the last one always does.
package optimizer

import (
	"strings"
	"time"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/logger"
	"github.com/julianstephens/trainplan/internal/models"
)

// Engine runs the tiers in order
type Engine struct {
	tiers []Tier
}

// New returns an engine with the standard tier order configured from cal
func New(cal config.Optimizer) *Engine {
	return NewWithTiers(
		NewFullMPC(cal.FullHorizonWeeks, cal.FullRampFractions),
		NewDegradedMPC(cal.DegradedHorizonWeeks, cal.DegradedFractions),
		NewLegacy(),
		NewCapOnly(),
	)
}

// NewWithTiers returns an engine over custom tiers. A cap-only tier is
// appended when the list does not end with one, so Optimize stays total.
func NewWithTiers(tiers ...Tier) *Engine {
	if len(tiers) == 0 || tiers[len(tiers)-1].Path() != models.PathCapOnlyBaseline {
		tiers = append(tiers, NewCapOnly())
	}
	return &Engine{tiers: tiers}
}

// Result is the selected trajectory and how it was reached
type Result struct {
	Weekly      []float64
	Diagnostics models.ProjectionDiagnostics
}

// Optimize selects a weekly trajectory
func (e *Engine) Optimize(p *Problem) Result {
	start := time.Now()
	diag := models.ProjectionDiagnostics{
		TieBreakChain:     append([]string(nil), TieBreakChain...),
		ActiveConstraints: []string{},
	}

	var reasons []string
	var weekly []float64
	for _, tier := range e.tiers {
		path := tier.Path()
		set := tier.Attempt(p)
		diag.CandidateCounts.Add(path, set.Scored)
		diag.PruneCounts.Add(path, set.Pruned)

		if len(set.Candidates) == 0 {
			reason := set.Reason
			if reason == "" {
				reason = string(path) + "_no_candidate"
			}
			logger.Debug("Optimizer tier fell through", "tier", path, "reason", reason,
				"scored", set.Scored, "pruned", set.Pruned)
			reasons = append(reasons, reason)
			continue
		}

		best := set.Candidates[0]
		for _, c := range set.Candidates[1:] {
			if c.Score < best.Score-p.opt.TieEpsilon {
				best = c
			}
		}
		weekly = best.Weekly
		diag.SelectedPath = path
		break
	}

	if len(reasons) > 0 {
		joined := strings.Join(reasons, ";")
		diag.FallbackReason = &joined
	}
	diag.ActiveConstraints = p.activeConstraints(weekly)

	logger.Since("Optimized projection", start, "selected_path", diag.SelectedPath, "weeks", p.Weeks())
	return Result{Weekly: weekly, Diagnostics: diag}
}

// Project builds the problem, optimizes it and renders the chart
func (e *Engine) Project(in Input) (models.ProjectionChart, error) {
	p, err := Build(in)
	if err != nil {
		return models.ProjectionChart{}, err
	}
	res := e.Optimize(p)
	return p.Chart(res), nil
}
