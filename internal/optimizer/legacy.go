package optimizer

import (
	"math"

	"github.com/julianstephens/trainplan/internal/models"
)

const (
	legacyBackoffFactor = 0.9
	legacyMaxBackoffs   = 10
)

// legacyRamp walks the weekly load toward the load that would hold the
// next goal's demand, never faster than the caps allow, and backs off
// when the simulated fitness ramp breaks its cap.
type legacyRamp struct{}

// NewLegacy returns the heuristic ramp tier
func NewLegacy() Tier {
	return legacyRamp{}
}

func (legacyRamp) Path() models.OptimizerPath {
	return models.PathLegacyOptimizer
}

func (legacyRamp) Attempt(p *Problem) CandidateSet {
	state := p.seed
	maxPrior := p.initialWeekly
	weekly := make([]float64, 0, p.Weeks())

	for i, w := range p.weeks {
		target := p.nextDemandFrom(w.first) * 7
		level := math.Min(target, p.tssRampLimit(maxPrior))
		if p.recoveryWeek[i] {
			level = math.Min(level, maxPrior)
		}
		level = math.Min(level, p.upper[i])

		next := p.advanceWeek(state, i, level)
		for n := 0; n < legacyMaxBackoffs && p.violation(i, level, maxPrior, state, next) == ConstraintCTLRamp; n++ {
			level *= legacyBackoffFactor
			next = p.advanceWeek(state, i, level)
		}
		if v := p.violation(i, level, maxPrior, state, next); v != "" {
			return CandidateSet{Pruned: 1, Reason: "legacy_optimizer_" + v + "_unresolved"}
		}

		weekly = append(weekly, level)
		state = next
		maxPrior = math.Max(maxPrior, level)
	}

	return CandidateSet{Candidates: []Candidate{{Weekly: weekly}}, Scored: 1}
}

// capOnly grows the previous week's load by the caps alone. It checks no
// constraints, so it always yields exactly one trajectory.
type capOnly struct{}

// NewCapOnly returns the baseline tier
func NewCapOnly() Tier {
	return capOnly{}
}

func (capOnly) Path() models.OptimizerPath {
	return models.PathCapOnlyBaseline
}

func (capOnly) Attempt(p *Problem) CandidateSet {
	ceiling := p.maxSustainableCTL * 7 * p.opt.DemandUpperFactor
	prev := p.initialWeekly
	weekly := make([]float64, 0, p.Weeks())
	for range p.weeks {
		next := math.Min(prev*(1+p.tssRampPct/100), prev+p.ctlRampPerWeek*7)
		next = math.Max(0, math.Min(next, ceiling))
		weekly = append(weekly, next)
		prev = next
	}
	return CandidateSet{Candidates: []Candidate{{Weekly: weekly}}, Scored: 1}
}
