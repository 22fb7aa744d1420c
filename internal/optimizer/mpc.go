package optimizer

import (
	"math"

	"github.com/julianstephens/trainplan/internal/loadmodel"
	"github.com/julianstephens/trainplan/internal/models"
)

// recedingHorizon is a model-predictive tier. At every week it enumerates
// every sequence of discrete load levels over the horizon, simulates them,
// prunes infeasible ones, scores the rest and commits only the first week
// of the best sequence.
//
// Levels are relative to the highest weekly load so far: index 0 is the
// recovery level, the rest grow that reference by a fraction of the TSS
// ramp cap.
type recedingHorizon struct {
	path      models.OptimizerPath
	horizon   int
	fractions []float64
}

// NewFullMPC returns the full-horizon search tier
func NewFullMPC(horizon int, fractions []float64) Tier {
	return recedingHorizon{path: models.PathFullMPC, horizon: horizon, fractions: fractions}
}

// NewDegradedMPC returns the short-horizon search tier
func NewDegradedMPC(horizon int, fractions []float64) Tier {
	return recedingHorizon{path: models.PathDegradedBoundedMPC, horizon: horizon, fractions: fractions}
}

func (t recedingHorizon) Path() models.OptimizerPath {
	return t.path
}

func (t recedingHorizon) levelCount() int {
	return len(t.fractions) + 1
}

func (t recedingHorizon) level(p *Problem, idx int, ref float64) float64 {
	if idx == 0 {
		return ref * p.opt.RecoveryLevel
	}
	return ref * (1 + t.fractions[idx-1]*p.tssRampPct/100)
}

// evaluations is the number of sequences a full run would simulate
func (t recedingHorizon) evaluations(weeks int) float64 {
	return float64(weeks) * math.Pow(float64(t.levelCount()), float64(t.horizon))
}

func (t recedingHorizon) Attempt(p *Problem) CandidateSet {
	if t.horizon < 1 || len(t.fractions) == 0 {
		return CandidateSet{Reason: string(t.path) + "_not_configured"}
	}
	if t.evaluations(p.Weeks()) > float64(p.opt.EvaluationBudget) {
		return CandidateSet{Reason: string(t.path) + "_budget_exceeded"}
	}

	var set CandidateSet
	k := t.levelCount()
	state := p.seed
	maxPrior := p.initialWeekly
	prevWeekly := p.initialWeekly
	committed := make([]float64, 0, p.Weeks())

	for i := 0; i < p.Weeks(); i++ {
		h := t.horizon
		if rem := p.Weeks() - i; rem < h {
			h = rem
		}

		total := 1
		for j := 0; j < h; j++ {
			total *= k
		}

		found := false
		var best evaluation
		var bestFirst float64
		digits := make([]int, h)
		levels := make([]float64, h)

		for idx := 0; idx < total; idx++ {
			// first week is the most significant digit so enumeration order
			// groups sequences by their committed week
			n := idx
			for j := h - 1; j >= 0; j-- {
				digits[j] = n % k
				n /= k
			}

			if !t.feasible(p, i, state, maxPrior, digits, levels) {
				set.Pruned++
				continue
			}
			set.Scored++

			ev := p.scoreHorizon(i, state, prevWeekly, levels)
			ev.index = idx
			if !found || better(ev, best, p.opt.TieEpsilon) {
				best = ev
				bestFirst = levels[0]
				found = true
			}
		}

		if !found {
			set.Reason = string(t.path) + "_no_feasible_candidate"
			return set
		}

		state = p.advanceWeek(state, i, bestFirst)
		committed = append(committed, bestFirst)
		prevWeekly = bestFirst
		maxPrior = math.Max(maxPrior, bestFirst)
	}

	set.Candidates = []Candidate{{Weekly: committed, Index: 0}}
	return set
}

// feasible decodes a level sequence into levels and checks every week of it
func (t recedingHorizon) feasible(p *Problem, i int, s loadmodel.State, maxPrior float64, digits []int, levels []float64) bool {
	ref := maxPrior
	for j, d := range digits {
		w := t.level(p, d, ref)
		levels[j] = w
		next := p.advanceWeek(s, i+j, w)
		if p.violation(i+j, w, ref, s, next) != "" {
			return false
		}
		s = next
		ref = math.Max(ref, w)
	}
	return true
}
