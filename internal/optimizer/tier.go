package optimizer

import (
	"math"

	"github.com/julianstephens/trainplan/internal/loadmodel"
	"github.com/julianstephens/trainplan/internal/models"
)

// Tie-break criteria, applied in order when two scores are within epsilon
const (
	TieMinRampVariance    = "min_ramp_variance"
	TieMaxGoalSpecificity = "max_goal_specificity"
	TieLowestCandidateIdx = "lowest_candidate_index"
)

// TieBreakChain is reported verbatim in diagnostics
var TieBreakChain = []string{TieMinRampVariance, TieMaxGoalSpecificity, TieLowestCandidateIdx}

// Candidate is one complete weekly-load trajectory
type Candidate struct {
	Weekly []float64
	Score  float64
	Index  int
}

// CandidateSet is what a tier returns. Scored and Pruned count the
// sequences the tier evaluated; Reason explains an empty result.
type CandidateSet struct {
	Candidates []Candidate
	Scored     int
	Pruned     int
	Reason     string
}

// Tier is one optimizer strategy. Attempt never fails; an empty candidate
// set with a reason tells the engine to fall through to the next tier.
type Tier interface {
	Path() models.OptimizerPath
	Attempt(p *Problem) CandidateSet
}

// evaluation is the score and tie-break keys of one horizon sequence
type evaluation struct {
	score        float64
	rampVariance float64
	specificity  int
	index        int
}

// better reports whether a beats b under the score and tie-break chain
func better(a, b evaluation, eps float64) bool {
	if a.score < b.score-eps {
		return true
	}
	if a.score > b.score+eps {
		return false
	}
	if a.rampVariance < b.rampVariance-eps {
		return true
	}
	if a.rampVariance > b.rampVariance+eps {
		return false
	}
	if a.specificity != b.specificity {
		return a.specificity > b.specificity
	}
	return a.index < b.index
}

func rampVariance(prev float64, weekly []float64) float64 {
	if len(weekly) == 0 {
		return 0
	}
	deltas := make([]float64, len(weekly))
	last := prev
	mean := 0.0
	for i, w := range weekly {
		deltas[i] = w - last
		last = w
		mean += deltas[i]
	}
	mean /= float64(len(deltas))
	v := 0.0
	for _, d := range deltas {
		v += (d - mean) * (d - mean)
	}
	return v / float64(len(deltas))
}

// scoreHorizon simulates weekly levels starting at week i from state s and
// returns the sequence evaluation. The sequence is assumed feasible.
func (p *Problem) scoreHorizon(i int, s loadmodel.State, prevWeekly float64, weekly []float64) evaluation {
	opt := p.opt
	ev := evaluation{rampVariance: rampVariance(prevWeekly, weekly)}

	startFitness := s.Fitness
	startDay := p.weeks[i].first
	last := prevWeekly
	for k, level := range weekly {
		w := p.weeks[i+k]
		before := s
		for d := w.first; d < w.first+w.days; d++ {
			s = p.model.Advance(s, p.dayLoad(d, level))
			for _, g := range p.goals {
				if g.day != d {
					continue
				}
				ev.score += math.Abs(s.Fitness-g.demand) / float64(g.priority)
				if tsb := s.Balance(); tsb < opt.FormFloor {
					ev.score += opt.FormPenaltyWeight * (opt.FormFloor - tsb)
				}
			}
		}
		target := p.nextDemandFrom(w.first)
		if math.Abs(s.Fitness-target) < math.Abs(before.Fitness-target) {
			ev.specificity++
		}
		ev.score += opt.SmoothnessWeight * (level - last) * (level - last)
		last = level
	}

	endWeek := p.weeks[i+len(weekly)-1]
	endDay := endWeek.first + endWeek.days - 1
	if g, ok := p.nextGoalAfter(endDay); ok {
		total := float64(g.day - startDay + 1)
		elapsed := float64(endDay - startDay + 1)
		target := startFitness + (g.demand-startFitness)*(elapsed/total)
		ev.score += opt.TerminalWeight * math.Abs(s.Fitness-target)
	}
	return ev
}
