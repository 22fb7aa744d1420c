package optimizer

import (
	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// TargetDemand returns the fitness (CTL) a single target calls for, and
// false when the target carries too little information to estimate one.
func TargetDemand(t models.Target, d config.Demand, maxSustainableCTL float64) (float64, bool) {
	var demand float64
	switch t.Kind {
	case models.TargetRacePerformance:
		if t.DistanceM <= 0 || t.TargetTimeS <= 0 {
			return 0, false
		}
		speed := t.DistanceM / t.TargetTimeS
		hours := t.TargetTimeS / 3600
		demand = 25 + 30*(speed/d.RefSpeed(t.ActivityCategory)) + 10*hours
	case models.TargetHRThreshold:
		if t.TargetLTHRBpm <= 0 {
			return 0, false
		}
		over := t.TargetLTHRBpm - d.HRBaseLTHR
		if over < 0 {
			over = 0
		}
		demand = d.HRBaseCTL + over*d.HRCTLPerBeat
	default:
		return 0, false
	}
	return clampDemand(demand, d, maxSustainableCTL), true
}

// GoalDemand is the largest demand among the goal's targets, or the default
// demand when none of them yields an estimate.
func GoalDemand(g models.Goal, d config.Demand, maxSustainableCTL float64) float64 {
	best := 0.0
	found := false
	for _, t := range g.Targets {
		if v, ok := TargetDemand(t, d, maxSustainableCTL); ok && (!found || v > best) {
			best = v
			found = true
		}
	}
	if !found {
		return clampDemand(d.DefaultGoalCTL, d, maxSustainableCTL)
	}
	return best
}

func clampDemand(v float64, d config.Demand, maxSustainableCTL float64) float64 {
	hi := maxSustainableCTL
	if hi < d.MinGoalCTL {
		hi = d.MinGoalCTL
	}
	return utils.Round1(utils.Clamp(v, d.MinGoalCTL, hi))
}
