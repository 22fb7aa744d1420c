package optimizer

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/trainplan/internal/loadmodel"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// Chart expands a weekly trajectory into daily points, goal markers and
// microcycles. There is exactly one point per plan day.
func (p *Problem) Chart(res Result) models.ProjectionChart {
	points := make([]models.ProjectionPoint, 0, p.days)
	microcycles := make([]models.Microcycle, 0, len(p.weeks))

	state := p.seed
	previousWeek := p.initialWeekly
	for i, w := range p.weeks {
		level := 0.0
		if i < len(res.Weekly) {
			level = res.Weekly[i]
		}
		weekStart := state
		planned := 0.0
		for d := w.first; d < w.first+w.days; d++ {
			load := p.dayLoad(d, level)
			state = p.model.Advance(state, load)
			planned += load
			points = append(points, point(utils.AddDays(p.start, d), load, state))
		}

		planned = utils.Round1(planned)
		microcycles = append(microcycles, models.Microcycle{
			WeekStart:        utils.FormatDate(w.start),
			WeekEnd:          utils.FormatDate(w.end),
			PlannedWeeklyTSS: planned,
			Metadata: models.MicrocycleMetadata{
				TSSRamp: models.TSSRampMeta{
					PreviousWeekTSS:    utils.Round1(previousWeek),
					RequestedWeeklyTSS: planned,
				},
				CTLRamp: models.CTLRampMeta{
					RequestedCTLRamp: utils.Round1(state.Fitness - weekStart.Fitness),
				},
			},
		})
		previousWeek = planned
	}

	markers := make([]models.GoalMarker, 0, len(p.goals))
	for _, g := range p.goals {
		markers = append(markers, models.GoalMarker{
			Name:      g.goal.Name,
			Date:      utils.FormatDate(g.date),
			Priority:  g.priority,
			DemandCTL: g.demand,
		})
	}

	return models.ProjectionChart{
		StartDate:   utils.FormatDate(p.start),
		EndDate:     utils.FormatDate(p.end),
		Points:      points,
		GoalMarkers: markers,
		Microcycles: microcycles,
		Diagnostics: res.Diagnostics,
		NoHistory:   p.floor,
	}
}

func point(date time.Time, load float64, s loadmodel.State) models.ProjectionPoint {
	r := s.Rounded()
	return models.ProjectionPoint{
		Date:                utils.FormatDate(date),
		PredictedLoadTSS:    utils.Round1(load),
		PredictedFitnessCTL: r.Fitness,
		PredictedFatigueATL: r.Fatigue,
		PredictedFormTSB:    utils.Round1(s.Balance()),
	}
}

// activeConstraints lists, sorted, every constraint that binds or is broken
// somewhere along the trajectory.
func (p *Problem) activeConstraints(weekly []float64) []string {
	active := make(map[string]bool)
	state := p.seed
	maxPrior := p.initialWeekly
	for i, level := range weekly {
		if i >= len(p.weeks) {
			break
		}
		next := p.advanceWeek(state, i, level)

		if level <= 0 {
			active[ConstraintNonNegative] = true
		}
		if level >= p.tssRampLimit(maxPrior)-constraintTolerance {
			active[ConstraintTSSRamp] = true
		}
		if p.recoveryWeek[i] {
			active[ConstraintRecovery] = true
		}
		if level >= p.upper[i]-constraintTolerance {
			active[ConstraintDemandUpper] = true
		}
		if next.Fitness-state.Fitness >= p.ctlRampLimit(i)-ctlRampBindingTolerance {
			active[ConstraintCTLRamp] = true
		}

		state = next
		maxPrior = math.Max(maxPrior, level)
	}

	out := make([]string, 0, len(active))
	for name := range active {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
