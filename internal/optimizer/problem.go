package optimizer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/constants"
	"github.com/julianstephens/trainplan/internal/loadmodel"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// Constraint names reported in diagnostics
const (
	ConstraintCTLRamp     = "ctl_ramp_cap"
	ConstraintDemandUpper = "goal_demand_upper_bound"
	ConstraintNonNegative = "non_negative"
	ConstraintRecovery    = "post_goal_recovery"
	ConstraintTSSRamp     = "tss_ramp_cap"
)

const (
	constraintTolerance     = 1e-6
	ctlRampBindingTolerance = 0.05
)

// Input is everything the optimizer needs for one projection
type Input struct {
	Plan        models.MinimalPlan
	Config      models.NormalizedCreationConfig
	Context     models.TrainingContext
	EffortBests []models.EffortBest
	Calibration config.Calibration
}

type week struct {
	start time.Time
	end   time.Time
	first int // plan day index of start
	days  int
}

type goalPoint struct {
	goal     models.Goal
	date     time.Time
	day      int
	demand   float64
	priority int
}

// Problem is the validated, pre-computed optimization problem. It is built
// once per request and shared read-only by every tier.
type Problem struct {
	start time.Time
	end   time.Time
	days  int
	weeks []week
	goals []goalPoint

	model loadmodel.Model
	seed  loadmodel.State

	opt               config.Optimizer
	tssRampPct        float64
	ctlRampPerWeek    float64
	maxSustainableCTL float64
	initialWeekly     float64

	recoveryDay  []bool
	recoveryWeek []bool
	upper        []float64

	floor *models.NoHistoryFloor
}

// Build prepares the problem. Dates are expected to be validated already;
// an unparsable date still fails here rather than panicking.
func Build(in Input) (*Problem, error) {
	start, err := utils.ParseDate(in.Plan.PlanStartDate)
	if err != nil {
		return nil, fmt.Errorf("plan_start_date: %w", err)
	}
	if len(in.Plan.Goals) == 0 {
		return nil, fmt.Errorf("plan has no goals")
	}

	tc := in.Context
	cal := in.Calibration
	maxCTL := tc.MaxSustainableCTL
	if maxCTL <= 0 {
		maxCTL = cal.Personalization.BaselineMaxSustainableCTL
	}

	goals := make([]goalPoint, 0, len(in.Plan.Goals))
	end := start
	for _, g := range in.Plan.Goals {
		d, err := utils.ParseDate(g.TargetDate)
		if err != nil {
			return nil, fmt.Errorf("goal %q target_date: %w", g.Name, err)
		}
		if d.Before(start) {
			return nil, fmt.Errorf("goal %q is before plan_start_date", g.Name)
		}
		if d.After(end) {
			end = d
		}
		goals = append(goals, goalPoint{
			goal:     g,
			date:     d,
			day:      utils.DaysBetween(start, d),
			demand:   GoalDemand(g, cal.Demand, maxCTL),
			priority: g.EffectivePriority(),
		})
	}
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].day != goals[j].day {
			return goals[i].day < goals[j].day
		}
		if goals[i].priority != goals[j].priority {
			return goals[i].priority < goals[j].priority
		}
		return goals[i].goal.Name < goals[j].goal.Name
	})

	fitnessTC, fatigueTC := tc.TimeConstants.Fitness, tc.TimeConstants.Fatigue
	if fitnessTC < 1 {
		fitnessTC = cal.Personalization.BaselineFitnessTC
	}
	if fatigueTC < 1 {
		fatigueTC = cal.Personalization.BaselineFatigueTC
	}

	p := &Problem{
		start:             start,
		end:               end,
		days:              utils.DaysBetween(start, end) + 1,
		goals:             goals,
		model:             loadmodel.New(fitnessTC, fatigueTC),
		seed:              loadmodel.State{Fitness: tc.CurrentCTL, Fatigue: tc.CurrentATL},
		opt:               cal.Optimizer,
		tssRampPct:        in.Config.MaxWeeklyTSSRampPct,
		ctlRampPerWeek:    in.Config.MaxCTLRampPerWeek,
		maxSustainableCTL: maxCTL,
	}

	if tc.HistoryAvailabilityState == models.HistoryNone && !tc.HasRationale(constants.RationaleStartingCTLOverride) {
		floor := InferFloor(in.EffortBests, in.Config.Availability, cal)
		p.floor = &floor
		p.seed = loadmodel.State{Fitness: floor.FloorCTL, Fatigue: floor.FloorCTL}
	}

	p.initialWeekly = math.Max(p.seed.Fitness*7, cal.Demand.MinBaselineWeek)
	p.buildWeeks()
	p.buildRecovery(in.Config.PostGoalRecoveryDays)
	p.buildUpperBounds()
	return p, nil
}

func (p *Problem) buildWeeks() {
	for ws := utils.WeekStart(p.start); !ws.After(p.end); ws = utils.AddDays(ws, 7) {
		s := ws
		if s.Before(p.start) {
			s = p.start
		}
		e := utils.AddDays(ws, 6)
		if e.After(p.end) {
			e = p.end
		}
		p.weeks = append(p.weeks, week{
			start: s,
			end:   e,
			first: utils.DaysBetween(p.start, s),
			days:  utils.DaysBetween(s, e) + 1,
		})
	}
}

// buildRecovery marks the days after each goal that belong to its recovery
// window, and every week that overlaps one.
func (p *Problem) buildRecovery(recoveryDays int) {
	p.recoveryDay = make([]bool, p.days)
	for _, g := range p.goals {
		for d := g.day + 1; d <= g.day+recoveryDays && d < p.days; d++ {
			p.recoveryDay[d] = true
		}
	}
	p.recoveryWeek = make([]bool, len(p.weeks))
	for i, w := range p.weeks {
		for d := w.first; d < w.first+w.days; d++ {
			if p.recoveryDay[d] {
				p.recoveryWeek[i] = true
				break
			}
		}
	}
}

func (p *Problem) buildUpperBounds() {
	p.upper = make([]float64, len(p.weeks))
	factor := p.opt.DemandUpperFactor * 7
	for i, w := range p.weeks {
		demand := p.goals[len(p.goals)-1].demand
		for _, g := range p.goals {
			if g.day >= w.first {
				demand = g.demand
				break
			}
		}
		p.upper[i] = math.Min(math.Max(demand, p.seed.Fitness)*factor, p.maxSustainableCTL*factor)
	}
}

// Weeks returns the number of planning weeks
func (p *Problem) Weeks() int {
	return len(p.weeks)
}

// dayLoad is the load placed on plan day d by a weekly level
func (p *Problem) dayLoad(d int, weekly float64) float64 {
	load := utils.NonNegative(weekly) / 7
	if p.recoveryDay[d] {
		load *= p.opt.RecoveryDayFactor
	}
	return load
}

// advanceWeek runs week i at the given level from s
func (p *Problem) advanceWeek(s loadmodel.State, i int, weekly float64) loadmodel.State {
	w := p.weeks[i]
	for d := w.first; d < w.first+w.days; d++ {
		s = p.model.Advance(s, p.dayLoad(d, weekly))
	}
	return s
}

func (p *Problem) tssRampLimit(maxPrior float64) float64 {
	return maxPrior * (1 + p.tssRampPct/100)
}

func (p *Problem) ctlRampLimit(i int) float64 {
	return p.ctlRampPerWeek * float64(p.weeks[i].days) / 7
}

// violation returns the first constraint week i breaks at the given level,
// or "" when the week is feasible.
func (p *Problem) violation(i int, weekly, maxPrior float64, from, to loadmodel.State) string {
	switch {
	case weekly < 0 || math.IsNaN(weekly):
		return ConstraintNonNegative
	case weekly > p.tssRampLimit(maxPrior)+constraintTolerance:
		return ConstraintTSSRamp
	case p.recoveryWeek[i] && weekly > maxPrior+constraintTolerance:
		return ConstraintRecovery
	case weekly > p.upper[i]+constraintTolerance:
		return ConstraintDemandUpper
	case to.Fitness-from.Fitness > p.ctlRampLimit(i)+constraintTolerance:
		return ConstraintCTLRamp
	}
	return ""
}

// nextGoalAfter returns the first goal strictly after plan day d
func (p *Problem) nextGoalAfter(d int) (goalPoint, bool) {
	for _, g := range p.goals {
		if g.day > d {
			return g, true
		}
	}
	return goalPoint{}, false
}

// nextDemandFrom returns the demand of the first goal on or after plan day d
func (p *Problem) nextDemandFrom(d int) float64 {
	for _, g := range p.goals {
		if g.day >= d {
			return g.demand
		}
	}
	return p.goals[len(p.goals)-1].demand
}
