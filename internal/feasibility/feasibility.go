// Package feasibility judges whether a projected trajectory can reach its
// goals within the configured ramp caps.
package feasibility

import (
	"math"
	"sort"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/constants"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// Input bundles what the evaluator reads. Plan supplies goal targets for
// the specificity component.
type Input struct {
	Plan        models.MinimalPlan
	Config      models.NormalizedCreationConfig
	Context     models.TrainingContext
	Chart       models.ProjectionChart
	Calibration config.Calibration
}

// StartingCTL is the fitness the projection was seeded from
func StartingCTL(in Input) float64 {
	if in.Chart.NoHistory != nil {
		return in.Chart.NoHistory.FloorCTL
	}
	return in.Context.CurrentCTL
}

// RequiredRamps returns the weekly CTL increase and compound weekly TSS
// growth (percent) needed to move from startCTL to demand over days.
func RequiredRamps(startCTL, demand float64, days int, minBaselineWeek float64) (ctlRamp, tssPct float64) {
	weeks := math.Max(1, float64(days)/7)
	ctlRamp = math.Max(0, (demand-startCTL)/weeks)

	base := math.Max(startCTL*7, minBaselineWeek)
	target := demand * 7
	if target > base {
		tssPct = (math.Pow(target/base, 1/weeks) - 1) * 100
	}
	return utils.Round2(ctlRamp), utils.Round2(tssPct)
}

// classify compares a required ramp to its cap
func classify(required, limit, margin float64) models.FeasibilityState {
	if required > limit {
		return models.FeasibilityUnsafe
	}
	if limit > 0 && required >= margin*limit {
		return models.FeasibilityAggressive
	}
	return models.FeasibilitySafe
}

// Evaluate scores every goal and the projection as a whole
func Evaluate(in Input) models.ProjectionFeasibility {
	f := in.Calibration.Feasibility
	start, _ := utils.ParseDate(in.Chart.StartDate)
	startCTL := StartingCTL(in)

	reasonSet := make(map[string]bool)
	state := models.FeasibilitySafe
	maxGap := 0.0
	goals := make([]models.GoalFeasibility, 0, len(in.Chart.GoalMarkers))

	for _, m := range in.Chart.GoalMarkers {
		date, _ := utils.ParseDate(m.Date)
		projected := 0.0
		if p, ok := in.Chart.PointOn(m.Date); ok {
			projected = p.PredictedFitnessCTL
		}
		ctlRamp, tssPct := RequiredRamps(startCTL, m.DemandCTL, utils.DaysBetween(start, date), in.Calibration.Demand.MinBaselineWeek)

		g := models.GoalFeasibility{
			GoalName:           m.Name,
			TargetDate:         m.Date,
			DemandCTL:          m.DemandCTL,
			ProjectedCTL:       projected,
			DemandGap:          utils.Round1(math.Max(0, m.DemandCTL-projected)),
			RequiredTSSRampPct: tssPct,
			RequiredCTLRamp:    ctlRamp,
			State:              models.FeasibilitySafe,
			Reasons:            []string{},
		}

		tssState := classify(tssPct, in.Config.MaxWeeklyTSSRampPct, f.AggressiveMargin)
		ctlState := classify(ctlRamp, in.Config.MaxCTLRampPerWeek, f.AggressiveMargin)
		if tssState == models.FeasibilityUnsafe {
			g.Reasons = append(g.Reasons, constants.ReasonTSSRampExceedsCap)
		}
		if ctlState == models.FeasibilityUnsafe {
			g.Reasons = append(g.Reasons, constants.ReasonCTLRampExceedsCap)
		}
		for _, s := range []models.FeasibilityState{tssState, ctlState} {
			if s.Severity() > g.State.Severity() {
				g.State = s
			}
		}
		if g.State == models.FeasibilityAggressive {
			g.Reasons = append(g.Reasons, constants.ReasonNearConfiguredCap)
		}
		if g.DemandGap > 0 {
			g.Reasons = append(g.Reasons, constants.ReasonDemandGapOpen)
		}

		for _, r := range g.Reasons {
			reasonSet[r] = true
		}
		if g.State.Severity() > state.Severity() {
			state = g.State
		}
		maxGap = math.Max(maxGap, g.DemandGap)
		goals = append(goals, g)
	}

	reasons := make([]string, 0, len(reasonSet))
	for r := range reasonSet {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	components := readinessComponents(in, goals)
	return models.ProjectionFeasibility{
		State:                 state,
		Reasons:               reasons,
		DemandGap:             maxGap,
		ReadinessScore:        readinessScore(components, f),
		ReadinessComponents:   components,
		ProjectionUncertainty: uncertainty(in),
		Goals:                 goals,
	}
}

func readinessScore(c models.ReadinessComponents, f config.Feasibility) float64 {
	total := f.LoadStateWeight + f.IntensityBalanceWeight + f.SpecificityWeight + f.ExecutionConfidenceWeight
	if total <= 0 {
		return 0
	}
	score := c.LoadState*f.LoadStateWeight +
		c.IntensityBalance*f.IntensityBalanceWeight +
		c.Specificity*f.SpecificityWeight +
		c.ExecutionConfidence*f.ExecutionConfidenceWeight
	return utils.Round1(score / total)
}

func readinessComponents(in Input, goals []models.GoalFeasibility) models.ReadinessComponents {
	return models.ReadinessComponents{
		LoadState:           loadState(in, goals),
		IntensityBalance:    utils.Round1(utils.Clamp(in.Context.TrainingQuality.PolarizationScore*100, 0, 100)),
		Specificity:         specificity(in),
		ExecutionConfidence: ExecutionConfidence(in.Context),
	}
}

// loadState is the priority-weighted share of each goal's demand the
// projection reaches, capped at 100 per goal.
func loadState(in Input, goals []models.GoalFeasibility) float64 {
	if len(goals) == 0 {
		return 0
	}
	priority := make(map[string]int, len(in.Chart.GoalMarkers))
	for _, m := range in.Chart.GoalMarkers {
		priority[m.Name+"|"+m.Date] = m.Priority
	}

	sum, weights := 0.0, 0.0
	for _, g := range goals {
		p := priority[g.GoalName+"|"+g.TargetDate]
		if p < 1 {
			p = 1
		}
		w := 1 / float64(p)
		reached := 100.0
		if g.DemandCTL > 0 {
			reached = math.Min(100, g.ProjectedCTL/g.DemandCTL*100)
		}
		sum += reached * w
		weights += w
	}
	return utils.Round1(sum / weights)
}

// specificity is the share of recent training stress spent in the
// categories the goals target. Goals without a category score neutral.
func specificity(in Input) float64 {
	categories := make(map[string]bool)
	for _, g := range in.Plan.Goals {
		for _, t := range g.Targets {
			if t.Kind == models.TargetRacePerformance && t.ActivityCategory != "" {
				categories[t.ActivityCategory] = true
			}
		}
	}
	if len(categories) == 0 || len(in.Context.RecentCategoryShare) == 0 {
		return 50
	}
	share := 0.0
	for c := range categories {
		share += in.Context.CategoryShareOf(c)
	}
	return utils.Round1(utils.Clamp(share*100, 0, 100))
}

// ExecutionConfidence reflects how much evidence backs the projection
func ExecutionConfidence(c models.TrainingContext) float64 {
	score := 30.0
	switch c.HistoryAvailabilityState {
	case models.HistorySparse:
		score = 55
	case models.HistorySufficient:
		score = 80
	}
	switch c.LearnedRamp.Confidence {
	case models.ConfidenceHigh:
		score += 10
	case models.ConfidenceMedium:
		score += 5
	}
	if c.HasEffortBests {
		score += 5
	}
	return math.Min(100, score)
}

func uncertainty(in Input) models.ProjectionUncertainty {
	f := in.Calibration.Feasibility
	likely := 0.0
	for _, m := range in.Chart.Microcycles {
		likely += m.PlannedWeeklyTSS
	}

	spread, confidence := f.SpreadNone, models.ConfidenceLow
	switch in.Context.HistoryAvailabilityState {
	case models.HistorySparse:
		spread, confidence = f.SpreadSparse, models.ConfidenceMedium
	case models.HistorySufficient:
		spread, confidence = f.SpreadSufficient, models.ConfidenceHigh
	}
	return models.ProjectionUncertainty{
		TSSLow:     utils.Round1(likely * (1 - spread)),
		TSSLikely:  utils.Round1(likely),
		TSSHigh:    utils.Round1(likely * (1 + spread)),
		Confidence: confidence,
	}
}
