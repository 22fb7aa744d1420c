package plans

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/validation"
)

func stateStyle(state models.FeasibilityState) string {
	switch state {
	case models.FeasibilitySafe:
		return cli.OKStyle.Render(string(state))
	case models.FeasibilityAggressive:
		return cli.WarnStyle.Render(string(state))
	}
	return cli.BlockStyle.Render(string(state))
}

func label(s string) string {
	return cli.LabelStyle.Render(fmt.Sprintf("%-22s", s+":"))
}

func renderConfig(ctx *cli.Context, cfg models.NormalizedCreationConfig) {
	ctx.Println(cli.HeaderStyle.Render("Configuration"))
	ctx.Printf("%s %s\n", label("Profile"), cfg.OptimizationProfile)
	ctx.Printf("%s %.1f%%\n", label("Max weekly TSS ramp"), cfg.MaxWeeklyTSSRampPct)
	ctx.Printf("%s %.1f\n", label("Max CTL ramp / week"), cfg.MaxCTLRampPerWeek)
	ctx.Printf("%s %d days\n", label("Post-goal recovery"), cfg.PostGoalRecoveryDays)
	if cfg.Availability.DaysPerWeek > 0 || cfg.Availability.MaxWeeklyHours > 0 {
		ctx.Printf("%s %d days, %.1f h/week\n", label("Availability"), cfg.Availability.DaysPerWeek, cfg.Availability.MaxWeeklyHours)
	}
}

func renderContext(ctx *cli.Context, tc models.TrainingContext) {
	ctx.Println(cli.HeaderStyle.Render("Training context"))
	ctx.Printf("%s %s\n", label("As of"), tc.AsOf)
	ctx.Printf("%s %s\n", label("History"), tc.HistoryAvailabilityState)
	ctx.Printf("%s CTL %.1f  ATL %.1f  TSB %.1f\n", label("Current load"), tc.CurrentCTL, tc.CurrentATL, tc.CurrentTSB)
	ctx.Printf("%s %.1f TSS/week (%s confidence)\n", label("Learned ramp"), tc.LearnedRamp.MaxSafeRate, tc.LearnedRamp.Confidence)
	if len(tc.RationaleCodes) > 0 {
		ctx.Printf("%s %s\n", label("Rationale"), strings.Join(tc.RationaleCodes, ", "))
	}
}

func renderChart(ctx *cli.Context, chart models.ProjectionChart) {
	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Projection %s to %s", chart.StartDate, chart.EndDate)))
	ctx.Printf("%s %s\n", label("Optimizer path"), chart.Diagnostics.SelectedPath)
	if chart.Diagnostics.FallbackReason != nil {
		ctx.Printf("%s %s\n", label("Fallback reason"), *chart.Diagnostics.FallbackReason)
	}
	if len(chart.Diagnostics.ActiveConstraints) > 0 {
		ctx.Printf("%s %s\n", label("Active constraints"), strings.Join(chart.Diagnostics.ActiveConstraints, ", "))
	}
	if nh := chart.NoHistory; nh != nil {
		ctx.Printf("%s %s, floor CTL %.1f (%s confidence)\n", label("Inferred fitness"), nh.FitnessLevel, nh.FloorCTL, nh.ProjectionFloorConfidence)
	}

	for i, m := range chart.Microcycles {
		end, ok := chart.PointOn(m.WeekEnd)
		ctl := ""
		if ok {
			ctl = fmt.Sprintf("CTL %5.1f  TSB %6.1f", end.PredictedFitnessCTL, end.PredictedFormTSB)
		}
		ctx.Printf("  %-5s %s  %7s TSS  %s\n", humanize.Ordinal(i+1), m.WeekStart, humanize.Commaf(m.PlannedWeeklyTSS), ctl)
	}
	for _, g := range chart.GoalMarkers {
		ctx.Printf("  goal  %s  %s (priority %d, demand CTL %.1f)\n", g.Date, g.Name, g.Priority, g.DemandCTL)
	}
}

func renderFeasibility(ctx *cli.Context, f models.ProjectionFeasibility) {
	ctx.Println(cli.HeaderStyle.Render("Feasibility"))
	ctx.Printf("%s %s\n", label("State"), stateStyle(f.State))
	ctx.Printf("%s %.0f\n", label("Readiness"), f.ReadinessScore)
	u := f.ProjectionUncertainty
	ctx.Printf("%s %s / %s / %s TSS (%s confidence)\n", label("Weekly load range"),
		humanize.Commaf(u.TSSLow), humanize.Commaf(u.TSSLikely), humanize.Commaf(u.TSSHigh), u.Confidence)
	for _, g := range f.Goals {
		ctx.Printf("  %s %s: CTL %.1f of %.1f, %s\n", g.TargetDate, g.GoalName, g.ProjectedCTL, g.DemandCTL, stateStyle(g.State))
		for _, r := range g.Reasons {
			ctx.Printf("      %s\n", r)
		}
	}
}

func renderConflicts(ctx *cli.Context, c models.Conflicts) {
	ctx.Println(cli.HeaderStyle.Render("Conflicts"))
	report := strings.TrimRight(validation.FormatReport(c), "\n")
	if c.IsBlocking {
		ctx.Println(cli.BlockStyle.Render(report))
		return
	}
	ctx.Println(report)
}

func renderPreview(ctx *cli.Context, res previewView) {
	renderConfig(ctx, res.Config)
	ctx.Println()
	if res.Context != nil {
		renderContext(ctx, *res.Context)
		ctx.Println()
	}
	renderChart(ctx, res.Chart)
	ctx.Println()
	renderFeasibility(ctx, res.Feasibility)
	ctx.Println()
	renderConflicts(ctx, res.Conflicts)
}

// previewView is the common shape of a preview and a stored plan
type previewView struct {
	Config      models.NormalizedCreationConfig
	Context     *models.TrainingContext
	Chart       models.ProjectionChart
	Feasibility models.ProjectionFeasibility
	Conflicts   models.Conflicts
}

func renderSummaries(ctx *cli.Context, plans []models.PlanSummary, now time.Time) {
	if len(plans) == 0 {
		ctx.Println("No plans yet. Create one with 'trainplan plan create'.")
		return
	}
	for _, p := range plans {
		created := p.CreatedAt
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			created = humanize.RelTime(t, now, "ago", "from now")
		}
		ctx.Printf("%s  %s to %s  %-10s  %s\n", p.ID, p.PlanStartDate, p.EndDate, stateStyle(p.FeasibilityState), cli.LabelStyle.Render(created))
	}
}

func renderValidation(ctx *cli.Context, v models.ScheduleValidation) {
	rows := []struct {
		name string
		r    models.ConstraintResult
	}{
		{"within plan range", v.Constraints.WithinPlanRange},
		{"weekly TSS budget", v.Constraints.WeeklyTSSBudget},
		{"post-goal recovery", v.Constraints.PostGoalRecovery},
		{"daily session limit", v.Constraints.DailySessionLimit},
	}
	for _, row := range rows {
		mark := cli.OKStyle.Render("ok  ")
		if row.r.Violated() {
			mark = cli.WarnStyle.Render("warn")
			if row.r.Blocking {
				mark = cli.BlockStyle.Render("FAIL")
			}
		}
		ctx.Printf("  %s %-20s %s\n", mark, row.name, row.r.Message)
	}
	if v.CanSchedule {
		ctx.Println(cli.OKStyle.Render("Activity can be scheduled."))
	} else {
		ctx.Println(cli.BlockStyle.Render("Activity cannot be scheduled."))
	}
}
