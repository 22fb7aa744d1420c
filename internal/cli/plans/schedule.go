package plans

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
)

type ScheduleCmd struct {
	PlanID         string `arg:"" help:"Training plan id."`
	Date           string `arg:"" help:"Date to schedule on (YYYY-MM-DD)."`
	ActivityPlanID string `arg:"" help:"Activity plan id."`
	JSON           bool   `name:"json" help:"Print JSON."`
}

type scheduleOutput struct {
	Scheduled  *models.ScheduledActivity `json:"scheduled,omitempty"`
	Validation models.ScheduleValidation `json:"validation"`
}

// Run prints the constraint report even when a blocking rule refuses the
// session.
func (c *ScheduleCmd) Run(ctx *cli.Context) error {
	defer ctx.FlushMetrics()

	sa, check, err := ctx.Planner().ScheduleActivity(ctx.Ctx(), c.PlanID, c.Date, c.ActivityPlanID)
	if err != nil && errors.CodeOf(err) != errors.CodeBlockingConflicts {
		return err
	}

	if c.JSON {
		out := scheduleOutput{Validation: check}
		if err == nil {
			out.Scheduled = &sa
		}
		if jerr := ctx.PrintJSON(out); jerr != nil {
			return jerr
		}
		return err
	}

	renderValidation(ctx, check)
	if err != nil {
		return err
	}
	ctx.Println(cli.OKStyle.Render(fmt.Sprintf("Scheduled %s on %s (%s).", c.ActivityPlanID, sa.Date, sa.ID)))
	return nil
}

type CheckCmd struct {
	PlanID         string `arg:"" help:"Training plan id."`
	Date           string `arg:"" help:"Date to check (YYYY-MM-DD)."`
	ActivityPlanID string `arg:"" help:"Activity plan id."`
	JSON           bool   `name:"json" help:"Print JSON."`
}

func (c *CheckCmd) Run(ctx *cli.Context) error {
	defer ctx.FlushMetrics()

	check, err := ctx.Planner().ValidateConstraints(ctx.Ctx(), c.PlanID, c.Date, c.ActivityPlanID)
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.PrintJSON(check)
	}
	renderValidation(ctx, check)
	return nil
}

type ActivityPlanCmd struct {
	Add  ActivityPlanAddCmd  `cmd:"" help:"Add a reusable session template."`
	List ActivityPlanListCmd `cmd:"" help:"List session templates." default:"1"`
}

type ActivityPlanAddCmd struct {
	Name         string  `arg:"" help:"Session name."`
	Category     string  `help:"Activity category." enum:"run,bike,swim,other" default:"run"`
	EstimatedTSS float64 `name:"tss" help:"Estimated training stress." required:""`
	Intensity    string  `help:"Intensity label." enum:"low,moderate,high" default:"low"`
	ID           string  `help:"Template id; generated when empty."`
}

func (c *ActivityPlanAddCmd) Run(ctx *cli.Context) error {
	if c.EstimatedTSS < 0 {
		return errors.Invalid("--tss must not be negative")
	}
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	ap := models.ActivityPlan{
		ID:               id,
		Name:             c.Name,
		ActivityCategory: c.Category,
		EstimatedTSS:     c.EstimatedTSS,
		Intensity:        c.Intensity,
	}
	if err := ctx.Store.AddActivityPlan(ctx.Ctx(), ap); err != nil {
		return errors.Storage("failed to save activity plan", err)
	}
	ctx.Printf("Added activity plan %s (%s)\n", ap.Name, ap.ID)
	return nil
}

type ActivityPlanListCmd struct {
	JSON bool `name:"json" help:"Print JSON."`
}

func (c *ActivityPlanListCmd) Run(ctx *cli.Context) error {
	aps, err := ctx.Store.ListActivityPlans(ctx.Ctx())
	if err != nil {
		return errors.Storage("failed to list activity plans", err)
	}
	if c.JSON {
		return ctx.PrintJSON(aps)
	}
	if len(aps) == 0 {
		ctx.Println("No activity plans yet. Add one with 'trainplan activity-plan add'.")
		return nil
	}
	for _, ap := range aps {
		ctx.Printf("%s  %-24s %-5s %5.0f TSS  %s\n", ap.ID, ap.Name, ap.ActivityCategory, ap.EstimatedTSS, ap.Intensity)
	}
	return nil
}
