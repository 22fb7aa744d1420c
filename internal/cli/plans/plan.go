// Package plans holds the commands that preview, create, inspect and
// schedule training plans.
package plans

import (
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/planner"
)

type PlanCmd struct {
	Preview  PreviewCmd  `cmd:"" help:"Project a plan without saving it and print a snapshot token."`
	Create   CreateCmd   `cmd:"" help:"Create a plan, confirming a fresh preview first."`
	List     ListCmd     `cmd:"" help:"List stored plans." default:"1"`
	Show     ShowCmd     `cmd:"" help:"Show a stored plan."`
	Schedule ScheduleCmd `cmd:"" help:"Schedule an activity plan into a stored plan."`
	Check    CheckCmd    `cmd:"" help:"Check whether an activity plan can be scheduled on a date."`
}

// RequestFlags are shared by preview and create
type RequestFlags struct {
	File        string   `arg:"" help:"Plan request file (YAML or JSON), or - for stdin." type:"path"`
	StartingCTL *float64 `name:"starting-ctl" help:"Override the starting fitness (CTL)."`
	JSON        bool     `name:"json" help:"Print JSON."`
}

func (f RequestFlags) load(ctx *cli.Context) (planner.PreviewRequest, error) {
	var req planner.PreviewRequest
	if err := ctx.ReadYAML(f.File, &req); err != nil {
		return planner.PreviewRequest{}, errors.Invalid("%v", err)
	}
	if f.StartingCTL != nil {
		req.StartingCTLOverride = f.StartingCTL
	}
	return req, nil
}

type PreviewCmd struct {
	RequestFlags `embed:""`
}

func (c *PreviewCmd) Run(ctx *cli.Context) error {
	defer ctx.FlushMetrics()

	req, err := c.load(ctx)
	if err != nil {
		return err
	}
	res, err := ctx.Planner().PreviewCreationConfig(ctx.Ctx(), req)
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.PrintJSON(res)
	}

	renderPreview(ctx, previewView{
		Config:      res.NormalizedCreationConfig,
		Context:     &res.TrainingContext,
		Chart:       res.ProjectionChart,
		Feasibility: res.ProjectionFeasibility,
		Conflicts:   res.Conflicts,
	})
	ctx.Println()
	ctx.Printf("%s %s\n", label("Snapshot token"), res.PreviewSnapshot.Token)
	ctx.Printf("Create this plan with: trainplan plan create %s --token %s\n", c.File, res.PreviewSnapshot.Token)
	return nil
}

// CreateCmd creates with the supplied token, or previews, confirms and
// then creates with the token that preview issued.
type CreateCmd struct {
	RequestFlags `embed:""`

	Token string `help:"Snapshot token from 'plan preview'."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CreateCmd) Run(ctx *cli.Context) error {
	defer ctx.FlushMetrics()

	req, err := c.load(ctx)
	if err != nil {
		return err
	}
	svc := ctx.Planner()

	token := c.Token
	if token == "" {
		preview, err := svc.PreviewCreationConfig(ctx.Ctx(), req)
		if err != nil {
			return err
		}
		if preview.Conflicts.IsBlocking {
			renderConflicts(ctx, preview.Conflicts)
			return errors.Blocked("resolve the blocking conflicts before creating this plan")
		}
		if !c.Yes {
			desc := fmt.Sprintf("%s to %s, %d weeks, %s via %s",
				preview.PlanPreview.PlanStartDate, preview.PlanPreview.EndDate, preview.PlanPreview.Weeks,
				preview.ProjectionFeasibility.State, preview.ProjectionChart.Diagnostics.SelectedPath)
			ok, err := ctx.Ask("Create this plan?", desc)
			if err != nil {
				return err
			}
			if !ok {
				ctx.Println("Aborted.")
				return nil
			}
		}
		token = preview.PreviewSnapshot.Token
	}

	res, err := svc.CreateFromCreationConfig(ctx.Ctx(), planner.CreateRequest{PreviewRequest: req, PreviewSnapshotToken: token})
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.PrintJSON(res)
	}
	ctx.Println(cli.OKStyle.Render(fmt.Sprintf("Created plan %s (%s).", res.ID, res.CreationSummary.ProjectionFeasibility.State)))
	return nil
}

type ListCmd struct {
	JSON bool `name:"json" help:"Print JSON."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	plans, err := ctx.Store.ListPlans(ctx.Ctx())
	if err != nil {
		return errors.Storage("failed to list plans", err)
	}
	if c.JSON {
		return ctx.PrintJSON(plans)
	}
	renderSummaries(ctx, plans, ctx.Today())
	return nil
}

type ShowCmd struct {
	ID   string `arg:"" help:"Plan id."`
	JSON bool   `name:"json" help:"Print JSON."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	doc, err := ctx.Store.GetPlan(ctx.Ctx(), c.ID)
	if err != nil {
		if stderrors.Is(err, planner.ErrNotFound) {
			return errors.NotFound("training plan %q not found", c.ID)
		}
		return errors.Storage("failed to read plan", err)
	}
	if c.JSON {
		return ctx.PrintJSON(doc)
	}

	ctx.Printf("%s %s\n", label("Plan"), doc.ID)
	ctx.Printf("%s %s\n", label("Created"), doc.CreatedAt)
	for _, g := range doc.MinimalPlan.Goals {
		ctx.Printf("%s %s on %s (priority %d)\n", label("Goal"), g.Name, g.TargetDate, g.EffectivePriority())
	}
	ctx.Println()
	renderPreview(ctx, previewView{
		Config:      doc.NormalizedCreationConfig,
		Chart:       doc.ProjectionChart,
		Feasibility: doc.ProjectionFeasibility,
		Conflicts:   doc.Conflicts,
	})

	scheduled, err := ctx.Store.GetScheduledActivities(ctx.Ctx(), doc.ID)
	if err != nil {
		return errors.Storage("failed to read scheduled activities", err)
	}
	if len(scheduled) > 0 {
		ctx.Println()
		ctx.Println(cli.HeaderStyle.Render("Scheduled activities"))
		for _, s := range scheduled {
			ctx.Printf("  %s  %-24s %5.0f TSS  %s\n", s.Date, s.ActivityPlanID, s.EstimatedTSS, s.Intensity)
		}
	}
	return nil
}
