package plans

import (
	"fmt"
	"strings"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// SuggestCmd proposes creation values from history. Values already present
// in --from are echoed back unchanged.
type SuggestCmd struct {
	AsOf string `name:"as-of" help:"Reference date (YYYY-MM-DD); defaults to today."`
	From string `help:"Request file whose creation_input is treated as already chosen." type:"path"`
	JSON bool   `name:"json" help:"Print JSON."`
}

type suggestInput struct {
	CreationInput models.CreationConfig `yaml:"creation_input"`
}

func (c *SuggestCmd) Run(ctx *cli.Context) error {
	defer ctx.FlushMetrics()

	var existing models.CreationConfig
	if c.From != "" {
		var in suggestInput
		if err := ctx.ReadYAMLLoose(c.From, &in); err != nil {
			return errors.Invalid("%v", err)
		}
		existing = in.CreationInput
	}

	asOf := ctx.Today()
	if c.AsOf != "" {
		d, err := utils.ParseDate(c.AsOf)
		if err != nil {
			return errors.Invalid("--as-of: %v", err)
		}
		asOf = d
	}

	res, err := ctx.Planner().GetCreationSuggestions(ctx.Ctx(), &asOf, existing)
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.PrintJSON(res)
	}

	s := res.ContextSummary
	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Context as of %s", s.AsOf)))
	ctx.Printf("%s %s\n", label("History"), s.HistoryAvailabilityState)
	ctx.Printf("%s CTL %.1f  ATL %.1f  TSB %.1f\n", label("Current load"), s.CurrentCTL, s.CurrentATL, s.CurrentTSB)
	ctx.Printf("%s %.1f days, %.1f h per week\n", label("Recent training"), s.ActiveDaysPerWeek, s.WeeklyHours)
	if len(s.RationaleCodes) > 0 {
		ctx.Printf("%s %s\n", label("Rationale"), strings.Join(s.RationaleCodes, ", "))
	}
	ctx.Println()
	ctx.Println(cli.HeaderStyle.Render("Suggestions"))
	for _, sg := range res.Suggestions {
		ctx.Printf("  %-30s %-14v %s\n", sg.Field, sg.Value, cli.LabelStyle.Render(fmt.Sprintf("[%s] %s", sg.Source, sg.Rationale)))
	}
	return nil
}
