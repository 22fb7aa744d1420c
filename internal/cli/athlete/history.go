package athlete

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

type HistoryCmd struct {
	Add    HistoryAddCmd    `cmd:"" help:"Record one completed activity."`
	Import HistoryImportCmd `cmd:"" help:"Import activities from a YAML or JSON file."`
	List   HistoryListCmd   `cmd:"" help:"List recorded activities." default:"1"`
}

type HistoryAddCmd struct {
	Date     string        `arg:"" help:"Activity date (YYYY-MM-DD)."`
	Category string        `arg:"" help:"Activity category (run, bike, swim, other)." enum:"run,bike,swim,other"`
	Duration time.Duration `arg:"" help:"Moving time, e.g. 1h15m."`
	TSS      float64       `arg:"" name:"tss" help:"Training stress score."`
	ID       string        `help:"Activity id; generated when empty."`
}

func (c *HistoryAddCmd) Run(ctx *cli.Context) error {
	d, err := utils.ParseDate(c.Date)
	if err != nil {
		return err
	}
	if c.TSS < 0 || c.Duration < 0 {
		return fmt.Errorf("duration and tss must not be negative")
	}
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}

	record := models.ActivityRecord{
		ID:                  id,
		Date:                utils.FormatDate(d),
		ActivityCategory:    c.Category,
		DurationSeconds:     c.Duration.Seconds(),
		TrainingStressScore: c.TSS,
	}
	if _, err := ctx.Store.AddActivities(ctx.Ctx(), []models.ActivityRecord{record}); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	ctx.Printf("Recorded %s %s (%.0f TSS) on %s\n", humanizeDuration(record.DurationSeconds), c.Category, c.TSS, record.Date)
	return nil
}

// HistoryImportCmd reads a document of the form {activities: [...]}.
// Records without an id get one; malformed dates are kept so derivation
// can count them.
type HistoryImportCmd struct {
	File string `arg:"" help:"Path to the file, or - for stdin." type:"path"`
}

type historyFile struct {
	Activities []models.ActivityRecord `yaml:"activities"`
}

func (c *HistoryImportCmd) Run(ctx *cli.Context) error {
	var doc historyFile
	if err := ctx.ReadYAML(c.File, &doc); err != nil {
		return err
	}
	if len(doc.Activities) == 0 {
		return fmt.Errorf("no activities found in %s", c.File)
	}

	malformed := 0
	for i := range doc.Activities {
		if doc.Activities[i].ID == "" {
			doc.Activities[i].ID = uuid.New().String()
		}
		if _, err := utils.ParseDate(doc.Activities[i].Date); err != nil {
			malformed++
		}
	}

	n, err := ctx.Store.AddActivities(ctx.Ctx(), doc.Activities)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	ctx.Println(cli.OKStyle.Render(fmt.Sprintf("Imported %s activities.", humanize.Comma(int64(n)))))
	if malformed > 0 {
		ctx.Println(cli.WarnStyle.Render(fmt.Sprintf("%d activities have malformed dates and will be ignored by projections.", malformed)))
	}
	return nil
}

type HistoryListCmd struct {
	Days int  `help:"Number of days to show, ending today." default:"28"`
	JSON bool `name:"json" help:"Print JSON."`
}

func (c *HistoryListCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	today := utils.Day(ctx.Today())
	from := utils.AddDays(today, -(c.Days - 1))
	records, err := ctx.Store.GetActivities(ctx.Ctx(), utils.FormatDate(from), utils.FormatDate(today))
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if c.JSON {
		return ctx.PrintJSON(records)
	}

	if len(records) == 0 {
		ctx.Printf("No activities in the last %d days.\n", c.Days)
		return nil
	}

	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Activities since %s", utils.FormatDate(from))))
	total, seconds := 0.0, 0.0
	for _, r := range records {
		ctx.Printf("  %s  %-6s %8s  %5.0f TSS\n", r.Date, r.ActivityCategory, humanizeDuration(r.DurationSeconds), r.TrainingStressScore)
		total += r.TrainingStressScore
		seconds += r.DurationSeconds
	}
	ctx.Printf("%s %d activities, %s, %s TSS\n", cli.LabelStyle.Render("Total:"),
		len(records), humanizeDuration(seconds), humanize.Commaf(utils.Round1(total)))
	return nil
}

func humanizeDuration(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
