package athlete

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

type EffortCmd struct {
	Add EffortAddCmd `cmd:"" help:"Record a best effort over a distance."`
}

type EffortAddCmd struct {
	Date      string        `arg:"" help:"Date of the effort (YYYY-MM-DD)."`
	Category  string        `arg:"" help:"Activity category (run, bike, swim)." enum:"run,bike,swim"`
	DistanceM float64       `arg:"" name:"distance-m" help:"Distance in meters."`
	Time      time.Duration `arg:"" help:"Elapsed time, e.g. 21m30s."`
}

func (c *EffortAddCmd) Run(ctx *cli.Context) error {
	d, err := utils.ParseDate(c.Date)
	if err != nil {
		return err
	}
	if c.DistanceM <= 0 || c.Time <= 0 {
		return fmt.Errorf("distance and time must be positive")
	}

	best := models.EffortBest{
		ID:               uuid.New().String(),
		Date:             utils.FormatDate(d),
		ActivityCategory: c.Category,
		DistanceM:        c.DistanceM,
		DurationS:        c.Time.Seconds(),
	}
	if err := ctx.Store.AddEffortBest(ctx.Ctx(), best); err != nil {
		return fmt.Errorf("failed to save effort: %w", err)
	}
	pace := best.DurationS / (best.DistanceM / 1000)
	ctx.Printf("Recorded %.0f m %s in %s (%s/km)\n", c.DistanceM, c.Category, c.Time, time.Duration(pace)*time.Second)
	return nil
}
