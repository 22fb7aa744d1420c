// Package athlete holds the commands that record the athlete's profile,
// activity history and best efforts.
package athlete

import (
	"fmt"
	"strings"

	"github.com/julianstephens/trainplan/internal/cli"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

type ProfileCmd struct {
	Set  ProfileSetCmd  `cmd:"" help:"Update the athlete profile."`
	Show ProfileShowCmd `cmd:"" help:"Show the athlete profile." default:"1"`
}

type ProfileSetCmd struct {
	DOB    *string `name:"dob" help:"Date of birth (YYYY-MM-DD). Pass an empty value to clear."`
	Gender *string `help:"Gender used for calibration (female, male, or empty to clear)."`
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Store.GetProfile(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	if c.DOB != nil {
		dob := strings.TrimSpace(*c.DOB)
		if dob != "" {
			d, err := utils.ParseDate(dob)
			if err != nil {
				return fmt.Errorf("invalid --dob: %w", err)
			}
			if d.After(ctx.Today()) {
				return fmt.Errorf("invalid --dob: %s is in the future", dob)
			}
			dob = utils.FormatDate(d)
		}
		profile.DOB = dob
	}
	if c.Gender != nil {
		profile.Gender = strings.ToLower(strings.TrimSpace(*c.Gender))
		if profile.Gender != "" && profile.Gender != models.GenderFemale && profile.Gender != models.GenderMale {
			ctx.Println(cli.WarnStyle.Render(fmt.Sprintf("Gender %q is not used by calibration; it will be treated as unspecified.", profile.Gender)))
		}
	}

	if err := ctx.Store.SaveProfile(ctx.Ctx(), profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	ctx.Println(cli.OKStyle.Render("Profile updated."))
	return nil
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	profile, err := ctx.Store.GetProfile(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	dob, age := "not set", "unknown"
	if profile.DOB != "" {
		dob = profile.DOB
		if years, ok := utils.AgeOn(profile.DOB, ctx.Today()); ok {
			age = fmt.Sprintf("%d", years)
		}
	}
	gender := profile.Gender
	if gender == "" {
		gender = "unspecified"
	}

	ctx.Println(cli.HeaderStyle.Render("Athlete profile"))
	ctx.Printf("%s %s\n", cli.LabelStyle.Render("Date of birth:"), dob)
	ctx.Printf("%s %s\n", cli.LabelStyle.Render("Age:          "), age)
	ctx.Printf("%s %s\n", cli.LabelStyle.Render("Gender:       "), gender)
	return nil
}
