package system

import (
	"fmt"

	"github.com/julianstephens/trainplan/internal/cli"
)

// MigrateCmd applies pending schema migrations. Init does the same, so this
// exists for upgrades of an existing database.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	ctx.Println(cli.OKStyle.Render("Database schema is up to date."))
	return nil
}
