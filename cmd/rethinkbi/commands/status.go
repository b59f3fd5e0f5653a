package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/service"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the engine name and version",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			status, err := c.Services().Status.GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			cfg := c.Config()
			path := cfg.Engine.Path
			if cfg.InMemory() {
				path = "(in memory)"
			}
			ui.PrintKeyValues([][2]string{
				{"Engine", status.EngineName},
				{"Version", status.Version},
				{"Minimum", service.MinimumVersions[status.EngineName]},
				{"Database", path},
				{"Busy", strconv.FormatBool(status.Busy)},
			})
			return nil
		},
	}
}
