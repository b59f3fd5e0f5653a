package commands

import (
	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/service"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List operations and whether the configured engine supports them",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}

			caps := c.Services().Capabilities.GetCapabilities()
			rows := make([][]string, 0, len(caps))
			for _, op := range service.Operations() {
				supported := "no"
				if caps[op].Supported {
					supported = "yes"
				}
				rows = append(rows, []string{op, supported, caps[op].Note})
			}
			return ui.PrintTable([]string{"Operation", "Supported", "Note"}, rows)
		},
	}
}
