package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/ui"
	"github.com/andrew2loo/RethinkBI/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display the rethinkbi version and the engine drivers it was built with",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			switch {
			case asJSON:
				enc := json.NewEncoder(ui.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case short:
				fmt.Fprintln(ui.Stdout, info.String())
			default:
				fmt.Fprintln(ui.Stdout, info.FullString())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print a single line")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.MarkFlagsMutuallyExclusive("short", "json")

	return cmd
}
