// Package commands implements CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/config"
	"github.com/andrew2loo/RethinkBI/internal/debug"
	"github.com/andrew2loo/RethinkBI/internal/utils/container"
	"github.com/andrew2loo/RethinkBI/internal/version"
)

// App holds state shared by every command. The container is built on first use so that
// commands such as version never open the engine.
type App struct {
	ConfigFile string
	LogLevel   string

	container *container.Container
}

// NewApp creates an empty application.
func NewApp() *App {
	return &App{}
}

// Container loads the configuration, installs the logger and starts the engine.
func (a *App) Container(ctx context.Context) (*container.Container, error) {
	if a.container != nil {
		return a.container, nil
	}

	cfg, err := config.Load(a.ConfigFile)
	if err != nil {
		return nil, err
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	debug.Init(debug.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	c, err := container.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	a.container = c
	return c, nil
}

// Close shuts down the container if one was started.
func (a *App) Close(ctx context.Context) error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close(ctx)
	a.container = nil
	return err
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rethinkbi",
		Short: "Local-first analytics over an embedded SQL engine",
		Long: `rethinkbi imports CSV, Parquet and JSON files into an embedded DuckDB or SQLite
database and answers SQL and visual queries over them, from the terminal or over HTTP.`,
		Version:       version.Get().String(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "Config file (default .rethinkbi.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(NewServeCommand(app))
	rootCmd.AddCommand(NewQueryCommand(app))
	rootCmd.AddCommand(NewSchemaCommand(app))
	rootCmd.AddCommand(NewImportCommand(app))
	rootCmd.AddCommand(NewExportCommand(app))
	rootCmd.AddCommand(NewStatusCommand(app))
	rootCmd.AddCommand(NewCapabilitiesCommand(app))
	rootCmd.AddCommand(NewConnectionCommand(app))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the CLI with args and releases the engine afterwards.
func Execute(ctx context.Context, args []string) error {
	app := NewApp()
	defer app.Close(context.WithoutCancel(ctx))

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
