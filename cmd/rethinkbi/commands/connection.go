package commands

import (
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/core/connection"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

// NewConnectionCommand creates the connection command group.
func NewConnectionCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Manage remote database connections",
		Long: `Connections are kept for the lifetime of the process. Use these commands to check a
connection config; a running server manages connections through the HTTP operations.`,
	}

	cmd.AddCommand(newConnectionCreateCommand(app))
	cmd.AddCommand(newConnectionDriversCommand())

	return cmd
}

type connectionFlags struct {
	cfg     connection.Config
	noInput bool
}

func newConnectionCreateCommand(app *App) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Validate and register a connection",
		Long:  "Register a connection from flags, prompting for anything missing unless --no-input is set",
		Example: `  rethinkbi connection create --driver postgres --name warehouse --dsn "postgres://bi@db/sales"
  rethinkbi connection create --driver mysql --name crm --host db --user bi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.noInput {
				if err := promptConnection(&flags.cfg); err != nil {
					return err
				}
			}

			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			info, err := c.Services().Connection.CreateConnection(cmd.Context(), connectionPayload(flags.cfg))
			if err != nil {
				return err
			}

			ui.PrintSuccess("Connection %s is valid", info.Name)
			ui.PrintKeyValues([][2]string{
				{"ID", info.ID},
				{"Driver", string(info.Driver)},
				{"Name", info.Name},
			})
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar((*string)(&flags.cfg.Driver), "driver", "", "Driver: postgres, mysql or mssql")
	f.StringVar(&flags.cfg.Name, "name", "", "Display name")
	f.StringVar(&flags.cfg.DSN, "dsn", "", "Full connection string (instead of host fields)")
	f.StringVar(&flags.cfg.Host, "host", "", "Server host")
	f.IntVar(&flags.cfg.Port, "port", 0, "Server port (default per driver)")
	f.StringVar(&flags.cfg.Database, "database", "", "Database name")
	f.StringVar(&flags.cfg.User, "user", "", "User name")
	f.StringVar(&flags.cfg.Password, "password", "", "Password")
	f.BoolVar(&flags.cfg.SSL, "ssl", false, "Require TLS")
	f.BoolVar(&flags.noInput, "no-input", false, "Never prompt")
	cmd.MarkFlagsMutuallyExclusive("dsn", "host")

	return cmd
}

// promptConnection asks for the fields a usable config still lacks.
func promptConnection(cfg *connection.Config) error {
	if cfg.Driver == "" {
		options := make([]string, len(connection.Drivers))
		for i, d := range connection.Drivers {
			options[i] = string(d)
		}
		var driver string
		if err := survey.AskOne(&survey.Select{Message: "Driver:", Options: options}, &driver); err != nil {
			return err
		}
		cfg.Driver = connection.Driver(driver)
	}

	if cfg.Name == "" {
		if err := survey.AskOne(&survey.Input{Message: "Name:"}, &cfg.Name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	if cfg.DSN != "" {
		return nil
	}

	questions := []*survey.Question{}
	if cfg.Host == "" {
		questions = append(questions, &survey.Question{
			Name:     "host",
			Prompt:   &survey.Input{Message: "Host:", Default: "localhost"},
			Validate: survey.Required,
		})
	}
	if cfg.Port == 0 {
		questions = append(questions, &survey.Question{
			Name:   "port",
			Prompt: &survey.Input{Message: "Port:", Default: strconv.Itoa(cfg.Driver.DefaultPort())},
		})
	}
	if cfg.Database == "" {
		questions = append(questions, &survey.Question{
			Name:   "database",
			Prompt: &survey.Input{Message: "Database:"},
		})
	}
	if cfg.User == "" {
		questions = append(questions, &survey.Question{
			Name:   "user",
			Prompt: &survey.Input{Message: "User:"},
		})
	}
	if cfg.Password == "" {
		questions = append(questions, &survey.Question{
			Name:   "password",
			Prompt: &survey.Password{Message: "Password:"},
		})
	}
	if len(questions) == 0 {
		return nil
	}

	answers := struct {
		Host     string `survey:"host"`
		Port     int    `survey:"port"`
		Database string `survey:"database"`
		User     string `survey:"user"`
		Password string `survey:"password"`
	}{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	cfg.Host = answers.Host
	cfg.Port = answers.Port
	cfg.Database = answers.Database
	cfg.User = answers.User
	cfg.Password = answers.Password
	return nil
}

// connectionPayload mirrors the create-connection request body.
func connectionPayload(cfg connection.Config) map[string]any {
	payload := map[string]any{
		"driver": string(cfg.Driver),
		"name":   cfg.Name,
	}
	set := func(key, v string) {
		if v != "" {
			payload[key] = v
		}
	}
	set("dsn", cfg.DSN)
	set("host", cfg.Host)
	set("database", cfg.Database)
	set("user", cfg.User)
	set("password", cfg.Password)
	if cfg.Port != 0 {
		payload["port"] = cfg.Port
	}
	if cfg.SSL {
		payload["ssl"] = true
	}
	return payload
}

func newConnectionDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List supported drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, len(connection.Drivers))
			for i, d := range connection.Drivers {
				rows[i] = []string{string(d), strconv.Itoa(d.DefaultPort())}
			}
			return ui.PrintTable([]string{"Driver", "Default port"}, rows)
		},
	}
}
