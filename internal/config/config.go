// Package config provides configuration management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used for config, dataset and workspace access.
var AppFs = afero.NewOsFs()

const (
	// EngineDuckDB selects the DuckDB analytical engine.
	EngineDuckDB = "duckdb"
	// EngineSQLite selects the SQLite engine.
	EngineSQLite = "sqlite"
)

// Config represents application configuration.
type Config struct {
	Workspace string
	Engine    EngineConfig
	Server    ServerConfig
	Log       LogConfig
	Query     QueryConfig
	Datasets  DatasetsConfig
}

// EngineConfig represents embedded engine configuration.
type EngineConfig struct {
	Driver string
	// Path is the database file. Empty or ":memory:" opens an in-memory database.
	Path         string
	QueryTimeout time.Duration
	Threads      int
}

// ServerConfig represents HTTP transport configuration.
type ServerConfig struct {
	Listen string
	Token  string
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level  string
	Format string
}

// DatasetsConfig represents dataset file locations.
type DatasetsConfig struct {
	// Dir is where relative import and export paths resolve.
	Dir string
}

// QueryConfig represents query defaults.
type QueryConfig struct {
	PageSize int
}

// Load loads configuration from the config file, .env files and RETHINKBI_* variables.
// configFile overrides the search path when non-empty.
func Load(configFile string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".rethinkbi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "rethinkbi"))
	}

	// .env.local has higher priority
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	v.SetEnvPrefix("RETHINKBI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("workspace", filepath.Join(home, ".rethinkbi"))
	v.SetDefault("engine.driver", EngineDuckDB)
	v.SetDefault("engine.path", "")
	v.SetDefault("engine.query_timeout", "0s")
	v.SetDefault("engine.threads", 0)
	v.SetDefault("server.listen", "127.0.0.1:7878")
	v.SetDefault("server.token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("query.page_size", 500)
	v.SetDefault("datasets.dir", ".")
}

func fromViper(v *viper.Viper) (*Config, error) {
	workspace, err := homedir.Expand(v.GetString("workspace"))
	if err != nil {
		return nil, fmt.Errorf("invalid workspace: %w", err)
	}

	cfg := &Config{
		Workspace: workspace,
		Engine: EngineConfig{
			Driver:       strings.ToLower(v.GetString("engine.driver")),
			Path:         v.GetString("engine.path"),
			QueryTimeout: v.GetDuration("engine.query_timeout"),
			Threads:      v.GetInt("engine.threads"),
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
			Token:  v.GetString("server.token"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Query: QueryConfig{
			PageSize: v.GetInt("query.page_size"),
		},
	}

	if cfg.Datasets.Dir, err = homedir.Expand(v.GetString("datasets.dir")); err != nil {
		return nil, fmt.Errorf("invalid datasets dir: %w", err)
	}

	if cfg.Engine.Path == "" {
		cfg.Engine.Path = cfg.DefaultEnginePath()
	} else if cfg.Engine.Path != ":memory:" {
		if cfg.Engine.Path, err = homedir.Expand(cfg.Engine.Path); err != nil {
			return nil, fmt.Errorf("invalid engine path: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

// Default returns configuration with an in-memory DuckDB engine.
func Default() *Config {
	return &Config{
		Workspace: ".rethinkbi",
		Engine:    EngineConfig{Driver: EngineDuckDB, Path: ":memory:"},
		Server:    ServerConfig{Listen: "127.0.0.1:7878"},
		Log:       LogConfig{Level: "info", Format: "text"},
		Query:     QueryConfig{PageSize: 500},
		Datasets:  DatasetsConfig{Dir: "."},
	}
}

// DefaultEnginePath returns <workspace>/data/workspace.<driver>.
func (c *Config) DefaultEnginePath() string {
	return filepath.Join(c.Workspace, "data", "workspace."+c.Engine.Driver)
}

// InMemory reports whether the engine runs without a database file.
func (c *Config) InMemory() bool {
	return c.Engine.Path == "" || c.Engine.Path == ":memory:"
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.Engine.Driver {
	case EngineDuckDB, EngineSQLite:
	default:
		return fmt.Errorf("unsupported engine driver: %s", c.Engine.Driver)
	}
	if c.Engine.QueryTimeout < 0 {
		return fmt.Errorf("engine.query_timeout must not be negative")
	}
	if c.Engine.Threads < 0 {
		return fmt.Errorf("engine.threads must not be negative")
	}
	if c.Query.PageSize < 0 {
		return fmt.Errorf("query.page_size must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}

// EnsureWorkspace creates the workspace data directory when the engine is file-backed.
func (c *Config) EnsureWorkspace() error {
	if c.InMemory() {
		return nil
	}
	if err := AppFs.MkdirAll(filepath.Dir(c.Engine.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}
