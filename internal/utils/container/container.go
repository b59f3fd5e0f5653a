// Package container provides dependency injection.
package container

import (
	"context"
	"fmt"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/adapters/database/duckdb"
	"github.com/andrew2loo/RethinkBI/internal/adapters/database/sqlite"
	"github.com/andrew2loo/RethinkBI/internal/adapters/storage"
	"github.com/andrew2loo/RethinkBI/internal/config"
	"github.com/andrew2loo/RethinkBI/internal/core/connection"
	"github.com/andrew2loo/RethinkBI/internal/core/dataset"
	"github.com/andrew2loo/RethinkBI/internal/core/engine"
	"github.com/andrew2loo/RethinkBI/internal/core/introspection"
	"github.com/andrew2loo/RethinkBI/internal/debug"
	"github.com/andrew2loo/RethinkBI/internal/service"
)

// Container holds all application dependencies.
type Container struct {
	// Configuration
	config *config.Config

	// Adapters
	dbAdapter database.Adapter
	storage   storage.Storage

	// Core
	engine      *engine.Engine
	introspect  *introspection.Introspector
	importer    *dataset.Importer
	connections *connection.Registry

	// Services
	services *service.Services
}

// NewContainer wires every component. Nothing touches the engine until Start.
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{
		config: cfg,
	}

	var err error
	c.dbAdapter, err = createDatabaseAdapter(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}

	c.storage, err = storage.NewStorage(&storage.Config{Type: string(storage.TypeFilesystem), BasePath: cfg.Datasets.Dir})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	c.engine = engine.New(c.dbAdapter, engine.Options{
		Name:         cfg.Engine.Driver,
		QueryTimeout: cfg.Engine.QueryTimeout,
	})

	c.introspect, err = introspection.New(c.engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create introspector: %w", err)
	}
	c.importer = dataset.NewImporter(c.engine, c.storage, c.introspect)
	c.connections = connection.NewRegistry()

	c.services = &service.Services{
		Query:        service.NewQueryService(c.engine, c.introspect, cfg.Query.PageSize),
		Schema:       service.NewSchemaService(c.introspect),
		Dataset:      service.NewDatasetService(c.importer),
		Connection:   service.NewConnectionService(c.connections),
		Status:       service.NewStatusService(c.engine),
		Capabilities: service.NewCapabilityService(c.dbAdapter.GetDialect()),
	}

	return c, nil
}

// Start prepares the workspace, opens the engine and checks its version.
func (c *Container) Start(ctx context.Context) error {
	if err := c.config.EnsureWorkspace(); err != nil {
		return err
	}
	if err := c.engine.Init(ctx); err != nil {
		return err
	}
	if err := c.services.Status.CheckVersion(ctx); err != nil {
		return err
	}
	debug.Info("engine ready", "engine", c.config.Engine.Driver, "path", c.config.Engine.Path)
	return nil
}

// Close shuts the engine down.
func (c *Container) Close(ctx context.Context) error {
	return c.engine.Close(ctx)
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Engine returns the engine handle.
func (c *Container) Engine() *engine.Engine {
	return c.engine
}

// Storage returns the dataset storage.
func (c *Container) Storage() storage.Storage {
	return c.storage
}

// Services returns the operation facade.
func (c *Container) Services() *service.Services {
	return c.services
}

func createDatabaseAdapter(cfg config.EngineConfig) (database.Adapter, error) {
	dbCfg := database.Config{
		Path:    cfg.Path,
		Threads: cfg.Threads,
	}

	switch cfg.Driver {
	case config.EngineDuckDB, "":
		return duckdb.NewDuckDBAdapter(dbCfg)
	case config.EngineSQLite:
		return sqlite.NewSQLiteAdapter(dbCfg)
	default:
		return nil, fmt.Errorf("unsupported engine driver: %s", cfg.Driver)
	}
}
