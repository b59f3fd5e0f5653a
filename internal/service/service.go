// Package service implements the operation facade shared by the HTTP API and the CLI.
//
// Every exported method returns either nil or an *apierr.Error.
package service

import (
	"context"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/connection"
	"github.com/andrew2loo/RethinkBI/internal/core/dataset"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// Engine runs compiled queries on the embedded engine.
type Engine interface {
	Run(ctx context.Context, q domain.SQL) (*domain.Result, error)
	Version(ctx context.Context) (string, error)
	Busy() bool
	Name() string
}

// SchemaReader reads the engine catalog.
type SchemaReader interface {
	Tables(ctx context.Context) ([]domain.TableDef, error)
	Catalog(ctx context.Context) (compiler.Catalog, error)
}

// Datasets moves files in and out of the engine.
type Datasets interface {
	Import(ctx context.Context, payload any, target string) (*dataset.ImportResult, error)
	Export(ctx context.Context, table string, format dataset.ExportFormat, path string) (*dataset.ExportResult, error)
}

// Connections stores remote connection configs.
type Connections interface {
	Create(ctx context.Context, payload any) (*connection.Info, error)
	List(ctx context.Context) ([]connection.Info, error)
	Delete(ctx context.Context, id string) error
}

// Services bundles every operation for the transports.
type Services struct {
	Query        *QueryService
	Schema       *SchemaService
	Dataset      *DatasetService
	Connection   *ConnectionService
	Status       *StatusService
	Capabilities *CapabilityService
}

// normalize maps err onto the error envelope, keeping nil as an untyped nil.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	return apierr.Normalize(err)
}
