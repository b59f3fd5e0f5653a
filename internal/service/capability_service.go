package service

import (
	"sort"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
)

// Operation names, shared by the HTTP routes and the capability report.
const (
	OpGetSchema        = "get-schema"
	OpRunQuery         = "run-query"
	OpStartQuery       = "start-query"
	OpGetQueryResult   = "get-query-result"
	OpCancelQuery      = "cancel-query"
	OpImportDataset    = "import-dataset"
	OpExportDataset    = "export-dataset"
	OpListConnections  = "list-connections"
	OpCreateConnection = "create-connection"
	OpDeleteConnection = "delete-connection"
	OpGetStatus        = "get-status"
	OpGetCapabilities  = "get-capabilities"
)

// Capability tells a caller whether an operation works before it tries it.
type Capability struct {
	Supported bool   `json:"supported"`
	Note      string `json:"note,omitempty"`
}

// CapabilityService reports what the running configuration can do.
type CapabilityService struct {
	dialect database.SQLDialect
}

// NewCapabilityService creates a capability report for the engine dialect.
func NewCapabilityService(dialect database.SQLDialect) *CapabilityService {
	return &CapabilityService{dialect: dialect}
}

// GetCapabilities returns every operation with its support state.
func (s *CapabilityService) GetCapabilities() map[string]Capability {
	duck := s.dialect == database.DuckDB

	imports := Capability{Supported: true, Note: "csv, parquet and json; excel and database sources are not supported"}
	if !duck {
		imports.Note = "csv only on sqlite; excel and database sources are not supported"
	}
	exports := Capability{Supported: duck, Note: "csv and parquet"}
	if !duck {
		exports.Note = "exports require the duckdb engine"
	}
	async := Capability{Note: "queries run synchronously; use run-query"}

	return map[string]Capability{
		OpGetSchema:        {Supported: true},
		OpRunQuery:         {Supported: true, Note: "columnar (Arrow IPC stream) or paged rows"},
		OpStartQuery:       async,
		OpGetQueryResult:   async,
		OpCancelQuery:      async,
		OpImportDataset:    imports,
		OpExportDataset:    exports,
		OpListConnections:  {Supported: true, Note: "connections live for the process only"},
		OpCreateConnection: {Supported: true, Note: "postgres, mysql and mssql"},
		OpDeleteConnection: {Supported: true},
		OpGetStatus:        {Supported: true},
		OpGetCapabilities:  {Supported: true},
	}
}

// Operations returns the operation names in sorted order.
func Operations() []string {
	ops := []string{
		OpGetSchema, OpRunQuery, OpStartQuery, OpGetQueryResult, OpCancelQuery,
		OpImportDataset, OpExportDataset, OpListConnections, OpCreateConnection,
		OpDeleteConnection, OpGetStatus, OpGetCapabilities,
	}
	sort.Strings(ops)
	return ops
}
