// Package database defines database adapter interfaces.
package database

import (
	"context"
	"database/sql"
	"time"
)

// Adapter defines the embedded engine adapter interface.
type Adapter interface {
	// Connect opens the engine. It is safe to call only once.
	Connect(ctx context.Context) error

	// Disconnect closes the engine.
	Disconnect(ctx context.Context) error

	// Execute executes a statement that returns no rows.
	Execute(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query executes a query that returns rows.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Begin starts a transaction.
	Begin(ctx context.Context) (Transaction, error)

	// Ping checks the engine connection.
	Ping(ctx context.Context) error

	// Version returns the engine's own version string.
	Version(ctx context.Context) (string, error)

	// ConvertValue maps a driver-specific scanned value to a portable one.
	ConvertValue(v any) any

	// GetDialect returns the SQL dialect.
	GetDialect() SQLDialect
}

// Transaction defines the transaction interface.
type Transaction interface {
	// Commit commits the transaction.
	Commit() error

	// Rollback rolls back the transaction.
	Rollback() error

	// Execute executes a statement within the transaction.
	Execute(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query executes a query within the transaction.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLDialect represents a SQL dialect.
type SQLDialect string

const (
	// DuckDB dialect.
	DuckDB SQLDialect = "duckdb"
	// SQLite dialect.
	SQLite SQLDialect = "sqlite"
)

// Config holds engine connection configuration.
type Config struct {
	// Path is the database file, empty or ":memory:" for an in-memory engine.
	Path           string
	Threads        int
	ConnectTimeout time.Duration
}

// InMemory reports whether the configuration opens an in-memory engine.
func (c Config) InMemory() bool {
	return c.Path == "" || c.Path == ":memory:"
}

// Timeout returns the connect timeout, 10s when unset.
func (c Config) Timeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return c.ConnectTimeout
}
