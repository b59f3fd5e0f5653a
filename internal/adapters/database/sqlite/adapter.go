// Package sqlite implements the SQLite engine adapter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
)

// SQLiteAdapter implements the database.Adapter interface for SQLite.
type SQLiteAdapter struct {
	db     *sql.DB
	config database.Config
}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter(config database.Config) (*SQLiteAdapter, error) {
	return &SQLiteAdapter{
		config: config,
	}, nil
}

// Connect establishes a connection to the SQLite database.
func (a *SQLiteAdapter) Connect(ctx context.Context) error {
	path := a.config.Path
	if a.config.InMemory() {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection that never expires; an in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a.db = db
	return nil
}

// Disconnect closes the database connection.
func (a *SQLiteAdapter) Disconnect(ctx context.Context) error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// Execute executes a query without returning rows.
func (a *SQLiteAdapter) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows.
func (a *SQLiteAdapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.QueryContext(ctx, query, args...)
}

// Begin starts a new transaction.
func (a *SQLiteAdapter) Begin(ctx context.Context) (database.Transaction, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return database.WrapTx(tx), nil
}

// Ping checks if the database connection is alive.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("database not connected")
	}
	return a.db.PingContext(ctx)
}

// Version returns the SQLite library version, e.g. "3.46.1".
func (a *SQLiteAdapter) Version(ctx context.Context) (string, error) {
	if a.db == nil {
		return "", fmt.Errorf("database not connected")
	}
	var version string
	if err := a.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read version: %w", err)
	}
	return version, nil
}

// ConvertValue returns v unchanged; go-sqlite3 already yields portable types.
func (a *SQLiteAdapter) ConvertValue(v any) any {
	return v
}

// GetDialect returns the SQL dialect.
func (a *SQLiteAdapter) GetDialect() database.SQLDialect {
	return database.SQLite
}

// Ensure SQLiteAdapter implements Adapter interface.
var _ database.Adapter = (*SQLiteAdapter)(nil)
