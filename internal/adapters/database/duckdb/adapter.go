// Package duckdb implements the DuckDB engine adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
)

// DuckDBAdapter implements the database.Adapter interface for DuckDB.
type DuckDBAdapter struct {
	db     *sql.DB
	config database.Config
}

// NewDuckDBAdapter creates a new DuckDB adapter.
func NewDuckDBAdapter(config database.Config) (*DuckDBAdapter, error) {
	return &DuckDBAdapter{
		config: config,
	}, nil
}

// dsn builds the go-duckdb data source name. An empty path opens an in-memory database.
func (a *DuckDBAdapter) dsn() string {
	path := a.config.Path
	if a.config.InMemory() {
		path = ""
	}

	params := url.Values{}
	if a.config.Threads > 0 {
		params.Set("threads", strconv.Itoa(a.config.Threads))
	}
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// Connect opens the DuckDB database.
func (a *DuckDBAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("duckdb", a.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every call is serialized by the engine dispatcher anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	return nil
}

// Disconnect closes the database connection.
func (a *DuckDBAdapter) Disconnect(ctx context.Context) error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// Execute executes a statement without returning rows.
func (a *DuckDBAdapter) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows.
func (a *DuckDBAdapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.QueryContext(ctx, query, args...)
}

// Begin starts a new transaction.
func (a *DuckDBAdapter) Begin(ctx context.Context) (database.Transaction, error) {
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
func (a *DuckDBAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("database not connected")
	}
	return a.db.PingContext(ctx)
}

// Version returns the DuckDB library version, e.g. "v1.1.3".
func (a *DuckDBAdapter) Version(ctx context.Context) (string, error) {
	if a.db == nil {
		return "", fmt.Errorf("database not connected")
	}
	var version string
	if err := a.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read version: %w", err)
	}
	return version, nil
}

// ConvertValue maps go-duckdb value types to portable ones.
func (a *DuckDBAdapter) ConvertValue(v any) any {
	switch val := v.(type) {
	case duckdb.Decimal:
		if val.Value == nil {
			return nil
		}
		return decimal.NewFromBigInt(val.Value, -int32(val.Scale))
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d microseconds", val.Months, val.Days, val.Micros)
	case duckdb.Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = item
		}
		return out
	}
	return v
}

// GetDialect returns the SQL dialect.
func (a *DuckDBAdapter) GetDialect() database.SQLDialect {
	return database.DuckDB
}

// Ensure DuckDBAdapter implements Adapter interface.
var _ database.Adapter = (*DuckDBAdapter)(nil)
