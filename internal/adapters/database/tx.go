package database

import (
	"context"
	"database/sql"
)

// SQLTransaction implements Transaction over *sql.Tx.
type SQLTransaction struct {
	tx *sql.Tx
}

// WrapTx adapts tx to the Transaction interface.
func WrapTx(tx *sql.Tx) *SQLTransaction {
	return &SQLTransaction{tx: tx}
}

// Commit commits the transaction.
func (t *SQLTransaction) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *SQLTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Execute executes a statement within the transaction.
func (t *SQLTransaction) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// Query executes a query within the transaction.
func (t *SQLTransaction) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

var _ Transaction = (*SQLTransaction)(nil)
