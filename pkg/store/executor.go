package store

import (
	"context"
	"errors"

	"github.com/SalvaTerol/filament/pkg/query"
)

// ErrNoRows is returned when a lookup matches nothing. Drivers translate their
// native no-rows errors into it.
var ErrNoRows = errors.New("store: no rows")

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
	// Columns returns the result column names.
	Columns() ([]string, error)
}

// Executor runs statements against a pool or a transaction.
type Executor interface {
	// Dialect reports the SQL flavour statements must be rendered in.
	Dialect() query.Dialect

	// Begin starts a transaction, or a savepoint when called on a Tx.
	Begin(ctx context.Context) (Tx, error)

	// Exec runs a statement and returns the affected row count.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Query runs a statement returning rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow runs a statement returning at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Tx is an Executor bound to an open transaction.
type Tx interface {
	Executor

	// Commit commits, or releases the savepoint for nested transactions.
	Commit(ctx context.Context) error

	// Rollback rolls back, or rolls back to the savepoint.
	Rollback(ctx context.Context) error
}
