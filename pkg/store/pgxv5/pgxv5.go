// Package pgxv5 adapts a pgx/v5 connection pool to store.Executor.
//
//	pool, _ := pgxpool.New(ctx, databaseURL)
//	exec := pgxv5.New(pool)
package pgxv5

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/store"
)

// Option customises an Executor.
type Option func(*Executor)

// WithLogger sets the logger receiving debug records for every statement.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracerProvider sets the provider used for statement spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		e.tracer = store.NewTracer(tp, "postgresql")
	}
}

// Connect creates a pool from a connection string.
func Connect(ctx context.Context, databaseURL string, opts ...Option) (*Executor, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return New(pool, opts...), nil
}

type pgxQueryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type runner struct {
	logger *slog.Logger
	tracer store.Tracer
}

func (r runner) exec(ctx context.Context, q pgxQueryer, stmt string, args []any) (_ int64, err error) {
	ctx, end := r.tracer.Start(ctx, "exec", stmt)
	defer func() { end(err) }()
	start := time.Now()
	tag, err := q.Exec(ctx, stmt, args...)
	r.logger.DebugContext(ctx, "pgxv5: exec", "statement", stmt, "args", len(args), "elapsed", time.Since(start), "error", err)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r runner) query(ctx context.Context, q pgxQueryer, stmt string, args []any) (_ store.Rows, err error) {
	ctx, end := r.tracer.Start(ctx, "query", stmt)
	defer func() { end(err) }()
	start := time.Now()
	rows, err := q.Query(ctx, stmt, args...)
	r.logger.DebugContext(ctx, "pgxv5: query", "statement", stmt, "args", len(args), "elapsed", time.Since(start), "error", err)
	if err != nil {
		return nil, err
	}
	return &rowsWrapper{rows}, nil
}

func (r runner) queryRow(ctx context.Context, q pgxQueryer, stmt string, args []any) store.Row {
	ctx, end := r.tracer.Start(ctx, "query_row", stmt)
	r.logger.DebugContext(ctx, "pgxv5: query row", "statement", stmt, "args", len(args))
	return &rowWrapper{row: q.QueryRow(ctx, stmt, args...), end: end}
}

// Executor wraps pgxpool.Pool.
type Executor struct {
	pool *pgxpool.Pool
	runner
}

// New wraps pool.
func New(pool *pgxpool.Pool, opts ...Option) *Executor {
	e := &Executor{
		pool: pool,
		runner: runner{
			logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			tracer: store.NewTracer(nil, "postgresql"),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Pool returns the underlying pool.
func (e *Executor) Pool() *pgxpool.Pool { return e.pool }

// Close closes the pool.
func (e *Executor) Close() { e.pool.Close() }

// Dialect implements store.Executor.
func (e *Executor) Dialect() query.Dialect { return query.Postgres }

// Begin starts a transaction.
func (e *Executor) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, runner: e.runner}, nil
}

// Exec implements store.Executor.
func (e *Executor) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	return e.exec(ctx, e.pool, stmt, args)
}

// Query implements store.Executor.
func (e *Executor) Query(ctx context.Context, stmt string, args ...any) (store.Rows, error) {
	return e.query(ctx, e.pool, stmt, args)
}

// QueryRow implements store.Executor.
func (e *Executor) QueryRow(ctx context.Context, stmt string, args ...any) store.Row {
	return e.queryRow(ctx, e.pool, stmt, args)
}

// Tx wraps pgx.Tx. pgx turns nested Begin calls into savepoints.
type Tx struct {
	tx pgx.Tx
	runner
}

// Dialect implements store.Executor.
func (t *Tx) Dialect() query.Dialect { return query.Postgres }

// Begin opens a savepoint.
func (t *Tx) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, runner: t.runner}, nil
}

// Exec implements store.Executor.
func (t *Tx) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	return t.exec(ctx, t.tx, stmt, args)
}

// Query implements store.Executor.
func (t *Tx) Query(ctx context.Context, stmt string, args ...any) (store.Rows, error) {
	return t.query(ctx, t.tx, stmt, args)
}

// QueryRow implements store.Executor.
func (t *Tx) QueryRow(ctx context.Context, stmt string, args ...any) store.Row {
	return t.queryRow(ctx, t.tx, stmt, args)
}

// Commit implements store.Tx.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback implements store.Tx. Rolling back a closed transaction is not an
// error.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// rowsWrapper adapts pgx.Rows to store.Rows.
type rowsWrapper struct {
	pgx.Rows
}

// Columns returns the result field names.
func (r *rowsWrapper) Columns() ([]string, error) {
	fields := r.Rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names, nil
}

type rowWrapper struct {
	row pgx.Row
	end func(error)
}

func (r *rowWrapper) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		err = store.ErrNoRows
	}
	r.end(err)
	return err
}

var (
	_ store.Executor = (*Executor)(nil)
	_ store.Tx       = (*Tx)(nil)
)
