// Package sqldb adapts database/sql to store.Executor. Nested transactions use
// savepoints, so any backend supporting SAVEPOINT (sqlite, postgres, mysql)
// works.
//
// Usage:
//
//	exec, err := sqldb.Open("sqlite", "file:app.db", sqldb.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer exec.Close()
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/store"
)

// Option customises an Executor.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	provider trace.TracerProvider
	dialect  query.Dialect
	setDial  bool
}

// WithLogger sets the logger receiving debug records for every statement.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider sets the provider used for statement spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.provider = tp
	}
}

// WithDialect overrides the dialect derived from the driver name.
func WithDialect(d query.Dialect) Option {
	return func(c *config) {
		c.dialect = d
		c.setDial = true
	}
}

type shared struct {
	logger  *slog.Logger
	tracer  store.Tracer
	dialect query.Dialect
}

// Executor wraps *sql.DB.
type Executor struct {
	db *sql.DB
	shared
}

// New wraps an open database handle. The dialect defaults to Generic unless
// set through WithDialect.
func New(db *sql.DB, opts ...Option) *Executor {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Executor{
		db: db,
		shared: shared{
			logger:  cfg.logger,
			tracer:  store.NewTracer(cfg.provider, cfg.dialect.String()),
			dialect: cfg.dialect,
		},
	}
}

// Open opens driverName/dsn and derives the dialect from the driver name.
func Open(driverName, dsn string, opts ...Option) (*Executor, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: open %s: %w", driverName, err)
	}
	opts = append([]Option{WithDialect(query.ParseDialect(driverName))}, opts...)
	return New(db, opts...), nil
}

// DB returns the underlying handle.
func (e *Executor) DB() *sql.DB { return e.db }

// Close closes the underlying handle.
func (e *Executor) Close() error { return e.db.Close() }

// Dialect implements store.Executor.
func (e *Executor) Dialect() query.Dialect { return e.dialect }

// Begin starts a transaction.
func (e *Executor) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "sqldb: begin")
	return &Tx{tx: tx, shared: e.shared}, nil
}

// Exec implements store.Executor.
func (e *Executor) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	return e.exec(ctx, e.db, stmt, args)
}

// Query implements store.Executor.
func (e *Executor) Query(ctx context.Context, stmt string, args ...any) (store.Rows, error) {
	return e.query(ctx, e.db, stmt, args)
}

// QueryRow implements store.Executor.
func (e *Executor) QueryRow(ctx context.Context, stmt string, args ...any) store.Row {
	return e.queryRow(ctx, e.db, stmt, args)
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s shared) exec(ctx context.Context, q queryer, stmt string, args []any) (n int64, err error) {
	ctx, end := s.tracer.Start(ctx, "exec", stmt)
	defer func() { end(err) }()
	start := time.Now()
	result, err := q.ExecContext(ctx, stmt, args...)
	s.logger.DebugContext(ctx, "sqldb: exec", "statement", stmt, "args", len(args), "elapsed", time.Since(start), "error", err)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s shared) query(ctx context.Context, q queryer, stmt string, args []any) (_ store.Rows, err error) {
	ctx, end := s.tracer.Start(ctx, "query", stmt)
	defer func() { end(err) }()
	start := time.Now()
	rows, err := q.QueryContext(ctx, stmt, args...)
	s.logger.DebugContext(ctx, "sqldb: query", "statement", stmt, "args", len(args), "elapsed", time.Since(start), "error", err)
	if err != nil {
		return nil, err
	}
	return &rowsWrapper{rows}, nil
}

func (s shared) queryRow(ctx context.Context, q queryer, stmt string, args []any) store.Row {
	ctx, end := s.tracer.Start(ctx, "query_row", stmt)
	s.logger.DebugContext(ctx, "sqldb: query row", "statement", stmt, "args", len(args))
	return &rowWrapper{row: q.QueryRowContext(ctx, stmt, args...), end: end}
}

// Tx wraps *sql.Tx. Nested Begin calls open savepoints.
type Tx struct {
	tx        *sql.Tx
	depth     int
	savepoint string
	shared
}

// Dialect implements store.Executor.
func (t *Tx) Dialect() query.Dialect { return t.dialect }

// Begin opens a savepoint.
func (t *Tx) Begin(ctx context.Context) (store.Tx, error) {
	name := fmt.Sprintf("sp_%d", t.depth+1)
	if _, err := t.exec(ctx, t.tx, "SAVEPOINT "+name, nil); err != nil {
		return nil, err
	}
	return &Tx{tx: t.tx, depth: t.depth + 1, savepoint: name, shared: t.shared}, nil
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

// Commit commits, or releases the savepoint.
func (t *Tx) Commit(ctx context.Context) error {
	if t.savepoint != "" {
		_, err := t.exec(ctx, t.tx, "RELEASE SAVEPOINT "+t.savepoint, nil)
		return err
	}
	t.logger.DebugContext(ctx, "sqldb: commit")
	return t.tx.Commit()
}

// Rollback rolls back, or rolls back to the savepoint. Rolling back a
// finished transaction is not an error.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.savepoint != "" {
		_, err := t.exec(ctx, t.tx, "ROLLBACK TO SAVEPOINT "+t.savepoint, nil)
		return err
	}
	t.logger.DebugContext(ctx, "sqldb: rollback")
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

type rowsWrapper struct {
	*sql.Rows
}

func (r *rowsWrapper) Close() {
	_ = r.Rows.Close()
}

type rowWrapper struct {
	row *sql.Row
	end func(error)
}

func (r *rowWrapper) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		err = store.ErrNoRows
	}
	r.end(err)
	return err
}

var (
	_ store.Executor = (*Executor)(nil)
	_ store.Tx       = (*Tx)(nil)
)
