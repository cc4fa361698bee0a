package main

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"github.com/SalvaTerol/filament/internal/config"
	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/store"
	"github.com/SalvaTerol/filament/pkg/store/pgxv5"
	"github.com/SalvaTerol/filament/pkg/store/sqldb"
)

// database is an executor together with the function releasing it.
type database struct {
	store.Executor
	close func()
}

// openDatabase connects using the configured driver:
//
//	sqlite   modernc.org/sqlite through database/sql
//	sqlite3  github.com/mattn/go-sqlite3 (cgo)
//	postgres github.com/jackc/pgx/v5/stdlib through database/sql
//	pq       github.com/lib/pq through database/sql
//	pgxpool  a native pgx/v5 pool
func openDatabase(ctx context.Context, cfg config.Config, logger *slog.Logger, tp trace.TracerProvider) (*database, error) {
	if cfg.Driver == config.DriverPgxPool {
		exec, err := pgxv5.Connect(ctx, cfg.DSN,
			pgxv5.WithLogger(logger),
			pgxv5.WithTracerProvider(tp),
		)
		if err != nil {
			return nil, fmt.Errorf("connect pgxpool: %w", err)
		}
		return &database{Executor: exec, close: exec.Close}, nil
	}

	driverName, dialect, err := sqlDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	exec, err := sqldb.Open(driverName, cfg.DSN,
		sqldb.WithLogger(logger),
		sqldb.WithTracerProvider(tp),
		sqldb.WithDialect(dialect),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if err := exec.DB().PingContext(ctx); err != nil {
		_ = exec.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return &database{Executor: exec, close: func() { _ = exec.Close() }}, nil
}

// sqlDriver maps a configured driver onto its database/sql name.
func sqlDriver(driver string) (string, query.Dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return "sqlite", query.SQLite, nil
	case config.DriverSQLite3:
		return "sqlite3", query.SQLite, nil
	case config.DriverPostgres:
		return "pgx", query.Postgres, nil
	case config.DriverPQ:
		return "postgres", query.Postgres, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}

func (d *database) Close() {
	if d != nil && d.close != nil {
		d.close()
	}
}
