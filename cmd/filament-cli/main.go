// Command filament-cli fills a declared form against a database, either
// interactively in the terminal or over HTTP for a client-side widget.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SalvaTerol/filament/internal/config"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	driver := flag.String("driver", "", "database driver: sqlite, sqlite3, postgres, pq or pgxpool")
	dsn := flag.String("dsn", "", "database DSN")
	definitions := flag.String("definitions", "", "form definition file or directory")
	openapiPath := flag.String("openapi", "", "OpenAPI document to derive forms from")
	form := flag.String("form", "", "form id to fill, e.g. post.edit")
	record := flag.String("record", "", "primary key of the record to edit; empty creates one")
	output := flag.String("output", "", "output format: json or pretty")
	listen := flag.String("listen", "", "listen address for -serve")
	serve := flag.Bool("serve", false, "serve the form over HTTP instead of prompting")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	override(&cfg.Driver, *driver)
	override(&cfg.DSN, *dsn)
	override(&cfg.Definitions, *definitions)
	override(&cfg.OpenAPI, *openapiPath)
	override(&cfg.Form, *form)
	override(&cfg.Record, *record)
	override(&cfg.Output, *output)
	override(&cfg.Listen, *listen)
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *serve); err != nil {
		logger.Error("filament-cli failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, serve bool) error {
	tracing, err := newTracing(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, logger, tracing.Provider())
	if err != nil {
		return err
	}
	defer a.Close()

	if serve {
		return a.Serve(ctx)
	}
	return a.Prompt(ctx, os.Stdout)
}
