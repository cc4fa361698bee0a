package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/SalvaTerol/filament/internal/config"
	"github.com/SalvaTerol/filament/pkg/forms"
	"github.com/SalvaTerol/filament/pkg/prompt"
	"github.com/SalvaTerol/filament/pkg/schema"
	"github.com/SalvaTerol/filament/pkg/schema/openapi"
	"github.com/SalvaTerol/filament/pkg/store"
	"github.com/SalvaTerol/filament/pkg/transport"
)

const shutdownTimeout = 5 * time.Second

// app holds everything one invocation needs to build the configured form.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *database
	catalog *schema.Catalog
	form    schema.FormDef
	model   *store.Model
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, tp trace.TracerProvider) (*app, error) {
	def, err := loadDefinition(ctx, cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := def.Catalog()
	if err != nil {
		return nil, err
	}
	formDef, ok := def.Form(cfg.Form)
	if !ok {
		return nil, fmt.Errorf("unknown form %q (have %v)", cfg.Form, def.FormIDs())
	}
	model, ok := catalog.Model(formDef.Model)
	if !ok {
		return nil, fmt.Errorf("form %q: unknown model %q", cfg.Form, formDef.Model)
	}

	db, err := openDatabase(ctx, cfg, logger, tp)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		catalog: catalog,
		form:    formDef,
		model:   model,
	}, nil
}

// loadDefinition merges the definition files with the forms derived from
// the OpenAPI document, when either is configured.
func loadDefinition(ctx context.Context, cfg config.Config) (schema.Definition, error) {
	var def schema.Definition
	if cfg.Definitions != "" {
		loaded, err := schema.Load(cfg.Definitions)
		if err != nil {
			return schema.Definition{}, err
		}
		def = loaded
	}
	if cfg.OpenAPI != "" {
		raw, err := os.ReadFile(cfg.OpenAPI)
		if err != nil {
			return schema.Definition{}, fmt.Errorf("read openapi: %w", err)
		}
		converted, err := openapi.Load(ctx, raw, openapi.Options{Validate: true})
		if err != nil {
			return schema.Definition{}, err
		}
		if err := def.Merge(converted, cfg.OpenAPI); err != nil {
			return schema.Definition{}, err
		}
	}
	return def, nil
}

func (a *app) Close() { a.db.Close() }

// newForm binds the form to the record with the given key. An empty key
// yields a create form.
func (a *app) newForm(ctx context.Context, key string, state map[string]any) (*forms.Form, error) {
	components, err := a.form.Components()
	if err != nil {
		return nil, err
	}
	opts := []forms.Option{
		forms.WithExecutor(a.db),
		forms.WithModel(a.model),
		forms.WithRelations(a.catalog.Relations()),
		forms.WithLogger(a.logger),
		forms.WithState(state),
	}
	if key != "" {
		rec, err := store.Find(ctx, a.db, a.model, key)
		if errors.Is(err, store.ErrNoRows) {
			return nil, transport.StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("%s %q not found", a.model.Table, key)}
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, forms.WithRecord(rec))
	}
	return forms.New(components, opts...)
}

// Prompt fills the form in the terminal, saves it once confirmed and writes
// the resulting state to out.
func (a *app) Prompt(ctx context.Context, out io.Writer) error {
	form, err := a.newForm(ctx, a.cfg.Record, nil)
	if err != nil {
		return err
	}
	if err := form.Fill(ctx); err != nil {
		return err
	}

	runner := prompt.New(
		prompt.WithOutputFormat(prompt.OutputFormat(a.cfg.Output)),
		prompt.WithLogger(a.logger),
	)
	if err := runner.Fill(ctx, form); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			a.logger.Info("aborted, nothing saved")
			return nil
		}
		return err
	}
	saved, err := runner.Submit(ctx, form)
	if err != nil {
		return err
	}
	if saved {
		a.logger.Info("saved", "form", a.cfg.Form, "key", form.Record().Key())
	}

	payload, err := runner.Output(ctx, form)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(payload))
	return err
}

// Handler serves the form endpoints. The record query parameter overrides
// the configured record key.
func (a *app) Handler() (http.Handler, string, error) {
	mux := http.NewServeMux()
	path, err := transport.RegisterRoutes(mux, a.cfg.BasePath,
		transport.WithLogger(a.logger),
		transport.WithFactory(func(r *http.Request) (*forms.Form, error) {
			key := a.cfg.Record
			if v := r.URL.Query().Get("record"); v != "" {
				key = v
			}
			return a.newForm(r.Context(), key, nil)
		}),
	)
	if err != nil {
		return nil, "", err
	}
	return mux, path, nil
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (a *app) Serve(ctx context.Context) error {
	handler, path, err := a.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving form", "form", a.cfg.Form, "addr", a.cfg.Listen, "path", path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
