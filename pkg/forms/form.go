package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SalvaTerol/filament/pkg/relation"
	"github.com/SalvaTerol/filament/pkg/store"
	"github.com/SalvaTerol/filament/pkg/validation"
)

// Form binds a schema to one request: its state, the owning record and the
// executor relationship fields query through. A Form is not safe for
// concurrent use.
type Form struct {
	schema    []Component
	fields    []Field
	byPath    map[string]Field
	state     map[string]any
	record    *store.Record
	model     *store.Model
	instance  *store.Record
	exec      store.Executor
	relations relation.Resolver
	logger    *slog.Logger
}

// Option configures a Form.
type Option func(*Form)

// WithExecutor sets the executor used for relationship queries and saves.
func WithExecutor(exec store.Executor) Option {
	return func(f *Form) {
		f.exec = exec
	}
}

// WithRecord sets the record the form edits.
func WithRecord(rec *store.Record) Option {
	return func(f *Form) {
		f.record = rec
	}
}

// WithModel sets the model a create form instantiates.
func WithModel(m *store.Model) Option {
	return func(f *Form) {
		f.model = m
	}
}

// WithRelations sets the resolver relationship fields use.
func WithRelations(resolver relation.Resolver) Option {
	return func(f *Form) {
		f.relations = resolver
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithState seeds the state, typically from a submitted request.
func WithState(state map[string]any) Option {
	return func(f *Form) {
		for path, value := range state {
			f.state[path] = value
		}
	}
}

// New binds schema into a form. Builders are frozen while binding.
func New(schema []Component, opts ...Option) (*Form, error) {
	f := &Form{
		byPath: map[string]Field{},
		state:  map[string]any{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.model == nil && f.record != nil {
		f.model = f.record.Model()
	}
	bound, err := f.bindAll(schema)
	if err != nil {
		return nil, err
	}
	f.schema = bound
	return f, nil
}

func (f *Form) bindAll(components []Component) ([]Component, error) {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if c == nil {
			continue
		}
		bound, err := c.bind(f)
		if err != nil {
			return nil, err
		}
		out = append(out, bound)
	}
	return out, nil
}

func (f *Form) register(field Field) error {
	path := field.StatePath()
	if _, ok := f.byPath[path]; ok {
		return fmt.Errorf("forms: duplicate state path %q", path)
	}
	f.byPath[path] = field
	f.fields = append(f.fields, field)
	return nil
}

// Fields returns the bound fields in schema order.
func (f *Form) Fields() []Field {
	return append([]Field(nil), f.fields...)
}

// Field returns the field at path.
func (f *Form) Field(path string) (Field, bool) {
	field, ok := f.byPath[path]
	return field, ok
}

// Select returns the select at path.
func (f *Form) Select(path string) (*Select, bool) {
	s, ok := f.byPath[path].(*Select)
	return s, ok
}

// Get returns the state at path.
func (f *Form) Get(path string) any { return f.state[path] }

// Set replaces the state at path.
func (f *Form) Set(path string, value any) { f.state[path] = value }

// State returns a copy of the state.
func (f *Form) State() map[string]any {
	out := make(map[string]any, len(f.state))
	for path, value := range f.state {
		out[path] = value
	}
	return out
}

// Record returns the edited record, nil for a create form before Save.
func (f *Form) Record() *store.Record { return f.record }

// ModelInstance returns the record, or an unsaved instance of the model.
func (f *Form) ModelInstance() *store.Record {
	if f.record != nil {
		return f.record
	}
	if f.model == nil {
		return nil
	}
	if f.instance == nil {
		f.instance = f.model.New(nil)
	}
	return f.instance
}

// Executor returns the form executor.
func (f *Form) Executor() store.Executor { return f.exec }

// Logger returns the form logger.
func (f *Form) Logger() *slog.Logger { return f.logger }

// Fill seeds every path without state from the record, or from the field
// default, then lets each field hydrate itself.
func (f *Form) Fill(ctx context.Context) error {
	var attrs map[string]any
	if f.record != nil {
		attrs = f.record.Attributes()
	}
	for _, field := range f.fields {
		path := field.StatePath()
		if _, ok := f.state[path]; ok {
			continue
		}
		if value, ok := attrs[path]; ok {
			f.state[path] = value
			continue
		}
		def, err := field.GetDefault(ctx)
		if err != nil {
			return fmt.Errorf("forms: default of %s: %w", path, err)
		}
		f.state[path] = def
	}
	for _, field := range f.fields {
		if err := field.HydrateState(ctx); err != nil {
			return fmt.Errorf("forms: hydrate %s: %w", field.StatePath(), err)
		}
	}
	return nil
}

// Validate runs the rules of every visible field against its state.
func (f *Form) Validate(ctx context.Context) (validation.Result, error) {
	result := validation.NewResult()
	for _, field := range f.fields {
		hidden, err := field.IsHidden(ctx)
		if err != nil {
			return result, err
		}
		if hidden {
			continue
		}
		rules, err := field.Rules(ctx)
		if err != nil {
			return result, err
		}
		if len(rules) == 0 {
			continue
		}
		label, err := field.GetLabel(ctx)
		if err != nil {
			return result, err
		}
		attribute := lcfirst(label)
		for _, rule := range rules {
			msg, err := rule.Validate(ctx, attribute, field.State())
			if err != nil {
				return result, fmt.Errorf("forms: validate %s: %w", field.StatePath(), err)
			}
			if msg != "" {
				result.Add(validation.Issue{Path: field.StatePath(), Rule: rule.Name(), Message: msg})
			}
		}
	}
	return result, nil
}

// Dehydrate returns the state of every dehydrated field, the values saved
// onto the record columns.
func (f *Form) Dehydrate(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	for _, field := range f.fields {
		dehydrated, err := field.IsDehydrated(ctx)
		if err != nil {
			return nil, err
		}
		if dehydrated {
			out[field.StatePath()] = f.state[field.StatePath()]
		}
	}
	return out, nil
}

// Save writes the dehydrated state onto the record and persists every
// relationship, all in one transaction. A create form's instance becomes
// the record.
func (f *Form) Save(ctx context.Context) error {
	if f.exec == nil {
		return errors.New("forms: save without executor")
	}
	values, err := f.Dehydrate(ctx)
	if err != nil {
		return err
	}
	rec := f.ModelInstance()
	var cp store.Checkpoint
	if rec != nil {
		cp = rec.Checkpoint()
	}
	err = store.InTx(ctx, f.exec, func(ctx context.Context, tx store.Executor) error {
		if rec != nil {
			rec.Fill(values)
			if err := store.Save(ctx, tx, rec); err != nil {
				return err
			}
		}
		for _, field := range f.fields {
			if err := field.SaveRelationships(ctx); err != nil {
				return fmt.Errorf("forms: save %s: %w", field.StatePath(), err)
			}
		}
		return nil
	})
	if err != nil {
		cp.Restore()
		f.logger.DebugContext(ctx, "form save rolled back", "error", err)
		return err
	}
	if f.record == nil && rec != nil {
		f.record = rec
	}
	return nil
}

// View resolves every component for a renderer.
func (f *Form) View(ctx context.Context) ([]any, error) {
	return viewAll(ctx, f.schema)
}
