package forms

import (
	"context"
	"errors"
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/relation"
	"github.com/SalvaTerol/filament/pkg/store"
)

// DefaultOptionsLimit bounds dynamic option queries when nothing else does.
const DefaultOptionsLimit = 50

// Default messages shown by select widgets.
const (
	DefaultPlaceholder            = "Select an option"
	DefaultLoadingMessage         = "Loading..."
	DefaultNoSearchResultsMessage = "No options match your search."
	DefaultSearchingMessage       = "Searching..."
	DefaultSearchPrompt           = "Start typing to search..."
	createOptionActionName        = "createOption"
)

// QueryModifier adjusts a relationship query. Returning nil keeps q.
type QueryModifier func(q *query.Builder, in evaluate.Inputs) *query.Builder

// SaveFunc persists the state of a field outside the record columns.
type SaveFunc func(ctx context.Context, s *Select, state any) error

// HydrateFunc loads the state of a field from its relationships.
type HydrateFunc func(ctx context.Context, s *Select, state any) error

type selectConfig struct {
	field fieldConfig

	options       evaluate.Value[*options.Set]
	searchable    evaluate.Value[bool]
	searchColumns []string
	multiple      evaluate.Value[bool]
	preload       evaluate.Value[bool]
	allowHTML     evaluate.Value[bool]
	optionsLimit  evaluate.Value[int]

	searchResults         evaluate.Value[*options.Set]
	optionLabel           evaluate.Value[options.Label]
	optionLabels          evaluate.Value[*options.Set]
	optionLabelFromRecord evaluate.Value[string]
	optionDisabled        evaluate.Value[bool]

	relationship      string
	relationshipTitle string
	modifyQuery       QueryModifier

	createOptionForm   []action.Input
	createOptionUsing  evaluate.Value[any]
	modifyCreateOption func(a *action.Action) *action.Action

	placeholder            evaluate.Value[string]
	loadingMessage         evaluate.Value[string]
	noSearchResultsMessage evaluate.Value[string]
	searchingMessage       evaluate.Value[string]
	searchPrompt           evaluate.Value[string]

	hydrate HydrateFunc
	save    SaveFunc
}

func (c selectConfig) clone() selectConfig {
	c.field = c.field.clone()
	c.searchColumns = append([]string(nil), c.searchColumns...)
	c.createOptionForm = append([]action.Input(nil), c.createOptionForm...)
	return c
}

// SelectBuilder configures a select field. Each setter stores a literal or a
// computation; the last call for a slot wins. Build freezes the result.
type SelectBuilder struct {
	fieldBuilder[*SelectBuilder]
	cfg  selectConfig
	errs []error
}

// NewSelect starts a select bound to path.
func NewSelect(path string) *SelectBuilder {
	b := &SelectBuilder{cfg: selectConfig{
		field:                  newFieldConfig(path),
		optionsLimit:           evaluate.Of(DefaultOptionsLimit),
		placeholder:            evaluate.Of(DefaultPlaceholder),
		loadingMessage:         evaluate.Of(DefaultLoadingMessage),
		noSearchResultsMessage: evaluate.Of(DefaultNoSearchResultsMessage),
		searchingMessage:       evaluate.Of(DefaultSearchingMessage),
		searchPrompt:           evaluate.Of(DefaultSearchPrompt),
	}}
	b.fieldBuilder = fieldBuilder[*SelectBuilder]{field: &b.cfg.field, self: b}
	return b
}

// Options sets a static option set.
func (b *SelectBuilder) Options(set *options.Set) *SelectBuilder {
	b.cfg.options = evaluate.Of(set)
	return b
}

// OptionsUsing sets the options slot.
func (b *SelectBuilder) OptionsUsing(set evaluate.Value[*options.Set]) *SelectBuilder {
	b.cfg.options = set
	return b
}

// Boolean offers 1 and 0 as options. Empty labels fall back to Yes and No;
// the placeholder defaults to "-".
func (b *SelectBuilder) Boolean(trueLabel, falseLabel, placeholder string) *SelectBuilder {
	if trueLabel == "" {
		trueLabel = "Yes"
	}
	if falseLabel == "" {
		falseLabel = "No"
	}
	if placeholder == "" {
		placeholder = "-"
	}
	b.cfg.options = evaluate.Of(options.New().Put(1, trueLabel).Put(0, falseLabel))
	b.cfg.placeholder = evaluate.Of(placeholder)
	return b
}

// Searchable enables server or client side search.
func (b *SelectBuilder) Searchable(searchable bool) *SelectBuilder {
	b.cfg.searchable = evaluate.Of(searchable)
	return b
}

// SearchableWhen sets the searchable slot.
func (b *SelectBuilder) SearchableWhen(searchable evaluate.Value[bool]) *SelectBuilder {
	b.cfg.searchable = searchable
	return b
}

// SearchColumns sets the columns relationship search matches and enables
// search.
func (b *SelectBuilder) SearchColumns(columns ...string) *SelectBuilder {
	b.cfg.searchColumns = append([]string(nil), columns...)
	b.cfg.searchable = evaluate.Of(true)
	return b
}

// Multiple allows several selected options.
func (b *SelectBuilder) Multiple(multiple bool) *SelectBuilder {
	b.cfg.multiple = evaluate.Of(multiple)
	return b
}

// MultipleWhen sets the multiple slot.
func (b *SelectBuilder) MultipleWhen(multiple evaluate.Value[bool]) *SelectBuilder {
	b.cfg.multiple = multiple
	return b
}

// Preload loads relationship options up front even when searchable.
func (b *SelectBuilder) Preload(preload bool) *SelectBuilder {
	b.cfg.preload = evaluate.Of(preload)
	return b
}

// PreloadWhen sets the preload slot.
func (b *SelectBuilder) PreloadWhen(preload evaluate.Value[bool]) *SelectBuilder {
	b.cfg.preload = preload
	return b
}

// AllowHTML lets option labels carry inline markup.
func (b *SelectBuilder) AllowHTML(allow bool) *SelectBuilder {
	b.cfg.allowHTML = evaluate.Of(allow)
	return b
}

// OptionsLimit bounds dynamic option queries.
func (b *SelectBuilder) OptionsLimit(limit int) *SelectBuilder {
	b.cfg.optionsLimit = evaluate.Of(limit)
	return b
}

// OptionsLimitUsing sets the options limit slot.
func (b *SelectBuilder) OptionsLimitUsing(limit evaluate.Value[int]) *SelectBuilder {
	b.cfg.optionsLimit = limit
	return b
}

// SearchResultsUsing sets the search callback. It receives ParamSearch.
func (b *SelectBuilder) SearchResultsUsing(results evaluate.Value[*options.Set]) *SelectBuilder {
	b.cfg.searchResults = results
	return b
}

// OptionLabelUsing sets the single label lookup. It receives ParamValue.
func (b *SelectBuilder) OptionLabelUsing(label evaluate.Value[options.Label]) *SelectBuilder {
	b.cfg.optionLabel = label
	return b
}

// OptionLabelsUsing sets the bulk label lookup. It receives ParamValues.
func (b *SelectBuilder) OptionLabelsUsing(labels evaluate.Value[*options.Set]) *SelectBuilder {
	b.cfg.optionLabels = labels
	return b
}

// OptionLabelFromRecordUsing labels relationship options from the related
// record, passed as ParamRecord.
func (b *SelectBuilder) OptionLabelFromRecordUsing(label evaluate.Value[string]) *SelectBuilder {
	b.cfg.optionLabelFromRecord = label
	return b
}

// OptionLabelTemplate labels relationship options with a pongo2 template.
// The related record attributes are available as "record".
func (b *SelectBuilder) OptionLabelTemplate(src string) *SelectBuilder {
	tpl, err := pongo2.FromString(src)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("forms: select %s: option label template: %w", b.cfg.field.path, err))
		return b
	}
	b.cfg.optionLabelFromRecord = evaluate.Computed(func(in evaluate.Inputs) (string, error) {
		rec, _ := evaluate.As[*store.Record](in, evaluate.ParamRecord)
		return tpl.Execute(pongo2.Context{"record": rec.Attributes()})
	}, evaluate.ParamRecord)
	return b
}

// DisableOptionWhen flags options as disabled. It receives ParamValue and
// ParamLabel.
func (b *SelectBuilder) DisableOptionWhen(disabled evaluate.Value[bool]) *SelectBuilder {
	b.cfg.optionDisabled = disabled
	return b
}

// Placeholder sets the empty option text.
func (b *SelectBuilder) Placeholder(text string) *SelectBuilder {
	b.cfg.placeholder = evaluate.Of(text)
	return b
}

// LoadingMessage sets the text shown while options load.
func (b *SelectBuilder) LoadingMessage(text string) *SelectBuilder {
	b.cfg.loadingMessage = evaluate.Of(text)
	return b
}

// NoSearchResultsMessage sets the text shown for an empty search.
func (b *SelectBuilder) NoSearchResultsMessage(text string) *SelectBuilder {
	b.cfg.noSearchResultsMessage = evaluate.Of(text)
	return b
}

// SearchingMessage sets the text shown while a search runs.
func (b *SelectBuilder) SearchingMessage(text string) *SelectBuilder {
	b.cfg.searchingMessage = evaluate.Of(text)
	return b
}

// SearchPrompt sets the text shown before the user types.
func (b *SelectBuilder) SearchPrompt(text string) *SelectBuilder {
	b.cfg.searchPrompt = evaluate.Of(text)
	return b
}

// CreateOptionForm declares the inputs of the createOption action.
func (b *SelectBuilder) CreateOptionForm(inputs ...action.Input) *SelectBuilder {
	b.cfg.createOptionForm = append([]action.Input(nil), inputs...)
	return b
}

// CreateOptionUsing sets the callback creating an option from ParamData. It
// returns the new option key.
func (b *SelectBuilder) CreateOptionUsing(create evaluate.Value[any]) *SelectBuilder {
	b.cfg.createOptionUsing = create
	return b
}

// CreateOptionAction post-processes the synthesized createOption action.
func (b *SelectBuilder) CreateOptionAction(modify func(a *action.Action) *action.Action) *SelectBuilder {
	b.cfg.modifyCreateOption = modify
	return b
}

// LoadStateFromRelationshipsUsing replaces the hydration step.
func (b *SelectBuilder) LoadStateFromRelationshipsUsing(fn HydrateFunc) *SelectBuilder {
	b.cfg.hydrate = fn
	return b
}

// SaveRelationshipsUsing replaces the persistence step.
func (b *SelectBuilder) SaveRelationshipsUsing(fn SaveFunc) *SelectBuilder {
	b.cfg.save = fn
	return b
}

// Build freezes the configuration.
func (b *SelectBuilder) Build() (*Select, error) {
	if b.cfg.field.path == "" {
		b.errs = append(b.errs, errors.New("forms: select requires a state path"))
	}
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	cfg := b.cfg.clone()
	s := &Select{cfg: &cfg}
	s.base = base{field: &cfg.field, self: s}
	return s, nil
}

// MustBuild is Build for static definitions; it panics on error.
func (b *SelectBuilder) MustBuild() *Select {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (b *SelectBuilder) bind(f *Form) (Component, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return s.bind(f)
}

func (b *SelectBuilder) view(ctx context.Context) (any, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return s.view(ctx)
}

// Select is a frozen select field. Bound to a form it reads state, record
// and executor from it; unbound it only answers static questions.
type Select struct {
	base
	cfg *selectConfig

	relOwner *store.Record
	rel      relation.Relationship
}

func (s *Select) bind(f *Form) (Component, error) {
	bound := &Select{cfg: s.cfg}
	bound.base = base{field: &s.cfg.field, form: f, self: bound}
	if err := f.register(bound); err != nil {
		return nil, err
	}
	return bound, nil
}

// Form returns the form the field is bound to.
func (s *Select) Form() *Form { return s.form }

// GetLabel returns the configured label. Without one, a relationship field
// derives it from the relationship name and others from the state path.
func (s *Select) GetLabel(ctx context.Context) (string, error) {
	if s.HasRelationship() {
		return s.label(ctx, relationshipLabel(s.cfg.relationship))
	}
	return s.base.GetLabel(ctx)
}

// IsMultiple evaluates the multiple slot.
func (s *Select) IsMultiple(ctx context.Context) (bool, error) {
	return s.cfg.multiple.Evaluate(ctx, s.args())
}

// IsSearchable reports whether search is enabled. Multiple selects always
// search.
func (s *Select) IsSearchable(ctx context.Context) (bool, error) {
	searchable, err := s.cfg.searchable.Evaluate(ctx, s.args())
	if err != nil || searchable {
		return searchable, err
	}
	return s.IsMultiple(ctx)
}

// IsPreloaded evaluates the preload slot.
func (s *Select) IsPreloaded(ctx context.Context) (bool, error) {
	return s.cfg.preload.Evaluate(ctx, s.args())
}

// IsHTMLAllowed evaluates the allow HTML slot.
func (s *Select) IsHTMLAllowed(ctx context.Context) (bool, error) {
	return s.cfg.allowHTML.Evaluate(ctx, s.args())
}

// GetSearchColumns returns the explicit search columns, defaulting to the
// relationship title column.
func (s *Select) GetSearchColumns() []string {
	if len(s.cfg.searchColumns) > 0 {
		return append([]string(nil), s.cfg.searchColumns...)
	}
	if s.HasRelationship() && s.cfg.relationshipTitle != "" {
		return []string{s.cfg.relationshipTitle}
	}
	return nil
}

// GetPlaceholder evaluates the placeholder slot.
func (s *Select) GetPlaceholder(ctx context.Context) (string, error) {
	return s.cfg.placeholder.Evaluate(ctx, s.args())
}

// Messages are the texts a select widget shows while interacting.
type Messages struct {
	Loading         string `json:"loading"`
	NoSearchResults string `json:"noSearchResults"`
	Searching       string `json:"searching"`
	SearchPrompt    string `json:"searchPrompt"`
}

// GetMessages evaluates the message slots.
func (s *Select) GetMessages(ctx context.Context) (Messages, error) {
	var (
		m   Messages
		err error
	)
	args := s.args()
	if m.Loading, err = s.cfg.loadingMessage.Evaluate(ctx, args); err != nil {
		return m, err
	}
	if m.NoSearchResults, err = s.cfg.noSearchResultsMessage.Evaluate(ctx, args); err != nil {
		return m, err
	}
	if m.Searching, err = s.cfg.searchingMessage.Evaluate(ctx, args); err != nil {
		return m, err
	}
	m.SearchPrompt, err = s.cfg.searchPrompt.Evaluate(ctx, args)
	return m, err
}

// HydrateState loads the state from the relationship when empty, then
// coerces the state of a multiple select to a slice.
func (s *Select) HydrateState(ctx context.Context) error {
	if s.cfg.hydrate != nil {
		if err := s.cfg.hydrate(ctx, s, s.State()); err != nil {
			return err
		}
	}
	multiple, err := s.IsMultiple(ctx)
	if err != nil || !multiple {
		return err
	}
	if !isSlice(s.State()) {
		s.SetState([]any{})
	}
	return nil
}

// SaveRelationships runs the persistence step inside a transaction.
func (s *Select) SaveRelationships(ctx context.Context) error {
	if s.cfg.save == nil {
		return nil
	}
	if s.form == nil || s.form.exec == nil {
		return fmt.Errorf("%w: %s", ErrUnbound, s.StatePath())
	}
	return store.InTx(ctx, s.form.exec, func(ctx context.Context, _ store.Executor) error {
		return s.cfg.save(ctx, s, s.State())
	})
}

// GetDefault returns the configured default, or an empty slice for a
// multiple select.
func (s *Select) GetDefault(ctx context.Context) (any, error) {
	if s.cfg.field.def.IsSet() {
		return s.base.GetDefault(ctx)
	}
	multiple, err := s.IsMultiple(ctx)
	if err != nil || !multiple {
		return nil, err
	}
	return []any{}, nil
}
