package forms

import (
	"context"
	"reflect"

	"github.com/SalvaTerol/filament/internal/sanitize"
	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/validation"
)

// GetOptions evaluates the options slot. It never returns nil.
func (s *Select) GetOptions(ctx context.Context) (*options.Set, error) {
	set, err := s.cfg.options.Evaluate(ctx, s.args())
	if err != nil {
		return nil, err
	}
	if set == nil {
		return options.New(), nil
	}
	return set, nil
}

// GetSearchResults evaluates the search callback for search. Without one
// the result is empty.
func (s *Select) GetSearchResults(ctx context.Context, search string) (*options.Set, error) {
	if !s.cfg.searchResults.IsSet() {
		return options.New(), nil
	}
	set, err := s.cfg.searchResults.Evaluate(ctx, s.args().With(evaluate.ParamSearch, search))
	if err != nil {
		return nil, err
	}
	if set == nil {
		return options.New(), nil
	}
	return set, nil
}

// OptionLabel returns the label of value. A custom lookup is used as is;
// otherwise the options are consulted and the raw value is the fallback.
func (s *Select) OptionLabel(ctx context.Context, value any) (options.Label, error) {
	if s.cfg.optionLabel.IsSet() {
		return s.cfg.optionLabel.Evaluate(ctx, s.args().With(evaluate.ParamValue, value))
	}
	if value == nil {
		return options.NoLabel(), nil
	}
	set, err := s.GetOptions(ctx)
	if err != nil {
		return options.NoLabel(), err
	}
	if label, ok := set.Get(value); ok {
		return options.LabelOf(label), nil
	}
	return options.LabelOf(options.Key(value)), nil
}

// GetOptionLabel returns the label of the current state.
func (s *Select) GetOptionLabel(ctx context.Context) (options.Label, error) {
	return s.OptionLabel(ctx, s.State())
}

// OptionLabels returns one entry per value, in order. Each value missing
// from the lookup falls back to itself.
func (s *Select) OptionLabels(ctx context.Context, values []any) (*options.Set, error) {
	var (
		found *options.Set
		err   error
	)
	if s.cfg.optionLabels.IsSet() {
		found, err = s.cfg.optionLabels.Evaluate(ctx, s.args().With(evaluate.ParamValues, values))
	} else {
		found, err = s.GetOptions(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := options.New()
	for _, value := range values {
		if label, ok := found.Get(value); ok {
			out.Put(value, label)
			continue
		}
		out.Put(value, options.Key(value))
	}
	return out, nil
}

// GetOptionLabels returns the labels of the current state.
func (s *Select) GetOptionLabels(ctx context.Context) (*options.Set, error) {
	return s.OptionLabels(ctx, toSlice(s.State()))
}

// GetOptionsLimit returns the effective limit of dynamic option queries. A
// limit the relationship query carries itself wins over the slot.
func (s *Select) GetOptionsLimit(ctx context.Context) (int, error) {
	if s.HasRelationship() && s.form != nil {
		q, err := s.relationshipQuery(ctx, "")
		if err != nil {
			return 0, err
		}
		if limit, ok := q.LimitValue(); ok {
			return limit, nil
		}
	}
	return s.cfg.optionsLimit.Evaluate(ctx, s.args())
}

// HasDynamicOptions reports whether options are fetched after render. A
// relationship field is dynamic when preloaded; others when the options
// slot is a computation.
func (s *Select) HasDynamicOptions(ctx context.Context) (bool, error) {
	if s.HasRelationship() {
		return s.IsPreloaded(ctx)
	}
	return s.cfg.options.IsComputed(), nil
}

// HasDynamicSearchResults reports whether search goes to the server.
func (s *Select) HasDynamicSearchResults(ctx context.Context) (bool, error) {
	if s.HasRelationship() && len(s.cfg.searchColumns) == 0 {
		preload, err := s.IsPreloaded(ctx)
		return !preload, err
	}
	return s.cfg.searchResults.IsComputed(), nil
}

// GetOptionsForJS returns the options as transport records.
func (s *Select) GetOptionsForJS(ctx context.Context) ([]options.JSOption, error) {
	set, err := s.GetOptions(ctx)
	if err != nil {
		return nil, err
	}
	return s.forJS(ctx, set)
}

// GetSearchResultsForJS returns the search results as transport records.
func (s *Select) GetSearchResultsForJS(ctx context.Context, search string) ([]options.JSOption, error) {
	set, err := s.GetSearchResults(ctx, search)
	if err != nil {
		return nil, err
	}
	return s.forJS(ctx, set)
}

// GetOptionLabelsForJS returns the labels of the current state as transport
// records: every selected value for a multiple select, the single value
// otherwise.
func (s *Select) GetOptionLabelsForJS(ctx context.Context) ([]options.JSOption, error) {
	multiple, err := s.IsMultiple(ctx)
	if err != nil {
		return nil, err
	}
	if multiple {
		set, err := s.GetOptionLabels(ctx)
		if err != nil {
			return nil, err
		}
		return s.forJS(ctx, set)
	}
	state := s.State()
	if validation.Blank(state) {
		return []options.JSOption{}, nil
	}
	label, err := s.GetOptionLabel(ctx)
	if err != nil {
		return nil, err
	}
	if !label.OK {
		return []options.JSOption{}, nil
	}
	return s.forJS(ctx, options.New().Put(state, label.Text))
}

func (s *Select) forJS(ctx context.Context, set *options.Set) ([]options.JSOption, error) {
	allowHTML, err := s.IsHTMLAllowed(ctx)
	if err != nil {
		return nil, err
	}
	records := set.ForJS()
	for i := range records {
		if allowHTML {
			records[i].Label = sanitize.Label(records[i].Label)
		}
		if s.cfg.optionDisabled.IsSet() {
			args := s.args().With(evaluate.ParamValue, records[i].Value).With(evaluate.ParamLabel, records[i].Label)
			disabled, err := s.cfg.optionDisabled.Evaluate(ctx, args)
			if err != nil {
				return nil, err
			}
			records[i].Disabled = disabled
		}
	}
	return records, nil
}

// Rules extends the configured rules: a single relationship select must
// name an existing related key, literal options restrict the accepted keys.
func (s *Select) Rules(ctx context.Context) ([]validation.Rule, error) {
	rules, err := s.base.Rules(ctx)
	if err != nil {
		return nil, err
	}
	if s.HasRelationship() {
		return s.relationshipRules(ctx, rules)
	}
	if !s.cfg.options.IsSet() || s.cfg.options.IsComputed() {
		return rules, nil
	}
	set, err := s.GetOptions(ctx)
	if err != nil {
		return nil, err
	}
	return append(rules, validation.In{Values: set.Keys()}), nil
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func toSlice(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	}
	if !isSlice(v) {
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
