package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SalvaTerol/filament/pkg/forms"
	"github.com/SalvaTerol/filament/pkg/options"
)

// Runner fills a bound form interactively, one visible field at a time.
type Runner struct {
	driver   Driver
	format   OutputFormat
	pageSize int
	logger   *slog.Logger
}

// New returns a Runner using the survey driver unless overridden.
func New(opts ...Option) *Runner {
	r := &Runner{format: OutputFormatJSON, pageSize: 10, logger: discardLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	return r
}

// Fill prompts every visible, enabled field. The form must already be
// filled from its record.
func (r *Runner) Fill(ctx context.Context, form *forms.Form) error {
	for _, field := range form.Fields() {
		skip, err := skipField(ctx, field)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		if s, ok := field.(*forms.Select); ok {
			err = r.askSelect(ctx, s)
		} else {
			err = r.askText(ctx, field)
		}
		if err != nil {
			return fmt.Errorf("prompt: %s: %w", field.StatePath(), err)
		}
	}
	return nil
}

func skipField(ctx context.Context, field forms.Field) (bool, error) {
	hidden, err := field.IsHidden(ctx)
	if err != nil || hidden {
		return hidden, err
	}
	return field.IsDisabled(ctx)
}

func (r *Runner) askText(ctx context.Context, field forms.Field) error {
	label, err := field.GetLabel(ctx)
	if err != nil {
		return err
	}
	q := Question{Message: label}
	if state := field.State(); state != nil {
		q.Default = options.Key(state)
	}
	answer, err := r.driver.Ask(ctx, q)
	if err != nil {
		return err
	}
	field.SetState(answer)
	return field.CallAfterStateUpdated(ctx)
}

func (r *Runner) askSelect(ctx context.Context, s *forms.Select) error {
	label, err := s.GetLabel(ctx)
	if err != nil {
		return err
	}
	choices, err := r.choices(ctx, s)
	if err != nil {
		return err
	}
	multiple, err := s.IsMultiple(ctx)
	if err != nil {
		return err
	}
	canCreate, err := r.canCreate(ctx, s)
	if err != nil {
		return err
	}
	if canCreate {
		choices = append(choices, Choice{Key: createKey, Label: createChoice})
	}
	if len(choices) == 0 {
		return ErrNoChoices
	}

	keys, err := r.driver.Pick(ctx, Pick{
		Message:  label,
		Choices:  choices,
		Selected: selectedKeys(s.State()),
		Multiple: multiple,
		PageSize: r.pageSize,
	})
	if err != nil {
		return err
	}

	picked := make([]any, 0, len(keys))
	create := false
	for _, key := range keys {
		if key == createKey {
			create = true
			continue
		}
		picked = append(picked, key)
	}
	switch {
	case multiple:
		s.SetState(picked)
	case len(picked) > 0:
		s.SetState(picked[0])
	}
	if create {
		return r.create(ctx, s)
	}
	if !multiple && len(picked) == 0 {
		return ErrNoChoices
	}
	return s.CallAfterStateUpdated(ctx)
}

// choices returns the enabled options of the select. A select searching
// on the server asks for a term first and repeats while nothing matches.
func (r *Runner) choices(ctx context.Context, s *forms.Select) ([]Choice, error) {
	dynamic, err := s.HasDynamicSearchResults(ctx)
	if err != nil {
		return nil, err
	}
	if !dynamic {
		all, err := s.GetOptionsForJS(ctx)
		if err != nil {
			return nil, err
		}
		return enabled(all), nil
	}

	msgs, err := s.GetMessages(ctx)
	if err != nil {
		return nil, err
	}
	for {
		term, err := r.driver.Ask(ctx, Question{Message: msgs.SearchPrompt})
		if err != nil {
			return nil, err
		}
		term = strings.TrimSpace(term)
		results, err := s.GetSearchResultsForJS(ctx, term)
		if err != nil {
			return nil, err
		}
		r.logger.DebugContext(ctx, "prompt search", "field", s.StatePath(), "term", term, "results", len(results))
		if found := enabled(results); len(found) > 0 {
			return found, nil
		}
		if err := r.driver.Notify(ctx, msgs.NoSearchResults); err != nil {
			return nil, err
		}
		if term == "" {
			return nil, nil
		}
	}
}

func (r *Runner) canCreate(ctx context.Context, s *forms.Select) (bool, error) {
	if s.GetCreateOptionAction() == nil {
		return false, nil
	}
	disabled, err := s.IsDisabled(ctx)
	return !disabled, err
}

// create collects the create option form and runs the action.
func (r *Runner) create(ctx context.Context, s *forms.Select) error {
	a := s.GetCreateOptionAction()
	data := map[string]any{}
	for _, input := range a.FormInputs() {
		message := input.Label
		if message == "" {
			message = input.Name
		}
		answer, err := r.driver.Ask(ctx, Question{Message: message, Required: input.Required})
		if err != nil {
			return err
		}
		data[input.Name] = answer
	}
	return s.CallAction(ctx, a.Name(), data)
}

// Submit validates the form, reports every issue and saves after
// confirmation. It reports whether the form was saved.
func (r *Runner) Submit(ctx context.Context, form *forms.Form) (bool, error) {
	result, err := form.Validate(ctx)
	if err != nil {
		return false, err
	}
	if !result.Valid {
		for _, issue := range result.Issues {
			if err := r.driver.Notify(ctx, issue.Message); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	ok, err := r.driver.Confirm(ctx, "Save changes?", true)
	if err != nil || !ok {
		return false, err
	}
	if err := form.Save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Output serializes the form state in the configured format.
func (r *Runner) Output(ctx context.Context, form *forms.Form) ([]byte, error) {
	if r.format == OutputFormatPrettyText {
		var b strings.Builder
		for _, field := range form.Fields() {
			label, err := field.GetLabel(ctx)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&b, "%s: %s\n", label, describe(ctx, field))
		}
		return []byte(b.String()), nil
	}
	return json.MarshalIndent(form.State(), "", "  ")
}

// describe renders selects by option label and anything else raw.
func describe(ctx context.Context, field forms.Field) string {
	if s, ok := field.(*forms.Select); ok {
		if labels, err := s.GetOptionLabelsForJS(ctx); err == nil && len(labels) > 0 {
			parts := make([]string, 0, len(labels))
			for _, label := range labels {
				parts = append(parts, label.Label)
			}
			return strings.Join(parts, ", ")
		}
	}
	if field.State() == nil {
		return "-"
	}
	return fmt.Sprint(field.State())
}

func enabled(records []options.JSOption) []Choice {
	out := make([]Choice, 0, len(records))
	for _, record := range records {
		if !record.Disabled {
			out = append(out, Choice{Key: record.Value, Label: record.Label})
		}
	}
	return out
}

func selectedKeys(state any) []string {
	switch v := state.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		return options.Keys(v)
	default:
		return []string{options.Key(v)}
	}
}
