package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/forms"
	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/query"
)

// Form returns the form definition with the given id.
func (d Definition) Form(id string) (FormDef, bool) {
	form, ok := d.Forms[id]
	return form, ok
}

// Components builds the form schema. Top level fields come first, then
// every section in order.
func (f FormDef) Components() ([]forms.Component, error) {
	out := make([]forms.Component, 0, len(f.Fields)+len(f.Sections))
	for _, def := range f.Fields {
		c, err := def.Component()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	for _, sec := range f.Sections {
		section := forms.NewSection(sec.Heading).Description(sec.Description)
		if sec.Columns > 0 {
			section.Columns(sec.Columns)
		}
		if sec.Collapsible {
			section.Collapsible(sec.Collapsed)
		}
		children := make([]forms.Component, 0, len(sec.Fields))
		for _, def := range sec.Fields {
			c, err := def.Component()
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		out = append(out, section.Schema(children...))
	}
	return out, nil
}

// Component builds the field. Selects are frozen so rule and template
// errors surface here instead of at bind time.
func (def FieldDef) Component() (forms.Component, error) {
	switch def.Type {
	case "text", "email":
		t := forms.NewTextInput(def.Path).Placeholder(def.Placeholder)
		if def.Type == "email" {
			t.Email()
		}
		if _, err := applyCommon(t, def); err != nil {
			return nil, err
		}
		return t, nil
	}
	b, err := def.selectBuilder()
	if err != nil {
		return nil, err
	}
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return s, nil
}

type commonBuilder[B any] interface {
	Label(label string) B
	HelperText(markdown string) B
	Default(value any) B
	RequiredWhen(required evaluate.Value[bool]) B
	DisabledWhen(disabled evaluate.Value[bool]) B
	HiddenWhen(hidden evaluate.Value[bool]) B
}

func applyCommon[B commonBuilder[B]](b B, def FieldDef) (B, error) {
	if def.Label != "" {
		b.Label(def.Label)
	}
	if def.HelperText != "" {
		b.HelperText(def.HelperText)
	}
	if def.Default != nil {
		b.Default(def.Default)
	}
	flags := []struct {
		name  string
		flag  Flag
		apply func(evaluate.Value[bool]) B
	}{
		{"required", def.Required, b.RequiredWhen},
		{"disabled", def.Disabled, b.DisabledWhen},
		{"hidden", def.Hidden, b.HiddenWhen},
	}
	for _, entry := range flags {
		if !entry.flag.IsSet() {
			continue
		}
		v, err := entry.flag.Value()
		if err != nil {
			return b, fmt.Errorf("schema: field %s %s: %w", def.Path, entry.name, err)
		}
		entry.apply(v)
	}
	return b, nil
}

func (def FieldDef) selectBuilder() (*forms.SelectBuilder, error) {
	s := forms.NewSelect(def.Path)
	if _, err := applyCommon(s, def); err != nil {
		return nil, err
	}

	switch {
	case def.Boolean != nil:
		s.Boolean(def.Boolean.True, def.Boolean.False, def.Placeholder)
	case def.Options.Len() > 0:
		s.Options(def.Options.Set())
	}
	if def.Placeholder != "" && def.Boolean == nil {
		s.Placeholder(def.Placeholder)
	}
	if len(def.Search) > 0 {
		s.SearchColumns(def.Search...)
	}

	flags := []struct {
		name  string
		flag  Flag
		apply func(evaluate.Value[bool]) *forms.SelectBuilder
	}{
		{"searchable", def.Searchable, s.SearchableWhen},
		{"multiple", def.Multiple, s.MultipleWhen},
		{"preload", def.Preload, s.PreloadWhen},
	}
	for _, entry := range flags {
		if !entry.flag.IsSet() {
			continue
		}
		v, err := entry.flag.Value()
		if err != nil {
			return nil, fmt.Errorf("schema: field %s %s: %w", def.Path, entry.name, err)
		}
		entry.apply(v)
	}

	if def.AllowHTML {
		s.AllowHTML(true)
	}
	if def.OptionsLimit > 0 {
		s.OptionsLimit(def.OptionsLimit)
	}
	if rel := def.Relationship; rel != nil {
		if rel.Name == "" {
			return nil, fmt.Errorf("schema: field %s: relationship without name", def.Path)
		}
		s.Relationship(rel.Name, rel.Title, rel.modifier())
	}
	if def.OptionLabel != "" {
		s.OptionLabelTemplate(def.OptionLabel)
	}
	if len(def.DisabledKeys) > 0 {
		disabled := make(map[string]struct{}, len(def.DisabledKeys))
		for _, key := range def.DisabledKeys {
			disabled[options.Key(key)] = struct{}{}
		}
		s.DisableOptionWhen(evaluate.Computed(func(in evaluate.Inputs) (bool, error) {
			_, ok := disabled[in.String(evaluate.ParamValue)]
			return ok, nil
		}, evaluate.ParamValue))
	}
	if len(def.CreateOption) > 0 {
		s.CreateOptionForm(def.CreateOption...)
	}

	msgs := def.Messages
	if msgs.Loading != "" {
		s.LoadingMessage(msgs.Loading)
	}
	if msgs.NoSearchResults != "" {
		s.NoSearchResultsMessage(msgs.NoSearchResults)
	}
	if msgs.Searching != "" {
		s.SearchingMessage(msgs.Searching)
	}
	if msgs.SearchPrompt != "" {
		s.SearchPrompt(msgs.SearchPrompt)
	}
	return s, nil
}

// modifier restricts and orders the related query. OrderBy reads
// "column" or "column desc".
func (r RelationshipDef) modifier() forms.QueryModifier {
	if r.OrderBy == "" && r.Limit <= 0 && len(r.Where) == 0 {
		return nil
	}
	columns := make([]string, 0, len(r.Where))
	for column := range r.Where {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return func(q *query.Builder, _ evaluate.Inputs) *query.Builder {
		for _, column := range columns {
			q.Where(column, "=", r.Where[column])
		}
		if r.OrderBy != "" {
			parts := strings.Fields(r.OrderBy)
			direction := "asc"
			if len(parts) > 1 {
				direction = parts[1]
			}
			q.OrderBy(parts[0], direction)
		}
		if r.Limit > 0 {
			q.Limit(r.Limit)
		}
		return q
	}
}
