package forms

import (
	"context"

	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/options"
)

// SelectView is the finalized configuration of a select handed to
// renderers. Options are inlined only when they are not fetched later.
type SelectView struct {
	Type                 string             `json:"type"`
	StatePath            string             `json:"statePath"`
	Label                string             `json:"label"`
	HelperText           string             `json:"helperText,omitempty"`
	Placeholder          string             `json:"placeholder,omitempty"`
	Required             bool               `json:"required,omitempty"`
	Disabled             bool               `json:"disabled,omitempty"`
	Multiple             bool               `json:"multiple,omitempty"`
	Searchable           bool               `json:"searchable,omitempty"`
	Preload              bool               `json:"preload,omitempty"`
	AllowHTML            bool               `json:"allowHtml,omitempty"`
	DynamicOptions       bool               `json:"dynamicOptions,omitempty"`
	DynamicSearchResults bool               `json:"dynamicSearchResults,omitempty"`
	OptionsLimit         int                `json:"optionsLimit"`
	Options              []options.JSOption `json:"options,omitempty"`
	OptionLabels         []options.JSOption `json:"optionLabels"`
	State                any                `json:"state"`
	Messages             Messages           `json:"messages"`
	Actions              []action.View      `json:"actions,omitempty"`
	SuffixAction         string             `json:"suffixAction,omitempty"`
	Widget               string             `json:"widget,omitempty"`
}

// View resolves every slot of the select for a renderer.
func (s *Select) View(ctx context.Context) (SelectView, error) {
	v := SelectView{Type: "select", StatePath: s.StatePath(), State: s.State()}
	var err error
	if v.Label, err = s.GetLabel(ctx); err != nil {
		return v, err
	}
	if v.HelperText, err = s.HelperHTML(); err != nil {
		return v, err
	}
	if v.Placeholder, err = s.GetPlaceholder(ctx); err != nil {
		return v, err
	}
	if v.Required, err = s.IsRequired(ctx); err != nil {
		return v, err
	}
	if v.Disabled, err = s.IsDisabled(ctx); err != nil {
		return v, err
	}
	if v.Multiple, err = s.IsMultiple(ctx); err != nil {
		return v, err
	}
	if v.Searchable, err = s.IsSearchable(ctx); err != nil {
		return v, err
	}
	if v.Preload, err = s.IsPreloaded(ctx); err != nil {
		return v, err
	}
	if v.AllowHTML, err = s.IsHTMLAllowed(ctx); err != nil {
		return v, err
	}
	if v.DynamicOptions, err = s.HasDynamicOptions(ctx); err != nil {
		return v, err
	}
	if v.DynamicSearchResults, err = s.HasDynamicSearchResults(ctx); err != nil {
		return v, err
	}
	if v.OptionsLimit, err = s.GetOptionsLimit(ctx); err != nil {
		return v, err
	}
	if !v.DynamicOptions {
		if v.Options, err = s.GetOptionsForJS(ctx); err != nil {
			return v, err
		}
	}
	if v.OptionLabels, err = s.GetOptionLabelsForJS(ctx); err != nil {
		return v, err
	}
	if v.Messages, err = s.GetMessages(ctx); err != nil {
		return v, err
	}
	if v.Actions, err = s.actionViews(ctx); err != nil {
		return v, err
	}
	if suffix := s.GetSuffixAction(); suffix != nil {
		v.SuffixAction = suffix.Name()
	}
	return v, nil
}

func (s *Select) view(ctx context.Context) (any, error) {
	return s.View(ctx)
}

func viewAll(ctx context.Context, components []Component) ([]any, error) {
	views := make([]any, 0, len(components))
	for _, c := range components {
		v, err := c.view(ctx)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
