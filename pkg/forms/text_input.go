package forms

import (
	"context"
	"errors"
)

// TextInput is a single line text field.
type TextInput struct {
	fieldBuilder[*TextInput]
	base
	cfg         fieldConfig
	placeholder string
	inputType   string
}

// NewTextInput starts a text input bound to path.
func NewTextInput(path string) *TextInput {
	t := &TextInput{cfg: newFieldConfig(path), inputType: "text"}
	t.fieldBuilder = fieldBuilder[*TextInput]{field: &t.cfg, self: t}
	t.base = base{field: &t.cfg, self: t}
	return t
}

// Placeholder sets the empty input hint.
func (t *TextInput) Placeholder(text string) *TextInput {
	t.placeholder = text
	return t
}

// Email renders the input as an email input.
func (t *TextInput) Email() *TextInput {
	t.inputType = "email"
	return t
}

func (t *TextInput) bind(f *Form) (Component, error) {
	if t.cfg.path == "" {
		return nil, errors.New("forms: text input requires a state path")
	}
	bound := &TextInput{cfg: t.cfg.clone(), placeholder: t.placeholder, inputType: t.inputType}
	bound.fieldBuilder = fieldBuilder[*TextInput]{field: &bound.cfg, self: bound}
	bound.base = base{field: &bound.cfg, form: f, self: bound}
	if err := f.register(bound); err != nil {
		return nil, err
	}
	return bound, nil
}

// TextInputView is the renderer payload of a text input.
type TextInputView struct {
	Type        string `json:"type"`
	InputType   string `json:"inputType"`
	StatePath   string `json:"statePath"`
	Label       string `json:"label"`
	HelperText  string `json:"helperText,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
	State       any    `json:"state"`
}

func (t *TextInput) view(ctx context.Context) (any, error) {
	v := TextInputView{Type: "text-input", InputType: t.inputType, StatePath: t.StatePath(), Placeholder: t.placeholder, State: t.State()}
	var err error
	if v.Label, err = t.GetLabel(ctx); err != nil {
		return nil, err
	}
	if v.HelperText, err = t.HelperHTML(); err != nil {
		return nil, err
	}
	if v.Required, err = t.IsRequired(ctx); err != nil {
		return nil, err
	}
	if v.Disabled, err = t.IsDisabled(ctx); err != nil {
		return nil, err
	}
	return v, nil
}
