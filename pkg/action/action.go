package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/validation"
)

// Input describes one entry of an action's modal form.
type Input struct {
	Name     string            `json:"name" yaml:"name"`
	Label    string            `json:"label,omitempty" yaml:"label"`
	Type     string            `json:"type,omitempty" yaml:"type"`
	Required bool              `json:"required,omitempty" yaml:"required"`
	Options  map[string]string `json:"options,omitempty" yaml:"options"`
}

// Handler runs the action with submitted data.
type Handler func(ctx context.Context, a *Action, data map[string]any) error

// Action is a named side-effecting operation attached to a component.
type Action struct {
	name         string
	label        string
	icon         string
	iconButton   bool
	modalHeading string
	modalButton  string
	form         []Input
	hidden       evaluate.Value[bool]
	handler      Handler
}

// Make returns an action named name.
func Make(name string) *Action {
	return &Action{name: strings.TrimSpace(name)}
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Label sets the trigger label.
func (a *Action) Label(label string) *Action {
	a.label = label
	return a
}

// Icon sets the trigger icon name.
func (a *Action) Icon(icon string) *Action {
	a.icon = icon
	return a
}

// IconButton renders the trigger as an icon-only button.
func (a *Action) IconButton() *Action {
	a.iconButton = true
	return a
}

// ModalHeading sets the modal title.
func (a *Action) ModalHeading(heading string) *Action {
	a.modalHeading = heading
	return a
}

// ModalButton sets the modal submit label.
func (a *Action) ModalButton(label string) *Action {
	a.modalButton = label
	return a
}

// Form sets the modal form inputs.
func (a *Action) Form(inputs ...Input) *Action {
	a.form = append([]Input(nil), inputs...)
	return a
}

// Hidden sets the visibility slot.
func (a *Action) Hidden(hidden evaluate.Value[bool]) *Action {
	a.hidden = hidden
	return a
}

// Using sets the handler run by Call.
func (a *Action) Using(handler Handler) *Action {
	a.handler = handler
	return a
}

// FormInputs returns the modal form inputs.
func (a *Action) FormInputs() []Input {
	return append([]Input(nil), a.form...)
}

// IsHidden evaluates the visibility slot against args.
func (a *Action) IsHidden(ctx context.Context, args evaluate.Args) (bool, error) {
	return a.hidden.Evaluate(ctx, args.With(evaluate.ParamAction, a))
}

// ValidateData checks data against the required inputs of the form.
func (a *Action) ValidateData(ctx context.Context, data map[string]any) (validation.Result, error) {
	result := validation.NewResult()
	for _, input := range a.form {
		if !input.Required {
			continue
		}
		label := input.Label
		if label == "" {
			label = input.Name
		}
		msg, err := validation.Required{}.Validate(ctx, label, data[input.Name])
		if err != nil {
			return result, err
		}
		if msg != "" {
			result.Add(validation.Issue{Path: input.Name, Rule: "required", Message: msg})
		}
	}
	return result, nil
}

// Call validates data and runs the handler.
func (a *Action) Call(ctx context.Context, data map[string]any) error {
	if a.handler == nil {
		return fmt.Errorf("action: %s has no handler", a.name)
	}
	result, err := a.ValidateData(ctx, data)
	if err != nil {
		return err
	}
	if !result.Valid {
		return &ValidationError{Action: a.name, Result: result}
	}
	return a.handler(ctx, a, data)
}

// ValidationError carries the issues of rejected action data.
type ValidationError struct {
	Action string
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("action: %s: %d invalid input(s)", e.Action, len(e.Result.Issues))
}

// View is the resolved renderer payload of an action.
type View struct {
	Name         string  `json:"name"`
	Label        string  `json:"label,omitempty"`
	Icon         string  `json:"icon,omitempty"`
	IconButton   bool    `json:"iconButton,omitempty"`
	ModalHeading string  `json:"modalHeading,omitempty"`
	ModalButton  string  `json:"modalButton,omitempty"`
	Form         []Input `json:"form,omitempty"`
	Hidden       bool    `json:"hidden"`
}

// View resolves the action for renderers.
func (a *Action) View(ctx context.Context, args evaluate.Args) (View, error) {
	hidden, err := a.IsHidden(ctx, args)
	if err != nil {
		return View{}, err
	}
	return View{
		Name:         a.name,
		Label:        a.label,
		Icon:         a.icon,
		IconButton:   a.iconButton,
		ModalHeading: a.modalHeading,
		ModalButton:  a.modalButton,
		Form:         a.FormInputs(),
		Hidden:       hidden,
	}, nil
}
