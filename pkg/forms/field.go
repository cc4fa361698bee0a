package forms

import (
	"context"
	"strings"

	"github.com/SalvaTerol/filament/internal/sanitize"
	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/validation"
)

// Component is an entry of a form schema. Fields and layout containers
// implement it; it cannot be implemented outside this package.
type Component interface {
	bind(f *Form) (Component, error)
	view(ctx context.Context) (any, error)
}

// Field is a component holding state under a path.
type Field interface {
	Component
	StatePath() string
	State() any
	SetState(value any)
	GetLabel(ctx context.Context) (string, error)
	IsHidden(ctx context.Context) (bool, error)
	IsDisabled(ctx context.Context) (bool, error)
	IsDehydrated(ctx context.Context) (bool, error)
	GetDefault(ctx context.Context) (any, error)
	Rules(ctx context.Context) ([]validation.Rule, error)
	// HydrateState runs after the form filled the state from its record.
	HydrateState(ctx context.Context) error
	SaveRelationships(ctx context.Context) error
	CallAfterStateUpdated(ctx context.Context) error
}

type ruleSlot struct {
	rule evaluate.Value[validation.Rule]
	when evaluate.Value[bool]
}

// fieldConfig is the configuration shared by every field.
type fieldConfig struct {
	path         string
	label        evaluate.Value[string]
	helperText   string
	disabled     evaluate.Value[bool]
	hidden       evaluate.Value[bool]
	required     evaluate.Value[bool]
	dehydrated   evaluate.Value[bool]
	def          evaluate.Value[any]
	rules        []ruleSlot
	afterUpdated []evaluate.Value[struct{}]
	prefixAction *action.Action
	suffixAction *action.Action
}

func newFieldConfig(path string) fieldConfig {
	return fieldConfig{path: strings.TrimSpace(path), dehydrated: evaluate.Of(true)}
}

func (c fieldConfig) clone() fieldConfig {
	c.rules = append([]ruleSlot(nil), c.rules...)
	c.afterUpdated = append([]evaluate.Value[struct{}](nil), c.afterUpdated...)
	return c
}

// fieldBuilder carries the setters every field builder shares. B is the
// concrete builder returned for chaining.
type fieldBuilder[B any] struct {
	field *fieldConfig
	self  B
}

// Label sets a fixed label.
func (b fieldBuilder[B]) Label(label string) B {
	b.field.label = evaluate.Of(label)
	return b.self
}

// LabelUsing sets a label slot.
func (b fieldBuilder[B]) LabelUsing(label evaluate.Value[string]) B {
	b.field.label = label
	return b.self
}

// HelperText sets markdown rendered under the field.
func (b fieldBuilder[B]) HelperText(markdown string) B {
	b.field.helperText = markdown
	return b.self
}

// Disabled sets a fixed disabled flag.
func (b fieldBuilder[B]) Disabled(disabled bool) B {
	b.field.disabled = evaluate.Of(disabled)
	return b.self
}

// DisabledWhen sets the disabled slot.
func (b fieldBuilder[B]) DisabledWhen(disabled evaluate.Value[bool]) B {
	b.field.disabled = disabled
	return b.self
}

// Hidden sets a fixed hidden flag.
func (b fieldBuilder[B]) Hidden(hidden bool) B {
	b.field.hidden = evaluate.Of(hidden)
	return b.self
}

// HiddenWhen sets the hidden slot.
func (b fieldBuilder[B]) HiddenWhen(hidden evaluate.Value[bool]) B {
	b.field.hidden = hidden
	return b.self
}

// Required marks the field as required.
func (b fieldBuilder[B]) Required() B {
	b.field.required = evaluate.Of(true)
	return b.self
}

// RequiredWhen sets the required slot.
func (b fieldBuilder[B]) RequiredWhen(required evaluate.Value[bool]) B {
	b.field.required = required
	return b.self
}

// Dehydrated controls whether the state is saved onto the record.
func (b fieldBuilder[B]) Dehydrated(dehydrated bool) B {
	b.field.dehydrated = evaluate.Of(dehydrated)
	return b.self
}

// DehydratedWhen sets the dehydrated slot.
func (b fieldBuilder[B]) DehydratedWhen(dehydrated evaluate.Value[bool]) B {
	b.field.dehydrated = dehydrated
	return b.self
}

// Default sets the state used when the record has none.
func (b fieldBuilder[B]) Default(value any) B {
	b.field.def = evaluate.Of(value)
	return b.self
}

// DefaultUsing sets the default slot.
func (b fieldBuilder[B]) DefaultUsing(value evaluate.Value[any]) B {
	b.field.def = value
	return b.self
}

// Rule adds a validation rule.
func (b fieldBuilder[B]) Rule(rule validation.Rule) B {
	b.field.rules = append(b.field.rules, ruleSlot{rule: evaluate.Of(rule)})
	return b.self
}

// RuleWhen adds a rule slot applied only while when holds. An unset when
// always applies.
func (b fieldBuilder[B]) RuleWhen(rule evaluate.Value[validation.Rule], when evaluate.Value[bool]) B {
	b.field.rules = append(b.field.rules, ruleSlot{rule: rule, when: when})
	return b.self
}

// AfterStateUpdated registers a hook run after actions change the state.
func (b fieldBuilder[B]) AfterStateUpdated(fn func(in evaluate.Inputs) error, params ...evaluate.Param) B {
	if fn != nil {
		b.field.afterUpdated = append(b.field.afterUpdated, evaluate.Computed(func(in evaluate.Inputs) (struct{}, error) {
			return struct{}{}, fn(in)
		}, params...))
	}
	return b.self
}

// PrefixAction attaches an action before the input.
func (b fieldBuilder[B]) PrefixAction(a *action.Action) B {
	b.field.prefixAction = a
	return b.self
}

// SuffixAction attaches an action after the input.
func (b fieldBuilder[B]) SuffixAction(a *action.Action) B {
	b.field.suffixAction = a
	return b.self
}

// base is the runtime half of a bound field.
type base struct {
	field *fieldConfig
	form  *Form
	self  Field
}

// StatePath returns the key the field's state is stored under.
func (b *base) StatePath() string { return b.field.path }

// State returns the current state, or nil when unbound.
func (b *base) State() any {
	if b.form == nil {
		return nil
	}
	return b.form.Get(b.field.path)
}

// SetState replaces the state.
func (b *base) SetState(value any) {
	if b.form != nil {
		b.form.Set(b.field.path, value)
	}
}

// args builds a fresh evaluation context for one call.
func (b *base) args() evaluate.Args {
	args := evaluate.Args{
		evaluate.ParamComponent: b.self,
		evaluate.ParamState:     b.State(),
	}
	if b.form != nil {
		args[evaluate.ParamFormState] = b.form.State()
		if b.form.record != nil {
			args[evaluate.ParamRecord] = b.form.record
		}
	}
	return args
}

func (b *base) label(ctx context.Context, fallback string) (string, error) {
	if !b.field.label.IsSet() {
		return fallback, nil
	}
	return b.field.label.Evaluate(ctx, b.args())
}

// GetLabel returns the configured label or one derived from the path.
func (b *base) GetLabel(ctx context.Context) (string, error) {
	return b.label(ctx, pathLabel(b.field.path))
}

// IsHidden evaluates the hidden slot.
func (b *base) IsHidden(ctx context.Context) (bool, error) {
	return b.field.hidden.Evaluate(ctx, b.args())
}

// IsDisabled evaluates the disabled slot.
func (b *base) IsDisabled(ctx context.Context) (bool, error) {
	return b.field.disabled.Evaluate(ctx, b.args())
}

// IsRequired evaluates the required slot.
func (b *base) IsRequired(ctx context.Context) (bool, error) {
	return b.field.required.Evaluate(ctx, b.args())
}

// IsDehydrated evaluates the dehydrated slot.
func (b *base) IsDehydrated(ctx context.Context) (bool, error) {
	return b.field.dehydrated.Evaluate(ctx, b.args())
}

// GetDefault evaluates the default slot.
func (b *base) GetDefault(ctx context.Context) (any, error) {
	return b.field.def.Evaluate(ctx, b.args())
}

// HelperHTML renders the helper text.
func (b *base) HelperHTML() (string, error) {
	return sanitize.Markdown(b.field.helperText)
}

// Rules returns the rules that apply to the current state.
func (b *base) Rules(ctx context.Context) ([]validation.Rule, error) {
	var rules []validation.Rule
	required, err := b.IsRequired(ctx)
	if err != nil {
		return nil, err
	}
	if required {
		rules = append(rules, validation.Required{})
	}
	for _, slot := range b.field.rules {
		if slot.when.IsSet() {
			ok, err := slot.when.Evaluate(ctx, b.args())
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		rule, err := slot.rule.Evaluate(ctx, b.args())
		if err != nil {
			return nil, err
		}
		if rule != nil {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

// HydrateState is a no-op for plain fields.
func (b *base) HydrateState(context.Context) error { return nil }

// SaveRelationships is a no-op for plain fields.
func (b *base) SaveRelationships(context.Context) error { return nil }

// CallAfterStateUpdated runs the registered hooks in order.
func (b *base) CallAfterStateUpdated(ctx context.Context) error {
	for _, hook := range b.field.afterUpdated {
		if _, err := hook.Evaluate(ctx, b.args()); err != nil {
			return err
		}
	}
	return nil
}

// baseActions returns the prefix and suffix actions in order.
func (b *base) baseActions() *action.Set {
	return action.NewSet(b.field.prefixAction, b.field.suffixAction)
}
