package forms

import (
	"context"
	"fmt"

	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/options"
)

// GetCreateOptionAction synthesizes the createOption action. It returns nil
// when no create option form is declared.
func (s *Select) GetCreateOptionAction() *action.Action {
	if len(s.cfg.createOptionForm) == 0 {
		return nil
	}
	a := action.Make(createOptionActionName).
		Form(s.cfg.createOptionForm...).
		Icon("heroicon-m-plus").
		IconButton().
		ModalHeading("Create").
		ModalButton("Create").
		Hidden(evaluate.Computed(func(in evaluate.Inputs) (bool, error) {
			return s.IsDisabled(in.Context())
		})).
		Using(func(ctx context.Context, _ *action.Action, data map[string]any) error {
			return s.createOption(ctx, data)
		})
	if s.cfg.modifyCreateOption != nil {
		if modified := s.cfg.modifyCreateOption(a); modified != nil {
			a = modified
		}
	}
	return a
}

func (s *Select) createOption(ctx context.Context, data map[string]any) error {
	if !s.cfg.createOptionUsing.IsSet() {
		return missingCreateOptionUsing(s.StatePath())
	}
	if data == nil {
		data = map[string]any{}
	}
	key, err := s.cfg.createOptionUsing.Evaluate(ctx, s.args().With(evaluate.ParamData, data))
	if err != nil {
		return err
	}
	multiple, err := s.IsMultiple(ctx)
	if err != nil {
		return err
	}
	if multiple {
		state := append([]any(nil), toSlice(s.State())...)
		s.SetState(append(state, options.Key(key)))
	} else {
		s.SetState(key)
	}
	return s.CallAfterStateUpdated(ctx)
}

// GetActions returns the field actions: the prefix and suffix actions, with
// createOption in front unless an action of that name is already attached.
func (s *Select) GetActions() *action.Set {
	set := s.baseActions()
	if create := s.GetCreateOptionAction(); create != nil {
		set.Prepend(create)
	}
	return set
}

// GetSuffixAction returns the suffix action. An attached suffix action wins
// over createOption.
func (s *Select) GetSuffixAction() *action.Action {
	if s.cfg.field.suffixAction != nil {
		return s.cfg.field.suffixAction
	}
	return s.GetCreateOptionAction()
}

// CallAction runs the named action with submitted data.
func (s *Select) CallAction(ctx context.Context, name string, data map[string]any) error {
	a, ok := s.GetActions().Get(name)
	if !ok {
		return fmt.Errorf("forms: select %s has no action %q", s.StatePath(), name)
	}
	hidden, err := a.IsHidden(ctx, s.args())
	if err != nil {
		return err
	}
	if hidden {
		return fmt.Errorf("forms: select %s: action %q is not available", s.StatePath(), name)
	}
	return a.Call(ctx, data)
}

func (s *Select) actionViews(ctx context.Context) ([]action.View, error) {
	actions := s.GetActions().Actions()
	views := make([]action.View, 0, len(actions))
	for _, a := range actions {
		view, err := a.View(ctx, s.args())
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
