package forms_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/forms"
	"github.com/SalvaTerol/filament/pkg/options"
)

func statuses() *options.Set {
	return options.FromPairs(
		options.Pair{Key: "draft", Label: "Draft"},
		options.Pair{Key: "published", Label: "Published"},
	)
}

func TestOptionLabelFallsBackToValue(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := forms.NewSelect("status").Options(statuses()).MustBuild()

	tests := []struct {
		value any
		want  options.Label
	}{
		{"draft", options.LabelOf("Draft")},
		{"archived", options.LabelOf("archived")},
		{7, options.LabelOf("7")},
		{nil, options.NoLabel()},
	}
	for _, tc := range tests {
		got, err := s.OptionLabel(ctx, tc.value)
		if err != nil {
			t.Fatalf("OptionLabel(%v): %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("OptionLabel(%v) = %#v, want %#v", tc.value, got, tc.want)
		}
	}
}

func TestOptionLabelsFallBackPerEntry(t *testing.T) {
	t.Parallel()

	s := forms.NewSelect("status").Options(statuses()).MustBuild()
	got, err := s.OptionLabels(t.Context(), []any{"published", "unknown", "draft"})
	if err != nil {
		t.Fatalf("OptionLabels: %v", err)
	}
	want := []options.Pair{
		{Key: "published", Label: "Published"},
		{Key: "unknown", Label: "unknown"},
		{Key: "draft", Label: "Draft"},
	}
	if diff := cmp.Diff(want, got.Pairs()); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomOptionLabelsUsing(t *testing.T) {
	t.Parallel()

	s := forms.NewSelect("status").
		OptionLabelsUsing(evaluate.Computed(func(in evaluate.Inputs) (*options.Set, error) {
			set := options.New()
			for _, v := range in.Values(evaluate.ParamValues) {
				if v == "a" {
					set.Put(v, "Alpha")
				}
			}
			return set, nil
		}, evaluate.ParamValues)).
		MustBuild()

	got, err := s.OptionLabels(t.Context(), []any{"a", "b"})
	if err != nil {
		t.Fatalf("OptionLabels: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"a": "Alpha", "b": "b"}, got.Map()); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestMultipleIsAlwaysSearchable(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	multi := forms.NewSelect("tags").Searchable(false).Multiple(true).MustBuild()
	if ok, err := multi.IsSearchable(ctx); err != nil || !ok {
		t.Fatalf("expected multiple select to be searchable, got %v (%v)", ok, err)
	}
	single := forms.NewSelect("status").MustBuild()
	if ok, _ := single.IsSearchable(ctx); ok {
		t.Fatalf("expected plain select not to be searchable")
	}
	columns := forms.NewSelect("author_id").SearchColumns("name", "email").MustBuild()
	if ok, _ := columns.IsSearchable(ctx); !ok {
		t.Fatalf("expected search columns to enable search")
	}
}

func TestBooleanOptions(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := forms.NewSelect("published").Boolean("", "", "").MustBuild()
	got, err := s.GetOptionsForJS(ctx)
	if err != nil {
		t.Fatalf("GetOptionsForJS: %v", err)
	}
	want := []options.JSOption{{Value: "1", Label: "Yes"}, {Value: "0", Label: "No"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if placeholder, _ := s.GetPlaceholder(ctx); placeholder != "-" {
		t.Fatalf("expected dash placeholder, got %q", placeholder)
	}
	label, _ := s.OptionLabel(ctx, true)
	if label.Text != "Yes" {
		t.Fatalf("expected true to map to Yes, got %q", label.Text)
	}
}

func TestOptionsForJSSanitizeAndDisable(t *testing.T) {
	t.Parallel()

	s := forms.NewSelect("status").
		Options(options.FromPairs(
			options.Pair{Key: "a", Label: `<b>A</b><script>x()</script>`},
			options.Pair{Key: "b", Label: "B"},
		)).
		AllowHTML(true).
		DisableOptionWhen(evaluate.Computed(func(in evaluate.Inputs) (bool, error) {
			return in.String(evaluate.ParamValue) == "b", nil
		}, evaluate.ParamValue)).
		MustBuild()

	got, err := s.GetOptionsForJS(t.Context())
	if err != nil {
		t.Fatalf("GetOptionsForJS: %v", err)
	}
	want := []options.JSOption{
		{Value: "a", Label: "<b>A</b>"},
		{Value: "b", Label: "B", Disabled: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchResultsWithoutCallbackAreEmpty(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := forms.NewSelect("status").Options(statuses()).Searchable(true).MustBuild()
	got, err := s.GetSearchResults(ctx, "dra")
	if err != nil {
		t.Fatalf("GetSearchResults: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected no results, got %v", got.Keys())
	}
	if dynamic, _ := s.HasDynamicSearchResults(ctx); dynamic {
		t.Fatalf("expected static search")
	}

	custom := forms.NewSelect("status").
		SearchResultsUsing(evaluate.Computed(func(in evaluate.Inputs) (*options.Set, error) {
			return options.New().Put(in.String(evaluate.ParamSearch), "echo"), nil
		}, evaluate.ParamSearch)).
		MustBuild()
	got, err = custom.GetSearchResults(ctx, "q")
	if err != nil {
		t.Fatalf("GetSearchResults: %v", err)
	}
	if label, _ := got.Get("q"); label != "echo" {
		t.Fatalf("expected search term to reach callback, got %v", got.Map())
	}
	if dynamic, _ := custom.HasDynamicSearchResults(ctx); !dynamic {
		t.Fatalf("expected dynamic search")
	}
}

func TestDynamicOptionsFollowComputation(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	static := forms.NewSelect("status").Options(statuses()).MustBuild()
	if dynamic, _ := static.HasDynamicOptions(ctx); dynamic {
		t.Fatalf("literal options reported dynamic")
	}
	computed := forms.NewSelect("status").
		OptionsUsing(evaluate.Computed(func(evaluate.Inputs) (*options.Set, error) {
			return statuses(), nil
		})).
		MustBuild()
	if dynamic, _ := computed.HasDynamicOptions(ctx); !dynamic {
		t.Fatalf("computed options reported static")
	}
}

func TestComputationsCannotMutateFormState(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	form, err := forms.New([]forms.Component{
		forms.NewTextInput("title"),
		forms.NewSelect("status").
			OptionsUsing(evaluate.Computed(func(in evaluate.Inputs) (*options.Set, error) {
				state := in.Map(evaluate.ParamFormState)
				state["title"] = "Changed"
				delete(state, "status")
				return statuses(), nil
			}, evaluate.ParamFormState)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	form.Set("title", "Original")
	form.Set("status", "draft")

	if _, err := mustSelect(t, form, "status").GetOptions(ctx); err != nil {
		t.Fatalf("GetOptions: %v", err)
	}
	got := map[string]any{"title": form.Get("title"), "status": form.Get("status")}
	if diff := cmp.Diff(map[string]any{"title": "Original", "status": "draft"}, got); diff != "" {
		t.Fatalf("form state mutated (-want +got):\n%s", diff)
	}
}

func TestGetLabel(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	tests := []struct {
		name string
		s    *forms.Select
		want string
	}{
		{"relationship", forms.NewSelect("author_id").Relationship("primaryAuthor.posts", "name", nil).MustBuild(), "Primary author"},
		{"path", forms.NewSelect("author_id").MustBuild(), "Author id"},
		{"explicit", forms.NewSelect("author_id").Relationship("author", "name", nil).Label("Writer").MustBuild(), "Writer"},
	}
	for _, tc := range tests {
		got, err := tc.s.GetLabel(ctx)
		if err != nil {
			t.Fatalf("%s: GetLabel: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: GetLabel = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestBuildReportsTemplateErrors(t *testing.T) {
	t.Parallel()

	_, err := forms.NewSelect("author_id").OptionLabelTemplate("{{ record.name ").Build()
	if err == nil || !strings.Contains(err.Error(), "option label template") {
		t.Fatalf("expected template error, got %v", err)
	}
	if _, err := forms.NewSelect("").Build(); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestBuildFreezesConfiguration(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	b := forms.NewSelect("status").Options(statuses())
	frozen := b.MustBuild()
	b.Options(options.New().Put("other", "Other")).Multiple(true)

	got, err := frozen.GetOptions(ctx)
	if err != nil {
		t.Fatalf("GetOptions: %v", err)
	}
	if diff := cmp.Diff([]string{"draft", "published"}, got.Keys()); diff != "" {
		t.Fatalf("frozen options changed (-want +got):\n%s", diff)
	}
	if multiple, _ := frozen.IsMultiple(ctx); multiple {
		t.Fatalf("frozen select became multiple")
	}
}

func TestUnboundRelationshipAccess(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := forms.NewSelect("author_id").Relationship("author", "name", nil).MustBuild()
	if _, err := s.GetOptions(ctx); !errors.Is(err, forms.ErrUnbound) {
		t.Fatalf("expected ErrUnbound, got %v", err)
	}
	plain := forms.NewSelect("status").MustBuild()
	if _, err := plain.GetRelationship(); !errors.Is(err, forms.ErrNoRelationship) {
		t.Fatalf("expected ErrNoRelationship, got %v", err)
	}
}

func TestCreateOptionWithoutCallbackIsConfigurationError(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	form, err := forms.New([]forms.Component{
		forms.NewSelect("status").Options(statuses()).CreateOptionForm(action.Input{Name: "name"}),
	}, forms.WithState(map[string]any{"status": "draft"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, _ := form.Select("status")

	err = s.CallAction(ctx, "createOption", map[string]any{"name": "Archived"})
	var cfgErr *forms.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.StatePath != "status" || !strings.Contains(err.Error(), "[status]") {
		t.Fatalf("error does not name the field: %v", err)
	}
	if got := form.Get("status"); got != "draft" {
		t.Fatalf("state mutated to %v", got)
	}
}

func TestCreateOptionMergesKeyAndNotifies(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	var seen []any
	create := evaluate.Computed(func(in evaluate.Inputs) (any, error) {
		return in.Map(evaluate.ParamData)["key"], nil
	}, evaluate.ParamData)
	hook := func(in evaluate.Inputs) error {
		seen = append(seen, in.Get(evaluate.ParamState))
		return nil
	}

	form, err := forms.New([]forms.Component{
		forms.NewSelect("status").CreateOptionForm(action.Input{Name: "key"}).CreateOptionUsing(create).
			AfterStateUpdated(hook, evaluate.ParamState),
		forms.NewSelect("labels").Multiple(true).CreateOptionForm(action.Input{Name: "key"}).CreateOptionUsing(create),
	}, forms.WithState(map[string]any{"status": "draft", "labels": []any{"a"}}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	status, _ := form.Select("status")
	if err := status.CallAction(ctx, "createOption", map[string]any{"key": "archived"}); err != nil {
		t.Fatalf("CallAction: %v", err)
	}
	if got := form.Get("status"); got != "archived" {
		t.Fatalf("single state = %v, want archived", got)
	}
	if diff := cmp.Diff([]any{"archived"}, seen); diff != "" {
		t.Fatalf("hook calls mismatch (-want +got):\n%s", diff)
	}

	labels, _ := form.Select("labels")
	if err := labels.CallAction(ctx, "createOption", map[string]any{"key": 9}); err != nil {
		t.Fatalf("CallAction: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "9"}, form.Get("labels")); diff != "" {
		t.Fatalf("multiple state mismatch (-want +got):\n%s", diff)
	}
}

func TestActionsOrderAndSuffixPriority(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	clearAction := action.Make("clear")
	s := forms.NewSelect("status").
		SuffixAction(clearAction).
		CreateOptionForm(action.Input{Name: "name"}).
		CreateOptionAction(func(a *action.Action) *action.Action {
			return a.Icon("heroicon-o-sparkles")
		}).
		MustBuild()

	if diff := cmp.Diff([]string{"createOption", "clear"}, s.GetActions().Names()); diff != "" {
		t.Fatalf("action names mismatch (-want +got):\n%s", diff)
	}
	if s.GetSuffixAction() != clearAction {
		t.Fatalf("expected attached suffix action to win")
	}
	create, _ := s.GetActions().Get("createOption")
	view, err := create.View(ctx, nil)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Icon != "heroicon-o-sparkles" || !view.IconButton || view.ModalHeading != "Create" {
		t.Fatalf("unexpected create action view %#v", view)
	}

	bare := forms.NewSelect("status").CreateOptionForm(action.Input{Name: "name"}).MustBuild()
	if got := bare.GetSuffixAction(); got == nil || got.Name() != "createOption" {
		t.Fatalf("expected createOption in the suffix slot, got %v", got)
	}

	own := action.Make("createOption")
	shadowed := forms.NewSelect("status").SuffixAction(own).CreateOptionForm(action.Input{Name: "name"}).MustBuild()
	if got, _ := shadowed.GetActions().Get("createOption"); got != own {
		t.Fatalf("attached action was overwritten by the synthesized one")
	}
}

func TestCreateOptionHiddenWhenDisabled(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	form, err := forms.New([]forms.Component{
		forms.NewSelect("status").Disabled(true).CreateOptionForm(action.Input{Name: "name"}).
			CreateOptionUsing(evaluate.Of[any]("x")),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, _ := form.Select("status")
	view, err := s.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view.Actions) != 1 || !view.Actions[0].Hidden {
		t.Fatalf("expected hidden create action, got %#v", view.Actions)
	}
	if err := s.CallAction(ctx, "createOption", nil); err == nil {
		t.Fatalf("expected hidden action to refuse calls")
	}
}
