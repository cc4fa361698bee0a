package widgets

import (
	"testing"

	"github.com/SalvaTerol/filament/pkg/forms"
	"github.com/SalvaTerol/filament/pkg/options"
)

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	view := forms.SelectView{Multiple: true, Widget: "tag-picker"}

	if got, ok := reg.Resolve(view); !ok || got != "tag-picker" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		view   forms.SelectView
		expect string
	}{
		{
			name:   "multiple chips",
			view:   forms.SelectView{Multiple: true, Searchable: true},
			expect: WidgetChips,
		},
		{
			name:   "searchable",
			view:   forms.SelectView{Searchable: true},
			expect: WidgetSearchableSelect,
		},
		{
			name:   "dynamic options",
			view:   forms.SelectView{DynamicOptions: true},
			expect: WidgetSearchableSelect,
		},
		{
			name: "boolean toggle",
			view: forms.SelectView{Options: []options.JSOption{
				{Value: "1", Label: "Yes"},
				{Value: "0", Label: "No"},
			}},
			expect: WidgetToggle,
		},
		{
			name:   "plain",
			view:   forms.SelectView{Options: []options.JSOption{{Value: "a", Label: "A"}}},
			expect: WidgetNativeSelect,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.Resolve(tc.view)
			if !ok || got != tc.expect {
				t.Fatalf("expected %q, got %q (ok=%v)", tc.expect, got, ok)
			}
		})
	}
}

func TestRegisterPriorityAndOrder(t *testing.T) {
	reg := &Registry{}
	reg.Register("first", 10, func(forms.SelectView) bool { return true })
	reg.Register("second", 10, func(forms.SelectView) bool { return true })
	reg.Register("urgent", 20, func(view forms.SelectView) bool { return view.Required })

	if got, _ := reg.Resolve(forms.SelectView{}); got != "first" {
		t.Fatalf("expected registration order to break ties, got %q", got)
	}
	if got, _ := reg.Resolve(forms.SelectView{Required: true}); got != "urgent" {
		t.Fatalf("expected higher priority to win, got %q", got)
	}
}

func TestEmptyRegistryResolvesNothing(t *testing.T) {
	if _, ok := (&Registry{}).Resolve(forms.SelectView{}); ok {
		t.Fatalf("expected no widget from empty registry")
	}
}

func TestDecorateDescendsIntoSections(t *testing.T) {
	reg := NewRegistry()
	views := []any{
		forms.SelectView{StatePath: "tags", Multiple: true},
		forms.SectionView{Schema: []any{forms.SelectView{StatePath: "author_id", Searchable: true}}},
		forms.TextInputView{StatePath: "title"},
	}

	out := reg.Decorate(views)
	if got := out[0].(forms.SelectView).Widget; got != WidgetChips {
		t.Fatalf("expected chips, got %q", got)
	}
	nested := out[1].(forms.SectionView).Schema[0].(forms.SelectView)
	if nested.Widget != WidgetSearchableSelect {
		t.Fatalf("expected searchable select in section, got %q", nested.Widget)
	}
	if views[0].(forms.SelectView).Widget != "" {
		t.Fatalf("input views were mutated")
	}
}
