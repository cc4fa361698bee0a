package action

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SalvaTerol/filament/pkg/evaluate"
)

func TestSetKeepsFirstAndPrepends(t *testing.T) {
	t.Parallel()

	first := Make("clear").Icon("x")
	s := NewSet(first, Make("open"))
	if s.Put(Make("clear").Icon("y")) {
		t.Fatalf("duplicate name replaced existing action")
	}
	if got, _ := s.Get("clear"); got != first {
		t.Fatalf("expected first action to win")
	}
	if !s.Prepend(Make("createOption")) {
		t.Fatalf("prepend rejected new name")
	}
	if diff := cmp.Diff([]string{"createOption", "clear", "open"}, s.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestCallValidatesRequiredInputs(t *testing.T) {
	t.Parallel()

	var got map[string]any
	a := Make("createOption").
		Form(Input{Name: "name", Label: "Name", Required: true}, Input{Name: "email"}).
		Using(func(_ context.Context, _ *Action, data map[string]any) error {
			got = data
			return nil
		})

	err := a.Call(context.Background(), map[string]any{"email": "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Result.Issues[0].Message != "The Name field is required." {
		t.Fatalf("unexpected message %q", verr.Result.Issues[0].Message)
	}
	if got != nil {
		t.Fatalf("handler ran despite invalid data")
	}

	if err := a.Call(context.Background(), map[string]any{"name": "Ada"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got["name"] != "Ada" {
		t.Fatalf("handler did not receive data: %#v", got)
	}
}

func TestCallWithoutHandler(t *testing.T) {
	t.Parallel()

	if err := Make("noop").Call(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestViewResolvesHidden(t *testing.T) {
	t.Parallel()

	a := Make("createOption").Icon("plus").IconButton().Hidden(evaluate.Computed(func(in evaluate.Inputs) (bool, error) {
		return in.Bool(evaluate.ParamState), nil
	}, evaluate.ParamState))

	view, err := a.View(context.Background(), evaluate.Args{evaluate.ParamState: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	want := View{Name: "createOption", Icon: "plus", IconButton: true, Hidden: true}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}
