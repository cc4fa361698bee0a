package validation_test

import (
	"context"
	"testing"

	"github.com/SalvaTerol/filament/pkg/validation"
	"github.com/SalvaTerol/filament/pkg/testsupport"
)

func TestRequiredAndIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name  string
		rule  validation.Rule
		value any
		fails bool
	}{
		{"required nil", validation.Required{}, nil, true},
		{"required blank", validation.Required{}, "  ", true},
		{"required empty slice", validation.Required{}, []string{}, true},
		{"required set", validation.Required{}, "1", false},
		{"in allowed", validation.In{Values: []string{"1", "0"}}, true, false},
		{"in rejected", validation.In{Values: []string{"a"}}, "b", true},
		{"in slice", validation.In{Values: []string{"1", "2"}}, []any{1, 2}, false},
		{"in blank", validation.In{Values: []string{"a"}}, nil, false},
	}
	for _, tc := range tests {
		msg, err := tc.rule.Validate(ctx, "status", tc.value)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if (msg != "") != tc.fails {
			t.Fatalf("%s: message %q, want fail=%v", tc.name, msg, tc.fails)
		}
	}
}

func TestExists(t *testing.T) {
	exec := testsupport.OpenSQLite(t)
	testsupport.SeedBlog(t, exec)
	rule := validation.Exists{Exec: exec, Table: "authors", Column: "id"}

	for value, fails := range map[any]bool{"1": false, 2: false, "99": true} {
		msg, err := rule.Validate(context.Background(), "author", value)
		if err != nil {
			t.Fatalf("Validate(%v): %v", value, err)
		}
		if (msg != "") != fails {
			t.Fatalf("Validate(%v) message %q, want fail=%v", value, msg, fails)
		}
	}
}

func TestResultFor(t *testing.T) {
	t.Parallel()

	r := validation.NewResult()
	r.Add(validation.Issue{Path: "author", Rule: "required", Message: "x"})
	if r.Valid || len(r.For("author")) != 1 || len(r.For("tags")) != 0 {
		t.Fatalf("unexpected result %#v", r)
	}
}
