package expr

import (
	"context"
	"testing"

	"github.com/SalvaTerol/filament/pkg/evaluate"
)

type fakeRecord map[string]any

func (r fakeRecord) Get(column string) any { return r[column] }

func TestCompileEvaluatesRules(t *testing.T) {
	t.Parallel()

	formState := map[string]any{
		"status":  "draft",
		"count":   3,
		"enabled": true,
		"meta":    map[string]any{"kind": "post"},
		"tags":    []any{},
	}
	record := fakeRecord{"locked": false, "owner_id": int64(7)}

	tests := []struct {
		rule string
		want bool
	}{
		{rule: "", want: true},
		{rule: "enabled", want: true},
		{rule: "!enabled", want: false},
		{rule: `status == "draft"`, want: true},
		{rule: `status != 'draft'`, want: false},
		{rule: "status == draft", want: true},
		{rule: "count == 3", want: true},
		{rule: "count != 3.0", want: false},
		{rule: "missing == null", want: true},
		{rule: "tags", want: false},
		{rule: `meta.kind == "post"`, want: true},
		{rule: "record.locked", want: false},
		{rule: "record.owner_id == 7", want: true},
		{rule: "state == 5", want: true},
		{rule: `enabled && (record.locked || status == "draft")`, want: true},
		{rule: "!enabled || record.locked", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.rule, func(t *testing.T) {
			v, err := Compile(tc.rule)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tc.rule, err)
			}
			got, err := v.Evaluate(context.Background(), evaluate.Args{
				evaluate.ParamFormState: formState,
				evaluate.ParamRecord:    record,
				evaluate.ParamState:     5,
			})
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tc.rule, err)
			}
			if got != tc.want {
				t.Fatalf("Evaluate(%q) = %v, want %v", tc.rule, got, tc.want)
			}
		})
	}
}

func TestCompileRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{
		"a = b",
		"a & b",
		"(a",
		`a == "open`,
		"== 3",
		"a ==",
		"a b",
	} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("expected error for %q", rule)
		}
	}
}

func TestCompileWithoutRecord(t *testing.T) {
	t.Parallel()

	v := MustCompile("record.locked")
	got, err := v.Evaluate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got {
		t.Fatalf("expected false without a record")
	}
}
