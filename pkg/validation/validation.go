package validation

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/store"
)

// Issue is a failed rule for one field.
type Issue struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result aggregates issues across a form.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// NewResult returns a passing result.
func NewResult() Result {
	return Result{Valid: true}
}

// Add records an issue and marks the result invalid.
func (r *Result) Add(issue Issue) {
	r.Valid = false
	r.Issues = append(r.Issues, issue)
}

// For returns the issues recorded for path.
func (r Result) For(path string) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Path == path {
			out = append(out, issue)
		}
	}
	return out
}

// Rule checks a single value. An empty message means the value passed.
type Rule interface {
	Name() string
	Validate(ctx context.Context, attribute string, value any) (string, error)
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(ctx context.Context, attribute string, value any) (string, error)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Validate(ctx context.Context, attribute string, value any) (string, error) {
	if r.Fn == nil {
		return "", nil
	}
	return r.Fn(ctx, attribute, value)
}

// Blank reports whether v counts as no input: nil, empty or whitespace
// strings and empty slices or maps.
func Blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Required fails blank values.
type Required struct{}

func (Required) Name() string { return "required" }

func (Required) Validate(_ context.Context, attribute string, value any) (string, error) {
	if Blank(value) {
		return fmt.Sprintf("The %s field is required.", attribute), nil
	}
	return "", nil
}

// In fails values whose coerced key is not listed. Slices are checked per
// element. Blank values pass.
type In struct {
	Values []string
}

func (In) Name() string { return "in" }

func (r In) Validate(_ context.Context, attribute string, value any) (string, error) {
	if Blank(value) {
		return "", nil
	}
	allowed := make(map[string]bool, len(r.Values))
	for _, v := range r.Values {
		allowed[v] = true
	}
	for _, v := range flatten(value) {
		if !allowed[options.Key(v)] {
			return fmt.Sprintf("The selected %s is invalid.", attribute), nil
		}
	}
	return "", nil
}

// Exists fails values with no matching row in Table.Column. Blank values pass.
type Exists struct {
	Exec   store.Executor
	Table  string
	Column string
}

func (Exists) Name() string { return "exists" }

func (r Exists) Validate(ctx context.Context, attribute string, value any) (string, error) {
	if Blank(value) {
		return "", nil
	}
	if r.Exec == nil {
		return "", fmt.Errorf("validation: exists rule on %s has no executor", r.Table)
	}
	exec := store.Use(ctx, r.Exec)
	values := flatten(value)
	q := query.New(exec.Dialect(), r.Table).Select(r.Column).WhereIn(r.Column, values)
	found, err := store.Pluck(ctx, exec, q, r.Column)
	if err != nil {
		return "", err
	}
	seen := make(map[string]bool, len(found))
	for _, v := range found {
		seen[options.Key(v)] = true
	}
	for _, v := range values {
		if !seen[options.Key(v)] {
			return fmt.Sprintf("The selected %s is invalid.", attribute), nil
		}
	}
	return "", nil
}

func flatten(value any) []any {
	switch t := value.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{value}
}
