package evaluate

import (
	"context"
	"fmt"
)

// Inputs is the filtered view of Args handed to a computation. Every accessor
// tolerates absent params by returning a neutral default.
type Inputs struct {
	ctx    context.Context
	values map[Param]any
}

// NewInputs builds Inputs directly. Mostly useful in tests of computations.
func NewInputs(ctx context.Context, values map[Param]any) Inputs {
	if ctx == nil {
		ctx = context.Background()
	}
	copied := make(map[Param]any, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return Inputs{ctx: ctx, values: copied}
}

// Context returns the request context the evaluation runs under.
func (in Inputs) Context() context.Context {
	if in.ctx == nil {
		return context.Background()
	}
	return in.ctx
}

// Has reports whether param was injected.
func (in Inputs) Has(param Param) bool {
	_, ok := in.values[param]
	return ok
}

// Get returns the injected value or nil.
func (in Inputs) Get(param Param) any {
	return in.values[param]
}

// String returns the param as a string; non-string scalars are formatted.
func (in Inputs) String(param Param) string {
	switch v := in.values[param].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Values returns the param as a slice. A scalar becomes a one element slice.
func (in Inputs) Values(param Param) []any {
	switch v := in.values[param].(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	default:
		return []any{v}
	}
}

// Map returns the param as a map, or an empty map.
func (in Inputs) Map(param Param) map[string]any {
	if v, ok := in.values[param].(map[string]any); ok && v != nil {
		return v
	}
	return map[string]any{}
}

// Bool returns the param as a bool.
func (in Inputs) Bool(param Param) bool {
	v, _ := in.values[param].(bool)
	return v
}

// As extracts a typed param. ok is false when absent or of another type.
func As[T any](in Inputs, param Param) (T, bool) {
	v, ok := in.values[param].(T)
	return v, ok
}
