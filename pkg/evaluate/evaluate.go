package evaluate

import (
	"context"
)

// Param names a runtime input a computation may ask for.
type Param string

const (
	ParamComponent Param = "component"
	ParamState     Param = "state"
	ParamRecord    Param = "record"
	ParamSearch    Param = "search"
	ParamValue     Param = "value"
	ParamValues    Param = "values"
	ParamLabel     Param = "label"
	ParamData      Param = "data"
	ParamQuery     Param = "query"
	ParamAction    Param = "action"
	ParamFormState Param = "formState"
)

// Args is the context map a caller builds for a single evaluation. Build a
// fresh map per call; never reuse one captured from another field.
type Args map[Param]any

// With returns a copy of args with param set to value.
func (a Args) With(param Param, value any) Args {
	out := make(Args, len(a)+1)
	for key, v := range a {
		out[key] = v
	}
	out[param] = value
	return out
}

// Func is the signature of a deferred computation.
type Func[T any] func(in Inputs) (T, error)

// Value holds either a literal or a computation declared with the named
// parameters it wants injected. The zero Value evaluates to the zero T.
type Value[T any] struct {
	literal T
	fn      Func[T]
	params  []Param
	set     bool
}

// Of wraps a literal.
func Of[T any](v T) Value[T] {
	return Value[T]{literal: v, set: true}
}

// Computed wraps a computation. Only the listed params are visible to fn.
func Computed[T any](fn Func[T], params ...Param) Value[T] {
	if fn == nil {
		return Value[T]{}
	}
	return Value[T]{fn: fn, params: append([]Param(nil), params...), set: true}
}

// IsSet reports whether the slot was configured.
func (v Value[T]) IsSet() bool { return v.set }

// IsComputed reports whether the slot holds a computation.
func (v Value[T]) IsComputed() bool { return v.fn != nil }

// Params returns the declared parameter names of a computation.
func (v Value[T]) Params() []Param {
	return append([]Param(nil), v.params...)
}

// Evaluate resolves the slot. Literals ignore args; computations receive only
// their declared params, with absent ones left nil.
func (v Value[T]) Evaluate(ctx context.Context, args Args) (T, error) {
	if v.fn == nil {
		return v.literal, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	in := Inputs{ctx: ctx, values: make(map[Param]any, len(v.params))}
	for _, param := range v.params {
		if value, ok := args[param]; ok {
			in.values[param] = value
		}
	}
	return v.fn(in)
}

// Or returns v when it is set, otherwise fallback.
func (v Value[T]) Or(fallback Value[T]) Value[T] {
	if v.set {
		return v
	}
	return fallback
}
