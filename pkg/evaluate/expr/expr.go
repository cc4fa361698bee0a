package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SalvaTerol/filament/pkg/evaluate"
)

// Compile parses a rule into a boolean slot.
//
// Supported syntax:
// - truthiness: `enabled`, `!enabled`
// - comparisons: `status == "draft"`, `count != 3`, `owner == null`
// - composition: `a && (b || !c)`
//
// Identifiers resolve against the form state (dot paths allowed), `state`
// resolves to the field's own state and `record.<column>` reads the owning
// record. An empty rule compiles to a literal true.
func Compile(rule string) (evaluate.Value[bool], error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return evaluate.Of(true), nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return evaluate.Value[bool]{}, err
	}
	node, err := parse(tokens)
	if err != nil {
		return evaluate.Value[bool]{}, err
	}
	return evaluate.Computed(func(in evaluate.Inputs) (bool, error) {
		return node.eval(scopeFrom(in))
	}, evaluate.ParamFormState, evaluate.ParamState, evaluate.ParamRecord), nil
}

// MustCompile panics when the rule does not parse. Useful for static rules.
func MustCompile(rule string) evaluate.Value[bool] {
	v, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return v
}

// Getter is satisfied by records exposing column values.
type Getter interface {
	Get(column string) any
}

type scope struct {
	values map[string]any
	state  any
	hasSt  bool
	record Getter
}

func scopeFrom(in evaluate.Inputs) scope {
	s := scope{values: in.Map(evaluate.ParamFormState)}
	if in.Has(evaluate.ParamState) {
		s.state = in.Get(evaluate.ParamState)
		s.hasSt = true
	}
	if rec, ok := evaluate.As[Getter](in, evaluate.ParamRecord); ok {
		s.record = rec
	}
	return s
}

func (s scope) lookup(key string) (any, bool) {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return nil, false
	case key == "state":
		return s.state, s.hasSt
	case strings.HasPrefix(key, "record."):
		if s.record == nil {
			return nil, false
		}
		v := s.record.Get(strings.TrimPrefix(key, "record."))
		return v, v != nil
	}
	return lookupPath(s.values, key)
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if len(values) == 0 {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	var current any = values
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

type node interface {
	eval(s scope) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(s)
}

type andNode struct{ left, right node }

func (n andNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(s)
}

type notNode struct{ inner node }

func (n notNode) eval(s scope) (bool, error) {
	ok, err := n.inner.eval(s)
	return !ok, err
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(s scope) (bool, error) {
	v, ok := s.lookup(n.ident)
	if !ok {
		return false, nil
	}
	return truthy(v), nil
}

type compareNode struct {
	ident  string
	negate bool
	lit    token
}

func (n compareNode) eval(s scope) (bool, error) {
	v, _ := s.lookup(n.ident)
	var equal bool
	switch n.lit.kind {
	case tokNull:
		equal = v == nil
	case tokBool:
		equal = truthy(v) == (n.lit.raw == "true")
	case tokNumber:
		want, err := strconv.ParseFloat(n.lit.raw, 64)
		if err != nil {
			return false, fmt.Errorf("expr: invalid number literal %q", n.lit.raw)
		}
		got, _ := toNumber(v)
		equal = got == want
	default:
		equal = toString(v) == n.lit.raw
	}
	if n.negate {
		return !equal, nil
	}
	return equal, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if n, ok := toNumber(v); ok {
		return n != 0
	}
	return true
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}
