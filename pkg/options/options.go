package options

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// Key coerces an option key to its transport string. Integers and floats are
// rendered without trailing zeros, booleans as 1/0, byte slices verbatim.
func Key(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	case json.Number:
		return t.String()
	case uuid.UUID:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// Keys coerces every element of values.
func Keys(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Key(v)
	}
	return out
}

// Label is a lookup result. OK is false when no label could be produced.
type Label struct {
	Text string
	OK   bool
}

// LabelOf wraps a found label.
func LabelOf(text string) Label { return Label{Text: text, OK: true} }

// NoLabel is the absent label.
func NoLabel() Label { return Label{} }

// String returns the label text.
func (l Label) String() string { return l.Text }

// Pair is a single key/label entry.
type Pair struct {
	Key   string
	Label string
}

// Set is an ordered key to label mapping. Keys are unique; re-putting an
// existing key replaces its label in place.
type Set struct {
	keys   []string
	labels map[string]string
}

// New returns an empty set.
func New() *Set {
	return &Set{labels: map[string]string{}}
}

// FromPairs builds a set preserving pair order.
func FromPairs(pairs ...Pair) *Set {
	s := New()
	for _, p := range pairs {
		s.Put(p.Key, p.Label)
	}
	return s
}

// FromMap builds a set from a map. Keys are sorted for determinism since maps
// carry no order.
func FromMap[K comparable](m map[K]string) *Set {
	s := New()
	keys := make([]string, 0, len(m))
	labels := make(map[string]string, len(m))
	for k, label := range m {
		key := Key(k)
		keys = append(keys, key)
		labels[key] = label
	}
	sort.Strings(keys)
	for _, key := range keys {
		s.Put(key, labels[key])
	}
	return s
}

// Put stores label under the coerced key and returns the set.
func (s *Set) Put(key any, label string) *Set {
	if s.labels == nil {
		s.labels = map[string]string{}
	}
	k := Key(key)
	if _, ok := s.labels[k]; !ok {
		s.keys = append(s.keys, k)
	}
	s.labels[k] = label
	return s
}

// Get looks up the label for key.
func (s *Set) Get(key any) (string, bool) {
	if s == nil {
		return "", false
	}
	label, ok := s.labels[Key(key)]
	return label, ok
}

// Has reports whether key is present.
func (s *Set) Has(key any) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the keys in order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Len returns the number of entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Each visits entries in order until fn returns false.
func (s *Set) Each(fn func(key, label string) bool) {
	if s == nil {
		return
	}
	for _, key := range s.keys {
		if !fn(key, s.labels[key]) {
			return
		}
	}
}

// Pairs returns the entries in order.
func (s *Set) Pairs() []Pair {
	out := make([]Pair, 0, s.Len())
	s.Each(func(key, label string) bool {
		out = append(out, Pair{Key: key, Label: label})
		return true
	})
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return FromPairs(s.Pairs()...)
}

// Map returns the entries as an unordered map.
func (s *Set) Map() map[string]string {
	out := make(map[string]string, s.Len())
	s.Each(func(key, label string) bool {
		out[key] = label
		return true
	})
	return out
}

// MarshalJSON encodes the set as an ordered list of JS records.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ForJS())
}

// JSOption is the record shape consumed by client-side select widgets.
type JSOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// ForJS converts the set into transport records, preserving order.
func (s *Set) ForJS() []JSOption {
	out := make([]JSOption, 0, s.Len())
	s.Each(func(key, label string) bool {
		out = append(out, JSOption{Value: key, Label: label})
		return true
	})
	return out
}
