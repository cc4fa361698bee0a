package options

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestKeyCoercion(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("3f1c8f0e-1d2b-4c5a-9e7f-0a1b2c3d4e5f")
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"a", "a"},
		{[]byte("b"), "b"},
		{true, "1"},
		{false, "0"},
		{7, "7"},
		{int64(-3), "-3"},
		{uint8(9), "9"},
		{2.0, "2"},
		{2.5, "2.5"},
		{float32(1.25), "1.25"},
		{json.Number("12"), "12"},
		{id, id.String()},
	}
	for _, tc := range tests {
		if got := Key(tc.in); got != tc.want {
			t.Fatalf("Key(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSetPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := New().Put(3, "c").Put("1", "a").Put(2, "b").Put(1, "A")
	if diff := cmp.Diff([]string{"3", "1", "2"}, s.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if label, ok := s.Get(1); !ok || label != "A" {
		t.Fatalf("expected replaced label A, got %q (%v)", label, ok)
	}
	want := []JSOption{{Value: "3", Label: "c"}, {Value: "1", Label: "A"}, {Value: "2", Label: "b"}}
	if diff := cmp.Diff(want, s.ForJS()); diff != "" {
		t.Fatalf("ForJS mismatch (-want +got):\n%s", diff)
	}
}

func TestFromMapSortsKeys(t *testing.T) {
	t.Parallel()

	s := FromMap(map[string]string{"b": "B", "a": "A", "c": "C"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, s.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	s := FromPairs(Pair{Key: "1", Label: "Ada"})
	c := s.Clone().Put("2", "Grace")
	if s.Len() != 1 || c.Len() != 2 {
		t.Fatalf("clone shares storage: %d %d", s.Len(), c.Len())
	}
}

func TestNilSetIsEmpty(t *testing.T) {
	t.Parallel()

	var s *Set
	if s.Len() != 0 || s.Has("x") || len(s.ForJS()) != 0 {
		t.Fatalf("nil set should behave as empty")
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(FromPairs(Pair{"2", "Grace"}, Pair{"1", "Ada"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"value":"2","label":"Grace"},{"value":"1","label":"Ada"}]`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}
