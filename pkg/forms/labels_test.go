package forms

import "testing"

func TestDerivedLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"relationship", relationshipLabel("author"), "Author"},
		{"camel relationship", relationshipLabel("primaryAuthor.posts"), "Primary author"},
		{"snake relationship", relationshipLabel("primary_author"), "Primary author"},
		{"path", pathLabel("author_id"), "Author id"},
		{"nested path", pathLabel("data.publishedAt"), "Published at"},
		{"kebab path", pathLabel("cover-image"), "Cover image"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestLcfirst(t *testing.T) {
	t.Parallel()

	if got := lcfirst("Author id"); got != "author id" {
		t.Fatalf("lcfirst = %q", got)
	}
	if got := lcfirst(""); got != "" {
		t.Fatalf("lcfirst of empty = %q", got)
	}
}
