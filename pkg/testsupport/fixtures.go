package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/SalvaTerol/filament/pkg/store"
	"github.com/SalvaTerol/filament/pkg/store/sqldb"
)

// Schema is the blog fixture used across packages: authors own posts, posts
// carry an optional editor and many tags.
const Schema = `
CREATE TABLE authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author_id INTEGER REFERENCES authors(id),
	editor_id INTEGER REFERENCES authors(id)
);
CREATE TABLE tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);
CREATE TABLE post_tag (
	post_id INTEGER NOT NULL REFERENCES posts(id),
	tag_id INTEGER NOT NULL REFERENCES tags(id),
	PRIMARY KEY (post_id, tag_id)
);
CREATE TABLE labels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
`

// Fixture models.
var (
	Authors = store.NewModel("authors")
	Posts   = store.NewModel("posts")
	Tags    = store.NewModel("tags")
	Labels  = &store.Model{Table: "labels", PrimaryKey: "id", KeyType: store.KeyUUID}
)

// OpenSQLite creates a migrated sqlite database under t.TempDir.
func OpenSQLite(t *testing.T, opts ...sqldb.Option) *sqldb.Executor {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	exec, err := sqldb.Open("sqlite", dsn, opts...)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = exec.Close() })

	if _, err := exec.DB().ExecContext(context.Background(), Schema); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return exec
}

// MustInsert inserts a row of m and returns the saved record.
func MustInsert(t *testing.T, exec store.Executor, m *store.Model, attrs map[string]any) *store.Record {
	t.Helper()

	rec, err := store.Insert(context.Background(), exec, m, attrs)
	if err != nil {
		t.Fatalf("insert %s: %v", m.Table, err)
	}
	return rec
}

// MustExec runs a raw statement.
func MustExec(t *testing.T, exec store.Executor, stmt string, args ...any) {
	t.Helper()

	if _, err := exec.Exec(context.Background(), stmt, args...); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

// Blog seeds authors Ada (1) and Grace (2), tags go (1), sql (2), web (3)
// and a post (1) by Ada tagged go and sql.
type Blog struct {
	Ada, Grace   *store.Record
	Go, SQL, Web *store.Record
	Post         *store.Record
}

// SeedBlog inserts the Blog fixture rows.
func SeedBlog(t *testing.T, exec store.Executor) Blog {
	t.Helper()

	var b Blog
	b.Ada = MustInsert(t, exec, Authors, map[string]any{"name": "Ada", "email": "ada@example.com"})
	b.Grace = MustInsert(t, exec, Authors, map[string]any{"name": "Grace", "email": "grace@example.com"})
	b.Go = MustInsert(t, exec, Tags, map[string]any{"name": "go"})
	b.SQL = MustInsert(t, exec, Tags, map[string]any{"name": "sql"})
	b.Web = MustInsert(t, exec, Tags, map[string]any{"name": "web"})
	b.Post = MustInsert(t, exec, Posts, map[string]any{"title": "Notes", "author_id": b.Ada.Key()})
	MustExec(t, exec, "INSERT INTO post_tag (post_id, tag_id) VALUES (?, ?), (?, ?)",
		b.Post.Key(), b.Go.Key(), b.Post.Key(), b.SQL.Key())
	return b
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, value any) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
