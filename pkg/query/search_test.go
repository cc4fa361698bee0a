package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplySearchConstraint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect Dialect
		columns []string
		wantSQL string
		args    []any
	}{
		{
			name:    "postgres uses ilike",
			dialect: Postgres,
			columns: []string{"name", "email"},
			wantSQL: `SELECT * FROM "authors" WHERE "active" = $1 AND ("name" ILIKE $2 OR "email" ILIKE $3)`,
			args:    []any{true, "%ada%", "%ada%"},
		},
		{
			name:    "sqlite uses like",
			dialect: SQLite,
			columns: []string{"name"},
			wantSQL: `SELECT * FROM "authors" WHERE "active" = ? AND ("name" LIKE ?)`,
			args:    []any{true, "%ada%"},
		},
		{
			name:    "generic uses like",
			dialect: Generic,
			columns: []string{"name"},
			wantSQL: `SELECT * FROM "authors" WHERE "active" = ? AND ("name" LIKE ?)`,
			args:    []any{true, "%ada%"},
		},
		{
			name:    "empty columns render nothing",
			dialect: SQLite,
			columns: nil,
			wantSQL: `SELECT * FROM "authors" WHERE "active" = ?`,
			args:    []any{true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := New(tc.dialect, "authors").Where("active", "=", true)
			sql, args, err := ApplySearchConstraint(q, tc.columns, "ada").ToSQL()
			if err != nil {
				t.Fatalf("ToSQL: %v", err)
			}
			if sql != tc.wantSQL {
				t.Fatalf("sql mismatch\n got: %s\nwant: %s", sql, tc.wantSQL)
			}
			if diff := cmp.Diff(tc.args, args); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDialect(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Dialect{
		"pgx": Postgres, "pq": Postgres, "sqlite3": SQLite, "SQLite": SQLite, "mysql": MySQL, "oracle": Generic,
	} {
		if got := ParseDialect(name); got != want {
			t.Fatalf("ParseDialect(%q) = %q, want %q", name, got, want)
		}
	}
}
