package query

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToSQLRendersClausesInOrder(t *testing.T) {
	t.Parallel()

	q := New(SQLite, "authors").
		Select("authors.*").
		Join("post_tag", "post_tag.tag_id", "=", "tags.id").
		Where("active", "=", true).
		WhereIn("id", []any{1, 2}).
		OrderBy("name", "asc").
		Limit(10)

	sql, args, err := q.ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}
	want := `SELECT "authors".* FROM "authors" INNER JOIN "post_tag" ON "post_tag"."tag_id" = "tags"."id" WHERE "active" = ? AND "id" IN (?, ?) ORDER BY "name" ASC LIMIT 10`
	if sql != want {
		t.Fatalf("sql mismatch\n got: %s\nwant: %s", sql, want)
	}
	if diff := cmp.Diff([]any{true, 1, 2}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresPlaceholdersAreNumbered(t *testing.T) {
	t.Parallel()

	sql, args, err := New(Postgres, "tags").Where("a", "=", 1).OrWhere("b", "!=", 2).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}
	if sql != `SELECT * FROM "tags" WHERE "a" = $1 OR "b" <> $2` {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestMySQLQuotesWithBackticks(t *testing.T) {
	t.Parallel()

	sql, _, err := New(MySQL, "tags").Select("tags.name").ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}
	if sql != "SELECT `tags`.`name` FROM `tags`" {
		t.Fatalf("unexpected sql: %s", sql)
	}
}

func TestInvalidIdentifiersSurfaceOnRender(t *testing.T) {
	t.Parallel()

	cases := map[string]*Builder{
		"table":    New(SQLite, "authors; drop"),
		"where":    New(SQLite, "a").Where("name or 1=1", "=", 1),
		"operator": New(SQLite, "a").Where("name", "between", 1),
		"order":    New(SQLite, "a").OrderBy("name", "sideways"),
		"group":    New(SQLite, "a").WhereGroup(func(g *Group) { g.OrWhere("x y", "=", 1) }),
		"limit":    New(SQLite, "a").Limit(-1),
	}
	for name, q := range cases {
		if _, _, err := q.ToSQL(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	base := New(SQLite, "a").Where("x", "=", 1)
	clone := base.Clone().Where("y", "=", 2).Limit(5)
	if _, ok := base.LimitValue(); ok {
		t.Fatalf("clone leaked limit into base")
	}
	sql, _, _ := base.ToSQL()
	if strings.Contains(sql, `"y"`) {
		t.Fatalf("clone leaked condition into base: %s", sql)
	}
	if n, ok := clone.LimitValue(); !ok || n != 5 {
		t.Fatalf("clone limit = %d, %v", n, ok)
	}
}

func TestEmptyWhereInMatchesNothing(t *testing.T) {
	t.Parallel()

	sql, _, err := New(SQLite, "a").WhereIn("id", nil).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}
	if !strings.HasSuffix(sql, "WHERE 1 = 0") {
		t.Fatalf("unexpected sql: %s", sql)
	}
}

func TestToDeleteSQL(t *testing.T) {
	t.Parallel()

	sql, args, err := New(Postgres, "post_tag").Where("post_id", "=", 1).WhereIn("tag_id", []any{3}).ToDeleteSQL()
	if err != nil {
		t.Fatalf("ToDeleteSQL: %v", err)
	}
	if sql != `DELETE FROM "post_tag" WHERE "post_id" = $1 AND "tag_id" IN ($2)` {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if diff := cmp.Diff([]any{1, 3}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertAndUpdate(t *testing.T) {
	t.Parallel()

	sql, args, err := Insert(Postgres, "authors", AssignmentsFromMap(map[string]any{"name": "Ada", "email": "a@x"}), "id")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if sql != `INSERT INTO "authors" ("email", "name") VALUES ($1, $2) RETURNING "id"` {
		t.Fatalf("unexpected insert: %s", sql)
	}
	if diff := cmp.Diff([]any{"a@x", "Ada"}, args); diff != "" {
		t.Fatalf("insert args mismatch (-want +got):\n%s", diff)
	}

	if sql, _, _ := Insert(MySQL, "authors", nil, "id"); sql != "INSERT INTO `authors` DEFAULT VALUES" {
		t.Fatalf("unexpected mysql insert: %s", sql)
	}

	sql, args, err = Update(New(Postgres, "posts").Where("id", "=", 9), []Assignment{{Column: "author_id", Value: 2}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if sql != `UPDATE "posts" SET "author_id" = $1 WHERE "id" = $2` {
		t.Fatalf("unexpected update: %s", sql)
	}
	if diff := cmp.Diff([]any{2, 9}, args); diff != "" {
		t.Fatalf("update args mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := Update(New(SQLite, "posts"), []Assignment{{Column: "a", Value: 1}}); err == nil {
		t.Fatalf("expected unconditioned update to fail")
	}
}
