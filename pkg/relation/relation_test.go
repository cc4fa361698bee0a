package relation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SalvaTerol/filament/pkg/relation"
	"github.com/SalvaTerol/filament/pkg/store"
	"github.com/SalvaTerol/filament/pkg/testsupport"
)

func blogRegistry() *relation.Registry {
	reg := relation.NewRegistry()
	reg.Register("posts", "author", relation.BelongsToFactory("author", testsupport.Authors, "author_id", "id"))
	reg.Register("posts", "editor", relation.BelongsToFactory("editor", testsupport.Authors, "", ""))
	reg.Register("posts", "tags", relation.BelongsToManyFactory("tags", testsupport.Tags, "post_tag", "post_id", "tag_id", "", ""))
	return reg
}

func TestNormalizeKind(t *testing.T) {
	t.Parallel()

	cases := map[string]relation.Kind{
		"belongsTo":     relation.KindBelongsTo,
		"HasOne":        relation.KindBelongsTo,
		"belongsToMany": relation.KindBelongsToMany,
		"hasMany":       relation.KindBelongsToMany,
		"many_to_many":  relation.KindBelongsToMany,
	}
	for raw, want := range cases {
		got, err := relation.NormalizeKind(raw)
		if err != nil || got != want {
			t.Fatalf("NormalizeKind(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := relation.NormalizeKind("morphTo"); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}

func TestResolveUnknownRelation(t *testing.T) {
	t.Parallel()

	owner := testsupport.Posts.New(nil)
	if _, err := blogRegistry().Resolve(owner, "comments"); !errors.Is(err, relation.ErrUnknownRelation) {
		t.Fatalf("expected ErrUnknownRelation, got %v", err)
	}
}

func TestBelongsToResultAndAssociate(t *testing.T) {
	exec := testsupport.OpenSQLite(t)
	ctx := context.Background()
	blog := testsupport.SeedBlog(t, exec)

	rel, err := blogRegistry().Resolve(blog.Post, "author")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	author := rel.(*relation.BelongsTo)
	got, err := author.Result(ctx, exec)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if got == nil || got.Get("name") != "Ada" {
		t.Fatalf("expected Ada, got %#v", got)
	}

	author.Associate(blog.Grace.Key())
	if err := store.Save(ctx, exec, blog.Post); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := store.Find(ctx, exec, testsupport.Posts, blog.Post.Key())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if reloaded.Get("author_id") != blog.Grace.Key() {
		t.Fatalf("expected author_id %v, got %v", blog.Grace.Key(), reloaded.Get("author_id"))
	}

	author.Dissociate()
	if err := store.Save(ctx, exec, blog.Post); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err = store.Find(ctx, exec, testsupport.Posts, blog.Post.Key())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if reloaded.Get("author_id") != nil {
		t.Fatalf("expected dissociated author, got %v", reloaded.Get("author_id"))
	}

	editor, _ := blogRegistry().Resolve(blog.Post, "editor")
	if editor.(*relation.BelongsTo).ForeignKey != "editor_id" {
		t.Fatalf("expected default foreign key editor_id")
	}
	missing, err := editor.(*relation.BelongsTo).Result(ctx, exec)
	if err != nil || missing != nil {
		t.Fatalf("expected nil editor, got %#v (%v)", missing, err)
	}
}

func TestBelongsToManySync(t *testing.T) {
	exec := testsupport.OpenSQLite(t)
	ctx := context.Background()
	blog := testsupport.SeedBlog(t, exec)

	rel, err := blogRegistry().Resolve(blog.Post, "tags")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	tags := rel.(*relation.BelongsToMany)

	before, err := tags.RelatedKeys(ctx, exec)
	if err != nil {
		t.Fatalf("RelatedKeys: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, before); diff != "" {
		t.Fatalf("initial keys mismatch (-want +got):\n%s", diff)
	}

	result, err := tags.Sync(ctx, exec, []any{"2", 3})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := relation.SyncResult{Attached: []string{"3"}, Detached: []string{"1"}, Kept: []string{"2"}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("sync result mismatch (-want +got):\n%s", diff)
	}

	after, err := tags.RelatedKeys(ctx, exec)
	if err != nil {
		t.Fatalf("RelatedKeys: %v", err)
	}
	if diff := cmp.Diff([]string{"2", "3"}, after); diff != "" {
		t.Fatalf("final keys mismatch (-want +got):\n%s", diff)
	}

	if _, err := tags.Sync(ctx, exec, nil); err != nil {
		t.Fatalf("Sync(nil): %v", err)
	}
	if keys, _ := tags.RelatedKeys(ctx, exec); len(keys) != 0 {
		t.Fatalf("expected all detached, got %v", keys)
	}
}

func TestCreateRelated(t *testing.T) {
	exec := testsupport.OpenSQLite(t)
	blog := testsupport.SeedBlog(t, exec)

	rel, _ := blogRegistry().Resolve(blog.Post, "tags")
	key, err := relation.CreateRelated(context.Background(), exec, rel, map[string]any{"name": "rust"})
	if err != nil {
		t.Fatalf("CreateRelated: %v", err)
	}
	if key != int64(4) {
		t.Fatalf("expected key 4, got %#v", key)
	}
}
