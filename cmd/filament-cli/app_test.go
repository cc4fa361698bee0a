package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SalvaTerol/filament/internal/config"
	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/testsupport"
)

const blogDefinitions = "../../pkg/schema/testdata/blog"

func testApp(t *testing.T) *app {
	t.Helper()

	cfg := config.Default()
	cfg.Definitions = blogDefinitions
	cfg.Form = "post.edit"

	def, err := loadDefinition(t.Context(), cfg)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	catalog, err := def.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	formDef, ok := def.Form(cfg.Form)
	if !ok {
		t.Fatalf("form %q missing", cfg.Form)
	}
	model, _ := catalog.Model(formDef.Model)

	exec := testsupport.OpenSQLite(t)
	testsupport.SeedBlog(t, exec)
	return &app{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		db:      &database{Executor: exec},
		catalog: catalog,
		form:    formDef,
		model:   model,
	}
}

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Result()
}

func TestApp_HandlerServesRelationshipOptions(t *testing.T) {
	t.Parallel()
	a := testApp(t)
	h, path, err := a.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if path != "/api/forms" {
		t.Fatalf("mount path = %q", path)
	}

	res := get(t, h, "/api/forms/options?field=author_id&record=1")
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("status %d: %s", res.StatusCode, body)
	}
	var payload struct {
		Data []options.JSOption `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []options.JSOption{
		{Value: "2", Label: "Grace <grace@example.com>"},
		{Value: "1", Label: "Ada <ada@example.com>"},
	}
	if diff := cmp.Diff(want, payload.Data); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_HandlerUnknownRecord(t *testing.T) {
	t.Parallel()
	a := testApp(t)
	h, _, err := a.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res := get(t, h, "/api/forms/options?field=author_id&record=99"); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestApp_NewFormHydratesRecord(t *testing.T) {
	t.Parallel()
	a := testApp(t)

	form, err := a.newForm(t.Context(), "1", nil)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if err := form.Fill(t.Context()); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if got := form.Get("title"); got != "Notes" {
		t.Fatalf("title = %v", got)
	}
	if diff := cmp.Diff([]string{"1", "2"}, form.Get("tags")); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if got := form.Get("status"); got != "draft" {
		t.Fatalf("status default = %v", got)
	}
}

func TestLoadDefinition_Errors(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Definitions = "testdata/missing"
	if _, err := loadDefinition(t.Context(), cfg); err == nil {
		t.Fatal("expected error for missing definitions")
	}

	cfg = config.Default()
	cfg.OpenAPI = "testdata/missing.yaml"
	if _, err := loadDefinition(t.Context(), cfg); err == nil || !strings.Contains(err.Error(), "read openapi") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestSQLDriver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver  string
		name    string
		dialect query.Dialect
	}{
		{config.DriverSQLite, "sqlite", query.SQLite},
		{config.DriverSQLite3, "sqlite3", query.SQLite},
		{config.DriverPostgres, "pgx", query.Postgres},
		{config.DriverPQ, "postgres", query.Postgres},
	}
	for _, tc := range tests {
		name, dialect, err := sqlDriver(tc.driver)
		if err != nil {
			t.Fatalf("%s: %v", tc.driver, err)
		}
		if name != tc.name || dialect != tc.dialect {
			t.Fatalf("%s: got %s/%s", tc.driver, name, dialect)
		}
	}
	if _, _, err := sqlDriver("oracle"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOverride(t *testing.T) {
	t.Parallel()

	value := "config"
	override(&value, "")
	if value != "config" {
		t.Fatalf("empty flag changed value to %q", value)
	}
	override(&value, "flag")
	if value != "flag" {
		t.Fatalf("value = %q", value)
	}
}
