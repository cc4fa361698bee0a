package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_FileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filament.yaml")
	doc := "driver: postgres\ndsn: postgres://localhost/blog\ndefinitions: ./forms\nform: post.edit\nlogLevel: debug\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FILAMENT_RECORD", "7")
	t.Setenv("FILAMENT_BASE_PATH", "/admin")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		Driver:      DriverPostgres,
		DSN:         "postgres://localhost/blog",
		Definitions: "./forms",
		Form:        "post.edit",
		Record:      "7",
		Listen:      ":8080",
		BasePath:    "/admin",
		LogLevel:    "debug",
		Output:      "json",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if level, _ := got.Level(); level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestApplyEnv_OverridesEveryKey(t *testing.T) {
	env := map[string]string{
		"FILAMENT_DRIVER":    "pgxpool",
		"FILAMENT_DSN":       "postgres://db",
		"FILAMENT_OPENAPI":   "api.yaml",
		"FILAMENT_FORM":      "post.edit",
		"FILAMENT_LISTEN":    ":9000",
		"FILAMENT_LOG_LEVEL": "warn",
		"FILAMENT_OUTPUT":    "pretty",
	}
	got := Default().ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if got.Driver != DriverPgxPool || got.Listen != ":9000" || got.Output != "pretty" || got.OpenAPI != "api.yaml" {
		t.Fatalf("env not applied: %#v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_JoinsProblems(t *testing.T) {
	cfg := Config{Driver: "oracle", Output: "xml", LogLevel: "loud"}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{`unsupported driver "oracle"`, "dsn is required", "definitions or openapi", "form is required", `unsupported output "xml"`, "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("driver: [\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
