package transport_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SalvaTerol/filament/pkg/transport"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := transport.MountPath("/admin"); got != "/admin/api/forms" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := transport.MountPath("admin"); got != "/admin/api/forms" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := transport.MountPath("/admin/", transport.WithRoutePath("posts/form")); got != "/admin/posts/form" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_MountsSubtree(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := transport.RegisterRoutes(mux, "/admin", transport.WithFactory(blogFactory(t)))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/forms" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	req := httptest.NewRequest(http.MethodGet, pattern+"/options?field=author_id", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := transport.RegisterRoutes(nil, "/admin"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}

func TestRegisterRoutes_CustomRoutePath(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := transport.RegisterRoutes(mux, "", transport.WithRoutePath("/forms"), transport.WithFactory(blogFactory(t)))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/forms" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}
	req := httptest.NewRequest(http.MethodGet, pattern+"/labels?field=author_id", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
