package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, allowed []string, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(method, "/sessions", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	CORS(allowed)(handler).ServeHTTP(rec, req)
	return rec, called
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://example.com/"}, http.MethodGet, "https://example.com", false)
	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if rec.Header().Get("Access-Control-Expose-Headers") == "" {
		t.Fatalf("expected expose headers header")
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://example.com"}, http.MethodGet, "https://unknown.example", false)
	if !called {
		t.Fatalf("simple requests still reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	rec, _ := corsRequest(t, []string{"*"}, http.MethodGet, "https://random.example", false)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
}

func TestCORSWildcardSubdomain(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.companion.org", true},
		{"https://a.b.companion.org", true},
		{"https://companion.org", false},
		{"http://app.companion.org", false},
		{"https://evilcompanion.org", false},
	}
	for _, tt := range tests {
		rec, _ := corsRequest(t, []string{"https://*.companion.org"}, http.MethodGet, tt.origin, false)
		got := rec.Header().Get("Access-Control-Allow-Origin") != ""
		if got != tt.want {
			t.Errorf("origin %s: allowed=%v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://example.com"}, http.MethodOptions, "https://example.com", true)
	if called || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without calling handler, got %d (called=%v)", rec.Code, called)
	}

	rec, called = corsRequest(t, []string{"https://example.com"}, http.MethodOptions, "https://other.example", true)
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disallowed preflight, got %d (called=%v)", rec.Code, called)
	}
}
