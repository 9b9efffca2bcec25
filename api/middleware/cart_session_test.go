package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCartSessionIssuesAndEchoes(t *testing.T) {
	var seen string
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartSessionFromContext(r.Context())
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	issued := resp.Header().Get(CartSessionHeader)
	if issued == "" || issued != seen {
		t.Fatalf("expected issued session echoed, header=%q ctx=%q", issued, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, issued)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if seen != issued {
		t.Fatalf("expected existing session kept, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, "../../etc")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if seen == "../../etc" || resp.Header().Get(CartSessionHeader) != seen {
		t.Fatalf("malformed session must be replaced, got %q", seen)
	}
}
