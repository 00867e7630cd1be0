package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carmody/pacecoach/internal/auth"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
	calls    int
}

func (v *stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func TestRequireAuthPassesIdentity(t *testing.T) {
	v := &stubVerifier{identity: &auth.Identity{UserID: "u1"}}

	var got *auth.Identity
	h := RequireAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest("POST", "/api/x", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.UserID != "u1" {
		t.Errorf("identity = %+v", got)
	}
}

func TestRequireAuthMissingHeader(t *testing.T) {
	v := &stubVerifier{identity: &auth.Identity{UserID: "u1"}}
	called := false
	h := RequireAuth(v)(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/x", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if v.calls != 0 {
		t.Error("verifier must not be called without a bearer token")
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	v := &stubVerifier{err: auth.ErrInvalidToken}
	called := false
	h := RequireAuth(v)(okHandler(&called))

	req := httptest.NewRequest("POST", "/api/x", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestRequireAuthTransportFailureIsServerError(t *testing.T) {
	v := &stubVerifier{err: errors.New("identity provider unreachable")}
	called := false
	h := RequireAuth(v)(okHandler(&called))

	req := httptest.NewRequest("POST", "/api/x", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Verifier outage is our fault, not the caller's.
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header, want string
	}{
		{"Bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"bearer abc", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
