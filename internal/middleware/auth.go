package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/carmody/pacecoach/internal/auth"
)

type identityKey struct{}

// RequireAuth verifies the bearer credential and stores the resulting
// identity in the request context. The user id is only ever taken from the
// verified token, never from the request body.
func RequireAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}

			ident, err := verifier.Verify(r.Context(), token)
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			if err != nil {
				log.Printf("middleware: verify token rid=%s: %v", RequestIDFromContext(r.Context()), err)
				writeError(w, r, http.StatusInternalServerError, "Internal server error", nil)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity. Returns nil if
// no identity is set (should not happen behind RequireAuth).
func IdentityFromContext(ctx context.Context) *auth.Identity {
	ident, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return ident
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
