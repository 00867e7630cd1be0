package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
	"strings"
)

// Recover catches panics from downstream handlers, logs them with the
// correlation id, and maps them to 500 — or 401 when the panic value carries
// an unauthorized signal.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Printf("middleware: panic rid=%s: %v\n%s",
				RequestIDFromContext(r.Context()), rec, debug.Stack())

			if err, ok := rec.(error); ok && strings.Contains(err.Error(), "Unauthorized") {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			writeError(w, r, http.StatusInternalServerError, "Internal server error", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
