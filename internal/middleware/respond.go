package middleware

import (
	"encoding/json"
	"log"
	"net/http"
)

// writeError emits the standard JSON error envelope from middleware. extra
// fields (e.g. retryAfter) are merged into the body.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, extra map[string]any) {
	body := map[string]any{
		"success":   false,
		"error":     msg,
		"requestId": RequestIDFromContext(r.Context()),
	}
	for k, v := range extra {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("middleware: encode error response: %v", err)
	}
}
