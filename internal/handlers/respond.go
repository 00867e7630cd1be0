// Package handlers holds the HTTP endpoints for the coaching API. Handlers
// parse and validate input, call into the coaching pipeline, and map errors
// to the JSON envelope; business rules live in the coaching package.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/carmody/pacecoach/internal/middleware"
)

// respondJSON writes a success payload, stamping in the correlation id.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload map[string]any) {
	payload["requestId"] = middleware.RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

// respondError writes the standard error envelope. extra fields (e.g.
// retryAfter) are merged into the body.
func respondError(w http.ResponseWriter, r *http.Request, status int, msg string, extra map[string]any) {
	body := map[string]any{
		"success": false,
		"error":   msg,
	}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, r, status, body)
}
