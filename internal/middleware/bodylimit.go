package middleware

import "net/http"

// MaxRequestBody is the declared-size cap for API request bodies.
const MaxRequestBody = 1 << 20 // 1 MiB

// BodyLimit rejects requests whose declared Content-Length exceeds maxBytes
// with 413 before any parsing occurs. The check is on the declared header by
// contract; MaxBytesReader backstops lying clients at read time.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
