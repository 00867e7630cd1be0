package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter enforces a fixed-window request cap per authenticated user.
// Generation endpoints are expensive (each miss is an LLM call), so the
// window is deliberately coarse.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor

	stop chan struct{}
	once sync.Once
}

type visitor struct {
	count      int
	windowEnds time.Time
}

// NewRateLimiter returns a limiter allowing limit requests per user per
// window. A background sweeper drops visitors whose window has lapsed; call
// Stop on shutdown.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:    limit,
		window:   window,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if now.After(v.windowEnds) {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// take records a request for key and reports whether it is within the limit,
// along with the remaining allowance and the window reset time.
func (rl *RateLimiter) take(key string) (allowed bool, remaining int, reset time.Time) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok || now.After(v.windowEnds) {
		v = &visitor{windowEnds: now.Add(rl.window)}
		rl.visitors[key] = v
	}

	if v.count >= rl.limit {
		return false, 0, v.windowEnds
	}
	v.count++
	return true, rl.limit - v.count, v.windowEnds
}

// Middleware applies the limit keyed by the authenticated user id. Must run
// after RequireAuth; unauthenticated requests fall back to the remote
// address so the limiter still holds if the chain is misordered.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if ident := IdentityFromContext(r.Context()); ident != nil {
			key = ident.UserID
		}

		allowed, remaining, reset := rl.take(key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(reset).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, r, http.StatusTooManyRequests, "Too many requests", map[string]any{
				"retryAfter": retryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
