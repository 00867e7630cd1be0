package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginConfig controls the cross-origin request check.
type OriginConfig struct {
	// PublicOrigin is the app's own origin, e.g. "https://app.pacecoach.fit".
	PublicOrigin string
	// AuthOrigins are additional trusted origins (the identity provider's
	// hosted login domains).
	AuthOrigins []string
	// Development relaxes the check: localhost origins are allowed and a
	// request with no Origin header passes without Referer matching.
	Development bool
}

// VerifyOrigin is the CSRF defense for the bearer-token API: state-changing
// requests must come from a recognized origin. In production a missing
// Origin header falls back to Referer host matching, and absence of both
// denies by default.
func VerifyOrigin(cfg OriginConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
				if !cfg.allowed(r) {
					writeError(w, r, http.StatusForbidden, "Forbidden", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (cfg OriginConfig) allowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if origin == "" {
		if cfg.Development {
			return true
		}
		// Production: fall back to Referer host matching; no headers at all
		// denies by default.
		ref := r.Header.Get("Referer")
		if ref == "" {
			return false
		}
		return cfg.hostMatches(ref)
	}

	if cfg.originMatches(origin) {
		return true
	}
	if cfg.Development && isLocalhost(origin) {
		return true
	}
	return false
}

func (cfg OriginConfig) originMatches(origin string) bool {
	if cfg.PublicOrigin != "" && strings.EqualFold(origin, cfg.PublicOrigin) {
		return true
	}
	for _, a := range cfg.AuthOrigins {
		if strings.EqualFold(origin, a) {
			return true
		}
	}
	return false
}

// hostMatches compares the Referer URL's scheme://host against the trusted
// origins.
func (cfg OriginConfig) hostMatches(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	return cfg.originMatches(u.Scheme + "://" + u.Host)
}

func isLocalhost(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
