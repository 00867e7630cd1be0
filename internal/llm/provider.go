// Package llm provides the thin abstraction over external text-completion
// providers used by the coaching-message pipeline. Vendors are called over
// raw HTTP with one shared Provider interface; failures surface as *APIError
// so callers can branch on structured fields instead of vendor wording.
package llm

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carmody/pacecoach/internal/models"
)

// ErrNotConfigured is returned when no LLM provider is configured.
var ErrNotConfigured = fmt.Errorf("llm: provider not configured")

// Provider is the interface for LLM backends.
type Provider interface {
	// Generate sends a system prompt and user prompt to the LLM and returns
	// the response text.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error)

	// Ping validates connectivity and credentials. Returns nil if the
	// provider is reachable and authenticated.
	Ping(ctx context.Context) error

	// Name returns the display name of this provider (e.g. "OpenAI", "Anthropic").
	Name() string
}

// Options controls LLM generation behavior.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Response holds the LLM's output.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	Duration   time.Duration
}

// APIError is a non-2xx response from an LLM provider.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string // vendor error code/type, if present
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm/%s: %d %s: %s", strings.ToLower(e.Provider), e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm/%s: %d: %s", strings.ToLower(e.Provider), e.StatusCode, e.Message)
}

// IsRateLimit reports whether this error is a rate-limit rejection. The
// status code is authoritative; the code/message checks cover vendors that
// signal limits through 4xx bodies or proxy error text.
func (e *APIError) IsRateLimit() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch e.Code {
	case "rate_limit_error", "rate_limit_exceeded", "insufficient_quota":
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "rate limit")
}

// UserMessage returns a safe, user-facing description of the failure.
func (e *APIError) UserMessage() string {
	if e.IsRateLimit() {
		return fmt.Sprintf("%s is rate limiting requests. Please try again in a minute.", e.Provider)
	}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("%s rejected the configured API key.", e.Provider)
	default:
		return fmt.Sprintf("%s returned an error. Please try again.", e.Provider)
	}
}

// NewProviderFromSettings creates a Provider using the current app_settings
// configuration (with env var overrides).
func NewProviderFromSettings(db *sql.DB) (Provider, error) {
	provider := models.GetSetting(db, "llm.provider")
	if provider == "" {
		return nil, ErrNotConfigured
	}

	model := models.GetSetting(db, "llm.model")
	apiKey := models.GetSetting(db, "llm.api_key")
	baseURL := models.GetSetting(db, "llm.base_url")

	switch provider {
	case "openai":
		return NewOpenAIProvider(apiKey, model, baseURL), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, baseURL), nil
	case "ollama":
		return NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

// TemperatureFromSettings reads the temperature setting.
func TemperatureFromSettings(db *sql.DB) float64 {
	v := models.GetSetting(db, "llm.temperature")
	var temp float64
	if _, err := fmt.Sscanf(v, "%f", &temp); err != nil {
		return 0.7 // fallback default
	}
	return temp
}

// MaxTokensFromSettings reads the max output tokens setting.
func MaxTokensFromSettings(db *sql.DB) int {
	return models.GetSettingInt(db, "llm.max_tokens", 1024)
}
