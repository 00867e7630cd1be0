package llm

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/carmody/pacecoach/internal/database"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func TestAPIErrorIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  APIError
		want bool
	}{
		{"status 429", APIError{StatusCode: 429}, true},
		{"anthropic code", APIError{StatusCode: 400, Code: "rate_limit_error"}, true},
		{"openai code", APIError{StatusCode: 400, Code: "rate_limit_exceeded"}, true},
		{"quota code", APIError{StatusCode: 403, Code: "insufficient_quota"}, true},
		{"message text", APIError{StatusCode: 400, Message: "Rate limit reached for requests"}, true},
		{"auth failure", APIError{StatusCode: 401, Code: "invalid_api_key"}, false},
		{"server error", APIError{StatusCode: 500, Message: "internal error"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRateLimit(); got != tt.want {
				t.Errorf("IsRateLimit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIErrorUserMessage(t *testing.T) {
	rate := &APIError{Provider: "Anthropic", StatusCode: 429}
	if msg := rate.UserMessage(); msg != "Anthropic is rate limiting requests. Please try again in a minute." {
		t.Errorf("rate message = %q", msg)
	}

	auth := &APIError{Provider: "OpenAI", StatusCode: 401}
	if msg := auth.UserMessage(); msg != "OpenAI rejected the configured API key." {
		t.Errorf("auth message = %q", msg)
	}
}

func TestNewProviderFromSettings(t *testing.T) {
	db := testDB(t)

	if _, err := NewProviderFromSettings(db); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("unconfigured err = %v, want ErrNotConfigured", err)
	}

	tests := []struct {
		provider string
		wantName string
	}{
		{"anthropic", "Anthropic"},
		{"openai", "OpenAI"},
		{"ollama", "Ollama"},
	}
	for _, tt := range tests {
		t.Setenv("PACECOACH_LLM_PROVIDER", tt.provider)
		p, err := NewProviderFromSettings(db)
		if err != nil {
			t.Fatalf("%s: %v", tt.provider, err)
		}
		if p.Name() != tt.wantName {
			t.Errorf("%s: name = %q, want %q", tt.provider, p.Name(), tt.wantName)
		}
	}

	t.Setenv("PACECOACH_LLM_PROVIDER", "watson")
	if _, err := NewProviderFromSettings(db); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestTemperatureFromSettings(t *testing.T) {
	db := testDB(t)

	if got := TemperatureFromSettings(db); got != 0.7 {
		t.Errorf("default = %v", got)
	}

	t.Setenv("PACECOACH_LLM_TEMPERATURE", "0.2")
	if got := TemperatureFromSettings(db); got != 0.2 {
		t.Errorf("override = %v", got)
	}

	t.Setenv("PACECOACH_LLM_TEMPERATURE", "not-a-number")
	if got := TemperatureFromSettings(db); got != 0.7 {
		t.Errorf("unparseable = %v, want fallback", got)
	}
}
