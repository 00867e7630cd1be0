package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/carmody/pacecoach/internal/coaching"
	"github.com/carmody/pacecoach/internal/llm"
	"github.com/carmody/pacecoach/internal/middleware"
	"github.com/carmody/pacecoach/internal/models"
)

// generateTimeout bounds one end-to-end message generation, dominated by the
// upstream LLM call.
const generateTimeout = 120 * time.Second

// Messages serves the coaching-message generation endpoints.
type Messages struct {
	DB *sql.DB

	// Provider overrides settings-based provider construction when non-nil.
	// Tests inject a mock here; production leaves it nil.
	Provider llm.Provider

	// Env gates error detail: anything except "production" includes the
	// underlying error string in 500 responses.
	Env string
}

func (h *Messages) provider() (llm.Provider, error) {
	if h.Provider != nil {
		return h.Provider, nil
	}
	return llm.NewProviderFromSettings(h.DB)
}

type weeklyRequest struct {
	WeekStartDate string `json:"weekStartDate"`
}

type dailyRequest struct {
	Date string `json:"date"`
}

// GenerateWeekly handles POST /api/generate-coaching-message. The week must
// already have a stored weekly check-in; the check-in submission screen is
// the only caller, so a missing row means the client is out of order.
func (h *Messages) GenerateWeekly(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		respondError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req weeklyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if !coaching.ValidDate(req.WeekStartDate) {
		respondError(w, r, http.StatusBadRequest, "weekStartDate must be a valid YYYY-MM-DD date", nil)
		return
	}

	profile, err := models.GetProfile(h.DB, ident.UserID)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "Profile not found", nil)
		return
	}
	if err != nil {
		h.internalError(w, r, "load profile", err)
		return
	}

	if _, err := models.GetWeeklyCheckIn(h.DB, ident.UserID, req.WeekStartDate); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "No weekly check-in found for this week", nil)
			return
		}
		h.internalError(w, r, "load weekly check-in", err)
		return
	}

	provider, err := h.provider()
	if err != nil {
		h.providerError(w, r, err)
		return
	}

	summary, err := coaching.BuildWeeklySummary(h.DB, profile, req.WeekStartDate)
	if err != nil {
		h.internalError(w, r, "build weekly summary", err)
		return
	}

	// The weekly flow falls back to a generic persona instead of refusing:
	// the end-of-week message should arrive even for coachless users.
	coach := coaching.DefaultCoach
	if profile.HasCoach() {
		coach = coaching.ResolveCoach(h.DB, profile.CoachID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	result, err := coaching.GenerateWeekly(ctx, h.DB, provider, summary, coach)
	if err != nil {
		h.generationError(w, r, err)
		return
	}

	msg, err := coaching.CreateWeekly(h.DB, ident.UserID, result, coach)
	if err != nil {
		h.internalError(w, r, "store weekly message", err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": msg.ID,
		"subject":   msg.Subject,
	})
}

// GenerateDaily handles POST /api/generate-daily-coach-message. The body is
// optional; a missing or invalid date falls back to today. At most one
// message exists per (user, date) — repeat calls return the stored one.
func (h *Messages) GenerateDaily(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		respondError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req dailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	date := req.Date
	if !coaching.ValidDate(date) {
		date = coaching.Today()
	}

	profile, err := models.GetProfile(h.DB, ident.UserID)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "Profile not found", nil)
		return
	}
	if err != nil {
		h.internalError(w, r, "load profile", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	msg, created, err := coaching.GetOrCreateDaily(h.DB, ident.UserID, date, func() (*coaching.ProducedDaily, error) {
		// Unlike the weekly flow, no coach means no message at all.
		if !profile.HasCoach() {
			return nil, coaching.ErrNoCoachSelected
		}

		provider, err := h.provider()
		if err != nil {
			return nil, err
		}

		summary, err := coaching.BuildDailySummary(h.DB, profile, date)
		if err != nil {
			return nil, err
		}

		coach := coaching.ResolveCoach(h.DB, profile.CoachID)
		result, err := coaching.GenerateDaily(ctx, h.DB, provider, summary, coach)
		if err != nil {
			return nil, err
		}
		return &coaching.ProducedDaily{
			Message:   result.Body,
			CoachID:   coach.ID,
			CoachName: coach.Name,
		}, nil
	})
	if errors.Is(err, coaching.ErrNoCoachSelected) {
		respondError(w, r, http.StatusBadRequest, "No coach selected", nil)
		return
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		h.providerError(w, r, err)
		return
	}
	if err != nil {
		h.generationError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"success":   true,
		"message":   msg.Message,
		"date":      msg.Date,
		"coachName": msg.CoachName,
		"created":   created,
	})
}

// generationError maps pipeline failures from the generate path. Upstream
// rate limits become our own 429 so the client backs off instead of retrying
// into a throttled provider; every other upstream failure is a 500.
func (h *Messages) generationError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimit() {
		log.Printf("handlers: upstream rate limit rid=%s: %v",
			middleware.RequestIDFromContext(r.Context()), err)
		respondError(w, r, http.StatusTooManyRequests, apiErr.UserMessage(), map[string]any{
			"retryAfter": 60,
		})
		return
	}
	h.internalError(w, r, "generate message", err)
}

func (h *Messages) providerError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Printf("handlers: provider not configured rid=%s", middleware.RequestIDFromContext(r.Context()))
		respondError(w, r, http.StatusInternalServerError, "AI coaching is not configured", nil)
		return
	}
	h.internalError(w, r, "configure provider", err)
}

func (h *Messages) internalError(w http.ResponseWriter, r *http.Request, action string, err error) {
	log.Printf("handlers: %s rid=%s: %v", action, middleware.RequestIDFromContext(r.Context()), err)
	msg := "Internal server error"
	if h.Env != "production" {
		msg = err.Error()
	}
	respondError(w, r, http.StatusInternalServerError, msg, nil)
}
