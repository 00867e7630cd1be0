package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carmody/pacecoach/internal/auth"
	"github.com/carmody/pacecoach/internal/coaching"
	"github.com/carmody/pacecoach/internal/database"
	"github.com/carmody/pacecoach/internal/llm"
	"github.com/carmody/pacecoach/internal/middleware"
	"github.com/carmody/pacecoach/internal/models"
)

type stubVerifier struct {
	userID string
}

func (v *stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{UserID: v.userID}, nil
}

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

func seedProfile(t *testing.T, db *sql.DB, userID, coachID string) {
	t.Helper()
	err := models.UpsertProfile(db, &models.Profile{
		UserID:  userID,
		CoachID: coachID,
		Goal:    sql.NullString{String: "maintain", Valid: true},
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

// serve runs one authenticated request through the handler with the request
// pipeline it sees in production minus the origin and rate-limit stages.
func serve(t *testing.T, userID string, handlerFn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.RequestID(middleware.RequireAuth(&stubVerifier{userID: userID})(handlerFn))

	req := httptest.NewRequest("POST", "/api/generate-coaching-message", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestGenerateDailyIdempotent(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	provider := llm.NewMockProvider("Keep showing up.")
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	first := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, body %s", first.Code, first.Body)
	}
	body := decodeBody(t, first)
	if body["message"] != "Keep showing up." || body["date"] != "2024-03-01" {
		t.Errorf("first body = %v", body)
	}
	if body["coachName"] != "Marcus" {
		t.Errorf("coachName = %v", body["coachName"])
	}
	if body["created"] != true {
		t.Errorf("created = %v", body["created"])
	}
	if body["requestId"] == "" {
		t.Error("missing requestId")
	}

	second := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if second.Code != http.StatusOK {
		t.Fatalf("second status = %d", second.Code)
	}
	body = decodeBody(t, second)
	if body["message"] != "Keep showing up." || body["coachName"] != "Marcus" {
		t.Errorf("second body = %v", body)
	}
	if body["created"] != false {
		t.Errorf("second created = %v", body["created"])
	}

	if provider.Calls != 1 {
		t.Errorf("provider calls = %d, want 1 (repeat must return the stored message)", provider.Calls)
	}
}

func TestGenerateDailyNoCoach(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "")
	provider := llm.NewMockProvider("unused")
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "No coach selected" {
		t.Errorf("error = %v", body["error"])
	}
	if provider.Calls != 0 {
		t.Error("provider must not be called")
	}

	// The refusal must not burn the day's slot.
	if _, err := models.GetDailyCoachMessage(db, models.DailyMessageKey("u1", "2024-03-01")); err != models.ErrNotFound {
		t.Errorf("unexpected stored row: err = %v", err)
	}
}

func TestGenerateDailySentinelCoachCountsAsNone(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", models.DefaultCoachID)
	h := &Messages{DB: db, Provider: llm.NewMockProvider("unused"), Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateDailyInvalidDateFallsBackToToday(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "elena")
	h := &Messages{DB: db, Provider: llm.NewMockProvider("Today's note."), Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"03/01/2024"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody(t, rec)
	if body["date"] != coaching.Today() {
		t.Errorf("date = %v, want today", body["date"])
	}
}

func TestGenerateDailyEmptyBody(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "elena")
	h := &Messages{DB: db, Provider: llm.NewMockProvider("Today's note."), Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestGenerateDailyMalformedJSON(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "elena")
	provider := llm.NewMockProvider("unused")
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if provider.Calls != 0 {
		t.Error("provider must not be called")
	}
}

func TestGenerateDailyNoProfile(t *testing.T) {
	db := testDB(t)
	h := &Messages{DB: db, Provider: llm.NewMockProvider("unused"), Env: "test"}

	rec := serve(t, "ghost", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGenerateDailyUpstreamRateLimit(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	provider := &llm.MockProvider{GenerateErr: &llm.APIError{
		Provider: "Anthropic", StatusCode: 429, Code: "rate_limit_error", Message: "slow down",
	}}
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["retryAfter"] != float64(60) {
		t.Errorf("retryAfter = %v, want 60", body["retryAfter"])
	}

	// The failure must not leave a row blocking a later retry.
	if _, err := models.GetDailyCoachMessage(db, models.DailyMessageKey("u1", "2024-03-01")); err != models.ErrNotFound {
		t.Errorf("unexpected stored row: err = %v", err)
	}
}

func TestGenerateWeeklyUpstreamRateLimit(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	if _, err := models.CreateWeeklyCheckIn(db, &models.WeeklyCheckIn{
		UserID: "u1", WeekStart: "2024-03-04",
	}); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
	provider := &llm.MockProvider{GenerateErr: &llm.APIError{
		Provider: "OpenAI", StatusCode: 400, Message: "Rate limit reached for requests",
	}}
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateWeekly, `{"weekStartDate":"2024-03-04"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["retryAfter"] != float64(60) {
		t.Errorf("retryAfter = %v, want 60", body["retryAfter"])
	}
}

func TestGenerateWeekly(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	if _, err := models.CreateWeeklyCheckIn(db, &models.WeeklyCheckIn{
		UserID: "u1", WeekStart: "2024-03-04", TrainingDays: 4,
	}); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}

	provider := llm.NewMockProvider("Subject: Big week\n\nYou crushed it.")
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateWeekly, `{"weekStartDate":"2024-03-04"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody(t, rec)
	if body["subject"] != "Big week" {
		t.Errorf("subject = %v", body["subject"])
	}
	id, _ := body["messageId"].(string)
	if id == "" {
		t.Fatal("missing messageId")
	}

	stored, err := models.GetWeeklyMessage(db, id)
	if err != nil {
		t.Fatalf("load stored: %v", err)
	}
	if stored.Body != "You crushed it." || stored.CoachName != "Marcus" || stored.Read {
		t.Errorf("stored = %+v", stored)
	}
}

func TestGenerateWeeklyNoCoachUsesDefaultPersona(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "")
	if _, err := models.CreateWeeklyCheckIn(db, &models.WeeklyCheckIn{
		UserID: "u1", WeekStart: "2024-03-04",
	}); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
	h := &Messages{DB: db, Provider: llm.NewMockProvider("Solid week."), Env: "test"}

	rec := serve(t, "u1", h.GenerateWeekly, `{"weekStartDate":"2024-03-04"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody(t, rec)

	// The weekly flow never refuses for a missing coach; it falls back.
	id, _ := body["messageId"].(string)
	stored, err := models.GetWeeklyMessage(db, id)
	if err != nil {
		t.Fatalf("load stored: %v", err)
	}
	if stored.CoachName != "AI Coach" {
		t.Errorf("coach = %q, want the generic persona", stored.CoachName)
	}
}

func TestGenerateWeeklyMissingCheckIn(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	provider := llm.NewMockProvider("unused")
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateWeekly, `{"weekStartDate":"2024-03-04"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "No weekly check-in found for this week" {
		t.Errorf("error = %v", body["error"])
	}
	if provider.Calls != 0 {
		t.Error("provider must not be called without a check-in")
	}
}

func TestGenerateWeeklyInvalidDate(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	h := &Messages{DB: db, Provider: llm.NewMockProvider("unused"), Env: "test"}

	for _, payload := range []string{
		`{"weekStartDate":"2024-3-4"}`,
		`{"weekStartDate":"2024-02-30"}`,
		`{"weekStartDate":""}`,
		`{}`,
	} {
		rec := serve(t, "u1", h.GenerateWeekly, payload)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %s: status = %d, want 400", payload, rec.Code)
		}
	}
}

func TestGenerateWeeklyRepeatStacksMessages(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	if _, err := models.CreateWeeklyCheckIn(db, &models.WeeklyCheckIn{
		UserID: "u1", WeekStart: "2024-03-04",
	}); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
	provider := llm.NewMockProvider("Subject: Again\n\nbody")
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	for i := 0; i < 2; i++ {
		rec := serve(t, "u1", h.GenerateWeekly, `{"weekStartDate":"2024-03-04"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: status = %d", i, rec.Code)
		}
	}

	count, err := models.CountWeeklyMessages(db, "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d; weekly generation has no dedup key", count)
	}
	if provider.Calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.Calls)
	}
}

func TestGenerateDailyProviderNotConfigured(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	t.Setenv("PACECOACH_LLM_PROVIDER", "")
	// No Provider override and no settings: construction fails per request.
	h := &Messages{DB: db, Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "AI coaching is not configured" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestGenerateDailyUpstreamFailureIsServerError(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	provider := &llm.MockProvider{GenerateErr: &llm.APIError{
		Provider: "Anthropic", StatusCode: 500, Code: "overloaded_error", Message: "Overloaded",
	}}
	h := &Messages{DB: db, Provider: provider, Env: "test"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for a non-rate-limit upstream failure", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["retryAfter"] != nil {
		t.Errorf("retryAfter = %v, only the 429 path carries a retry hint", body["retryAfter"])
	}

	// Outside production the response carries the underlying detail.
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "Overloaded") {
		t.Errorf("error = %q, want upstream detail in non-production mode", msg)
	}

	// The failure must not leave a row blocking a later retry.
	if _, err := models.GetDailyCoachMessage(db, models.DailyMessageKey("u1", "2024-03-01")); err != models.ErrNotFound {
		t.Errorf("unexpected stored row: err = %v", err)
	}
}

func TestGenerateDailyUpstreamDetailHiddenInProduction(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u1", "marcus")
	provider := &llm.MockProvider{GenerateErr: &llm.APIError{
		Provider: "Anthropic", StatusCode: 500, Message: "Overloaded",
	}}
	h := &Messages{DB: db, Provider: provider, Env: "production"}

	rec := serve(t, "u1", h.GenerateDaily, `{"date":"2024-03-01"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Internal server error" {
		t.Errorf("error = %v, production must omit internal detail", body["error"])
	}
}
