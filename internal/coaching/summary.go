// Package coaching implements the AI coaching-message pipeline: aggregating
// a user's records for a period into a briefing packet, resolving the coach
// persona, generating the message text, and persisting exactly one message
// per (user, period) for the daily flow.
package coaching

import (
	"database/sql"
	"fmt"

	"github.com/carmody/pacecoach/internal/models"
)

// DaySummary is the structured aggregate sent to the LLM for a daily message.
// Every field covers exactly one calendar day.
type DaySummary struct {
	Date       string                  `json:"date"`
	Goal       string                  `json:"goal,omitempty"`
	HasCheckIn bool                    `json:"has_check_in"`
	CheckIn    *DailyCheckInSummary    `json:"check_in,omitempty"`
	Nutrition  models.NutritionTotals  `json:"nutrition"`
	Workouts   []WorkoutSummary        `json:"workouts"`
}

// WeekSummary is the structured aggregate for a weekly message, covering the
// Monday-anchored 7-day window [WeekStart, WeekEnd].
type WeekSummary struct {
	WeekStart     string                  `json:"week_start"`
	WeekEnd       string                  `json:"week_end"`
	Goal          string                  `json:"goal,omitempty"`
	HasCheckIn    bool                    `json:"has_check_in"`
	CheckIn       *WeeklyCheckInSummary   `json:"check_in,omitempty"`
	DailyCheckIns []DailyCheckInSummary   `json:"daily_check_ins"`
	Nutrition     models.NutritionTotals  `json:"nutrition"`
	Workouts      []WorkoutSummary        `json:"workouts"`
}

// DailyCheckInSummary is one day's check-in as seen by the LLM.
type DailyCheckInSummary struct {
	Date             string   `json:"date"`
	Weight           *float64 `json:"weight,omitempty"`
	Steps            *int64   `json:"steps,omitempty"`
	SleepHours       *float64 `json:"sleep_hours,omitempty"`
	Trained          bool     `json:"trained"`
	DidCardio        bool     `json:"did_cardio"`
	CaloriesOnTarget bool     `json:"calories_on_target"`
	Notes            string   `json:"notes,omitempty"`
}

// WeeklyCheckInSummary is the end-of-week check-in as seen by the LLM.
type WeeklyCheckInSummary struct {
	WeekStart        string   `json:"week_start"`
	Weight           *float64 `json:"weight,omitempty"`
	TrainingDays     int      `json:"training_days"`
	CardioDays       int      `json:"cardio_days"`
	CalorieAdherence string   `json:"calorie_adherence,omitempty"`
	Energy           *int64   `json:"energy,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// WorkoutSummary is one logged session as seen by the LLM.
type WorkoutSummary struct {
	Date            string  `json:"date"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	TotalVolume     float64 `json:"total_volume"`
	Notes           string  `json:"notes,omitempty"`
}

// BuildDailySummary gathers a user's records for one day into the briefing
// packet. Missing records are represented in the summary (HasCheckIn false,
// empty lists), never as errors — absence is a caller-checked precondition,
// not an aggregation failure.
func BuildDailySummary(db *sql.DB, profile *models.Profile, date string) (*DaySummary, error) {
	sum := &DaySummary{Date: date}
	if profile.Goal.Valid {
		sum.Goal = profile.Goal.String
	}

	checkin, err := models.GetDailyCheckIn(db, profile.UserID, date)
	switch {
	case err == nil:
		sum.HasCheckIn = true
		cs := summarizeDailyCheckIn(checkin)
		sum.CheckIn = &cs
	case err == models.ErrNotFound:
		// Tolerated — the user may not have checked in yet.
	default:
		return nil, fmt.Errorf("coaching: daily check-in: %w", err)
	}

	nutrition, err := models.GetNutritionTotals(db, profile.UserID, date, date)
	if err != nil {
		return nil, fmt.Errorf("coaching: nutrition totals: %w", err)
	}
	sum.Nutrition = *nutrition

	workouts, err := models.ListWorkoutsInRange(db, profile.UserID, date, date)
	if err != nil {
		return nil, fmt.Errorf("coaching: workouts: %w", err)
	}
	sum.Workouts = summarizeWorkouts(workouts)

	return sum, nil
}

// BuildWeeklySummary gathers a user's records for the Monday-anchored 7-day
// window starting at weekStart.
func BuildWeeklySummary(db *sql.DB, profile *models.Profile, weekStart string) (*WeekSummary, error) {
	weekEnd, err := WeekEnd(weekStart)
	if err != nil {
		return nil, fmt.Errorf("coaching: week window: %w", err)
	}

	sum := &WeekSummary{WeekStart: weekStart, WeekEnd: weekEnd}
	if profile.Goal.Valid {
		sum.Goal = profile.Goal.String
	}

	checkin, err := models.GetWeeklyCheckIn(db, profile.UserID, weekStart)
	switch {
	case err == nil:
		sum.HasCheckIn = true
		sum.CheckIn = &WeeklyCheckInSummary{
			WeekStart:        checkin.WeekStart,
			Weight:           nullFloat(checkin.Weight),
			TrainingDays:     checkin.TrainingDays,
			CardioDays:       checkin.CardioDays,
			CalorieAdherence: checkin.CalorieAdherence.String,
			Energy:           nullInt(checkin.Energy),
			Notes:            checkin.Notes.String,
		}
	case err == models.ErrNotFound:
		// Tolerated here; the weekly endpoint gates on it before generating.
	default:
		return nil, fmt.Errorf("coaching: weekly check-in: %w", err)
	}

	dailies, err := models.ListDailyCheckInsInRange(db, profile.UserID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("coaching: daily check-ins: %w", err)
	}
	for _, d := range dailies {
		sum.DailyCheckIns = append(sum.DailyCheckIns, summarizeDailyCheckIn(d))
	}

	nutrition, err := models.GetNutritionTotals(db, profile.UserID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("coaching: nutrition totals: %w", err)
	}
	sum.Nutrition = *nutrition

	workouts, err := models.ListWorkoutsInRange(db, profile.UserID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("coaching: workouts: %w", err)
	}
	sum.Workouts = summarizeWorkouts(workouts)

	return sum, nil
}

func summarizeDailyCheckIn(c *models.DailyCheckIn) DailyCheckInSummary {
	return DailyCheckInSummary{
		Date:             c.Date,
		Weight:           nullFloat(c.Weight),
		Steps:            nullInt(c.Steps),
		SleepHours:       nullFloat(c.SleepHours),
		Trained:          c.Trained,
		DidCardio:        c.DidCardio,
		CaloriesOnTarget: c.CaloriesOnTarget,
		Notes:            c.Notes.String,
	}
}

func summarizeWorkouts(workouts []*models.Workout) []WorkoutSummary {
	var out []WorkoutSummary
	for _, w := range workouts {
		out = append(out, WorkoutSummary{
			Date:            w.Date,
			Name:            w.Name,
			DurationMinutes: w.DurationMinutes,
			TotalVolume:     w.TotalVolume,
			Notes:           w.Notes.String,
		})
	}
	return out
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
