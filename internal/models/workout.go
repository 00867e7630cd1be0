package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Workout is a logged training session.
type Workout struct {
	ID              int64
	UserID          string
	Date            string // YYYY-MM-DD
	Name            string
	DurationMinutes int
	TotalVolume     float64
	Notes           sql.NullString
	CreatedAt       time.Time
}

// CreateWorkout inserts a workout record.
func CreateWorkout(db *sql.DB, w *Workout) (*Workout, error) {
	result, err := db.Exec(
		`INSERT INTO workouts (user_id, date, name, duration_minutes, total_volume, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.UserID, normalizeDate(w.Date), w.Name, w.DurationMinutes, w.TotalVolume, w.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("models: create workout for %q: %w", w.UserID, err)
	}
	id, _ := result.LastInsertId()
	w.ID = id
	return w, nil
}

// ListWorkoutsInRange returns a user's workouts with from <= date <= to,
// ordered by date then insertion order.
func ListWorkoutsInRange(db *sql.DB, userID, from, to string) ([]*Workout, error) {
	rows, err := db.Query(
		`SELECT id, user_id, date, name, duration_minutes, total_volume, notes, created_at
		 FROM workouts WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date, id`, userID, normalizeDate(from), normalizeDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("models: list workouts for %q: %w", userID, err)
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w := &Workout{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.Name, &w.DurationMinutes, &w.TotalVolume, &w.Notes, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: list workouts scan: %w", err)
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}
