package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DailyCheckIn is a single day's wellness check-in. Rows are written by the
// check-in screens; the coaching pipeline reads them.
type DailyCheckIn struct {
	ID               int64
	UserID           string
	Date             string // YYYY-MM-DD
	Weight           sql.NullFloat64
	Steps            sql.NullInt64
	SleepHours       sql.NullFloat64
	Trained          bool
	DidCardio        bool
	CaloriesOnTarget bool
	Notes            sql.NullString
	CreatedAt        time.Time
}

// WeeklyCheckIn is the end-of-week check-in keyed by the Monday week start.
type WeeklyCheckIn struct {
	ID               int64
	UserID           string
	WeekStart        string // YYYY-MM-DD, always a Monday
	Weight           sql.NullFloat64
	TrainingDays     int
	CardioDays       int
	CalorieAdherence sql.NullString
	Energy           sql.NullInt64
	Notes            sql.NullString
	CreatedAt        time.Time
}

// ErrDuplicateCheckIn is returned when a check-in already exists for the period.
var ErrDuplicateCheckIn = errors.New("duplicate check-in")

// CreateDailyCheckIn inserts a daily check-in. One per (user, date).
func CreateDailyCheckIn(db *sql.DB, c *DailyCheckIn) (*DailyCheckIn, error) {
	result, err := db.Exec(
		`INSERT INTO daily_checkins
		 (user_id, date, weight, steps, sleep_hours, trained, did_cardio, calories_on_target, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, normalizeDate(c.Date), c.Weight, c.Steps, c.SleepHours,
		boolToInt(c.Trained), boolToInt(c.DidCardio), boolToInt(c.CaloriesOnTarget), c.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCheckIn
		}
		return nil, fmt.Errorf("models: create daily check-in for %q: %w", c.UserID, err)
	}
	id, _ := result.LastInsertId()
	c.ID = id
	return c, nil
}

// GetDailyCheckIn retrieves the check-in for one (user, date).
func GetDailyCheckIn(db *sql.DB, userID, date string) (*DailyCheckIn, error) {
	c := &DailyCheckIn{}
	var trained, cardio, onTarget int
	err := db.QueryRow(
		`SELECT id, user_id, date, weight, steps, sleep_hours, trained, did_cardio, calories_on_target, notes, created_at
		 FROM daily_checkins WHERE user_id = ? AND date = ?`, userID, normalizeDate(date),
	).Scan(&c.ID, &c.UserID, &c.Date, &c.Weight, &c.Steps, &c.SleepHours, &trained, &cardio, &onTarget, &c.Notes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get daily check-in %q/%s: %w", userID, date, err)
	}
	c.Trained = trained != 0
	c.DidCardio = cardio != 0
	c.CaloriesOnTarget = onTarget != 0
	return c, nil
}

// ListDailyCheckInsInRange returns a user's daily check-ins with from <= date <= to,
// ordered by date.
func ListDailyCheckInsInRange(db *sql.DB, userID, from, to string) ([]*DailyCheckIn, error) {
	rows, err := db.Query(
		`SELECT id, user_id, date, weight, steps, sleep_hours, trained, did_cardio, calories_on_target, notes, created_at
		 FROM daily_checkins WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`, userID, normalizeDate(from), normalizeDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("models: list daily check-ins for %q: %w", userID, err)
	}
	defer rows.Close()

	var checkins []*DailyCheckIn
	for rows.Next() {
		c := &DailyCheckIn{}
		var trained, cardio, onTarget int
		if err := rows.Scan(&c.ID, &c.UserID, &c.Date, &c.Weight, &c.Steps, &c.SleepHours, &trained, &cardio, &onTarget, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: list daily check-ins scan: %w", err)
		}
		c.Trained = trained != 0
		c.DidCardio = cardio != 0
		c.CaloriesOnTarget = onTarget != 0
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// CreateWeeklyCheckIn inserts a weekly check-in. One per (user, week start).
func CreateWeeklyCheckIn(db *sql.DB, c *WeeklyCheckIn) (*WeeklyCheckIn, error) {
	result, err := db.Exec(
		`INSERT INTO weekly_checkins
		 (user_id, week_start, weight, training_days, cardio_days, calorie_adherence, energy, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, normalizeDate(c.WeekStart), c.Weight, c.TrainingDays, c.CardioDays,
		c.CalorieAdherence, c.Energy, c.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCheckIn
		}
		return nil, fmt.Errorf("models: create weekly check-in for %q: %w", c.UserID, err)
	}
	id, _ := result.LastInsertId()
	c.ID = id
	return c, nil
}

// GetWeeklyCheckIn retrieves the check-in for one (user, week start).
func GetWeeklyCheckIn(db *sql.DB, userID, weekStart string) (*WeeklyCheckIn, error) {
	c := &WeeklyCheckIn{}
	err := db.QueryRow(
		`SELECT id, user_id, week_start, weight, training_days, cardio_days, calorie_adherence, energy, notes, created_at
		 FROM weekly_checkins WHERE user_id = ? AND week_start = ?`, userID, normalizeDate(weekStart),
	).Scan(&c.ID, &c.UserID, &c.WeekStart, &c.Weight, &c.TrainingDays, &c.CardioDays, &c.CalorieAdherence, &c.Energy, &c.Notes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get weekly check-in %q/%s: %w", userID, weekStart, err)
	}
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
