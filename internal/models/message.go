package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DailyCoachMessage is the stored daily coaching message, keyed
// deterministically by "{userId}_{date}" so a given (user, date) can hold at
// most one row.
type DailyCoachMessage struct {
	ID        string
	UserID    string
	Message   string
	Date      string // YYYY-MM-DD
	CoachID   string
	CoachName string
	CreatedAt time.Time
}

// WeeklyMessage is a stored weekly coaching message surfaced via the inbox.
type WeeklyMessage struct {
	ID        string
	UserID    string
	Subject   string
	Body      string
	CoachID   string
	CoachName string
	Read      bool
	CreatedAt time.Time
}

// ErrDuplicateMessage is returned when a daily message already exists at the key.
var ErrDuplicateMessage = errors.New("duplicate message")

// DailyMessageKey derives the deterministic storage key for a daily message.
func DailyMessageKey(userID, date string) string {
	return userID + "_" + normalizeDate(date)
}

// GetDailyCoachMessage retrieves a daily message by its storage key.
func GetDailyCoachMessage(db *sql.DB, id string) (*DailyCoachMessage, error) {
	m := &DailyCoachMessage{}
	err := db.QueryRow(
		`SELECT id, user_id, message, date, coach_id, coach_name, created_at
		 FROM daily_coach_messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.UserID, &m.Message, &m.Date, &m.CoachID, &m.CoachName, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get daily message %q: %w", id, err)
	}
	return m, nil
}

// InsertDailyCoachMessage stores a daily message at its deterministic key.
// Returns ErrDuplicateMessage if a row already exists there.
func InsertDailyCoachMessage(db *sql.DB, m *DailyCoachMessage) error {
	if m.ID == "" {
		m.ID = DailyMessageKey(m.UserID, m.Date)
	}
	_, err := db.Exec(
		`INSERT INTO daily_coach_messages (id, user_id, message, date, coach_id, coach_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		m.ID, m.UserID, m.Message, normalizeDate(m.Date), m.CoachID, m.CoachName,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("models: insert daily message %q: %w", m.ID, err)
	}
	return nil
}

// InsertWeeklyMessage stores a weekly message with a fresh id and read=false.
func InsertWeeklyMessage(db *sql.DB, m *WeeklyMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := db.Exec(
		`INSERT INTO messages (id, user_id, subject, body, coach_id, coach_name, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP)`,
		m.ID, m.UserID, m.Subject, m.Body, m.CoachID, m.CoachName,
	)
	if err != nil {
		return fmt.Errorf("models: insert weekly message %q: %w", m.ID, err)
	}
	return nil
}

// GetWeeklyMessage retrieves a weekly message by id.
func GetWeeklyMessage(db *sql.DB, id string) (*WeeklyMessage, error) {
	m := &WeeklyMessage{}
	var read int
	err := db.QueryRow(
		`SELECT id, user_id, subject, body, coach_id, coach_name, read, created_at
		 FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.UserID, &m.Subject, &m.Body, &m.CoachID, &m.CoachName, &read, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get weekly message %q: %w", id, err)
	}
	m.Read = read != 0
	return m, nil
}

// CountWeeklyMessages returns how many weekly messages a user has.
func CountWeeklyMessages(db *sql.DB, userID string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("models: count weekly messages for %q: %w", userID, err)
	}
	return count, nil
}
