package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a query finds no matching row.
var ErrNotFound = errors.New("not found")

// DefaultCoachID is the sentinel value meaning "no specific coach selected".
const DefaultCoachID = "default"

// Profile represents a user's coaching profile. The identity key is owned by
// the external identity provider; this service never mints user ids.
type Profile struct {
	UserID    string
	CoachID   string
	SkipCoach bool
	Goal      sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCoach reports whether the profile names a usable coach: a non-empty,
// non-sentinel coach id with the skip flag unset.
func (p *Profile) HasCoach() bool {
	return !p.SkipCoach && p.CoachID != "" && p.CoachID != DefaultCoachID
}

// GetProfile retrieves a profile by user id.
func GetProfile(db *sql.DB, userID string) (*Profile, error) {
	p := &Profile{}
	var skip int
	err := db.QueryRow(
		`SELECT user_id, coach_id, skip_coach, goal, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.CoachID, &skip, &p.Goal, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get profile %q: %w", userID, err)
	}
	p.SkipCoach = skip != 0
	return p, nil
}

// UpsertProfile creates or updates a profile. Check-in screens call this when
// a user first signs in; the coaching pipeline treats profiles as read-only.
func UpsertProfile(db *sql.DB, p *Profile) error {
	skip := 0
	if p.SkipCoach {
		skip = 1
	}
	_, err := db.Exec(
		`INSERT INTO profiles (user_id, coach_id, skip_coach, goal)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   coach_id = excluded.coach_id,
		   skip_coach = excluded.skip_coach,
		   goal = excluded.goal,
		   updated_at = CURRENT_TIMESTAMP`,
		p.UserID, p.CoachID, skip, p.Goal,
	)
	if err != nil {
		return fmt.Errorf("models: upsert profile %q: %w", p.UserID, err)
	}
	return nil
}
