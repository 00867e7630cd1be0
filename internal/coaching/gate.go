package coaching

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/carmody/pacecoach/internal/models"
)

// ErrNoCoachSelected is returned by a daily producer when the profile names
// no usable coach. The daily flow refuses rather than substituting a default
// persona; the weekly flow makes the opposite choice deliberately.
var ErrNoCoachSelected = errors.New("no coach selected")

// ProducedDaily is the output of a daily producer, ready to persist.
type ProducedDaily struct {
	Message   string
	CoachID   string
	CoachName string
}

// GetOrCreateDaily enforces at-most-one daily message per (user, date) via
// the deterministic key "{userId}_{date}". An existing row short-circuits
// without invoking produce. The existence-check-then-create pair is not
// transactional: a concurrent request can slip between the two, in which
// case the unique key turns the second insert into a re-read of the winner's
// row rather than a second message.
//
// Returns the stored message and whether this call created it.
func GetOrCreateDaily(db *sql.DB, userID, date string, produce func() (*ProducedDaily, error)) (*models.DailyCoachMessage, bool, error) {
	key := models.DailyMessageKey(userID, date)

	existing, err := models.GetDailyCoachMessage(db, key)
	if err == nil {
		return existing, false, nil
	}
	if err != models.ErrNotFound {
		return nil, false, fmt.Errorf("coaching: check existing daily message: %w", err)
	}

	produced, err := produce()
	if err != nil {
		return nil, false, err
	}

	msg := &models.DailyCoachMessage{
		ID:        key,
		UserID:    userID,
		Message:   produced.Message,
		Date:      date,
		CoachID:   produced.CoachID,
		CoachName: produced.CoachName,
	}
	err = models.InsertDailyCoachMessage(db, msg)
	if err == models.ErrDuplicateMessage {
		// Lost the race — return the winner's row.
		existing, err := models.GetDailyCoachMessage(db, key)
		if err != nil {
			return nil, false, fmt.Errorf("coaching: reload daily message after race: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("coaching: store daily message: %w", err)
	}

	return msg, true, nil
}

// CreateWeekly persists a weekly message. Unlike the daily flow there is no
// dedup key at this layer: every call stores a new inbox row with read=false.
func CreateWeekly(db *sql.DB, userID string, result *WeeklyResult, coach ResolvedCoach) (*models.WeeklyMessage, error) {
	msg := &models.WeeklyMessage{
		UserID:    userID,
		Subject:   result.Subject,
		Body:      result.Body,
		CoachID:   coach.ID,
		CoachName: coach.Name,
	}
	if err := models.InsertWeeklyMessage(db, msg); err != nil {
		return nil, fmt.Errorf("coaching: store weekly message: %w", err)
	}
	return msg, nil
}
