package coaching

import (
	"fmt"
	"regexp"
	"time"
)

// dateLayout is the period-key format for both daily and weekly windows.
const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s is a well-formed YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// WeekEnd returns the last day of the 7-day window starting at weekStart.
func WeekEnd(weekStart string) (string, error) {
	t, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return "", fmt.Errorf("parse week start %q: %w", weekStart, err)
	}
	return t.AddDate(0, 0, 6).Format(dateLayout), nil
}

// Today returns the current date as a period key.
func Today() string {
	return time.Now().Format(dateLayout)
}
