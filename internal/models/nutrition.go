package models

import (
	"database/sql"
	"fmt"
	"time"
)

// FoodEntry is a single logged food item.
type FoodEntry struct {
	ID        int64
	UserID    string
	Date      string // YYYY-MM-DD
	Name      string
	Calories  float64
	Protein   float64
	Carbs     float64
	Fat       float64
	CreatedAt time.Time
}

// NutritionTotals holds pass-through sums over a date window. No averages or
// derived metrics — interpretation is the message generator's job.
type NutritionTotals struct {
	Entries  int     `json:"entries"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	WaterML  int64   `json:"water_ml"`
}

// CreateFoodEntry inserts a food entry.
func CreateFoodEntry(db *sql.DB, e *FoodEntry) (*FoodEntry, error) {
	result, err := db.Exec(
		`INSERT INTO food_entries (user_id, date, name, calories, protein, carbs, fat)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, normalizeDate(e.Date), e.Name, e.Calories, e.Protein, e.Carbs, e.Fat,
	)
	if err != nil {
		return nil, fmt.Errorf("models: create food entry for %q: %w", e.UserID, err)
	}
	id, _ := result.LastInsertId()
	e.ID = id
	return e, nil
}

// CreateWaterEntry inserts a water entry.
func CreateWaterEntry(db *sql.DB, userID, date string, milliliters int64) error {
	_, err := db.Exec(
		`INSERT INTO water_entries (user_id, date, milliliters) VALUES (?, ?, ?)`,
		userID, normalizeDate(date), milliliters,
	)
	if err != nil {
		return fmt.Errorf("models: create water entry for %q: %w", userID, err)
	}
	return nil
}

// GetNutritionTotals sums a user's food and water entries with from <= date <= to.
func GetNutritionTotals(db *sql.DB, userID, from, to string) (*NutritionTotals, error) {
	t := &NutritionTotals{}
	err := db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(calories), 0), COALESCE(SUM(protein), 0),
		        COALESCE(SUM(carbs), 0), COALESCE(SUM(fat), 0)
		 FROM food_entries WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, normalizeDate(from), normalizeDate(to),
	).Scan(&t.Entries, &t.Calories, &t.Protein, &t.Carbs, &t.Fat)
	if err != nil {
		return nil, fmt.Errorf("models: nutrition totals for %q: %w", userID, err)
	}

	err = db.QueryRow(
		`SELECT COALESCE(SUM(milliliters), 0)
		 FROM water_entries WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, normalizeDate(from), normalizeDate(to),
	).Scan(&t.WaterML)
	if err != nil {
		return nil, fmt.Errorf("models: water totals for %q: %w", userID, err)
	}
	return t, nil
}
