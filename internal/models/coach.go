package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UserCoach is a coach persona created by a single user for their own use.
type UserCoach struct {
	ID        string
	UserID    string
	Name      string
	Persona   string
	CreatedAt time.Time
}

// CommunityCoach is a coach persona shared to the community registry.
type CommunityCoach struct {
	ID        string
	Name      string
	Persona   string
	AuthorID  string
	CreatedAt time.Time
}

// CreateUserCoach inserts a user-owned coach.
func CreateUserCoach(db *sql.DB, c *UserCoach) error {
	_, err := db.Exec(
		`INSERT INTO user_coaches (id, user_id, name, persona) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Persona,
	)
	if err != nil {
		return fmt.Errorf("models: create user coach %q: %w", c.ID, err)
	}
	return nil
}

// GetUserCoach retrieves a user-owned coach by id.
func GetUserCoach(db *sql.DB, id string) (*UserCoach, error) {
	c := &UserCoach{}
	err := db.QueryRow(
		`SELECT id, user_id, name, persona, created_at FROM user_coaches WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Persona, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get user coach %q: %w", id, err)
	}
	return c, nil
}

// CreateCommunityCoach inserts a community-shared coach.
func CreateCommunityCoach(db *sql.DB, c *CommunityCoach) error {
	_, err := db.Exec(
		`INSERT INTO community_coaches (id, name, persona, author_id) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Persona, c.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("models: create community coach %q: %w", c.ID, err)
	}
	return nil
}

// GetCommunityCoach retrieves a community coach by id.
func GetCommunityCoach(db *sql.DB, id string) (*CommunityCoach, error) {
	c := &CommunityCoach{}
	err := db.QueryRow(
		`SELECT id, name, persona, author_id, created_at FROM community_coaches WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Persona, &c.AuthorID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get community coach %q: %w", id, err)
	}
	return c, nil
}
