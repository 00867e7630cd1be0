package models

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// APIToken is a locally issued bearer token for development and test
// deployments that run without the hosted identity provider. Only the SHA-256
// hash is stored.
type APIToken struct {
	ID         int64
	UserID     string
	TokenHash  string
	Label      sql.NullString
	ExpiresAt  sql.NullTime
	CreatedAt  time.Time
	LastUsedAt sql.NullTime
}

// IsExpired returns true if the token has an expiry date that has passed.
func (t *APIToken) IsExpired() bool {
	return t.ExpiresAt.Valid && t.ExpiresAt.Time.Before(time.Now())
}

// hashToken returns the hex-encoded SHA-256 digest of a token string.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateAPIToken generates a new token for the given user and stores its hash.
// The plaintext token is returned exactly once; it cannot be recovered later.
// Label is optional (e.g. "ios-dev"). expiresAt nil means no expiry.
func CreateAPIToken(db *sql.DB, userID, label string, expiresAt *time.Time) (string, *APIToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("models: generate api token: %w", err)
	}
	token := hex.EncodeToString(buf)

	var labelVal sql.NullString
	if label != "" {
		labelVal = sql.NullString{String: label, Valid: true}
	}
	var expiresVal sql.NullTime
	if expiresAt != nil {
		expiresVal = sql.NullTime{Time: *expiresAt, Valid: true}
	}

	result, err := db.Exec(
		`INSERT INTO api_tokens (user_id, token_hash, label, expires_at) VALUES (?, ?, ?, ?)`,
		userID, hashToken(token), labelVal, expiresVal,
	)
	if err != nil {
		return "", nil, fmt.Errorf("models: create api token for %q: %w", userID, err)
	}

	id, _ := result.LastInsertId()
	return token, &APIToken{
		ID:        id,
		UserID:    userID,
		TokenHash: hashToken(token),
		Label:     labelVal,
		ExpiresAt: expiresVal,
		CreatedAt: time.Now(),
	}, nil
}

// LookupAPIToken resolves a plaintext token to its record. Returns ErrNotFound
// for unknown or expired tokens, and touches last_used_at on success.
func LookupAPIToken(db *sql.DB, token string) (*APIToken, error) {
	t := &APIToken{}
	err := db.QueryRow(
		`SELECT id, user_id, token_hash, label, expires_at, created_at, last_used_at
		 FROM api_tokens WHERE token_hash = ?`, hashToken(token),
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Label, &t.ExpiresAt, &t.CreatedAt, &t.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: lookup api token: %w", err)
	}
	if t.IsExpired() {
		return nil, ErrNotFound
	}

	_, _ = db.Exec(`UPDATE api_tokens SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, t.ID)
	return t, nil
}
