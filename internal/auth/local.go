package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carmody/pacecoach/internal/models"
)

// LocalVerifier validates tokens against the api_tokens table. Used in
// development and test deployments that run without the hosted identity
// provider.
type LocalVerifier struct {
	db *sql.DB
}

// NewLocalVerifier creates a verifier backed by the local token table.
func NewLocalVerifier(db *sql.DB) *LocalVerifier {
	return &LocalVerifier{db: db}
}

// Verify resolves the token to its hashed row, honoring expiry.
func (v *LocalVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	t, err := models.LookupAPIToken(v.db, token)
	if err == models.ErrNotFound {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("auth: local token lookup: %w", err)
	}
	return &Identity{UserID: t.UserID}, nil
}
