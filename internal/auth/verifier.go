// Package auth verifies bearer credentials. Identity is owned by an external
// provider; this service only ever learns a user id from a verified token,
// never from request bodies.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for missing, malformed, expired, or rejected
// credentials. Callers map it to 401 without further detail.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the verified caller.
type Identity struct {
	UserID string `json:"userId"`
}

// Verifier validates a bearer token and returns the identity it proves.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
