package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// RemoteVerifier validates tokens against the hosted identity provider's
// verification endpoint.
type RemoteVerifier struct {
	verifyURL string
	client    *http.Client
}

// NewRemoteVerifier creates a verifier that POSTs tokens to verifyURL.
func NewRemoteVerifier(verifyURL string) *RemoteVerifier {
	return &RemoteVerifier{
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Verify sends the token to the identity provider and decodes the identity.
// Any non-200 answer is an invalid token from the caller's perspective;
// transport failures are surfaced so they map to 500, not 401.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("auth: marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", v.verifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("auth: create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			log.Printf("auth: identity provider returned %d", resp.StatusCode)
			return nil, fmt.Errorf("auth: identity provider returned %d", resp.StatusCode)
		}
		return nil, ErrInvalidToken
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, fmt.Errorf("auth: decode verify response: %w", err)
	}
	if ident.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &ident, nil
}
