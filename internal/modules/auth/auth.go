package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Identity is what a verified bearer token says about its holder.
type Identity struct {
	Subject string
	Email   string
}

// Service defines the interface for token verification.
type Service interface {
	// Verify checks signature, expiry and issuer and returns the token's identity.
	Verify(ctx context.Context, token string) (*Identity, error)
	// IssueToken signs a token for subject; used by tooling and tests.
	IssueToken(subject, email string, ttl time.Duration) (string, error)
}
