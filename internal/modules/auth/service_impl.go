package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.StandardClaims
}

type service struct {
	key    []byte
	issuer string
}

// NewService creates a token service for HS256 tokens signed with secret.
// An empty issuer disables the iss check.
func NewService(secret, issuer string) Service {
	return &service{key: []byte(secret), issuer: issuer}
}

func (s *service) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if s.issuer != "" && !c.VerifyIssuer(s.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, c.Issuer)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{Subject: c.Subject, Email: c.Email}, nil
}

func (s *service) IssueToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := &claims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
}
