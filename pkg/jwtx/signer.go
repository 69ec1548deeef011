package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("jwtx: signing secret is not configured")

	// ErrSigningFailed is returned when a token cannot be produced.
	ErrSigningFailed = errors.New("jwtx: signing failed")
)

// Issuer mints HS256 access tokens with a fixed lifetime.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	// Now is the clock used for iat/exp. Defaults to time.Now.
	Now func() time.Time
}

// NewIssuer builds an Issuer. A non-positive ttl falls back to
// DefaultAccessTokenTTL.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &Issuer{secret: secret, ttl: ttl, Now: time.Now}, nil
}

// Issue signs a token for the given user.
func (i *Issuer) Issue(userID int64, username, role string) (string, error) {
	if i == nil || len(i.secret) == 0 {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, ErrMissingSecret)
	}

	now := time.Now
	if i.Now != nil {
		now = i.Now
	}

	claims := NewClaims(userID, username, role, i.ttl, now())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return token, nil
}
