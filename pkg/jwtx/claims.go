package jwtx

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is the lifetime of an access token when none is configured.
const DefaultAccessTokenTTL = time.Hour

// Claims are the access-token claims. The subject is the numeric user id,
// carried as a JSON number rather than the registered string form.
type Claims struct {
	Subject   int64            `json:"sub"`
	Username  string           `json:"username"`
	Role      string           `json:"role"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
	ID        string           `json:"jti,omitempty"`
}

var _ jwt.Claims = Claims{}

// NewClaims builds claims for a user valid for ttl from now.
func NewClaims(userID int64, username, role string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		Subject:   userID,
		Username:  username,
		Role:      role,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

func (c Claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Subject, 10), nil
}
