package domain

import "time"

// AuthorizationCode is a short-lived, single-use grant binding a user to the
// external client that will exchange it.
type AuthorizationCode struct {
	ID        string
	UserID    int64
	ClientID  string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (c AuthorizationCode) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
