package domain

import "time"

// RefreshToken is the stored refresh credential for one (user, client) pair.
// Only a fingerprint of the token value is persisted.
type RefreshToken struct {
	ID        string
	UserID    int64
	ClientID  string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the record has expired at now. A record is
// still usable at exactly its expiry instant.
func (t RefreshToken) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
