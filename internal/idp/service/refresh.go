package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
	"github.com/authsite/idp/internal/idp/store"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/idx"
)

// DefaultRefreshTokenTTL is how long a refresh token stays usable after it is written.
const DefaultRefreshTokenTTL = 14 * 24 * time.Hour

// RefreshTokenService owns the single refresh token per (user, client) pair.
type RefreshTokenService struct {
	Store store.Store
	TTL   time.Duration
	Now   func() time.Time
}

func (s *RefreshTokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return s.TTL
}

// Issue generates a fresh refresh token for the pair and stores it,
// replacing any previous one.
func (s *RefreshTokenService) Issue(ctx context.Context, userID int64, clientID string) (string, error) {
	return s.issue(ctx, s.Store.RefreshTokens(), userID, clientID)
}

func (s *RefreshTokenService) issue(ctx context.Context, repo store.RefreshTokens, userID int64, clientID string) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return "", err
	}
	return s.upsert(ctx, repo, userID, clientID, token)
}

// Upsert stores token for the pair with created_at now and a fresh expiry,
// overwriting any existing record. Concurrent upserts for the same pair
// resolve to whichever write lands last.
func (s *RefreshTokenService) Upsert(ctx context.Context, userID int64, clientID, token string) (string, error) {
	return s.upsert(ctx, s.Store.RefreshTokens(), userID, clientID, token)
}

func (s *RefreshTokenService) upsert(
	ctx context.Context,
	repo store.RefreshTokens,
	userID int64,
	clientID, token string,
) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty refresh token", ErrInvalidInput)
	}
	now := nowFrom(s.Now)
	err := repo.UpsertRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		ClientID:  clientID,
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	})
	if err != nil {
		return "", fmt.Errorf("upsert refresh token: %w", err)
	}
	return token, nil
}

// Get returns the record for the pair, or ErrNotFound.
func (s *RefreshTokenService) Get(ctx context.Context, userID int64, clientID string) (domain.RefreshToken, error) {
	rec, err := s.Store.RefreshTokens().GetRefreshToken(ctx, userID, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("get refresh token: %w", err)
	}
	return rec, nil
}

// DeleteAll removes every refresh token held by the user.
func (s *RefreshTokenService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	n, err := s.Store.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", err)
	}
	return n, nil
}

// IsExpired reports whether now is past the record's expiry.
func (s *RefreshTokenService) IsExpired(rec domain.RefreshToken) bool {
	return rec.ExpiredAt(nowFrom(s.Now))
}

// Matches compares a presented token with the stored record in constant time.
func (s *RefreshTokenService) Matches(rec domain.RefreshToken, token string) bool {
	return token != "" && cryptox.MatchesFingerprint(token, rec.TokenHash)
}

// Check reports whether token is the current, unexpired refresh token for
// the pair. A missing record is not an error.
func (s *RefreshTokenService) Check(ctx context.Context, userID int64, clientID, token string) (bool, error) {
	rec, err := s.Get(ctx, userID, clientID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Matches(rec, token) && !s.IsExpired(rec), nil
}
