package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/authsite/idp/internal/idp/service"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenService_IssueAndCheck(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "alice_01", "alice@example.com", "secret1")

	token, err := e.refresh.Issue(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(token), 64)

	ok, err := e.refresh.Check(ctx, u.ID, gameClientID, token)
	require.NoError(t, err)
	require.True(t, ok)

	rec, err := e.refresh.Get(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	require.NotEqual(t, token, rec.TokenHash, "raw token must not be stored")
	require.True(t, e.clock.Now().Add(14*24*time.Hour).Equal(rec.ExpiresAt))
	require.True(t, e.refresh.Matches(rec, token))
	require.False(t, e.refresh.Matches(rec, token+"x"))
	require.False(t, e.refresh.Matches(rec, ""))
}

func TestRefreshTokenService_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "alice_01", "alice@example.com", "secret1")

	first, err := e.refresh.Upsert(ctx, u.ID, gameClientID, "first-token-value")
	require.NoError(t, err)
	require.Equal(t, "first-token-value", first)

	e.clock.Advance(time.Hour)
	_, err = e.refresh.Upsert(ctx, u.ID, gameClientID, "second-token-value")
	require.NoError(t, err)

	ok, err := e.refresh.Check(ctx, u.ID, gameClientID, "first-token-value")
	require.NoError(t, err)
	require.False(t, ok, "previous token is replaced")

	ok, err = e.refresh.Check(ctx, u.ID, gameClientID, "second-token-value")
	require.NoError(t, err)
	require.True(t, ok)

	rec, err := e.refresh.Get(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	require.True(t, e.clock.Now().Equal(rec.CreatedAt), "created_at is reset on overwrite")

	_, err = e.refresh.Upsert(ctx, u.ID, gameClientID, "")
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRefreshTokenService_PairsAreIndependent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "alice_01", "alice@example.com", "secret1")

	game, err := e.refresh.Issue(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	forum, err := e.refresh.Issue(ctx, u.ID, otherClientID)
	require.NoError(t, err)

	ok, err := e.refresh.Check(ctx, u.ID, otherClientID, game)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = e.refresh.Check(ctx, u.ID, otherClientID, forum)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRefreshTokenService_Expiry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "alice_01", "alice@example.com", "secret1")

	token, err := e.refresh.Issue(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	rec, err := e.refresh.Get(ctx, u.ID, gameClientID)
	require.NoError(t, err)

	e.clock.Advance(service.DefaultRefreshTokenTTL)
	require.False(t, e.refresh.IsExpired(rec), "usable at exactly the expiry instant")

	e.clock.Advance(time.Second)
	require.True(t, e.refresh.IsExpired(rec))

	ok, err := e.refresh.Check(ctx, u.ID, gameClientID, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRefreshTokenService_ExpiryKeepsSubSecondPrecision(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "alice_01", "alice@example.com", "secret1")

	e.clock.Advance(900 * time.Millisecond)
	issuedAt := e.clock.Now()
	token, err := e.refresh.Issue(ctx, u.ID, gameClientID)
	require.NoError(t, err)

	rec, err := e.refresh.Get(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	require.True(t, issuedAt.Add(service.DefaultRefreshTokenTTL).Equal(rec.ExpiresAt))

	e.clock.Advance(service.DefaultRefreshTokenTTL)
	require.False(t, e.refresh.IsExpired(rec))
	ok, err := e.refresh.Check(ctx, u.ID, gameClientID, token)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRefreshTokenService_MissingAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "alice_01", "alice@example.com", "secret1")

	_, err := e.refresh.Get(ctx, u.ID, gameClientID)
	require.ErrorIs(t, err, service.ErrNotFound)

	ok, err := e.refresh.Check(ctx, u.ID, gameClientID, "anything")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = e.refresh.Issue(ctx, u.ID, gameClientID)
	require.NoError(t, err)
	_, err = e.refresh.Issue(ctx, u.ID, service.DefaultInternalClientID)
	require.NoError(t, err)

	n, err := e.refresh.DeleteAll(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	_, err = e.refresh.Get(ctx, u.ID, service.DefaultInternalClientID)
	require.ErrorIs(t, err, service.ErrNotFound)
}
