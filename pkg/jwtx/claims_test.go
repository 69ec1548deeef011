package jwtx_test

import (
	"testing"
	"time"

	"github.com/authsite/idp/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewClaims(42, "alice_01", "player", time.Hour, now)

	require.Equal(t, int64(42), c.Subject)
	require.Equal(t, "alice_01", c.Username)
	require.Equal(t, "player", c.Role)
	require.True(t, now.Equal(c.IssuedAt.Time))
	require.True(t, now.Add(time.Hour).Equal(c.ExpiresAt.Time))
	require.NotEmpty(t, c.ID)

	other := jwtx.NewClaims(42, "alice_01", "player", time.Hour, now)
	require.NotEqual(t, c.ID, other.ID, "jti should be unique per token")
}

func TestClaims_RegisteredGetters(t *testing.T) {
	c := jwtx.NewClaims(7, "bob_user", "admin", time.Minute, time.Now())

	sub, err := c.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "7", sub)

	exp, err := c.GetExpirationTime()
	require.NoError(t, err)
	require.Equal(t, c.ExpiresAt, exp)

	nbf, err := c.GetNotBefore()
	require.NoError(t, err)
	require.Nil(t, nbf)

	var _ jwt.Claims = c
}
