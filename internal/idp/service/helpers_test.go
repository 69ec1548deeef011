package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
	"github.com/authsite/idp/internal/idp/service"
	"github.com/authsite/idp/internal/idp/store/drivers/sqlite"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	gameClientID     = "game_site"
	gameClientSecret = "game-site-secret-value"
	gameRedirectURI  = "https://game.example.com/auth/callback"
	otherClientID    = "forum_site"
	otherSecret      = "forum-site-secret-value"
)

// testClock is a settable clock shared by every service in an env.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	store    *sqlite.Store
	hasher   *cryptox.Hasher
	issuer   *jwtx.Issuer
	verifier *jwtx.Verifier
	clock    *testClock
	refresh  *service.RefreshTokenService
	broker   *service.AuthorizationCodeBroker
	sessions *service.SessionService
	clients  *service.ClientService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	hasher := cryptox.NewHasher("test-pepper")

	secret := []byte("service-test-secret")
	issuer, err := jwtx.NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	issuer.Now = clock.Now
	verifier := jwtx.NewVerifier(secret)
	verifier.Now = clock.Now

	refresh := &service.RefreshTokenService{Store: s, Now: clock.Now}
	broker := &service.AuthorizationCodeBroker{Store: s, Hasher: hasher, Refresh: refresh, Now: clock.Now}
	clients := &service.ClientService{Store: s, Hasher: hasher}

	require.NoError(t, clients.EnsureInternal(ctx, service.DefaultInternalClientID, "Auth Site", "auth.example.com"))
	_, err = clients.Seed(ctx, []service.ClientSeed{
		{ClientID: gameClientID, SiteName: "Game", RedirectURI: gameRedirectURI, ClientSecret: gameClientSecret},
		{ClientID: otherClientID, SiteName: "Forum", RedirectURI: "https://forum.example.com/cb", ClientSecret: otherSecret},
	})
	require.NoError(t, err)

	return &env{
		store:    s,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		clock:    clock,
		refresh:  refresh,
		broker:   broker,
		clients:  clients,
		sessions: &service.SessionService{
			Store:   s,
			Hasher:  hasher,
			Issuer:  issuer,
			Refresh: refresh,
			Broker:  broker,
		},
	}
}

// createUser registers a user straight through the store.
func (e *env) createUser(t *testing.T, username, email, password string) domain.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)

	u := domain.User{Username: username, Email: email, PasswordHash: hash, Role: domain.RolePlayer}
	u.ID, err = e.store.Users().CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func (e *env) gameClient(t *testing.T) domain.Client {
	t.Helper()
	c, err := e.store.Clients().GetClientByID(context.Background(), gameClientID)
	require.NoError(t, err)
	return c
}
