package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
	idphttp "github.com/authsite/idp/internal/idp/http"
	"github.com/authsite/idp/internal/idp/service"
	"github.com/authsite/idp/internal/idp/session"
	"github.com/authsite/idp/internal/idp/store/drivers/sqlite"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	gameClientID     = "game_site"
	gameClientSecret = "game-site-secret-value"
	gameRedirectURI  = "https://game.example.com/auth/callback"
)

type server struct {
	router   *idphttp.Router
	store    *sqlite.Store
	hasher   *cryptox.Hasher
	issuer   *jwtx.Issuer
	verifier *jwtx.Verifier
	refresh  *service.RefreshTokenService
	now      time.Time
	addr     atomic.Int64
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	s := &server{store: st, hasher: cryptox.NewHasher(""), now: time.Now().UTC().Truncate(time.Second)}
	clock := func() time.Time { return s.now }

	secret := []byte("http-test-secret")
	s.issuer, err = jwtx.NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	s.issuer.Now = clock
	s.verifier = jwtx.NewVerifier(secret)
	s.verifier.Now = clock

	s.refresh = &service.RefreshTokenService{Store: st, Now: clock}
	broker := &service.AuthorizationCodeBroker{Store: st, Hasher: s.hasher, Refresh: s.refresh, Now: clock}
	clients := &service.ClientService{Store: st, Hasher: s.hasher}
	require.NoError(t, clients.EnsureInternal(ctx, service.DefaultInternalClientID, "Auth Site", "auth.example.com"))
	_, err = clients.Seed(ctx, []service.ClientSeed{
		{ClientID: gameClientID, SiteName: "Game", RedirectURI: gameRedirectURI, ClientSecret: gameClientSecret},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := idphttp.NewRouter("test", st, logger)
	r.Cookies = session.CookieFactory{Secure: true}
	r.Authenticator = &session.Authenticator{
		Verifier: s.verifier,
		Issuer:   s.issuer,
		Refresh:  s.refresh,
		ClientID: service.DefaultInternalClientID,
	}
	r.Sessions = &service.SessionService{
		Store:   st,
		Hasher:  s.hasher,
		Issuer:  s.issuer,
		Refresh: s.refresh,
		Broker:  broker,
	}
	r.Broker = broker
	r.ApplyRoutes()
	s.router = r
	return s
}

func (s *server) createUser(t *testing.T, username, email, password string) domain.User {
	t.Helper()
	hash, err := s.hasher.Hash(password)
	require.NoError(t, err)
	u := domain.User{Username: username, Email: email, PasswordHash: hash, Role: domain.RolePlayer}
	u.ID, err = s.store.Users().CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

// do sends a request from a distinct remote address so per-IP rate limits
// do not interfere across calls.
func (s *server) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = fmt.Sprintf("10.0.0.%d:4000", s.addr.Add(1)%250+1)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
