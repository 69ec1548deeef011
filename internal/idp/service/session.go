package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/authsite/idp/internal/idp/domain"
	"github.com/authsite/idp/internal/idp/store"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/jwtx"
	"github.com/authsite/idp/pkg/slogx"
)

// DefaultInternalClientID names the identity provider's own login site.
const DefaultInternalClientID = "auth_site"

type LoginRequest struct {
	// Identifier is a username, or an email when it has the shape of one.
	Identifier string
	Password   string
	ClientID   string
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
	ClientID string
}

// Completion is the outcome of a successful login or registration. For the
// internal client it carries both tokens to be set as cookies; for external
// clients it carries only the redirect URI with the authorization code.
type Completion struct {
	UserID       int64
	Username     string
	AccessToken  string
	RefreshToken string
	RedirectURI  string
}

// Internal reports whether the completion is for the internal client.
func (c *Completion) Internal() bool { return c.RedirectURI == "" }

// SessionService completes local logins and registrations.
type SessionService struct {
	Store            store.Store
	Hasher           *cryptox.Hasher
	Issuer           *jwtx.Issuer
	Refresh          *RefreshTokenService
	Broker           *AuthorizationCodeBroker
	InternalClientID string

	dummyOnce sync.Once
	dummyHash string
}

func (s *SessionService) internalClientID() string {
	if s.InternalClientID == "" {
		return DefaultInternalClientID
	}
	return s.InternalClientID
}

// Login verifies credentials and completes the session for the named client.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*Completion, error) {
	l := slogx.FromContext(ctx)

	client, err := s.resolveClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(req.Identifier)
	var user domain.User
	if IsEmail(identifier) {
		user, err = s.Store.Users().GetUserByEmail(ctx, identifier)
	} else {
		user, err = s.Store.Users().GetUserByUsername(ctx, identifier)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Spend the same hashing time as a real check.
		_ = s.Hasher.Verify(req.Password, s.dummy())
		l.Info("login failed", slog.String("reason", "unknown user"))
		return nil, ErrAuthenticationFailed
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.Hasher.Verify(req.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			l.Error("stored password hash unusable", slog.Int64("user_id", user.ID), slog.Any("err", err))
		}
		l.Info("login failed", slog.String("reason", "bad password"), slog.Int64("user_id", user.ID))
		return nil, ErrAuthenticationFailed
	}

	return s.complete(ctx, user, client)
}

// Register creates a player account and completes the session exactly like Login.
func (s *SessionService) Register(ctx context.Context, req RegisterRequest) (*Completion, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := ValidateRegistration(username, email, req.Password); err != nil {
		return nil, err
	}

	client, err := s.resolveClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.DefaultRole,
	}
	user.ID, err = s.Store.Users().CreateUser(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent registration.
		if err := s.checkAvailable(ctx, username, email); err != nil {
			return nil, err
		}
		return nil, &RegistrationError{UsernameTaken: true, EmailTaken: true}
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", slog.Int64("user_id", user.ID))
	return s.complete(ctx, user, client)
}

// Logout removes every refresh token the user holds.
func (s *SessionService) Logout(ctx context.Context, userID int64) (int64, error) {
	n, err := s.Refresh.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	slogx.FromContext(ctx).Info("user logged out", slog.Int64("user_id", userID), slog.Int64("refresh_tokens", n))
	return n, nil
}

func (s *SessionService) checkAvailable(ctx context.Context, username, email string) error {
	usernameTaken, err := s.Store.Users().UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	emailTaken, err := s.Store.Users().EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if usernameTaken || emailTaken {
		return &RegistrationError{UsernameTaken: usernameTaken, EmailTaken: emailTaken}
	}
	return nil
}

// resolveClient maps the requested client id to an active client. An empty
// id means the internal client.
func (s *SessionService) resolveClient(ctx context.Context, clientID string) (domain.Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		clientID = s.internalClientID()
	}

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Client{}, ErrInvalidClient
	}
	if err != nil {
		return domain.Client{}, fmt.Errorf("load client: %w", err)
	}
	if !client.Active {
		return domain.Client{}, ErrInvalidClient
	}
	return client, nil
}

func (s *SessionService) complete(ctx context.Context, user domain.User, client domain.Client) (*Completion, error) {
	if !user.Role.Valid() {
		return nil, fmt.Errorf("user %d has unknown role %q", user.ID, user.Role)
	}
	if !client.Internal {
		redirect, err := s.Broker.IssueCode(ctx, user.ID, client)
		if err != nil {
			return nil, err
		}
		return &Completion{UserID: user.ID, Username: user.Username, RedirectURI: redirect}, nil
	}

	access, err := s.Issuer.Issue(user.ID, user.Username, user.Role.String())
	if err != nil {
		return nil, err
	}
	refresh, err := s.Refresh.Issue(ctx, user.ID, client.ID)
	if err != nil {
		return nil, err
	}
	return &Completion{
		UserID:       user.ID,
		Username:     user.Username,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *SessionService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}
