package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/authsite/idp/internal/idp/domain"
	"github.com/authsite/idp/internal/idp/store"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/idx"
	"github.com/authsite/idp/pkg/slogx"
)

// DefaultAuthorizationCodeTTL bounds how long an issued code can be exchanged.
const DefaultAuthorizationCodeTTL = 5 * time.Minute

// AuthorizationCodeBroker hands external client sites a one-time code after
// login and trades it, server to server, for the user's identity and a
// refresh token.
type AuthorizationCodeBroker struct {
	Store   store.Store
	Hasher  *cryptox.Hasher
	Refresh *RefreshTokenService
	CodeTTL time.Duration
	Now     func() time.Time
}

// ExchangeResult is what a client site learns about the user after a
// successful exchange.
type ExchangeResult struct {
	UserID       int64
	Username     string
	Role         domain.Role
	RefreshToken string
}

func (b *AuthorizationCodeBroker) codeTTL() time.Duration {
	if b.CodeTTL <= 0 {
		return DefaultAuthorizationCodeTTL
	}
	return b.CodeTTL
}

// IssueCode stores a new code bound to (userID, client) and returns the
// client's redirect URI carrying it as the code query parameter.
func (b *AuthorizationCodeBroker) IssueCode(ctx context.Context, userID int64, client domain.Client) (string, error) {
	if client.RedirectURI == "" {
		return "", fmt.Errorf("client %s has no redirect uri", client.ID)
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := nowFrom(b.Now)
	err = b.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		ClientID:  client.ID,
		CodeHash:  cryptox.FingerprintToken(code),
		CreatedAt: now,
		ExpiresAt: now.Add(b.codeTTL()),
	})
	if err != nil {
		return "", fmt.Errorf("store authorization code: %w", err)
	}

	return redirectWithCode(client.RedirectURI, code), nil
}

func redirectWithCode(redirectURI, code string) string {
	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	return redirectURI + sep + "code=" + url.QueryEscape(code)
}

// Exchange redeems code for clientID. Failures are checked in a fixed order:
// unknown code, expired code, unknown client, bad secret or wrong client.
// The code is consumed, the user loaded and a refresh token written in one
// transaction, so a code can be redeemed at most once.
func (b *AuthorizationCodeBroker) Exchange(
	ctx context.Context,
	code, clientID, clientSecret string,
) (*ExchangeResult, error) {
	l := slogx.FromContext(ctx)
	now := nowFrom(b.Now)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	authCode, err := b.Store.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load authorization code: %w", err)
	}

	if authCode.ExpiredAt(now) {
		l.Info("authorization code expired", slog.String("client_id", clientID))
		return nil, ErrAuthenticationFailed
	}

	client, err := b.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}
	if authCode.ClientID != client.ID {
		l.Warn("authorization code presented by another client",
			slog.String("client_id", clientID),
			slog.String("code_client_id", authCode.ClientID),
		)
		return nil, ErrAuthenticationFailed
	}

	var result *ExchangeResult
	err = b.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AuthorizationCodes().ConsumeAuthorizationCode(ctx, authCode.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, authCode.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		refresh, err := b.Refresh.issue(ctx, tx.RefreshTokens(), user.ID, authCode.ClientID)
		if err != nil {
			return err
		}

		result = &ExchangeResult{
			UserID:       user.ID,
			Username:     user.Username,
			Role:         user.Role,
			RefreshToken: refresh,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("authorization code exchanged",
		slog.String("client_id", client.ID),
		slog.Int64("user_id", result.UserID),
	)
	return result, nil
}

// CheckRefresh authenticates the client and reports whether token is the
// user's current refresh token for it.
func (b *AuthorizationCodeBroker) CheckRefresh(
	ctx context.Context,
	userID int64,
	clientID, clientSecret, token string,
) (bool, error) {
	client, err := b.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return false, err
	}
	return b.Refresh.Check(ctx, userID, client.ID, token)
}

// authenticateClient loads clientID and verifies its secret. Unknown clients
// yield ErrNotFound; wrong secrets, inactive clients and the secretless
// internal client yield ErrAuthenticationFailed.
func (b *AuthorizationCodeBroker) authenticateClient(ctx context.Context, clientID, secret string) (domain.Client, error) {
	client, err := b.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrNotFound
		}
		return domain.Client{}, fmt.Errorf("load client: %w", err)
	}

	if client.SecretHash == "" || secret == "" || !client.Active {
		return domain.Client{}, ErrAuthenticationFailed
	}
	if err := b.Hasher.Verify(secret, client.SecretHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			slogx.FromContext(ctx).Error("client secret hash unusable",
				slog.String("client_id", clientID), slog.Any("err", err))
		}
		return domain.Client{}, ErrAuthenticationFailed
	}
	return client, nil
}
