// Package session resolves the identity behind each browser request and
// silently renews expired access tokens from the refresh-token cookie.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/authsite/idp/internal/idp/domain"
	"github.com/authsite/idp/pkg/jwtx"
	"github.com/authsite/idp/pkg/slogx"
)

// RefreshChecker reports whether token is the live refresh token for the pair.
type RefreshChecker interface {
	Check(ctx context.Context, userID int64, clientID, token string) (bool, error)
}

// Outcome is the result of authenticating one request.
type Outcome struct {
	Identity domain.Identity

	// RenewedToken is a freshly minted access token when the presented one
	// had expired and the refresh token was accepted. Empty otherwise.
	RenewedToken string
}

// Authenticator turns the access and refresh cookies into an identity.
type Authenticator struct {
	Verifier *jwtx.Verifier
	Issuer   *jwtx.Issuer
	Refresh  RefreshChecker

	// ClientID is the internal client the refresh cookie belongs to.
	ClientID string
}

// Authenticate never fails for bad credentials: anything that does not
// verify yields a guest. The error return is reserved for storage failures
// and signing failures during renewal.
func (a *Authenticator) Authenticate(ctx context.Context, accessToken, refreshToken string) (Outcome, error) {
	if accessToken == "" {
		return Outcome{Identity: domain.Guest()}, nil
	}

	res := a.Verifier.Verify(accessToken)
	switch res.Verdict {
	case jwtx.Valid:
		return Outcome{Identity: identityFrom(res.Claims)}, nil
	case jwtx.Expired:
		return a.renew(ctx, res.Claims, refreshToken)
	default:
		return Outcome{Identity: domain.Guest()}, nil
	}
}

func (a *Authenticator) renew(ctx context.Context, claims jwtx.Claims, refreshToken string) (Outcome, error) {
	l := slogx.FromContext(ctx)
	if refreshToken == "" {
		return Outcome{Identity: domain.Guest()}, nil
	}

	ok, err := a.Refresh.Check(ctx, claims.Subject, a.ClientID, refreshToken)
	if err != nil {
		return Outcome{}, fmt.Errorf("check refresh token: %w", err)
	}
	if !ok {
		l.Info("session renewal refused", slog.Int64("user_id", claims.Subject))
		return Outcome{Identity: domain.Guest()}, nil
	}

	token, err := a.Issuer.Issue(claims.Subject, claims.Username, claims.Role)
	if err != nil {
		return Outcome{}, err
	}
	l.Debug("session renewed", slog.Int64("user_id", claims.Subject))
	return Outcome{Identity: identityFrom(claims), RenewedToken: token}, nil
}

func identityFrom(c jwtx.Claims) domain.Identity {
	return domain.Identity{
		UserID:   c.Subject,
		Username: c.Username,
		Role:     domain.Role(c.Role),
		LoggedIn: true,
	}
}
