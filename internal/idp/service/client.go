package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/authsite/idp/internal/idp/domain"
	"github.com/authsite/idp/internal/idp/store"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/slogx"
)

// ClientSeed describes an external client site supplied through configuration.
type ClientSeed struct {
	ClientID     string `json:"client_id"`
	SiteName     string `json:"site_name"`
	SiteDomain   string `json:"site_domain"`
	RedirectURI  string `json:"redirect_uri"`
	ClientSecret string `json:"client_secret"`
	LogoURL      string `json:"logo_url"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Inactive     bool   `json:"inactive"`
}

// Validate checks the fields a client site needs to take part in the code exchange.
func (c ClientSeed) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("%w: client %s: client_secret is required", ErrInvalidInput, c.ClientID)
	}
	u, err := url.Parse(c.RedirectURI)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: client %s: redirect_uri must be an absolute http(s) url", ErrInvalidInput, c.ClientID)
	}
	if u.Fragment != "" {
		return fmt.Errorf("%w: client %s: redirect_uri must not carry a fragment", ErrInvalidInput, c.ClientID)
	}
	return nil
}

// ClientService manages registered client sites.
type ClientService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// EnsureInternal creates the internal client when it does not exist yet.
func (s *ClientService) EnsureInternal(ctx context.Context, clientID, siteName, siteDomain string) error {
	err := s.Store.Clients().CreateClient(ctx, domain.Client{
		ID:         clientID,
		SiteName:   siteName,
		SiteDomain: siteDomain,
		Internal:   true,
		Active:     true,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create internal client: %w", err)
	}
	slogx.FromContext(ctx).Info("internal client created", slog.String("client_id", clientID))
	return nil
}

// Seed inserts every seed whose client id is not registered yet, hashing
// its secret. Existing clients are left untouched. It returns how many
// clients were created.
func (s *ClientService) Seed(ctx context.Context, seeds []ClientSeed) (int, error) {
	l := slogx.FromContext(ctx)
	created := 0

	for _, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return created, err
		}
		hash, err := s.Hasher.Hash(seed.ClientSecret)
		if err != nil {
			return created, fmt.Errorf("hash client secret: %w", err)
		}

		err = s.Store.Clients().CreateClient(ctx, domain.Client{
			ID:          seed.ClientID,
			SiteName:    seed.SiteName,
			SiteDomain:  seed.SiteDomain,
			RedirectURI: seed.RedirectURI,
			SecretHash:  hash,
			LogoURL:     seed.LogoURL,
			Description: seed.Description,
			Category:    seed.Category,
			Active:      !seed.Inactive,
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Debug("client already registered", slog.String("client_id", seed.ClientID))
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create client %s: %w", seed.ClientID, err)
		}
		created++
		l.Info("client registered", slog.String("client_id", seed.ClientID))
	}
	return created, nil
}

// RotateSecret replaces the client's secret and returns the new raw value.
// The raw secret is not stored and cannot be recovered later.
func (s *ClientService) RotateSecret(ctx context.Context, clientID string) (string, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load client: %w", err)
	}
	if client.Internal {
		return "", fmt.Errorf("%w: internal client has no secret", ErrInvalidInput)
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	hash, err := s.Hasher.Hash(secret)
	if err != nil {
		return "", fmt.Errorf("hash client secret: %w", err)
	}
	if err := s.Store.Clients().UpdateClientSecretHash(ctx, clientID, hash); err != nil {
		return "", fmt.Errorf("update client secret: %w", err)
	}

	slogx.FromContext(ctx).Info("client secret rotated", slog.String("client_id", clientID))
	return secret, nil
}
