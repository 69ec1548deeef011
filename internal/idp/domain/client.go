package domain

import "time"

// Client is a registered site. The internal client is the identity
// provider's own login site; every other client is external and receives
// authorization codes.
type Client struct {
	ID          string
	SiteName    string
	SiteDomain  string
	RedirectURI string
	SecretHash  string // argon2 encoded, empty for the internal client
	LogoURL     string
	Description string
	Category    string
	Internal    bool
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
