package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/authsite/idp/internal/idp/service"
	"github.com/caarlos0/env/v11"
)

// ErrConfiguration wraps every startup configuration failure. The process
// must not start when it is returned.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	JWTSecret    string `env:"JWT_SECRET,notEmpty"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`

	InternalClientID string `env:"IDP_CLIENT_ID"   envDefault:"auth_site"`
	SiteName         string `env:"IDP_SITE_NAME"   envDefault:"Auth Site"`
	SiteDomain       string `env:"IDP_SITE_DOMAIN" envDefault:"localhost"`

	// ClientsJSON is a JSON array of client sites, see service.ClientSeed.
	ClientsJSON string `env:"IDP_CLIENTS"`
	clients     []service.ClientSeed

	AccessTokenTTL  time.Duration `env:"IDP_ACCESS_TOKEN_TTL"  envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"IDP_REFRESH_TOKEN_TTL" envDefault:"336h"`
	AuthCodeTTL     time.Duration `env:"IDP_AUTH_CODE_TTL"     envDefault:"5m"`

	DatabaseFile string `env:"IDP_DATABASE_FILE" envDefault:"idp.db"`
	PepperFile   string `env:"IDP_PEPPER_FILE"   envDefault:"pepper"`

	Env                  string        `env:"ENV"                   envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                 int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if cfg.ClientsJSON != "" {
		if err := json.Unmarshal([]byte(cfg.ClientsJSON), &cfg.clients); err != nil {
			return Config{}, fmt.Errorf("%w: IDP_CLIENTS: %w", ErrConfiguration, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Clients returns the client sites decoded from IDP_CLIENTS.
func (c Config) Clients() []service.ClientSeed { return c.clients }

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required", ErrConfiguration)
	}
	if c.InternalClientID == "" {
		return fmt.Errorf("%w: IDP_CLIENT_ID must not be empty", ErrConfiguration)
	}
	for name, d := range map[string]time.Duration{
		"IDP_ACCESS_TOKEN_TTL":  c.AccessTokenTTL,
		"IDP_REFRESH_TOKEN_TTL": c.RefreshTokenTTL,
		"IDP_AUTH_CODE_TTL":     c.AuthCodeTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrConfiguration, name)
		}
	}

	seen := map[string]bool{c.InternalClientID: true}
	for _, seed := range c.clients {
		if err := seed.Validate(); err != nil {
			return fmt.Errorf("%w: IDP_CLIENTS: %w", ErrConfiguration, err)
		}
		if seen[seed.ClientID] {
			return fmt.Errorf("%w: IDP_CLIENTS: duplicate client_id %q", ErrConfiguration, seed.ClientID)
		}
		seen[seed.ClientID] = true
	}
	return nil
}
