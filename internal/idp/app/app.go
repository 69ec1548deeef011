package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/authsite/idp/internal/idp/http"
	"github.com/authsite/idp/internal/idp/service"
	"github.com/authsite/idp/internal/idp/session"
	"github.com/authsite/idp/internal/idp/store"
	"github.com/authsite/idp/internal/idp/store/drivers/sqlite"
	"github.com/authsite/idp/pkg/cryptox"
	"github.com/authsite/idp/pkg/jwtx"
	"github.com/authsite/idp/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity provider with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	hasher   *cryptox.Hasher
	issuer   *jwtx.Issuer
	verifier *jwtx.Verifier

	refreshService      *service.RefreshTokenService
	broker              *service.AuthorizationCodeBroker
	sessionService      *service.SessionService
	clientService       *service.ClientService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "idp",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("%w: pepper: %w", ErrConfiguration, err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	app.issuer, err = jwtx.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	app.verifier = jwtx.NewVerifier([]byte(cfg.JWTSecret))

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.seedClients(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("identity provider starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity provider...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity provider stopped")
	return nil
}

// Close releases resources without running the server. Used when New
// succeeded but Run is never called.
func (app *Application) Close() error { return app.db.Close() }

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.refreshService = &service.RefreshTokenService{
		Store: app.db,
		TTL:   app.cfg.RefreshTokenTTL,
	}
	app.broker = &service.AuthorizationCodeBroker{
		Store:   app.db,
		Hasher:  app.hasher,
		Refresh: app.refreshService,
		CodeTTL: app.cfg.AuthCodeTTL,
	}
	app.sessionService = &service.SessionService{
		Store:            app.db,
		Hasher:           app.hasher,
		Issuer:           app.issuer,
		Refresh:          app.refreshService,
		Broker:           app.broker,
		InternalClientID: app.cfg.InternalClientID,
	}
	app.clientService = &service.ClientService{Store: app.db, Hasher: app.hasher}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) seedClients(ctx context.Context) error {
	ctx = slogx.WithContext(ctx, app.logger)

	err := app.clientService.EnsureInternal(ctx, app.cfg.InternalClientID, app.cfg.SiteName, app.cfg.SiteDomain)
	if err != nil {
		return fmt.Errorf("failed to seed internal client: %w", err)
	}

	n, err := app.clientService.Seed(ctx, app.cfg.Clients())
	if err != nil {
		return fmt.Errorf("failed to seed client sites: %w", err)
	}
	app.logger.Info("client sites seeded", "created", n, "configured", len(app.cfg.Clients()))

	clients, err := app.db.Clients().ListClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to list client sites: %w", err)
	}
	var active []string
	for _, c := range clients {
		if c.Active && !c.Internal {
			active = append(active, c.ID)
		}
	}
	app.logger.Info("client sites active", "clients", active)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	cookies := session.CookieFactory{Secure: app.cfg.CookieSecure}
	router.Cookies = cookies
	router.Authenticator = &session.Authenticator{
		Verifier: app.verifier,
		Issuer:   app.issuer,
		Refresh:  app.refreshService,
		ClientID: app.cfg.InternalClientID,
	}
	router.Sessions = app.sessionService
	router.Broker = app.broker
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
