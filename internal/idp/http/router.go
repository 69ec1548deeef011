package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/authsite/idp/internal/idp/service"
	"github.com/authsite/idp/internal/idp/session"
	"github.com/authsite/idp/internal/idp/store"
	"github.com/authsite/idp/pkg/httpx"
	"github.com/authsite/idp/pkg/slogx"

	_ "github.com/authsite/idp/api/idp" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Authenticator *session.Authenticator
	Cookies       session.CookieFactory
	Sessions      *service.SessionService
	Broker        *service.AuthorizationCodeBroker
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerClientSites()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Auth Site Identity Provider API
//	@version		0.1.0
//	@description	Local login and registration for the auth site, and the authorization-code handoff used by client sites.
//	@description
//	@description	Access tokens are HS256 JWTs carried in the jwt cookie and renewed silently from the refresh_token cookie.
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.Sessions, Cookies: r.Cookies}
	withSession := session.Middleware(r.Authenticator, r.Cookies)

	// Credential endpoints: strict, keyed by IP and the submitted identifier
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username_or_email"),
			withSession,
		),
	)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
			withSession,
		),
	)

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			withSession,
		),
	)
	r.Mux.Handle("GET /auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			httpx.RateLimitByIP(httpx.LenientLimit),
			withSession,
		),
	)
}

func (r *Router) registerClientSites() {
	h := &ExchangeHandler{Broker: r.Broker}

	// Called by client backends, never by browsers: no session cookies
	r.Mux.Handle("POST /verify_auth_code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyAuthCode),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /check_refresh",
		httpx.Chain(http.HandlerFunc(h.HandleCheckRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
