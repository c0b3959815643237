package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/metrics"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/internal/auth/settings"
	"github.com/verticelabs/authcore/pkg/httpx"
	"github.com/verticelabs/authcore/pkg/jwtx"
	"github.com/verticelabs/authcore/pkg/slogx"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/verticelabs/authcore/api/auth" // Swagger docs
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics

	AuthService      *service.AuthService
	UserService      *service.UserService
	TenantService    *service.TenantService
	BootstrapService *service.BootstrapService

	Flags         *settings.Flags
	SettingsStore settings.Store

	// ReadinessChecks are run by /readyz, keyed by the name reported back.
	ReadinessChecks map[string]ReadinessCheck
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		metrics:      m,
	}

	// Set default middleware chain. The metrics middleware must sit next to
	// the mux to see the matched pattern.
	r.middlewares = []httpx.Middleware{
		slogx.Middleware(r.logger),
		r.metrics.Middleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMe()
	r.registerAdmin()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Authcore API
//	@version		0.1.0
//	@description	Multi-tenant authentication: email and password sign in with optional emailed 2FA codes,
//	@description	rotating refresh tokens with reuse detection, and HS256 access tokens.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authenticated verifies the bearer token and resolves the acting tenant.
// With roles set the principal must hold at least one of them.
func (r *Router) authenticated(h http.Handler, roles ...string) http.Handler {
	mws := []httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		httpx.TenantResolver(),
	}
	if len(roles) > 0 {
		mws = append(mws, httpx.RequireRole(roles...))
	}
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential and code guessing is limited per email, falling back to
	// the client IP when the body has none.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /v1/auth/verify-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyTwoFactor),
			httpx.RateLimitByJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/me", r.authenticated(http.HandlerFunc(h.HandleMe)))
	r.Mux.Handle("PUT /v1/me/2fa", r.authenticated(http.HandlerFunc(h.HandleSetTwoFactor)))
}

func (r *Router) registerAdmin() {
	users := &AdminUsersHandler{UserService: r.UserService}
	tenants := &AdminTenantsHandler{TenantService: r.TenantService}
	flags := &SettingsHandler{Flags: r.Flags, Store: r.SettingsStore}

	r.Mux.Handle("POST /v1/admin/users",
		r.authenticated(http.HandlerFunc(users.HandleRegister), domain.RoleSuperAdmin, domain.RoleTenantAdmin))
	r.Mux.Handle("POST /v1/admin/users/{id}/deactivate",
		r.authenticated(http.HandlerFunc(users.HandleDeactivate), domain.RoleSuperAdmin, domain.RoleTenantAdmin))

	r.Mux.Handle("POST /v1/admin/tenants",
		r.authenticated(http.HandlerFunc(tenants.HandleCreate), domain.RoleSuperAdmin))
	r.Mux.Handle("GET /v1/admin/tenants",
		r.authenticated(http.HandlerFunc(tenants.HandleList), domain.RoleSuperAdmin))
	r.Mux.Handle("PATCH /v1/admin/tenants/{id}",
		r.authenticated(http.HandlerFunc(tenants.HandleUpdate), domain.RoleSuperAdmin))

	r.Mux.Handle("GET /v1/admin/settings/force-2fa",
		r.authenticated(http.HandlerFunc(flags.HandleGetForceTwoFactor), domain.RoleSuperAdmin))
	r.Mux.Handle("PUT /v1/admin/settings/force-2fa",
		r.authenticated(http.HandlerFunc(flags.HandleSetForceTwoFactor), domain.RoleSuperAdmin))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.ReadinessChecks))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
