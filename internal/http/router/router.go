package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/trackivity/web-bff/internal/config"
	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/health"
	"github.com/trackivity/web-bff/internal/http/handler"
	"github.com/trackivity/web-bff/internal/http/middleware"
	"github.com/trackivity/web-bff/internal/http/page"
	"github.com/trackivity/web-bff/internal/http/proxy"
)

type Dependencies struct {
	Config      *config.Config
	Logger      *slog.Logger
	Gate        *middleware.Gate
	Auth        *handler.AuthHandler
	Activities  *handler.ActivityHandler
	Proxy       *proxy.Gateway
	Health      *health.Runner
	AuthLimiter *middleware.RateLimiter
	APILimiter  *middleware.RateLimiter
}

// New assembles the full route tree. Local handlers shadow their /api paths;
// everything else under /api falls through to the reverse proxy.
func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(deps.Config.CSRFTrustedOrigins))
	r.Use(middleware.BodyLimit(deps.Config.BodyLimitBytes))
	r.Use(middleware.CSRFOriginCheck(deps.Config.CSRFTrustedOrigins))

	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)

	r.Group(func(pages chi.Router) {
		pages.Use(deps.Gate.OptionalIdentity)
		backendURL := deps.Config.PublicBackendURL
		pages.Get("/login", page.Handler(page.LoginGuard, backendURL))
		pages.Get("/register", page.Handler(page.RegisterGuard, backendURL))
		pages.Get("/dashboard", page.Handler(page.DashboardGuard, backendURL))
		pages.Get("/admin", page.Handler(page.AdminGuard, backendURL))
		pages.Get("/admin/login", page.Handler(page.AdminLoginGuard, backendURL))
	})

	r.Route("/api", func(api chi.Router) {
		if deps.APILimiter != nil {
			api.Use(deps.APILimiter.Middleware())
		}

		api.Route("/auth", func(auth chi.Router) {
			if deps.AuthLimiter != nil {
				auth.Use(deps.AuthLimiter.Middleware())
			}
			auth.Post("/login", deps.Auth.Login)
			auth.Post("/logout", deps.Auth.Logout)
			auth.Post("/refresh", deps.Auth.Refresh)
			auth.Post("/register", deps.Auth.Register)
			auth.With(deps.Gate.RequireIdentity).Get("/me", deps.Auth.Me)
		})

		api.With(deps.Gate.RequireIdentity).
			Post("/activities/{id}/participate", deps.Activities.Participate)
		api.Get("/organizations/{id}/departments/public", deps.Activities.PublicDepartments)

		api.Route("/admin", func(admin chi.Router) {
			admin.With(deps.Gate.RequireAdmin(domain.AdminLevelRegular, nil)).
				Get("/summary", deps.Activities.AdminSummary)
			admin.With(deps.Gate.RequireAdmin(domain.AdminLevelRegular, orgFromURLParam)).
				Get("/organizations/{id}/summary", deps.Activities.OrganizationSummary)
		})

		// Everything else under /api belongs to the backend.
		api.Handle("/*", deps.Proxy)
	})

	if deps.Config.EnableOTelHTTP {
		return otelhttp.NewHandler(r, "http.server")
	}
	return r
}

// orgFromURLParam parses {id} the same way the handlers do, so the admin
// gate and the handler always agree on which organization is requested.
func orgFromURLParam(r *http.Request) (uint, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
