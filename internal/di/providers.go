// Package di assembles the server from its parts. The injector is generated
// by google/wire from the provider set below.
package di

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/trackivity/web-bff/internal/app"
	"github.com/trackivity/web-bff/internal/backend"
	"github.com/trackivity/web-bff/internal/config"
	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/health"
	"github.com/trackivity/web-bff/internal/http/handler"
	"github.com/trackivity/web-bff/internal/http/middleware"
	"github.com/trackivity/web-bff/internal/http/proxy"
	"github.com/trackivity/web-bff/internal/http/router"
	"github.com/trackivity/web-bff/internal/observability"
	"github.com/trackivity/web-bff/internal/repository"
	"github.com/trackivity/web-bff/internal/security"
)

// Repositories bundles the three legacy-data repositories so wire has one
// provider for them; they switch together on DATABASE_URL.
type Repositories struct {
	Activities     repository.ActivityRepository
	Participations repository.ParticipationRepository
	Departments    repository.DepartmentRepository
}

// Limiters distinguishes the two rate limiter instances by field, since both
// share one Go type.
type Limiters struct {
	Auth *middleware.RateLimiter
	API  *middleware.RateLimiter
}

func ProvideRuntime(ctx context.Context, cfg *config.Config) (*observability.Runtime, error) {
	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return observability.InitRuntime(ctx, cfg, boot)
}

func ProvideLogger(cfg *config.Config, rt *observability.Runtime) *slog.Logger {
	return observability.NewLogger(cfg, rt.LoggerProvider)
}

func ProvideCodec(cfg *config.Config) *security.SessionCodec {
	return security.NewSessionCodec(cfg.SessionIssuer, cfg.SessionAudience, cfg.SessionSecret)
}

func ProvideBackendClient(cfg *config.Config, logger *slog.Logger) *backend.Client {
	return backend.NewClient(cfg.BackendURL, nil, logger)
}

func ProvideDatabase(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, legacy endpoints disabled")
		return nil, nil
	}
	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db,
		&domain.Organization{},
		&domain.Department{},
		&domain.Activity{},
		&domain.Participation{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

func ProvideRepositories(db *gorm.DB) Repositories {
	if db == nil {
		return Repositories{
			Activities:     repository.NewDisabledActivityRepository(),
			Participations: repository.NewDisabledParticipationRepository(),
			Departments:    repository.NewDisabledDepartmentRepository(),
		}
	}
	return Repositories{
		Activities:     repository.NewActivityRepository(db),
		Participations: repository.NewParticipationRepository(db),
		Departments:    repository.NewDepartmentRepository(db),
	}
}

func ProvideGate(codec *security.SessionCodec) *middleware.Gate {
	return middleware.NewGate(codec)
}

func ProvideAuthHandler(client *backend.Client, codec *security.SessionCodec, logger *slog.Logger, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(client, codec, logger, cfg.SessionTTL, cfg.SessionRememberTTL, cfg.IsProduction())
}

func ProvideActivityHandler(repos Repositories, logger *slog.Logger) *handler.ActivityHandler {
	return handler.NewActivityHandler(repos.Activities, repos.Participations, repos.Departments, logger)
}

func ProvideProxy(cfg *config.Config, logger *slog.Logger) *proxy.Gateway {
	return proxy.NewGateway(cfg.BackendURL, nil, logger)
}

func ProvideHealthRunner(db *gorm.DB, cfg *config.Config) *health.Runner {
	checks := []health.Check{health.DatabaseCheck(db)}
	if cfg.BackendURL != "" {
		checks = append(checks, health.BackendCheck(cfg.BackendURL, nil))
	}
	return health.NewRunner(5*time.Second, checks...)
}

func ProvideLimiters(cfg *config.Config) Limiters {
	var backing middleware.Limiter
	if cfg.RedisAddr != "" {
		backing = middleware.NewRedisLimiter(
			redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
			"trackivity:ratelimit",
		)
	} else {
		backing = middleware.NewLocalLimiter()
	}
	return Limiters{
		Auth: middleware.NewRateLimiter(backing, cfg.AuthRateLimitRPM, time.Minute, "auth"),
		API:  middleware.NewRateLimiter(backing, cfg.APIRateLimitRPM, time.Minute, "api"),
	}
}

func ProvideHandler(
	cfg *config.Config,
	logger *slog.Logger,
	gate *middleware.Gate,
	auth *handler.AuthHandler,
	activities *handler.ActivityHandler,
	gateway *proxy.Gateway,
	runner *health.Runner,
	limiters Limiters,
) http.Handler {
	return router.New(router.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Gate:        gate,
		Auth:        auth,
		Activities:  activities,
		Proxy:       gateway,
		Health:      runner,
		AuthLimiter: limiters.Auth,
		APILimiter:  limiters.API,
	})
}

func ProvideServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func ProvideApp(cfg *config.Config, logger *slog.Logger, server *http.Server, rt *observability.Runtime) *app.App {
	// The session monitor is a per-client component; the server itself has
	// no session of its own to watch, so none is wired here.
	return app.New(cfg, logger, server, nil, rt)
}
