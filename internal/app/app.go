// Package app owns the server lifecycle: serve until the context is
// cancelled, then drain HTTP, stop background tasks, and flush telemetry.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/trackivity/web-bff/internal/config"
	"github.com/trackivity/web-bff/internal/monitor"
	"github.com/trackivity/web-bff/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Monitor       *monitor.Monitor
	Observability *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, mon *monitor.Monitor, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Monitor: mon, Observability: runtime}
}

// Run blocks until ctx is cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening", "addr", a.Server.Addr, "env", a.Config.Env)
		if err := a.Server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down", "timeout", a.Config.ShutdownTimeout)

		if a.Monitor != nil {
			a.Monitor.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("http drain failed", "error", err)
			_ = a.Server.Close()
		}

		if a.Observability != nil {
			if err := a.Observability.Shutdown(shutdownCtx); err != nil {
				a.Logger.Error("telemetry flush failed", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}
