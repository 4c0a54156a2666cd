//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/trackivity/web-bff/internal/app"
	"github.com/trackivity/web-bff/internal/config"
)

func InitializeApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	wire.Build(
		ProvideRuntime,
		ProvideLogger,
		ProvideCodec,
		ProvideBackendClient,
		ProvideDatabase,
		ProvideRepositories,
		ProvideGate,
		ProvideAuthHandler,
		ProvideActivityHandler,
		ProvideProxy,
		ProvideHealthRunner,
		ProvideLimiters,
		ProvideHandler,
		ProvideServer,
		ProvideApp,
	)
	return nil, nil
}
