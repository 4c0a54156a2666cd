package observability

import (
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/trackivity/web-bff/internal/config"
)

// NewLogger builds the process logger. With log export enabled the otelslog
// bridge ships records through the provider; otherwise plain handlers write
// to stdout (JSON in production, text elsewhere).
func NewLogger(cfg *config.Config, lp *sdklog.LoggerProvider) *slog.Logger {
	if cfg.OTELLogsEnabled && lp != nil {
		return slog.New(otelslog.NewHandler(cfg.OTELServiceName, otelslog.WithLoggerProvider(lp)))
	}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
