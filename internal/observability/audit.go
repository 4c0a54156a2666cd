package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit emits one structured record per security-relevant action. Events go
// through the caller's logger so they follow the same export path as its
// other logs, tagged with the request id the envelope meta carries.
func Audit(logger *slog.Logger, r *http.Request, event string, attrs ...any) {
	args := make([]any, 0, 8+len(attrs))
	args = append(args,
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
	)
	args = append(args, attrs...)
	logger.InfoContext(r.Context(), "audit", args...)
}
