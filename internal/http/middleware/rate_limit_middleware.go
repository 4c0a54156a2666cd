package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/trackivity/web-bff/internal/http/response"
	"github.com/trackivity/web-bff/internal/observability"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// RateLimiter applies a fixed-window limit keyed by client IP. A limiter
// backend failure fails open: throttling is protection, not correctness.
type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	scope   string
}

func NewRateLimiter(limiter Limiter, limit int, window time.Duration, scope string) *RateLimiter {
	if limiter == nil {
		limiter = NewLocalLimiter()
	}
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{limiter: limiter, limit: limit, window: window, scope: scope}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := rl.limiter.Allow(r.Context(), clientIPKey(r), rl.limit, rl.window)
			if err != nil {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "backend_error")
				slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "scope", rl.scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			writeRateLimitHeaders(w.Header(), rl.limit, decision.Remaining)
			if !decision.Allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "deny")
				w.Header().Set("Retry-After", retryAfterSeconds(decision.RetryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

type localLimiter struct {
	mu    sync.Mutex
	hits  map[string][]time.Time
	sweep time.Time
}

func NewLocalLimiter() Limiter {
	return &localLimiter{hits: make(map[string][]time.Time), sweep: time.Now().Add(time.Minute)}
}

func (l *localLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := time.Now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweep) {
		for k, hits := range l.hits {
			if len(hits) == 0 || hits[len(hits)-1].Before(cutoff) {
				delete(l.hits, k)
			}
		}
		l.sweep = now.Add(window)
	}

	hits := l.hits[key]
	pruned := hits[:0]
	for _, h := range hits {
		if h.After(cutoff) {
			pruned = append(pruned, h)
		}
	}

	if len(pruned) >= limit {
		l.hits[key] = pruned
		retry := pruned[0].Add(window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	l.hits[key] = append(pruned, now)
	return Decision{Allowed: true, Remaining: limit - len(pruned) - 1}, nil
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}

func writeRateLimitHeaders(h http.Header, limit, remaining int) {
	if remaining < 0 {
		remaining = 0
	}
	h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
}
