package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClientForTest(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return client
}

func TestLocalLimiterDeniesBeyondLimit(t *testing.T) {
	limiter := NewLocalLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
		if err != nil || !d.Allowed {
			t.Fatalf("request %d should be allowed: %+v %v", i, d, err)
		}
	}
	d, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request in window should be denied")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %s", d.RetryAfter)
	}

	other, err := limiter.Allow(ctx, "5.6.7.8", 3, time.Minute)
	if err != nil || !other.Allowed {
		t.Fatalf("unrelated key should be unaffected: %+v %v", other, err)
	}
}

func TestRedisLimiterDeniesBeyondLimit(t *testing.T) {
	limiter := NewRedisLimiter(newRedisClientForTest(t), "test")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "1.2.3.4", 2, time.Minute)
		if err != nil || !d.Allowed {
			t.Fatalf("request %d should be allowed: %+v %v", i, d, err)
		}
	}
	d, err := limiter.Allow(ctx, "1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("third request in window should be denied")
	}
}

func TestRateLimiterMiddlewareReturns429Envelope(t *testing.T) {
	mw := NewRateLimiter(NewLocalLimiter(), 1, time.Minute, "auth").Middleware()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:40000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (Decision, error) {
	return Decision{}, context.DeadlineExceeded
}

func TestRateLimiterFailsOpenOnBackendError(t *testing.T) {
	mw := NewRateLimiter(failingLimiter{}, 1, time.Minute, "auth").Middleware()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", rr.Code)
	}
}
