package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "trackivity-web-bff"

type appMetrics struct {
	authEvents    metric.Int64Counter
	backendCalls  metric.Int64Counter
	proxyForwards metric.Int64Counter
	monitorChecks metric.Int64Counter
	repositoryOps metric.Int64Counter
	rateLimitHits metric.Int64Counter
	gateDecisions metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *appMetrics
)

// instruments are created lazily against the global meter so the helpers
// work both before InitMetrics installs the real provider and in tests.
func instruments() *appMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)
		m := &appMetrics{}
		var err error
		if m.authEvents, err = meter.Int64Counter("auth.events"); err != nil {
			return
		}
		if m.backendCalls, err = meter.Int64Counter("backend.calls"); err != nil {
			return
		}
		if m.proxyForwards, err = meter.Int64Counter("proxy.forwards"); err != nil {
			return
		}
		if m.monitorChecks, err = meter.Int64Counter("monitor.checks"); err != nil {
			return
		}
		if m.repositoryOps, err = meter.Int64Counter("repository.operations"); err != nil {
			return
		}
		if m.rateLimitHits, err = meter.Int64Counter("ratelimit.decisions"); err != nil {
			return
		}
		if m.gateDecisions, err = meter.Int64Counter("authgate.decisions"); err != nil {
			return
		}
		metrics = m
	})
	return metrics
}

func RecordAuthEvent(ctx context.Context, action, outcome string) {
	m := instruments()
	if m == nil {
		return
	}
	m.authEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordBackendCall(ctx context.Context, operation, outcome string) {
	m := instruments()
	if m == nil {
		return
	}
	m.backendCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordProxyForward(ctx context.Context, method string, status int) {
	m := instruments()
	if m == nil {
		return
	}
	m.proxyForwards.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	))
}

func RecordMonitorCheck(ctx context.Context, outcome string) {
	m := instruments()
	if m == nil {
		return
	}
	m.monitorChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := instruments()
	if m == nil {
		return
	}
	m.repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome string) {
	m := instruments()
	if m == nil {
		return
	}
	m.rateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordGateDecision(ctx context.Context, gate, outcome string) {
	m := instruments()
	if m == nil {
		return
	}
	m.gateDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gate", gate),
		attribute.String("outcome", outcome),
	))
}
