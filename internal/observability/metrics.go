package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "creator-marketplace-service"

var (
	metricsOnce sync.Once

	repositoryOps   metric.Int64Counter
	authEvents      metric.Int64Counter
	sessionEvents   metric.Int64Counter
	sessionsRevoked metric.Int64Counter
	sessionsSwept   metric.Int64Counter
)

func initMetrics() {
	meter := otel.GetMeterProvider().Meter(meterName)
	repositoryOps, _ = meter.Int64Counter("repository_operations_total",
		metric.WithDescription("Repository operations by entity, operation and outcome"))
	authEvents, _ = meter.Int64Counter("auth_events_total",
		metric.WithDescription("Authentication flow events by flow and outcome"))
	sessionEvents, _ = meter.Int64Counter("session_management_events_total",
		metric.WithDescription("Session management operations by action and outcome"))
	sessionsRevoked, _ = meter.Int64Counter("sessions_revoked_total",
		metric.WithDescription("Sessions revoked, labeled by trigger"))
	sessionsSwept, _ = meter.Int64Counter("sessions_swept_total",
		metric.WithDescription("Expired sessions marked inactive by the sweeper"))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	metricsOnce.Do(initMetrics)
	repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthEvent(ctx context.Context, flow, outcome string) {
	metricsOnce.Do(initMetrics)
	authEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}

func RecordSessionManagementEvent(ctx context.Context, action, outcome string) {
	metricsOnce.Do(initMetrics)
	sessionEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordSessionRevokedCount(ctx context.Context, trigger string, count int64) {
	metricsOnce.Do(initMetrics)
	if count <= 0 {
		return
	}
	sessionsRevoked.Add(ctx, count, metric.WithAttributes(attribute.String("trigger", trigger)))
}

func RecordSessionsSwept(ctx context.Context, count int64) {
	metricsOnce.Do(initMetrics)
	if count <= 0 {
		return
	}
	sessionsSwept.Add(ctx, count)
}
