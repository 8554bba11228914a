package tracing

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const plannerTracerName = "github.com/KasumiMercury/primind-dose-reminder/internal/service/reconcile"

func PlannerTracer() trace.Tracer {
	return otel.Tracer(plannerTracerName)
}

func StartReconcileSpan(ctx context.Context, runID string, reasons []string, now time.Time) (context.Context, trace.Span) {
	return PlannerTracer().Start(ctx, "planner.reconcile",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("reasons", strings.Join(reasons, ",")),
			attribute.String("pass.now", now.Format(time.RFC3339)),
		),
	)
}

func StartComputeSpan(ctx context.Context) (context.Context, trace.Span) {
	return PlannerTracer().Start(ctx, "planner.compute")
}

func StartDeliverySpan(ctx context.Context, operation, notificationID string) (context.Context, trace.Span) {
	return PlannerTracer().Start(ctx, "planner.delivery."+operation,
		trace.WithAttributes(
			attribute.String("notification_id", notificationID),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordComputeResult(span trace.Span, windowDays, eventCount, notificationCount int, signature string, err error) {
	span.SetAttributes(
		attribute.Int("plan.window_days", windowDays),
		attribute.Int("plan.event_count", eventCount),
		attribute.Int("plan.notification_count", notificationCount),
		attribute.String("plan.signature", signature),
	)
	RecordError(span, err)
}

func RecordReconcileResult(span trace.Span, changed bool, scheduled, cancelled, skipped, failed int, err error) {
	span.SetAttributes(
		attribute.Bool("reconcile.changed", changed),
		attribute.Int("reconcile.scheduled_count", scheduled),
		attribute.Int("reconcile.cancelled_count", cancelled),
		attribute.Int("reconcile.skipped_count", skipped),
		attribute.Int("reconcile.failed_count", failed),
	)
	RecordError(span, err)
}

func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
