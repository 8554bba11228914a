package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	plannerMeterName = "planner.service"
)

const (
	OutcomeUnchanged = "unchanged"
	OutcomeApplied   = "applied"
	OutcomeFailed    = "failed"
)

type PlannerMetrics struct {
	passes                 metric.Int64Counter
	notificationsScheduled metric.Int64Counter
	notificationsCancelled metric.Int64Counter
	deliveryFailures       metric.Int64Counter
	passDuration           metric.Float64Histogram
	plannedEvents          metric.Int64Gauge
}

func NewPlannerMetrics() (*PlannerMetrics, error) {
	meter := otel.Meter(plannerMeterName)

	passes, err := meter.Int64Counter(
		"planner_passes_total",
		metric.WithDescription("Total number of reconciliation passes"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, err
	}

	notificationsScheduled, err := meter.Int64Counter(
		"planner_notifications_scheduled_total",
		metric.WithDescription("Total number of notifications handed to the delivery service"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	notificationsCancelled, err := meter.Int64Counter(
		"planner_notifications_cancelled_total",
		metric.WithDescription("Total number of notifications cancelled"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	deliveryFailures, err := meter.Int64Counter(
		"planner_delivery_failures_total",
		metric.WithDescription("Total number of failed delivery service calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	passDuration, err := meter.Float64Histogram(
		"planner_pass_duration_seconds",
		metric.WithDescription("Reconciliation pass duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	plannedEvents, err := meter.Int64Gauge(
		"planner_planned_events",
		metric.WithDescription("Number of notification events in the last computed plan"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &PlannerMetrics{
		passes:                 passes,
		notificationsScheduled: notificationsScheduled,
		notificationsCancelled: notificationsCancelled,
		deliveryFailures:       deliveryFailures,
		passDuration:           passDuration,
		plannedEvents:          plannedEvents,
	}, nil
}

func (m *PlannerMetrics) RecordPass(ctx context.Context, outcome string, duration time.Duration) {
	m.passes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *PlannerMetrics) RecordScheduled(ctx context.Context, kind string) {
	m.notificationsScheduled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *PlannerMetrics) RecordCancelled(ctx context.Context, reason string) {
	m.notificationsCancelled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (m *PlannerMetrics) RecordDeliveryFailure(ctx context.Context, operation string) {
	m.deliveryFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *PlannerMetrics) RecordPlannedEvents(ctx context.Context, count int) {
	m.plannedEvents.Record(ctx, int64(count))
}
