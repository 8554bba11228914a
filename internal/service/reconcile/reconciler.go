package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/plan"
)

const (
	operationSchedule = "schedule"
	operationCancel   = "cancel"
	operationList     = "list"
)

// Reconciler keeps the delivery service in line with the computed plan.
// Passes never overlap; triggers are coalesced by a single worker.
type Reconciler struct {
	planner   Planner
	taskQueue taskqueue.TaskQueue
	clock     domain.Clock
	recorder  domain.PlanResultRecorder
	metrics   *metrics.PlannerMetrics
	debounce  time.Duration
	lead      time.Duration

	trigger   chan struct{}
	reasonsMu sync.Mutex
	reasons   []string

	passMu  sync.Mutex
	running atomic.Bool

	stateMu       sync.RWMutex
	lastSignature plan.Signature
	lastPlan      *plan.Plan
	lastResult    *Result
}

func NewReconciler(
	planner Planner,
	taskQueue taskqueue.TaskQueue,
	clock domain.Clock,
	recorder domain.PlanResultRecorder,
	plannerMetrics *metrics.PlannerMetrics,
	cfg *config.PlannerConfig,
) *Reconciler {
	return &Reconciler{
		planner:   planner,
		taskQueue: taskQueue,
		clock:     clock,
		recorder:  recorder,
		metrics:   plannerMetrics,
		debounce:  cfg.Debounce,
		lead:      cfg.ScheduleLead,
		trigger:   make(chan struct{}, 1),
	}
}

// RequestPlanning asks for a pass. It never blocks; bursts of requests
// collapse into one pass.
func (r *Reconciler) RequestPlanning(reason string) {
	r.reasonsMu.Lock()
	if !slices.Contains(r.reasons, reason) {
		r.reasons = append(r.reasons, reason)
	}
	r.reasonsMu.Unlock()

	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Reconciler) takeReasons() []string {
	r.reasonsMu.Lock()
	defer r.reasonsMu.Unlock()
	reasons := r.reasons
	r.reasons = nil
	return reasons
}

func (r *Reconciler) pending() bool {
	r.reasonsMu.Lock()
	defer r.reasonsMu.Unlock()
	return len(r.reasons) > 0
}

// Run processes planning requests until ctx is done. Each request restarts
// the debounce timer; a request that arrives during a pass runs a
// follow-up pass as soon as the current one returns.
func (r *Reconciler) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-r.trigger:
			if r.debounce <= 0 {
				r.drain(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Reset(r.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			r.drain(ctx)
		}
	}
}

func (r *Reconciler) drain(ctx context.Context) {
	for ctx.Err() == nil {
		reasons := r.takeReasons()
		if _, err := r.Reconcile(ctx, reasons...); err != nil {
			slog.ErrorContext(ctx, "planning pass failed",
				slog.String("event", "planner.pass.fail"),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-r.trigger:
			slog.DebugContext(ctx, "running follow-up planning pass")
		default:
			return
		}
	}
}

// Reconcile runs one pass immediately. Concurrent callers are serialized.
func (r *Reconciler) Reconcile(ctx context.Context, reasons ...string) (*Result, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	r.running.Store(true)
	defer r.running.Store(false)

	startedAt := r.clock.Now()
	runID := uuid.NewString()

	ctx, span := tracing.StartReconcileSpan(ctx, runID, reasons, startedAt)
	defer span.End()

	result := &Result{
		RunID:     runID,
		StartedAt: startedAt,
		Reasons:   reasons,
	}

	p, err := r.compute(ctx, startedAt)
	if err != nil {
		return r.finish(ctx, span, result, err)
	}

	result.Signature = p.Signature.Digest
	result.EventCount = len(p.Events)
	result.Planned = p.NotificationCount()

	r.stateMu.Lock()
	unchanged := p.Signature.Equal(r.lastSignature)
	r.lastPlan = p
	r.stateMu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordPlannedEvents(ctx, len(p.Events))
	}

	if unchanged {
		slog.DebugContext(ctx, "plan unchanged, skipping delivery calls",
			slog.String("run_id", runID),
			slog.String("signature", p.Signature.Digest),
		)
		return r.finish(ctx, span, result, nil)
	}
	result.Changed = true

	if err := r.cancelAuto(ctx, result); err != nil {
		return r.finish(ctx, span, result, err)
	}

	toSchedule := r.schedule(ctx, p, runID, result)

	// The signature only moves once the plan reached the delivery service.
	// Successful cancels alone leave the platform without reminders.
	attempted := result.Scheduled + result.Cancelled + result.Failed
	if (toSchedule > 0 && result.Scheduled == 0) || (attempted > 0 && result.Failed == attempted) {
		return r.finish(ctx, span, result, ErrPassFailed)
	}

	r.stateMu.Lock()
	r.lastSignature = p.Signature
	r.stateMu.Unlock()

	slog.InfoContext(ctx, "plan applied",
		slog.String("run_id", runID),
		slog.String("signature", p.Signature.Digest),
		slog.Int("event_count", result.EventCount),
		slog.Int("scheduled_count", result.Scheduled),
		slog.Int("cancelled_count", result.Cancelled),
		slog.Int("skipped_count", result.Skipped),
		slog.Int("failed_count", result.Failed),
	)

	return r.finish(ctx, span, result, nil)
}

func (r *Reconciler) compute(ctx context.Context, now time.Time) (*plan.Plan, error) {
	ctx, span := tracing.StartComputeSpan(ctx)
	defer span.End()

	p, err := r.planner.Compute(ctx, now)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to compute plan: %w", err)
	}

	tracing.RecordComputeResult(span, p.WindowDays, len(p.Events), p.NotificationCount(), p.Signature.Digest, nil)
	return p, nil
}

// cancelAuto removes every planner-owned notification. User snoozes are
// left in place.
func (r *Reconciler) cancelAuto(ctx context.Context, result *Result) error {
	scheduled, err := r.taskQueue.List(ctx)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordDeliveryFailure(ctx, operationList)
		}
		return fmt.Errorf("failed to list scheduled notifications: %w", err)
	}

	for _, n := range scheduled {
		if !n.Payload.Auto {
			continue
		}

		if err := r.deliver(ctx, operationCancel, n.ID, func(ctx context.Context) error {
			return r.taskQueue.Cancel(ctx, n.ID)
		}); err != nil {
			r.recordFailure(ctx, result, operationCancel, n.ID, err)
			continue
		}

		result.Cancelled++
		if r.metrics != nil {
			r.metrics.RecordCancelled(ctx, "replan")
		}
	}

	return nil
}

// schedule delivers every future notification of p and returns how many
// it attempted.
func (r *Reconciler) schedule(ctx context.Context, p *plan.Plan, runID string, result *Result) int {
	keep, dropped := plan.Schedulable(p.Notifications(runID), r.clock.Now(), r.lead)
	result.Skipped = len(dropped)

	for _, n := range keep {
		if err := r.deliver(ctx, operationSchedule, n.ID, func(ctx context.Context) error {
			_, err := r.taskQueue.Schedule(ctx, n)
			return err
		}); err != nil {
			r.recordFailure(ctx, result, operationSchedule, n.ID, err)
			continue
		}

		result.Scheduled++
		if r.metrics != nil {
			kind := "primary"
			if n.Payload.RepeatIndex > 0 {
				kind = "repeat"
			}
			r.metrics.RecordScheduled(ctx, kind)
		}
	}

	return len(keep)
}

func (r *Reconciler) deliver(ctx context.Context, operation, id string, fn func(context.Context) error) error {
	ctx, span := tracing.StartDeliverySpan(ctx, operation, id)
	defer span.End()

	err := fn(ctx)
	tracing.RecordError(span, err)
	return err
}

func (r *Reconciler) recordFailure(ctx context.Context, result *Result, operation, id string, err error) {
	slog.WarnContext(ctx, "delivery call failed",
		slog.String("event", "planner.delivery.fail"),
		slog.String("operation", operation),
		slog.String("notification_id", id),
		slog.String("error", err.Error()),
	)

	result.Failed++
	result.Errors = append(result.Errors, NotificationError{
		NotificationID: id,
		Operation:      operation,
		Error:          err.Error(),
	})

	if r.metrics != nil {
		r.metrics.RecordDeliveryFailure(ctx, operation)
	}
}

func (r *Reconciler) finish(ctx context.Context, span trace.Span, result *Result, err error) (*Result, error) {
	result.Duration = r.clock.Now().Sub(result.StartedAt)
	if err != nil {
		result.Error = err.Error()
	}

	tracing.RecordReconcileResult(span, result.Changed,
		result.Scheduled, result.Cancelled, result.Skipped, result.Failed, err)

	if r.metrics != nil {
		outcome := metrics.OutcomeUnchanged
		switch {
		case err != nil:
			outcome = metrics.OutcomeFailed
		case result.Changed:
			outcome = metrics.OutcomeApplied
		}
		r.metrics.RecordPass(ctx, outcome, result.Duration)
	}

	if r.recorder != nil {
		if recErr := r.recorder.RecordPass(ctx, domain.PlanResultRecord{
			RunID:      result.RunID,
			StartedAt:  result.StartedAt,
			Duration:   result.Duration,
			Reasons:    result.Reasons,
			Signature:  result.Signature,
			Changed:    result.Changed,
			EventCount: result.EventCount,
			Planned:    result.Planned,
			Scheduled:  result.Scheduled,
			Cancelled:  result.Cancelled,
			Skipped:    result.Skipped,
			Failed:     result.Failed,
			Error:      result.Error,
		}); recErr != nil {
			slog.WarnContext(ctx, "failed to record plan result",
				slog.String("run_id", result.RunID),
				slog.String("error", recErr.Error()),
			)
		}
	}

	r.stateMu.Lock()
	r.lastResult = result
	r.stateMu.Unlock()

	return result, err
}

// Snapshot returns the last computed plan and pass result.
func (r *Reconciler) Snapshot() Snapshot {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	return Snapshot{
		Plan:       r.lastPlan,
		Signature:  r.lastSignature.Digest,
		LastResult: r.lastResult,
		Pending:    r.pending(),
		Running:    r.running.Load(),
	}
}
