package reconcile

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/plan"
)

var testNow = time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type fakePlanner struct {
	mu        sync.Mutex
	plan      *plan.Plan
	err       error
	calls     int
	active    int
	maxActive int
	delay     time.Duration
	started   chan struct{}
	release   chan struct{}
}

func (f *fakePlanner) Compute(_ context.Context, _ time.Time) (*plan.Plan, error) {
	f.mu.Lock()
	f.calls++
	f.active++
	f.maxActive = max(f.maxActive, f.active)
	p, err, delay := f.plan, f.err, f.delay
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		<-release
	}
	time.Sleep(delay)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	return p, err
}

func (f *fakePlanner) setPlan(p *plan.Plan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plan = p
}

func (f *fakePlanner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// buildPlan returns a plan with one single-dose event per time and no
// repeats.
func buildPlan(t *testing.T, times ...time.Time) *plan.Plan {
	t.Helper()

	settings := domain.DefaultSettings()
	settings.RepeatEnabled = false

	events := make([]domain.NotificationEvent, 0, len(times))
	for _, at := range times {
		date := domain.DateOf(at)
		hhmm := at.Format("15:04")
		events = append(events, domain.NotificationEvent{
			ScheduledAt:   at,
			Date:          date,
			Time:          hhmm,
			GroupKey:      domain.GroupKey(date, hhmm),
			MedicationIDs: []string{"med-1"},
			Doses:         []domain.DoseItem{{MedicationID: "med-1", Name: "Aspirin", Dosage: "100mg"}},
		})
	}

	sig, err := plan.ComputeSignature(5, settings, events)
	if err != nil {
		t.Fatalf("ComputeSignature() error = %v", err)
	}

	windowEnd := domain.DateOf(testNow).AddDays(6).StartOfDay(time.UTC)
	return &plan.Plan{
		ComputedAt: testNow,
		Today:      domain.DateOf(testNow),
		WindowDays: 5,
		WindowEnd:  windowEnd,
		Settings:   settings,
		Events:     plan.Annotate(events, settings, windowEnd),
		Signature:  sig,
	}
}

func newTestReconciler(planner Planner, tq taskqueue.TaskQueue, debounce time.Duration) *Reconciler {
	return NewReconciler(planner, tq, fixedClock{now: testNow}, nil, nil, &config.PlannerConfig{
		WindowDays:   5,
		Debounce:     debounce,
		ScheduleLead: 5 * time.Second,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startRun(t *testing.T, r *Reconciler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestReconcile_UnchangedPlanMakesNoDeliveryCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := taskqueue.NewMockTaskQueue(ctrl)
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(2*time.Hour), testNow.Add(14*time.Hour))}
	r := newTestReconciler(planner, mockQueue, 0)

	mockQueue.EXPECT().List(gomock.Any()).Return([]domain.ScheduledNotification{
		{ID: "auto-old", Payload: domain.NotificationPayload{Auto: true}},
		{ID: "snooze-1", Payload: domain.NotificationPayload{Snooze: true}},
	}, nil).Times(1)
	mockQueue.EXPECT().Cancel(gomock.Any(), "auto-old").Return(nil).Times(1)
	mockQueue.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(&taskqueue.TaskResponse{}, nil).Times(2)

	first, err := r.Reconcile(context.Background(), "startup")
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	if !first.Changed {
		t.Error("first pass should apply the plan")
	}
	if first.Scheduled != 2 || first.Cancelled != 1 {
		t.Errorf("first pass scheduled=%d cancelled=%d, want 2 and 1", first.Scheduled, first.Cancelled)
	}

	second, err := r.Reconcile(context.Background(), "foreground")
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if second.Changed {
		t.Error("second pass should see an unchanged plan")
	}
	if second.Signature != first.Signature {
		t.Errorf("signature changed between identical passes")
	}
}

func TestReconcile_SkipsNotificationsInsideLead(t *testing.T) {
	queue := taskqueue.NewMemoryQueue()
	planner := &fakePlanner{plan: buildPlan(t,
		testNow.Add(3*time.Second),
		testNow.Add(time.Hour),
	)}
	r := newTestReconciler(planner, queue, 0)

	result, err := r.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if result.Scheduled != 1 {
		t.Errorf("Scheduled = %d, want 1", result.Scheduled)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if queue.Len() != 1 {
		t.Errorf("queue length = %d, want 1", queue.Len())
	}
}

func TestReconcile_PlanChangeReplacesOnlyAutoNotifications(t *testing.T) {
	ctx := context.Background()
	queue := taskqueue.NewMemoryQueue()
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(2*time.Hour), testNow.Add(14*time.Hour))}
	r := newTestReconciler(planner, queue, 0)

	if _, err := r.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	snooze := &domain.Notification{
		ID:        "snooze-2024-01-15-0900-abc",
		DeliverAt: testNow.Add(3 * time.Hour),
		Payload:   domain.NotificationPayload{Auto: false, Snooze: true},
	}
	if _, err := queue.Schedule(ctx, snooze); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	planner.setPlan(buildPlan(t, testNow.Add(4*time.Hour)))

	result, err := r.Reconcile(ctx, "medications")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if result.Cancelled != 2 {
		t.Errorf("Cancelled = %d, want 2", result.Cancelled)
	}
	if result.Scheduled != 1 {
		t.Errorf("Scheduled = %d, want 1", result.Scheduled)
	}

	scheduled, err := queue.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(scheduled) != 2 {
		t.Fatalf("scheduled = %d, want 2", len(scheduled))
	}
	ids := []string{scheduled[0].ID, scheduled[1].ID}
	if !slices.Contains(ids, snooze.ID) {
		t.Errorf("snooze notification was cancelled: %v", ids)
	}
}

func TestReconcile_DisabledPlanCancelsEverything(t *testing.T) {
	ctx := context.Background()
	queue := taskqueue.NewMemoryQueue()
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(2*time.Hour))}
	r := newTestReconciler(planner, queue, 0)

	if _, err := r.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	planner.setPlan(buildPlan(t))

	result, err := r.Reconcile(ctx, "settings")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Cancelled != 1 || result.Scheduled != 0 {
		t.Errorf("cancelled=%d scheduled=%d, want 1 and 0", result.Cancelled, result.Scheduled)
	}
	if queue.Len() != 0 {
		t.Errorf("queue length = %d, want 0", queue.Len())
	}
}

func TestReconcile_PartialFailureUpdatesSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := taskqueue.NewMockTaskQueue(ctrl)
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(2*time.Hour), testNow.Add(14*time.Hour))}
	r := newTestReconciler(planner, mockQueue, 0)

	mockQueue.EXPECT().List(gomock.Any()).Return(nil, nil).Times(1)
	mockQueue.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(nil, errors.New("platform refused")).Times(1)
	mockQueue.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(&taskqueue.TaskResponse{}, nil).Times(1)

	result, err := r.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Failed != 1 || result.Scheduled != 1 {
		t.Errorf("failed=%d scheduled=%d, want 1 and 1", result.Failed, result.Scheduled)
	}
	if len(result.Errors) != 1 || result.Errors[0].Operation != operationSchedule {
		t.Errorf("Errors = %+v, want one schedule error", result.Errors)
	}

	// Same plan again: no further calls are expected.
	if _, err := r.Reconcile(context.Background()); err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if got := r.Snapshot().Signature; got != result.Signature {
		t.Errorf("Snapshot().Signature = %q, want %q", got, result.Signature)
	}
}

func TestReconcile_TotalFailureKeepsPreviousSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := taskqueue.NewMockTaskQueue(ctrl)
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(2*time.Hour), testNow.Add(14*time.Hour))}
	r := newTestReconciler(planner, mockQueue, 0)

	mockQueue.EXPECT().List(gomock.Any()).Return(nil, nil).Times(2)
	mockQueue.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(nil, errors.New("platform refused")).Times(4)

	for i := range 2 {
		result, err := r.Reconcile(context.Background())
		if !errors.Is(err, ErrPassFailed) {
			t.Fatalf("pass %d: error = %v, want ErrPassFailed", i, err)
		}
		if result.Failed != 2 {
			t.Errorf("pass %d: Failed = %d, want 2", i, result.Failed)
		}
	}

	if got := r.Snapshot().Signature; got != "" {
		t.Errorf("Snapshot().Signature = %q, want empty", got)
	}
}

func TestReconcile_CancelOnlyPassKeepsPreviousSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := taskqueue.NewMockTaskQueue(ctrl)
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(2*time.Hour), testNow.Add(14*time.Hour))}
	r := newTestReconciler(planner, mockQueue, 0)

	gomock.InOrder(
		mockQueue.EXPECT().List(gomock.Any()).Return([]domain.ScheduledNotification{
			{ID: "auto-old", Payload: domain.NotificationPayload{Auto: true}},
		}, nil),
		mockQueue.EXPECT().Cancel(gomock.Any(), "auto-old").Return(nil),
		mockQueue.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(nil, errors.New("platform refused")).Times(2),
		// The retry finds nothing left to cancel and schedules the plan.
		mockQueue.EXPECT().List(gomock.Any()).Return(nil, nil),
		mockQueue.EXPECT().Schedule(gomock.Any(), gomock.Any()).Return(&taskqueue.TaskResponse{}, nil).Times(2),
	)

	first, err := r.Reconcile(context.Background(), "startup")
	if !errors.Is(err, ErrPassFailed) {
		t.Fatalf("first Reconcile() error = %v, want ErrPassFailed", err)
	}
	if first.Cancelled != 1 || first.Scheduled != 0 || first.Failed != 2 {
		t.Errorf("cancelled=%d scheduled=%d failed=%d, want 1, 0 and 2", first.Cancelled, first.Scheduled, first.Failed)
	}
	if got := r.Snapshot().Signature; got != "" {
		t.Errorf("Snapshot().Signature = %q, want empty after failed pass", got)
	}

	second, err := r.Reconcile(context.Background(), "foreground")
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if !second.Changed || second.Scheduled != 2 {
		t.Errorf("changed=%v scheduled=%d, want the plan applied on retry", second.Changed, second.Scheduled)
	}
	if got := r.Snapshot().Signature; got != second.Signature {
		t.Errorf("Snapshot().Signature = %q, want %q", got, second.Signature)
	}
}

func TestReconcile_ErrorsKeepPreviousSignature(t *testing.T) {
	tests := []struct {
		name       string
		plannerErr error
		listErr    error
	}{
		{name: "compute fails", plannerErr: errors.New("redis down")},
		{name: "list fails", listErr: errors.New("delivery service down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockQueue := taskqueue.NewMockTaskQueue(ctrl)
			planner := &fakePlanner{plan: buildPlan(t, testNow.Add(time.Hour)), err: tt.plannerErr}
			r := newTestReconciler(planner, mockQueue, 0)

			if tt.plannerErr == nil {
				mockQueue.EXPECT().List(gomock.Any()).Return(nil, tt.listErr).Times(1)
			}

			result, err := r.Reconcile(context.Background())
			if err == nil {
				t.Fatal("Reconcile() error = nil, want error")
			}
			if result.Error == "" {
				t.Error("result should carry the error")
			}

			snap := r.Snapshot()
			if snap.Signature != "" {
				t.Errorf("Snapshot().Signature = %q, want empty", snap.Signature)
			}
			if snap.LastResult != result {
				t.Error("Snapshot().LastResult should be the failed pass")
			}
		})
	}
}

func TestReconcile_SingleFlight(t *testing.T) {
	planner := &fakePlanner{
		plan:  buildPlan(t, testNow.Add(time.Hour)),
		delay: 20 * time.Millisecond,
	}
	r := newTestReconciler(planner, taskqueue.NewMemoryQueue(), 0)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Reconcile(context.Background())
		}()
	}
	wg.Wait()

	if planner.maxActive != 1 {
		t.Errorf("max concurrent passes = %d, want 1", planner.maxActive)
	}
	if planner.callCount() != 3 {
		t.Errorf("passes = %d, want 3", planner.callCount())
	}
}

func TestRun_CoalescesBurst(t *testing.T) {
	planner := &fakePlanner{plan: buildPlan(t, testNow.Add(time.Hour))}
	r := newTestReconciler(planner, taskqueue.NewMemoryQueue(), 30*time.Millisecond)
	startRun(t, r)

	for _, reason := range []string{"medications", "statuses", "medications", "settings"} {
		r.RequestPlanning(reason)
	}

	waitFor(t, func() bool { return r.Snapshot().LastResult != nil })
	time.Sleep(100 * time.Millisecond)

	if got := planner.callCount(); got != 1 {
		t.Errorf("passes = %d, want 1", got)
	}

	want := []string{"medications", "statuses", "settings"}
	if got := r.Snapshot().LastResult.Reasons; !slices.Equal(got, want) {
		t.Errorf("Reasons = %v, want %v", got, want)
	}
}

func TestRun_QueuesFollowUpForTriggerDuringPass(t *testing.T) {
	planner := &fakePlanner{
		plan:    buildPlan(t, testNow.Add(time.Hour)),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	r := newTestReconciler(planner, taskqueue.NewMemoryQueue(), 0)
	startRun(t, r)

	r.RequestPlanning("first")
	<-planner.started

	r.RequestPlanning("second")
	if !r.Snapshot().Pending {
		t.Error("Snapshot().Pending = false during pass with queued trigger")
	}
	close(planner.release)

	waitFor(t, func() bool { return planner.callCount() == 2 })
	waitFor(t, func() bool {
		res := r.Snapshot().LastResult
		return res != nil && slices.Equal(res.Reasons, []string{"second"})
	})
}
