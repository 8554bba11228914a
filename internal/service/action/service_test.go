package action

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/taskqueue"
)

var testNow = time.Date(2024, 1, 15, 9, 2, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingRequester struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingRequester) RequestPlanning(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func testPayload() domain.NotificationPayload {
	date := domain.NewDate(2024, time.January, 15)
	return domain.NotificationPayload{
		Kind:          domain.NotificationKindReminder,
		Auto:          true,
		GroupKey:      domain.GroupKey(date, "09:00"),
		DateKey:       date.String(),
		Time:          "09:00",
		DisplayTime:   "09:00",
		MedicationIDs: []string{"med-a", "med-b"},
		Doses: []domain.PayloadDose{
			{MedicationID: "med-a", Name: "Aspirin", Dosage: "100mg", Time: "09:00"},
			{MedicationID: "med-b", Name: "Vitamin D", Time: "09:00"},
		},
	}
}

// seedQueue schedules a primary and repeat for the payload group plus an
// unrelated notification.
func seedQueue(t *testing.T, queue *taskqueue.MemoryQueue, payload domain.NotificationPayload) {
	t.Helper()
	other := payload
	other.GroupKey = "2024-01-15|21:00"

	for _, n := range []*domain.Notification{
		{ID: "auto-2024-01-15-0900-r0-x", DeliverAt: testNow.Add(time.Minute), Payload: payload},
		{ID: "auto-2024-01-15-0900-r1-x", DeliverAt: testNow.Add(10 * time.Minute), Payload: payload},
		{ID: "auto-2024-01-15-2100-r0-x", DeliverAt: testNow.Add(12 * time.Hour), Payload: other},
	} {
		if _, err := queue.Schedule(context.Background(), n); err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
	}
}

func newTestService(medRepo domain.MedicationRepository, settingsRepo domain.SettingsRepository, queue taskqueue.TaskQueue, requester PlanningRequester) *Service {
	cfg := config.DefaultPlannerConfig()
	cfg.Location = time.UTC
	return NewService(medRepo, settingsRepo, queue, requester, fixedClock{now: testNow}, cfg)
}

func TestHandle_ResolveAll(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		status domain.DoseStatus
	}{
		{name: "take all", action: ActionTakeAll, status: domain.DoseStatusTaken},
		{name: "skip all", action: ActionSkipAll, status: domain.DoseStatusSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			medRepo := domain.NewMockMedicationRepository(ctrl)
			settingsRepo := domain.NewMockSettingsRepository(ctrl)
			queue := taskqueue.NewMemoryQueue()
			requester := &recordingRequester{}
			payload := testPayload()
			seedQueue(t, queue, payload)

			for _, medID := range payload.MedicationIDs {
				medRepo.EXPECT().GetMedication(gomock.Any(), medID).Return(&domain.Medication{ID: medID}, nil)
				medRepo.EXPECT().SetStatus(gomock.Any(), domain.StatusRecord{
					Date:         domain.NewDate(2024, time.January, 15),
					MedicationID: medID,
					Time:         "09:00",
					Status:       tt.status,
					UpdatedAt:    testNow,
				}).Return(nil)
			}

			svc := newTestService(medRepo, settingsRepo, queue, requester)
			result, err := svc.Handle(context.Background(), tt.action, payload)
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if result.Updated != 2 {
				t.Errorf("Updated = %d, want 2", result.Updated)
			}
			if result.Cancelled != 2 {
				t.Errorf("Cancelled = %d, want 2", result.Cancelled)
			}
			if queue.Len() != 1 {
				t.Errorf("queue length = %d, want 1", queue.Len())
			}
			if len(requester.reasons) != 1 {
				t.Errorf("planning requests = %d, want 1", len(requester.reasons))
			}
		})
	}
}

func TestHandle_SetStatusError(t *testing.T) {
	storeErr := errors.New("redis down")

	tests := []struct {
		name         string
		failAt       int
		wantUpdated  int
		wantRequests int
	}{
		{name: "first update fails", failAt: 0, wantUpdated: 0, wantRequests: 0},
		{name: "second update fails", failAt: 1, wantUpdated: 1, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			medRepo := domain.NewMockMedicationRepository(ctrl)
			queue := taskqueue.NewMemoryQueue()
			requester := &recordingRequester{}
			payload := testPayload()

			for i, medID := range payload.MedicationIDs[:tt.failAt+1] {
				medRepo.EXPECT().GetMedication(gomock.Any(), medID).Return(&domain.Medication{ID: medID}, nil)
				if i == tt.failAt {
					medRepo.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Return(storeErr)
				} else {
					medRepo.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Return(nil)
				}
			}

			svc := newTestService(medRepo, domain.NewMockSettingsRepository(ctrl), queue, requester)
			result, err := svc.Handle(context.Background(), ActionTakeAll, payload)
			if !errors.Is(err, storeErr) {
				t.Fatalf("Handle() error = %v, want %v", err, storeErr)
			}
			if result.Updated != tt.wantUpdated {
				t.Errorf("Updated = %d, want %d", result.Updated, tt.wantUpdated)
			}
			if len(requester.reasons) != tt.wantRequests {
				t.Errorf("planning requests = %d, want %d", len(requester.reasons), tt.wantRequests)
			}
		})
	}
}

func TestHandle_ResolveSkipsDeletedMedication(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	medRepo := domain.NewMockMedicationRepository(ctrl)
	queue := taskqueue.NewMemoryQueue()
	requester := &recordingRequester{}
	payload := testPayload()
	seedQueue(t, queue, payload)

	medRepo.EXPECT().GetMedication(gomock.Any(), "med-a").Return(nil, domain.ErrMedicationNotFound)
	medRepo.EXPECT().GetMedication(gomock.Any(), "med-b").Return(&domain.Medication{ID: "med-b"}, nil)
	medRepo.EXPECT().SetStatus(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, record domain.StatusRecord) error {
			if record.MedicationID != "med-b" {
				t.Errorf("status stored for %s, want only med-b", record.MedicationID)
			}
			return nil
		}).Times(1)

	svc := newTestService(medRepo, domain.NewMockSettingsRepository(ctrl), queue, requester)
	result, err := svc.Handle(context.Background(), ActionSkipAll, payload)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if result.Updated != 1 || result.Skipped != 1 {
		t.Errorf("updated=%d skipped=%d, want 1 and 1", result.Updated, result.Skipped)
	}
	if result.Cancelled != 2 {
		t.Errorf("Cancelled = %d, want 2", result.Cancelled)
	}
	if len(requester.reasons) != 1 {
		t.Errorf("planning requests = %d, want 1", len(requester.reasons))
	}
}

func TestHandle_Snooze(t *testing.T) {
	tests := []struct {
		name        string
		settings    domain.Settings
		wantChannel domain.Channel
	}{
		{
			name:        "audible outside quiet hours",
			settings:    domain.DefaultSettings(),
			wantChannel: domain.ChannelDefault,
		},
		{
			name: "silent inside quiet hours",
			settings: domain.Settings{
				Enabled:           true,
				QuietHoursEnabled: true,
				QuietFrom:         "09:00",
				QuietTo:           "10:00",
			},
			wantChannel: domain.ChannelSilent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			settingsRepo := domain.NewMockSettingsRepository(ctrl)
			settingsRepo.EXPECT().GetSettings(gomock.Any()).Return(tt.settings, nil)

			queue := taskqueue.NewMemoryQueue()
			requester := &recordingRequester{}
			payload := testPayload()
			seedQueue(t, queue, payload)

			svc := newTestService(domain.NewMockMedicationRepository(ctrl), settingsRepo, queue, requester)
			result, err := svc.Handle(context.Background(), ActionSnooze, payload)
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if result.Cancelled != 2 {
				t.Errorf("Cancelled = %d, want 2", result.Cancelled)
			}

			snooze := result.Snooze
			if snooze == nil {
				t.Fatal("expected snooze notification")
			}
			if !strings.HasPrefix(snooze.ID, "snooze-2024-01-15-0900-") {
				t.Errorf("ID = %q", snooze.ID)
			}
			if want := testNow.Add(15 * time.Minute); !snooze.DeliverAt.Equal(want) {
				t.Errorf("DeliverAt = %v, want %v", snooze.DeliverAt, want)
			}
			if snooze.Payload.Auto || !snooze.Payload.Snooze {
				t.Errorf("payload auto=%v snooze=%v, want false and true", snooze.Payload.Auto, snooze.Payload.Snooze)
			}
			if snooze.Payload.DisplayTime != "09:17" || snooze.Payload.Time != "09:00" {
				t.Errorf("display=%q time=%q", snooze.Payload.DisplayTime, snooze.Payload.Time)
			}
			if snooze.Channel != tt.wantChannel {
				t.Errorf("Channel = %q, want %q", snooze.Channel, tt.wantChannel)
			}
			if !strings.HasPrefix(snooze.Body, "09:17 • 2 medications: ") {
				t.Errorf("Body = %q", snooze.Body)
			}

			// The unrelated group and the snooze remain.
			if queue.Len() != 2 {
				t.Errorf("queue length = %d, want 2", queue.Len())
			}
		})
	}
}

func TestHandle_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		mutate  func(*domain.NotificationPayload)
		wantErr error
	}{
		{
			name:    "unknown action",
			action:  Action("dismiss"),
			mutate:  func(*domain.NotificationPayload) {},
			wantErr: ErrUnknownAction,
		},
		{
			name:    "missing medications",
			action:  ActionTakeAll,
			mutate:  func(p *domain.NotificationPayload) { p.MedicationIDs = nil },
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "bad date",
			action:  ActionSkipAll,
			mutate:  func(p *domain.NotificationPayload) { p.DateKey = "15/01/2024" },
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			payload := testPayload()
			tt.mutate(&payload)

			svc := newTestService(
				domain.NewMockMedicationRepository(ctrl),
				domain.NewMockSettingsRepository(ctrl),
				taskqueue.NewMemoryQueue(),
				&recordingRequester{},
			)
			if _, err := svc.Handle(context.Background(), tt.action, payload); !errors.Is(err, tt.wantErr) {
				t.Errorf("Handle() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
