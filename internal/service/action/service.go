package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/plan"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/quiet"
)

type Action string

const (
	ActionTakeAll Action = "take_all"
	ActionSkipAll Action = "skip_all"
	ActionSnooze  Action = "snooze"
)

var (
	ErrUnknownAction  = errors.New("unknown notification action")
	ErrInvalidPayload = errors.New("notification payload is missing dose information")
)

// PlanningRequester is satisfied by the reconciler.
type PlanningRequester interface {
	RequestPlanning(reason string)
}

type Result struct {
	Action    Action               `json:"action"`
	GroupKey  string               `json:"group_key"`
	Updated   int                  `json:"updated_count"`
	Skipped   int                  `json:"skipped_count"`
	Cancelled int                  `json:"cancelled_count"`
	Snooze    *domain.Notification `json:"snooze,omitempty"`
}

// Service handles the buttons of a delivered reminder.
type Service struct {
	medRepo       domain.MedicationRepository
	settingsRepo  domain.SettingsRepository
	taskQueue     taskqueue.TaskQueue
	planner       PlanningRequester
	clock         domain.Clock
	snoozeMinutes int
	location      *time.Location
}

func NewService(
	medRepo domain.MedicationRepository,
	settingsRepo domain.SettingsRepository,
	taskQueue taskqueue.TaskQueue,
	planner PlanningRequester,
	clock domain.Clock,
	cfg *config.PlannerConfig,
) *Service {
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	return &Service{
		medRepo:       medRepo,
		settingsRepo:  settingsRepo,
		taskQueue:     taskQueue,
		planner:       planner,
		clock:         clock,
		snoozeMinutes: cfg.SnoozeMinutes,
		location:      location,
	}
}

func (s *Service) Handle(ctx context.Context, action Action, payload domain.NotificationPayload) (*Result, error) {
	date, err := validatePayload(payload)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionTakeAll:
		return s.resolveAll(ctx, action, payload, date, domain.DoseStatusTaken)
	case ActionSkipAll:
		return s.resolveAll(ctx, action, payload, date, domain.DoseStatusSkipped)
	case ActionSnooze:
		return s.snooze(ctx, payload, date)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func validatePayload(payload domain.NotificationPayload) (domain.Date, error) {
	if payload.GroupKey == "" || payload.Time == "" || len(payload.MedicationIDs) == 0 {
		return domain.Date{}, ErrInvalidPayload
	}
	date, err := domain.ParseDate(payload.DateKey)
	if err != nil {
		return domain.Date{}, errors.Join(ErrInvalidPayload, err)
	}
	return date, nil
}

// resolveAll marks every dose of the group. Medications deleted since the
// notification was scheduled are skipped so no orphan statuses are stored.
func (s *Service) resolveAll(ctx context.Context, action Action, payload domain.NotificationPayload, date domain.Date, status domain.DoseStatus) (*Result, error) {
	result := &Result{Action: action, GroupKey: payload.GroupKey}
	now := s.clock.Now()

	for _, medID := range payload.MedicationIDs {
		if _, err := s.medRepo.GetMedication(ctx, medID); err != nil {
			if errors.Is(err, domain.ErrMedicationNotFound) {
				slog.WarnContext(ctx, "skipping deleted medication",
					slog.String("group_key", payload.GroupKey),
					slog.String("medication_id", medID),
				)
				result.Skipped++
				continue
			}
			return result, s.abortResolve(ctx, result, fmt.Errorf("failed to get medication %s: %w", medID, err))
		}

		if err := s.medRepo.SetStatus(ctx, domain.StatusRecord{
			Date:         date,
			MedicationID: medID,
			Time:         payload.Time,
			Status:       status,
			UpdatedAt:    now,
		}); err != nil {
			return result, s.abortResolve(ctx, result, fmt.Errorf("failed to set status for %s: %w", medID, err))
		}
		result.Updated++
	}

	result.Cancelled = s.cancelGroup(ctx, payload.GroupKey)

	slog.InfoContext(ctx, "dose group resolved",
		slog.String("action", string(action)),
		slog.String("group_key", payload.GroupKey),
		slog.Int("updated_count", result.Updated),
		slog.Int("skipped_count", result.Skipped),
		slog.Int("cancelled_count", result.Cancelled),
	)

	s.planner.RequestPlanning("status")
	return result, nil
}

// abortResolve still requests planning when some statuses were stored
// before err, so the plan drops those doses.
func (s *Service) abortResolve(ctx context.Context, result *Result, err error) error {
	if result.Updated > 0 {
		slog.WarnContext(ctx, "dose group partially resolved",
			slog.String("group_key", result.GroupKey),
			slog.Int("updated_count", result.Updated),
			slog.String("error", err.Error()),
		)
		s.planner.RequestPlanning("status")
	}
	return err
}

func (s *Service) snooze(ctx context.Context, payload domain.NotificationPayload, date domain.Date) (*Result, error) {
	result := &Result{Action: ActionSnooze, GroupKey: payload.GroupKey}

	settings, err := s.settingsRepo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	result.Cancelled = s.cancelGroup(ctx, payload.GroupKey)

	at := s.clock.Now().In(s.location).Add(time.Duration(s.snoozeMinutes) * time.Minute)
	displayTime := at.Format("15:04")

	event := domain.NotificationEvent{
		ScheduledAt:   at,
		Date:          date,
		Time:          payload.Time,
		GroupKey:      payload.GroupKey,
		MedicationIDs: payload.MedicationIDs,
		Doses:         doseItems(payload.Doses),
	}

	notification := &domain.Notification{
		ID:        plan.SnoozeID(date, payload.Time, uuid.NewString()),
		Title:     plan.SnoozeTitle(),
		Body:      plan.Body(displayTime, event.Doses),
		Channel:   quiet.Channel(settings, at),
		DeliverAt: at,
		Payload:   plan.NewPayload(event, false, displayTime, 0, true),
	}

	if _, err := s.taskQueue.Schedule(ctx, notification); err != nil {
		return result, fmt.Errorf("failed to schedule snooze: %w", err)
	}
	result.Snooze = notification

	slog.InfoContext(ctx, "dose group snoozed",
		slog.String("group_key", payload.GroupKey),
		slog.String("notification_id", notification.ID),
		slog.Time("deliver_at", at),
	)

	s.planner.RequestPlanning("snooze")
	return result, nil
}

// cancelGroup cancels every scheduled notification of the group, auto or
// not. Failures are logged; the next planning pass corrects leftovers.
func (s *Service) cancelGroup(ctx context.Context, groupKey string) int {
	scheduled, err := s.taskQueue.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to list scheduled notifications",
			slog.String("group_key", groupKey),
			slog.String("error", err.Error()),
		)
		return 0
	}

	cancelled := 0
	for _, n := range scheduled {
		if n.Payload.GroupKey != groupKey {
			continue
		}
		if err := s.taskQueue.Cancel(ctx, n.ID); err != nil {
			slog.WarnContext(ctx, "failed to cancel notification",
				slog.String("notification_id", n.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		cancelled++
	}
	return cancelled
}

func doseItems(doses []domain.PayloadDose) []domain.DoseItem {
	items := make([]domain.DoseItem, 0, len(doses))
	for _, d := range doses {
		items = append(items, domain.DoseItem{
			MedicationID: d.MedicationID,
			Name:         d.Name,
			Dosage:       d.Dosage,
		})
	}
	return items
}
