package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/grouping"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/occurrence"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/quiet"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/repeat"
)

// Service computes the notification plan for the rolling window from a
// snapshot of medications, statuses and settings.
type Service struct {
	medRepo      domain.MedicationRepository
	settingsRepo domain.SettingsRepository
	builder      *occurrence.Builder
	grouper      *grouping.Grouper
	windowDays   int
	location     *time.Location
}

func NewService(
	medRepo domain.MedicationRepository,
	settingsRepo domain.SettingsRepository,
	builder *occurrence.Builder,
	grouper *grouping.Grouper,
	cfg *config.PlannerConfig,
) *Service {
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	return &Service{
		medRepo:      medRepo,
		settingsRepo: settingsRepo,
		builder:      builder,
		grouper:      grouper,
		windowDays:   cfg.WindowDays,
		location:     location,
	}
}

func (s *Service) Location() *time.Location {
	return s.location
}

// Compute reads a snapshot and returns the plan for the window starting
// on now's calendar day. Disabled notifications yield a plan without
// events whose signature still differs from any enabled plan.
func (s *Service) Compute(ctx context.Context, now time.Time) (*Plan, error) {
	now = now.In(s.location)
	today := domain.DateOf(now)

	settings, err := s.settingsRepo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	meds, err := s.medRepo.ListMedications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}

	records, err := s.medRepo.ListStatuses(ctx, today, today.AddDays(s.windowDays-1), "")
	if err != nil {
		return nil, fmt.Errorf("failed to list dose statuses: %w", err)
	}

	p := &Plan{
		ComputedAt: now,
		Today:      today,
		WindowDays: s.windowDays,
		WindowEnd:  today.AddDays(s.windowDays + 1).StartOfDay(s.location),
		Settings:   settings,
		Events:     make([]PlannedEvent, 0),
	}

	var events []domain.NotificationEvent
	if settings.Enabled {
		occurrences := s.builder.Build(meds, today, s.windowDays, domain.NewStatusSet(records))
		grouped := s.grouper.Group(ctx, occurrences, meds)
		events = grouped.Events
		p.Skipped = grouped.Skipped

		slog.DebugContext(ctx, "grouped dose occurrences",
			slog.Int("occurrence_count", len(occurrences)),
			slog.Int("event_count", len(events)),
			slog.Int("skipped_count", len(grouped.Skipped)),
		)
	}

	p.Events = Annotate(events, settings, p.WindowEnd)

	signature, err := ComputeSignature(s.windowDays, settings, events)
	if err != nil {
		return nil, fmt.Errorf("failed to compute plan signature: %w", err)
	}
	p.Signature = signature

	return p, nil
}

// Annotate attaches channels and repeats to chronologically ordered
// events. Repeats of an event stop before the next event, or before
// windowEnd for the last one.
func Annotate(events []domain.NotificationEvent, settings domain.Settings, windowEnd time.Time) []PlannedEvent {
	out := make([]PlannedEvent, 0, len(events))
	for i, ev := range events {
		nextAt := windowEnd
		if i+1 < len(events) {
			nextAt = events[i+1].ScheduledAt
		}

		planned := PlannedEvent{
			NotificationEvent: ev,
			Channel:           quiet.Channel(settings, ev.ScheduledAt),
			Repeats:           make([]PlannedRepeat, 0),
		}

		if settings.RepeatEnabled {
			for k, at := range repeat.Expand(ev.ScheduledAt, nextAt, settings.RepeatMinutes, settings.RepeatCount) {
				planned.Repeats = append(planned.Repeats, PlannedRepeat{
					Index:   k + 1,
					At:      at,
					Channel: quiet.Channel(settings, at),
				})
			}
		}

		out = append(out, planned)
	}
	return out
}
