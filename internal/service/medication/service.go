// Package medication manages medications, dose statuses and settings.
// Every mutation asks the planner for a new pass.
package medication

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/occurrence"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/recurrence"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/timeset"
)

const (
	reasonMedications = "medications"
	reasonStatuses    = "statuses"
	reasonSettings    = "settings"
)

type PlanningRequester interface {
	RequestPlanning(reason string)
}

// Input is the editable part of a medication. RRule, when set, replaces
// Recurrence and may carry the start date.
type Input struct {
	Name       string
	Dosage     string
	Notes      string
	Times      []string
	LegacyTime string
	StartDate  *domain.Date
	Recurrence domain.RecurrenceRule
	RRule      string
	Paused     *bool
}

type Service struct {
	medRepo      domain.MedicationRepository
	settingsRepo domain.SettingsRepository
	evaluator    *recurrence.Evaluator
	builder      *occurrence.Builder
	planner      PlanningRequester
	clock        domain.Clock
	location     *time.Location
}

func NewService(
	medRepo domain.MedicationRepository,
	settingsRepo domain.SettingsRepository,
	evaluator *recurrence.Evaluator,
	planner PlanningRequester,
	clock domain.Clock,
	cfg *config.PlannerConfig,
) *Service {
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	return &Service{
		medRepo:      medRepo,
		settingsRepo: settingsRepo,
		evaluator:    evaluator,
		builder:      occurrence.NewBuilder(evaluator),
		planner:      planner,
		clock:        clock,
		location:     location,
	}
}

func (s *Service) today() domain.Date {
	return domain.DateOf(s.clock.Now().In(s.location))
}

func (s *Service) List(ctx context.Context) ([]*domain.Medication, error) {
	return s.medRepo.ListMedications(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Medication, error) {
	return s.medRepo.GetMedication(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Medication, error) {
	now := s.clock.Now()
	med := &domain.Medication{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.apply(med, in); err != nil {
		return nil, err
	}
	if in.Paused != nil {
		med.Paused = *in.Paused
	}

	if err := s.medRepo.SaveMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to save medication: %w", err)
	}

	slog.InfoContext(ctx, "medication created",
		slog.String("medication_id", med.ID),
		slog.String("recurrence", string(med.Recurrence.Kind)),
		slog.Int("time_count", len(med.Times)),
	)

	s.planner.RequestPlanning(reasonMedications)
	return med, nil
}

// Update replaces the editable fields. Paused and the start date keep
// their stored values when the input leaves them unset.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Medication, error) {
	med, err := s.medRepo.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.StartDate == nil && in.RRule == "" {
		in.StartDate = med.StartDate
	}
	if err := s.apply(med, in); err != nil {
		return nil, err
	}
	if in.Paused != nil {
		med.Paused = *in.Paused
	}
	med.UpdatedAt = s.clock.Now()

	if err := s.medRepo.SaveMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to save medication: %w", err)
	}

	slog.InfoContext(ctx, "medication updated",
		slog.String("medication_id", med.ID),
	)

	s.planner.RequestPlanning(reasonMedications)
	return med, nil
}

func (s *Service) SetPaused(ctx context.Context, id string, paused bool) (*domain.Medication, error) {
	med, err := s.medRepo.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}
	if med.Paused == paused {
		return med, nil
	}

	med.Paused = paused
	med.UpdatedAt = s.clock.Now()
	if err := s.medRepo.SaveMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to save medication: %w", err)
	}

	slog.InfoContext(ctx, "medication pause changed",
		slog.String("medication_id", med.ID),
		slog.Bool("paused", paused),
	)

	s.planner.RequestPlanning(reasonMedications)
	return med, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.medRepo.DeleteMedication(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "medication deleted",
		slog.String("medication_id", id),
	)

	s.planner.RequestPlanning(reasonMedications)
	return nil
}

// apply normalizes in onto med. A weekdays rule without days is stored
// with all seven and a dates rule without dates with today.
func (s *Service) apply(med *domain.Medication, in Input) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.ErrEmptyName
	}

	rule := in.Recurrence
	start := in.StartDate
	if in.RRule != "" {
		parsed, rruleStart, err := recurrence.FromRRule(in.RRule)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidRecurrence, err)
		}
		rule = parsed
		if rruleStart != nil {
			start = rruleStart
		}
	}
	if rule.Kind == "" {
		rule.Kind = domain.RecurrenceDaily
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	today := s.today()
	switch rule.Kind {
	case domain.RecurrenceWeekdays:
		if len(rule.Weekdays) == 0 {
			rule.Weekdays = []int{0, 1, 2, 3, 4, 5, 6}
		}
	case domain.RecurrenceDates:
		if len(rule.Dates) == 0 {
			rule.Dates = []domain.Date{today}
		}
	}
	if start == nil {
		start = &today
	}

	times := timeset.Normalize(in.Times, in.LegacyTime)

	med.Name = name
	med.Dosage = strings.TrimSpace(in.Dosage)
	med.Notes = in.Notes
	med.Times = times
	med.LegacyTime = ""
	if len(times) == 0 {
		med.LegacyTime = strings.TrimSpace(in.LegacyTime)
	}
	med.StartDate = start
	med.Recurrence = rule
	return nil
}
