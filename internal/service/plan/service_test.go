package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"golang.org/x/text/language"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/grouping"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/occurrence"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/recurrence"
)

var testNow = time.Date(2024, time.January, 15, 7, 0, 0, 0, time.UTC)

func createTestService(t *testing.T, meds []*domain.Medication, statuses []domain.StatusRecord, settings domain.Settings) *Service {
	t.Helper()

	ctrl := gomock.NewController(t)
	medRepo := domain.NewMockMedicationRepository(ctrl)
	settingsRepo := domain.NewMockSettingsRepository(ctrl)

	medRepo.EXPECT().ListMedications(gomock.Any()).Return(meds, nil).AnyTimes()
	medRepo.EXPECT().ListStatuses(gomock.Any(), gomock.Any(), gomock.Any(), "").Return(statuses, nil).AnyTimes()
	settingsRepo.EXPECT().GetSettings(gomock.Any()).Return(settings, nil).AnyTimes()

	cfg := config.DefaultPlannerConfig()
	cfg.Location = time.UTC

	return NewService(
		medRepo,
		settingsRepo,
		occurrence.NewBuilder(recurrence.NewEvaluator(cfg.EmptyWeekdays)),
		grouping.NewGrouper(language.English, time.UTC),
		cfg,
	)
}

func TestComputeBuildsEventsWithRepeats(t *testing.T) {
	ctx := context.Background()
	meds := []*domain.Medication{
		{ID: "a", Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00", "08:15"}, Recurrence: domain.DailyRule()},
		{ID: "b", Name: "Biotin", Times: []string{"08:00"}, Recurrence: domain.DailyRule()},
	}

	svc := createTestService(t, meds, nil, domain.DefaultSettings())

	p, err := svc.Compute(ctx, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two events per day over five days.
	if len(p.Events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(p.Events))
	}

	first := p.Events[0]
	if len(first.MedicationIDs) != 2 {
		t.Errorf("expected both medications grouped at 08:00, got %v", first.MedicationIDs)
	}
	if len(first.Repeats) != 1 {
		t.Fatalf("expected one repeat before 08:15, got %d", len(first.Repeats))
	}
	if !first.Repeats[0].At.Equal(time.Date(2024, time.January, 15, 8, 10, 0, 0, time.UTC)) {
		t.Errorf("unexpected repeat time %v", first.Repeats[0].At)
	}

	second := p.Events[1]
	if len(second.Repeats) != 3 {
		t.Errorf("expected three repeats after 08:15, got %d", len(second.Repeats))
	}

	expectedEnd := time.Date(2024, time.January, 21, 0, 0, 0, 0, time.UTC)
	if !p.WindowEnd.Equal(expectedEnd) {
		t.Errorf("expected window end %v, got %v", expectedEnd, p.WindowEnd)
	}
}

func TestComputeDisabledNotifications(t *testing.T) {
	ctx := context.Background()
	meds := []*domain.Medication{
		{ID: "a", Name: "Aspirin", Times: []string{"08:00"}, Recurrence: domain.DailyRule()},
	}

	enabled := domain.DefaultSettings()
	disabled := domain.DefaultSettings()
	disabled.Enabled = false

	enabledPlan, err := createTestService(t, meds, nil, enabled).Compute(ctx, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	disabledPlan, err := createTestService(t, meds, nil, disabled).Compute(ctx, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(disabledPlan.Events) != 0 {
		t.Errorf("expected no events when disabled, got %d", len(disabledPlan.Events))
	}
	if disabledPlan.Signature.Equal(enabledPlan.Signature) {
		t.Error("expected disabling notifications to change the signature")
	}
}

func TestComputeSignatureStability(t *testing.T) {
	ctx := context.Background()
	meds := []*domain.Medication{
		{ID: "a", Name: "Aspirin", Times: []string{"08:00", "20:00"}, Recurrence: domain.DailyRule()},
	}
	today := domain.DateOf(testNow)

	tests := []struct {
		name     string
		statuses []domain.StatusRecord
		settings func(s *domain.Settings)
		now      time.Time
		same     bool
	}{
		{
			name: "same inputs",
			now:  testNow,
			same: true,
		},
		{
			name: "later on the same day within the minute grid",
			now:  testNow.Add(30 * time.Minute),
			same: true,
		},
		{
			name: "dose marked taken",
			statuses: []domain.StatusRecord{
				{Date: today, MedicationID: "a", Time: "20:00", Status: domain.DoseStatusTaken},
			},
			now:  testNow,
			same: false,
		},
		{
			name:     "repeat count changed",
			settings: func(s *domain.Settings) { s.RepeatCount = 1 },
			now:      testNow,
			same:     false,
		},
		{
			name: "next calendar day",
			now:  testNow.Add(24 * time.Hour),
			same: false,
		},
	}

	base, err := createTestService(t, meds, nil, domain.DefaultSettings()).Compute(ctx, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultSettings()
			if tt.settings != nil {
				tt.settings(&settings)
			}

			p, err := createTestService(t, meds, tt.statuses, settings).Compute(ctx, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := p.Signature.Equal(base.Signature); got != tt.same {
				t.Errorf("expected signature equality %v, got %v", tt.same, got)
			}
		})
	}
}

func TestComputeTakenDoseLeavesRestOfGroup(t *testing.T) {
	ctx := context.Background()
	meds := []*domain.Medication{
		{ID: "a", Name: "Aspirin", Times: []string{"09:00"}, Recurrence: domain.DailyRule()},
		{ID: "b", Name: "Biotin", Times: []string{"09:00"}, Recurrence: domain.DailyRule()},
	}
	today := domain.DateOf(testNow)
	statuses := []domain.StatusRecord{
		{Date: today, MedicationID: "a", Time: "09:00", Status: domain.DoseStatusTaken},
	}

	p, err := createTestService(t, meds, statuses, domain.DefaultSettings()).Compute(ctx, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Events) < 2 {
		t.Fatalf("expected events on consecutive days, got %d", len(p.Events))
	}

	first := p.Events[0]
	if first.Date != today || first.Time != "09:00" {
		t.Fatalf("expected first event today at 09:00, got %s %s", first.Date, first.Time)
	}
	if len(first.Doses) != 1 || first.Doses[0].MedicationID != "b" {
		t.Errorf("expected only Biotin left at 09:00, got %+v", first.Doses)
	}

	tomorrow := p.Events[1]
	if len(tomorrow.Doses) != 2 {
		t.Errorf("expected both doses tomorrow, got %+v", tomorrow.Doses)
	}
}

func TestComputeRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repoErr := errors.New("redis down")

	tests := []struct {
		name  string
		setup func(medRepo *domain.MockMedicationRepository, settingsRepo *domain.MockSettingsRepository)
	}{
		{
			name: "settings error",
			setup: func(medRepo *domain.MockMedicationRepository, settingsRepo *domain.MockSettingsRepository) {
				settingsRepo.EXPECT().GetSettings(gomock.Any()).Return(domain.Settings{}, repoErr)
			},
		},
		{
			name: "medications error",
			setup: func(medRepo *domain.MockMedicationRepository, settingsRepo *domain.MockSettingsRepository) {
				settingsRepo.EXPECT().GetSettings(gomock.Any()).Return(domain.DefaultSettings(), nil)
				medRepo.EXPECT().ListMedications(gomock.Any()).Return(nil, repoErr)
			},
		},
		{
			name: "statuses error",
			setup: func(medRepo *domain.MockMedicationRepository, settingsRepo *domain.MockSettingsRepository) {
				settingsRepo.EXPECT().GetSettings(gomock.Any()).Return(domain.DefaultSettings(), nil)
				medRepo.EXPECT().ListMedications(gomock.Any()).Return(nil, nil)
				medRepo.EXPECT().ListStatuses(gomock.Any(), gomock.Any(), gomock.Any(), "").Return(nil, repoErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			medRepo := domain.NewMockMedicationRepository(ctrl)
			settingsRepo := domain.NewMockSettingsRepository(ctrl)
			tt.setup(medRepo, settingsRepo)

			cfg := config.DefaultPlannerConfig()
			svc := NewService(medRepo, settingsRepo,
				occurrence.NewBuilder(recurrence.NewEvaluator(cfg.EmptyWeekdays)),
				grouping.NewGrouper(language.English, time.UTC), cfg)

			if _, err := svc.Compute(ctx, testNow); !errors.Is(err, repoErr) {
				t.Errorf("expected wrapped repository error, got %v", err)
			}
		})
	}
}

func TestAnnotateQuietHours(t *testing.T) {
	day := domain.NewDate(2024, time.January, 15)
	events := []domain.NotificationEvent{
		{ScheduledAt: day.At(time.UTC, 22, 50), Date: day, Time: "22:50", GroupKey: domain.GroupKey(day, "22:50")},
	}

	settings := domain.DefaultSettings()
	settings.QuietHoursEnabled = true
	settings.RepeatCount = 2

	got := Annotate(events, settings, day.AddDays(1).StartOfDay(time.UTC))

	if got[0].Channel != domain.ChannelDefault {
		t.Errorf("expected primary on default channel, got %s", got[0].Channel)
	}
	if len(got[0].Repeats) != 2 {
		t.Fatalf("expected 2 repeats, got %d", len(got[0].Repeats))
	}
	if got[0].Repeats[0].Channel != domain.ChannelSilent || got[0].Repeats[1].Channel != domain.ChannelSilent {
		t.Errorf("expected repeats after 23:00 on silent channel, got %+v", got[0].Repeats)
	}
}

func TestAnnotateRepeatsDisabled(t *testing.T) {
	day := domain.NewDate(2024, time.January, 15)
	events := []domain.NotificationEvent{
		{ScheduledAt: day.At(time.UTC, 8, 0), Date: day, Time: "08:00"},
	}
	settings := domain.DefaultSettings()
	settings.RepeatEnabled = false

	got := Annotate(events, settings, day.AddDays(1).StartOfDay(time.UTC))
	if len(got[0].Repeats) != 0 {
		t.Errorf("expected no repeats, got %d", len(got[0].Repeats))
	}
}
