package medication

import (
	"context"
	"fmt"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/timeset"
)

func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	return s.settingsRepo.GetSettings(ctx)
}

// UpdateSettings validates and stores settings. Quiet hours are stored
// zero padded.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	for _, t := range []string{settings.QuietFrom, settings.QuietTo} {
		if _, err := timeset.Minutes(t); err != nil {
			return domain.Settings{}, fmt.Errorf("%w: quiet hours: %w", domain.ErrInvalidSettings, err)
		}
	}
	if settings.RepeatMinutes < 0 || settings.RepeatCount < 0 {
		return domain.Settings{}, fmt.Errorf("%w: repeat values must not be negative", domain.ErrInvalidSettings)
	}

	settings.QuietFrom = timeset.Pad(settings.QuietFrom)
	settings.QuietTo = timeset.Pad(settings.QuietTo)

	if err := s.settingsRepo.SaveSettings(ctx, settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	s.planner.RequestPlanning(reasonSettings)
	return settings, nil
}
