package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

const settingsKey = "med:settings"

type settingsRepository struct {
	client *redis.Client
}

func NewSettingsRepository(client *redis.Client) domain.SettingsRepository {
	return &settingsRepository{
		client: client,
	}
}

// GetSettings returns the defaults until settings are first saved.
func (r *settingsRepository) GetSettings(ctx context.Context) (domain.Settings, error) {
	data, err := r.client.Get(ctx, settingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, err
	}

	var record settingsRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.Settings{}, ErrInvalidSettingsData
	}

	return domain.Settings{
		Enabled:           record.Enabled,
		QuietHoursEnabled: record.QuietHoursEnabled,
		QuietFrom:         record.QuietFrom,
		QuietTo:           record.QuietTo,
		RepeatEnabled:     record.RepeatEnabled,
		RepeatMinutes:     record.RepeatMinutes,
		RepeatCount:       record.RepeatCount,
	}, nil
}

func (r *settingsRepository) SaveSettings(ctx context.Context, settings domain.Settings) error {
	data, err := json.Marshal(settingsRecord{
		Enabled:           settings.Enabled,
		QuietHoursEnabled: settings.QuietHoursEnabled,
		QuietFrom:         settings.QuietFrom,
		QuietTo:           settings.QuietTo,
		RepeatEnabled:     settings.RepeatEnabled,
		RepeatMinutes:     settings.RepeatMinutes,
		RepeatCount:       settings.RepeatCount,
	})
	if err != nil {
		return ErrInvalidSettingsData
	}

	return r.client.Set(ctx, settingsKey, data, 0).Err()
}
