package repository

import "errors"

var (
	ErrInvalidMedicationData = errors.New("invalid medication data")
	ErrInvalidStatusData     = errors.New("invalid dose status data")
	ErrInvalidSettingsData   = errors.New("invalid settings data")
)
