package domain

import "errors"

var (
	ErrMedicationNotFound = errors.New("medication not found")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidTime        = errors.New("invalid time of day")
	ErrInvalidStatus      = errors.New("invalid dose status")
	ErrInvalidRecurrence  = errors.New("invalid recurrence rule")
	ErrInvalidSettings    = errors.New("invalid settings")
	ErrEmptyName          = errors.New("medication name is required")
)
