package domain

import "context"

//go:generate mockgen -source=medication_repository.go -destination=medication_repository_mock.go -package=domain

type MedicationRepository interface {
	ListMedications(ctx context.Context) ([]*Medication, error)
	GetMedication(ctx context.Context, id string) (*Medication, error)
	SaveMedication(ctx context.Context, med *Medication) error
	// DeleteMedication removes the medication and every status record of it.
	DeleteMedication(ctx context.Context, id string) error

	GetStatus(ctx context.Context, date Date, medicationID, time string) (DoseStatus, error)
	// SetStatus stores a status. Pending removes the record instead.
	SetStatus(ctx context.Context, record StatusRecord) error
	// ListStatuses returns records with from <= date <= to. An empty
	// medicationID matches every medication.
	ListStatuses(ctx context.Context, from, to Date, medicationID string) ([]StatusRecord, error)
}
