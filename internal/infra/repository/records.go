package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type recurrenceRecord struct {
	Kind     string   `json:"kind"`
	Weekdays []int    `json:"weekdays,omitempty"`
	Dates    []string `json:"dates,omitempty"`
}

type medicationRecord struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Dosage     string           `json:"dosage,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Times      []string         `json:"times,omitempty"`
	LegacyTime string           `json:"time,omitempty"`
	StartDate  string           `json:"start_date,omitempty"`
	Recurrence recurrenceRecord `json:"recurrence"`
	Paused     bool             `json:"paused"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type statusRecord struct {
	Date         string    `json:"date"`
	MedicationID string    `json:"medication_id"`
	Time         string    `json:"time,omitempty"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type settingsRecord struct {
	Enabled           bool   `json:"enabled"`
	QuietHoursEnabled bool   `json:"quiet_hours_enabled"`
	QuietFrom         string `json:"quiet_from"`
	QuietTo           string `json:"quiet_to"`
	RepeatEnabled     bool   `json:"repeat_enabled"`
	RepeatMinutes     int    `json:"repeat_minutes"`
	RepeatCount       int    `json:"repeat_count"`
}

func toMedicationRecord(med *domain.Medication) medicationRecord {
	dates := make([]string, 0, len(med.Recurrence.Dates))
	for _, d := range med.Recurrence.Dates {
		dates = append(dates, d.String())
	}

	record := medicationRecord{
		ID:         med.ID,
		Name:       med.Name,
		Dosage:     med.Dosage,
		Notes:      med.Notes,
		Times:      med.Times,
		LegacyTime: med.LegacyTime,
		Recurrence: recurrenceRecord{
			Kind:     string(med.Recurrence.Kind),
			Weekdays: med.Recurrence.Weekdays,
			Dates:    dates,
		},
		Paused:    med.Paused,
		CreatedAt: med.CreatedAt,
		UpdatedAt: med.UpdatedAt,
	}
	if med.StartDate != nil {
		record.StartDate = med.StartDate.String()
	}
	return record
}

func (r medicationRecord) toDomain() (*domain.Medication, error) {
	med := &domain.Medication{
		ID:         r.ID,
		Name:       r.Name,
		Dosage:     r.Dosage,
		Notes:      r.Notes,
		Times:      r.Times,
		LegacyTime: r.LegacyTime,
		Recurrence: domain.RecurrenceRule{
			Kind:     domain.RecurrenceKind(r.Recurrence.Kind),
			Weekdays: r.Recurrence.Weekdays,
		},
		Paused:    r.Paused,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	for _, s := range r.Recurrence.Dates {
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMedicationData, err)
		}
		med.Recurrence.Dates = append(med.Recurrence.Dates, d)
	}

	if r.StartDate != "" {
		d, err := domain.ParseDate(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMedicationData, err)
		}
		med.StartDate = &d
	}

	return med, nil
}

func (r statusRecord) toDomain() (domain.StatusRecord, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return domain.StatusRecord{}, fmt.Errorf("%w: %w", ErrInvalidStatusData, err)
	}
	return domain.StatusRecord{
		Date:         date,
		MedicationID: r.MedicationID,
		Time:         r.Time,
		Status:       domain.DoseStatus(r.Status),
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

// statusMember identifies a dose in the status hash and indexes.
func statusMember(date domain.Date, medicationID, t string) string {
	return strings.Join([]string{date.String(), medicationID, t}, "|")
}

func medicationIDOfMember(member string) string {
	parts := strings.SplitN(member, "|", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func dateScore(d domain.Date) float64 {
	return float64(d.Year*10000 + int(d.Month)*100 + d.Day)
}
