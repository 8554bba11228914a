package domain

import "time"

type DoseStatus string

const (
	DoseStatusPending DoseStatus = "pending"
	DoseStatusTaken   DoseStatus = "taken"
	DoseStatusSkipped DoseStatus = "skipped"
)

func (s DoseStatus) Valid() bool {
	switch s {
	case DoseStatusPending, DoseStatusTaken, DoseStatusSkipped:
		return true
	default:
		return false
	}
}

// Resolved reports whether the dose no longer needs a reminder.
func (s DoseStatus) Resolved() bool {
	return s == DoseStatusTaken || s == DoseStatusSkipped
}

// StatusRecord is the stored status of one dose. An empty Time marks a
// legacy record that applies to every time of the medication on Date.
type StatusRecord struct {
	Date         Date
	MedicationID string
	Time         string
	Status       DoseStatus
	UpdatedAt    time.Time
}

type StatusKey struct {
	Date         Date
	MedicationID string
	Time         string
}

// StatusSet is an in-memory snapshot of status records.
type StatusSet map[StatusKey]DoseStatus

func NewStatusSet(records []StatusRecord) StatusSet {
	set := make(StatusSet, len(records))
	for _, r := range records {
		set[StatusKey{Date: r.Date, MedicationID: r.MedicationID, Time: r.Time}] = r.Status
	}
	return set
}

// Status returns the status of a dose, falling back to the legacy
// date-and-medication record when no exact record exists.
func (s StatusSet) Status(date Date, medicationID, time string) DoseStatus {
	if st, ok := s[StatusKey{Date: date, MedicationID: medicationID, Time: time}]; ok {
		return st
	}
	if st, ok := s[StatusKey{Date: date, MedicationID: medicationID}]; ok {
		return st
	}
	return DoseStatusPending
}
