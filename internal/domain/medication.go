package domain

import "time"

type RecurrenceKind string

const (
	RecurrenceDaily    RecurrenceKind = "daily"
	RecurrenceWeekdays RecurrenceKind = "weekdays"
	RecurrenceDates    RecurrenceKind = "dates"
)

func (k RecurrenceKind) Valid() bool {
	switch k {
	case RecurrenceDaily, RecurrenceWeekdays, RecurrenceDates:
		return true
	default:
		return false
	}
}

// RecurrenceRule decides which calendar days a medication is due.
// Weekdays use 0 for Sunday through 6 for Saturday.
type RecurrenceRule struct {
	Kind     RecurrenceKind
	Weekdays []int
	Dates    []Date
}

func DailyRule() RecurrenceRule {
	return RecurrenceRule{Kind: RecurrenceDaily}
}

func (r RecurrenceRule) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidRecurrence
	}
	for _, wd := range r.Weekdays {
		if wd < 0 || wd > 6 {
			return ErrInvalidRecurrence
		}
	}
	return nil
}

type Medication struct {
	ID     string
	Name   string
	Dosage string
	Notes  string

	// Times holds canonical "HH:MM" entries. LegacyTime is the free-form
	// single value older records carry instead.
	Times      []string
	LegacyTime string

	StartDate  *Date
	Recurrence RecurrenceRule
	Paused     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
