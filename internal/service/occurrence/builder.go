// Package occurrence expands medications into the individual doses due in
// a window of calendar days.
package occurrence

import (
	"cmp"
	"slices"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/recurrence"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/timeset"
)

type StatusLookup interface {
	Status(date domain.Date, medicationID, time string) domain.DoseStatus
}

type Builder struct {
	evaluator *recurrence.Evaluator
}

func NewBuilder(evaluator *recurrence.Evaluator) *Builder {
	return &Builder{evaluator: evaluator}
}

// Build returns every unresolved dose in [today, today+windowDays) ordered
// by date, time and medication id.
func (b *Builder) Build(meds []*domain.Medication, today domain.Date, windowDays int, statuses StatusLookup) []domain.DoseOccurrence {
	cache := recurrence.NewCache(b.evaluator)
	times := normalizedTimes(meds)

	out := make([]domain.DoseOccurrence, 0)
	for offset := 0; offset < windowDays; offset++ {
		date := today.AddDays(offset)
		for _, med := range meds {
			if med.Paused || !cache.IsDue(med, date) {
				continue
			}
			for _, t := range times[med.ID] {
				if statuses != nil && statuses.Status(date, med.ID, t).Resolved() {
					continue
				}
				out = append(out, domain.DoseOccurrence{MedicationID: med.ID, Date: date, Time: t})
			}
		}
	}

	Sort(out)
	return out
}

// DueOn returns every dose due on date regardless of its status.
func (b *Builder) DueOn(meds []*domain.Medication, date domain.Date) []domain.DoseOccurrence {
	return b.Build(meds, date, 1, nil)
}

func Sort(occurrences []domain.DoseOccurrence) {
	slices.SortStableFunc(occurrences, func(a, b domain.DoseOccurrence) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.MedicationID, b.MedicationID)
	})
}

func normalizedTimes(meds []*domain.Medication) map[string][]string {
	out := make(map[string][]string, len(meds))
	for _, med := range meds {
		out[med.ID] = timeset.Normalize(med.Times, med.LegacyTime)
	}
	return out
}
