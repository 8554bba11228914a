// Package grouping merges simultaneous doses into notification events.
package grouping

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/timeset"
)

type Grouper struct {
	tag      language.Tag
	location *time.Location
}

func NewGrouper(tag language.Tag, location *time.Location) *Grouper {
	if location == nil {
		location = time.Local
	}
	return &Grouper{tag: tag, location: location}
}

type Result struct {
	Events []domain.NotificationEvent
	// Skipped holds occurrences whose time is not a clock value or whose
	// medication is unknown.
	Skipped []domain.DoseOccurrence
}

// Group merges occurrences sharing a date and time into one event each.
// Events are returned in chronological order.
func (g *Grouper) Group(ctx context.Context, occurrences []domain.DoseOccurrence, meds []*domain.Medication) Result {
	byID := make(map[string]*domain.Medication, len(meds))
	for _, med := range meds {
		byID[med.ID] = med
	}

	result := Result{
		Events:  make([]domain.NotificationEvent, 0),
		Skipped: make([]domain.DoseOccurrence, 0),
	}
	index := make(map[string]int)

	for _, occ := range occurrences {
		med, ok := byID[occ.MedicationID]
		if !ok {
			slog.WarnContext(ctx, "occurrence references unknown medication",
				slog.String("medication_id", occ.MedicationID),
				slog.String("date", occ.Date.String()),
			)
			result.Skipped = append(result.Skipped, occ)
			continue
		}

		minutes, err := timeset.Minutes(occ.Time)
		if err != nil {
			slog.WarnContext(ctx, "skipping dose with unparseable time",
				slog.String("medication_id", occ.MedicationID),
				slog.String("date", occ.Date.String()),
				slog.String("time", occ.Time),
			)
			result.Skipped = append(result.Skipped, occ)
			continue
		}

		key := domain.GroupKey(occ.Date, occ.Time)
		i, ok := index[key]
		if !ok {
			i = len(result.Events)
			index[key] = i
			result.Events = append(result.Events, domain.NotificationEvent{
				ScheduledAt: occ.Date.At(g.location, minutes/60, minutes%60),
				Date:        occ.Date,
				Time:        occ.Time,
				GroupKey:    key,
			})
		}

		ev := &result.Events[i]
		if slices.Contains(ev.MedicationIDs, med.ID) {
			continue
		}
		ev.MedicationIDs = append(ev.MedicationIDs, med.ID)
		ev.Doses = append(ev.Doses, domain.DoseItem{
			MedicationID: med.ID,
			Name:         med.Name,
			Dosage:       med.Dosage,
		})
	}

	collator := collate.New(g.tag)
	for i := range result.Events {
		ev := &result.Events[i]
		slices.Sort(ev.MedicationIDs)
		slices.SortStableFunc(ev.Doses, func(a, b domain.DoseItem) int {
			if c := collator.CompareString(a.Name, b.Name); c != 0 {
				return c
			}
			return cmp.Compare(a.MedicationID, b.MedicationID)
		})
	}

	slices.SortStableFunc(result.Events, func(a, b domain.NotificationEvent) int {
		return a.ScheduledAt.Compare(b.ScheduledAt)
	})

	return result
}
