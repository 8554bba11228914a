package recurrence

import (
	"slices"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

// Evaluator decides whether a recurrence rule makes a medication due on a
// calendar date.
type Evaluator struct {
	emptyWeekdays config.EmptyWeekdaysPolicy
}

func NewEvaluator(emptyWeekdays config.EmptyWeekdaysPolicy) *Evaluator {
	if emptyWeekdays == "" {
		emptyWeekdays = config.EmptyWeekdaysAll
	}
	return &Evaluator{emptyWeekdays: emptyWeekdays}
}

func (e *Evaluator) IsDue(rule domain.RecurrenceRule, start *domain.Date, date domain.Date) bool {
	if start != nil && !start.IsZero() && date.Before(*start) {
		return false
	}

	switch rule.Kind {
	case domain.RecurrenceDaily:
		return true
	case domain.RecurrenceWeekdays:
		if len(rule.Weekdays) == 0 {
			return e.emptyWeekdays == config.EmptyWeekdaysAll
		}
		return slices.Contains(rule.Weekdays, int(date.Weekday()))
	default:
		return slices.Contains(rule.Dates, date)
	}
}

// Cache memoizes IsDue per medication and date so that a medication with
// several times of day is evaluated once per day.
type Cache struct {
	evaluator *Evaluator
	entries   map[cacheKey]bool
}

type cacheKey struct {
	medicationID string
	date         domain.Date
}

func NewCache(evaluator *Evaluator) *Cache {
	return &Cache{
		evaluator: evaluator,
		entries:   make(map[cacheKey]bool),
	}
}

func (c *Cache) IsDue(med *domain.Medication, date domain.Date) bool {
	key := cacheKey{medicationID: med.ID, date: date}
	if due, ok := c.entries[key]; ok {
		return due
	}
	due := c.evaluator.IsDue(med.Recurrence, med.StartDate, date)
	c.entries[key] = due
	return due
}
