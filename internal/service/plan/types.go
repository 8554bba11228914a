package plan

import (
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type PlannedRepeat struct {
	Index   int            `json:"index"`
	At      time.Time      `json:"at"`
	Channel domain.Channel `json:"channel"`
}

// PlannedEvent is a notification event with its delivery channel and the
// repeats that follow it.
type PlannedEvent struct {
	domain.NotificationEvent
	Channel domain.Channel  `json:"channel"`
	Repeats []PlannedRepeat `json:"repeats"`
}

type Plan struct {
	ComputedAt time.Time               `json:"computed_at"`
	Today      domain.Date             `json:"today"`
	WindowDays int                     `json:"window_days"`
	WindowEnd  time.Time               `json:"window_end"`
	Settings   domain.Settings         `json:"settings"`
	Events     []PlannedEvent          `json:"events"`
	Skipped    []domain.DoseOccurrence `json:"skipped,omitempty"`
	Signature  Signature               `json:"signature"`
}

// NotificationCount is the number of deliveries the plan describes,
// primaries and repeats together.
func (p *Plan) NotificationCount() int {
	n := 0
	for _, ev := range p.Events {
		n += 1 + len(ev.Repeats)
	}
	return n
}
