package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

// NewPayload builds the payload shared by planner and user notifications.
func NewPayload(ev domain.NotificationEvent, auto bool, displayTime string, repeatIndex int, snooze bool) domain.NotificationPayload {
	doses := make([]domain.PayloadDose, 0, len(ev.Doses))
	for _, d := range ev.Doses {
		doses = append(doses, domain.PayloadDose{
			MedicationID: d.MedicationID,
			Name:         d.Name,
			Dosage:       d.Dosage,
			Time:         ev.Time,
		})
	}

	ids := make([]string, len(ev.MedicationIDs))
	copy(ids, ev.MedicationIDs)

	return domain.NotificationPayload{
		Kind:          domain.NotificationKindReminder,
		Auto:          auto,
		GroupKey:      ev.GroupKey,
		DateKey:       ev.Date.String(),
		Time:          ev.Time,
		DisplayTime:   displayTime,
		MedicationIDs: ids,
		Doses:         doses,
		RepeatIndex:   repeatIndex,
		Snooze:        snooze,
	}
}

// NotificationID returns a task-name safe identifier for an automatic
// notification. runID keeps ids unique across passes.
func NotificationID(date domain.Date, t string, repeatIndex int, runID string) string {
	return fmt.Sprintf("auto-%s-%s-r%d-%s",
		date.String(), strings.ReplaceAll(t, ":", ""), repeatIndex, shortID(runID))
}

// SnoozeID returns the identifier of a user snooze for the dose group.
func SnoozeID(date domain.Date, t string, id string) string {
	return fmt.Sprintf("snooze-%s-%s-%s",
		date.String(), strings.ReplaceAll(t, ":", ""), shortID(id))
}

// Notifications expands the plan into one notification per primary and
// repeat, all tagged as automatic.
func (p *Plan) Notifications(runID string) []*domain.Notification {
	out := make([]*domain.Notification, 0, p.NotificationCount())
	for _, ev := range p.Events {
		out = append(out, &domain.Notification{
			ID:        NotificationID(ev.Date, ev.Time, 0, runID),
			Title:     Title(ev.Time, false),
			Body:      Body(ev.Time, ev.Doses),
			Channel:   ev.Channel,
			DeliverAt: ev.ScheduledAt,
			Payload:   NewPayload(ev.NotificationEvent, true, ev.Time, 0, false),
		})

		for _, r := range ev.Repeats {
			out = append(out, &domain.Notification{
				ID:        NotificationID(ev.Date, ev.Time, r.Index, runID),
				Title:     Title(ev.Time, true),
				Body:      Body(ev.Time, ev.Doses),
				Channel:   r.Channel,
				DeliverAt: r.At,
				Payload:   NewPayload(ev.NotificationEvent, true, ev.Time, r.Index, false),
			})
		}
	}
	return out
}

// Schedulable keeps the notifications whose delivery time is after
// now+lead. The rest are returned as dropped.
func Schedulable(notifications []*domain.Notification, now time.Time, lead time.Duration) (keep, dropped []*domain.Notification) {
	cutoff := now.Add(lead)
	keep = make([]*domain.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.DeliverAt.After(cutoff) {
			keep = append(keep, n)
		} else {
			dropped = append(dropped, n)
		}
	}
	return keep, dropped
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
