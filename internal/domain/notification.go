package domain

import "time"

type Channel string

const (
	ChannelDefault Channel = "med_default"
	ChannelSilent  Channel = "med_silent"
)

const NotificationKindReminder = "MED_REMINDER"

// DoseOccurrence is one due dose of one medication.
type DoseOccurrence struct {
	MedicationID string
	Date         Date
	Time         string
}

type DoseItem struct {
	MedicationID string
	Name         string
	Dosage       string
}

// NotificationEvent groups every occurrence sharing a date and time.
type NotificationEvent struct {
	ScheduledAt   time.Time
	Date          Date
	Time          string
	GroupKey      string
	MedicationIDs []string
	Doses         []DoseItem
}

func GroupKey(date Date, t string) string {
	return date.String() + "|" + t
}

type PayloadDose struct {
	MedicationID string `json:"medId"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Time         string `json:"time"`
}

// NotificationPayload is attached to every scheduled notification. Auto
// marks notifications owned by the planner; anything else is left alone.
type NotificationPayload struct {
	Kind          string        `json:"kind"`
	Auto          bool          `json:"auto"`
	GroupKey      string        `json:"groupKey"`
	DateKey       string        `json:"dateKey"`
	Time          string        `json:"time"`
	DisplayTime   string        `json:"displayTime"`
	MedicationIDs []string      `json:"medIds"`
	Doses         []PayloadDose `json:"doses"`
	RepeatIndex   int           `json:"repeatIndex"`
	Snooze        bool          `json:"snooze"`
}

type Notification struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Channel   Channel             `json:"channel"`
	DeliverAt time.Time           `json:"deliverAt"`
	Payload   NotificationPayload `json:"payload"`
}

// ScheduledNotification is a notification as reported back by the
// delivery service.
type ScheduledNotification struct {
	ID        string
	DeliverAt time.Time
	Payload   NotificationPayload
}
