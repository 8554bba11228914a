package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

// Signature identifies the set of notifications a plan would schedule.
// Two plans with equal digests schedule the same notifications.
type Signature struct {
	Canonical string `json:"canonical"`
	Digest    string `json:"digest"`
}

func (s Signature) Equal(o Signature) bool {
	return s.Digest != "" && s.Digest == o.Digest
}

type signatureSettings struct {
	Enabled       bool   `json:"enabled"`
	QuietEnabled  bool   `json:"quietHoursEnabled"`
	QuietFrom     string `json:"quietFrom"`
	QuietTo       string `json:"quietTo"`
	RepeatEnabled bool   `json:"repeatEnabled"`
	RepeatMinutes int    `json:"repeatMinutes"`
	RepeatCount   int    `json:"repeatCount"`
}

type signatureItem struct {
	MedicationID string `json:"medId"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
}

type signatureEvent struct {
	When          int64           `json:"when"`
	DateKey       string          `json:"dateKey"`
	Time          string          `json:"time"`
	MedicationIDs []string        `json:"medIds"`
	Items         []signatureItem `json:"items"`
}

type signatureDocument struct {
	WindowDays int               `json:"windowDays"`
	Settings   signatureSettings `json:"settings"`
	Events     []signatureEvent  `json:"events"`
}

// ComputeSignature builds the canonical form of the plan inputs. Event
// times are truncated to the minute. Struct field order keeps the JSON
// encoding stable.
func ComputeSignature(windowDays int, settings domain.Settings, events []domain.NotificationEvent) (Signature, error) {
	doc := signatureDocument{
		WindowDays: windowDays,
		Settings: signatureSettings{
			Enabled:       settings.Enabled,
			QuietEnabled:  settings.QuietHoursEnabled,
			QuietFrom:     settings.QuietFrom,
			QuietTo:       settings.QuietTo,
			RepeatEnabled: settings.RepeatEnabled,
			RepeatMinutes: settings.RepeatMinutes,
			RepeatCount:   settings.RepeatCount,
		},
		Events: make([]signatureEvent, 0, len(events)),
	}

	for _, ev := range events {
		items := make([]signatureItem, 0, len(ev.Doses))
		for _, d := range ev.Doses {
			items = append(items, signatureItem{MedicationID: d.MedicationID, Name: d.Name, Dosage: d.Dosage})
		}
		ids := ev.MedicationIDs
		if ids == nil {
			ids = []string{}
		}
		doc.Events = append(doc.Events, signatureEvent{
			When:          ev.ScheduledAt.Truncate(time.Minute).UnixMilli(),
			DateKey:       ev.Date.String(),
			Time:          ev.Time,
			MedicationIDs: ids,
			Items:         items,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return Signature{}, err
	}

	sum := sha256.Sum256(data)
	return Signature{
		Canonical: string(data),
		Digest:    hex.EncodeToString(sum[:]),
	}, nil
}
