package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

const maxBodyItems = 4

type Period string

const (
	PeriodMorning Period = "morning"
	PeriodDay     Period = "day"
	PeriodEvening Period = "evening"
)

// PeriodOf classifies an "HH:MM" time: 05-11 morning, 12-17 day and
// evening otherwise.
func PeriodOf(t string) Period {
	hourPart, _, _ := strings.Cut(t, ":")
	hour, _ := strconv.Atoi(hourPart)
	switch {
	case hour >= 5 && hour <= 11:
		return PeriodMorning
	case hour >= 12 && hour <= 17:
		return PeriodDay
	default:
		return PeriodEvening
	}
}

func Title(t string, repeat bool) string {
	title := fmt.Sprintf("Medication time (%s)", PeriodOf(t))
	if repeat {
		title += " (repeat)"
	}
	return title
}

func SnoozeTitle() string {
	return "Medication time (snoozed)"
}

// Body renders "HH:MM • N medications: A 5mg, B, + N more". At most four
// doses are listed by name.
func Body(displayTime string, doses []domain.DoseItem) string {
	shown := make([]string, 0, min(len(doses), maxBodyItems))
	for i, d := range doses {
		if i == maxBodyItems {
			break
		}
		shown = append(shown, strings.TrimSpace(d.Name+" "+d.Dosage))
	}

	text := strings.Join(shown, ", ")
	if rest := len(doses) - len(shown); rest > 0 {
		text += fmt.Sprintf(", + %d more", rest)
	}
	if len(doses) > 1 {
		text = fmt.Sprintf("%d medications: %s", len(doses), text)
	}

	return displayTime + " • " + text
}
