// Package repeat expands an event into its follow-up reminders.
package repeat

import "time"

const DefaultIntervalMinutes = 10

// Expand returns eventAt + k*interval for k = 1..maxRepeats, stopping at
// the first candidate at or after nextAt. An interval below one minute
// uses DefaultIntervalMinutes and a negative count yields nothing.
func Expand(eventAt, nextAt time.Time, intervalMinutes, maxRepeats int) []time.Time {
	if intervalMinutes < 1 {
		intervalMinutes = DefaultIntervalMinutes
	}
	if maxRepeats <= 0 {
		return nil
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	out := make([]time.Time, 0, maxRepeats)
	for k := 1; k <= maxRepeats; k++ {
		at := eventAt.Add(time.Duration(k) * interval)
		if !at.Before(nextAt) {
			break
		}
		out = append(out, at)
	}
	return out
}
