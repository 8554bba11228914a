// Package quiet decides which notification channel a delivery time uses.
package quiet

import (
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/timeset"
)

// IsMuted reports whether minute-of-day t falls inside the quiet range
// [from, to). A range with from > to wraps midnight and from == to is empty.
func IsMuted(t, from, to int) bool {
	switch {
	case from == to:
		return false
	case from < to:
		return t >= from && t < to
	default:
		return t >= from || t < to
	}
}

// Channel returns the channel for a notification delivered at at. Quiet
// hours that cannot be parsed disable muting.
func Channel(settings domain.Settings, at time.Time) domain.Channel {
	if !settings.QuietHoursEnabled {
		return domain.ChannelDefault
	}

	from, err := timeset.Minutes(settings.QuietFrom)
	if err != nil {
		return domain.ChannelDefault
	}
	to, err := timeset.Minutes(settings.QuietTo)
	if err != nil {
		return domain.ChannelDefault
	}

	if IsMuted(at.Hour()*60+at.Minute(), from, to) {
		return domain.ChannelSilent
	}
	return domain.ChannelDefault
}
