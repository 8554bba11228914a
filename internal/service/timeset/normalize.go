// Package timeset canonicalizes the times of day a medication is taken.
package timeset

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

var (
	clockPattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	legacyPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
)

// Normalize returns the sorted, de-duplicated times of day for a
// medication. An explicit non-empty list wins over the legacy string.
// Entries that do not look like a clock time are kept verbatim; callers
// that need a clock value use Minutes and handle the error.
func Normalize(times []string, legacy string) []string {
	if len(times) > 0 {
		return dedupeSorted(times)
	}

	matches := legacyPattern.FindAllString(legacy, -1)
	if len(matches) > 0 {
		return dedupeSorted(matches)
	}

	if raw := strings.TrimSpace(legacy); raw != "" {
		return []string{raw}
	}
	return []string{}
}

// Pad zero-pads "H:MM" to "HH:MM" and trims surrounding space.
func Pad(t string) string {
	t = strings.TrimSpace(t)
	m := clockPattern.FindStringSubmatch(t)
	if m == nil {
		return t
	}
	hour, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", hour, m[2])
}

// Minutes parses "HH:MM" into minutes since midnight.
func Minutes(t string) (int, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(t))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, t)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, t)
	}
	return hour*60 + minute, nil
}

// Format renders minutes since midnight as "HH:MM".
func Format(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func dedupeSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		p := Pad(v)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
