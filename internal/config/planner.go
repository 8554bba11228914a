package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	plannerWindowDaysEnv      = "PLANNER_WINDOW_DAYS"
	plannerDebounceMsEnv      = "PLANNER_DEBOUNCE_MS"
	plannerLeadSecondsEnv     = "PLANNER_SCHEDULE_LEAD_SECONDS"
	plannerTimezoneEnv        = "PLANNER_TIMEZONE"
	plannerCollationLocaleEnv = "PLANNER_COLLATION_LOCALE"
	plannerEmptyWeekdaysEnv   = "PLANNER_EMPTY_WEEKDAYS"
	snoozeMinutesEnv          = "SNOOZE_MINUTES"

	defaultWindowDays      = 5
	defaultDebounceMs      = 300
	defaultLeadSeconds     = 5
	defaultCollationLocale = "en"
	defaultSnoozeMinutes   = 15
)

type EmptyWeekdaysPolicy string

const (
	// EmptyWeekdaysAll treats a weekdays rule without days as every day.
	EmptyWeekdaysAll EmptyWeekdaysPolicy = "all"
	// EmptyWeekdaysNone treats a weekdays rule without days as never due.
	EmptyWeekdaysNone EmptyWeekdaysPolicy = "none"
)

type PlannerConfig struct {
	WindowDays    int
	Debounce      time.Duration
	ScheduleLead  time.Duration
	Location      *time.Location
	Collation     language.Tag
	EmptyWeekdays EmptyWeekdaysPolicy
	SnoozeMinutes int
}

func DefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{
		WindowDays:    defaultWindowDays,
		Debounce:      defaultDebounceMs * time.Millisecond,
		ScheduleLead:  defaultLeadSeconds * time.Second,
		Location:      time.Local,
		Collation:     language.English,
		EmptyWeekdays: EmptyWeekdaysAll,
		SnoozeMinutes: defaultSnoozeMinutes,
	}
}

func LoadPlannerConfig() (*PlannerConfig, error) {
	cfg := DefaultPlannerConfig()

	cfg.WindowDays = positiveIntEnv(plannerWindowDaysEnv, defaultWindowDays)
	cfg.Debounce = time.Duration(nonNegativeIntEnv(plannerDebounceMsEnv, defaultDebounceMs)) * time.Millisecond
	cfg.ScheduleLead = time.Duration(nonNegativeIntEnv(plannerLeadSecondsEnv, defaultLeadSeconds)) * time.Second
	cfg.SnoozeMinutes = positiveIntEnv(snoozeMinutesEnv, defaultSnoozeMinutes)

	if v := os.Getenv(plannerTimezoneEnv); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, ErrInvalidTimezone
		}
		cfg.Location = loc
	}

	locale := os.Getenv(plannerCollationLocaleEnv)
	if locale == "" {
		locale = defaultCollationLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, ErrInvalidLocale
	}
	cfg.Collation = tag

	if v := os.Getenv(plannerEmptyWeekdaysEnv); v != "" {
		policy := EmptyWeekdaysPolicy(strings.ToLower(v))
		if policy != EmptyWeekdaysAll && policy != EmptyWeekdaysNone {
			return nil, ErrInvalidWeekdaysPolicy
		}
		cfg.EmptyWeekdays = policy
	}

	return cfg, nil
}

func positiveIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func nonNegativeIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return def
}
