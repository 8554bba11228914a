package config

import "errors"

var (
	ErrRedisAddrMissing      = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB        = errors.New("REDIS_DB must be a valid integer")
	ErrInvalidTimezone       = errors.New("PLANNER_TIMEZONE must be a valid IANA time zone")
	ErrInvalidLocale         = errors.New("PLANNER_COLLATION_LOCALE must be a valid BCP 47 tag")
	ErrInvalidWeekdaysPolicy = errors.New("PLANNER_EMPTY_WEEKDAYS must be \"all\" or \"none\"")
)
