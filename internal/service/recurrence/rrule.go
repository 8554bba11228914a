package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/teambition/rrule-go"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

var ErrUnsupportedRRule = errors.New("rrule cannot be expressed as a medication schedule")

// FromRRule converts an RFC 5545 RRULE into a recurrence rule. Only daily
// rules and weekly rules with BYDAY are accepted. A DTSTART inside the
// rule is returned as the start date.
func FromRRule(ruleStr string) (domain.RecurrenceRule, *domain.Date, error) {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return domain.RecurrenceRule{}, nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}

	if opt.Interval > 1 || opt.Count > 0 || !opt.Until.IsZero() ||
		len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bysetpos) > 0 {
		return domain.RecurrenceRule{}, nil, ErrUnsupportedRRule
	}

	var start *domain.Date
	if !opt.Dtstart.IsZero() {
		d := domain.DateOf(opt.Dtstart)
		start = &d
	}

	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) == 0 {
			return domain.DailyRule(), start, nil
		}
	case rrule.WEEKLY:
		if len(opt.Byweekday) == 0 {
			return domain.RecurrenceRule{}, nil, ErrUnsupportedRRule
		}
	default:
		return domain.RecurrenceRule{}, nil, ErrUnsupportedRRule
	}

	days := make([]int, 0, len(opt.Byweekday))
	for _, wd := range opt.Byweekday {
		if wd.N() != 0 {
			return domain.RecurrenceRule{}, nil, ErrUnsupportedRRule
		}
		// rrule counts from Monday.
		day := (wd.Day() + 1) % 7
		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}
	slices.Sort(days)

	return domain.RecurrenceRule{Kind: domain.RecurrenceWeekdays, Weekdays: days}, start, nil
}

// ToRRule renders a rule as an RRULE value. Date lists have no RRULE form.
func ToRRule(rule domain.RecurrenceRule) (string, error) {
	switch rule.Kind {
	case domain.RecurrenceDaily:
		opt := rrule.ROption{Freq: rrule.DAILY}
		return opt.RRuleString(), nil
	case domain.RecurrenceWeekdays:
		all := []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}
		opt := rrule.ROption{Freq: rrule.WEEKLY}
		days := rule.Weekdays
		if len(days) == 0 {
			days = []int{0, 1, 2, 3, 4, 5, 6}
		}
		for _, d := range days {
			if d < 0 || d > 6 {
				return "", domain.ErrInvalidRecurrence
			}
			opt.Byweekday = append(opt.Byweekday, all[d])
		}
		return opt.RRuleString(), nil
	default:
		return "", ErrUnsupportedRRule
	}
}
