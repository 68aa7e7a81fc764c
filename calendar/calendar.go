package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Calendar answers whether a date is a good business day. Holiday data for a
// jurisdiction is supplied by the caller; this package owns only the rules.
type Calendar interface {
	IsBusinessDay(t time.Time) bool
}

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// NONE treats every day as a business day.
	NONE CalendarID = "NONE"
	// WEEKENDS closes Saturdays and Sundays only.
	WEEKENDS CalendarID = "WEEKENDS"
	TARGET   CalendarID = "TARGET"
	USD      CalendarID = "USD"
	JPN      CalendarID = "JPN"
	KRW      CalendarID = "KRW"
)

// HolidayCalendar closes weekends plus an explicit holiday set.
type HolidayCalendar struct {
	ID       CalendarID
	holidays map[string]struct{}
	noClose  bool
}

// New builds a calendar for id with the given holiday dates.
func New(id CalendarID, holidays []time.Time) *HolidayCalendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Format("2006-01-02")] = struct{}{}
	}
	return &HolidayCalendar{ID: id, holidays: set, noClose: id == NONE}
}

// Lookup resolves a calendar name. Any jurisdiction id is accepted; its
// holidays come from the caller.
func Lookup(name string, holidays []time.Time) (*HolidayCalendar, error) {
	id := CalendarID(strings.ToUpper(strings.TrimSpace(name)))
	switch id {
	case "":
		return New(WEEKENDS, holidays), nil
	case NONE:
		if len(holidays) > 0 {
			return nil, fmt.Errorf("calendar %s does not take holidays", NONE)
		}
		return New(NONE, nil), nil
	case WEEKENDS, TARGET, USD, JPN, KRW:
		return New(id, holidays), nil
	default:
		return nil, fmt.Errorf("unknown calendar %q", name)
	}
}

func (c *HolidayCalendar) isHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay checks weekends and holiday sets.
func (c *HolidayCalendar) IsBusinessDay(t time.Time) bool {
	if c.noClose {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(t)
}

// BusinessDayConvention selects how a non-business day is rolled.
type BusinessDayConvention string

const (
	Unadjusted        BusinessDayConvention = "UNADJUSTED"
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
)

// ParseConvention maps a convention name to a BusinessDayConvention.
// An empty name means Unadjusted.
func ParseConvention(s string) (BusinessDayConvention, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "", "UNADJUSTED":
		return Unadjusted, nil
	case "FOLLOWING", "F":
		return Following, nil
	case "MODIFIED_FOLLOWING", "MODIFIEDFOLLOWING", "MF":
		return ModifiedFollowing, nil
	case "PRECEDING", "P":
		return Preceding, nil
	default:
		return "", fmt.Errorf("unknown business day convention %q", s)
	}
}

// Adjust rolls t onto a business day of cal according to conv.
func Adjust(cal Calendar, t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return AdjustFollowing(cal, t)
	case ModifiedFollowing:
		return AdjustModifiedFollowing(cal, t)
	case Preceding:
		for !cal.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
		return t
	default:
		return t
	}
}

// AdjustModifiedFollowing rolls forward unless that crosses a month end, in
// which case it rolls backward.
func AdjustModifiedFollowing(cal Calendar, t time.Time) time.Time {
	origMonth := t.Month()
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !cal.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal Calendar, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if cal.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}
