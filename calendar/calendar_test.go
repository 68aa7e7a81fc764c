package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/bondrisk/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	t.Parallel()

	cal := calendar.New(calendar.USD, []time.Time{date(2025, 7, 4)})

	if cal.IsBusinessDay(date(2025, 7, 4)) {
		t.Fatalf("2025-07-04 is a holiday")
	}
	if cal.IsBusinessDay(date(2025, 7, 5)) {
		t.Fatalf("2025-07-05 is a Saturday")
	}
	if !cal.IsBusinessDay(date(2025, 7, 7)) {
		t.Fatalf("2025-07-07 is a Monday")
	}

	none := calendar.New(calendar.NONE, nil)
	if !none.IsBusinessDay(date(2025, 7, 5)) {
		t.Fatalf("NONE calendar should open weekends")
	}
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	cal := calendar.New(calendar.WEEKENDS, nil)
	// 2025-05-31 is a Saturday; following crosses into June.
	sat := date(2025, 5, 31)

	if got := calendar.Adjust(cal, sat, calendar.Unadjusted); !got.Equal(sat) {
		t.Fatalf("Unadjusted moved date to %s", got.Format("2006-01-02"))
	}
	if got := calendar.Adjust(cal, sat, calendar.Following); !got.Equal(date(2025, 6, 2)) {
		t.Fatalf("Following mismatch: got %s", got.Format("2006-01-02"))
	}
	if got := calendar.Adjust(cal, sat, calendar.ModifiedFollowing); !got.Equal(date(2025, 5, 30)) {
		t.Fatalf("ModifiedFollowing mismatch: got %s", got.Format("2006-01-02"))
	}
	if got := calendar.Adjust(cal, sat, calendar.Preceding); !got.Equal(date(2025, 5, 30)) {
		t.Fatalf("Preceding mismatch: got %s", got.Format("2006-01-02"))
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	cal := calendar.New(calendar.USD, []time.Time{date(2021, 10, 11)})
	// Friday 2021-10-08 + 1 business day skips the weekend and the Monday holiday.
	got := calendar.AddBusinessDays(cal, date(2021, 10, 8), 1)
	if !got.Equal(date(2021, 10, 12)) {
		t.Fatalf("AddBusinessDays mismatch: got %s", got.Format("2006-01-02"))
	}
	back := calendar.AddBusinessDays(cal, got, -1)
	if !back.Equal(date(2021, 10, 8)) {
		t.Fatalf("AddBusinessDays(-1) mismatch: got %s", back.Format("2006-01-02"))
	}
}

func TestLookupAndParseConvention(t *testing.T) {
	t.Parallel()

	cal, err := calendar.Lookup("usd", nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if cal.ID != calendar.USD {
		t.Fatalf("Lookup id mismatch: got %s", cal.ID)
	}
	if _, err := calendar.Lookup("MARS", nil); err == nil {
		t.Fatalf("expected error for unknown calendar")
	}
	if _, err := calendar.Lookup("NONE", []time.Time{date(2025, 1, 1)}); err == nil {
		t.Fatalf("expected error for holidays on NONE calendar")
	}

	conv, err := calendar.ParseConvention("modified following")
	if err != nil || conv != calendar.ModifiedFollowing {
		t.Fatalf("ParseConvention: got %q err=%v", conv, err)
	}
	if conv, _ := calendar.ParseConvention(""); conv != calendar.Unadjusted {
		t.Fatalf("empty convention should be Unadjusted, got %q", conv)
	}
}
