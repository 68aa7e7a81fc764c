package bond_test

import (
	"errors"
	"testing"
	"time"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSchedule_BackwardFromMaturity(t *testing.T) {
	t.Parallel()

	s, err := bond.BuildSchedule(date(2020, 1, 15), date(2030, 1, 15), 2, nil, calendar.Unadjusted)
	if err != nil {
		t.Fatalf("BuildSchedule error: %v", err)
	}
	if len(s.Dates) != 21 {
		t.Fatalf("expected 21 dates, got %d", len(s.Dates))
	}
	if !s.Dates[0].Equal(date(2020, 1, 15)) {
		t.Fatalf("first date mismatch: got %s", s.Dates[0].Format("2006-01-02"))
	}
	if !s.Maturity().Equal(date(2030, 1, 15)) {
		t.Fatalf("last date mismatch: got %s", s.Maturity().Format("2006-01-02"))
	}
	for i := 1; i < len(s.Dates); i++ {
		if !s.Dates[i-1].Before(s.Dates[i]) {
			t.Fatalf("schedule not strictly increasing at %d", i)
		}
	}
	if !s.FirstCoupon().Equal(date(2020, 7, 15)) {
		t.Fatalf("FirstCoupon mismatch: got %s", s.FirstCoupon().Format("2006-01-02"))
	}
}

func TestBuildSchedule_OddFirstPeriodKeepsRegularDates(t *testing.T) {
	t.Parallel()

	s, err := bond.BuildSchedule(date(2020, 3, 1), date(2025, 1, 15), 2, nil, calendar.Unadjusted)
	if err != nil {
		t.Fatalf("BuildSchedule error: %v", err)
	}
	if !s.Dates[0].Equal(date(2020, 7, 15)) {
		t.Fatalf("first entry should be the last backward step on/after accrual start, got %s",
			s.Dates[0].Format("2006-01-02"))
	}
	if len(s.Dates) != 10 {
		t.Fatalf("expected 10 dates, got %d", len(s.Dates))
	}

	start, end, ok := s.Period(date(2020, 5, 1))
	if !ok {
		t.Fatalf("Period should cover a date inside the first period")
	}
	if !start.Equal(date(2020, 3, 1)) || !end.Equal(date(2020, 7, 15)) {
		t.Fatalf("first period mismatch: %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
}

func TestBuildSchedule_EndOfMonthMaturity(t *testing.T) {
	t.Parallel()

	s, err := bond.BuildSchedule(date(2023, 8, 31), date(2026, 8, 31), 2, nil, calendar.Unadjusted)
	if err != nil {
		t.Fatalf("BuildSchedule error: %v", err)
	}
	want := []time.Time{
		date(2023, 8, 31), date(2024, 2, 29), date(2024, 8, 31), date(2025, 2, 28),
		date(2025, 8, 31), date(2026, 2, 28), date(2026, 8, 31),
	}
	if len(s.Dates) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(s.Dates))
	}
	for i := range want {
		if !s.Dates[i].Equal(want[i]) {
			t.Fatalf("date %d mismatch: got %s want %s", i, s.Dates[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
}

func TestBuildSchedule_PaymentDatesAdjusted(t *testing.T) {
	t.Parallel()

	cal := calendar.New(calendar.WEEKENDS, nil)
	s, err := bond.BuildSchedule(date(2024, 11, 30), date(2025, 5, 31), 2, cal, calendar.ModifiedFollowing)
	if err != nil {
		t.Fatalf("BuildSchedule error: %v", err)
	}
	if !s.Maturity().Equal(date(2025, 5, 31)) {
		t.Fatalf("accrual dates must stay unadjusted, got %s", s.Maturity().Format("2006-01-02"))
	}
	pay := s.PaymentDates[len(s.PaymentDates)-1]
	if !pay.Equal(date(2025, 5, 30)) {
		t.Fatalf("payment date mismatch: got %s", pay.Format("2006-01-02"))
	}
	next, ok := s.NextPaymentDate(date(2025, 1, 10))
	if !ok || !next.Equal(date(2025, 5, 30)) {
		t.Fatalf("NextPaymentDate mismatch: got %s ok=%v", next.Format("2006-01-02"), ok)
	}
}

func TestBuildSchedule_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := bond.BuildSchedule(date(2025, 1, 15), date(2025, 1, 15), 2, nil, calendar.Unadjusted); !errors.Is(err, bond.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule for maturity == accrual start, got %v", err)
	}
	if _, err := bond.BuildSchedule(date(2026, 1, 15), date(2025, 1, 15), 2, nil, calendar.Unadjusted); !errors.Is(err, bond.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule for maturity before accrual start, got %v", err)
	}
	if _, err := bond.BuildSchedule(date(2020, 1, 15), date(2025, 1, 15), 3, nil, calendar.Unadjusted); !errors.Is(err, bond.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule for frequency 3, got %v", err)
	}
}
