package bond

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

// Schedule is the coupon date sequence of one bond.
//
// Dates are unadjusted accrual dates and drive valuation. PaymentDates are the
// same dates rolled by the schedule's business day convention.
type Schedule struct {
	AccrualStart time.Time
	Dates        []time.Time
	PaymentDates []time.Time
}

// BuildSchedule generates coupon dates backward from maturity in steps of
// 12/frequency months, keeping every date on or after accrualStart.
//
// A first coupon that does not sit a whole period after accrualStart is kept
// as is; no stub date is inserted.
func BuildSchedule(accrualStart, maturity time.Time, frequency int, cal calendar.Calendar, conv calendar.BusinessDayConvention) (Schedule, error) {
	accrualStart, maturity = utils.DateOnly(accrualStart), utils.DateOnly(maturity)
	if !maturity.After(accrualStart) {
		return Schedule{}, fmt.Errorf("BuildSchedule: maturity %s must be after accrual start %s: %w",
			maturity.Format(utils.DateLayout), accrualStart.Format(utils.DateLayout), ErrInvalidSchedule)
	}
	months, err := monthsPerPeriod(frequency)
	if err != nil {
		return Schedule{}, fmt.Errorf("BuildSchedule: %w", err)
	}

	var dates []time.Time
	for k := 0; ; k++ {
		d := utils.AddMonth(maturity, -k*months)
		if d.Before(accrualStart) {
			break
		}
		dates = append(dates, d)
	}
	utils.SortDates(dates)

	payments := make([]time.Time, len(dates))
	for i, d := range dates {
		if cal == nil {
			payments[i] = d
			continue
		}
		payments[i] = calendar.Adjust(cal, d, conv)
	}

	return Schedule{AccrualStart: accrualStart, Dates: dates, PaymentDates: payments}, nil
}

func monthsPerPeriod(frequency int) (int, error) {
	switch frequency {
	case 1, 2, 4, 12:
		return 12 / frequency, nil
	default:
		return 0, fmt.Errorf("unsupported coupon frequency %d: %w", frequency, ErrInvalidSchedule)
	}
}

// Maturity returns the last schedule date.
func (s Schedule) Maturity() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// FirstCoupon returns the earliest coupon date strictly after accrual start.
func (s Schedule) FirstCoupon() time.Time {
	for _, d := range s.Dates {
		if d.After(s.AccrualStart) {
			return d
		}
	}
	return time.Time{}
}

// Period returns the accrual period containing t: start is the latest
// schedule date on or before t (accrual start if none) and end is the next
// schedule date. ok is false outside [accrual start, maturity).
func (s Schedule) Period(t time.Time) (start, end time.Time, ok bool) {
	if t.Before(s.AccrualStart) || !t.Before(s.Maturity()) {
		return time.Time{}, time.Time{}, false
	}
	i := sort.Search(len(s.Dates), func(i int) bool {
		return s.Dates[i].After(t)
	})
	start = s.AccrualStart
	if i > 0 {
		start = s.Dates[i-1]
	}
	return start, s.Dates[i], true
}

// NextPaymentDate returns the adjusted payment date of the first coupon after t.
func (s Schedule) NextPaymentDate(t time.Time) (time.Time, bool) {
	for i, d := range s.Dates {
		if d.After(t) {
			return s.PaymentDates[i], true
		}
	}
	return time.Time{}, false
}
