package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

const (
	defaultFaceValue = 100.0
	defaultFrequency = 2
)

// Terms are the static contract terms of a fixed-coupon bond.
type Terms struct {
	IssueDate        time.Time
	AccrualStartDate time.Time
	// FirstCouponDate is informational; it is checked against the generated
	// schedule but never drives it.
	FirstCouponDate time.Time
	MaturityDate    time.Time
	// CouponRate is annual, as a decimal (0.05 == 5%).
	CouponRate float64
	// FaceValue defaults to 100.
	FaceValue float64
	// Frequency is coupons per year and defaults to 2.
	Frequency int
}

// Bond is a fixed-coupon bond with its generated schedule. Treat as
// immutable once built by New.
type Bond struct {
	Terms
	Schedule Schedule
}

// New validates terms, fills defaults and builds the coupon schedule.
func New(terms Terms, cal calendar.Calendar, conv calendar.BusinessDayConvention) (*Bond, error) {
	if terms.FaceValue == 0 {
		terms.FaceValue = defaultFaceValue
	}
	if terms.Frequency == 0 {
		terms.Frequency = defaultFrequency
	}
	if terms.FaceValue < 0 {
		return nil, fmt.Errorf("bond.New: face value %.4f must be positive", terms.FaceValue)
	}
	if terms.CouponRate < 0 || math.IsNaN(terms.CouponRate) {
		return nil, fmt.Errorf("bond.New: coupon rate %.6f must be non-negative", terms.CouponRate)
	}
	if terms.AccrualStartDate.IsZero() {
		terms.AccrualStartDate = terms.IssueDate
	}
	terms.IssueDate = utils.DateOnly(terms.IssueDate)
	terms.AccrualStartDate = utils.DateOnly(terms.AccrualStartDate)
	terms.MaturityDate = utils.DateOnly(terms.MaturityDate)
	if !terms.FirstCouponDate.IsZero() {
		terms.FirstCouponDate = utils.DateOnly(terms.FirstCouponDate)
	}

	sched, err := BuildSchedule(terms.AccrualStartDate, terms.MaturityDate, terms.Frequency, cal, conv)
	if err != nil {
		return nil, err
	}
	return &Bond{Terms: terms, Schedule: sched}, nil
}

// CouponAmount is the coupon paid each period, in face units.
func (b *Bond) CouponAmount() float64 {
	return b.CouponRate * b.FaceValue / float64(b.Frequency)
}

// FirstCouponMismatch reports whether a supplied FirstCouponDate disagrees
// with the generated schedule.
func (b *Bond) FirstCouponMismatch() bool {
	if b.FirstCouponDate.IsZero() {
		return false
	}
	return !b.FirstCouponDate.Equal(b.Schedule.FirstCoupon())
}

// Cashflows returns the coupons and redemption paid strictly after settlement.
func (b *Bond) Cashflows(settlement time.Time) []Cashflow {
	coupon := b.CouponAmount()
	maturity := b.Schedule.Maturity()
	var out []Cashflow
	for _, d := range b.Schedule.Dates {
		if !d.After(settlement) {
			continue
		}
		// A schedule that starts exactly at accrual start has no coupon there.
		if d.Equal(b.Schedule.AccrualStart) {
			continue
		}
		cf := Cashflow{Date: d, Coupon: coupon}
		if d.Equal(maturity) {
			cf.Principal = b.FaceValue
		}
		out = append(out, cf)
	}
	return out
}

// MaturityYears maps the bond to an integer maturity bucket.
//
// BucketCalendarYears is plain calendar-year subtraction, so a bond running
// from 2021-12-15 to 2031-01-15 lands in the 10Y bucket.
func (b *Bond) MaturityYears(method BucketMethod) int {
	switch method {
	case BucketRoundedYears:
		return int(math.Round(utils.YearFraction(b.AccrualStartDate, b.MaturityDate, string(utils.Act365F))))
	default:
		return b.MaturityDate.Year() - b.AccrualStartDate.Year()
	}
}

// accruedAmount is the coupon earned since the last coupon date, in face units.
func (b *Bond) accruedAmount(t time.Time, dc utils.DayCounter) float64 {
	t = utils.DateOnly(t)
	start, end, ok := b.Schedule.Period(t)
	if !ok || t.Equal(start) {
		return 0
	}
	period := dc.YearFraction(start, end)
	if period <= 0 {
		return 0
	}
	return b.CouponAmount() * dc.YearFraction(start, t) / period
}
