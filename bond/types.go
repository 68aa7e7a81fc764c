package bond

import "time"

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in the bond's face units (a face of 100 gives price-per-100).
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Quote says whether a market price excludes (clean) or includes (dirty)
// accrued interest.
type Quote string

const (
	QuoteClean Quote = "CLEAN"
	QuoteDirty Quote = "DIRTY"
)

// DV01Method selects the finite difference used for DV01.
type DV01Method string

const (
	// DV01Central is (PV(y-1bp) - PV(y+1bp)) / 2.
	DV01Central DV01Method = "CENTRAL"
	// DV01Forward is PV(y) - PV(y+1bp).
	DV01Forward DV01Method = "FORWARD"
)

// BucketMethod selects how a bond's maturity is mapped to an integer bucket.
type BucketMethod string

const (
	// BucketCalendarYears subtracts calendar years of maturity and accrual start.
	BucketCalendarYears BucketMethod = "CALENDAR"
	// BucketRoundedYears rounds the ACT/365F tenor to the nearest year.
	BucketRoundedYears BucketMethod = "ROUND"
)
