package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondrisk/utils"
)

// Options control how a Valuation discounts and reports.
type Options struct {
	DayCount   utils.DayCounter
	Quote      Quote
	DV01Method DV01Method
	Solver     SolverConfig
}

// DefaultOptions returns ACT/ACT discounting of clean quotes, central DV01
// and the active solver configuration.
func DefaultOptions() Options {
	return Options{
		DayCount:   utils.ActAct,
		Quote:      QuoteClean,
		DV01Method: DV01Central,
		Solver:     GetSolverConfig(),
	}
}

// ValuationResult holds the analytics of one bond at one price and date.
//
// Per-100-face figures: AccruedInterest and DV01. Yield is a decimal,
// ModifiedDuration is in years.
type ValuationResult struct {
	CleanPrice       float64
	SettlementDate   time.Time
	ValuationDate    time.Time
	MaturityYears    int
	Yield            float64
	Iterations       int
	ModifiedDuration float64
	DV01             float64
	AccruedInterest  float64

	hasMaturity bool
	hasYield    bool
	hasDuration bool
	hasDV01     bool
	hasAccrued  bool
}

func (r ValuationResult) HasMaturityYears() bool { return r.hasMaturity }
func (r ValuationResult) HasYield() bool         { return r.hasYield }
func (r ValuationResult) HasDuration() bool      { return r.hasDuration }
func (r ValuationResult) HasDV01() bool          { return r.hasDV01 }
func (r ValuationResult) HasAccrued() bool       { return r.hasAccrued }

// Valuation computes and caches analytics for one bond. The yield is keyed on
// (price, settlement); changing either drops the yield and everything derived
// from it. A Valuation is not safe for concurrent use.
type Valuation struct {
	bond   *Bond
	opts   Options
	price  float64
	result ValuationResult
}

// NewValuation prepares a valuation of b quoted at price (per 100 face).
func NewValuation(b *Bond, price float64, opts Options) *Valuation {
	if opts.DayCount == nil {
		opts.DayCount = utils.ActAct
	}
	if opts.Quote == "" {
		opts.Quote = QuoteClean
	}
	if opts.DV01Method == "" {
		opts.DV01Method = DV01Central
	}
	if opts.Solver.MaxIterations == 0 {
		opts.Solver = GetSolverConfig()
	}
	return &Valuation{bond: b, opts: opts, price: price}
}

// Bond returns the valued bond.
func (v *Valuation) Bond() *Bond { return v.bond }

// Result returns a copy of the current result.
func (v *Valuation) Result() ValuationResult { return v.result }

// CalculateMaturityYears buckets the bond's maturity.
func (v *Valuation) CalculateMaturityYears(method BucketMethod) int {
	v.result.MaturityYears = v.bond.MaturityYears(method)
	v.result.hasMaturity = true
	return v.result.MaturityYears
}

func (v *Valuation) flows(settlement time.Time) (flows, error) {
	if !settlement.Before(v.bond.Schedule.Maturity()) {
		return flows{}, fmt.Errorf("settlement %s on or after maturity %s: %w",
			settlement.Format(utils.DateLayout), v.bond.Schedule.Maturity().Format(utils.DateLayout), ErrInvalidSchedule)
	}
	return newFlows(v.bond.Cashflows(settlement), settlement, v.opts.DayCount, v.bond.Frequency), nil
}

// PV is the dirty present value, in face units, of cashflows after
// settlement discounted at yield y.
func (v *Valuation) PV(y float64, settlement time.Time) (float64, error) {
	f, err := v.flows(utils.DateOnly(settlement))
	if err != nil {
		return 0, fmt.Errorf("PV: %w", err)
	}
	return f.price(y), nil
}

// CleanPrice is PV less accrued interest at settlement, per 100 face.
func (v *Valuation) CleanPrice(y float64, settlement time.Time) (float64, error) {
	settlement = utils.DateOnly(settlement)
	pv, err := v.PV(y, settlement)
	if err != nil {
		return 0, err
	}
	return (pv - v.bond.accruedAmount(settlement, v.opts.DayCount)) * v.per100(), nil
}

func (v *Valuation) per100() float64 {
	return 100.0 / v.bond.FaceValue
}

// CalculateYield solves for the yield at which the bond's price equals the
// quoted price. Repeated calls with the same price and settlement reuse the
// cached yield.
func (v *Valuation) CalculateYield(price float64, settlement time.Time) (float64, error) {
	settlement = utils.DateOnly(settlement)
	if v.result.hasYield && v.result.CleanPrice == price && v.result.SettlementDate.Equal(settlement) {
		return v.result.Yield, nil
	}
	v.invalidate()
	v.price = price

	if price <= 0 || math.IsNaN(price) {
		return 0, fmt.Errorf("CalculateYield: price %.6f: %w", price, ErrNegativePrice)
	}
	if err := v.opts.Solver.Validate(v.bond.Frequency); err != nil {
		return 0, fmt.Errorf("CalculateYield: %w", err)
	}
	f, err := v.flows(settlement)
	if err != nil {
		return 0, fmt.Errorf("CalculateYield: %w", err)
	}

	target := price / v.per100()
	if v.opts.Quote != QuoteDirty {
		target += v.bond.accruedAmount(settlement, v.opts.DayCount)
	}

	guess := v.bond.CouponRate
	if guess == 0 {
		guess = 0.05
	}
	y, iters, err := solveYield(target, f, guess, v.opts.Solver)
	if err != nil {
		return 0, fmt.Errorf("CalculateYield: %w", err)
	}

	v.result.CleanPrice = price
	v.result.SettlementDate = settlement
	v.result.Yield = y
	v.result.Iterations = iters
	v.result.hasYield = true
	return y, nil
}

func (v *Valuation) invalidate() {
	v.result.hasYield = false
	v.result.hasDuration = false
	v.result.hasDV01 = false
	v.result.Yield = 0
	v.result.Iterations = 0
	v.result.ModifiedDuration = 0
	v.result.DV01 = 0
}

// ensureYield makes sure the cached yield belongs to settlement.
func (v *Valuation) ensureYield(settlement time.Time) (float64, flows, error) {
	y, err := v.CalculateYield(v.price, settlement)
	if err != nil {
		return 0, flows{}, err
	}
	f, err := v.flows(utils.DateOnly(settlement))
	if err != nil {
		return 0, flows{}, err
	}
	return y, f, nil
}

// CalculateDuration returns modified duration, −(1/PV)·dPV/dy, at the solved
// yield. The yield is computed first if absent.
func (v *Valuation) CalculateDuration(settlement time.Time) (float64, error) {
	y, f, err := v.ensureYield(settlement)
	if err != nil {
		return 0, fmt.Errorf("CalculateDuration: %w", err)
	}
	pv, dPdy := f.priceAndDeriv(y)
	if pv <= 0 {
		return 0, fmt.Errorf("CalculateDuration: non-positive PV %.8f: %w", pv, ErrYieldNotFound)
	}
	v.result.ModifiedDuration = -dPdy / pv
	v.result.hasDuration = true
	return v.result.ModifiedDuration, nil
}

// CalculateDV01 returns the price change per one basis point, per 100 face,
// by repricing at bumped yields.
func (v *Valuation) CalculateDV01(settlement time.Time) (float64, error) {
	y, f, err := v.ensureYield(settlement)
	if err != nil {
		return 0, fmt.Errorf("CalculateDV01: %w", err)
	}
	bp := v.opts.Solver.BumpSize
	var dv01 float64
	switch v.opts.DV01Method {
	case DV01Forward:
		dv01 = f.price(y) - f.price(y+bp)
	default:
		dv01 = (f.price(y-bp) - f.price(y+bp)) / 2
	}
	// Normalise to a one basis point move when BumpSize differs.
	dv01 *= 1e-4 / bp * v.per100()

	v.result.DV01 = dv01
	v.result.hasDV01 = true
	return dv01, nil
}

// CalculateAccruedInterest returns the coupon accrued at valuationDate, per
// 100 face. It is exactly zero on a coupon date.
func (v *Valuation) CalculateAccruedInterest(valuationDate time.Time) float64 {
	valuationDate = utils.DateOnly(valuationDate)
	v.result.AccruedInterest = v.bond.accruedAmount(valuationDate, v.opts.DayCount) * v.per100()
	v.result.ValuationDate = valuationDate
	v.result.hasAccrued = true
	return v.result.AccruedInterest
}
