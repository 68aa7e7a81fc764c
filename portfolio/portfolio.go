// Package portfolio values a book of bond positions and aggregates their risk
// by maturity bucket and under parallel yield shifts.
package portfolio

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

// DefaultShiftsBps is the yield shock ladder used when none is given.
var DefaultShiftsBps = []int{-25, -20, -15, -10, -5, 5, 10, 15, 20, 25}

// Position is one row of the book.
type Position struct {
	ID       string
	Terms    bond.Terms
	Notional float64
	// Price is the quoted price per 100 face.
	Price         float64
	ValuationDate time.Time
	// SettlementDate defaults to ValuationDate rolled forward by the
	// portfolio's settlement lag.
	SettlementDate time.Time

	// Set by Enrich.
	Bond   *bond.Bond
	Result bond.ValuationResult
	Err    error
}

// OK reports whether the position was enriched without error.
func (p Position) OK() bool {
	return p.Err == nil && p.Result.HasDV01()
}

// Portfolio owns an ordered list of positions. It is built once, enriched
// once and then read-only.
type Portfolio struct {
	positions      []Position
	cal            calendar.Calendar
	conv           calendar.BusinessDayConvention
	settlementDays int
	bucketMethod   bond.BucketMethod
	valuation      bond.Options
	workers        int
	logger         zerolog.Logger
	enriched       bool
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithCalendar sets the business-day calendar and payment-date convention.
func WithCalendar(cal calendar.Calendar, conv calendar.BusinessDayConvention) Option {
	return func(p *Portfolio) {
		p.cal = cal
		p.conv = conv
	}
}

// WithSettlementDays sets the business-day lag from valuation to settlement.
func WithSettlementDays(n int) Option {
	return func(p *Portfolio) { p.settlementDays = n }
}

// WithBucketMethod selects how maturities are bucketed.
func WithBucketMethod(m bond.BucketMethod) Option {
	return func(p *Portfolio) { p.bucketMethod = m }
}

// WithValuationOptions sets discounting, quote and DV01 options.
func WithValuationOptions(o bond.Options) Option {
	return func(p *Portfolio) { p.valuation = o }
}

// WithWorkers bounds concurrent position enrichment.
func WithWorkers(n int) Option {
	return func(p *Portfolio) { p.workers = n }
}

// WithLogger sets the logger used during enrichment.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Portfolio) { p.logger = l }
}

// New builds a portfolio from positions, copying them.
func New(positions []Position, opts ...Option) *Portfolio {
	p := &Portfolio{
		positions:    append([]Position(nil), positions...),
		cal:          calendar.New(calendar.WEEKENDS, nil),
		conv:         calendar.Unadjusted,
		bucketMethod: bond.BucketCalendarYears,
		valuation:    bond.DefaultOptions(),
		workers:      runtime.GOMAXPROCS(0),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Len returns the number of positions.
func (p *Portfolio) Len() int { return len(p.positions) }

// Positions returns a copy of the positions.
func (p *Portfolio) Positions() []Position {
	return append([]Position(nil), p.positions...)
}

// Enrich values every position: maturity bucket, yield, duration, accrued
// interest and DV01, in that order. Positions run concurrently and each
// goroutine writes only its own slot. A position that fails keeps its error
// and does not stop the others; only context cancellation is returned.
func (p *Portfolio) Enrich(ctx context.Context) error {
	if p.enriched {
		return nil
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range p.positions {
		pos := &p.positions[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.enrichOne(pos); err != nil {
				pos.Err = err
				p.logger.Warn().
					Str("position", pos.ID).
					Str("kind", bond.ErrorKind(err)).
					Err(err).
					Msg("position valuation failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("Enrich: %w", err)
	}
	p.enriched = true

	failed := 0
	for _, pos := range p.positions {
		if pos.Err != nil {
			failed++
		}
	}
	p.logger.Info().
		Int("positions", len(p.positions)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("portfolio enriched")
	return nil
}

func (p *Portfolio) enrichOne(pos *Position) error {
	b, err := bond.New(pos.Terms, p.cal, p.conv)
	if err != nil {
		return err
	}
	pos.Bond = b
	if b.FirstCouponMismatch() {
		p.logger.Warn().
			Str("position", pos.ID).
			Str("first_coupon", b.FirstCouponDate.Format(utils.DateLayout)).
			Str("generated", b.Schedule.FirstCoupon().Format(utils.DateLayout)).
			Msg("first coupon date does not match generated schedule")
	}

	settlement := p.settlementDate(*pos)
	v := bond.NewValuation(b, pos.Price, p.valuation)
	// Keep whatever was computed before a failure.
	defer func() { pos.Result = v.Result() }()

	v.CalculateMaturityYears(p.bucketMethod)
	if _, err := v.CalculateYield(pos.Price, settlement); err != nil {
		return err
	}
	if _, err := v.CalculateDuration(settlement); err != nil {
		return err
	}
	v.CalculateAccruedInterest(pos.ValuationDate)
	if _, err := v.CalculateDV01(settlement); err != nil {
		return err
	}
	return nil
}

func (p *Portfolio) settlementDate(pos Position) time.Time {
	if !pos.SettlementDate.IsZero() {
		return pos.SettlementDate
	}
	if p.settlementDays != 0 && p.cal != nil {
		return calendar.AddBusinessDays(p.cal, pos.ValuationDate, p.settlementDays)
	}
	return pos.ValuationDate
}

// Failed returns the positions whose valuation failed.
func (p *Portfolio) Failed() []Position {
	var out []Position
	for _, pos := range p.positions {
		if pos.Err != nil {
			out = append(out, pos)
		}
	}
	return out
}
