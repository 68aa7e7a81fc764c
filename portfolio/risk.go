package portfolio

import (
	"gonum.org/v1/gonum/floats"
)

// BucketRisk aggregates the successfully valued positions of one maturity bucket.
type BucketRisk struct {
	MaturityYears int     `json:"maturity_years"`
	TotalNotional float64 `json:"total_notional"`
	// WeightedDV01 is Σ (notional/price)·DV01: per-100 DV01 scaled by the
	// number of bonds the notional buys at the quoted price.
	WeightedDV01 float64 `json:"weighted_dv01"`
	TotalAccrued float64 `json:"total_accrued"`
	Positions    int     `json:"positions"`
	// Failed counts positions in the bucket left out of the sums.
	Failed int `json:"failed"`
}

// ScenarioPnL is the first-order portfolio PnL for one parallel yield shift.
type ScenarioPnL struct {
	ShiftBps int     `json:"shift_bps"`
	PnL      float64 `json:"pnl"`
}

type bucketAcc struct {
	notional []float64
	shares   []float64
	dv01     []float64
	accrued  []float64
	failed   int
}

// AggregateByMaturity groups positions by maturity bucket, in the order the
// buckets first appear. Failed positions are excluded from every sum and
// counted in Failed; a bucket whose positions all failed is still listed.
func (p *Portfolio) AggregateByMaturity() []BucketRisk {
	var order []int
	acc := make(map[int]*bucketAcc)

	for _, pos := range p.positions {
		if !pos.Result.HasMaturityYears() {
			continue
		}
		key := pos.Result.MaturityYears
		a, ok := acc[key]
		if !ok {
			a = &bucketAcc{}
			acc[key] = a
			order = append(order, key)
		}
		if !pos.OK() {
			a.failed++
			continue
		}
		a.notional = append(a.notional, pos.Notional)
		a.shares = append(a.shares, pos.Notional/pos.Price)
		a.dv01 = append(a.dv01, pos.Result.DV01)
		a.accrued = append(a.accrued, pos.Result.AccruedInterest)
	}

	out := make([]BucketRisk, 0, len(order))
	for _, key := range order {
		a := acc[key]
		b := BucketRisk{
			MaturityYears: key,
			Positions:     len(a.notional),
			Failed:        a.failed,
		}
		if len(a.notional) > 0 {
			b.TotalNotional = floats.Sum(a.notional)
			b.WeightedDV01 = floats.Dot(a.shares, a.dv01)
			b.TotalAccrued = floats.Sum(a.accrued)
		}
		out = append(out, b)
	}
	return out
}

// BucketMap returns AggregateByMaturity keyed by maturity bucket.
func (p *Portfolio) BucketMap() map[int]BucketRisk {
	buckets := p.AggregateByMaturity()
	out := make(map[int]BucketRisk, len(buckets))
	for _, b := range buckets {
		out[b.MaturityYears] = b
	}
	return out
}

// ComputeScenarioPnL returns, for each shift Δ in basis points,
// Σ DV01·notional·Δ/10000 over successfully valued positions. The output
// keeps the order of shifts; nil shifts use DefaultShiftsBps.
func (p *Portfolio) ComputeScenarioPnL(shiftsBps []int) []ScenarioPnL {
	if shiftsBps == nil {
		shiftsBps = DefaultShiftsBps
	}

	var dv01, notional []float64
	for _, pos := range p.positions {
		if !pos.OK() {
			continue
		}
		dv01 = append(dv01, pos.Result.DV01)
		notional = append(notional, pos.Notional)
	}
	exposure := 0.0
	if len(dv01) > 0 {
		exposure = floats.Dot(dv01, notional)
	}

	out := make([]ScenarioPnL, len(shiftsBps))
	for i, shift := range shiftsBps {
		out[i] = ScenarioPnL{ShiftBps: shift, PnL: exposure * float64(shift) / 10000}
	}
	return out
}
