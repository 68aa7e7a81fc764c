package bond

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/bondrisk/utils"
)

// flows is a cashflow strip reduced to year fractions from settlement and
// amounts, ready for repeated discounting.
type flows struct {
	times     []float64
	amounts   []float64
	frequency float64
}

func newFlows(cfs []Cashflow, settlement time.Time, dc utils.DayCounter, frequency int) flows {
	f := flows{
		times:     make([]float64, len(cfs)),
		amounts:   make([]float64, len(cfs)),
		frequency: float64(frequency),
	}
	for i, cf := range cfs {
		f.times[i] = dc.YearFraction(settlement, cf.Date)
		f.amounts[i] = cf.Amount()
	}
	return f
}

// price returns the dirty present value at yield y.
func (f flows) price(y float64) float64 {
	p, _ := f.priceAndDeriv(y)
	return p
}

// priceAndDeriv returns (price, dPrice/dy) under periodic compounding.
//
//	base  = 1 + y/f
//	price = Σ CF_k · base^(−t_k·f)
//	dP/dy = −Σ t_k · CF_k · base^(−t_k·f) / base
func (f flows) priceAndDeriv(y float64) (float64, float64) {
	if len(f.amounts) == 0 {
		return 0, 0
	}
	base := 1.0 + y/f.frequency
	dfs := make([]float64, len(f.times))
	for i, t := range f.times {
		dfs[i] = math.Pow(base, -t*f.frequency)
	}
	price := floats.Dot(f.amounts, dfs)

	floats.Mul(dfs, f.times)
	deriv := -floats.Dot(f.amounts, dfs) / base
	return price, deriv
}

// solveYield finds y with price(y) == target. Newton-Raphson steps are taken
// while they stay inside the current bracket; otherwise the bracket is bisected.
// A root is accepted once the price residual is within tolerance and the
// yield itself has stopped moving.
func solveYield(target float64, f flows, guess float64, cfg SolverConfig) (float64, int, error) {
	lo, hi := cfg.LowerBound, cfg.UpperBound

	// price is strictly decreasing in y, so a root exists only between these.
	pLo, pHi := f.price(lo), f.price(hi)
	if target > pLo || target < pHi {
		return 0, 0, fmt.Errorf("solveYield: target %.8f outside bracket prices [%.8f, %.8f] for yields [%.4f, %.4f]: %w",
			target, pHi, pLo, lo, hi, ErrYieldNotFound)
	}

	tol := math.Max(cfg.AbsTolerance, cfg.RelTolerance*math.Abs(target))
	yTol := cfg.YieldTolerance
	if yTol <= 0 {
		yTol = DefaultSolverConfig.YieldTolerance
	}
	y := clamp(guess, lo, hi)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		price, dPdy := f.priceAndDeriv(y)
		res := price - target

		step := math.Inf(1)
		if math.Abs(dPdy) > cfg.DerivativeThreshold {
			step = res / dPdy
		}
		if res == 0 || (math.Abs(res) < tol && (math.Abs(step) < yTol || hi-lo < yTol)) {
			return y, iter + 1, nil
		}
		if res > 0 {
			lo = y
		} else {
			hi = y
		}

		next := y - step
		if math.IsNaN(next) || next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		y = next
	}

	return y, cfg.MaxIterations, fmt.Errorf("solveYield: did not converge after %d iterations (last y=%.10f): %w",
		cfg.MaxIterations, y, ErrYieldNotFound)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
