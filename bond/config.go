package bond

import "fmt"

// SolverConfig holds the yield solver's numerical parameters.
type SolverConfig struct {
	// AbsTolerance is the absolute price residual accepted as converged.
	AbsTolerance float64

	// RelTolerance scales the target price to give a second, relative
	// convergence threshold.
	RelTolerance float64

	// MaxIterations bounds Newton and bisection steps combined.
	MaxIterations int

	// LowerBound and UpperBound form the initial yield bracket.
	LowerBound float64
	UpperBound float64

	// YieldTolerance bounds the last Newton step (or the bracket width)
	// before a converged price residual is accepted.
	YieldTolerance float64

	// DerivativeThreshold is the minimum |dPV/dy| for a Newton step.
	// Below this the solver bisects instead.
	DerivativeThreshold float64

	// BumpSize is the yield move used for DV01 (one basis point).
	BumpSize float64
}

// DefaultSolverConfig provides production-ready default values.
var DefaultSolverConfig = SolverConfig{
	AbsTolerance:        1e-8,
	RelTolerance:        1e-10,
	MaxIterations:       100,
	LowerBound:          -0.99,
	UpperBound:          1.0,
	YieldTolerance:      1e-12,
	DerivativeThreshold: 1e-15,
	BumpSize:            1e-4,
}

// solverCfg is the configuration new valuations start from.
var solverCfg = DefaultSolverConfig

// SetSolverConfig replaces the configuration used by subsequently created
// valuations. Existing valuations keep their copy.
func SetSolverConfig(c SolverConfig) {
	solverCfg = c
}

// GetSolverConfig returns the active configuration.
func GetSolverConfig() SolverConfig {
	return solverCfg
}

// Validate checks the bracket and tolerances for the given coupon frequency.
func (c SolverConfig) Validate(frequency int) error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("solver: MaxIterations must be positive")
	}
	if c.AbsTolerance <= 0 && c.RelTolerance <= 0 {
		return fmt.Errorf("solver: at least one tolerance must be positive")
	}
	if c.LowerBound >= c.UpperBound {
		return fmt.Errorf("solver: LowerBound %.4f must be below UpperBound %.4f", c.LowerBound, c.UpperBound)
	}
	if frequency > 0 && 1+c.LowerBound/float64(frequency) <= 0 {
		return fmt.Errorf("solver: LowerBound %.4f makes the compounding base non-positive", c.LowerBound)
	}
	if c.BumpSize <= 0 {
		return fmt.Errorf("solver: BumpSize must be positive")
	}
	return nil
}
