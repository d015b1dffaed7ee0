package integration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimestep indicates a non-positive or non-finite time step.
	ErrInvalidTimestep = errors.New("integration: time step must be positive and finite")

	// ErrInvalidIterations indicates a negative iteration budget.
	ErrInvalidIterations = errors.New("integration: iteration count must not be negative")
)

const (
	DefaultDt                    = 1.0 / 60.0
	DefaultMaxVelocityIterations = 8
	DefaultMaxPositionIterations = 3
)

// Parameters drives one step of the time-stepping scheme.
// The iteration counts are hard budgets: the solvers never test for convergence.
type Parameters struct {
	// Time step (s)
	Dt                    float64
	MaxVelocityIterations int
	MaxPositionIterations int
}

func DefaultParameters() Parameters {
	return Parameters{
		Dt:                    DefaultDt,
		MaxVelocityIterations: DefaultMaxVelocityIterations,
		MaxPositionIterations: DefaultMaxPositionIterations,
	}
}

// InvDt returns 1/dt, or 0 for a zero time step.
func (p Parameters) InvDt() float64 {
	if p.Dt == 0 {
		return 0
	}
	return 1.0 / p.Dt
}

// WithDt returns a copy of the parameters using another time step, as needed by
// CCD sub-steps.
func (p Parameters) WithDt(dt float64) Parameters {
	p.Dt = dt
	return p
}

func (p Parameters) Validate() error {
	// NaN fails both comparisons, +Inf fails the upper bound
	if !(p.Dt > 0) || p.Dt > 1e300 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimestep, p.Dt)
	}
	if p.MaxVelocityIterations < 0 {
		return fmt.Errorf("%w: velocity iterations %d", ErrInvalidIterations, p.MaxVelocityIterations)
	}
	if p.MaxPositionIterations < 0 {
		return fmt.Errorf("%w: position iterations %d", ErrInvalidIterations, p.MaxPositionIterations)
	}
	return nil
}
