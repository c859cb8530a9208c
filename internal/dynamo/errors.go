package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates invalid or physically inconsistent input,
	// detected before integration begins.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a derivative was requested for a state it
	// cannot operate on (non-positive mass, NaN or Inf).
	ErrInvalidState = errors.New("dynamo: invalid state")

	// ErrIntegration indicates the solver could not satisfy its error
	// tolerance within its step-control budget.
	ErrIntegration = errors.New("dynamo: integration failed")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = fmt.Errorf("%w: adaptive timestep below minimum", ErrIntegration)

	// ErrTooManySteps indicates the solver exhausted its step budget.
	ErrTooManySteps = fmt.Errorf("%w: step budget exhausted", ErrIntegration)

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch between state and system", ErrInvalidState)

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Phase   string
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s: step %d (t=%.4f): %v", e.Phase, e.Step, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// Configf returns an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
