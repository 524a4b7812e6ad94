package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name the model does not define.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected is returned by adaptive steppers when the local error
	// exceeds the tolerance; the caller retries with the suggested step.
	ErrStepRejected = errors.New("dynamo: step rejected")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidConfig indicates a run configuration that cannot be executed.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
