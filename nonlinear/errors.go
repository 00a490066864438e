// Package nonlinear applies bounded Newton increments with Appleyard-style
// phase switching and drives the per-timestep Newton loop.
package nonlinear

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant indicates a post-update state failed its physical
	// consistency checks (saturation sum, ratio bounds, negativity).
	ErrInvariant = errors.New("nonlinear: state invariant violated")

	// ErrNonFinite indicates NaN or Inf in a residual or increment norm.
	ErrNonFinite = errors.New("nonlinear: non-finite value in iteration")

	// ErrMaxIterations indicates the Newton loop hit its cap without
	// converging; the timestep controller decides whether to retry.
	ErrMaxIterations = errors.New("nonlinear: iteration cap reached without convergence")
)

// StepError wraps a failure with the iteration it occurred in.
type StepError struct {
	Iteration int
	Wrapped   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("newton iteration %d: %v", e.Iteration, e.Wrapped)
}

func (e *StepError) Unwrap() error { return e.Wrapped }
