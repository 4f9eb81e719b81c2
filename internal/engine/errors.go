// Package engine implements the reversible execution engine: a state
// machine with forward/backward stepping, step-over/step-out over
// gate-call scopes, breakpoints, direct state mutation, and a reversible
// classical measurement log. Every unitary gate applies through an
// analytically invertible operator (see internal/compnum), so stepping
// backward over it needs no stored state-vector snapshot; only a
// measurement or a reset, neither of which is invertible, keeps a copy of
// the amplitudes it replaced.
package engine

import "errors"

// Sentinel errors covering the taxonomy of runtime (non-parsing) failures.
var (
	// ErrInvalidOperation is returned by a stepping/mutation call that is
	// not valid in the engine's current state; the state machine is left
	// unchanged.
	ErrInvalidOperation = errors.New("engine: invalid operation in current state")

	// ErrNormalization is returned when a direct amplitude mutation cannot
	// preserve Σ|amplitude|² = 1.
	ErrNormalization = errors.New("engine: amplitude mutation would violate normalization")

	// ErrLookup is returned for an unknown variable, qubit, or instruction
	// index.
	ErrLookup = errors.New("engine: unknown identifier")
)
