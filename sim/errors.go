package sim

import "errors"

// Domain errors surfaced to callers of the fault engine and incident machine.
// Validation failures never mutate grid or incident state.
var (
	// ErrInvalidTarget indicates a fault references an element that does not
	// exist in the current revision or is already out of service.
	ErrInvalidTarget = errors.New("sim: invalid fault target")

	// ErrInvalidMagnitude indicates a load spike with a non-positive multiplier.
	ErrInvalidMagnitude = errors.New("sim: fault magnitude must be positive")

	// ErrAlreadyRunning indicates Start was called while an incident is active.
	ErrAlreadyRunning = errors.New("sim: a scenario is already running")

	// ErrNotRunning indicates an injection with no active incident to apply it to.
	ErrNotRunning = errors.New("sim: no scenario is running")

	// ErrUnknownScenario indicates a scenario name not present in the library.
	ErrUnknownScenario = errors.New("sim: unknown scenario")
)
