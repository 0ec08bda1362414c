package economy

import "errors"

// Economy errors
var (
	// ErrConfiguration indicates bad wiring: missing price function,
	// supply schedule length mismatch, unrecognized style flags,
	// duplicate pool labels. Never retried.
	ErrConfiguration = errors.New("invalid economy configuration")

	// ErrNumerical indicates a non-finite price or supply mid-run.
	// Fatal to the current repetition only.
	ErrNumerical = errors.New("numerical failure")
)
