package mutate

import "errors"

// Sentinel errors for mutation execution.
var (
	// ErrInFlight is returned when a mutation with the same kind and
	// fence is already pending. Guards against racing optimistic
	// patches from rapid duplicate intents (double-clicked borrow).
	ErrInFlight = errors.New("mutate: mutation already in flight")

	// ErrNoCommit is returned when a request carries no commit function.
	ErrNoCommit = errors.New("mutate: request has no commit function")
)
