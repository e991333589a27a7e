package llm

import "errors"

var (
	// ErrTimeout marks a completion that exceeded its per-call timeout.
	ErrTimeout = errors.New("llm: call timed out")

	// ErrProvider marks an upstream provider failure (non-2xx, bad payload).
	ErrProvider = errors.New("llm: provider error")

	// ErrCapacityExceeded marks a call that could not acquire gateway
	// capacity before its deadline. Retryable by the caller.
	ErrCapacityExceeded = errors.New("llm: capacity exceeded")
)
