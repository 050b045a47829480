package ratelimit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLimit is returned by New when the permit count is not positive.
	ErrInvalidLimit = errors.New("ratelimit: limit must be positive")

	// ErrInvalidPeriod is returned by New when the period is not positive.
	ErrInvalidPeriod = errors.New("ratelimit: period must be positive")

	// ErrGateClosed is returned to callers waiting on, or arriving at, a
	// closed gate.
	ErrGateClosed = errors.New("ratelimit: gate closed")

	// ErrAcquireCancelled is returned when the caller's context ends before a
	// permit is granted. The context error is wrapped alongside it.
	ErrAcquireCancelled = errors.New("ratelimit: acquire cancelled")
)

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrAcquireCancelled, cause)
}
