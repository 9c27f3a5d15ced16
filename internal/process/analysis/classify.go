package analysis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
)

// Retryable reports whether an error is worth another attempt: rate limits,
// transient upstream failures, and timeouts. Anything else, including a
// missing target or invalid input, fails the job permanently.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, coreerrors.ErrRateLimited) || errors.Is(err, coreerrors.ErrTransient) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// errorKind names the failure class for status messages shown to users.
func errorKind(err error) string {
	switch {
	case errors.Is(err, coreerrors.ErrRateLimited):
		return "rate limit"
	case errors.Is(err, coreerrors.ErrTransient):
		return "transient error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, coreerrors.ErrNotFound):
		return "target not found"
	case errors.Is(err, coreerrors.ErrInvalidInput):
		return "invalid input"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}

		return "internal error"
	}
}

// RetryDelay returns the wait before re-running a failed attempt:
// base doubled per attempt, capped at maxDelay. Attempt counts from zero.
func RetryDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxDelay
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}

	return delay
}
