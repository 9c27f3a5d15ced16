// Package errors defines the sentinel errors shared across the pipeline.
// Callers wrap them with %w and classify with errors.Is; the orchestrator
// uses the classification to decide between retry and permanent failure.
package errors

import "errors"

// Collector errors.
var (
	// ErrNotFound means the target app or website does not exist upstream.
	ErrNotFound = errors.New("target not found")

	// ErrRateLimited means the upstream source throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient covers temporary upstream failures: 5xx, timeouts,
	// connection resets.
	ErrTransient = errors.New("transient upstream error")
)

// Pipeline errors.
var (
	// ErrInvalidInput means the job parameters cannot be processed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData means there is not enough material to cluster.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrEmptyVocabulary means vectorization found no usable terms.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
)

// Storage errors.
var (
	// ErrJobNotFound means the requested analysis job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoPendingJobs means the queue poll found nothing claimable.
	ErrNoPendingJobs = errors.New("no pending jobs")
)
