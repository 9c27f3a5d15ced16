package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: coreerrors.ErrRateLimited, want: true},
		{name: "wrapped rate limited", err: fmt.Errorf("collecting reviews: %w", coreerrors.ErrRateLimited), want: true},
		{name: "transient", err: coreerrors.ErrTransient, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "net timeout", err: timeoutErr{}, want: true},
		{name: "not found", err: coreerrors.ErrNotFound, want: false},
		{name: "invalid input", err: coreerrors.ErrInvalidInput, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestRetryDelay(t *testing.T) {
	base := 60 * time.Second
	maxDelay := 5 * time.Minute

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 60 * time.Second},
		{attempt: 1, want: 120 * time.Second},
		{attempt: 2, want: 240 * time.Second},
		{attempt: 3, want: 300 * time.Second},
		{attempt: 10, want: 300 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, RetryDelay(tt.attempt, base, maxDelay))
		})
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "rate limit", errorKind(coreerrors.ErrRateLimited))
	assert.Equal(t, "transient error", errorKind(fmt.Errorf("fetch: %w", coreerrors.ErrTransient)))
	assert.Equal(t, "timeout", errorKind(context.DeadlineExceeded))
	assert.Equal(t, "timeout", errorKind(timeoutErr{}))
	assert.Equal(t, "target not found", errorKind(coreerrors.ErrNotFound))
	assert.Equal(t, "invalid input", errorKind(coreerrors.ErrInvalidInput))
	assert.Equal(t, "internal error", errorKind(errors.New("boom")))
}
