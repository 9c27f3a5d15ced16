package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			calls++
			if calls >= 3 {
				cancel()
			}

			return nil
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestLoopOnErrorFatal(t *testing.T) {
	fatal := errors.New("fatal")

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			return fatal
		},
		OnError: func(error) bool { return false },
	})

	assert.ErrorIs(t, err, fatal)
}

func TestLoopOnErrorContinues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			calls++
			if calls >= 2 {
				cancel()
			}

			return errors.New("transient")
		},
		OnError: func(error) bool { return true },
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestLoopRunsPeriodicTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ran := 0
	stopped := false

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		PeriodicTasks: []PeriodicTask{
			{
				Name:     "sweep",
				Interval: time.Millisecond,
				Run: func(context.Context) {
					ran++
					if ran >= 2 {
						cancel()
					}
				},
			},
		},
		OnStop: func() { stopped = true },
	})

	require.Error(t, err)
	assert.GreaterOrEqual(t, ran, 2)
	assert.True(t, stopped)
}

func TestWaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitZeroDuration(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
}
