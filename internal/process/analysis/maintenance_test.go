package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

type fakeMaintenanceStore struct {
	stuckCutoff  time.Time
	stuckMessage string
	stuckFailed  int
	stuckErr     error

	purgeCutoffs map[domain.JobStatus]time.Time
	purgeCounts  map[domain.JobStatus][]int
	purgeCalls   map[domain.JobStatus]int

	orphanCutoff time.Time
	orphanCounts []int
	orphanCalls  int

	backlog int
	oldest  *time.Time
}

func newFakeMaintenanceStore() *fakeMaintenanceStore {
	return &fakeMaintenanceStore{
		purgeCutoffs: map[domain.JobStatus]time.Time{},
		purgeCounts:  map[domain.JobStatus][]int{},
		purgeCalls:   map[domain.JobStatus]int{},
	}
}

func (f *fakeMaintenanceStore) FailStuckJobs(_ context.Context, cutoff time.Time, message string) (int, error) {
	f.stuckCutoff = cutoff
	f.stuckMessage = message

	return f.stuckFailed, f.stuckErr
}

func (f *fakeMaintenanceStore) PurgeJobs(_ context.Context, status domain.JobStatus, cutoff time.Time, _ int) (int, error) {
	f.purgeCutoffs[status] = cutoff

	call := f.purgeCalls[status]
	f.purgeCalls[status]++

	counts := f.purgeCounts[status]
	if call < len(counts) {
		return counts[call], nil
	}

	return 0, nil
}

func (f *fakeMaintenanceStore) PurgeOrphanReviews(_ context.Context, cutoff time.Time, _ int) (int, error) {
	f.orphanCutoff = cutoff

	call := f.orphanCalls
	f.orphanCalls++

	if call < len(f.orphanCounts) {
		return f.orphanCounts[call], nil
	}

	return 0, nil
}

func (f *fakeMaintenanceStore) QueueStats(_ context.Context) (int, *time.Time, error) {
	return f.backlog, f.oldest, nil
}

func testMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		StuckJobTimeout:    2 * time.Hour,
		CompletedRetention: 30 * 24 * time.Hour,
		FailedRetention:    7 * 24 * time.Hour,
		OrphanReviewAge:    7 * 24 * time.Hour,
		BatchSize:          500,
	}
}

func TestSweepCutoffs(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeMaintenanceStore()

	m := NewMaintenance(store, testMaintenanceConfig(), &logger).
		WithClock(func() time.Time { return testClock })

	require.NoError(t, m.Sweep(context.Background()))

	assert.Equal(t, testClock.Add(-2*time.Hour), store.stuckCutoff)
	assert.Equal(t, "Analysis timed out and was reset by maintenance task", store.stuckMessage)
	assert.Equal(t, testClock.Add(-30*24*time.Hour), store.purgeCutoffs[domain.JobStatusCompleted])
	assert.Equal(t, testClock.Add(-7*24*time.Hour), store.purgeCutoffs[domain.JobStatusFailed])
	assert.Equal(t, testClock.Add(-7*24*time.Hour), store.orphanCutoff)
}

func TestSweepPurgesInBatches(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeMaintenanceStore()
	store.purgeCounts[domain.JobStatusCompleted] = []int{500, 500, 120}
	store.orphanCounts = []int{500, 42}

	m := NewMaintenance(store, testMaintenanceConfig(), &logger).
		WithClock(func() time.Time { return testClock })

	require.NoError(t, m.Sweep(context.Background()))

	// Full batches keep the loop going; a short batch ends it.
	assert.Equal(t, 3, store.purgeCalls[domain.JobStatusCompleted])
	assert.Equal(t, 1, store.purgeCalls[domain.JobStatusFailed])
	assert.Equal(t, 2, store.orphanCalls)
}

func TestSweepContinuesAfterPhaseError(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeMaintenanceStore()
	store.stuckErr = errors.New("deadlock")
	store.orphanCounts = []int{7}

	m := NewMaintenance(store, testMaintenanceConfig(), &logger).
		WithClock(func() time.Time { return testClock })

	err := m.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing stuck jobs")

	// The purge phases still ran despite the stuck-job failure.
	assert.Equal(t, 1, store.purgeCalls[domain.JobStatusCompleted])
	assert.Equal(t, 1, store.orphanCalls)
}
