package analysis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
	"github.com/reviewpulse/reviewpulse/internal/core/embeddings"
	"github.com/reviewpulse/reviewpulse/internal/process/cluster"
	"github.com/reviewpulse/reviewpulse/internal/process/dedup"
	"github.com/reviewpulse/reviewpulse/internal/process/summarize"
)

var testClock = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	job      domain.AnalysisJob
	reviews  []domain.Review
	progress []string
	clusters []domain.ComplaintCluster

	completed *domain.JobCompletion
	failedMsg string

	requeuedAttempt int
	requeuedRunAt   time.Time
	requeuedMsg     string

	embeddingIDs []string
}

func (f *fakeStore) GetJob(_ context.Context, _ string) (domain.AnalysisJob, error) {
	return f.job, nil
}

func (f *fakeStore) MarkJobProcessing(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (f *fakeStore) UpdateJobProgress(_ context.Context, _ string, _ float64, message string) error {
	f.progress = append(f.progress, message)
	return nil
}

func (f *fakeStore) CompleteJob(_ context.Context, _ string, completion domain.JobCompletion) error {
	f.completed = &completion
	return nil
}

func (f *fakeStore) FailJob(_ context.Context, _ string, message string) error {
	f.failedMsg = message
	return nil
}

func (f *fakeStore) RequeueJob(_ context.Context, _ string, attempt int, runAt time.Time, message string) error {
	f.requeuedAttempt = attempt
	f.requeuedRunAt = runAt
	f.requeuedMsg = message

	return nil
}

func (f *fakeStore) UpsertReviews(_ context.Context, reviews []domain.Review) (int, error) {
	f.reviews = append(f.reviews, reviews...)
	return len(reviews), nil
}

func (f *fakeStore) ReviewsForTarget(_ context.Context, _ domain.Target) ([]domain.Review, error) {
	return f.reviews, nil
}

func (f *fakeStore) ReplaceClusters(_ context.Context, _ string, clusters []domain.ComplaintCluster) error {
	f.clusters = clusters
	return nil
}

func (f *fakeStore) SaveReviewEmbeddings(_ context.Context, reviewIDs []string, _ [][]float32) error {
	f.embeddingIDs = reviewIDs
	return nil
}

type fakeCollector struct {
	raw []domain.RawReview
	err error
}

func (c *fakeCollector) Fetch(_ context.Context, _ domain.Target) ([]domain.RawReview, error) {
	return c.raw, c.err
}

type fakeSink struct {
	statuses []domain.JobStatus
	messages []string
}

func (s *fakeSink) Put(_ string, status domain.JobStatus, _ float64, message string) {
	s.statuses = append(s.statuses, status)
	s.messages = append(s.messages, message)
}

func intPtr(v int) *int { return &v }

func newTestOrchestrator(store *fakeStore, collector Collector, sink StatusSink) *Orchestrator {
	logger := zerolog.Nop()

	return NewOrchestrator(
		store,
		collector,
		embeddings.NewMockBackend(),
		dedup.New(0.85, &logger),
		cluster.NewSelector(3, 10, &logger),
		summarize.NewSummarizerAt(&logger, func() time.Time { return testClock }),
		sink,
		Config{
			MinNegativeReviews: 5,
			RetryMaxAttempts:   3,
			RetryBaseDelay:     60 * time.Second,
			RetryMaxDelay:      5 * time.Minute,
		},
		&logger,
	).WithClock(func() time.Time { return testClock })
}

func negativeRaw(n int) []domain.RawReview {
	texts := []string{
		"app crashes every time i open the camera screen",
		"checkout payment keeps getting declined without reason",
		"battery drains extremely fast since the latest release",
		"login page freezes and never loads my account",
		"support team ignores every ticket i have submitted",
		"sync between devices loses my saved documents constantly",
		"notifications arrive hours late or not at all lately",
		"search results are completely unrelated to my query",
	}

	raw := make([]domain.RawReview, n)
	for i := range raw {
		raw[i] = domain.RawReview{
			ID:       fmt.Sprintf("r%d", i),
			Rating:   intPtr(1),
			Text:     texts[i%len(texts)],
			Date:     testClock.AddDate(0, 0, -(i + 1)),
			Platform: domain.PlatformGooglePlay,
		}
	}

	return raw
}

func TestRunCompletesWithClusters(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-1", Target: domain.Target{AppID: "com.example", Platform: domain.PlatformGooglePlay}}}
	sink := &fakeSink{}
	o := newTestOrchestrator(store, &fakeCollector{raw: negativeRaw(8)}, sink)

	err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	require.NotNil(t, store.completed)
	assert.Contains(t, store.completed.Message, "Analysis completed successfully")
	assert.Equal(t, 8, store.completed.TotalReviews)
	assert.Equal(t, 8, store.completed.NegativeReviews)
	assert.Len(t, store.embeddingIDs, 8)

	require.NotEmpty(t, sink.statuses)
	assert.Equal(t, domain.JobStatusCompleted, sink.statuses[len(sink.statuses)-1])
}

func TestRunProgressCheckpoints(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-1", Target: domain.Target{AppID: "com.example"}}}
	o := newTestOrchestrator(store, &fakeCollector{raw: negativeRaw(6)}, nil)

	require.NoError(t, o.Run(context.Background(), "job-1"))

	require.GreaterOrEqual(t, len(store.progress), 5)
	assert.Equal(t, "Starting review collection...", store.progress[0])
	assert.Contains(t, store.progress[1], "storing in database")
	assert.Contains(t, store.progress[2], "starting text processing")
	assert.Equal(t, "Filtering and cleaning negative reviews...", store.progress[3])
	assert.Contains(t, store.progress[4], "Clustering 6 negative reviews")
}

func TestRunInsufficientNegatives(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-2", Target: domain.Target{AppID: "com.example"}}}
	sink := &fakeSink{}
	o := newTestOrchestrator(store, &fakeCollector{raw: negativeRaw(3)}, sink)

	require.NoError(t, o.Run(context.Background(), "job-2"))

	require.NotNil(t, store.completed)
	assert.Contains(t, store.completed.Message, "insufficient negative reviews")
	assert.Equal(t, 3, store.completed.TotalReviews)
	assert.Empty(t, store.clusters)
	assert.Contains(t, store.completed.Insights.Recommendations[0], "Insufficient data")
}

func TestRunNoReviewsUsesPlaceholder(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-3", Target: domain.Target{AppID: "com.example"}}}
	o := newTestOrchestrator(store, &fakeCollector{raw: nil}, nil)

	require.NoError(t, o.Run(context.Background(), "job-3"))

	// The placeholder review is stored so the target is not re-fetched
	// as empty forever, and the job completes without clustering.
	require.Len(t, store.reviews, 1)
	assert.Equal(t, "placeholder-job-3", store.reviews[0].ID)

	require.NotNil(t, store.completed)
	assert.Contains(t, store.completed.Message, "insufficient negative reviews")
	assert.Contains(t, store.progress, "No reviews found, using sample data for analysis...")
}

func TestRunTransientErrorRequeues(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-4", Target: domain.Target{AppID: "com.example"}}}
	sink := &fakeSink{}
	o := newTestOrchestrator(store, &fakeCollector{err: coreerrors.ErrTransient}, sink)

	require.NoError(t, o.Run(context.Background(), "job-4"))

	assert.Nil(t, store.completed)
	assert.Empty(t, store.failedMsg)
	assert.Equal(t, 1, store.requeuedAttempt)
	assert.Equal(t, testClock.Add(60*time.Second), store.requeuedRunAt)
	assert.Contains(t, store.requeuedMsg, "retrying in 60s")
	assert.Contains(t, store.requeuedMsg, "attempt 1/3")
	assert.Equal(t, domain.JobStatusPending, sink.statuses[len(sink.statuses)-1])
}

func TestRunSecondRetryDoublesDelay(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-5", Attempt: 1, Target: domain.Target{AppID: "com.example"}}}
	o := newTestOrchestrator(store, &fakeCollector{err: coreerrors.ErrRateLimited}, nil)

	require.NoError(t, o.Run(context.Background(), "job-5"))

	assert.Equal(t, 2, store.requeuedAttempt)
	assert.Equal(t, testClock.Add(120*time.Second), store.requeuedRunAt)
	assert.Contains(t, store.requeuedMsg, "rate limit")
}

func TestRunRetriesExhaustedFails(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-6", Attempt: 2, Target: domain.Target{AppID: "com.example"}}}
	sink := &fakeSink{}
	o := newTestOrchestrator(store, &fakeCollector{err: coreerrors.ErrTransient}, sink)

	require.NoError(t, o.Run(context.Background(), "job-6"))

	assert.Zero(t, store.requeuedAttempt)
	assert.Contains(t, store.failedMsg, "Analysis failed after 3 retries")
	assert.Contains(t, store.failedMsg, "transient error")
	assert.Equal(t, domain.JobStatusFailed, sink.statuses[len(sink.statuses)-1])
}

func TestRunNonRetryableFailsImmediately(t *testing.T) {
	store := &fakeStore{job: domain.AnalysisJob{ID: "job-7", Target: domain.Target{AppID: "missing"}}}
	o := newTestOrchestrator(store, &fakeCollector{err: coreerrors.ErrNotFound}, nil)

	require.NoError(t, o.Run(context.Background(), "job-7"))

	assert.Zero(t, store.requeuedAttempt)
	assert.Contains(t, store.failedMsg, "non-retryable error (target not found)")
}

func TestEncodeFallsBackOnBackendFailure(t *testing.T) {
	logger := zerolog.Nop()
	backend := embeddings.NewMockBackend()
	backend.Err = coreerrors.ErrTransient

	o := NewOrchestrator(
		&fakeStore{},
		&fakeCollector{},
		backend,
		dedup.New(0.85, &logger),
		cluster.NewSelector(3, 10, &logger),
		summarize.NewSummarizerAt(&logger, func() time.Time { return testClock }),
		nil,
		Config{MinNegativeReviews: 5, RetryMaxAttempts: 3, RetryBaseDelay: time.Minute, RetryMaxDelay: 5 * time.Minute},
		&logger,
	)

	reviews := []domain.Review{
		{ID: "a", Text: "app crashes constantly when opening photos"},
		{ID: "b", Text: "payment card keeps getting declined at checkout"},
		{ID: "c", Text: "battery drains overnight even when idle"},
	}

	vectors := o.encode(context.Background(), reviews)
	require.Len(t, vectors, 3)
}
