// Package analysis drives the end-to-end complaint pipeline for one job at
// a time: collect, filter, deduplicate, embed, cluster, summarize, persist.
// It owns the job state machine, including progress checkpoints, retry
// classification, and delayed requeues.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	"github.com/reviewpulse/reviewpulse/internal/core/embeddings"
	"github.com/reviewpulse/reviewpulse/internal/platform/observability"
	"github.com/reviewpulse/reviewpulse/internal/process/cluster"
	"github.com/reviewpulse/reviewpulse/internal/process/dedup"
	"github.com/reviewpulse/reviewpulse/internal/process/filters"
	"github.com/reviewpulse/reviewpulse/internal/process/summarize"
)

// Log key constants for the orchestrator.
const (
	logKeyJobID     = "job_id"
	logKeyTarget    = "target"
	logKeyAttempt   = "attempt"
	logKeyAlgorithm = "algorithm"
)

// Progress checkpoints inside PROCESSING.
const (
	progressCollecting  = 10
	progressPlaceholder = 25
	progressStoring     = 30
	progressStored      = 50
	progressFiltering   = 60
	progressClustering  = 80
	progressPersisting  = 90
	progressDone        = 100
)

// Store is the persistence surface the orchestrator needs. The storage
// package implements it on Postgres.
type Store interface {
	GetJob(ctx context.Context, id string) (domain.AnalysisJob, error)
	MarkJobProcessing(ctx context.Context, id string, startedAt time.Time) error
	UpdateJobProgress(ctx context.Context, id string, progress float64, message string) error
	CompleteJob(ctx context.Context, id string, completion domain.JobCompletion) error
	FailJob(ctx context.Context, id string, message string) error
	RequeueJob(ctx context.Context, id string, attempt int, runAt time.Time, message string) error

	UpsertReviews(ctx context.Context, reviews []domain.Review) (int, error)
	ReviewsForTarget(ctx context.Context, target domain.Target) ([]domain.Review, error)
	ReplaceClusters(ctx context.Context, jobID string, clusters []domain.ComplaintCluster) error
	SaveReviewEmbeddings(ctx context.Context, reviewIDs []string, vectors [][]float32) error
}

// StatusSink receives every job status transition, letting callers serve
// status reads without hitting the database.
type StatusSink interface {
	Put(jobID string, status domain.JobStatus, progress float64, message string)
}

// Config carries the pipeline thresholds and retry policy.
type Config struct {
	MinNegativeReviews int
	RetryMaxAttempts   int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
}

type Orchestrator struct {
	store      Store
	collector  Collector
	backend    embeddings.Backend
	fallback   embeddings.Backend
	dedup      *dedup.Deduplicator
	selector   *cluster.Selector
	summarizer *summarize.Summarizer
	sink       StatusSink
	cfg        Config
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewOrchestrator(
	store Store,
	collector Collector,
	backend embeddings.Backend,
	deduplicator *dedup.Deduplicator,
	selector *cluster.Selector,
	summarizer *summarize.Summarizer,
	sink StatusSink,
	cfg Config,
	logger *zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		collector:  collector,
		backend:    backend,
		fallback:   embeddings.NewTFIDFBackend(),
		dedup:      deduplicator,
		selector:   selector,
		summarizer: summarizer,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock pins the orchestrator's clock, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes one attempt of a job end to end. Errors inside the pipeline
// never propagate to the caller: they resolve into a retry requeue or a
// permanent FAILED state.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job %s: %w", jobID, err)
	}

	started := o.now()

	if err = o.store.MarkJobProcessing(ctx, job.ID, started); err != nil {
		return fmt.Errorf("marking job %s processing: %w", job.ID, err)
	}

	o.logger.Info().
		Str(logKeyJobID, job.ID).
		Str(logKeyTarget, job.Target.String()).
		Int(logKeyAttempt, job.Attempt).
		Msg("Analysis started")

	if err = o.execute(ctx, job); err != nil {
		o.resolveFailure(ctx, job, err)
		return nil
	}

	observability.JobsProcessed.WithLabelValues(string(domain.JobStatusCompleted)).Inc()
	observability.JobDurationSeconds.Observe(o.now().Sub(started).Seconds())

	return nil
}

func (o *Orchestrator) execute(ctx context.Context, job domain.AnalysisJob) error {
	o.progress(ctx, job, progressCollecting, "Starting review collection...")

	raw, err := o.fetchReviews(ctx, job)
	if err != nil {
		return err
	}

	observability.ReviewsCollected.Add(float64(len(raw)))
	o.progress(ctx, job, progressStoring, fmt.Sprintf("Found %d reviews, storing in database...", len(raw)))

	stored, err := o.store.UpsertReviews(ctx, attachTarget(raw, job.Target))
	if err != nil {
		return fmt.Errorf("storing reviews: %w", err)
	}

	o.progress(ctx, job, progressStored, fmt.Sprintf("Stored %d new reviews, starting text processing...", stored))

	reviews, err := o.store.ReviewsForTarget(ctx, job.Target)
	if err != nil {
		return fmt.Errorf("loading reviews: %w", err)
	}

	o.progress(ctx, job, progressFiltering, "Filtering and cleaning negative reviews...")

	negatives := filters.Negative(reviews)
	observability.ReviewsNegative.Add(float64(len(negatives)))

	deduplicated := o.dedup.Deduplicate(negatives)
	observability.ReviewsDeduplicated.Add(float64(len(negatives) - len(deduplicated)))

	if len(deduplicated) < o.cfg.MinNegativeReviews {
		return o.completeInsufficient(ctx, job, len(reviews), len(deduplicated))
	}

	o.progress(ctx, job, progressClustering, fmt.Sprintf("Clustering %d negative reviews...", len(deduplicated)))

	vectors := o.encode(ctx, deduplicated)
	assignment := o.selector.Select(vectors)
	observability.ClusteringRuns.WithLabelValues(string(assignment.Algorithm)).Inc()

	o.logger.Debug().
		Str(logKeyJobID, job.ID).
		Str(logKeyAlgorithm, string(assignment.Algorithm)).
		Msg("Clustering finished")

	clusters := summarize.Rank(o.summarizer.Build(deduplicated, vectors, assignment.Labels, len(deduplicated)))
	insights := o.summarizer.BuildInsights(deduplicated, clusters)

	o.progress(ctx, job, progressPersisting, fmt.Sprintf("Storing %d complaint clusters...", len(clusters)))

	if err = o.store.ReplaceClusters(ctx, job.ID, clusters); err != nil {
		return fmt.Errorf("storing clusters: %w", err)
	}

	o.saveEmbeddings(ctx, job, deduplicated, vectors)

	completion := domain.JobCompletion{
		Message:         fmt.Sprintf("Analysis completed successfully with %d complaint clusters", len(clusters)),
		TotalReviews:    len(reviews),
		NegativeReviews: len(deduplicated),
		Insights:        insights,
		CompletedAt:     o.now(),
	}

	if err = o.store.CompleteJob(ctx, job.ID, completion); err != nil {
		return fmt.Errorf("completing job: %w", err)
	}

	observability.ClustersProduced.Observe(float64(len(clusters)))
	o.notify(job.ID, domain.JobStatusCompleted, progressDone, "Analysis completed successfully!")

	o.logger.Info().
		Str(logKeyJobID, job.ID).
		Int("clusters", len(clusters)).
		Int("negative_reviews", len(deduplicated)).
		Msg("Analysis completed")

	return nil
}

// fetchReviews calls the collector and substitutes a placeholder review
// when the target has no reviews at all, so the job can complete with an
// insufficient-data result instead of failing.
func (o *Orchestrator) fetchReviews(ctx context.Context, job domain.AnalysisJob) ([]domain.RawReview, error) {
	fetchStart := o.now()

	raw, err := o.collector.Fetch(ctx, job.Target)

	observability.CollectorRequestDuration.Observe(o.now().Sub(fetchStart).Seconds())

	if err != nil {
		observability.CollectorRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("collecting reviews: %w", err)
	}

	observability.CollectorRequests.WithLabelValues("ok").Inc()

	if len(raw) == 0 {
		o.progress(ctx, job, progressPlaceholder, "No reviews found, using sample data for analysis...")

		raw = []domain.RawReview{placeholderReview(job, o.now())}
	}

	return raw, nil
}

func placeholderReview(job domain.AnalysisJob, now time.Time) domain.RawReview {
	text := "No reviews were found for this app. This is a placeholder review to allow the analysis to complete. The app may be new or have limited reviews available."
	if job.Target.IsWebsite() {
		text = "No reviews were found for this website. This is a placeholder review to allow the analysis to complete. Consider checking the website manually for customer feedback or testimonials."
	}

	return domain.RawReview{
		ID:       "placeholder-" + job.ID,
		Text:     text,
		Date:     now,
		Platform: job.Target.Platform,
	}
}

// encode produces vectors for the corpus, degrading from the configured
// backend to the local fallback rather than failing the job.
func (o *Orchestrator) encode(ctx context.Context, reviews []domain.Review) [][]float32 {
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}

	vectors, err := o.backend.Encode(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		observability.EmbeddingRequests.WithLabelValues(o.backend.Name(), "ok").Inc()
		return vectors
	}

	if err != nil {
		observability.EmbeddingRequests.WithLabelValues(o.backend.Name(), "error").Inc()
		o.logger.Warn().Err(err).Str("backend", o.backend.Name()).Msg("Embedding backend failed, falling back to local vectors")
	}

	if o.backend.Name() == o.fallback.Name() {
		return vectors
	}

	observability.EmbeddingFallbacks.Inc()

	vectors, err = o.fallback.Encode(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		// The cluster selector turns a dimensionless corpus into the
		// single-cluster fallback, so an empty matrix is still usable.
		return nil
	}

	observability.EmbeddingRequests.WithLabelValues(o.fallback.Name(), "ok").Inc()

	return vectors
}

// saveEmbeddings persists review vectors for later reuse. Best effort: a
// failure here never affects the job outcome.
func (o *Orchestrator) saveEmbeddings(ctx context.Context, job domain.AnalysisJob, reviews []domain.Review, vectors [][]float32) {
	if len(vectors) != len(reviews) {
		return
	}

	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}

	if err := o.store.SaveReviewEmbeddings(ctx, ids, vectors); err != nil {
		o.logger.Warn().Err(err).Str(logKeyJobID, job.ID).Msg("Saving review embeddings failed")
	}
}

func (o *Orchestrator) completeInsufficient(ctx context.Context, job domain.AnalysisJob, total, negative int) error {
	completion := domain.JobCompletion{
		Message:         "Analysis completed with insufficient negative reviews for clustering",
		TotalReviews:    total,
		NegativeReviews: negative,
		Insights:        o.summarizer.BuildInsights(nil, nil),
		CompletedAt:     o.now(),
	}

	if err := o.store.CompleteJob(ctx, job.ID, completion); err != nil {
		return fmt.Errorf("completing job: %w", err)
	}

	o.notify(job.ID, domain.JobStatusCompleted, progressDone, completion.Message)

	o.logger.Info().
		Str(logKeyJobID, job.ID).
		Int("negative_reviews", negative).
		Msg("Analysis completed without clustering")

	return nil
}

// resolveFailure maps a pipeline error into either a delayed retry or a
// permanent failure, depending on the attempts left.
func (o *Orchestrator) resolveFailure(ctx context.Context, job domain.AnalysisJob, cause error) {
	kind := errorKind(cause)

	if Retryable(cause) && job.Attempt+1 < o.cfg.RetryMaxAttempts {
		delay := RetryDelay(job.Attempt, o.cfg.RetryBaseDelay, o.cfg.RetryMaxDelay)
		runAt := o.now().Add(delay)
		message := fmt.Sprintf("Analysis failed (%s), retrying in %.0fs... (attempt %d/%d)",
			kind, delay.Seconds(), job.Attempt+1, o.cfg.RetryMaxAttempts)

		if err := o.store.RequeueJob(ctx, job.ID, job.Attempt+1, runAt, message); err != nil {
			o.logger.Error().Err(err).Str(logKeyJobID, job.ID).Msg("Requeue failed")
			return
		}

		observability.JobsRetried.Inc()
		o.notify(job.ID, domain.JobStatusPending, job.Progress, message)

		o.logger.Warn().
			Err(cause).
			Str(logKeyJobID, job.ID).
			Int(logKeyAttempt, job.Attempt+1).
			Dur("retry_delay", delay).
			Msg("Analysis attempt failed, retrying")

		return
	}

	var message string
	if Retryable(cause) {
		message = fmt.Sprintf("Analysis failed after %d retries due to %s: %v", o.cfg.RetryMaxAttempts, kind, cause)
	} else {
		message = fmt.Sprintf("Analysis failed due to non-retryable error (%s): %v", kind, cause)
	}

	if err := o.store.FailJob(ctx, job.ID, message); err != nil {
		o.logger.Error().Err(err).Str(logKeyJobID, job.ID).Msg("Marking job failed errored")
		return
	}

	observability.JobsProcessed.WithLabelValues(string(domain.JobStatusFailed)).Inc()
	o.notify(job.ID, domain.JobStatusFailed, 0, message)

	o.logger.Error().
		Err(cause).
		Str(logKeyJobID, job.ID).
		Str("error_kind", kind).
		Msg("Analysis failed permanently")
}

func (o *Orchestrator) progress(ctx context.Context, job domain.AnalysisJob, value float64, message string) {
	if err := o.store.UpdateJobProgress(ctx, job.ID, value, message); err != nil {
		o.logger.Warn().Err(err).Str(logKeyJobID, job.ID).Msg("Progress update failed")
	}

	o.notify(job.ID, domain.JobStatusProcessing, value, message)
}

func (o *Orchestrator) notify(jobID string, status domain.JobStatus, progress float64, message string) {
	if o.sink != nil {
		o.sink.Put(jobID, status, progress, message)
	}
}

func attachTarget(raw []domain.RawReview, target domain.Target) []domain.Review {
	reviews := make([]domain.Review, len(raw))

	for i, r := range raw {
		reviews[i] = domain.Review{
			ID:         r.ID,
			AppID:      target.AppID,
			WebsiteURL: target.WebsiteURL,
			Platform:   r.Platform,
			Rating:     r.Rating,
			Text:       r.Text,
			Author:     r.Author,
			Locale:     r.Locale,
			ReviewDate: r.Date,
		}
	}

	return reviews
}
