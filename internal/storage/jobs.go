package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
)

const jobColumns = `
	id, app_id, website_url, platform, status, progress, status_message,
	total_reviews, negative_reviews, attempt, run_at, created_at, started_at, completed_at`

// CreateJob enqueues a new analysis job for a target. An already queued or
// running job for the same target is returned instead of creating a
// duplicate.
func (db *DB) CreateJob(ctx context.Context, target domain.Target) (domain.AnalysisJob, error) {
	if existing, err := db.findActiveJob(ctx, target); err == nil {
		return existing, nil
	} else if !errors.Is(err, coreerrors.ErrJobNotFound) {
		return domain.AnalysisJob{}, err
	}

	row := db.Pool.QueryRow(ctx, `
		INSERT INTO analysis_jobs (id, app_id, website_url, platform, status, run_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING`+jobColumns,
		uuid.NewString(), target.AppID, target.WebsiteURL, string(target.Platform),
		string(domain.JobStatusPending))

	job, err := scanJob(row)
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("create job: %w", err)
	}

	return job, nil
}

func (db *DB) findActiveJob(ctx context.Context, target domain.Target) (domain.AnalysisJob, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		WHERE app_id = $1 AND website_url = $2 AND status = ANY($3)
		ORDER BY created_at DESC
		LIMIT 1
	`, target.AppID, target.WebsiteURL,
		[]string{string(domain.JobStatusPending), string(domain.JobStatusProcessing)})

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnalysisJob{}, coreerrors.ErrJobNotFound
	}

	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("find active job: %w", err)
	}

	return job, nil
}

// GetJob loads one job by ID.
func (db *DB) GetJob(ctx context.Context, id string) (domain.AnalysisJob, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		WHERE id = $1
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnalysisJob{}, coreerrors.ErrJobNotFound
	}

	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("get job: %w", err)
	}

	return job, nil
}

// ClaimNextJob atomically takes the oldest due PENDING job and moves it to
// PROCESSING. SKIP LOCKED keeps concurrent workers from claiming the same
// row. Returns ErrNoPendingJobs when the queue is empty.
func (db *DB) ClaimNextJob(ctx context.Context) (domain.AnalysisJob, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("begin claim: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		WHERE status = $1 AND run_at <= now()
		ORDER BY run_at, created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, string(domain.JobStatusPending))

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnalysisJob{}, coreerrors.ErrNoPendingJobs
	}

	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("claim job: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE analysis_jobs SET status = $2, started_at = now() WHERE id = $1
	`, job.ID, string(domain.JobStatusProcessing)); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("mark claimed job: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("commit claim: %w", err)
	}

	job.Status = domain.JobStatusProcessing

	return job, nil
}

// MarkJobProcessing records the start of a processing attempt.
func (db *DB) MarkJobProcessing(ctx context.Context, id string, startedAt time.Time) error {
	if _, err := db.Pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, progress = 0, started_at = $3, completed_at = NULL
		WHERE id = $1
	`, id, string(domain.JobStatusProcessing), toTimestamptz(startedAt)); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	return nil
}

// UpdateJobProgress stores a progress checkpoint and its status message.
func (db *DB) UpdateJobProgress(ctx context.Context, id string, progress float64, message string) error {
	if _, err := db.Pool.Exec(ctx, `
		UPDATE analysis_jobs SET progress = $2, status_message = $3 WHERE id = $1
	`, id, progress, toText(message)); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	return nil
}

// CompleteJob moves a job to COMPLETED with its final counts and insights.
func (db *DB) CompleteJob(ctx context.Context, id string, completion domain.JobCompletion) error {
	insights, err := json.Marshal(completion.Insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}

	if _, err = db.Pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, progress = 100, status_message = $3,
		    total_reviews = $4, negative_reviews = $5, insights = $6, completed_at = $7
		WHERE id = $1
	`, id, string(domain.JobStatusCompleted), toText(completion.Message),
		completion.TotalReviews, completion.NegativeReviews, insights,
		toTimestamptz(completion.CompletedAt)); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	return nil
}

// FailJob moves a job to FAILED. Progress resets to zero so a later
// re-submission starts from a clean slate.
func (db *DB) FailJob(ctx context.Context, id string, message string) error {
	if _, err := db.Pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, progress = 0, status_message = $3, completed_at = now()
		WHERE id = $1
	`, id, string(domain.JobStatusFailed), toText(message)); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}

	return nil
}

// RequeueJob puts a failed attempt back in the queue with a delayed run_at.
func (db *DB) RequeueJob(ctx context.Context, id string, attempt int, runAt time.Time, message string) error {
	if _, err := db.Pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, attempt = $3, run_at = $4, status_message = $5, started_at = NULL
		WHERE id = $1
	`, id, string(domain.JobStatusPending), attempt, toTimestamptz(runAt), toText(message)); err != nil {
		return fmt.Errorf("requeue job: %w", err)
	}

	return nil
}

// FailStuckJobs force-fails PROCESSING jobs whose attempt started before
// the cutoff and returns how many rows changed.
func (db *DB) FailStuckJobs(ctx context.Context, cutoff time.Time, message string) (int, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, progress = 0, status_message = $3, completed_at = now()
		WHERE status = $1 AND started_at < $4
	`, string(domain.JobStatusProcessing), string(domain.JobStatusFailed),
		toText(message), toTimestamptz(cutoff))
	if err != nil {
		return 0, fmt.Errorf("fail stuck jobs: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// PurgeJobs deletes up to batchSize terminal jobs finished before cutoff.
func (db *DB) PurgeJobs(ctx context.Context, status domain.JobStatus, cutoff time.Time, batchSize int) (int, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM analysis_jobs
		WHERE id IN (
			SELECT id FROM analysis_jobs
			WHERE status = $1 AND completed_at < $2
			LIMIT $3
		)
	`, string(status), toTimestamptz(cutoff), batchSize)
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// QueueStats reports the pending backlog and the enqueue time of the
// oldest pending job.
func (db *DB) QueueStats(ctx context.Context) (int, *time.Time, error) {
	var (
		backlog int
		oldest  pgtype.Timestamptz
	)

	if err := db.Pool.QueryRow(ctx, `
		SELECT count(*), min(run_at)
		FROM analysis_jobs
		WHERE status = $1
	`, string(domain.JobStatusPending)).Scan(&backlog, &oldest); err != nil {
		return 0, nil, fmt.Errorf("queue stats: %w", err)
	}

	return backlog, fromTimestamptzPtr(oldest), nil
}

// GetResult assembles the externally exposed result of a completed job.
func (db *DB) GetResult(ctx context.Context, id string) (domain.AnalysisResult, error) {
	job, err := db.GetJob(ctx, id)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if job.Status != domain.JobStatusCompleted {
		return domain.AnalysisResult{}, fmt.Errorf("job %s is %s: %w", id, job.Status, coreerrors.ErrNotFound)
	}

	clusters, err := db.GetClusters(ctx, id)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	insights, err := db.getInsights(ctx, id)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	summary := domain.Summary{
		TotalReviews:    job.TotalReviews,
		NegativeReviews: job.NegativeReviews,
	}
	if job.TotalReviews > 0 {
		summary.NegativePercentage = float64(job.NegativeReviews) / float64(job.TotalReviews) * 100
	}

	return domain.AnalysisResult{
		Clusters: clusters,
		Summary:  summary,
		Insights: insights,
	}, nil
}

func (db *DB) getInsights(ctx context.Context, id string) (domain.Insights, error) {
	var raw []byte

	if err := db.Pool.QueryRow(ctx, `
		SELECT insights FROM analysis_jobs WHERE id = $1
	`, id).Scan(&raw); err != nil {
		return domain.Insights{}, fmt.Errorf("get insights: %w", err)
	}

	var insights domain.Insights
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &insights); err != nil {
			return domain.Insights{}, fmt.Errorf("decode insights: %w", err)
		}
	}

	return insights, nil
}

func scanJob(row pgx.Row) (domain.AnalysisJob, error) {
	var (
		job         domain.AnalysisJob
		appID       pgtype.Text
		websiteURL  pgtype.Text
		platform    pgtype.Text
		status      string
		message     pgtype.Text
		runAt       pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		startedAt   pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)

	if err := row.Scan(
		&job.ID, &appID, &websiteURL, &platform, &status, &job.Progress, &message,
		&job.TotalReviews, &job.NegativeReviews, &job.Attempt,
		&runAt, &createdAt, &startedAt, &completedAt,
	); err != nil {
		return domain.AnalysisJob{}, err
	}

	job.Target = domain.Target{
		AppID:      fromText(appID),
		Platform:   domain.Platform(fromText(platform)),
		WebsiteURL: fromText(websiteURL),
	}
	job.Status = domain.JobStatus(status)
	job.StatusMessage = fromText(message)
	job.RunAt = fromTimestamptz(runAt)
	job.CreatedAt = fromTimestamptz(createdAt)
	job.StartedAt = fromTimestamptzPtr(startedAt)
	job.CompletedAt = fromTimestamptzPtr(completedAt)

	return job, nil
}
