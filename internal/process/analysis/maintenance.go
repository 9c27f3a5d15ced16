package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	"github.com/reviewpulse/reviewpulse/internal/platform/observability"
)

const stuckJobMessage = "Analysis timed out and was reset by maintenance task"

// MaintenanceStore is the persistence surface the sweep needs.
type MaintenanceStore interface {
	FailStuckJobs(ctx context.Context, cutoff time.Time, message string) (int, error)
	PurgeJobs(ctx context.Context, status domain.JobStatus, cutoff time.Time, batchSize int) (int, error)
	PurgeOrphanReviews(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
	QueueStats(ctx context.Context) (backlog int, oldestPending *time.Time, err error)
}

// MaintenanceConfig carries the sweep cutoffs and batch size.
type MaintenanceConfig struct {
	StuckJobTimeout    time.Duration
	CompletedRetention time.Duration
	FailedRetention    time.Duration
	OrphanReviewAge    time.Duration
	BatchSize          int
}

// Maintenance periodically fails stuck jobs and purges aged rows so the
// queue and review tables stay bounded.
type Maintenance struct {
	store  MaintenanceStore
	cfg    MaintenanceConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewMaintenance(store MaintenanceStore, cfg MaintenanceConfig, logger *zerolog.Logger) *Maintenance {
	return &Maintenance{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// WithClock pins the sweep's clock, for tests.
func (m *Maintenance) WithClock(now func() time.Time) *Maintenance {
	m.now = now
	return m
}

// Sweep runs one full maintenance pass. Each phase is independent: a
// failure in one is logged and the rest still run.
func (m *Maintenance) Sweep(ctx context.Context) error {
	var firstErr error

	if err := m.failStuck(ctx); err != nil {
		firstErr = err
	}

	if err := m.purgeJobs(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := m.purgeOrphans(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	m.reportQueue(ctx)

	if firstErr != nil {
		observability.MaintenanceSweeps.WithLabelValues("error").Inc()
		return firstErr
	}

	observability.MaintenanceSweeps.WithLabelValues("ok").Inc()

	return nil
}

func (m *Maintenance) failStuck(ctx context.Context) error {
	cutoff := m.now().Add(-m.cfg.StuckJobTimeout)

	failed, err := m.store.FailStuckJobs(ctx, cutoff, stuckJobMessage)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failing stuck jobs errored")
		return fmt.Errorf("failing stuck jobs: %w", err)
	}

	if failed > 0 {
		observability.StuckJobsFailed.Add(float64(failed))
		m.logger.Warn().Int("jobs", failed).Msg("Force-failed stuck processing jobs")
	}

	return nil
}

func (m *Maintenance) purgeJobs(ctx context.Context) error {
	retentions := []struct {
		status domain.JobStatus
		age    time.Duration
	}{
		{status: domain.JobStatusCompleted, age: m.cfg.CompletedRetention},
		{status: domain.JobStatusFailed, age: m.cfg.FailedRetention},
	}

	for _, r := range retentions {
		cutoff := m.now().Add(-r.age)

		total := 0

		for {
			purged, err := m.store.PurgeJobs(ctx, r.status, cutoff, m.cfg.BatchSize)
			if err != nil {
				m.logger.Error().Err(err).Str("status", string(r.status)).Msg("Purging jobs errored")
				return fmt.Errorf("purging %s jobs: %w", r.status, err)
			}

			total += purged

			if purged < m.cfg.BatchSize {
				break
			}
		}

		if total > 0 {
			observability.JobsPurged.WithLabelValues(string(r.status)).Add(float64(total))
			m.logger.Info().Int("jobs", total).Str("status", string(r.status)).Msg("Purged old jobs")
		}
	}

	return nil
}

func (m *Maintenance) purgeOrphans(ctx context.Context) error {
	cutoff := m.now().Add(-m.cfg.OrphanReviewAge)

	total := 0

	for {
		purged, err := m.store.PurgeOrphanReviews(ctx, cutoff, m.cfg.BatchSize)
		if err != nil {
			m.logger.Error().Err(err).Msg("Purging orphan reviews errored")
			return fmt.Errorf("purging orphan reviews: %w", err)
		}

		total += purged

		if purged < m.cfg.BatchSize {
			break
		}
	}

	if total > 0 {
		observability.OrphanReviewsPurged.Add(float64(total))
		m.logger.Info().Int("reviews", total).Msg("Purged orphaned reviews")
	}

	return nil
}

func (m *Maintenance) reportQueue(ctx context.Context) {
	backlog, oldest, err := m.store.QueueStats(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Queue stats unavailable")
		return
	}

	observability.QueueBacklog.Set(float64(backlog))

	if oldest != nil {
		observability.QueueOldestAgeSeconds.Set(m.now().Sub(*oldest).Seconds())
	} else {
		observability.QueueOldestAgeSeconds.Set(0)
	}
}
