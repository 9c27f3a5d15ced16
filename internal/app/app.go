// Package app wires the application together and exposes its operational
// modes:
//
//   - Worker mode: claims queued analysis jobs and runs the complaint
//     pipeline, with the maintenance sweep and health server alongside
//   - Maintenance mode: runs a single maintenance sweep and exits
//   - Submit mode: enqueues an analysis job for a target
//
// Each mode can be run independently based on deployment needs.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	"github.com/reviewpulse/reviewpulse/internal/core/embeddings"
	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
	"github.com/reviewpulse/reviewpulse/internal/ingest/collector"
	"github.com/reviewpulse/reviewpulse/internal/platform/config"
	"github.com/reviewpulse/reviewpulse/internal/platform/observability"
	"github.com/reviewpulse/reviewpulse/internal/platform/statuscache"
	"github.com/reviewpulse/reviewpulse/internal/platform/worker"
	"github.com/reviewpulse/reviewpulse/internal/process/analysis"
	"github.com/reviewpulse/reviewpulse/internal/process/cluster"
	"github.com/reviewpulse/reviewpulse/internal/process/dedup"
	"github.com/reviewpulse/reviewpulse/internal/process/summarize"
	"github.com/reviewpulse/reviewpulse/internal/storage"
)

const logFieldMode = "mode"

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg      *config.Config
	database *storage.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// RunWorker runs the worker mode: a pool of job workers, the periodic
// maintenance sweep, and the health server. Blocks until ctx is cancelled.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Str(logFieldMode, "worker").Int("workers", a.cfg.WorkerCount).Msg("Starting worker mode")

	orchestrator := a.newOrchestrator()
	maintenance := a.newMaintenance()

	go a.runHealthServer(ctx)

	var wg sync.WaitGroup

	for i := 0; i < a.cfg.WorkerCount; i++ {
		wg.Add(1)

		name := fmt.Sprintf("analysis-%d", i)

		go func() {
			defer wg.Done()

			err := worker.Loop(ctx, worker.Config{
				Name:         name,
				PollInterval: a.cfg.WorkerPollInterval,
				Process:      a.processNextJob(orchestrator),
				Logger:       a.logger,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Str("worker", name).Msg("Worker loop exited")
			}
		}()
	}

	err := worker.Loop(ctx, worker.Config{
		Name:         "maintenance",
		PollInterval: time.Minute,
		PeriodicTasks: []worker.PeriodicTask{
			{
				Name:     "sweep",
				Interval: a.cfg.MaintenanceInterval,
				Run: func(ctx context.Context) {
					defer worker.RecoverPanic(a.logger, "maintenance sweep")

					if err := maintenance.Sweep(ctx); err != nil {
						a.logger.Error().Err(err).Msg("Maintenance sweep failed")
					}
				},
			},
		},
		Logger: a.logger,
	})

	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker mode: %w", err)
	}

	return nil
}

// RunMaintenance runs one maintenance sweep and exits.
func (a *App) RunMaintenance(ctx context.Context) error {
	a.logger.Info().Str(logFieldMode, "maintenance").Msg("Starting maintenance mode")

	if err := a.newMaintenance().Sweep(ctx); err != nil {
		return fmt.Errorf("maintenance sweep: %w", err)
	}

	return nil
}

// RunSubmit enqueues an analysis job for the target and prints it as JSON.
func (a *App) RunSubmit(ctx context.Context, target domain.Target) error {
	job, err := a.database.CreateJob(ctx, target)
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}

	a.logger.Info().
		Str("job_id", job.ID).
		Str("target", target.String()).
		Str("status", string(job.Status)).
		Msg("Analysis job enqueued")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (a *App) processNextJob(orchestrator *analysis.Orchestrator) worker.ProcessFunc {
	return func(ctx context.Context) error {
		job, err := a.database.ClaimNextJob(ctx)
		if err != nil {
			if errors.Is(err, coreerrors.ErrNoPendingJobs) {
				return nil
			}

			return fmt.Errorf("claim next job: %w", err)
		}

		defer worker.RecoverPanic(a.logger, "analysis job")

		if err := orchestrator.Run(ctx, job.ID); err != nil {
			a.logger.Error().Err(err).Str("job_id", job.ID).Msg("Job run failed")
		}

		return nil
	}
}

func (a *App) newOrchestrator() *analysis.Orchestrator {
	statusCache := statuscache.New(a.cfg.StatusTTL)

	return analysis.NewOrchestrator(
		a.database,
		a.newCollector(),
		a.newEmbeddingBackend(),
		dedup.New(a.cfg.DedupSimilarityThreshold, a.logger),
		cluster.NewSelector(a.cfg.MinClusterSize, a.cfg.MaxClusters, a.logger),
		summarize.NewSummarizer(a.logger),
		statusCache,
		analysis.Config{
			MinNegativeReviews: a.cfg.MinNegativeReviews,
			RetryMaxAttempts:   a.cfg.RetryMaxAttempts,
			RetryBaseDelay:     a.cfg.RetryBaseDelay,
			RetryMaxDelay:      a.cfg.RetryMaxDelay,
		},
		a.logger,
	)
}

func (a *App) newMaintenance() *analysis.Maintenance {
	return analysis.NewMaintenance(a.database, analysis.MaintenanceConfig{
		StuckJobTimeout:    a.cfg.StuckJobTimeout,
		CompletedRetention: a.cfg.CompletedRetention,
		FailedRetention:    a.cfg.FailedRetention,
		OrphanReviewAge:    a.cfg.OrphanReviewAge,
		BatchSize:          a.cfg.MaintenanceBatchSize,
	}, a.logger)
}

func (a *App) newCollector() *collector.Client {
	return collector.New(collector.Config{
		BaseURL: a.cfg.CollectorBaseURL,
		Timeout: a.cfg.CollectorTimeout,
		Limit:   a.cfg.CollectorLimit,
	}, a.logger)
}

// newEmbeddingBackend picks OpenAI when a key is configured, otherwise the
// local TF-IDF backend.
func (a *App) newEmbeddingBackend() embeddings.Backend {
	if a.cfg.OpenAIAPIKey != "" {
		return embeddings.NewOpenAIBackend(embeddings.OpenAIConfig{
			APIKey:    a.cfg.OpenAIAPIKey,
			Model:     a.cfg.EmbeddingModel,
			RateLimit: a.cfg.EmbeddingRPS,
		})
	}

	a.logger.Info().Msg("No embedding API key configured, using local TF-IDF vectors")

	return embeddings.NewTFIDFBackend()
}

func (a *App) runHealthServer(ctx context.Context) {
	srv := observability.NewServer(a.database.Pool, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Health server failed")
	}
}
