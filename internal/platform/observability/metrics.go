package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewpulse_jobs_processed_total",
		Help: "The total number of analysis jobs finished, by terminal status",
	}, []string{"status"})

	JobsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_jobs_retried_total",
		Help: "The total number of analysis job retry requeues",
	})

	JobDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reviewpulse_job_duration_seconds",
		Help:    "End-to-end duration of analysis jobs",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600, 1800},
	})

	ReviewsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_reviews_collected_total",
		Help: "The total number of raw reviews fetched from collectors",
	})

	ReviewsNegative = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_reviews_negative_total",
		Help: "The total number of reviews kept by the negative filter",
	})

	ReviewsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_reviews_deduplicated_total",
		Help: "The total number of reviews dropped as near-duplicates",
	})

	ClusteringRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewpulse_clustering_runs_total",
		Help: "The total number of clustering runs, by algorithm used",
	}, []string{"algorithm"})

	ClustersProduced = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reviewpulse_clusters_produced",
		Help:    "Distribution of complaint cluster counts per completed job",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})

	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewpulse_embedding_requests_total",
		Help: "Total number of embedding batches, by backend and status",
	}, []string{"backend", "status"})

	EmbeddingFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_embedding_fallbacks_total",
		Help: "Total number of falls back to the local vector backend",
	})

	QueueBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reviewpulse_queue_backlog_size",
		Help: "Number of pending analysis jobs in the queue",
	})

	QueueOldestAgeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reviewpulse_queue_oldest_age_seconds",
		Help: "Age in seconds of the oldest pending analysis job",
	})

	MaintenanceSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewpulse_maintenance_sweeps_total",
		Help: "Total number of maintenance sweeps, by outcome",
	}, []string{"status"})

	StuckJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_stuck_jobs_failed_total",
		Help: "Total number of stuck PROCESSING jobs force-failed by maintenance",
	})

	JobsPurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewpulse_jobs_purged_total",
		Help: "Total number of old jobs purged by maintenance, by status",
	}, []string{"status"})

	OrphanReviewsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewpulse_orphan_reviews_purged_total",
		Help: "Total number of orphaned reviews purged by maintenance",
	})

	CollectorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewpulse_collector_requests_total",
		Help: "Total number of collector fetches, by status",
	}, []string{"status"})

	CollectorRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reviewpulse_collector_request_duration_seconds",
		Help:    "Duration of collector fetches",
		Buckets: prometheus.DefBuckets,
	})
)
