package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// Embeddings. When the key is empty the pipeline falls back to local
	// TF-IDF vectors.
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingRPS   int    `env:"EMBEDDING_RPS" envDefault:"2"`

	// Collector service.
	CollectorBaseURL string        `env:"COLLECTOR_BASE_URL" envDefault:"http://localhost:8090"`
	CollectorTimeout time.Duration `env:"COLLECTOR_TIMEOUT" envDefault:"30s"`
	CollectorLimit   int           `env:"COLLECTOR_LIMIT" envDefault:"500"`

	// Worker pool.
	WorkerCount        int           `env:"WORKER_COUNT" envDefault:"4"`
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"5s"`

	// Pipeline thresholds.
	DedupSimilarityThreshold float64 `env:"DEDUP_SIMILARITY_THRESHOLD" envDefault:"0.85"`
	MinClusterSize           int     `env:"MIN_CLUSTER_SIZE" envDefault:"3"`
	MaxClusters              int     `env:"MAX_CLUSTERS" envDefault:"10"`
	MinNegativeReviews       int     `env:"MIN_NEGATIVE_REVIEWS" envDefault:"5"`

	// Retry policy.
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"60s"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" envDefault:"5m"`

	// Maintenance sweep.
	MaintenanceInterval  time.Duration `env:"MAINTENANCE_INTERVAL" envDefault:"30m"`
	StuckJobTimeout      time.Duration `env:"STUCK_JOB_TIMEOUT" envDefault:"2h"`
	CompletedRetention   time.Duration `env:"COMPLETED_RETENTION" envDefault:"720h"`
	FailedRetention      time.Duration `env:"FAILED_RETENTION" envDefault:"168h"`
	OrphanReviewAge      time.Duration `env:"ORPHAN_REVIEW_AGE" envDefault:"168h"`
	MaintenanceBatchSize int           `env:"MAINTENANCE_BATCH_SIZE" envDefault:"500"`

	// Status cache.
	StatusTTL time.Duration `env:"STATUS_TTL" envDefault:"1h"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool.
	DBMaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.MinClusterSize < 2 {
		return fmt.Errorf("MIN_CLUSTER_SIZE must be at least 2, got %d", c.MinClusterSize)
	}

	if c.MaxClusters < 2 {
		return fmt.Errorf("MAX_CLUSTERS must be at least 2, got %d", c.MaxClusters)
	}

	if c.DedupSimilarityThreshold <= 0 || c.DedupSimilarityThreshold > 1 {
		return fmt.Errorf("DEDUP_SIMILARITY_THRESHOLD must be in (0, 1], got %g", c.DedupSimilarityThreshold)
	}

	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}

	return nil
}
