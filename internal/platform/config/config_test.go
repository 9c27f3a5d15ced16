package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/reviewpulse")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 5*time.Second, cfg.WorkerPollInterval)
	assert.InDelta(t, 0.85, cfg.DedupSimilarityThreshold, 1e-9)
	assert.Equal(t, 3, cfg.MinClusterSize)
	assert.Equal(t, 10, cfg.MaxClusters)
	assert.Equal(t, 5, cfg.MinNegativeReviews)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, time.Minute, cfg.RetryBaseDelay)
	assert.Equal(t, 5*time.Minute, cfg.RetryMaxDelay)
	assert.Equal(t, 2*time.Hour, cfg.StuckJobTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.CompletedRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.FailedRetention)
	assert.Equal(t, time.Hour, cfg.StatusTTL)
	assert.Equal(t, 8080, cfg.HealthPort)
}

func TestLoadMissingDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "min cluster size too small",
			mutate:  func(c *Config) { c.MinClusterSize = 1 },
			wantErr: "MIN_CLUSTER_SIZE",
		},
		{
			name:    "max clusters too small",
			mutate:  func(c *Config) { c.MaxClusters = 1 },
			wantErr: "MAX_CLUSTERS",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.DedupSimilarityThreshold = 1.5 },
			wantErr: "DEDUP_SIMILARITY_THRESHOLD",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.RetryMaxAttempts = 0 },
			wantErr: "RETRY_MAX_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				MinClusterSize:           3,
				MaxClusters:              10,
				DedupSimilarityThreshold: 0.85,
				RetryMaxAttempts:         3,
			}
			tt.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
