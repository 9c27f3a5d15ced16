package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

// ReplaceClusters atomically swaps a job's complaint clusters for a fresh
// set. Rank order is preserved by the position column.
func (db *DB) ReplaceClusters(ctx context.Context, jobID string, clusters []domain.ComplaintCluster) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace clusters: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `
		DELETE FROM complaint_clusters WHERE job_id = $1
	`, jobID); err != nil {
		return fmt.Errorf("delete old clusters: %w", err)
	}

	for i, c := range clusters {
		samples, err := json.Marshal(c.SampleReviews)
		if err != nil {
			return fmt.Errorf("encode sample reviews: %w", err)
		}

		var centroid any
		if len(c.Centroid) > 0 {
			centroid = pgvector.NewVector(c.Centroid)
		}

		if _, err = tx.Exec(ctx, `
			INSERT INTO complaint_clusters
				(job_id, position, name, description, review_count, percentage, recency_score, sample_reviews, keywords, centroid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, jobID, i, toText(c.Name), toText(c.Description), c.ReviewCount,
			c.Percentage, c.RecencyScore, samples, c.Keywords, centroid); err != nil {
			return fmt.Errorf("insert cluster: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace clusters: %w", err)
	}

	return nil
}

// GetClusters loads a job's complaint clusters in rank order.
func (db *DB) GetClusters(ctx context.Context, jobID string) ([]domain.ComplaintCluster, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT name, description, review_count, percentage, recency_score, sample_reviews, keywords
		FROM complaint_clusters
		WHERE job_id = $1
		ORDER BY position
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("get clusters: %w", err)
	}
	defer rows.Close()

	var clusters []domain.ComplaintCluster

	for rows.Next() {
		var (
			c           domain.ComplaintCluster
			name        pgtype.Text
			description pgtype.Text
			samplesRaw  []byte
		)

		if err := rows.Scan(&name, &description, &c.ReviewCount, &c.Percentage,
			&c.RecencyScore, &samplesRaw, &c.Keywords); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}

		c.Name = fromText(name)
		c.Description = fromText(description)

		if len(samplesRaw) > 0 {
			if err := json.Unmarshal(samplesRaw, &c.SampleReviews); err != nil {
				return nil, fmt.Errorf("decode sample reviews: %w", err)
			}
		}

		clusters = append(clusters, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate clusters: %w", rows.Err())
	}

	return clusters, nil
}
