package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

// UpsertReviews inserts reviews, skipping IDs already stored, and returns
// how many rows were actually added.
func (db *DB) UpsertReviews(ctx context.Context, reviews []domain.Review) (int, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}

	for _, r := range reviews {
		batch.Queue(`
			INSERT INTO reviews (id, app_id, website_url, platform, rating, text, author, locale, review_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.AppID, r.WebsiteURL, string(r.Platform),
			toInt4Ptr(r.Rating), toText(r.Text), toText(r.Author), toText(r.Locale),
			toTimestamptz(r.ReviewDate))
	}

	results := db.Pool.SendBatch(ctx, batch)

	defer func() {
		_ = results.Close()
	}()

	inserted := 0

	for range reviews {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("upsert reviews: %w", err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// ReviewsForTarget loads every stored review for a target, newest first.
func (db *DB) ReviewsForTarget(ctx context.Context, target domain.Target) ([]domain.Review, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, app_id, website_url, platform, rating, text, author, locale, review_date, created_at
		FROM reviews
		WHERE app_id = $1 AND website_url = $2
		ORDER BY review_date DESC
	`, target.AppID, target.WebsiteURL)
	if err != nil {
		return nil, fmt.Errorf("reviews for target: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review

	for rows.Next() {
		var (
			r          domain.Review
			appID      pgtype.Text
			websiteURL pgtype.Text
			platform   string
			rating     pgtype.Int4
			text       pgtype.Text
			author     pgtype.Text
			locale     pgtype.Text
			reviewDate pgtype.Timestamptz
			createdAt  pgtype.Timestamptz
		)

		if err := rows.Scan(&r.ID, &appID, &websiteURL, &platform, &rating, &text,
			&author, &locale, &reviewDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}

		r.AppID = fromText(appID)
		r.WebsiteURL = fromText(websiteURL)
		r.Platform = domain.Platform(platform)
		r.Rating = fromInt4Ptr(rating)
		r.Text = fromText(text)
		r.Author = fromText(author)
		r.Locale = fromText(locale)
		r.ReviewDate = fromTimestamptz(reviewDate)
		r.CreatedAt = fromTimestamptz(createdAt)

		reviews = append(reviews, r)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reviews: %w", rows.Err())
	}

	return reviews, nil
}

// SaveReviewEmbeddings stores one vector per review ID.
func (db *DB) SaveReviewEmbeddings(ctx context.Context, reviewIDs []string, vectors [][]float32) error {
	if len(reviewIDs) != len(vectors) {
		return fmt.Errorf("embedding count %d does not match review count %d", len(vectors), len(reviewIDs))
	}

	batch := &pgx.Batch{}

	for i, id := range reviewIDs {
		if len(vectors[i]) == 0 {
			continue
		}

		batch.Queue(`
			UPDATE reviews SET embedding = $2 WHERE id = $1
		`, id, pgvector.NewVector(vectors[i]))
	}

	if batch.Len() == 0 {
		return nil
	}

	results := db.Pool.SendBatch(ctx, batch)

	defer func() {
		_ = results.Close()
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save review embeddings: %w", err)
		}
	}

	return nil
}

// PurgeOrphanReviews deletes up to batchSize reviews older than cutoff
// whose target no longer has any analysis job.
func (db *DB) PurgeOrphanReviews(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM reviews
		WHERE id IN (
			SELECT r.id FROM reviews r
			WHERE r.created_at < $1
			  AND NOT EXISTS (
				SELECT 1 FROM analysis_jobs j
				WHERE j.app_id = r.app_id AND j.website_url = r.website_url
			  )
			LIMIT $2
		)
	`, toTimestamptz(cutoff), batchSize)
	if err != nil {
		return 0, fmt.Errorf("purge orphan reviews: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
