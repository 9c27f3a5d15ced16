// Package dedup removes near-duplicate reviews before clustering.
package dedup

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
	"github.com/reviewpulse/reviewpulse/internal/process/textprep"
	"github.com/reviewpulse/reviewpulse/internal/process/tfidf"
)

// Log key constants for deduplication.
const (
	logKeySkippedID   = "skipped_id"
	logKeyDuplicateOf = "duplicate_of"
)

const (
	// Above this corpus size an exact-hash prepass runs before the
	// pairwise similarity sweep.
	hashPrepassThreshold = 1000

	maxFeaturesCap     = 1000
	maxFeaturesPerDoc  = 10
	vectorizerMaxDF    = 0.95
	minPairwiseReviews = 2
)

type Deduplicator struct {
	threshold float64
	logger    *zerolog.Logger
}

func New(threshold float64, logger *zerolog.Logger) *Deduplicator {
	return &Deduplicator{threshold: threshold, logger: logger}
}

// Deduplicate keeps the first occurrence of each near-duplicate group and
// drops the rest. Output order follows input order, so the operation is
// idempotent: running it on its own output changes nothing.
//
// When the corpus is too small or vectorization finds no usable terms the
// input is returned unchanged.
func (d *Deduplicator) Deduplicate(reviews []domain.Review) []domain.Review {
	if len(reviews) < minPairwiseReviews {
		return reviews
	}

	if len(reviews) > hashPrepassThreshold {
		reviews = d.dropExactDuplicates(reviews)
	}

	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}

	maxFeatures := maxFeaturesPerDoc * len(reviews)
	if maxFeatures > maxFeaturesCap {
		maxFeatures = maxFeaturesCap
	}

	v := tfidf.NewVectorizer(tfidf.Options{
		MaxFeatures:    maxFeatures,
		MaxDF:          vectorizerMaxDF,
		RemoveStopword: true,
	})

	rows, err := v.FitTransform(texts)
	if err != nil {
		// A degenerate corpus (all stopwords, all empty) cannot be
		// compared pairwise. Pass it through untouched.
		if d.logger != nil && !errors.Is(err, coreerrors.ErrEmptyVocabulary) {
			d.logger.Warn().Err(err).Msg("Vectorization failed, skipping dedup")
		}

		return reviews
	}

	kept := make([]domain.Review, 0, len(reviews))
	keptRows := make([][]float64, 0, len(rows))

	for i, r := range reviews {
		duplicateOf := ""

		for j, keptRow := range keptRows {
			if CosineSimilarity(rows[i], keptRow) >= d.threshold {
				duplicateOf = kept[j].ID
				break
			}
		}

		if duplicateOf != "" {
			if d.logger != nil {
				d.logger.Debug().
					Str(logKeySkippedID, r.ID).
					Str(logKeyDuplicateOf, duplicateOf).
					Msg("Skipping near-duplicate review")
			}

			continue
		}

		kept = append(kept, r)
		keptRows = append(keptRows, rows[i])
	}

	return kept
}

func (d *Deduplicator) dropExactDuplicates(reviews []domain.Review) []domain.Review {
	seen := make(map[string]string, len(reviews))
	kept := make([]domain.Review, 0, len(reviews))

	for _, r := range reviews {
		sum := md5.Sum([]byte(textprep.Clean(r.Text))) //nolint:gosec // fingerprint only
		key := hex.EncodeToString(sum[:])

		if firstID, ok := seen[key]; ok {
			if d.logger != nil {
				d.logger.Debug().
					Str(logKeySkippedID, r.ID).
					Str(logKeyDuplicateOf, firstID).
					Msg("Skipping exact duplicate review")
			}

			continue
		}

		seen[key] = r.ID

		kept = append(kept, r)
	}

	return kept
}
