// Package filters selects the complaint subset of a review corpus.
package filters

import (
	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

const (
	negativeRatingMax  = 2
	sentimentThreshold = -0.1
)

// Negative returns the reviews that represent complaints: rating of 2 or
// below, or, when no rating exists, lexical sentiment below the threshold.
// Input order is preserved.
func Negative(reviews []domain.Review) []domain.Review {
	kept := make([]domain.Review, 0, len(reviews))

	for _, r := range reviews {
		if IsNegative(r) {
			kept = append(kept, r)
		}
	}

	return kept
}

// IsNegative reports whether a single review counts as a complaint.
func IsNegative(r domain.Review) bool {
	if r.Rating != nil {
		return *r.Rating <= negativeRatingMax
	}

	return Polarity(r.Text) < sentimentThreshold
}
