package summarize

import (
	"sort"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

const (
	frequencyWeight = 0.7
	recencyWeight   = 0.3
)

// Importance is the combined frequency and recency sort key. It is never
// written back onto the cluster; the displayed percentage stays the raw
// frequency share.
func Importance(c domain.ComplaintCluster) float64 {
	return c.Percentage*frequencyWeight + c.RecencyScore*recencyWeight
}

// Rank sorts clusters by descending importance. The sort is stable, so ties
// keep their insertion order.
func Rank(clusters []domain.ComplaintCluster) []domain.ComplaintCluster {
	ranked := append([]domain.ComplaintCluster(nil), clusters...)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Importance(ranked[i]) > Importance(ranked[j])
	})

	return ranked
}
