package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

func TestRankByImportance(t *testing.T) {
	clusters := []domain.ComplaintCluster{
		{Name: "Low", Percentage: 10, RecencyScore: 10},
		{Name: "High", Percentage: 60, RecencyScore: 80},
		{Name: "Mid", Percentage: 30, RecencyScore: 40},
	}

	ranked := Rank(clusters)

	require.Len(t, ranked, 3)
	assert.Equal(t, "High", ranked[0].Name)
	assert.Equal(t, "Mid", ranked[1].Name)
	assert.Equal(t, "Low", ranked[2].Name)
}

func TestRankRecencyBreaksFrequencyTie(t *testing.T) {
	clusters := []domain.ComplaintCluster{
		{Name: "Stale", Percentage: 50, RecencyScore: 10},
		{Name: "Fresh", Percentage: 50, RecencyScore: 90},
	}

	ranked := Rank(clusters)

	assert.Equal(t, "Fresh", ranked[0].Name)
	assert.Equal(t, "Stale", ranked[1].Name)
}

func TestRankStableOnExactTies(t *testing.T) {
	clusters := []domain.ComplaintCluster{
		{Name: "First", Percentage: 40, RecencyScore: 40},
		{Name: "Second", Percentage: 40, RecencyScore: 40},
		{Name: "Third", Percentage: 40, RecencyScore: 40},
	}

	ranked := Rank(clusters)

	assert.Equal(t, "First", ranked[0].Name)
	assert.Equal(t, "Second", ranked[1].Name)
	assert.Equal(t, "Third", ranked[2].Name)
}

func TestRankDoesNotMutatePercentage(t *testing.T) {
	clusters := []domain.ComplaintCluster{
		{Name: "A", Percentage: 25.5, RecencyScore: 80},
		{Name: "B", Percentage: 74.5, RecencyScore: 5},
	}

	ranked := Rank(clusters)

	for _, c := range ranked {
		switch c.Name {
		case "A":
			assert.InDelta(t, 25.5, c.Percentage, 1e-9)
		case "B":
			assert.InDelta(t, 74.5, c.Percentage, 1e-9)
		}
	}

	// The input slice keeps its order.
	assert.Equal(t, "A", clusters[0].Name)
	assert.Equal(t, "B", clusters[1].Name)
}

func TestImportance(t *testing.T) {
	c := domain.ComplaintCluster{Percentage: 50, RecencyScore: 100}
	assert.InDelta(t, 65.0, Importance(c), 1e-9)
}
