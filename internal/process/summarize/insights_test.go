package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

func reviewsAt(days ...int) []domain.Review {
	reviews := make([]domain.Review, len(days))
	for i, d := range days {
		reviews[i] = domain.Review{Text: "complaint", ReviewDate: daysAgo(d)}
	}

	return reviews
}

func TestBuildInsightsCoverage(t *testing.T) {
	s := NewSummarizerAt(nil, fixedNow)

	reviews := reviewsAt(10, 20, 100, 120)
	ranked := []domain.ComplaintCluster{
		{Name: "App Crashes", ReviewCount: 2, Percentage: 50, RecencyScore: 90},
	}

	insights := s.BuildInsights(reviews, ranked)

	assert.Equal(t, 4, insights.TotalReviews)
	assert.Equal(t, 2, insights.ClusteredReviews)
	assert.InDelta(t, 50.0, insights.CoveragePercentage, 1e-9)
	require.Len(t, insights.TopIssues, 1)
	assert.Equal(t, "App Crashes", insights.TopIssues[0].Name)
}

func TestBuildInsightsCoverageCapped(t *testing.T) {
	s := NewSummarizerAt(nil, fixedNow)

	reviews := reviewsAt(10)
	ranked := []domain.ComplaintCluster{
		{Name: "A", ReviewCount: 3, Percentage: 100, RecencyScore: 10},
	}

	insights := s.BuildInsights(reviews, ranked)
	assert.InDelta(t, 100.0, insights.CoveragePercentage, 1e-9)
}

func TestBuildInsightsTopIssuesLimit(t *testing.T) {
	s := NewSummarizerAt(nil, fixedNow)

	ranked := make([]domain.ComplaintCluster, 7)
	for i := range ranked {
		ranked[i] = domain.ComplaintCluster{Name: "c", ReviewCount: 2}
	}

	insights := s.BuildInsights(reviewsAt(10, 20, 30), ranked)
	assert.Len(t, insights.TopIssues, 5)
}

func TestTrendDirections(t *testing.T) {
	s := NewSummarizerAt(nil, fixedNow)

	tests := []struct {
		name string
		days []int
		want string
	}{
		{name: "increasing", days: []int{5, 10, 15, 200}, want: "increasing"},
		{name: "decreasing", days: []int{5, 200, 210, 220, 230, 240}, want: "decreasing"},
		{name: "stable", days: []int{5, 200, 210, 100}, want: "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights := s.BuildInsights(reviewsAt(tt.days...), []domain.ComplaintCluster{{Name: "A", ReviewCount: 2}})
			assert.Equal(t, tt.want, insights.Trend.TrendDirection)
		})
	}
}

func TestTrendMostRecentIssues(t *testing.T) {
	s := NewSummarizerAt(nil, fixedNow)

	ranked := []domain.ComplaintCluster{
		{Name: "Hot", ReviewCount: 2, RecencyScore: 80},
		{Name: "Cold", ReviewCount: 2, RecencyScore: 20},
		{Name: "Warm", ReviewCount: 2, RecencyScore: 60},
		{Name: "AlsoHot", ReviewCount: 2, RecencyScore: 90},
	}

	insights := s.BuildInsights(reviewsAt(10, 20), ranked)

	// Only the first three ranked clusters are considered.
	assert.Equal(t, []string{"Hot", "Warm"}, insights.Trend.MostRecentIssues)
}

func TestRecommendationRules(t *testing.T) {
	tests := []struct {
		name     string
		clusters []domain.ComplaintCluster
		contains string
	}{
		{
			name:     "high priority share",
			clusters: []domain.ComplaintCluster{{Name: "Crashes", Percentage: 45, RecencyScore: 10}},
			contains: "High priority",
		},
		{
			name:     "urgent recency",
			clusters: []domain.ComplaintCluster{{Name: "Crashes", Percentage: 10, RecencyScore: 85}},
			contains: "Urgent",
		},
		{
			name: "top three focus",
			clusters: []domain.ComplaintCluster{
				{Name: "A", Percentage: 25, RecencyScore: 10},
				{Name: "B", Percentage: 25, RecencyScore: 10},
				{Name: "C", Percentage: 25, RecencyScore: 10},
			},
			contains: "top 3 issues",
		},
		{
			name: "monitor recent trends",
			clusters: []domain.ComplaintCluster{
				{Name: "A", Percentage: 10, RecencyScore: 65},
				{Name: "B", Percentage: 10, RecencyScore: 70},
			},
			contains: "Monitor recent trends: 2",
		},
		{
			name:     "generic fallback",
			clusters: []domain.ComplaintCluster{{Name: "A", Percentage: 5, RecencyScore: 5}},
			contains: "Continue monitoring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := recommendations(tt.clusters)
			require.NotEmpty(t, recs)

			joined := ""
			for _, r := range recs {
				joined += r + "\n"
			}

			assert.Contains(t, joined, tt.contains)
		})
	}
}

func TestRecommendationsNoClusters(t *testing.T) {
	recs := recommendations(nil)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "Insufficient data")
}

func TestBuildInsightsNoReviews(t *testing.T) {
	s := NewSummarizerAt(nil, fixedNow)

	insights := s.BuildInsights(nil, nil)

	assert.Zero(t, insights.TotalReviews)
	assert.Zero(t, insights.CoveragePercentage)
	require.Len(t, insights.Recommendations, 1)
	assert.Contains(t, insights.Recommendations[0], "Insufficient data")
}
