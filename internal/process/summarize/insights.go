package summarize

import (
	"fmt"
	"time"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

const (
	topIssuesLimit      = 5
	trendIssuesLimit    = 3
	trendRecencyFloor   = 50
	increasingThreshold = 40
	decreasingThreshold = 20
	highPriorityShare   = 30
	urgentRecencyScore  = 70
	topThreeShareFloor  = 60
	monitorRecencyScore = 60
)

// BuildInsights aggregates coverage, trend, and recommendations from ranked
// clusters. reviews is the full negative set the clusters were built from.
func (s *Summarizer) BuildInsights(reviews []domain.Review, ranked []domain.ComplaintCluster) domain.Insights {
	total := len(reviews)
	if total == 0 {
		return domain.Insights{Recommendations: recommendations(ranked)}
	}

	clustered := 0
	for _, c := range ranked {
		clustered += c.ReviewCount
	}

	coverage := round2(float64(clustered) / float64(total) * 100)
	if coverage > 100 {
		coverage = 100
	}

	top := ranked
	if len(top) > topIssuesLimit {
		top = top[:topIssuesLimit]
	}

	issues := make([]domain.IssueSummary, 0, len(top))
	for _, c := range top {
		issues = append(issues, domain.IssueSummary{
			Name:         c.Name,
			Percentage:   c.Percentage,
			RecencyScore: c.RecencyScore,
			ReviewCount:  c.ReviewCount,
		})
	}

	return domain.Insights{
		TotalReviews:       total,
		ClusteredReviews:   clustered,
		CoveragePercentage: coverage,
		TopIssues:          issues,
		Trend:              s.trend(reviews, ranked),
		Recommendations:    recommendations(ranked),
	}
}

func (s *Summarizer) trend(reviews []domain.Review, ranked []domain.ComplaintCluster) domain.TrendAnalysis {
	now := s.now()

	recent := 0
	for _, r := range reviews {
		if now.Sub(r.ReviewDate) <= 30*24*time.Hour {
			recent++
		}
	}

	recentPct := round2(float64(recent) / float64(len(reviews)) * 100)

	direction := "stable"
	if recentPct > increasingThreshold {
		direction = "increasing"
	} else if recentPct < decreasingThreshold {
		direction = "decreasing"
	}

	head := ranked
	if len(head) > trendIssuesLimit {
		head = head[:trendIssuesLimit]
	}

	mostRecent := make([]string, 0, len(head))
	for _, c := range head {
		if c.RecencyScore > trendRecencyFloor {
			mostRecent = append(mostRecent, c.Name)
		}
	}

	return domain.TrendAnalysis{
		RecentActivity:   recentPct,
		TrendDirection:   direction,
		MostRecentIssues: mostRecent,
	}
}

// recommendations applies the ordered rule set over ranked clusters.
func recommendations(ranked []domain.ComplaintCluster) []string {
	if len(ranked) == 0 {
		return []string{"Insufficient data for recommendations. Collect more reviews for analysis."}
	}

	recs := make([]string, 0, 4)
	top := ranked[0]

	if top.Percentage > highPriorityShare {
		recs = append(recs, fmt.Sprintf("High priority: Address '%s' affecting %.1f%% of negative reviews", top.Name, top.Percentage))
	}

	if top.RecencyScore > urgentRecencyScore {
		recs = append(recs, fmt.Sprintf("Urgent: '%s' shows high recent activity - investigate immediately", top.Name))
	}

	if len(ranked) >= 3 {
		share := ranked[0].Percentage + ranked[1].Percentage + ranked[2].Percentage
		if share > topThreeShareFloor {
			recs = append(recs, fmt.Sprintf("Focus on top 3 issues which cover %.1f%% of complaints", share))
		}
	}

	activeCount := 0
	for _, c := range ranked {
		if c.RecencyScore > monitorRecencyScore {
			activeCount++
		}
	}

	if activeCount > 0 {
		recs = append(recs, fmt.Sprintf("Monitor recent trends: %d issue categories show increasing activity", activeCount))
	}

	if len(recs) == 0 {
		recs = append(recs, "Continue monitoring user feedback and address issues as they emerge")
	}

	return recs
}
