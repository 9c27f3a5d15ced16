// Package domain contains the core data model shared across the pipeline:
// reviews, analysis jobs, complaint clusters, and the job result contract.
package domain

import (
	"fmt"
	"time"
)

// Platform identifies the source a review was collected from.
type Platform string

// Supported review platforms.
const (
	PlatformGooglePlay    Platform = "google_play"
	PlatformAppStore      Platform = "app_store"
	PlatformG2            Platform = "g2"
	PlatformCapterra      Platform = "capterra"
	PlatformTrustRadius   Platform = "trustradius"
	PlatformProductHunt   Platform = "product_hunt"
	PlatformGoogleReviews Platform = "google_reviews"
	PlatformYelp          Platform = "yelp"
	PlatformTripAdvisor   Platform = "tripadvisor"
)

// Review is a single user review as stored for a target. Reviews are
// immutable once stored; identity is the collector-assigned ID.
type Review struct {
	ID         string
	AppID      string
	WebsiteURL string
	Platform   Platform
	Rating     *int
	Text       string
	Author     string
	Locale     string
	ReviewDate time.Time
	CreatedAt  time.Time
}

// RawReview is the collector-side review shape before it is attached to a
// target and persisted.
type RawReview struct {
	ID       string
	Text     string
	Rating   *int
	Date     time.Time
	Author   string
	Locale   string
	Platform Platform
}

// Target describes what an analysis job analyzes: an app on a platform, or a
// website aggregated across review sites.
type Target struct {
	AppID      string
	Platform   Platform
	WebsiteURL string
}

// IsWebsite reports whether the target is a website rather than an app.
func (t Target) IsWebsite() bool {
	return t.WebsiteURL != ""
}

func (t Target) String() string {
	if t.IsWebsite() {
		return t.WebsiteURL
	}

	return fmt.Sprintf("%s/%s", t.Platform, t.AppID)
}

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

// Job lifecycle states. A retryable failure re-queues the job as PENDING
// until attempts are exhausted; COMPLETED and FAILED are otherwise terminal.
const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// AnalysisJob is one end-to-end run of the complaint-analysis pipeline.
// Only the orchestrator and the maintenance sweep mutate it.
type AnalysisJob struct {
	ID              string
	Target          Target
	Status          JobStatus
	Progress        float64
	StatusMessage   string
	TotalReviews    int
	NegativeReviews int
	Attempt         int
	RunAt           time.Time
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// JobCompletion carries everything written atomically when a job reaches
// COMPLETED.
type JobCompletion struct {
	Message         string
	TotalReviews    int
	NegativeReviews int
	Insights        Insights
	CompletedAt     time.Time
}

// ComplaintCluster is a named group of negative reviews about the same issue.
// Rows are written once per completed job and never mutated afterwards.
type ComplaintCluster struct {
	Name          string
	Description   string
	ReviewCount   int
	Percentage    float64
	RecencyScore  float64
	SampleReviews []string
	Keywords      []string
	Centroid      []float32
}

// IssueSummary is the compact cluster view embedded in insights.
type IssueSummary struct {
	Name         string  `json:"name"`
	Percentage   float64 `json:"percentage"`
	RecencyScore float64 `json:"recency_score"`
	ReviewCount  int     `json:"review_count"`
}

// TrendAnalysis summarizes how complaint volume is shifting over time.
type TrendAnalysis struct {
	RecentActivity   float64  `json:"recent_activity"`
	TrendDirection   string   `json:"trend_direction"`
	MostRecentIssues []string `json:"most_recent_issues"`
}

// Insights aggregates coverage, trend, and recommendation output for a job.
//
// CoveragePercentage can be below 100 on a successful run: reviews the
// density step labels as noise belong to no cluster and are excluded from
// the clustered count.
type Insights struct {
	TotalReviews       int            `json:"total_reviews"`
	ClusteredReviews   int            `json:"clustered_reviews"`
	CoveragePercentage float64        `json:"coverage_percentage"`
	TopIssues          []IssueSummary `json:"top_issues"`
	Trend              TrendAnalysis  `json:"trend_analysis"`
	Recommendations    []string       `json:"recommendations"`
}

// Summary holds the review totals for a completed job.
type Summary struct {
	TotalReviews       int     `json:"total_reviews"`
	NegativeReviews    int     `json:"negative_reviews"`
	NegativePercentage float64 `json:"negative_percentage"`
}

// AnalysisResult is the externally exposed result of a completed job:
// clusters in rank order plus the review totals and insights.
type AnalysisResult struct {
	Clusters []ComplaintCluster `json:"clusters"`
	Summary  Summary            `json:"summary"`
	Insights Insights           `json:"insights"`
}
