// Package summarize turns labeled review groups into named complaint
// clusters and derives insights over them.
package summarize

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	"github.com/reviewpulse/reviewpulse/internal/process/cluster"
	"github.com/reviewpulse/reviewpulse/internal/process/tfidf"
)

const (
	minClusterMembers = 2
	maxKeywords       = 5
	maxSamples        = 3

	recentWindow     = 90 * 24 * time.Hour
	veryRecentWindow = 30 * 24 * time.Hour
	recentWeight     = 0.7
	veryRecentWeight = 0.3
)

var titleCaser = cases.Title(language.English)

type Summarizer struct {
	logger *zerolog.Logger
	now    func() time.Time
}

func NewSummarizer(logger *zerolog.Logger) *Summarizer {
	return &Summarizer{logger: logger, now: time.Now}
}

// NewSummarizerAt pins the clock, for deterministic recency in tests.
func NewSummarizerAt(logger *zerolog.Logger, now func() time.Time) *Summarizer {
	return &Summarizer{logger: logger, now: now}
}

// Build creates one complaint cluster per label with at least two members.
// vectors may be nil; when present, each cluster carries the centroid of its
// members. negativeTotal is the denominator for the percentage share.
// Output order is ascending by label, ranking happens separately.
func (s *Summarizer) Build(reviews []domain.Review, vectors [][]float32, labels []int, negativeTotal int) []domain.ComplaintCluster {
	members := make(map[int][]int)

	for i, l := range labels {
		if l != cluster.Noise {
			members[l] = append(members[l], i)
		}
	}

	order := make([]int, 0, len(members))

	for l, idxs := range members {
		if len(idxs) >= minClusterMembers {
			order = append(order, l)
		}
	}

	sort.Ints(order)

	clusters := make([]domain.ComplaintCluster, 0, len(order))

	for _, l := range order {
		idxs := members[l]

		texts := make([]string, len(idxs))
		dates := make([]time.Time, len(idxs))

		for i, idx := range idxs {
			texts[i] = reviews[idx].Text
			dates[i] = reviews[idx].ReviewDate
		}

		keywords := s.keywords(texts)
		name, description := nameCluster(keywords)

		c := domain.ComplaintCluster{
			Name:          name,
			Description:   description,
			ReviewCount:   len(idxs),
			Percentage:    percentage(len(idxs), negativeTotal),
			RecencyScore:  s.recencyScore(dates),
			SampleReviews: sampleReviews(texts),
			Keywords:      keywords,
			Centroid:      centroid(vectors, idxs),
		}

		clusters = append(clusters, c)
	}

	return clusters
}

// keywords extracts the top terms of a cluster by mean TF-IDF weight.
func (s *Summarizer) keywords(texts []string) []string {
	v := tfidf.NewVectorizer(tfidf.Options{
		MaxFeatures:    2 * maxKeywords,
		NgramMin:       1,
		NgramMax:       2,
		MaxDF:          0.9,
		RemoveStopword: true,
	})

	rows, err := v.FitTransform(texts)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug().Err(err).Msg("Vectorizer found no terms, falling back to word frequency")
		}

		return frequencyKeywords(texts)
	}

	features := v.FeatureNames()
	means := make([]float64, len(features))

	for _, row := range rows {
		for j, w := range row {
			means[j] += w
		}
	}

	for j := range means {
		means[j] /= float64(len(rows))
	}

	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool { return means[idx[a]] > means[idx[b]] })

	keywords := make([]string, 0, maxKeywords)

	for _, j := range idx {
		if means[j] <= 0 {
			break
		}

		keywords = append(keywords, features[j])
		if len(keywords) == maxKeywords {
			break
		}
	}

	return keywords
}

// frequencyKeywords is the keyword fallback for corpora the vectorizer
// rejects, such as a cluster of identical texts. Plain word counts, words
// longer than three letters only.
func frequencyKeywords(texts []string) []string {
	counts := make(map[string]int)

	for _, text := range texts {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			if len(w) <= 3 || !alphabetic(w) {
				continue
			}

			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}

	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}

		return words[i] < words[j]
	})

	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}

	return words
}

func alphabetic(w string) bool {
	for _, r := range w {
		if r < 'a' || r > 'z' {
			return false
		}
	}

	return true
}

// nameCluster matches the top keywords against the category table, falling
// back to a name synthesized from the leading keywords.
func nameCluster(keywords []string) (string, string) {
	if len(keywords) == 0 {
		return "General Issues", "Miscellaneous user complaints and issues"
	}

	top := keywords
	if len(top) > 3 {
		top = top[:3]
	}

	for _, cat := range categories {
		for _, kw := range top {
			if strings.Contains(strings.ToLower(kw), cat.pattern) {
				return cat.name, cat.description
			}
		}
	}

	var name string
	if len(keywords) >= 2 {
		name = fmt.Sprintf("%s and %s Issues", titleCaser.String(keywords[0]), titleCaser.String(keywords[1]))
	} else {
		name = fmt.Sprintf("%s Issues", titleCaser.String(keywords[0]))
	}

	description := fmt.Sprintf("User complaints primarily about %s", strings.ToLower(strings.Join(top, ", ")))

	return name, description
}

// recencyScore weights reviews from the last 90 days, with extra weight on
// the last 30, as a 0-100 share of the cluster.
func (s *Summarizer) recencyScore(dates []time.Time) float64 {
	if len(dates) == 0 {
		return 0
	}

	now := s.now()

	var recent, veryRecent int

	for _, d := range dates {
		if now.Sub(d) <= recentWindow {
			recent++

			if now.Sub(d) <= veryRecentWindow {
				veryRecent++
			}
		}
	}

	score := (float64(recent)*recentWeight + float64(veryRecent)*veryRecentWeight) / float64(len(dates)) * 100

	return math.Min(100, round2(score))
}

// sampleReviews picks up to three texts spanning short, median, and long
// lengths.
func sampleReviews(texts []string) []string {
	if len(texts) <= maxSamples {
		return append([]string(nil), texts...)
	}

	byLen := append([]string(nil), texts...)
	sort.SliceStable(byLen, func(i, j int) bool { return len(byLen[i]) < len(byLen[j]) })

	return []string{byLen[0], byLen[len(byLen)/2], byLen[len(byLen)-1]}
}

func centroid(vectors [][]float32, idxs []int) []float32 {
	if len(vectors) == 0 || len(idxs) == 0 {
		return nil
	}

	dim := len(vectors[idxs[0]])
	c := make([]float32, dim)

	for _, idx := range idxs {
		for j, x := range vectors[idx] {
			c[j] += x
		}
	}

	for j := range c {
		c[j] /= float32(len(idxs))
	}

	return c
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}

	return round2(float64(count) / float64(total) * 100)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
