// Package cluster groups embedded reviews into complaint clusters using an
// adaptive cascade: density clustering first, validated by silhouette score,
// then a seeded k-means search, then a single-cluster fallback. The cascade
// never fails; every input gets a full label assignment.
package cluster

import (
	"github.com/rs/zerolog"
)

// Algorithm tags the method that produced an assignment.
type Algorithm string

const (
	AlgorithmDensity          Algorithm = "hdbscan"
	AlgorithmKMeans           Algorithm = "kmeans"
	AlgorithmInsufficientData Algorithm = "insufficient_data"
	AlgorithmFallback         Algorithm = "fallback"
)

// Noise marks points excluded from every cluster by the density step.
const Noise = -1

// Density assignments are only trusted above this silhouette score.
const silhouetteAcceptThreshold = 0.1

// Assignment maps each input vector to a cluster label. Labels are
// non-negative integers except Noise; label values carry no order.
type Assignment struct {
	Labels    []int
	Algorithm Algorithm
}

type Selector struct {
	minClusterSize int
	maxClusters    int
	logger         *zerolog.Logger
}

func NewSelector(minClusterSize, maxClusters int, logger *zerolog.Logger) *Selector {
	return &Selector{
		minClusterSize: minClusterSize,
		maxClusters:    maxClusters,
		logger:         logger,
	}
}

// Select runs the cascade over the embedding matrix. A panic anywhere in the
// numeric path degrades to a single all-points cluster instead of failing.
func (s *Selector) Select(vectors [][]float32) (assignment Assignment) {
	n := len(vectors)

	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Error().Interface("panic", r).Msg("Clustering panicked, using single-cluster fallback")
			}

			assignment = uniformAssignment(n, AlgorithmFallback)
		}
	}()

	if n < s.minClusterSize {
		return uniformAssignment(n, AlgorithmInsufficientData)
	}

	points := toFloat64(vectors)

	minSamples := s.minClusterSize / 2
	if minSamples < 1 {
		minSamples = 1
	}

	labels := densityCluster(points, s.minClusterSize, minSamples)

	k := distinctClusters(labels)
	if k >= 2 && k <= s.maxClusters {
		if score, ok := silhouetteScore(points, labels); ok && score > silhouetteAcceptThreshold {
			if s.logger != nil {
				s.logger.Debug().Int("clusters", k).Float64("silhouette", score).Msg("Density clustering accepted")
			}

			return Assignment{Labels: labels, Algorithm: AlgorithmDensity}
		}
	}

	labels = kmeansSearch(points, s.maxClusters, s.logger)

	return Assignment{Labels: labels, Algorithm: AlgorithmKMeans}
}

func uniformAssignment(n int, alg Algorithm) Assignment {
	return Assignment{Labels: make([]int, n), Algorithm: alg}
}

func distinctClusters(labels []int) int {
	seen := make(map[int]struct{})

	for _, l := range labels {
		if l != Noise {
			seen[l] = struct{}{}
		}
	}

	return len(seen)
}

func toFloat64(vectors [][]float32) [][]float64 {
	points := make([][]float64, len(vectors))

	for i, v := range vectors {
		p := make([]float64, len(v))
		for j, x := range v {
			p[j] = float64(x)
		}

		points[i] = p
	}

	return points
}
