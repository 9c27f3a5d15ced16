package cluster

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"
)

const (
	kmeansSeed       = 42
	kmeansInits      = 10
	kmeansMaxIters   = 100
	kmeansTolerance  = 1e-6
	kmeansDefaultK   = 5
	kmeansSearchBase = 2
)

// kmeansSearch fits a seeded k-means partitioner for every candidate k and
// keeps the assignment with the best valid silhouette score. When no
// candidate yields a valid score the default k applies.
func kmeansSearch(points [][]float64, maxClusters int, logger *zerolog.Logger) []int {
	n := len(points)

	maxK := maxClusters
	if n-1 < maxK {
		maxK = n - 1
	}

	if maxK < kmeansSearchBase {
		return make([]int, n)
	}

	rng := rand.New(rand.NewSource(kmeansSeed)) //nolint:gosec // deterministic clustering, not cryptography

	var (
		bestLabels []int
		bestScore  = math.Inf(-1)
		found      bool
	)

	defaultK := kmeansDefaultK
	if maxK < defaultK {
		defaultK = maxK
	}

	var defaultLabels []int

	for k := kmeansSearchBase; k <= maxK; k++ {
		labels := kmeansFit(points, k, rng)

		if k == defaultK {
			defaultLabels = labels
		}

		score, ok := silhouetteScore(points, labels)
		if !ok {
			continue
		}

		if score > bestScore {
			bestScore = score
			bestLabels = labels
			found = true
		}
	}

	if !found {
		if logger != nil {
			logger.Debug().Int("k", defaultK).Msg("No valid silhouette in k search, using default k")
		}

		return defaultLabels
	}

	return bestLabels
}

// kmeansFit runs multiple k-means++ initializations and returns the labels
// of the lowest-inertia run.
func kmeansFit(points [][]float64, k int, rng *rand.Rand) []int {
	var (
		bestLabels  []int
		bestInertia = math.Inf(1)
	)

	for init := 0; init < kmeansInits; init++ {
		labels, inertia := kmeansOnce(points, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}

	return bestLabels
}

func kmeansOnce(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))

	var inertia float64

	for iter := 0; iter < kmeansMaxIters; iter++ {
		inertia = 0

		for i, p := range points {
			best, bestDist := 0, math.Inf(1)

			for c, centroid := range centroids {
				if d := squaredDistance(p, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}

			labels[i] = best
			inertia += bestDist
		}

		moved := recomputeCentroids(points, labels, centroids)
		if moved < kmeansTolerance {
			break
		}
	}

	return labels, inertia
}

// seedCentroids picks initial centroids k-means++ style: the first uniform,
// each next proportional to squared distance from the nearest chosen one.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	dim := len(points[0])

	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), points[rng.Intn(n)]...))

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = math.Inf(1)
	}

	for len(centroids) < k {
		last := centroids[len(centroids)-1]

		var total float64

		for i, p := range points {
			if d := squaredDistance(p, last); d < minDist[i] {
				minDist[i] = d
			}

			total += minDist[i]
		}

		next := 0

		if total > 0 {
			target := rng.Float64() * total

			for i, d := range minDist {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		} else {
			next = rng.Intn(n)
		}

		centroid := make([]float64, dim)
		copy(centroid, points[next])
		centroids = append(centroids, centroid)
	}

	return centroids
}

// recomputeCentroids moves each centroid to its members' mean and returns
// the largest squared shift. Empty clusters keep their previous position.
func recomputeCentroids(points [][]float64, labels []int, centroids [][]float64) float64 {
	k := len(centroids)
	dim := len(centroids[0])

	sums := make([][]float64, k)
	counts := make([]int, k)

	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, p := range points {
		c := labels[i]
		counts[c]++

		for j, x := range p {
			sums[c][j] += x
		}
	}

	var maxShift float64

	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}

		var shift float64

		for j := 0; j < dim; j++ {
			mean := sums[c][j] / float64(counts[c])
			d := mean - centroids[c][j]
			shift += d * d
			centroids[c][j] = mean
		}

		if shift > maxShift {
			maxShift = shift
		}
	}

	return maxShift
}

func squaredDistance(a, b []float64) float64 {
	var sum float64

	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}
