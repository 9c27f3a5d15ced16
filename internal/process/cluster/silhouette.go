package cluster

import (
	"math"
	"sort"
)

// silhouetteScore computes the mean silhouette coefficient over all points
// with a non-noise label. It reports ok=false when fewer than two distinct
// clusters exist, which both cascade steps treat as an invalid assignment.
func silhouetteScore(points [][]float64, labels []int) (float64, bool) {
	members := make(map[int][]int)

	for i, l := range labels {
		if l != Noise {
			members[l] = append(members[l], i)
		}
	}

	if len(members) < 2 {
		return 0, false
	}

	order := make([]int, 0, len(members))
	for label := range members {
		order = append(order, label)
	}

	sort.Ints(order)

	var (
		total float64
		count int
	)

	for _, label := range order {
		own := members[label]
		for _, i := range own {
			s := silhouetteOf(points, i, label, own, members)
			total += s
			count++
		}
	}

	if count == 0 {
		return 0, false
	}

	return total / float64(count), true
}

func silhouetteOf(points [][]float64, i, label int, own []int, members map[int][]int) float64 {
	// Singleton clusters contribute zero.
	if len(own) < 2 {
		return 0
	}

	var intra float64

	for _, j := range own {
		if j != i {
			intra += euclidean(points[i], points[j])
		}
	}

	a := intra / float64(len(own)-1)

	b := math.Inf(1)

	for other, idxs := range members {
		if other == label {
			continue
		}

		var sum float64
		for _, j := range idxs {
			sum += euclidean(points[i], points[j])
		}

		if mean := sum / float64(len(idxs)); mean < b {
			b = mean
		}
	}

	maxAB := math.Max(a, b)
	if maxAB == 0 {
		return 0
	}

	return (b - a) / maxAB
}
