package cluster

import (
	"gonum.org/v1/gonum/floats"
)

// Silhouette returns the mean silhouette coefficient of the partition,
// in [-1, 1]; higher means tighter, better-separated clusters. Points in
// singleton clusters contribute 0, matching the usual convention.
// Returns 0 when fewer than 2 clusters are populated, since separation is
// undefined there.
func Silhouette(points [][]float64, assignments []int, k int) float64 {
	n := len(points)
	if n == 0 || k < 2 {
		return 0
	}

	sizes := make([]int, k)
	for _, c := range assignments {
		sizes[c]++
	}
	populated := 0
	for _, s := range sizes {
		if s > 0 {
			populated++
		}
	}
	if populated < 2 {
		return 0
	}

	var total float64
	// meanDist[c] accumulates the mean distance from point i to cluster c.
	meanDist := make([]float64, k)
	for i := range points {
		own := assignments[i]
		if sizes[own] <= 1 {
			continue // singleton contributes 0
		}

		for c := range meanDist {
			meanDist[c] = 0
		}
		for j := range points {
			if j == i {
				continue
			}
			meanDist[assignments[j]] += floats.Distance(points[i], points[j], 2)
		}

		// a: mean intra-cluster distance (excluding self).
		a := meanDist[own] / float64(sizes[own]-1)

		// b: smallest mean distance to another populated cluster.
		b := -1.0
		for c, s := range sizes {
			if c == own || s == 0 {
				continue
			}
			if d := meanDist[c] / float64(s); b < 0 || d < b {
				b = d
			}
		}
		if b < 0 {
			continue
		}

		den := a
		if b > den {
			den = b
		}
		if den > 0 {
			total += (b - a) / den
		}
	}

	return total / float64(n)
}
