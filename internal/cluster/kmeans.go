package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// KMeans runs Lloyd's algorithm with k-means++ seeding over the given
// points. The RNG is supplied by the caller so runs are reproducible from
// the configured seed. Converges when an iteration moves no points, or
// after maxIters iterations. Empty clusters are tolerated: their centroid
// stays where it was rather than being reseeded.
func KMeans(points [][]float64, k, maxIters int, rng *rand.Rand) (Partition, error) {
	n := len(points)
	if n == 0 {
		return Partition{}, fmt.Errorf("kmeans: no points")
	}
	if k < 1 {
		return Partition{}, fmt.Errorf("kmeans: k must be at least 1, got %d", k)
	}
	if k > n {
		monitoring.Logf("kmeans: k=%d exceeds point count %d, clamping", k, n)
		k = n
	}

	p := Partition{
		K:           k,
		Assignments: make([]int, n),
		Centroids:   seedPlusPlus(points, k, rng),
	}

	for iter := 0; iter < maxIters; iter++ {
		moved := 0
		for i, pt := range points {
			best := nearestCentroid(pt, p.Centroids, -1)
			if p.Assignments[i] != best {
				p.Assignments[i] = best
				moved++
			}
		}
		for c := 0; c < k; c++ {
			p.recomputeCentroid(points, c)
		}
		if moved == 0 {
			monitoring.Logf("kmeans: converged after %d iterations", iter+1)
			break
		}
	}
	return p, nil
}

// seedPlusPlus picks k initial centroids with the k-means++ weighting:
// the first uniformly, each subsequent one with probability proportional
// to squared distance from the nearest centroid chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)

	first := points[rng.Intn(n)]
	centroids = append(centroids, append([]float64(nil), first...))

	d2 := make([]float64, n)
	for len(centroids) < k {
		var sum float64
		for i, pt := range points {
			best := math.Inf(1)
			for _, c := range centroids {
				d := floats.Distance(pt, c, 2)
				if dd := d * d; dd < best {
					best = dd
				}
			}
			d2[i] = best
			sum += best
		}

		// All remaining points coincide with existing centroids; fall
		// back to uniform choice so seeding still terminates.
		var next []float64
		if sum == 0 {
			next = points[rng.Intn(n)]
		} else {
			target := rng.Float64() * sum
			idx := n - 1
			var acc float64
			for i, w := range d2 {
				acc += w
				if acc >= target {
					idx = i
					break
				}
			}
			next = points[idx]
		}
		centroids = append(centroids, append([]float64(nil), next...))
	}
	return centroids
}

// nearestCentroid returns the index of the centroid closest to pt,
// skipping the centroid at index exclude (pass -1 to consider all).
// Ties keep the lowest index, which makes assignment deterministic.
func nearestCentroid(pt []float64, centroids [][]float64, exclude int) int {
	best := -1
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if c == exclude {
			continue
		}
		if d := floats.Distance(pt, centroid, 2); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
