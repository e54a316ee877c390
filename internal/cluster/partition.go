// Package cluster implements store clustering for the merchandising
// pipeline: k-means over (optionally PCA-reduced) feature vectors, a
// size-bound balancing pass over the resulting partition, and silhouette
// scoring for quality tracking.
package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Partition is a hard assignment of n points to k clusters. Assignments[i]
// is the cluster index of point i; Centroids[c] is the mean of the points
// currently assigned to cluster c (zero vector for empty clusters).
type Partition struct {
	K           int
	Assignments []int
	Centroids   [][]float64
}

// Clone returns a deep copy of the partition.
func (p Partition) Clone() Partition {
	out := Partition{
		K:           p.K,
		Assignments: make([]int, len(p.Assignments)),
		Centroids:   make([][]float64, len(p.Centroids)),
	}
	copy(out.Assignments, p.Assignments)
	for c, centroid := range p.Centroids {
		out.Centroids[c] = make([]float64, len(centroid))
		copy(out.Centroids[c], centroid)
	}
	return out
}

// Sizes returns the per-cluster point counts.
func (p Partition) Sizes() []int {
	sizes := make([]int, p.K)
	for _, c := range p.Assignments {
		sizes[c]++
	}
	return sizes
}

// Validate checks internal consistency: every assignment must name a
// cluster in [0,K) and centroid count must match K.
func (p Partition) Validate() error {
	if len(p.Centroids) != p.K {
		return fmt.Errorf("partition has %d centroids for k=%d", len(p.Centroids), p.K)
	}
	for i, c := range p.Assignments {
		if c < 0 || c >= p.K {
			return fmt.Errorf("point %d assigned to out-of-range cluster %d (k=%d)", i, c, p.K)
		}
	}
	return nil
}

// WithinSS returns the total within-cluster sum of squared distances to
// centroids, the quantity k-means minimises.
func (p Partition) WithinSS(points [][]float64) float64 {
	var total float64
	for i, c := range p.Assignments {
		d := floats.Distance(points[i], p.Centroids[c], 2)
		total += d * d
	}
	return total
}

// recomputeCentroid recalculates the centroid of a single cluster from
// scratch. Empty clusters get a zero centroid.
func (p *Partition) recomputeCentroid(points [][]float64, c int) {
	if len(points) == 0 {
		return
	}
	dim := len(points[0])
	centroid := make([]float64, dim)
	count := 0
	for i, a := range p.Assignments {
		if a != c {
			continue
		}
		floats.Add(centroid, points[i])
		count++
	}
	if count > 0 {
		floats.Scale(1/float64(count), centroid)
	}
	p.Centroids[c] = centroid
}
