package cluster

import (
	"testing"
)

func TestSilhouette_WellSeparated(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}
	assignments := []int{0, 0, 0, 1, 1, 1}

	s := Silhouette(points, assignments, 2)
	if s < 0.9 {
		t.Errorf("well-separated clusters scored %f, want > 0.9", s)
	}
}

func TestSilhouette_BadPartitionScoresLow(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0}, {10, 10}, {10.1, 10},
	}
	good := Silhouette(points, []int{0, 0, 1, 1}, 2)
	// Split each natural blob across both clusters.
	bad := Silhouette(points, []int{0, 1, 0, 1}, 2)
	if bad >= good {
		t.Errorf("mixed partition scored %f, >= clean partition %f", bad, good)
	}
}

func TestSilhouette_DegenerateCases(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 1}, {2, 2}}

	if s := Silhouette(nil, nil, 2); s != 0 {
		t.Errorf("empty input scored %f, want 0", s)
	}
	if s := Silhouette(points, []int{0, 0, 0}, 1); s != 0 {
		t.Errorf("single cluster scored %f, want 0", s)
	}
	// Two clusters declared, only one populated.
	if s := Silhouette(points, []int{0, 0, 0}, 2); s != 0 {
		t.Errorf("single populated cluster scored %f, want 0", s)
	}
}

func TestSilhouette_BoundedRange(t *testing.T) {
	points := twoBlobs(t, 10)
	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = i % 3
	}
	s := Silhouette(points, assignments, 3)
	if s < -1 || s > 1 {
		t.Errorf("silhouette %f outside [-1, 1]", s)
	}
}
