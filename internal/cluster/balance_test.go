package cluster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lopsidedPartition builds a partition with all points piled into cluster
// 0 so the balancer has real work to do.
func lopsidedPartition(points [][]float64, k int) Partition {
	p := Partition{
		K:           k,
		Assignments: make([]int, len(points)),
		Centroids:   make([][]float64, k),
	}
	for c := 0; c < k; c++ {
		p.Centroids[c] = make([]float64, len(points[0]))
		p.recomputeCentroid(points, c)
	}
	return p
}

func TestBalance_ConservesStores(t *testing.T) {
	points := twoBlobs(t, 25)
	initial, err := KMeans(points, 4, 100, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	res := Balance(points, initial, BalanceConfig{MinSize: 8, MaxSize: 20, MaxIters: 200})

	// Every point still assigned, to an in-range cluster.
	require.Len(t, res.Partition.Assignments, len(points))
	require.NoError(t, res.Partition.Validate())

	total := 0
	for _, s := range res.Partition.Sizes() {
		total += s
	}
	assert.Equal(t, len(points), total, "store count must be conserved")
}

func TestBalance_EnforcesBounds(t *testing.T) {
	points := twoBlobs(t, 30)
	cfg := BalanceConfig{MinSize: 10, MaxSize: 25, MaxIters: 500}

	res := Balance(points, lopsidedPartition(points, 3), cfg)

	require.True(t, res.Converged, "feasible bounds should converge, got %d violations", res.Violations)
	assert.Zero(t, res.Violations)
	for c, s := range res.Partition.Sizes() {
		if s == 0 {
			continue // empty clusters are tolerated
		}
		assert.GreaterOrEqual(t, s, cfg.MinSize, "cluster %d under min", c)
		assert.LessOrEqual(t, s, cfg.MaxSize, "cluster %d over max", c)
	}
}

func TestBalance_TerminatesWithinCap(t *testing.T) {
	points := twoBlobs(t, 30)
	cfg := BalanceConfig{MinSize: 10, MaxSize: 25, MaxIters: 7}

	res := Balance(points, lopsidedPartition(points, 3), cfg)

	assert.LessOrEqual(t, res.Iterations, cfg.MaxIters)
	assert.LessOrEqual(t, res.Moves, cfg.MaxIters)
	// Still a full, valid partition even when cut short.
	require.NoError(t, res.Partition.Validate())
	require.Len(t, res.Partition.Assignments, len(points))
}

func TestBalance_InfeasibleBoundsDegradeGracefully(t *testing.T) {
	// 10 points into 3 clusters with min size 5 cannot work. The balancer
	// must return a usable partition and report violations, not error.
	rng := rand.New(rand.NewSource(9))
	points := blob(rng, []float64{0, 0}, 1.0, 10)
	initial, err := KMeans(points, 3, 50, rng)
	require.NoError(t, err)

	res := Balance(points, initial, BalanceConfig{MinSize: 5, MaxSize: 6, MaxIters: 100})

	assert.False(t, res.Converged)
	assert.Positive(t, res.Violations)
	require.Len(t, res.Partition.Assignments, len(points))
	require.NoError(t, res.Partition.Validate())
}

func TestBalance_AlreadyBalancedIsNoop(t *testing.T) {
	points := twoBlobs(t, 20)
	initial, err := KMeans(points, 2, 100, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	res := Balance(points, initial, BalanceConfig{MinSize: 1, MaxSize: 40, MaxIters: 100})

	assert.True(t, res.Converged)
	assert.Zero(t, res.Moves)
	assert.Equal(t, initial.Assignments, res.Partition.Assignments)
}

func TestBalance_ToleratesEmptyClusters(t *testing.T) {
	points := twoBlobs(t, 10)
	// 4 clusters but all points in clusters 0 and 1; clusters 2 and 3 empty.
	p := Partition{K: 4, Assignments: make([]int, len(points)), Centroids: make([][]float64, 4)}
	for i := range points {
		if i >= 10 {
			p.Assignments[i] = 1
		}
	}
	for c := 0; c < 4; c++ {
		p.Centroids[c] = make([]float64, 2)
		p.recomputeCentroid(points, c)
	}

	res := Balance(points, p, BalanceConfig{MinSize: 2, MaxSize: 10, MaxIters: 100})

	require.True(t, res.Converged)
	// Min bound applies only to non-empty clusters, so the empty ones may
	// stay empty.
	for c, s := range res.Partition.Sizes() {
		if s != 0 && s < 2 {
			t.Errorf("non-empty cluster %d has size %d below min", c, s)
		}
	}
}

func TestBalance_SilhouetteTracked(t *testing.T) {
	points := twoBlobs(t, 25)
	initial, err := KMeans(points, 2, 100, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	// Tight max forces moves out of the natural clusters; quality should
	// be measured before and after.
	res := Balance(points, initial, BalanceConfig{MinSize: 1, MaxSize: 25, MaxIters: 200})

	assert.InDelta(t, Silhouette(points, initial.Assignments, initial.K), res.SilhouetteBefore, 1e-12)
	assert.InDelta(t, Silhouette(points, res.Partition.Assignments, res.Partition.K), res.SilhouetteAfter, 1e-12)
}

func TestBalance_DoesNotMutateInput(t *testing.T) {
	points := twoBlobs(t, 15)
	initial, err := KMeans(points, 3, 50, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	before := append([]int(nil), initial.Assignments...)
	Balance(points, initial, BalanceConfig{MinSize: 5, MaxSize: 15, MaxIters: 100})
	assert.Equal(t, before, initial.Assignments, "input partition must not be mutated")
}
