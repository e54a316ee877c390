package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// BalanceConfig bounds the balancing pass. MinSize/MaxSize constrain every
// non-empty cluster; MaxIters caps the number of single-point moves.
type BalanceConfig struct {
	MinSize  int
	MaxSize  int
	MaxIters int
}

// BalanceResult reports the outcome of a balancing pass. The partition is
// always usable: if the bounds could not be satisfied within MaxIters (or
// are infeasible outright) it is the best partition seen, with Violations
// counting how far it still misses the bounds.
type BalanceResult struct {
	Partition  Partition
	Moves      int
	Iterations int
	Converged  bool
	Violations int

	SilhouetteBefore float64
	SilhouetteAfter  float64
}

// Balance post-processes a k-means partition so that every non-empty
// cluster's size lies in [MinSize, MaxSize]. Each iteration makes one
// move:
//
//   - if some cluster exceeds MaxSize, the most oversized cluster gives up
//     the point farthest from its centroid, which goes to the nearest
//     cluster that still has room;
//   - otherwise, if some non-empty cluster is below MinSize, the most
//     undersized cluster pulls in the nearest point from a donor cluster
//     that can spare one without itself dropping below MinSize.
//
// The two affected centroids are recomputed after every move. Empty
// clusters are tolerated and never receive forced points. Balancing never
// errors: on an infeasible bound combination it degrades gracefully and
// returns the best partition found.
func Balance(points [][]float64, initial Partition, cfg BalanceConfig) BalanceResult {
	p := initial.Clone()

	res := BalanceResult{
		SilhouetteBefore: Silhouette(points, initial.Assignments, initial.K),
	}

	best := p.Clone()
	bestViolations := countViolations(best.Sizes(), cfg)
	bestSS := best.WithinSS(points)

	for iter := 0; iter < cfg.MaxIters; iter++ {
		sizes := p.Sizes()

		moved := false
		if over := mostOversized(sizes, cfg.MaxSize); over >= 0 {
			moved = shedFarthest(points, &p, over, sizes, cfg)
		} else if under := mostUndersized(sizes, cfg.MinSize); under >= 0 {
			moved = pullNearest(points, &p, under, sizes, cfg)
		} else {
			res.Converged = true
			res.Iterations = iter
			break
		}

		if !moved {
			// No legal move exists (e.g. every candidate target is full, or
			// every donor is already at MinSize). The bounds are infeasible
			// from this state; stop rather than spin.
			res.Iterations = iter
			break
		}
		res.Moves++
		res.Iterations = iter + 1

		if v, ss := countViolations(p.Sizes(), cfg), p.WithinSS(points); v < bestViolations || (v == bestViolations && ss < bestSS) {
			best = p.Clone()
			bestViolations = v
			bestSS = ss
		}
	}

	if !res.Converged {
		// Cap reached or stuck: hand back the best-effort partition.
		p = best
	}

	res.Partition = p
	res.Violations = countViolations(p.Sizes(), cfg)
	res.SilhouetteAfter = Silhouette(points, p.Assignments, p.K)

	monitoring.Logf(
		"balance: moves=%d iters=%d converged=%v violations=%d silhouette %.4f -> %.4f (drop %.4f)",
		res.Moves, res.Iterations, res.Converged, res.Violations,
		res.SilhouetteBefore, res.SilhouetteAfter, res.SilhouetteBefore-res.SilhouetteAfter,
	)
	return res
}

// countViolations sums how far non-empty clusters fall outside the bounds.
func countViolations(sizes []int, cfg BalanceConfig) int {
	total := 0
	for _, s := range sizes {
		if s == 0 {
			continue
		}
		if s > cfg.MaxSize {
			total += s - cfg.MaxSize
		} else if s < cfg.MinSize {
			total += cfg.MinSize - s
		}
	}
	return total
}

// mostOversized returns the cluster with the largest excess over maxSize,
// or -1 if none exceeds it.
func mostOversized(sizes []int, maxSize int) int {
	worst, worstExcess := -1, 0
	for c, s := range sizes {
		if excess := s - maxSize; excess > worstExcess {
			worst, worstExcess = c, excess
		}
	}
	return worst
}

// mostUndersized returns the non-empty cluster with the largest deficit
// under minSize, or -1 if none. Empty clusters are skipped: they are
// tolerated, not grown.
func mostUndersized(sizes []int, minSize int) int {
	worst, worstDeficit := -1, 0
	for c, s := range sizes {
		if s == 0 {
			continue
		}
		if deficit := minSize - s; deficit > worstDeficit {
			worst, worstDeficit = c, deficit
		}
	}
	return worst
}

// shedFarthest moves the point of cluster `over` farthest from its
// centroid to the nearest cluster that is under MaxSize. Returns false
// when every other cluster is full.
func shedFarthest(points [][]float64, p *Partition, over int, sizes []int, cfg BalanceConfig) bool {
	farthest := -1
	farthestDist := -1.0
	for i, a := range p.Assignments {
		if a != over {
			continue
		}
		if d := floats.Distance(points[i], p.Centroids[over], 2); d > farthestDist {
			farthestDist = d
			farthest = i
		}
	}
	if farthest < 0 {
		return false
	}

	target := -1
	targetDist := math.Inf(1)
	for c := range p.Centroids {
		if c == over || sizes[c] >= cfg.MaxSize {
			continue
		}
		if d := floats.Distance(points[farthest], p.Centroids[c], 2); d < targetDist {
			targetDist = d
			target = c
		}
	}
	if target < 0 {
		return false
	}

	p.Assignments[farthest] = target
	p.recomputeCentroid(points, over)
	p.recomputeCentroid(points, target)
	return true
}

// pullNearest moves into cluster `under` the point nearest its centroid
// from any donor cluster that stays at or above MinSize after giving one
// up. Returns false when no donor can spare a point.
func pullNearest(points [][]float64, p *Partition, under int, sizes []int, cfg BalanceConfig) bool {
	nearest := -1
	nearestDist := math.Inf(1)
	for i, a := range p.Assignments {
		if a == under {
			continue
		}
		if sizes[a]-1 < cfg.MinSize {
			continue
		}
		if d := floats.Distance(points[i], p.Centroids[under], 2); d < nearestDist {
			nearestDist = d
			nearest = i
		}
	}
	if nearest < 0 {
		return false
	}

	donor := p.Assignments[nearest]
	p.Assignments[nearest] = under
	p.recomputeCentroid(points, donor)
	p.recomputeCentroid(points, under)
	return true
}
