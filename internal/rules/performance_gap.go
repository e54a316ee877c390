package rules

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// PerformanceGap flags SPUs that sell broadly across a cluster but
// underperform the cluster median at a particular store by the configured
// factor. Those are swap candidates: the slot works for peers, the
// product does not work here.
type PerformanceGap struct{}

func (PerformanceGap) Name() string { return "performance-gap" }

func (PerformanceGap) Apply(s *Snapshot, p Params) []merch.Recommendation {
	var out []merch.Recommendation

	for clusterID, members := range s.ClusterStores {
		if clusterID < 0 || len(members) < 3 {
			// Median over fewer than 3 carriers is too noisy to act on.
			continue
		}

		// Which stores carry each SPU, and at what revenue.
		carriers := make(map[string]map[string]float64) // spu -> store -> revenue
		for _, code := range members {
			for spu, rev := range s.Revenue[code] {
				m := carriers[spu]
				if m == nil {
					m = make(map[string]float64)
					carriers[spu] = m
				}
				m[code] = rev
			}
		}

		spus := make([]string, 0, len(carriers))
		for spu := range carriers {
			spus = append(spus, spu)
		}
		sort.Strings(spus)

		for _, spu := range spus {
			byStore := carriers[spu]
			frac := float64(len(byStore)) / float64(len(members))
			if frac < p.PeerCoverageThreshold || len(byStore) < 3 {
				continue
			}

			revs := make([]float64, 0, len(byStore))
			for _, rev := range byStore {
				revs = append(revs, rev)
			}
			sort.Float64s(revs)
			median := stat.Quantile(0.5, stat.Empirical, revs, nil)
			if median <= 0 {
				continue
			}

			for store, rev := range byStore {
				if rev >= p.PerformanceGapFactor*median {
					continue
				}
				out = append(out, merch.Recommendation{
					StoreCode: store,
					SPUCode:   spu,
					Action:    merch.ActionSwap,
					Rule:      "performance-gap",
					Reason: fmt.Sprintf("revenue %.0f is below %.0f%% of the cluster %d median %.0f",
						rev, p.PerformanceGapFactor*100, clusterID, median),
					Score: 1 - rev/median,
				})
			}
		}
	}
	return out
}
