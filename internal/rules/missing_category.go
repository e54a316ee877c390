package rules

import (
	"fmt"
	"sort"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// MissingCategory flags stores that lack a category their cluster peers
// carry broadly, and recommends adding the category's best-selling peer
// SPU. "Broadly" means peer coverage at or above the configured
// threshold.
type MissingCategory struct{}

func (MissingCategory) Name() string { return "missing-category" }

func (MissingCategory) Apply(s *Snapshot, p Params) []merch.Recommendation {
	var out []merch.Recommendation

	for clusterID, members := range s.ClusterStores {
		if clusterID < 0 || len(members) < 2 {
			continue
		}

		// Coverage and total revenue per category across the cluster.
		coverage := make(map[string]int)
		catRevenue := make(map[string]map[string]float64) // category -> spu -> revenue
		for _, code := range members {
			for cat := range s.Categories[code] {
				coverage[cat]++
			}
			for spu, rev := range s.Revenue[code] {
				cat := merch.CategoryOf(spu)
				m := catRevenue[cat]
				if m == nil {
					m = make(map[string]float64)
					catRevenue[cat] = m
				}
				m[spu] += rev
			}
		}

		for _, code := range members {
			adds := 0
			// Deterministic category order.
			cats := make([]string, 0, len(coverage))
			for cat := range coverage {
				cats = append(cats, cat)
			}
			sort.Strings(cats)

			for _, cat := range cats {
				if s.Categories[code][cat] {
					continue
				}
				// Coverage among peers, not including the store itself.
				frac := float64(coverage[cat]) / float64(len(members)-1)
				if frac < p.PeerCoverageThreshold {
					continue
				}
				if p.MaxAddsPerStore > 0 && adds >= p.MaxAddsPerStore {
					break
				}
				top := topSPU(catRevenue[cat])
				if top == "" {
					continue
				}
				out = append(out, merch.Recommendation{
					StoreCode: code,
					SPUCode:   top,
					Action:    merch.ActionAdd,
					Rule:      "missing-category",
					Reason: fmt.Sprintf("%.0f%% of cluster %d peers carry %s, this store does not",
						frac*100, clusterID, merch.CategoryName(cat)),
					Score: frac,
				})
				adds++
			}
		}
	}
	return out
}

// topSPU returns the highest-revenue SPU code in the map, ties broken by
// code so output is stable.
func topSPU(revenue map[string]float64) string {
	best := ""
	bestRev := -1.0
	for spu, rev := range revenue {
		if rev > bestRev || (rev == bestRev && spu < best) {
			best, bestRev = spu, rev
		}
	}
	return best
}
