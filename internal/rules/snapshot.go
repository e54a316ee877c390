// Package rules implements the business allocation rules that turn a
// balanced store clustering plus a sales extract into per-store SPU
// recommendations.
package rules

import (
	"sort"

	"github.com/fastfish-data/merch.report/internal/merch"
	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// Snapshot is the indexed view of one period's data that every rule reads
// from. Build it once per run; rules never mutate it.
type Snapshot struct {
	Stores map[string]merch.Store // by code, cluster assignments included

	// ClusterStores maps cluster id to the codes of its member stores.
	ClusterStores map[int][]string

	// Revenue maps store code -> SPU code -> revenue for the period.
	Revenue map[string]map[string]float64

	// Categories maps store code -> set of category tokens carried.
	Categories map[string]map[string]bool
}

// Params carries the rule thresholds from the pipeline config.
type Params struct {
	PeerCoverageThreshold float64 // fraction of cluster peers that makes a category/SPU "broad"
	PerformanceGapFactor  float64 // store revenue below factor*median flags a gap
	MaxAddsPerStore       int
}

// NewSnapshot indexes stores and sales for rule evaluation. Sales rows
// with unparseable SPU codes or unknown stores are skipped and counted,
// consistent with the feature builder.
func NewSnapshot(stores []merch.Store, sales []merch.SalesRecord) *Snapshot {
	s := &Snapshot{
		Stores:        make(map[string]merch.Store, len(stores)),
		ClusterStores: make(map[int][]string),
		Revenue:       make(map[string]map[string]float64),
		Categories:    make(map[string]map[string]bool),
	}
	for _, st := range stores {
		s.Stores[st.Code] = st
		s.ClusterStores[st.ClusterID] = append(s.ClusterStores[st.ClusterID], st.Code)
	}
	for c := range s.ClusterStores {
		sort.Strings(s.ClusterStores[c])
	}

	skipped := 0
	for _, rec := range sales {
		if _, ok := s.Stores[rec.StoreCode]; !ok {
			skipped++
			continue
		}
		cat := merch.CategoryOf(rec.SPUCode)
		if cat == "" {
			skipped++
			continue
		}
		rev := s.Revenue[rec.StoreCode]
		if rev == nil {
			rev = make(map[string]float64)
			s.Revenue[rec.StoreCode] = rev
		}
		rev[rec.SPUCode] += rec.Revenue

		cats := s.Categories[rec.StoreCode]
		if cats == nil {
			cats = make(map[string]bool)
			s.Categories[rec.StoreCode] = cats
		}
		cats[cat] = true
	}
	if skipped > 0 {
		monitoring.Logf("rules: skipped %d sales rows while building snapshot", skipped)
	}
	return s
}

// Peers returns the codes of the other stores in code's cluster.
func (s *Snapshot) Peers(code string) []string {
	st, ok := s.Stores[code]
	if !ok {
		return nil
	}
	members := s.ClusterStores[st.ClusterID]
	peers := make([]string, 0, len(members))
	for _, m := range members {
		if m != code {
			peers = append(peers, m)
		}
	}
	return peers
}

// SPUCount returns the number of distinct SPUs a store sold this period,
// the pipeline's proxy for slots in use.
func (s *Snapshot) SPUCount(code string) int {
	return len(s.Revenue[code])
}
