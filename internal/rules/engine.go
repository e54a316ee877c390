package rules

import (
	"sort"

	"github.com/fastfish-data/merch.report/internal/merch"
	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// Rule produces recommendations from a snapshot. Implementations must be
// pure: same snapshot and params, same output.
type Rule interface {
	Name() string
	Apply(s *Snapshot, p Params) []merch.Recommendation
}

// Engine runs a fixed set of rules and merges their output.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine with the standard rule set.
func NewEngine() *Engine {
	return &Engine{rules: []Rule{
		MissingCategory{},
		Overcapacity{},
		PerformanceGap{},
	}}
}

// NewEngineWith returns an engine running exactly the given rules.
func NewEngineWith(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Run applies every rule, dedupes on (store, SPU, action) keeping the
// higher-scored entry, and returns recommendations sorted by score
// descending (ties by store then SPU code for stable output files).
func (e *Engine) Run(s *Snapshot, p Params) []merch.Recommendation {
	type key struct {
		store, spu string
		action     merch.Action
	}
	seen := make(map[key]merch.Recommendation)
	for _, r := range e.rules {
		recs := r.Apply(s, p)
		monitoring.Logf("rules: %s produced %d recommendations", r.Name(), len(recs))
		for _, rec := range recs {
			k := key{rec.StoreCode, rec.SPUCode, rec.Action}
			if prev, ok := seen[k]; !ok || rec.Score > prev.Score {
				seen[k] = rec
			}
		}
	}

	out := make([]merch.Recommendation, 0, len(seen))
	for _, rec := range seen {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].StoreCode != out[j].StoreCode {
			return out[i].StoreCode < out[j].StoreCode
		}
		return out[i].SPUCode < out[j].SPUCode
	})
	return out
}
