package rules

import (
	"fmt"
	"sort"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// Overcapacity flags stores selling more distinct SPUs than they have
// slots for, and recommends removing the lowest-revenue SPUs down to
// capacity.
type Overcapacity struct{}

func (Overcapacity) Name() string { return "overcapacity" }

func (Overcapacity) Apply(s *Snapshot, p Params) []merch.Recommendation {
	var out []merch.Recommendation

	codes := make([]string, 0, len(s.Stores))
	for code := range s.Stores {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		st := s.Stores[code]
		count := s.SPUCount(code)
		if st.Capacity <= 0 || count <= st.Capacity {
			continue
		}
		excess := count - st.Capacity

		type spuRev struct {
			spu string
			rev float64
		}
		ranked := make([]spuRev, 0, count)
		for spu, rev := range s.Revenue[code] {
			ranked = append(ranked, spuRev{spu, rev})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].rev != ranked[j].rev {
				return ranked[i].rev < ranked[j].rev
			}
			return ranked[i].spu < ranked[j].spu
		})

		var total float64
		for _, r := range ranked {
			total += r.rev
		}

		for i := 0; i < excess && i < len(ranked); i++ {
			// Lowest revenue is the most urgent removal.
			score := 1.0
			if total > 0 {
				score = 1 - ranked[i].rev/total
			}
			out = append(out, merch.Recommendation{
				StoreCode: code,
				SPUCode:   ranked[i].spu,
				Action:    merch.ActionRemove,
				Rule:      "overcapacity",
				Reason: fmt.Sprintf("store carries %d SPUs against capacity %d; this SPU ranks lowest by revenue",
					count, st.Capacity),
				Score: score,
			})
		}
	}
	return out
}
