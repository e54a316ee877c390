// Package merch defines the core domain model for the Fast Fish
// merchandising pipeline: stores, SPUs, sales records and allocation
// recommendations.
package merch

// Store is a retail location. ClusterID is mutable: it is assigned by the
// clustering step and may be reassigned during cluster balancing.
type Store struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Grade    string `json:"grade"`    // A/B/C store grade from the store master
	Capacity int    `json:"capacity"` // SPU slots the store can carry

	ClusterID int `json:"cluster_id"` // -1 until assigned
}

// SalesRecord is one store/SPU/period sales line from the sales extract.
type SalesRecord struct {
	StoreCode string  `json:"store_code"`
	SPUCode   string  `json:"spu_code"`
	Period    string  `json:"period"` // half-month label, e.g. "202508A"
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
}

// Action is the kind of change a recommendation proposes for a store.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionSwap   Action = "swap"
)

// Recommendation is one rule-generated allocation suggestion.
type Recommendation struct {
	StoreCode string  `json:"store_code"`
	SPUCode   string  `json:"spu_code"`
	Action    Action  `json:"action"`
	Rule      string  `json:"rule"`
	Reason    string  `json:"reason"`
	Score     float64 `json:"score"` // higher = more urgent
}
