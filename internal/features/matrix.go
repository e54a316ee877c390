// Package features builds the store feature matrix that clustering runs
// on: per-store category sales-mix shares, optionally augmented with
// city-level weather aggregates, standardised per column.
package features

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fastfish-data/merch.report/internal/merch"
	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// Weather holds the per-city temperature aggregates for one period, as
// exported by the upstream weather feed.
type Weather struct {
	MeanTempC float64 `json:"mean_temp_c"`
	MinTempC  float64 `json:"min_temp_c"`
}

// Matrix is the clustering input: one row per store, one column per
// feature. Row i describes StoreCodes[i].
type Matrix struct {
	StoreCodes []string
	Columns    []string
	Rows       [][]float64
}

// BuildStats reports what the builder skipped. Skips are best-effort
// warnings, not failures: a handful of bad sales rows must not sink a
// batch run.
type BuildStats struct {
	SkippedSales   int      // rows with unparseable SPUs or unknown stores
	DroppedStores  []string // stores with no usable sales
	MissingWeather []string // cities absent from the weather feed
}

// Build assembles the feature matrix from the store master and a sales
// extract. Category shares are revenue fractions and sum to 1 per row.
// When weather is non-nil, mean and min temperature columns for the
// store's city are appended; stores in cities missing from the feed get
// zeros and are reported. Stores with no usable sales are dropped from
// the matrix (clustering them is meaningless), also reported.
func Build(stores []merch.Store, sales []merch.SalesRecord, weather map[string]Weather) (*Matrix, *BuildStats, error) {
	if len(stores) == 0 {
		return nil, nil, fmt.Errorf("features: no stores")
	}

	byCode := make(map[string]*merch.Store, len(stores))
	for i := range stores {
		byCode[stores[i].Code] = &stores[i]
	}

	stats := &BuildStats{}

	// revenue[store][category]
	revenue := make(map[string]map[string]float64)
	catSet := make(map[string]bool)
	for _, rec := range sales {
		if _, ok := byCode[rec.StoreCode]; !ok {
			stats.SkippedSales++
			continue
		}
		cat := merch.CategoryOf(rec.SPUCode)
		if cat == "" || rec.Revenue <= 0 {
			stats.SkippedSales++
			continue
		}
		catSet[cat] = true
		m := revenue[rec.StoreCode]
		if m == nil {
			m = make(map[string]float64)
			revenue[rec.StoreCode] = m
		}
		m[cat] += rec.Revenue
	}
	if len(catSet) == 0 {
		return nil, nil, fmt.Errorf("features: no usable sales rows (%d skipped)", stats.SkippedSales)
	}

	categories := make([]string, 0, len(catSet))
	for c := range catSet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	columns := make([]string, 0, len(categories)+2)
	for _, c := range categories {
		columns = append(columns, "share_"+c)
	}
	if weather != nil {
		columns = append(columns, "mean_temp_c", "min_temp_c")
	}

	m := &Matrix{Columns: columns}
	missingCity := make(map[string]bool)
	for _, s := range stores {
		rev := revenue[s.Code]
		if len(rev) == 0 {
			stats.DroppedStores = append(stats.DroppedStores, s.Code)
			continue
		}
		var total float64
		for _, v := range rev {
			total += v
		}

		row := make([]float64, 0, len(columns))
		for _, c := range categories {
			row = append(row, rev[c]/total)
		}
		if weather != nil {
			w, ok := weather[s.City]
			if !ok && !missingCity[s.City] {
				missingCity[s.City] = true
				stats.MissingWeather = append(stats.MissingWeather, s.City)
			}
			row = append(row, w.MeanTempC, w.MinTempC)
		}

		m.StoreCodes = append(m.StoreCodes, s.Code)
		m.Rows = append(m.Rows, row)
	}

	if len(m.Rows) == 0 {
		return nil, nil, fmt.Errorf("features: every store was dropped (no sales)")
	}

	if stats.SkippedSales > 0 || len(stats.DroppedStores) > 0 || len(stats.MissingWeather) > 0 {
		monitoring.Logf("features: skipped %d sales rows, dropped %d stores, %d cities missing weather",
			stats.SkippedSales, len(stats.DroppedStores), len(stats.MissingWeather))
	}
	return m, stats, nil
}

// Standardize z-scores each column in place so distance is not dominated
// by large-magnitude features (temperatures vs shares). Constant columns
// are left as zero deviations.
func (m *Matrix) Standardize() {
	if len(m.Rows) == 0 {
		return
	}
	col := make([]float64, len(m.Rows))
	for j := range m.Columns {
		for i, row := range m.Rows {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		for i := range m.Rows {
			if std > 0 {
				m.Rows[i][j] = (m.Rows[i][j] - mean) / std
			} else {
				m.Rows[i][j] = 0
			}
		}
	}
}
