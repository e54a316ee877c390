// Package report renders the pipeline's human-facing outputs: cluster
// summary CSVs, go-echarts HTML dashboards and gonum/plot PNG scatters.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// ClusterSummary aggregates one cluster for the per-run summary report.
type ClusterSummary struct {
	ClusterID     int
	Size          int
	TotalRevenue  float64
	MeanRevenue   float64 // per member store
	TopCategories []string
}

// Summarize builds per-cluster aggregates from clustered stores and the
// period's sales. Clusters are returned in ascending ID order; empty
// clusters do not appear. Top categories are the three largest by
// revenue.
func Summarize(stores []merch.Store, sales []merch.SalesRecord) []ClusterSummary {
	clusterOf := make(map[string]int, len(stores))
	sizes := make(map[int]int)
	for _, s := range stores {
		clusterOf[s.Code] = s.ClusterID
		sizes[s.ClusterID]++
	}

	revenue := make(map[int]float64)
	catRevenue := make(map[int]map[string]float64)
	for _, rec := range sales {
		c, ok := clusterOf[rec.StoreCode]
		if !ok {
			continue
		}
		cat := merch.CategoryOf(rec.SPUCode)
		if cat == "" {
			continue
		}
		revenue[c] += rec.Revenue
		m := catRevenue[c]
		if m == nil {
			m = make(map[string]float64)
			catRevenue[c] = m
		}
		m[cat] += rec.Revenue
	}

	ids := make([]int, 0, len(sizes))
	for c := range sizes {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	var out []ClusterSummary
	for _, c := range ids {
		s := ClusterSummary{
			ClusterID:    c,
			Size:         sizes[c],
			TotalRevenue: revenue[c],
		}
		if s.Size > 0 {
			s.MeanRevenue = s.TotalRevenue / float64(s.Size)
		}

		type catRev struct {
			cat string
			rev float64
		}
		cats := make([]catRev, 0, len(catRevenue[c]))
		for cat, rev := range catRevenue[c] {
			cats = append(cats, catRev{cat, rev})
		}
		sort.Slice(cats, func(i, j int) bool {
			if cats[i].rev != cats[j].rev {
				return cats[i].rev > cats[j].rev
			}
			return cats[i].cat < cats[j].cat
		})
		for i := 0; i < len(cats) && i < 3; i++ {
			s.TopCategories = append(s.TopCategories, merch.CategoryName(cats[i].cat))
		}
		out = append(out, s)
	}
	return out
}

// WriteSummaryCSV writes the cluster summary table.
func WriteSummaryCSV(path string, summaries []ClusterSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"cluster_id", "size", "total_revenue", "mean_revenue", "top_categories"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range summaries {
		rec := []string{
			strconv.Itoa(s.ClusterID),
			strconv.Itoa(s.Size),
			strconv.FormatFloat(s.TotalRevenue, 'f', 2, 64),
			strconv.FormatFloat(s.MeanRevenue, 'f', 2, 64),
			strings.Join(s.TopCategories, "|"),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write summary for cluster %d: %w", s.ClusterID, err)
		}
	}
	w.Flush()
	return w.Error()
}
