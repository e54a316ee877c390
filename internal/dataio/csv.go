// Package dataio loads the pipeline's CSV/JSON inputs and writes its CSV
// outputs. Loading is best-effort: malformed rows are counted and logged,
// never fatal, matching how the batch runners are operated.
package dataio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/fastfish-data/merch.report/internal/merch"
	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// LoadStores reads the store master CSV. Expected header:
//
//	store_code,store_name,city,grade,capacity
func LoadStores(path string) ([]merch.Store, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store master %s is empty", path)
	}

	idx, err := headerIndex(rows[0], "store_code", "store_name", "city", "grade", "capacity")
	if err != nil {
		return nil, fmt.Errorf("store master %s: %w", path, err)
	}

	var stores []merch.Store
	skipped := 0
	for _, row := range rows[1:] {
		capacity, err := strconv.Atoi(field(row, idx["capacity"]))
		if err != nil || field(row, idx["store_code"]) == "" {
			skipped++
			continue
		}
		stores = append(stores, merch.Store{
			Code:      field(row, idx["store_code"]),
			Name:      field(row, idx["store_name"]),
			City:      field(row, idx["city"]),
			Grade:     field(row, idx["grade"]),
			Capacity:  capacity,
			ClusterID: -1,
		})
	}
	if skipped > 0 {
		monitoring.Logf("dataio: skipped %d malformed store rows in %s", skipped, path)
	}
	return stores, nil
}

// LoadSales reads a sales extract CSV. Expected header:
//
//	store_code,spu_code,period,units,revenue
func LoadSales(path string) ([]merch.SalesRecord, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sales extract %s is empty", path)
	}

	idx, err := headerIndex(rows[0], "store_code", "spu_code", "period", "units", "revenue")
	if err != nil {
		return nil, fmt.Errorf("sales extract %s: %w", path, err)
	}

	var sales []merch.SalesRecord
	skipped := 0
	for _, row := range rows[1:] {
		units, uerr := strconv.Atoi(field(row, idx["units"]))
		revenue, rerr := strconv.ParseFloat(field(row, idx["revenue"]), 64)
		if uerr != nil || rerr != nil || field(row, idx["store_code"]) == "" || field(row, idx["spu_code"]) == "" {
			skipped++
			continue
		}
		sales = append(sales, merch.SalesRecord{
			StoreCode: field(row, idx["store_code"]),
			SPUCode:   field(row, idx["spu_code"]),
			Period:    field(row, idx["period"]),
			Units:     units,
			Revenue:   revenue,
		})
	}
	if skipped > 0 {
		monitoring.Logf("dataio: skipped %d malformed sales rows in %s", skipped, path)
	}
	return sales, nil
}

// WriteAssignments writes the balanced cluster assignment for each store.
func WriteAssignments(path string, stores []merch.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"store_code", "store_name", "city", "cluster_id"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range stores {
		rec := []string{s.Code, s.Name, s.City, strconv.Itoa(s.ClusterID)}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write assignment for %s: %w", s.Code, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteRecommendations writes rule output sorted as given.
func WriteRecommendations(path string, recs []merch.Recommendation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"store_code", "spu_code", "action", "rule", "score", "reason"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range recs {
		rec := []string{
			r.StoreCode, r.SPUCode, string(r.Action), r.Rule,
			strconv.FormatFloat(r.Score, 'f', 4, 64), r.Reason,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write recommendation for %s: %w", r.StoreCode, err)
		}
	}
	w.Flush()
	return w.Error()
}

// readCSV slurps a CSV file, tolerating ragged rows (they are skipped by
// the typed loaders when a needed column is missing).
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// headerIndex maps required column names to their positions, erroring on
// any missing column.
func headerIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for i, h := range header {
		idx[h] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return idx, nil
}

// field returns row[i], or "" when the row is too short. Short rows then
// fail the loaders' numeric parses and are counted as skipped.
func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
