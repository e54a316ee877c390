package dataio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fastfish-data/merch.report/internal/merch"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadStores(t *testing.T) {
	path := writeFile(t, "stores.csv", `store_code,store_name,city,grade,capacity
S001,Fast Fish Westlake,Hangzhou,A,120
S002,Fast Fish Central,Harbin,B,80
`)

	stores, err := LoadStores(path)
	if err != nil {
		t.Fatalf("LoadStores failed: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("loaded %d stores, want 2", len(stores))
	}
	if stores[0].Code != "S001" || stores[0].Capacity != 120 || stores[0].City != "Hangzhou" {
		t.Errorf("first store parsed wrong: %+v", stores[0])
	}
	if stores[0].ClusterID != -1 {
		t.Errorf("fresh store should be unassigned, got cluster %d", stores[0].ClusterID)
	}
}

func TestLoadStores_SkipsMalformedRows(t *testing.T) {
	path := writeFile(t, "stores.csv", `store_code,store_name,city,grade,capacity
S001,Good Store,Hangzhou,A,120
,No Code,Hangzhou,A,50
S003,Bad Capacity,Harbin,B,lots
S004,Short Row
S005,Fine,Ningbo,C,60
`)

	stores, err := LoadStores(path)
	if err != nil {
		t.Fatalf("LoadStores failed: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("loaded %d stores, want 2 (bad rows skipped, not fatal)", len(stores))
	}
	if stores[1].Code != "S005" {
		t.Errorf("second good store = %q, want S005", stores[1].Code)
	}
}

func TestLoadStores_ColumnOrderIndependent(t *testing.T) {
	path := writeFile(t, "stores.csv", `capacity,city,store_code,grade,store_name
90,Shanghai,S009,A,Reordered
`)
	stores, err := LoadStores(path)
	if err != nil {
		t.Fatalf("LoadStores failed: %v", err)
	}
	if stores[0].Code != "S009" || stores[0].Capacity != 90 {
		t.Errorf("reordered columns parsed wrong: %+v", stores[0])
	}
}

func TestLoadStores_MissingColumn(t *testing.T) {
	path := writeFile(t, "stores.csv", "store_code,store_name\nS001,X\n")
	_, err := LoadStores(path)
	if err == nil || !strings.Contains(err.Error(), "capacity") {
		t.Errorf("expected missing-column error naming capacity, got %v", err)
	}
}

func TestLoadSales(t *testing.T) {
	path := writeFile(t, "sales.csv", `store_code,spu_code,period,units,revenue
S001,M25S-TS-0142,202508A,12,1440.50
S001,bad row,202508A,x,y
S002,W25S-DR-0009,202508A,3,897.00
`)

	sales, err := LoadSales(path)
	if err != nil {
		t.Fatalf("LoadSales failed: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("loaded %d sales rows, want 2", len(sales))
	}
	if sales[0].Revenue != 1440.50 || sales[0].Units != 12 {
		t.Errorf("first sale parsed wrong: %+v", sales[0])
	}
}

func TestWriteAssignmentsRoundTrip(t *testing.T) {
	stores := []merch.Store{
		{Code: "S001", Name: "A", City: "Hangzhou", ClusterID: 2},
		{Code: "S002", Name: "B", City: "Harbin", ClusterID: 0},
	}
	path := filepath.Join(t.TempDir(), "assignments.csv")
	if err := WriteAssignments(path, stores); err != nil {
		t.Fatalf("WriteAssignments failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want header + 2", len(lines))
	}
	if lines[0] != "store_code,store_name,city,cluster_id" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "S001,A,Hangzhou,2" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteRecommendations(t *testing.T) {
	recs := []merch.Recommendation{
		{StoreCode: "S001", SPUCode: "M25S-TS-0142", Action: merch.ActionAdd, Rule: "missing-category", Score: 0.92, Reason: "peers carry t-shirts"},
	}
	path := filepath.Join(t.TempDir(), "recs.csv")
	if err := WriteRecommendations(path, recs); err != nil {
		t.Fatalf("WriteRecommendations failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "missing-category") || !strings.Contains(string(data), "0.9200") {
		t.Errorf("unexpected output:\n%s", data)
	}
}

func TestLoadWeather(t *testing.T) {
	path := writeFile(t, "weather.json", `{"Hangzhou": {"mean_temp_c": 28.5, "min_temp_c": 22.0}}`)
	w, err := LoadWeather(path)
	if err != nil {
		t.Fatalf("LoadWeather failed: %v", err)
	}
	if w["Hangzhou"].MeanTempC != 28.5 {
		t.Errorf("weather parsed wrong: %+v", w)
	}

	if _, err := LoadWeather(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := writeFile(t, "bad.json", "{")
	if _, err := LoadWeather(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
