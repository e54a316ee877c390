package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastfish-data/merch.report/internal/merch"
)

func testStores() []merch.Store {
	return []merch.Store{
		{Code: "S001", ClusterID: 0},
		{Code: "S002", ClusterID: 0},
		{Code: "S003", ClusterID: 1},
	}
}

func testSales() []merch.SalesRecord {
	return []merch.SalesRecord{
		{StoreCode: "S001", SPUCode: "M25S-TS-0001", Period: "202508A", Units: 10, Revenue: 1000},
		{StoreCode: "S001", SPUCode: "M25S-JK-0002", Period: "202508A", Units: 2, Revenue: 400},
		{StoreCode: "S002", SPUCode: "M25S-TS-0001", Period: "202508A", Units: 5, Revenue: 600},
		{StoreCode: "S003", SPUCode: "W25S-DR-0003", Period: "202508A", Units: 3, Revenue: 900},
		// Unknown store and bad code are both ignored.
		{StoreCode: "S999", SPUCode: "M25S-TS-0001", Period: "202508A", Units: 1, Revenue: 50},
		{StoreCode: "S001", SPUCode: "garbage", Period: "202508A", Units: 1, Revenue: 50},
	}
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(testStores(), testSales())
	require.Len(t, summaries, 2)

	c0 := summaries[0]
	assert.Equal(t, 0, c0.ClusterID)
	assert.Equal(t, 2, c0.Size)
	assert.InDelta(t, 2000.0, c0.TotalRevenue, 1e-9)
	assert.InDelta(t, 1000.0, c0.MeanRevenue, 1e-9)
	require.NotEmpty(t, c0.TopCategories)
	assert.Equal(t, "t-shirts", c0.TopCategories[0])

	c1 := summaries[1]
	assert.Equal(t, 1, c1.ClusterID)
	assert.Equal(t, 1, c1.Size)
	assert.InDelta(t, 900.0, c1.TotalRevenue, 1e-9)
	assert.Equal(t, []string{"dresses"}, c1.TopCategories)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil, nil))
}

func TestWriteSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	summaries := Summarize(testStores(), testSales())
	require.NoError(t, WriteSummaryCSV(path, summaries))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"cluster_id", "size", "total_revenue", "mean_revenue", "top_categories"}, rows[0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Contains(t, rows[1][4], "t-shirts")
}

func TestRenderClusterScatter(t *testing.T) {
	proj := [][]float64{{-1, 0}, {-0.9, 0.1}, {2, 1}}
	assignments := []int{0, 0, 1}
	codes := []string{"S001", "S002", "S003"}

	var buf bytes.Buffer
	require.NoError(t, RenderClusterScatter(&buf, "Store Clusters", proj, assignments, codes))

	html := buf.String()
	assert.Contains(t, html, "cluster 0")
	assert.Contains(t, html, "cluster 1")
	assert.Contains(t, html, "S001")
	assert.Contains(t, strings.ToLower(html), "<html")
}

func TestRenderClusterScatter_Mismatch(t *testing.T) {
	var buf bytes.Buffer
	err := RenderClusterScatter(&buf, "t", [][]float64{{0, 0}}, []int{0, 1}, nil)
	assert.Error(t, err)
}

func TestRenderClusterSizes(t *testing.T) {
	var buf bytes.Buffer
	summaries := Summarize(testStores(), testSales())
	require.NoError(t, RenderClusterSizes(&buf, "Cluster Sizes", summaries))
	assert.Contains(t, buf.String(), "Cluster Sizes")
}

func TestRenderRuleCounts(t *testing.T) {
	recs := []merch.Recommendation{
		{StoreCode: "S001", SPUCode: "M25S-TS-0001", Action: merch.ActionAdd, Rule: "missing_category"},
		{StoreCode: "S002", SPUCode: "M25S-JK-0002", Action: merch.ActionRemove, Rule: "overcapacity"},
		{StoreCode: "S003", SPUCode: "W25S-DR-0003", Action: merch.ActionAdd, Rule: "missing_category"},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderRuleCounts(&buf, "Recommendations by Rule", recs))
	html := buf.String()
	assert.Contains(t, html, "missing_category")
	assert.Contains(t, html, "overcapacity")
}

func TestDashboardRender(t *testing.T) {
	d := &Dashboard{
		Period:      "202508A",
		Projection:  [][]float64{{-1, 0}, {-0.9, 0.1}, {2, 1}},
		Assignments: []int{0, 0, 1},
		StoreCodes:  []string{"S001", "S002", "S003"},
		Summaries:   Summarize(testStores(), testSales()),
		Recs: []merch.Recommendation{
			{StoreCode: "S001", SPUCode: "M25S-TS-0001", Action: merch.ActionAdd, Rule: "missing_category"},
		},
	}

	path := filepath.Join(t.TempDir(), "dashboard.html")
	require.NoError(t, d.WriteDashboardHTML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Merch Run 202508A")
	assert.Contains(t, html, "Cluster Sizes")
	assert.Contains(t, html, "Recommendations by Rule")
}

func TestSaveScatterPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusters.png")
	proj := [][]float64{{-1, 0}, {-0.9, 0.1}, {2, 1}, {2.1, 0.9}}
	assignments := []int{0, 0, 1, 1}
	require.NoError(t, SaveScatterPNG(path, "Store Clusters", proj, assignments))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
