package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// viridis-ish palette reused across charts so clusters keep a stable color.
var clusterPalette = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

func clusterColor(id int) string {
	if id < 0 {
		return "#9e9e9e"
	}
	return clusterPalette[id%len(clusterPalette)]
}

// RenderClusterScatter renders the 2-D PCA projection as an HTML scatter,
// one series per cluster so the legend doubles as a cluster toggle.
// proj must have at least two columns per row; assignments and storeCodes
// are parallel to proj.
func RenderClusterScatter(w io.Writer, title string, proj [][]float64, assignments []int, storeCodes []string) error {
	if len(proj) != len(assignments) {
		return fmt.Errorf("projection rows (%d) and assignments (%d) mismatch", len(proj), len(assignments))
	}

	series := make(map[int][]opts.ScatterData)
	maxAbs := 0.0
	for i, row := range proj {
		if len(row) < 2 {
			return fmt.Errorf("projection row %d has %d components, need 2", i, len(row))
		}
		x, y := row[0], row[1]
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		name := ""
		if i < len(storeCodes) {
			name = storeCodes[i]
		}
		series[assignments[i]] = append(series[assignments[i]], opts.ScatterData{Name: name, Value: []interface{}{x, y}})
	}

	// Small padding so edge points stay visible.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("stores=%d clusters=%d", len(proj), len(series))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "PC1", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "PC2", NameLocation: "middle", NameGap: 30}),
	)

	ids := make([]int, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		scatter.AddSeries(fmt.Sprintf("cluster %d", id), series[id],
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: clusterColor(id)}),
		)
	}

	return scatter.Render(w)
}

// RenderClusterSizes renders a bar chart of member counts per cluster.
func RenderClusterSizes(w io.Writer, title string, summaries []ClusterSummary) error {
	x := make([]string, 0, len(summaries))
	y := make([]opts.BarData, 0, len(summaries))
	for _, s := range summaries {
		x = append(x, fmt.Sprintf("cluster %d", s.ClusterID))
		y = append(y, opts.BarData{Value: s.Size, ItemStyle: &opts.ItemStyle{Color: clusterColor(s.ClusterID)}})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("stores", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	return bar.Render(w)
}

// RenderRuleCounts renders a bar chart of recommendation counts per rule.
func RenderRuleCounts(w io.Writer, title string, recs []merch.Recommendation) error {
	counts := make(map[string]int)
	for _, r := range recs {
		counts[r.Rule]++
	}
	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	x := make([]string, 0, len(rules))
	y := make([]opts.BarData, 0, len(rules))
	for _, rule := range rules {
		x = append(x, rule)
		y = append(y, opts.BarData{Value: counts[rule]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("recommendations=%d", len(recs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("recommendations", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	return bar.Render(w)
}

// Dashboard bundles the inputs for the single-page run dashboard.
type Dashboard struct {
	Period      string
	Projection  [][]float64
	Assignments []int
	StoreCodes  []string
	Summaries   []ClusterSummary
	Recs        []merch.Recommendation
}

// RenderDashboard renders every chart onto one page.
func (d *Dashboard) Render(w io.Writer) error {
	scatter, err := d.scatterChart()
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Merch Run %s", d.Period)
	page.AddCharts(scatter, d.sizesChart(), d.rulesChart())
	return page.Render(w)
}

func (d *Dashboard) scatterChart() (*charts.Scatter, error) {
	series := make(map[int][]opts.ScatterData)
	maxAbs := 0.0
	for i, row := range d.Projection {
		if len(row) < 2 {
			return nil, fmt.Errorf("projection row %d has %d components, need 2", i, len(row))
		}
		x, y := row[0], row[1]
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		name := ""
		if i < len(d.StoreCodes) {
			name = d.StoreCodes[i]
		}
		series[d.Assignments[i]] = append(series[d.Assignments[i]], opts.ScatterData{Name: name, Value: []interface{}{x, y}})
	}
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Store Clusters %s", d.Period)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "PC1", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "PC2", NameLocation: "middle", NameGap: 30}),
	)
	ids := make([]int, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		scatter.AddSeries(fmt.Sprintf("cluster %d", id), series[id],
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: clusterColor(id)}),
		)
	}
	return scatter, nil
}

func (d *Dashboard) sizesChart() *charts.Bar {
	x := make([]string, 0, len(d.Summaries))
	y := make([]opts.BarData, 0, len(d.Summaries))
	for _, s := range d.Summaries {
		x = append(x, fmt.Sprintf("cluster %d", s.ClusterID))
		y = append(y, opts.BarData{Value: s.Size, ItemStyle: &opts.ItemStyle{Color: clusterColor(s.ClusterID)}})
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cluster Sizes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("stores", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

func (d *Dashboard) rulesChart() *charts.Bar {
	counts := make(map[string]int)
	for _, r := range d.Recs {
		counts[r.Rule]++
	}
	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	x := make([]string, 0, len(rules))
	y := make([]opts.BarData, 0, len(rules))
	for _, rule := range rules {
		x = append(x, rule)
		y = append(y, opts.BarData{Value: counts[rule]})
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Recommendations by Rule"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("recommendations", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

// WriteDashboardHTML renders the dashboard page to a file.
func (d *Dashboard) WriteDashboardHTML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := d.Render(f); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
