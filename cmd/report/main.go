// Command report renders the batch artifacts for a persisted run: the
// per-cluster summary CSV, the HTML dashboard and a static PNG of the
// PCA projection.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/fastfish-data/merch.report/internal/cluster"
	"github.com/fastfish-data/merch.report/internal/config"
	"github.com/fastfish-data/merch.report/internal/dataio"
	"github.com/fastfish-data/merch.report/internal/db"
	"github.com/fastfish-data/merch.report/internal/features"
	"github.com/fastfish-data/merch.report/internal/merch"
	"github.com/fastfish-data/merch.report/internal/period"
	"github.com/fastfish-data/merch.report/internal/report"
)

var (
	configPath  = flag.String("config", "", "Pipeline config JSON (defaults apply when empty)")
	periodLabel = flag.String("period", "", "Half-month period label, e.g. 202508A (required)")
	dbPath      = flag.String("db", "merch.db", "Run database path")
	runID       = flag.String("run", "", "Cluster run ID (defaults to the period's latest run)")
	dataDir     = flag.String("data-dir", "", "Override the config's data directory")
	outputDir   = flag.String("output-dir", "", "Override the config's output directory")
)

func main() {
	flag.Parse()

	if *periodLabel == "" {
		log.Fatal("-period is required")
	}
	p, err := period.Parse(*periodLabel)
	if err != nil {
		log.Fatalf("invalid period: %v", err)
	}

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		cfg, err = config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	id := *runID
	if id == "" {
		runs, err := database.ListClusterRuns(p.String(), 1)
		if err != nil {
			log.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			log.Fatalf("no cluster run found for period %s; run cluster-stores first", p)
		}
		id = runs[0].ID
	}
	run, err := database.GetClusterRun(id)
	if err != nil {
		log.Fatalf("failed to load run: %v", err)
	}

	assignments, err := database.GetAssignments(run.ID)
	if err != nil {
		log.Fatalf("failed to load assignments: %v", err)
	}
	clusterOf := make(map[string]int, len(assignments))
	for _, a := range assignments {
		clusterOf[a.StoreCode] = a.ClusterID
	}

	recs, err := database.GetRecommendations(run.ID)
	if err != nil {
		log.Fatalf("failed to load recommendations: %v", err)
	}

	data := cfg.GetDataDir()
	if *dataDir != "" {
		data = *dataDir
	}
	out := cfg.GetOutputDir()
	if *outputDir != "" {
		out = *outputDir
	}

	stores, err := dataio.LoadStores(dataio.StoresPath(data))
	if err != nil {
		log.Fatalf("failed to load stores: %v", err)
	}
	sales, err := dataio.LoadSales(dataio.SalesPath(data, p))
	if err != nil {
		log.Fatalf("failed to load sales: %v", err)
	}

	// Stores without an assignment in this run are left out of the
	// report: the store master may have gained stores since the run.
	var assigned []merch.Store
	for _, s := range stores {
		if c, ok := clusterOf[s.Code]; ok {
			s.ClusterID = c
			assigned = append(assigned, s)
		}
	}

	// Rebuild the projection the same way cluster-stores did so the
	// scatter reflects the run's feature space. The run's seed only
	// affects k-means, not PCA, so the projection is reproducible.
	var weather map[string]features.Weather
	if cfg.GetUseWeatherFeatures() {
		weather, err = dataio.LoadWeather(dataio.WeatherPath(data, p))
		if err != nil {
			log.Fatalf("failed to load weather: %v", err)
		}
	}
	matrix, _, err := features.Build(assigned, sales, weather)
	if err != nil {
		log.Fatalf("failed to build feature matrix: %v", err)
	}
	matrix.Standardize()
	proj, _, err := cluster.PCA(matrix.Rows, 2)
	if err != nil {
		log.Fatalf("PCA failed: %v", err)
	}

	scatterAssign := make([]int, len(matrix.StoreCodes))
	for i, code := range matrix.StoreCodes {
		scatterAssign[i] = clusterOf[code]
	}

	runDir := filepath.Join(out, p.String())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	summaries := report.Summarize(assigned, sales)
	summaryPath := filepath.Join(runDir, "summary_"+p.String()+".csv")
	if err := report.WriteSummaryCSV(summaryPath, summaries); err != nil {
		log.Fatalf("failed to write summary: %v", err)
	}

	dash := &report.Dashboard{
		Period:      p.String(),
		Projection:  proj,
		Assignments: scatterAssign,
		StoreCodes:  matrix.StoreCodes,
		Summaries:   summaries,
		Recs:        recs,
	}
	dashPath := filepath.Join(runDir, "dashboard_"+p.String()+".html")
	if err := dash.WriteDashboardHTML(dashPath); err != nil {
		log.Fatalf("failed to write dashboard: %v", err)
	}

	pngPath := filepath.Join(runDir, "clusters_"+p.String()+".png")
	if err := report.SaveScatterPNG(pngPath, "Store Clusters "+p.String(), proj, scatterAssign); err != nil {
		log.Fatalf("failed to write scatter PNG: %v", err)
	}

	log.Printf("report for run %s written to %s", run.ID, runDir)
}
