// Command allocate runs the allocation rules against a persisted
// clustering run: it rebuilds the per-cluster sales snapshot for the
// run's period, applies the rule engine and persists the resulting
// recommendations alongside a CSV for the merchandisers.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/fastfish-data/merch.report/internal/config"
	"github.com/fastfish-data/merch.report/internal/dataio"
	"github.com/fastfish-data/merch.report/internal/db"
	"github.com/fastfish-data/merch.report/internal/period"
	"github.com/fastfish-data/merch.report/internal/rules"
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
	if run.Period != p.String() {
		log.Fatalf("run %s is for period %s, not %s", run.ID, run.Period, p)
	}

	assignments, err := database.GetAssignments(run.ID)
	if err != nil {
		log.Fatalf("failed to load assignments: %v", err)
	}
	if len(assignments) == 0 {
		log.Fatalf("run %s has no assignments", run.ID)
	}
	clusterOf := make(map[string]int, len(assignments))
	for _, a := range assignments {
		clusterOf[a.StoreCode] = a.ClusterID
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

	for i := range stores {
		if c, ok := clusterOf[stores[i].Code]; ok {
			stores[i].ClusterID = c
		}
	}

	snapshot := rules.NewSnapshot(stores, sales)
	recs := rules.NewEngine().Run(snapshot, rules.Params{
		PeerCoverageThreshold: cfg.GetPeerCoverageThreshold(),
		PerformanceGapFactor:  cfg.GetPerformanceGapFactor(),
		MaxAddsPerStore:       cfg.GetMaxAddsPerStore(),
	})
	log.Printf("rules produced %d recommendations for %d stores", len(recs), len(stores))

	recsPath := dataio.RecommendationsPath(out, p)
	if err := os.MkdirAll(filepath.Dir(recsPath), 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	if err := dataio.WriteRecommendations(recsPath, recs); err != nil {
		log.Fatalf("failed to write recommendations: %v", err)
	}

	if err := database.SaveRecommendations(run.ID, recs); err != nil {
		log.Fatalf("failed to save recommendations: %v", err)
	}

	log.Printf("recommendations for run %s written to %s", run.ID, recsPath)
}
