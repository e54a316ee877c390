// Command cluster-stores runs the clustering half of the pipeline for one
// half-month period: it builds the store feature matrix from the sales
// extract, reduces it with PCA, runs k-means, balances the cluster sizes
// and persists the run with its assignments.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/fastfish-data/merch.report/internal/cluster"
	"github.com/fastfish-data/merch.report/internal/config"
	"github.com/fastfish-data/merch.report/internal/dataio"
	"github.com/fastfish-data/merch.report/internal/db"
	"github.com/fastfish-data/merch.report/internal/features"
	"github.com/fastfish-data/merch.report/internal/merch"
	"github.com/fastfish-data/merch.report/internal/period"
)

var (
	configPath  = flag.String("config", "", "Pipeline config JSON (defaults apply when empty)")
	periodLabel = flag.String("period", "", "Half-month period label, e.g. 202508A (required)")
	dbPath      = flag.String("db", "merch.db", "Run database path")
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

	var weather map[string]features.Weather
	if cfg.GetUseWeatherFeatures() {
		weather, err = dataio.LoadWeather(dataio.WeatherPath(data, p))
		if err != nil {
			log.Fatalf("failed to load weather: %v", err)
		}
	}

	matrix, stats, err := features.Build(stores, sales, weather)
	if err != nil {
		log.Fatalf("failed to build feature matrix: %v", err)
	}
	matrix.Standardize()
	log.Printf("feature matrix: %d stores x %d columns (skipped %d sales rows, dropped %d stores)",
		len(matrix.Rows), len(matrix.Columns), stats.SkippedSales, len(stats.DroppedStores))

	proj, explained, err := cluster.PCA(matrix.Rows, cfg.GetPCAComponents())
	if err != nil {
		log.Fatalf("PCA failed: %v", err)
	}
	var captured float64
	for _, f := range explained {
		captured += f
	}
	log.Printf("PCA: %d components capture %.1f%% of variance", len(explained), captured*100)

	rng := rand.New(rand.NewSource(cfg.GetSeed()))
	part, err := cluster.KMeans(proj, cfg.GetClusterCount(), cfg.GetKMeansMaxIters(), rng)
	if err != nil {
		log.Fatalf("k-means failed: %v", err)
	}

	res := cluster.Balance(proj, part, cluster.BalanceConfig{
		MinSize:  cfg.GetMinClusterSize(),
		MaxSize:  cfg.GetMaxClusterSize(),
		MaxIters: cfg.GetMaxBalanceIters(),
	})
	log.Printf("balance: %d moves in %d iterations, converged=%v, violations=%d",
		res.Moves, res.Iterations, res.Converged, res.Violations)

	// Clustered stores only. Stores dropped from the matrix keep no
	// assignment and do not appear in the output.
	clusterOf := make(map[string]int, len(matrix.StoreCodes))
	for i, code := range matrix.StoreCodes {
		clusterOf[code] = res.Partition.Assignments[i]
	}
	var clustered []merch.Store
	for _, s := range stores {
		if c, ok := clusterOf[s.Code]; ok {
			s.ClusterID = c
			clustered = append(clustered, s)
		}
	}

	assignmentsPath := dataio.AssignmentsPath(out, p)
	if err := os.MkdirAll(filepath.Dir(assignmentsPath), 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	if err := dataio.WriteAssignments(assignmentsPath, clustered); err != nil {
		log.Fatalf("failed to write assignments: %v", err)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	params, err := json.Marshal(cfg)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	run := &db.ClusterRun{
		Period:           p.String(),
		Params:           string(params),
		K:                res.Partition.K,
		SilhouetteBefore: res.SilhouetteBefore,
		SilhouetteAfter:  res.SilhouetteAfter,
		Converged:        res.Converged,
		Violations:       res.Violations,
		Moves:            res.Moves,
	}
	if err := database.SaveClusterRun(run, clustered); err != nil {
		log.Fatalf("failed to save cluster run: %v", err)
	}

	log.Printf("run %s saved: %d stores in %d clusters, silhouette %.3f -> %.3f",
		run.ID, len(clustered), run.K, res.SilhouetteBefore, res.SilhouetteAfter)
	log.Printf("assignments written to %s", assignmentsPath)
}
