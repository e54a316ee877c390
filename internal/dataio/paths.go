package dataio

import (
	"fmt"
	"path/filepath"

	"github.com/fastfish-data/merch.report/internal/period"
)

// Input and output filenames encode the half-month period label so runs
// for different periods never collide.

// StoresPath returns the store master path under dataDir.
func StoresPath(dataDir string) string {
	return filepath.Join(dataDir, "stores.csv")
}

// SalesPath returns the sales extract path for a period under dataDir.
func SalesPath(dataDir string, p period.Period) string {
	return filepath.Join(dataDir, fmt.Sprintf("sales_%s.csv", p))
}

// WeatherPath returns the weather aggregate path for a period under dataDir.
func WeatherPath(dataDir string, p period.Period) string {
	return filepath.Join(dataDir, fmt.Sprintf("weather_%s.json", p))
}

// AssignmentsPath returns the assignments output path for a period.
func AssignmentsPath(outputDir string, p period.Period) string {
	return filepath.Join(outputDir, p.String(), fmt.Sprintf("assignments_%s.csv", p))
}

// RecommendationsPath returns the recommendations output path for a period.
func RecommendationsPath(outputDir string, p period.Period) string {
	return filepath.Join(outputDir, p.String(), fmt.Sprintf("recommendations_%s.csv", p))
}
