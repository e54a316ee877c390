package dataio

import (
	"path/filepath"
	"testing"

	"github.com/fastfish-data/merch.report/internal/period"
)

func TestPathsEncodePeriod(t *testing.T) {
	p := period.MustParse("202508A")

	if got := SalesPath("data/api_data", p); got != filepath.Join("data/api_data", "sales_202508A.csv") {
		t.Errorf("SalesPath = %q", got)
	}
	if got := WeatherPath("data/api_data", p); got != filepath.Join("data/api_data", "weather_202508A.json") {
		t.Errorf("WeatherPath = %q", got)
	}
	if got := AssignmentsPath("output", p); got != filepath.Join("output", "202508A", "assignments_202508A.csv") {
		t.Errorf("AssignmentsPath = %q", got)
	}
	if got := RecommendationsPath("output", p); got != filepath.Join("output", "202508A", "recommendations_202508A.csv") {
		t.Errorf("RecommendationsPath = %q", got)
	}
	if got := StoresPath("data/api_data"); got != filepath.Join("data/api_data", "stores.csv") {
		t.Errorf("StoresPath = %q", got)
	}
}
