package dataio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fastfish-data/merch.report/internal/features"
)

// LoadWeather reads a per-city weather aggregate file from the api_data
// feed. The file maps city name to temperature aggregates:
//
//	{"Hangzhou": {"mean_temp_c": 28.5, "min_temp_c": 22.0}, ...}
func LoadWeather(path string) (map[string]features.Weather, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather file %s: %w", path, err)
	}
	var out map[string]features.Weather
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse weather file %s: %w", path, err)
	}
	return out, nil
}
