// Package config loads the JSON pipeline configuration. Fields are
// pointers so partial config files are safe: anything omitted falls back
// to the defaults baked into the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// PipelineConfig is the root configuration for a merchandising run. The
// schema matches the params JSON stored with each cluster run so a run can
// be reproduced from its database row.
type PipelineConfig struct {
	// Clustering params
	ClusterCount        *int   `json:"cluster_count,omitempty"`
	MinClusterSize      *int   `json:"min_cluster_size,omitempty"`
	MaxClusterSize      *int   `json:"max_cluster_size,omitempty"`
	MaxBalanceIters     *int   `json:"max_balance_iterations,omitempty"`
	KMeansMaxIters      *int   `json:"kmeans_max_iterations,omitempty"`
	PCAComponents       *int   `json:"pca_components,omitempty"`
	Seed                *int64 `json:"seed,omitempty"`
	UseWeatherFeatures  *bool  `json:"use_weather_features,omitempty"`

	// Allocation rule params
	PeerCoverageThreshold *float64 `json:"peer_coverage_threshold,omitempty"`
	PerformanceGapFactor  *float64 `json:"performance_gap_factor,omitempty"`
	MaxAddsPerStore       *int     `json:"max_adds_per_store,omitempty"`

	// Paths
	DataDir   *string `json:"data_dir,omitempty"`
	OutputDir *string `json:"output_dir,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields nil.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file
// must have a .json extension and be under 1MB. Fields omitted from the
// JSON retain their defaults, so partial configs are safe.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are internally consistent.
// Infeasible size bounds (min*k > store count) are deliberately NOT
// checked here: the balancer handles them best-effort at run time.
func (c *PipelineConfig) Validate() error {
	if c.ClusterCount != nil && *c.ClusterCount < 1 {
		return fmt.Errorf("cluster_count must be at least 1, got %d", *c.ClusterCount)
	}
	if c.MinClusterSize != nil && *c.MinClusterSize < 0 {
		return fmt.Errorf("min_cluster_size must be non-negative, got %d", *c.MinClusterSize)
	}
	if c.MaxClusterSize != nil && c.MinClusterSize != nil && *c.MaxClusterSize < *c.MinClusterSize {
		return fmt.Errorf("max_cluster_size %d is below min_cluster_size %d", *c.MaxClusterSize, *c.MinClusterSize)
	}
	if c.MaxBalanceIters != nil && *c.MaxBalanceIters < 0 {
		return fmt.Errorf("max_balance_iterations must be non-negative, got %d", *c.MaxBalanceIters)
	}
	if c.PCAComponents != nil && *c.PCAComponents < 1 {
		return fmt.Errorf("pca_components must be at least 1, got %d", *c.PCAComponents)
	}
	if c.PeerCoverageThreshold != nil {
		if v := *c.PeerCoverageThreshold; v < 0 || v > 1 {
			return fmt.Errorf("peer_coverage_threshold must be between 0 and 1, got %f", v)
		}
	}
	if c.PerformanceGapFactor != nil && *c.PerformanceGapFactor <= 0 {
		return fmt.Errorf("performance_gap_factor must be positive, got %f", *c.PerformanceGapFactor)
	}
	return nil
}

// GetClusterCount returns the cluster_count value or the default.
func (c *PipelineConfig) GetClusterCount() int {
	if c.ClusterCount == nil {
		return 8
	}
	return *c.ClusterCount
}

// GetMinClusterSize returns the min_cluster_size value or the default.
func (c *PipelineConfig) GetMinClusterSize() int {
	if c.MinClusterSize == nil {
		return 5
	}
	return *c.MinClusterSize
}

// GetMaxClusterSize returns the max_cluster_size value or the default.
func (c *PipelineConfig) GetMaxClusterSize() int {
	if c.MaxClusterSize == nil {
		return 60
	}
	return *c.MaxClusterSize
}

// GetMaxBalanceIters returns the max_balance_iterations value or the default.
func (c *PipelineConfig) GetMaxBalanceIters() int {
	if c.MaxBalanceIters == nil {
		return 200
	}
	return *c.MaxBalanceIters
}

// GetKMeansMaxIters returns the kmeans_max_iterations value or the default.
func (c *PipelineConfig) GetKMeansMaxIters() int {
	if c.KMeansMaxIters == nil {
		return 100
	}
	return *c.KMeansMaxIters
}

// GetPCAComponents returns the pca_components value or the default.
func (c *PipelineConfig) GetPCAComponents() int {
	if c.PCAComponents == nil {
		return 4
	}
	return *c.PCAComponents
}

// GetSeed returns the RNG seed or the default. A fixed default keeps
// repeated runs over the same extract comparable.
func (c *PipelineConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetUseWeatherFeatures returns the use_weather_features value or the default.
func (c *PipelineConfig) GetUseWeatherFeatures() bool {
	if c.UseWeatherFeatures == nil {
		return false
	}
	return *c.UseWeatherFeatures
}

// GetPeerCoverageThreshold returns the peer_coverage_threshold value or the default.
func (c *PipelineConfig) GetPeerCoverageThreshold() float64 {
	if c.PeerCoverageThreshold == nil {
		return 0.6
	}
	return *c.PeerCoverageThreshold
}

// GetPerformanceGapFactor returns the performance_gap_factor value or the default.
func (c *PipelineConfig) GetPerformanceGapFactor() float64 {
	if c.PerformanceGapFactor == nil {
		return 0.5
	}
	return *c.PerformanceGapFactor
}

// GetMaxAddsPerStore returns the max_adds_per_store value or the default.
func (c *PipelineConfig) GetMaxAddsPerStore() int {
	if c.MaxAddsPerStore == nil {
		return 10
	}
	return *c.MaxAddsPerStore
}

// GetDataDir returns the data_dir value or the default.
func (c *PipelineConfig) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "data/api_data"
	}
	return *c.DataDir
}

// GetOutputDir returns the output_dir value or the default.
func (c *PipelineConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "output"
	}
	return *c.OutputDir
}
