// Package config holds the explicit configuration record for the benchmark
// core. Every tunable is a named field; nothing is read from ambient state,
// and front-ends pass the loaded value into each component explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxgamebench/lgb-core/pkg/metrics"
	"github.com/linuxgamebench/lgb-core/pkg/store"
	"github.com/linuxgamebench/lgb-core/pkg/validate"
)

// Config is the full set of tunables for the analysis pipeline and store.
type Config struct {
	ResultsDir string `yaml:"results_dir"`

	// DefaultGPU names the device that renders games on multi-GPU hosts,
	// by PCI address or model substring. Empty means autodetect.
	DefaultGPU string `yaml:"default_gpu,omitempty"`

	// Metrics computation.
	StutterMultiplier   float64                `yaml:"stutter_multiplier"`
	ReliableSampleCount int                    `yaml:"reliable_sample_count"`
	Tiers               metrics.TierBoundaries `yaml:"tiers"`

	// Duplicate detection and raw-sample retention.
	DuplicateToleranceFPS  float64 `yaml:"duplicate_tolerance_fps"`
	DuplicateWindowSeconds int     `yaml:"duplicate_window_seconds"`
	RetainFrametimes       bool    `yaml:"retain_frametimes"`
	FrametimeStride        int     `yaml:"frametime_stride"`

	// Capture validation thresholds.
	Validation validate.Config `yaml:"validation"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	resultsDir := "benchmark_results"
	if home, err := os.UserHomeDir(); err == nil {
		resultsDir = filepath.Join(home, "benchmark_results")
	}

	mc := metrics.DefaultConfig()
	sc := store.DefaultConfig()
	return &Config{
		ResultsDir:             resultsDir,
		StutterMultiplier:      mc.StutterMultiplier,
		ReliableSampleCount:    mc.ReliableSampleCount,
		Tiers:                  mc.Tiers,
		DuplicateToleranceFPS:  sc.DuplicateToleranceFPS,
		DuplicateWindowSeconds: int(sc.DuplicateWindow / time.Second),
		RetainFrametimes:       sc.RetainFrametimes,
		FrametimeStride:        sc.FrametimeStride,
		Validation:             validate.DefaultConfig(),
	}
}

// Load reads a YAML configuration file on top of the defaults. An empty
// path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MetricsConfig returns the metrics-computation view of the configuration.
func (c *Config) MetricsConfig() metrics.Config {
	return metrics.Config{
		StutterMultiplier:   c.StutterMultiplier,
		ReliableSampleCount: c.ReliableSampleCount,
		Tiers:               c.Tiers,
	}
}

// StoreConfig returns the result-store view of the configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		DuplicateToleranceFPS: c.DuplicateToleranceFPS,
		DuplicateWindow:       time.Duration(c.DuplicateWindowSeconds) * time.Second,
		RetainFrametimes:      c.RetainFrametimes,
		FrametimeStride:       c.FrametimeStride,
	}
}

// ResolveResultsDir expands a leading ~/ in the results directory.
func (c *Config) ResolveResultsDir() string {
	if len(c.ResultsDir) > 1 && c.ResultsDir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.ResultsDir[2:])
		}
	}
	return c.ResultsDir
}
