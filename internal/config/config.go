// Package config loads the scoring configuration and segment catalogue from
// YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

// Config is the on-disk segmentation configuration.
type Config struct {
	Scoring  rfm.ScoringConfig `yaml:"scoring"`
	Segments []rfm.Segment     `yaml:"segments"`
}

// RuleSet returns the configured segment catalogue as an ordered rule set.
func (c *Config) RuleSet() rfm.RuleSet {
	return rfm.RuleSet{Segments: c.Segments}
}

// Load reads the configuration from config/rfm.yaml.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "rfm.yaml"))
}

// LoadFromPath reads the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Segments) == 0 {
		cfg.Segments = rfm.DefaultRuleSet().Segments
	}
	if err := cfg.RuleSet().Validate(); err != nil {
		return nil, fmt.Errorf("invalid segment catalogue: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads the configuration or returns the default if the file is
// not present.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in scoring configuration and segment catalogue.
func Default() *Config {
	return &Config{
		Scoring:  rfm.DefaultScoringConfig(),
		Segments: rfm.DefaultRuleSet().Segments,
	}
}
