// Package config loads and saves the engine's SimilarityConfig plus
// the organize command's run options (spec.md §6): a YAML file read
// via viper, with CLI flags taking precedence. Grounded on
// shadspace.go's master/config.go LoadConfig (viper.SetConfigFile +
// viper.Unmarshal) and on gopkg.in/yaml.v3 for writing the file back
// out, since viper itself has no symmetric "write struct as YAML".
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"photodedupe/types"
)

// RunConfig is everything the organize command needs beyond the
// source/destination paths named positionally: the similarity
// tunables plus the run-level knobs from spec.md §6.
type RunConfig struct {
	Similarity types.SimilarityConfig `yaml:"similarity" mapstructure:"similarity"`

	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	BatchSize   int    `yaml:"batchSize" mapstructure:"batchSize"`
	OverlapSize int    `yaml:"overlapSize" mapstructure:"overlapSize"`
	DuplicatesDir string `yaml:"duplicatesDir" mapstructure:"duplicatesDir"`
	ErrorsDir     string `yaml:"errorsDir" mapstructure:"errorsDir"`
	DebugDir      string `yaml:"debugDir" mapstructure:"debugDir"`
	PathTemplate  string `yaml:"pathTemplate" mapstructure:"pathTemplate"`
	DryRun        bool   `yaml:"dryRun" mapstructure:"dryRun"`
}

// Default returns the out-of-the-box RunConfig, mirroring
// types.DefaultSimilarityConfig for the similarity tunables.
func Default() RunConfig {
	return RunConfig{
		Similarity:    types.DefaultSimilarityConfig(),
		Concurrency:   0, // 0 means "let scanner pick runtime.NumCPU"
		BatchSize:     2048,
		OverlapSize:   128,
		DuplicatesDir: "duplicates",
		ErrorsDir:     "errors",
		DebugDir:      "debug",
		PathTemplate:  "{year}/{month}/{filename}",
	}
}

// Load reads path via viper and unmarshals it onto the defaults, so a
// YAML file that only sets a few fields still gets sane values for
// the rest.
func Load(path string) (RunConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return RunConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as
// needed.
func Save(path string, cfg RunConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// DefaultCacheDBPath returns the default path for the cache's sqlite
// file, alongside the destination root — adapted from the teacher's
// utils.GetDefaultDatabasePath, which placed the database next to the
// executable; this instead places it next to the run's output, so
// concurrent organize runs against different destinations don't share
// a cache file.
func DefaultCacheDBPath(destination string) string {
	return filepath.Join(destination, ".photodedupe-cache.db")
}
