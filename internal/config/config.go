// Package config loads the pipeline configuration from a TOML file,
// overlaying it on defaults that match the scraper repo layout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Sources contains the scraped input file locations. Both .json and
// .parquet files are accepted.
type Sources struct {
	Reddit    string `toml:"reddit"`
	Bookclubs string `toml:"bookclubs"`
	Goodreads string `toml:"goodreads"`
}

// Dedupe contains configuration for the semantic clustering stage.
type Dedupe struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	EmbeddingModel      string  `toml:"embedding_model"`
}

// Enrich contains configuration for the metadata lookup stage.
type Enrich struct {
	Quota           int `toml:"quota"`
	MaxConcurrent   int `toml:"max_concurrent"`
	RequestDelayMS  int `toml:"request_delay_ms"`
	RequestTimeoutS int `toml:"request_timeout_s"`
}

// Config is the full pipeline configuration.
type Config struct {
	DataDir      string  `toml:"data_dir"`
	ClustersPath string  `toml:"clusters_path"`
	CatalogPath  string  `toml:"catalog_path"`
	SummaryPath  string  `toml:"summary_path"`
	CachePath    string  `toml:"cache_path"`
	Sources      Sources `toml:"sources"`
	Dedupe       Dedupe  `toml:"dedupe"`
	Enrich       Enrich  `toml:"enrich"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		DataDir: "data",
		Dedupe: Dedupe{
			SimilarityThreshold: 0.75,
			EmbeddingModel:      "text-embedding-004",
		},
		Enrich: Enrich{
			Quota:           1000,
			MaxConcurrent:   1,
			RequestDelayMS:  660,
			RequestTimeoutS: 15,
		},
	}
}

// Load parses the configuration file at path and validates the result.
// An empty path means defaults only; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize fills empty path fields with defaults under DataDir, so a
// config that only relocates data_dir moves everything with it.
func (c *Config) normalize() {
	fill := func(field *string, name string) {
		if *field == "" {
			*field = filepath.Join(c.DataDir, name)
		}
	}
	fill(&c.Sources.Reddit, "reddit_books.json")
	fill(&c.Sources.Bookclubs, "bookclubs_com.json")
	fill(&c.Sources.Goodreads, "goodreads_groups.json")
	fill(&c.ClustersPath, "ml_deduplicated.json")
	fill(&c.CatalogPath, "enriched_books.json")
	fill(&c.SummaryPath, "run_summary.yaml")
	fill(&c.CachePath, "google_books_cache.db")
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if t := c.Dedupe.SimilarityThreshold; t <= 0 || t > 1 {
		return errors.New("dedupe.similarity_threshold must be between 0 and 1")
	}
	if c.Dedupe.EmbeddingModel == "" {
		return errors.New("dedupe.embedding_model must be set")
	}
	if c.Enrich.Quota < 0 {
		return errors.New("enrich.quota must not be negative")
	}
	if c.Enrich.MaxConcurrent < 1 {
		return errors.New("enrich.max_concurrent must be at least 1")
	}
	if c.Enrich.RequestDelayMS < 0 {
		return errors.New("enrich.request_delay_ms must not be negative")
	}
	if c.Enrich.RequestTimeoutS < 1 {
		return errors.New("enrich.request_timeout_s must be at least 1")
	}
	return nil
}

// RequestDelay returns the pause inserted before each API call.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Enrich.RequestDelayMS) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Enrich.RequestTimeoutS) * time.Second
}
