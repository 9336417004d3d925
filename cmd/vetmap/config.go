package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the top-level vetmap configuration.
type fileConfig struct {
	Browser   browserConfig   `yaml:"browser"`
	Run       runConfig       `yaml:"run"`
	Keywords  keywordConfig   `yaml:"keywords"`
	Extractor extractorConfig `yaml:"extractor"`
	Paths     pathConfig      `yaml:"paths"`
	Listen    string          `yaml:"listen"`
}

// browserConfig controls Chrome lifecycle.
type browserConfig struct {
	Remote         string        `yaml:"remote"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`
	ActionTimeout  time.Duration `yaml:"action_timeout"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
}

// runConfig bounds the pipeline.
type runConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	ConcurrentBatches int64         `yaml:"concurrent_batches"`
	SiteTimeout       time.Duration `yaml:"site_timeout"`
	SiteRetries       int           `yaml:"site_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	BlockThreshold    int           `yaml:"block_threshold"`
	ConservativeDelay time.Duration `yaml:"conservative_delay"`
}

// keywordConfig points at the keyword tables. Empty paths fall back to the
// built-in defaults.
type keywordConfig struct {
	TeamConfig     string `yaml:"team_config"`     // YAML per-language team settings
	AnimalsCSV     string `yaml:"animals_csv"`     // Language,Category,Keyword
	ClinicCSV      string `yaml:"clinic_csv"`      // Language,Keyword
	NonClinicCSV   string `yaml:"non_clinic_csv"`  // Language,Keyword
	FuzzyThreshold int    `yaml:"fuzzy_threshold"` // default 85
}

// extractorConfig configures person extraction. Disabled unless enabled is
// set and the key environment variable is non-empty.
type extractorConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

type pathConfig struct {
	DB      string `yaml:"db"`
	DocsDir string `yaml:"docs_dir"`
}

// loadConfig reads a YAML configuration file; an empty path yields the
// defaults.
func loadConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *fileConfig) applyDefaults() {
	if c.Paths.DB == "" {
		c.Paths.DB = "vetmap.db"
	}
	if c.Paths.DocsDir == "" {
		c.Paths.DocsDir = "docs"
	}
	if c.Extractor.APIKeyEnv == "" {
		c.Extractor.APIKeyEnv = "OPENAI_API_KEY"
	}
}
