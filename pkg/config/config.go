// Package config loads configuration for the indexing and search pipelines
// from an optional YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// IndexConfig names the directory and the four files that make up an index.
type IndexConfig struct {
	Dir          string `yaml:"dir"`
	DocIDsFile   string `yaml:"docIDsFile"`
	LengthsFile  string `yaml:"lengthsFile"`
	VocabFile    string `yaml:"vocabFile"`
	PostingsFile string `yaml:"postingsFile"`
}

func (c IndexConfig) DocIDsPath() string   { return filepath.Join(c.Dir, c.DocIDsFile) }
func (c IndexConfig) LengthsPath() string  { return filepath.Join(c.Dir, c.LengthsFile) }
func (c IndexConfig) VocabPath() string    { return filepath.Join(c.Dir, c.VocabFile) }
func (c IndexConfig) PostingsPath() string { return filepath.Join(c.Dir, c.PostingsFile) }

// TokenizerConfig names the structurally significant tags of the input
// collection.
type TokenizerConfig struct {
	DocTag        string `yaml:"docTag"`
	KeyTag        string `yaml:"keyTag"`
	ProgressEvery int    `yaml:"progressEvery"`
}

// SearchConfig controls result emission and query evaluation.
type SearchConfig struct {
	MaxResults        int    `yaml:"maxResults"`
	RunName           string `yaml:"runName"`
	Workers           int    `yaml:"workers"`
	VerbatimTerms     bool   `yaml:"verbatimTerms"`
	PostingsCacheSize int    `yaml:"postingsCacheSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls where the Prometheus registry is dumped on exit.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration that reproduces the classic file layout:
// docids.bin, lengths.bin, vocab.bin and postings.bin in the working
// directory.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Dir:          ".",
			DocIDsFile:   "docids.bin",
			LengthsFile:  "lengths.bin",
			VocabFile:    "vocab.bin",
			PostingsFile: "postings.bin",
		},
		Tokenizer: TokenizerConfig{
			DocTag:        "<DOC>",
			KeyTag:        "<DOCNO>",
			ProgressEvery: 1000,
		},
		Search: SearchConfig{
			MaxResults: 1000,
			RunName:    "JASSjr",
			Workers:    1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects settings the pipelines cannot run with.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.maxResults must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.Workers <= 0 {
		return fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers)
	}
	if c.Search.PostingsCacheSize < 0 {
		return fmt.Errorf("search.postingsCacheSize must not be negative, got %d", c.Search.PostingsCacheSize)
	}
	if c.Tokenizer.DocTag == "" || c.Tokenizer.KeyTag == "" {
		return fmt.Errorf("tokenizer.docTag and tokenizer.keyTag must be set")
	}
	for name, v := range map[string]string{
		"index.docIDsFile":   c.Index.DocIDsFile,
		"index.lengthsFile":  c.Index.LengthsFile,
		"index.vocabFile":    c.Index.VocabFile,
		"index.postingsFile": c.Index.PostingsFile,
	} {
		if v == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

// applyEnvOverrides reads JASS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JASS_INDEX_DIR"); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv("JASS_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("JASS_SEARCH_RUN_NAME"); v != "" {
		cfg.Search.RunName = v
	}
	if v := os.Getenv("JASS_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Workers = n
		}
	}
	if v := os.Getenv("JASS_SEARCH_VERBATIM_TERMS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.VerbatimTerms = b
		}
	}
	if v := os.Getenv("JASS_SEARCH_POSTINGS_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.PostingsCacheSize = n
		}
	}
	if v := os.Getenv("JASS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JASS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("JASS_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}
