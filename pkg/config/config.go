package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xhad/stoic/pkg/letters"
	"github.com/xhad/stoic/pkg/llm"
	"github.com/xhad/stoic/pkg/meditations"
	"gopkg.in/yaml.v3"
)

const DefaultOutputPath = "stoic-corpus.jsonl"

type Config struct {
	Sources  SourcesConfig  `yaml:"sources"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Log      LogConfig      `yaml:"log"`
}

type SourcesConfig struct {
	MeditationsURL  string `yaml:"meditations_url"`
	LettersIndexURL string `yaml:"letters_index_url"`
	LettersBaseURL  string `yaml:"letters_base_url"`
}

type ScraperConfig struct {
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	RateLimit       float64       `yaml:"rate_limit"`
	ContinueOnError bool          `yaml:"continue_on_error"`
}

type OutputConfig struct {
	Path    string `yaml:"path"`
	DumpDir string `yaml:"dump_dir"`
}

// DatabaseConfig enables the PostgreSQL passage store when URL is set.
type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
	BatchSize int    `yaml:"batch_size"`
}

type EmbedderConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"stoic.yaml",
			"stoic.yml",
		}
		if home, err := os.UserHomeDir(); err == nil {
			locations = append(locations, filepath.Join(home, ".config/stoic/config.yaml"))
		}
		locations = append(locations, "/etc/stoic/config.yaml")

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Sources.MeditationsURL == "" {
		config.Sources.MeditationsURL = meditations.DefaultURL
	}
	if config.Sources.LettersIndexURL == "" {
		config.Sources.LettersIndexURL = letters.DefaultIndexURL
	}
	if config.Sources.LettersBaseURL == "" {
		config.Sources.LettersBaseURL = letters.DefaultBaseURL
	}

	if config.Output.Path == "" {
		config.Output.Path = DefaultOutputPath
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "passages"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = llm.DefaultBaseURL
	}
	if config.Embedder.Model == "" {
		config.Embedder.Model = llm.DefaultModel
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}
