// Package config loads server configuration from environment defaults with
// an optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hireloop/hireloop/internal/store/elastic"
	"github.com/hireloop/hireloop/pkg/ollama"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageFile    = "file"
	StorageElastic = "elastic"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DataDir       string        `yaml:"data_dir"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`

	// Storage selects the candidate-store backend. Jobs always stay on
	// the flat-file store.
	Storage string         `yaml:"storage"`
	Elastic elastic.Config `yaml:"elastic"`

	Ollama     ollama.Config    `yaml:"ollama"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Log        LogConfig        `yaml:"log"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type ExtractionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	JSON  bool `yaml:"json"`
	Debug bool `yaml:"debug"`
}

// LoadConfig builds the configuration from env-backed defaults and then
// overlays the YAML file at path, when given.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("HIRELOOP_ADDR", ":8080"),
		JWTSecret:     getEnv("HIRELOOP_JWT_SECRET", ""),
		APITimeout:    15 * time.Second,
		DataDir:       getEnv("HIRELOOP_DATA_DIR", "data"),
		DatabasePath:  getEnv("HIRELOOP_DATABASE_PATH", "hireloop.db"),
		TokenDuration: 1 * time.Hour,
		Storage:       getEnv("HIRELOOP_STORAGE", StorageFile),
		Ollama:        ollama.DefaultConfig(),
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Extraction: ExtractionConfig{Timeout: 30 * time.Second},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for file storage")
		}
	case StorageElastic:
		if len(c.Elastic.Addresses) == 0 {
			return fmt.Errorf("elastic.addresses is required for elastic storage")
		}
		// Jobs still need the flat-file store.
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required even with elastic storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
