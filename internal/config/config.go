package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string        `yaml:"addr"`
	APISecret    string        `yaml:"api_secret"`
	APITimeout   time.Duration `yaml:"timeout"`
	DatabasePath string        `yaml:"database_path"`
	Backend      BackendConfig `yaml:"backend"`
	Sync         SyncConfig    `yaml:"sync"`
}

// BackendConfig configures the HTTP client for the hosted backend.
type BackendConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Token                   string        `yaml:"token"`
	Timeout                 time.Duration `yaml:"timeout"`
	UploadTimeout           time.Duration `yaml:"upload_timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

// SyncConfig tunes the queue drain and the connectivity probe.
type SyncConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:         getEnv("INSPECTD_ADDR", "127.0.0.1:8847"),
		APISecret:    getEnv("INSPECTD_API_SECRET", ""),
		APITimeout:   15 * time.Second,
		DatabasePath: getEnv("INSPECTD_DATABASE_PATH", "inspectd.db"),
		Backend: BackendConfig{
			BaseURL: getEnv("INSPECTD_BACKEND_URL", "http://localhost:8080"),
			Token:   getEnv("INSPECTD_BACKEND_TOKEN", ""),
		},
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

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.UploadTimeout <= 0 {
		c.Backend.UploadTimeout = 2 * time.Minute
	}
	if c.Backend.Retries <= 0 {
		c.Backend.Retries = 2
	}
	if c.Backend.Backoff <= 0 {
		c.Backend.Backoff = time.Second
	}
	if c.Backend.CircuitFailureThreshold <= 0 {
		c.Backend.CircuitFailureThreshold = 5
	}
	if c.Backend.CircuitReset <= 0 {
		c.Backend.CircuitReset = 30 * time.Second
	}
	if c.Sync.MaxAttempts <= 0 {
		c.Sync.MaxAttempts = 5
	}
	if c.Sync.ProbeInterval <= 0 {
		c.Sync.ProbeInterval = 30 * time.Second
	}
}

// Validate rejects configurations the agent cannot run with.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.APISecret == "" && os.Getenv("INSPECTD_ENV") != "development" {
		return fmt.Errorf("api_secret is required outside development")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
