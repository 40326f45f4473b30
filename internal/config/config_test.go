package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/habitek/inspectd/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("INSPECTD_ADDR", "")
	t.Setenv("INSPECTD_DATABASE_PATH", "")
	t.Setenv("INSPECTD_BACKEND_URL", "")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8847" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.DatabasePath != "inspectd.db" {
		t.Fatalf("database_path = %q", cfg.DatabasePath)
	}
	if cfg.Backend.Retries != 2 || cfg.Backend.Timeout != 10*time.Second {
		t.Fatalf("backend defaults: %+v", cfg.Backend)
	}
	if cfg.Sync.MaxAttempts != 5 || cfg.Sync.ProbeInterval != 30*time.Second {
		t.Fatalf("sync defaults: %+v", cfg.Sync)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("INSPECTD_ADDR", "127.0.0.1:9000")
	t.Setenv("INSPECTD_BACKEND_URL", "https://api.example.com")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Fatalf("backend url = %q", cfg.Backend.BaseURL)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	t.Setenv("INSPECTD_ADDR", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
addr: "127.0.0.1:9100"
api_secret: "s3cret"
database_path: "/tmp/inspectd-test.db"
backend:
  base_url: "https://api.example.com"
  retries: 4
sync:
  max_attempts: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9100" || cfg.APISecret != "s3cret" {
		t.Fatalf("yaml overlay not applied: %+v", cfg)
	}
	if cfg.Backend.Retries != 4 || cfg.Sync.MaxAttempts != 3 {
		t.Fatalf("nested overlay not applied: %+v %+v", cfg.Backend, cfg.Sync)
	}
	// untouched fields keep defaults
	if cfg.Backend.Backoff != time.Second {
		t.Fatalf("backoff default lost: %v", cfg.Backend.Backoff)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("INSPECTD_ENV", "")

	cfg := &config.Config{DatabasePath: "x.db", Backend: config.BackendConfig{BaseURL: "https://api.example.com"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing api_secret accepted outside development")
	}

	cfg.APISecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.DatabasePath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing database_path accepted")
	}

	t.Setenv("INSPECTD_ENV", "development")
	dev := &config.Config{DatabasePath: "x.db", Backend: config.BackendConfig{BaseURL: "https://api.example.com"}}
	if err := dev.Validate(); err != nil {
		t.Fatalf("development mode should not require api_secret: %v", err)
	}
}
