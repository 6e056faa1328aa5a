package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
logging:
  level: debug
database:
  url: postgres://localhost/ord
  max_conns: 5
block_store:
  url: redis://localhost:6379
pipeline:
  idle_threshold: 5
  cache_clear_threshold: 50
protocol:
  concurrency: 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Database.MaxConns != 5 {
		t.Errorf("Expected 5 max conns, got %d", cfg.Database.MaxConns)
	}
	if cfg.Pipeline.IdleThreshold != 5 {
		t.Errorf("Expected idle threshold 5, got %d", cfg.Pipeline.IdleThreshold)
	}
	if cfg.Pipeline.CacheClearThreshold != 50 {
		t.Errorf("Expected cache clear threshold 50, got %d", cfg.Pipeline.CacheClearThreshold)
	}
	if cfg.Protocol.Concurrency != 8 {
		t.Errorf("Expected concurrency 8, got %d", cfg.Protocol.Concurrency)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/ord
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Migrations != "migrations" {
		t.Errorf("Expected default migrations dir, got %s", cfg.Migrations)
	}
	if cfg.Protocol.Concurrency != 4 {
		t.Errorf("Expected default concurrency 4, got %d", cfg.Protocol.Concurrency)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_ORD_DB_URL", "postgres://env/ord")

	path := writeConfig(t, `
database:
  url: ${TEST_ORD_DB_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.URL != "postgres://env/ord" {
		t.Errorf("Expected env-expanded URL, got %s", cfg.Database.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}
