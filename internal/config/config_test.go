package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Storage.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.Storage.DataDir)
	}
	if cfg.Server.Port != 8098 {
		t.Errorf("Port = %d, want 8098", cfg.Server.Port)
	}
	if cfg.Gather.Days != 2 || cfg.Gather.TopN != 10 {
		t.Errorf("Gather = %+v, want days 2, top_n 10", cfg.Gather)
	}
	if cfg.Cache.Name != "twflow-shell-v1" {
		t.Errorf("Cache.Name = %q", cfg.Cache.Name)
	}
	if cfg.Sources.TWSEBaseURL != "https://www.twse.com.tw" {
		t.Errorf("TWSEBaseURL = %q", cfg.Sources.TWSEBaseURL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twflow.yaml")
	content := `
storage:
  data_dir: /var/lib/twflow
server:
  port: 9000
gather:
  days: 3
  top_n: 20
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.DataDir != "/var/lib/twflow" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Gather.Days != 3 || cfg.Gather.TopN != 20 {
		t.Errorf("Gather = %+v", cfg.Gather)
	}

	// Unset fields still get defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Cache.Origin != "http://127.0.0.1:8098" {
		t.Errorf("Cache.Origin = %q, want default", cfg.Cache.Origin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() for missing file: expected error, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/override")
	t.Setenv("DAYS", "5")
	t.Setenv("TWFLOW_ORIGIN", "http://example.test:9000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Default()
	if cfg.Storage.DataDir != "/tmp/override" {
		t.Errorf("DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Gather.Days != 5 {
		t.Errorf("Days = %d, want 5", cfg.Gather.Days)
	}
	if cfg.Cache.Origin != "http://example.test:9000" {
		t.Errorf("Cache.Origin = %q, want env override", cfg.Cache.Origin)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestEnvOverrideIgnoresBadDays(t *testing.T) {
	t.Setenv("DAYS", "not-a-number")
	cfg := Default()
	if cfg.Gather.Days != 2 {
		t.Errorf("Days = %d, want default 2 on a bad override", cfg.Gather.Days)
	}
}
