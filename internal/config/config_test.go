package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTPAddr == "" || cfg.MetricsAddr == "" {
		t.Fatalf("Default() left HTTPAddr/MetricsAddr empty: %+v", cfg)
	}
	if cfg.JobStore.Driver != "memory" {
		t.Fatalf("Default() driver = %q, want memory", cfg.JobStore.Driver)
	}
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	content := `
http_addr: ":8081"
metrics_addr: ":9091"
job_store:
  driver: memory
housekeeping:
  enabled: true
  interval: 45s
audit_log:
  path: "audit.log"
  buffer_size: 50
  flush_interval: 20ms
requests_per_second: 25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Fatalf("HTTPAddr = %q, want :8081", cfg.HTTPAddr)
	}
	if cfg.Housekeeping.Interval != 45*time.Second {
		t.Fatalf("Housekeeping.Interval = %v, want 45s", cfg.Housekeeping.Interval)
	}
	if cfg.RequestsPerSecond != 25 {
		t.Fatalf("RequestsPerSecond = %v, want 25", cfg.RequestsPerSecond)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/matcher.yaml")
	if err == nil {
		t.Fatalf("Load: want error for missing file")
	}
}

func TestLoadInvalidDriverFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	content := `
http_addr: ":8081"
metrics_addr: ":9091"
job_store:
  driver: mongodb
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load: want validation error for unsupported driver")
	}
}

func TestLoadMissingRequiredFieldFilledByDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	content := `
job_store:
  driver: memory
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := Default()
	_ = cfg // Default already sets HTTPAddr/MetricsAddr; this file doesn't override them, so validation passes.

	_, err := Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error when defaults satisfy required fields: %v", err)
	}
}
