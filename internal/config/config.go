// Package config loads the matcher daemon's configuration from a YAML
// file (gopkg.in/yaml.v3 struct tags), loading a .env file into the
// environment, and applies struct-tag validation (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the matcher daemon's top-level configuration.
type Config struct {
	HTTPAddr    string `yaml:"http_addr" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr" validate:"required"`

	JobStore JobStoreConfig `yaml:"job_store" validate:"required"`

	// Housekeeping controls the optional proactive reconciliation
	// sweep; the mandatory lazy eviction runs regardless.
	Housekeeping HousekeepingConfig `yaml:"housekeeping"`

	AuditLog AuditLogConfig `yaml:"audit_log"`

	// RequestsPerSecond rate-limits RequestJob per caller site at the
	// HTTP boundary. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// JobStoreConfig selects and configures the job-store adapter.
type JobStoreConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=memory postgres"`

	PostgresDSN string `yaml:"postgres_dsn"`

	// RedisAddr, if set, enables the task-queue warm-start cache.
	RedisAddr string `yaml:"redis_addr"`
}

// HousekeepingConfig controls the gocron-scheduled reconciliation sweep.
type HousekeepingConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// AuditLogConfig controls the local append-only logging sink used when
// no external logging DB is configured.
type AuditLogConfig struct {
	Path          string        `yaml:"path"`
	BufferSize    int           `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

var validate = validator.New()

// Default returns a configuration suitable for standalone/demo mode.
func Default() Config {
	return Config{
		HTTPAddr:          ":8080",
		MetricsAddr:       ":9090",
		JobStore:          JobStoreConfig{Driver: "memory"},
		Housekeeping:      HousekeepingConfig{Enabled: true, Interval: 30 * time.Second},
		AuditLog:          AuditLogConfig{Path: "matcher-audit.log", BufferSize: 100, FlushInterval: 10 * time.Millisecond},
		RequestsPerSecond: 50,
	}
}

// Load reads YAML configuration from path over the defaults and
// validates the result. Before that it loads a .env file from the
// working directory (if present) into the process environment; no
// configuration field is read from the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // .env overlay is optional; absence is not an error

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validating %s: %w", path, err)
	}
	return cfg, nil
}
