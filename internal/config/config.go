// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/starseed/internal/domain/window"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StartDate and EndDate bound the aggregation window, half-open,
	// as YYYY-MM-DD. EndDate is exclusive.
	StartDate string `koanf:"start_date"`
	EndDate   string `koanf:"end_date"`

	// MinStars drops repositories with fewer qualifying events.
	MinStars int `koanf:"min_stars"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of aggregation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the delivery-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the aggregate store.
	ShardCount int `koanf:"shard_count"`

	// MaxSeedLimit caps GET /seeds?limit.
	MaxSeedLimit int `koanf:"max_seed_limit"`

	// SourceDir points at a directory of NDJSON star log partitions.
	// Setting it switches the process to batch mode.
	SourceDir string `koanf:"source_dir"`

	// SourceDSN points at a Postgres star log. Setting it switches the
	// process to batch mode. Mutually exclusive with SourceDir.
	SourceDSN string `koanf:"source_dsn"`

	// SourceTable overrides the star log table name for SourceDSN.
	SourceTable string `koanf:"source_table"`

	// OutputPath is where batch mode writes seed clusters; empty means
	// stdout.
	OutputPath string `koanf:"output_path"`
}

// New creates a Config with defaults. The default window covers the
// trailing 180 days ending tomorrow, so today's partitions are included.
func New(_ context.Context) *Config {
	now := time.Now().UTC()
	c := &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		StartDate:      now.AddDate(0, 0, -180).Format(window.DayLayout),
		EndDate:        now.AddDate(0, 0, 1).Format(window.DayLayout),
		MinStars:       20,
		EventQueueSize: 100_000,
		WorkerCount:    runtime.NumCPU() * 2,
		DedupeSize:     500_000,
		ShardCount:     8,
		MaxSeedLimit:   1000,
	}
	return c
}

// Window parses the configured window bounds.
func (c *Config) Window() (window.Window, error) {
	return window.Parse(c.StartDate, c.EndDate)
}

// BatchMode reports whether a star log source is configured, which
// switches the process from serving to a one-shot seed run.
func (c *Config) BatchMode() bool {
	return c.SourceDir != "" || c.SourceDSN != ""
}
