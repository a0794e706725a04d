// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML file
// named by BUSMAYBE_CONFIG, then BUSMAYBE_* environment variables.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone used for service-hour checks and history
	// timestamps. "Local" uses the host zone.
	Timezone string `koanf:"timezone"`

	// GTFSPath optionally points at a GTFS static zip. Empty means the
	// bundled demo registry is served.
	GTFSPath string `koanf:"gtfs_path"`

	// DefaultHeadwayMin is used for GTFS routes with fewer than two trips.
	DefaultHeadwayMin float64 `koanf:"default_headway_min"`

	// AuditQueueSize bounds the in-memory prediction audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of audit workers.
	AuditWorkerCount int `koanf:"audit_worker_count"`

	// AuditLogSize is how many recent predictions are retained.
	AuditLogSize int `koanf:"audit_log_size"`

	// MaxPredictionsLimit caps GET /predictions?limit.
	MaxPredictionsLimit int `koanf:"max_predictions_limit"`

	// HistorySize bounds the decision history. It must cover the largest
	// /history read.
	HistorySize int `koanf:"history_size"`

	// IdempotencyCacheSize and IdempotencyTTL bound the meal idempotency keys.
	IdempotencyCacheSize int           `koanf:"idempotency_cache_size"`
	IdempotencyTTL       time.Duration `koanf:"idempotency_ttl"`

	// RandomSeed seeds the decision picker. Zero seeds from the clock.
	RandomSeed int64 `koanf:"random_seed"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":5000",
		Timezone:             "Local",
		DefaultHeadwayMin:    15,
		AuditQueueSize:       1024,
		AuditWorkerCount:     2,
		AuditLogSize:         500,
		MaxPredictionsLimit:  100,
		HistorySize:          500,
		IdempotencyCacheSize: 10_000,
		IdempotencyTTL:       10 * time.Minute,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
