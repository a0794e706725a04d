package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/busmaybe/internal/domain/decision"
)

const (
	envPrefix  = "BUSMAYBE_"
	envFileVar = "BUSMAYBE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BUSMAYBE_CONFIG is set
//  3. env (prefix BUSMAYBE_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BUSMAYBE_AUDIT_QUEUE_SIZE -> audit_queue_size. Underscores are kept so
	// keys stay flat and match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.DefaultHeadwayMin <= 0:
		return invalid("default_headway_min must be positive")
	case c.AuditQueueSize <= 0:
		return invalid("audit_queue_size must be positive")
	case c.AuditWorkerCount <= 0:
		return invalid("audit_worker_count must be positive")
	case c.AuditLogSize <= 0:
		return invalid("audit_log_size must be positive")
	case c.MaxPredictionsLimit <= 0:
		return invalid("max_predictions_limit must be positive")
	case c.MaxPredictionsLimit > c.AuditLogSize:
		return invalid("max_predictions_limit must not exceed audit_log_size")
	case c.HistorySize < decision.MaxHistoryLimit:
		return invalid("history_size must be at least %d", decision.MaxHistoryLimit)
	case c.IdempotencyCacheSize <= 0:
		return invalid("idempotency_cache_size must be positive")
	case c.IdempotencyTTL <= 0:
		return invalid("idempotency_ttl must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
