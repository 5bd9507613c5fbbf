package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Environment variable names.
const (
	EnvPrefix = "VENDORMATCH_"
	EnvConfig = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VENDORMATCH_CONFIG is set
//  3. env (prefix VENDORMATCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// VENDORMATCH_DB_PATH -> db_path. Underscores are kept to match the flat
	// koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
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

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.StoreTimeoutMS <= 0:
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalidConfig)
	case c.SLALookbackDays <= 0:
		return fmt.Errorf("%w: sla_lookback_days must be positive", ErrInvalidConfig)
	case c.AnalyticsWindowDays <= 0:
		return fmt.Errorf("%w: analytics_window_days must be positive", ErrInvalidConfig)
	case c.NotifyQueueSize <= 0:
		return fmt.Errorf("%w: notify_queue_size must be positive", ErrInvalidConfig)
	case c.NotifyWorkers < 0:
		return fmt.Errorf("%w: notify_workers must not be negative", ErrInvalidConfig)
	}

	for key, spec := range map[string]string{
		"daily_refresh_schedule": c.DailyRefreshSchedule,
		"sla_scan_schedule":      c.SLAScanSchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidConfig, key, spec, err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}
