// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of the defaults.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"
	_ "time/tzdata" // timezone lookups must work in scratch images
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoder: console or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// StoreTimeoutMS bounds a single store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// SchedulerEnabled turns the cron jobs on or off.
	SchedulerEnabled bool `koanf:"scheduler_enabled"`

	// DailyRefreshSchedule and SLAScanSchedule are cron expressions.
	DailyRefreshSchedule string `koanf:"daily_refresh_schedule"`
	SLAScanSchedule      string `koanf:"sla_scan_schedule"`

	// Timezone the schedules are evaluated in, e.g. "UTC" or "Europe/Berlin".
	Timezone string `koanf:"timezone"`

	// SLALookbackDays limits the SLA scan to recent matches.
	SLALookbackDays int `koanf:"sla_lookback_days"`

	// AnalyticsWindowDays is the top-vendor analytics window.
	AnalyticsWindowDays int `koanf:"analytics_window_days"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkers sets the number of delivery workers.
	NotifyWorkers int `koanf:"notify_workers"`

	// NotifyAdminEmail receives SLA warnings and matches for clients without email.
	NotifyAdminEmail string `koanf:"notify_admin_email"`

	// NotifyFromEmail is the sender address.
	NotifyFromEmail string `koanf:"notify_from_email"`

	// NATSURL enables NATS delivery when set; otherwise notifications are logged.
	NATSURL string `koanf:"nats_url"`

	// NATSSubjectPrefix is the subject root notifications are published under.
	NATSSubjectPrefix string `koanf:"nats_subject_prefix"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "console",
		Addr:                 ":9080",
		DBPath:               "vendormatch.db",
		StoreTimeoutMS:       5000,
		SchedulerEnabled:     true,
		DailyRefreshSchedule: "0 2 * * *",
		SLAScanSchedule:      "0 */6 * * *",
		Timezone:             "UTC",
		SLALookbackDays:      7,
		AnalyticsWindowDays:  30,
		NotifyQueueSize:      1024,
		NotifyWorkers:        2,
		NotifyAdminEmail:     "admin@expanders360.com",
		NotifyFromEmail:      "noreply@expanders360.com",
		NATSSubjectPrefix:    "vendormatch.notifications",
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// SLALookback returns SLALookbackDays as a duration.
func (c *Config) SLALookback() time.Duration {
	return time.Duration(c.SLALookbackDays) * 24 * time.Hour
}

// AnalyticsWindow returns AnalyticsWindowDays as a duration.
func (c *Config) AnalyticsWindow() time.Duration {
	return time.Duration(c.AnalyticsWindowDays) * 24 * time.Hour
}

// Location resolves Timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
