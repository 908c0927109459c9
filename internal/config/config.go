// Package config defines service configuration structures and loading hooks.
//
// Two kinds of configuration live here:
//   - process configuration (listen address, database DSN, intervals),
//     layered from defaults, an optional YAML file and environment variables;
//   - the contest configuration file, a JSON document created once by
//     `config init` and immutable while the server runs.
package config

import (
	"time"
)

// Default interval and timeout values.
const (
	defaultRefreshInterval = time.Second
	defaultContestPath     = ".config.json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BasePath is the URL prefix all contest routes are mounted under,
	// e.g. "/lelec2103". Empty means routes are mounted at the root.
	BasePath string `koanf:"base_path"`

	// DatabaseDSN selects the relational store. A "postgres://" prefix
	// selects the postgres driver; anything else is treated as a sqlite
	// file path or URI.
	DatabaseDSN string `koanf:"database_dsn"`

	// ContestPath points at the contest configuration file.
	ContestPath string `koanf:"contest_path"`

	// RefreshIntervalMS sets the standings snapshot refresh period.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// PruneAfterMinutes removes submissions older than this window on each
	// scheduler pass. Zero disables pruning.
	PruneAfterMinutes int `koanf:"prune_after_minutes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		BasePath:          "/lelec2103",
		DatabaseDSN:       "file:leaderboard.db",
		ContestPath:       defaultContestPath,
		RefreshIntervalMS: int(defaultRefreshInterval / time.Millisecond),
		PruneAfterMinutes: 0,
	}
}

// RefreshInterval returns the snapshot refresh period as a duration.
func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshIntervalMS <= 0 {
		return defaultRefreshInterval
	}
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// PruneAfter returns the pruning window, or zero when pruning is disabled.
func (c *Config) PruneAfter() time.Duration {
	if c.PruneAfterMinutes <= 0 {
		return 0
	}
	return time.Duration(c.PruneAfterMinutes) * time.Minute
}
