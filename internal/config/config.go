// Package config loads the daemon's tuning file. Fields are pointers so a
// partial JSON file overrides only what it names; the Get accessors fall
// back to compiled defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tremor-data/quakewatch/internal/feed"
	"github.com/tremor-data/quakewatch/internal/quake"
)

// Defaults not owned by the clustering core.
const (
	DefaultListenAddr = ":8080"
	DefaultDBPath     = "quakewatch.db"
	DefaultMigrations = "migrations"
)

// Config is the root configuration. The JSON schema mirrors the engine's
// configuration surface plus the daemon's I/O settings.
type Config struct {
	// Clustering engine.
	WindowMinutes  *int     `json:"window_minutes,omitempty"`
	EpsilonKm      *float64 `json:"epsilon_km,omitempty"`
	MinPoints      *int     `json:"min_points,omitempty"`
	MinClusterSize *int     `json:"min_cluster_size,omitempty"`
	RadiusMargin   *float64 `json:"radius_safety_margin,omitempty"`

	// Feed poller.
	FeedURL      *string `json:"feed_url,omitempty"`
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "30s"

	// Daemon I/O.
	ListenAddr    *string `json:"listen,omitempty"`
	DBPath        *string `json:"db_path,omitempty"`
	MigrationsDir *string `json:"migrations_dir,omitempty"`
}

// Load reads and validates a config file. An empty path yields a config of
// pure defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges on any values present.
func (c *Config) Validate() error {
	if c.WindowMinutes != nil && *c.WindowMinutes <= 0 {
		return fmt.Errorf("window_minutes must be positive, got %d", *c.WindowMinutes)
	}
	if c.EpsilonKm != nil && *c.EpsilonKm <= 0 {
		return fmt.Errorf("epsilon_km must be positive, got %f", *c.EpsilonKm)
	}
	if c.MinPoints != nil && *c.MinPoints < 1 {
		return fmt.Errorf("min_points must be at least 1, got %d", *c.MinPoints)
	}
	if c.MinClusterSize != nil && *c.MinClusterSize < 1 {
		return fmt.Errorf("min_cluster_size must be at least 1, got %d", *c.MinClusterSize)
	}
	if c.RadiusMargin != nil && *c.RadiusMargin < 1.0 {
		return fmt.Errorf("radius_safety_margin must be >= 1.0, got %f", *c.RadiusMargin)
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		if _, err := time.ParseDuration(*c.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval %q: %w", *c.PollInterval, err)
		}
	}
	return nil
}

// EngineParams assembles the clustering parameters with defaults applied.
func (c *Config) EngineParams() quake.Params {
	p := quake.DefaultParams()
	if c.WindowMinutes != nil {
		p.WindowMinutes = *c.WindowMinutes
	}
	if c.EpsilonKm != nil {
		p.EpsilonKm = *c.EpsilonKm
	}
	if c.MinPoints != nil {
		p.MinPoints = *c.MinPoints
	}
	if c.MinClusterSize != nil {
		p.MinClusterSize = *c.MinClusterSize
	}
	if c.RadiusMargin != nil {
		p.RadiusMargin = *c.RadiusMargin
	}
	return p
}

// GetFeedURL returns the feed URL, defaulting to the USGS hourly feed.
func (c *Config) GetFeedURL() string {
	if c.FeedURL != nil && *c.FeedURL != "" {
		return *c.FeedURL
	}
	return feed.DefaultFeedURL
}

// GetPollInterval returns the poll interval. Validate has already checked
// the duration string parses.
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval != nil && *c.PollInterval != "" {
		if d, err := time.ParseDuration(*c.PollInterval); err == nil {
			return d
		}
	}
	return feed.DefaultPollInterval
}

// GetListenAddr returns the HTTP listen address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr != nil && *c.ListenAddr != "" {
		return *c.ListenAddr
	}
	return DefaultListenAddr
}

// GetDBPath returns the archive database path.
func (c *Config) GetDBPath() string {
	if c.DBPath != nil && *c.DBPath != "" {
		return *c.DBPath
	}
	return DefaultDBPath
}

// GetMigrationsDir returns the schema migrations directory.
func (c *Config) GetMigrationsDir() string {
	if c.MigrationsDir != nil && *c.MigrationsDir != "" {
		return *c.MigrationsDir
	}
	return DefaultMigrations
}
