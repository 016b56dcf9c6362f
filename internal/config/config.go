// Package config handles configuration loading using viper: an
// optional YAML file, KESTREL_-prefixed environment overrides, defaults
// and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/core"
	"github.com/kestrel-net/kestrel/internal/log"
)

// Config is the root configuration.
type Config struct {
	Capture   capture.Options  `mapstructure:"capture" yaml:"capture"`
	Stats     StatsConfig      `mapstructure:"stats" yaml:"stats"`
	Dashboard DashboardConfig  `mapstructure:"dashboard" yaml:"dashboard"`
	Logging   log.LoggerConfig `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// StatsConfig tunes the aggregation store.
type StatsConfig struct {
	// MaxConnections caps the connection table with LRU eviction.
	// Zero keeps every connection for the process lifetime.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`
}

// DashboardConfig tunes the terminal dashboard.
type DashboardConfig struct {
	RefreshMs int `mapstructure:"refresh_ms" yaml:"refresh_ms"`
	BarWidth  int `mapstructure:"bar_width" yaml:"bar_width"`
	TopN      int `mapstructure:"top_n" yaml:"top_n"`
}

// Refresh returns the dashboard refresh interval as a duration.
func (c DashboardConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshMs) * time.Millisecond
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Load reads the configuration. An empty path loads defaults plus
// environment overrides only; a given path must exist and parse.
// Environment variables use the KESTREL_ prefix with underscores for
// key separators (KESTREL_CAPTURE_SNAP_LEN overrides capture.snap_len).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KESTREL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.backend", capture.DefaultBackend)
	v.SetDefault("capture.snap_len", capture.DefaultSnapLen)
	v.SetDefault("capture.promiscuous", true)
	v.SetDefault("capture.timeout_ms", capture.DefaultTimeoutMs)

	v.SetDefault("stats.max_connections", 0)

	v.SetDefault("dashboard.refresh_ms", 1000)
	v.SetDefault("dashboard.bar_width", 40)
	v.SetDefault("dashboard.top_n", 10)

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9110")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate rejects values the capture and rendering layers cannot work
// with. Every failure wraps core.ErrConfigInvalid.
func (c *Config) Validate() error {
	if c.Capture.SnapLen < capture.MinSnapLen {
		return fmt.Errorf("%w: capture.snap_len %d below minimum %d",
			core.ErrConfigInvalid, c.Capture.SnapLen, capture.MinSnapLen)
	}
	if c.Capture.TimeoutMs <= 0 {
		return fmt.Errorf("%w: capture.timeout_ms must be positive, got %d",
			core.ErrConfigInvalid, c.Capture.TimeoutMs)
	}
	if c.Stats.MaxConnections < 0 {
		return fmt.Errorf("%w: stats.max_connections must not be negative, got %d",
			core.ErrConfigInvalid, c.Stats.MaxConnections)
	}
	if c.Dashboard.RefreshMs <= 0 {
		return fmt.Errorf("%w: dashboard.refresh_ms must be positive, got %d",
			core.ErrConfigInvalid, c.Dashboard.RefreshMs)
	}
	if c.Dashboard.BarWidth <= 0 {
		return fmt.Errorf("%w: dashboard.bar_width must be positive, got %d",
			core.ErrConfigInvalid, c.Dashboard.BarWidth)
	}
	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("%w: dashboard.top_n must be positive, got %d",
			core.ErrConfigInvalid, c.Dashboard.TopN)
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen required when metrics are enabled",
			core.ErrConfigInvalid)
	}
	return nil
}
