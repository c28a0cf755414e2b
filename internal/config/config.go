// Package config loads fetcher configuration from a YAML file,
// environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/PenHsuanWang/file-data-fetcher/internal/sink"
)

// Config is the full fetcher configuration.
type Config struct {
	// Folder is the directory to watch for incoming files.
	Folder string `mapstructure:"folder"`

	// Extensions restricts which file extensions the watch reports.
	// Empty means every extension with a registered parser.
	Extensions []string `mapstructure:"extensions"`

	// PollInterval is the stability polling cadence.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// MaxStabilityPolls caps how many polls a file gets to settle.
	MaxStabilityPolls int `mapstructure:"max_stability_polls"`

	// VerifyChecksum adds a content checksum to stability samples.
	VerifyChecksum bool `mapstructure:"verify_checksum"`

	// InitialScan processes files already present at startup.
	InitialScan bool `mapstructure:"initial_scan"`

	// DryRun logs what would be persisted without touching the backend.
	DryRun bool `mapstructure:"dry_run"`

	// ShutdownGrace bounds in-flight persists after cancellation.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`

	// SchemaFile points at an optional YAML schema for validation.
	SchemaFile string `mapstructure:"schema_file"`

	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Sink      sink.Config     `mapstructure:"sink"`
}

// LogConfig controls log output and file rotation.
type LogConfig struct {
	// File is the optional log file path. Empty logs to stderr only.
	File string `mapstructure:"file"`

	// MaxSizeMB rotates the log file once it exceeds this size.
	MaxSizeMB int `mapstructure:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAgeDays prunes rotated files older than this.
	MaxAgeDays int `mapstructure:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress"`
}

// DashboardConfig controls the optional WebSocket dashboard.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port to listen on. 0 picks a random available port.
	Port int `mapstructure:"port"`
}

// envPrefix namespaces environment overrides, e.g. FETCHER_FOLDER,
// FETCHER_SINK_BACKEND.
const envPrefix = "FETCHER"

// Load reads configuration from path (optional), environment variables
// prefixed with FETCHER_, and built-in defaults, in increasing priority of
// file < env.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("max_stability_polls", 30)
	v.SetDefault("shutdown_grace", 10*time.Second)
	v.SetDefault("sink.backend", "sqlite")
	v.SetDefault("sink.sqlite.path", "fetcher.db")
	v.SetDefault("sink.sqlite.table", "records")
	v.SetDefault("sink.postgres.table", "records")
	v.SetDefault("sink.snowflake.table", "records")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("dashboard.port", 8080)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces env values for keys viper already knows
	// from a default or the config file. Credential keys usually have
	// neither, so bind every key explicitly or env-only overrides like
	// FETCHER_SINK_POSTGRES_URL never reach Unmarshal.
	for _, key := range []string{
		"folder",
		"extensions",
		"poll_interval",
		"max_stability_polls",
		"verify_checksum",
		"initial_scan",
		"dry_run",
		"shutdown_grace",
		"schema_file",
		"log.file",
		"log.max_size_mb",
		"log.max_backups",
		"log.max_age_days",
		"log.compress",
		"dashboard.enabled",
		"dashboard.port",
		"sink.backend",
		"sink.sqlite.path",
		"sink.sqlite.table",
		"sink.postgres.url",
		"sink.postgres.table",
		"sink.mongodb.uri",
		"sink.mongodb.database",
		"sink.mongodb.collection",
		"sink.snowflake.dsn",
		"sink.snowflake.table",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("fetcher")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine; defaults and env apply.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Folder == "" {
		return fmt.Errorf("folder is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxStabilityPolls <= 0 {
		return fmt.Errorf("max_stability_polls must be positive, got %d", c.MaxStabilityPolls)
	}
	if c.ShutdownGrace <= 0 {
		return fmt.Errorf("shutdown_grace must be positive, got %s", c.ShutdownGrace)
	}
	if c.Sink.Backend == "" {
		return fmt.Errorf("sink.backend is required")
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port %d out of range", c.Dashboard.Port)
	}
	return nil
}
