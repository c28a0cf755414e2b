package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PenHsuanWang/file-data-fetcher/internal/sink"
)

// TestLoadFromFile verifies that a YAML config file populates every
// section.
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fetcher.yaml")
	yaml := `folder: /data/incoming
extensions: [".csv", ".xlsx"]
poll_interval: 5s
max_stability_polls: 12
verify_checksum: true
initial_scan: true
dry_run: true
shutdown_grace: 30s
schema_file: schema.yaml
log:
  file: fetcher.log
  max_size_mb: 50
  max_backups: 3
  compress: true
dashboard:
  enabled: true
  port: 9090
sink:
  backend: postgres
  postgres:
    url: postgres://localhost/fetcher
    table: incoming
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Folder != "/data/incoming" {
		t.Errorf("Folder = %q", cfg.Folder)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".csv" {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %s, want 5s", cfg.PollInterval)
	}
	if cfg.MaxStabilityPolls != 12 {
		t.Errorf("MaxStabilityPolls = %d, want 12", cfg.MaxStabilityPolls)
	}
	if !cfg.VerifyChecksum || !cfg.InitialScan || !cfg.DryRun {
		t.Error("boolean flags not loaded")
	}
	if cfg.ShutdownGrace != 30*time.Second {
		t.Errorf("ShutdownGrace = %s, want 30s", cfg.ShutdownGrace)
	}
	if cfg.SchemaFile != "schema.yaml" {
		t.Errorf("SchemaFile = %q", cfg.SchemaFile)
	}
	if cfg.Log.File != "fetcher.log" || cfg.Log.MaxSizeMB != 50 || cfg.Log.MaxBackups != 3 || !cfg.Log.Compress {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.Port != 9090 {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
	if cfg.Sink.Backend != "postgres" {
		t.Errorf("Sink.Backend = %q, want postgres", cfg.Sink.Backend)
	}
	if cfg.Sink.Postgres.URL != "postgres://localhost/fetcher" || cfg.Sink.Postgres.Table != "incoming" {
		t.Errorf("Sink.Postgres = %+v", cfg.Sink.Postgres)
	}
}

// TestLoadDefaults verifies defaults fill everything the file omits.
func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fetcher.yaml")
	if err := os.WriteFile(path, []byte("folder: /data\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.PollInterval != 2*time.Second {
		t.Errorf("default PollInterval = %s, want 2s", cfg.PollInterval)
	}
	if cfg.MaxStabilityPolls != 30 {
		t.Errorf("default MaxStabilityPolls = %d, want 30", cfg.MaxStabilityPolls)
	}
	if cfg.ShutdownGrace != 10*time.Second {
		t.Errorf("default ShutdownGrace = %s, want 10s", cfg.ShutdownGrace)
	}
	if cfg.Sink.Backend != "sqlite" {
		t.Errorf("default backend = %q, want sqlite", cfg.Sink.Backend)
	}
	if cfg.Sink.SQLite.Path != "fetcher.db" || cfg.Sink.SQLite.Table != "records" {
		t.Errorf("default SQLite = %+v", cfg.Sink.SQLite)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("default dashboard port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.DryRun || cfg.VerifyChecksum || cfg.InitialScan || cfg.Dashboard.Enabled {
		t.Error("boolean flags should default to off")
	}
}

// TestLoadEnvOverride verifies FETCHER_ environment variables beat file
// values.
func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fetcher.yaml")
	if err := os.WriteFile(path, []byte("folder: /data\npoll_interval: 5s\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("FETCHER_POLL_INTERVAL", "250ms")
	t.Setenv("FETCHER_SINK_BACKEND", "mongodb")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %s, want env override 250ms", cfg.PollInterval)
	}
	if cfg.Sink.Backend != "mongodb" {
		t.Errorf("Sink.Backend = %q, want env override mongodb", cfg.Sink.Backend)
	}
}

// TestLoadEnvOnlyCredentials verifies env values bind for keys that have no
// default and no config-file value, which is how backend credentials are
// expected to arrive.
func TestLoadEnvOnlyCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fetcher.yaml")
	yaml := `folder: /data
sink:
  backend: postgres
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("FETCHER_SINK_POSTGRES_URL", "postgres://u:p@db:5432/x")
	t.Setenv("FETCHER_SINK_MONGODB_URI", "mongodb://db:27017")
	t.Setenv("FETCHER_SINK_SNOWFLAKE_DSN", "user:pass@account/db")
	t.Setenv("FETCHER_SCHEMA_FILE", "/etc/fetcher/schema.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Sink.Postgres.URL != "postgres://u:p@db:5432/x" {
		t.Errorf("Sink.Postgres.URL = %q, want env credential value", cfg.Sink.Postgres.URL)
	}
	if cfg.Sink.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("Sink.Mongo.URI = %q, want env credential value", cfg.Sink.Mongo.URI)
	}
	if cfg.Sink.Snowflake.DSN != "user:pass@account/db" {
		t.Errorf("Sink.Snowflake.DSN = %q, want env credential value", cfg.Sink.Snowflake.DSN)
	}
	if cfg.SchemaFile != "/etc/fetcher/schema.yaml" {
		t.Errorf("SchemaFile = %q, want env value", cfg.SchemaFile)
	}
}

// TestLoadErrors verifies file and validation failures surface.
func TestLoadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/fetcher.yaml"); err == nil {
		t.Error("Load() should fail for a missing explicit file")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(": not yaml ["), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load() should fail for malformed YAML")
	}
}

// TestValidate exercises cross-field checks directly.
func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Folder:            "/data",
			PollInterval:      time.Second,
			MaxStabilityPolls: 10,
			ShutdownGrace:     time.Second,
			Sink:              sink.Config{Backend: "sqlite"},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name  string
		amend func(*Config)
	}{
		{"empty folder", func(c *Config) { c.Folder = "" }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"negative polls", func(c *Config) { c.MaxStabilityPolls = -1 }},
		{"zero grace", func(c *Config) { c.ShutdownGrace = 0 }},
		{"no backend", func(c *Config) { c.Sink.Backend = "" }},
		{"bad port", func(c *Config) { c.Dashboard.Port = 70000 }},
	}
	for _, tc := range cases {
		cfg := valid()
		tc.amend(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() should fail", tc.name)
		}
	}
}
