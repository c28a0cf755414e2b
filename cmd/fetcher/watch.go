package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PenHsuanWang/file-data-fetcher/internal/config"
	"github.com/PenHsuanWang/file-data-fetcher/internal/dashboard"
	"github.com/PenHsuanWang/file-data-fetcher/internal/format"
	"github.com/PenHsuanWang/file-data-fetcher/internal/logging"
	"github.com/PenHsuanWang/file-data-fetcher/internal/monitor"
	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
	"github.com/PenHsuanWang/file-data-fetcher/internal/sink"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured folder and process incoming files",
	Long: `Start the folder monitor and process files until interrupted.

Each file dropped into the watched folder goes through the pipeline:

  1. Stability polling until two consecutive polls see identical
     size and modification time
  2. Content fingerprinting to skip exact duplicates
  3. Parsing (.csv via the CSV reader, .xls/.xlsx via excelize)
  4. Optional schema validation with type coercion
  5. Persistence to the configured backend

Configuration comes from a YAML file (fetcher.yaml in the working
directory by default), FETCHER_ environment variables, and the flags
below. Flags win over the file.

Example usage:
  fetcher watch                              # Use ./fetcher.yaml
  fetcher watch --config /etc/fetcher.yaml
  fetcher watch --folder ./incoming --dry-run
  fetcher watch --dashboard --dashboard-port 9090`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("config", "", "Path to config file (default: ./fetcher.yaml)")
	watchCmd.Flags().String("folder", "", "Folder to watch (overrides config)")
	watchCmd.Flags().Bool("dry-run", false, "Log records instead of persisting them")
	watchCmd.Flags().Bool("initial-scan", false, "Process files already present at startup")
	watchCmd.Flags().Bool("verify-checksum", false, "Add a content checksum to stability polls")
	watchCmd.Flags().Duration("poll-interval", 0, "Stability poll interval (overrides config)")
	watchCmd.Flags().Bool("dashboard", false, "Serve the WebSocket dashboard")
	watchCmd.Flags().Int("dashboard-port", 0, "Dashboard port (overrides config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		// With no config file at all, flags may still carry enough to run.
		// A file that exists but fails to load is always fatal.
		if configPath != "" {
			return err
		}
		if _, statErr := os.Stat("fetcher.yaml"); statErr == nil {
			return err
		}
		cfg = &config.Config{}
		if lerr := applyFlags(cmd, cfg); lerr != nil {
			return lerr
		}
		fillDefaults(cfg)
		if verr := cfg.Validate(); verr != nil {
			return verr
		}
	} else if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger, logCloser, err := logging.New("[fetcher] ", cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var schema *record.Schema
	if cfg.SchemaFile != "" {
		schema, err = record.LoadSchema(cfg.SchemaFile)
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}
		logger.Printf("Loaded schema with %d fields from %s", len(schema.Fields), cfg.SchemaFile)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var backend sink.Backend
	if cfg.DryRun {
		logger.Println("Dry run: records will be logged, not persisted")
	}
	backend, err = sink.Open(ctx, cfg.Sink, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Sink.Backend, err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := backend.Close(closeCtx); err != nil {
			logger.Printf("Backend close error: %v", err)
		}
	}()

	dispatcher, err := sink.NewDispatcher(backend, cfg.DryRun, logger)
	if err != nil {
		return err
	}

	monCfg := &monitor.Config{
		Folder:            cfg.Folder,
		Extensions:        cfg.Extensions,
		PollInterval:      cfg.PollInterval,
		MaxStabilityPolls: cfg.MaxStabilityPolls,
		VerifyChecksum:    cfg.VerifyChecksum,
		InitialScan:       cfg.InitialScan,
		ShutdownGrace:     cfg.ShutdownGrace,
		Logger:            logger,
	}

	if cfg.Dashboard.Enabled {
		server := dashboard.NewServer(&dashboard.Config{
			Port:   cfg.Dashboard.Port,
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Printf("Dashboard stop error: %v", err)
			}
		}()
		monCfg.Observer = dashboard.NewHandler(server, logger)
		logger.Printf("Dashboard: ws://%s/ws", server.GetAddr())
	}

	m, err := monitor.New(monCfg, format.DefaultRegistry(), schema, dispatcher)
	if err != nil {
		return err
	}

	fmt.Printf("Watching %s (backend: %s)\n", cfg.Folder, dispatcher.BackendName())
	fmt.Println("Press Ctrl+C to stop...")

	return m.Run(ctx)
}

// applyFlags layers explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("folder") {
		cfg.Folder, _ = cmd.Flags().GetString("folder")
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	if cmd.Flags().Changed("initial-scan") {
		cfg.InitialScan, _ = cmd.Flags().GetBool("initial-scan")
	}
	if cmd.Flags().Changed("verify-checksum") {
		cfg.VerifyChecksum, _ = cmd.Flags().GetBool("verify-checksum")
	}
	if cmd.Flags().Changed("poll-interval") {
		cfg.PollInterval, _ = cmd.Flags().GetDuration("poll-interval")
	}
	if cmd.Flags().Changed("dashboard") {
		cfg.Dashboard.Enabled, _ = cmd.Flags().GetBool("dashboard")
	}
	if cmd.Flags().Changed("dashboard-port") {
		cfg.Dashboard.Port, _ = cmd.Flags().GetInt("dashboard-port")
	}
	return nil
}

// fillDefaults covers the flags-only path where no config file was read.
func fillDefaults(cfg *config.Config) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxStabilityPolls <= 0 {
		cfg.MaxStabilityPolls = 30
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.Sink.Backend == "" {
		cfg.Sink.Backend = "sqlite"
		cfg.Sink.SQLite.Path = "fetcher.db"
		cfg.Sink.SQLite.Table = "records"
	}
	if cfg.Dashboard.Port == 0 {
		cfg.Dashboard.Port = 8080
	}
}
