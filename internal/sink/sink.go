// Package sink forwards validated records to the configured persistence
// backend.
//
// A Backend is a single-active-implementation strategy selected at startup
// from configuration. The Dispatcher in front of it guarantees Persist is
// called at most once per validated record set and supports a dry-run mode
// that logs the would-be payload instead of committing it.
//
// Backends own their connection lifecycle and any retry or batching policy;
// the dispatcher never re-attempts a failed persist on its own.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// Backend persists validated records to one storage system.
type Backend interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Persist writes the records. An error means nothing durable is
	// guaranteed; the caller treats it as a PersistError for the task.
	Persist(ctx context.Context, recs []record.Record) error

	// Close releases connections. Safe to call once after the last Persist.
	Close(ctx context.Context) error
}

// Config selects and configures the active backend.
type Config struct {
	// Backend is one of "sqlite", "postgres", "mongodb", "snowflake".
	Backend string `mapstructure:"backend"`

	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Mongo     MongoConfig     `mapstructure:"mongodb"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake"`
}

// Open instantiates the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Backend, error) {
	if logger == nil {
		logger = log.Default()
	}

	switch cfg.Backend {
	case "sqlite":
		return OpenSQLite(cfg.SQLite, logger)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg.Postgres, logger)
	case "mongodb", "mongo":
		return OpenMongo(ctx, cfg.Mongo, logger)
	case "snowflake":
		return OpenSnowflake(cfg.Snowflake, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Dispatcher hands a validated record set to the active backend exactly once
// per call, or logs it and returns nil when dry-run is enabled.
type Dispatcher struct {
	backend Backend
	dryRun  bool
	logger  *log.Logger
}

// NewDispatcher creates a dispatcher in front of the given backend.
func NewDispatcher(backend Backend, dryRun bool, logger *log.Logger) (*Dispatcher, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{backend: backend, dryRun: dryRun, logger: logger}, nil
}

// DryRun reports whether dispatches are logged instead of persisted.
func (d *Dispatcher) DryRun() bool { return d.dryRun }

// BackendName returns the active backend's name.
func (d *Dispatcher) BackendName() string { return d.backend.Name() }

// Dispatch persists recs, attributing them to source in logs. In dry-run
// mode it logs the payload and returns nil without touching the backend.
func (d *Dispatcher) Dispatch(ctx context.Context, source string, recs []record.Record) error {
	if d.dryRun {
		payload, err := json.Marshal(recs)
		if err != nil {
			payload = []byte(fmt.Sprintf("<unmarshalable: %v>", err))
		}
		d.logger.Printf("Dry run: validated %d records from %s, payload: %s", len(recs), source, payload)
		return nil
	}

	if err := d.backend.Persist(ctx, recs); err != nil {
		return fmt.Errorf("backend %s failed to persist %d records from %s: %w",
			d.backend.Name(), len(recs), source, err)
	}

	d.logger.Printf("Persisted %d records from %s to %s", len(recs), source, d.backend.Name())
	return nil
}

// marshalRecords encodes each record as a JSON document. Shared by the SQL
// backends, which store one JSON payload per row.
func marshalRecords(recs []record.Record) ([][]byte, error) {
	out := make([][]byte, 0, len(recs))
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %d: %w", i+1, err)
		}
		out = append(out, data)
	}
	return out, nil
}
