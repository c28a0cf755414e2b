package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// SQLiteConfig configures the embedded SQLite backend.
type SQLiteConfig struct {
	// Path is the database file location. Parent directories are created.
	Path string `mapstructure:"path"`

	// Table receives one row per record (default "records").
	Table string `mapstructure:"table"`
}

// SQLiteBackend stores records in an embedded SQLite database. The database
// is opened in WAL mode so external readers can query while the monitor
// inserts.
type SQLiteBackend struct {
	conn   *sql.DB
	table  string
	logger *log.Logger
}

// OpenSQLite opens (and if needed creates) the database file and the records
// table. The caller must Close the backend when done.
func OpenSQLite(cfg SQLiteConfig, logger *log.Logger) (*SQLiteBackend, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if cfg.Table == "" {
		cfg.Table = "records"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode for concurrent readers during inserts.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	b := &SQLiteBackend{conn: conn, table: cfg.Table, logger: logger}
	if err := b.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) initSchema() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			payload     TEXT NOT NULL,
			inserted_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`, b.table)
	if _, err := b.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Name implements Backend.
func (b *SQLiteBackend) Name() string { return "sqlite" }

// Persist implements Backend. All records insert in one transaction.
func (b *SQLiteBackend) Persist(ctx context.Context, recs []record.Record) error {
	payloads, err := marshalRecords(recs)
	if err != nil {
		return err
	}

	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (payload) VALUES (?)", b.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, payload := range payloads {
		if _, err := stmt.ExecContext(ctx, string(payload)); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLiteBackend) Close(_ context.Context) error {
	return b.conn.Close()
}
