package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/snowflakedb/gosnowflake"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// SnowflakeConfig configures the Snowflake backend.
type SnowflakeConfig struct {
	// DSN is a gosnowflake connection string, e.g.
	// user:password@account/database/schema?warehouse=wh
	DSN string `mapstructure:"dsn"`

	// Table receives one row per record (default "RECORDS").
	Table string `mapstructure:"table"`
}

// SnowflakeBackend stores records as VARIANT rows via the gosnowflake
// database/sql driver.
type SnowflakeBackend struct {
	conn   *sql.DB
	table  string
	logger *log.Logger
}

// OpenSnowflake connects to Snowflake and ensures the records table exists.
func OpenSnowflake(cfg SnowflakeConfig, logger *log.Logger) (*SnowflakeBackend, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("snowflake dsn cannot be empty")
	}
	if cfg.Table == "" {
		cfg.Table = "RECORDS"
	}

	conn, err := sql.Open("snowflake", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping snowflake: %w", err)
	}

	b := &SnowflakeBackend{conn: conn, table: cfg.Table, logger: logger}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			PAYLOAD     VARIANT,
			INSERTED_AT TIMESTAMP_TZ DEFAULT CURRENT_TIMESTAMP()
		)`, b.table)
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return b, nil
}

// Name implements Backend.
func (b *SnowflakeBackend) Name() string { return "snowflake" }

// Persist implements Backend.
func (b *SnowflakeBackend) Persist(ctx context.Context, recs []record.Record) error {
	payloads, err := marshalRecords(recs)
	if err != nil {
		return err
	}

	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf("INSERT INTO %s (PAYLOAD) SELECT PARSE_JSON(?)", b.table)
	for _, payload := range payloads {
		if _, err := tx.ExecContext(ctx, insert, string(payload)); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *SnowflakeBackend) Close(_ context.Context) error {
	return b.conn.Close()
}
