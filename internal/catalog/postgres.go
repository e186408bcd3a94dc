package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// PostgresWriter implements Writer using PostgreSQL.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

// NewPostgresWriter connects to the catalog and ensures the schema exists.
func NewPostgresWriter(cfg Config) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresWriter{pool: pool}, nil
}

// RecordRun upserts one pipeline invocation keyed by process ID, so a run
// can be recorded at start and updated on completion.
func (w *PostgresWriter) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO etl_runs
			(process_id, source_path, status, records_processed, records_failed, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (process_id) DO UPDATE SET
			status            = EXCLUDED.status,
			records_processed = EXCLUDED.records_processed,
			records_failed    = EXCLUDED.records_failed,
			errors            = EXCLUDED.errors,
			finished_at       = EXCLUDED.finished_at`,
		rec.ProcessID, rec.SourcePath, rec.Status, rec.RecordsProcessed,
		rec.RecordsFailed, rec.Errors, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ProcessID, err)
	}
	return nil
}

// RecordQuality inserts one validation pass.
func (w *PostgresWriter) RecordQuality(ctx context.Context, rec QualityRecord) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO etl_quality_reports
			(process_id, total_records, valid_records, invalid_records,
			 null_percentage, duplicate_records, quality_score, issues)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ProcessID, rec.TotalRecords, rec.ValidRecords, rec.InvalidRecords,
		rec.NullPercentage, rec.DuplicateRecords, rec.QualityScore, rec.Issues)
	if err != nil {
		return fmt.Errorf("record quality for %s: %w", rec.ProcessID, err)
	}
	return nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() {
	w.pool.Close()
}
