// Package catalog records pipeline runs and quality reports in an optional
// Postgres catalog. Catalog failures are surfaced as errors but callers
// treat them as warnings; the catalog never blocks a run.
package catalog

import (
	"context"
	"time"
)

// Config configures the catalog connection.
type Config struct {
	PostgresDSN string
}

// RunRecord is one pipeline invocation.
type RunRecord struct {
	ProcessID        string
	SourcePath       string
	Status           string
	RecordsProcessed int
	RecordsFailed    int
	Errors           []string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// QualityRecord is one validation pass.
type QualityRecord struct {
	ProcessID        string
	TotalRecords     int
	ValidRecords     int
	InvalidRecords   int
	NullPercentage   float64
	DuplicateRecords int
	QualityScore     float64
	Issues           []string
}

// Writer persists run and quality records.
type Writer interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	RecordQuality(ctx context.Context, rec QualityRecord) error
	Close()
}

// NewWriter returns a Postgres writer when a DSN is configured, otherwise
// a no-op writer.
func NewWriter(cfg Config) (Writer, error) {
	if cfg.PostgresDSN == "" {
		return noopWriter{}, nil
	}
	return NewPostgresWriter(cfg)
}

type noopWriter struct{}

func (noopWriter) RecordRun(context.Context, RunRecord) error         { return nil }
func (noopWriter) RecordQuality(context.Context, QualityRecord) error { return nil }
func (noopWriter) Close()                                             {}
