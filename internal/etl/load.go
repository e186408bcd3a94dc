package etl

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/config"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/logging"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/metrics"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/storage"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

// FormatKind enumerates supported output formats.
type FormatKind string

const (
	FormatCSV     FormatKind = "csv"
	FormatParquet FormatKind = "parquet"
)

// ErrUnsupportedFormat is returned for formats the loader does not know.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Producer identity stamped into destination manifests.
const (
	producerName    = "sii-empresas-etl"
	producerVersion = "0.1.0"
)

// Loader writes the processed table to the configured destinations. Each
// destination is loaded independently: one failure never blocks the others.
type Loader struct {
	store storage.Store
	meta  *RunMetadata
	log   *slog.Logger
}

// NewLoader creates a loader over the given storage backend.
func NewLoader(store storage.Store, meta *RunMetadata) *Loader {
	return &Loader{
		store: store,
		meta:  meta,
		log:   logging.Component("loader"),
	}
}

// LoadAll writes the table to every destination and reports per-destination
// success. Failures are recorded in the run metadata; the returned error is
// only non-nil for failures outside any single destination.
func (l *Loader) LoadAll(ctx context.Context, t *tables.Table, dests []config.Destination) (map[string]bool, error) {
	results := make(map[string]bool, len(dests))
	m := metrics.Get()

	for _, dest := range dests {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if err := l.loadOne(ctx, t, dest); err != nil {
			l.log.Error("load failed", "destination", dest.Name, "error", err)
			if l.meta != nil {
				l.meta.AppendError(fmt.Sprintf("load %s: %v", dest.Name, err))
			}
			if m != nil {
				m.LoadFailure.WithLabelValues(dest.Name).Inc()
			}
			results[dest.Name] = false
			continue
		}

		if m != nil {
			m.LoadSuccess.WithLabelValues(dest.Name).Inc()
		}
		results[dest.Name] = true
	}

	return results, nil
}

// loadOne encodes and writes a single destination plus its manifest. A
// manifest write failure is logged but does not fail the destination.
func (l *Loader) loadOne(ctx context.Context, t *tables.Table, dest config.Destination) error {
	start := time.Now()

	data, err := l.encode(t, dest)
	if err != nil {
		return err
	}

	if err := l.store.Write(ctx, dest.Path, data); err != nil {
		return fmt.Errorf("write %s: %w", dest.Path, err)
	}

	manifest := storage.Manifest{
		Destination: dest.Name,
		File:        dest.Path,
		Format:      dest.Format,
		Checksum:    storage.Checksum(data),
		RowCount:    int64(len(t.Rows)),
		ByteSize:    int64(len(data)),
		Producer:    storage.Producer{Name: producerName, Version: producerVersion},
		CreatedAt:   time.Now().UTC(),
	}
	if encoded, err := manifest.Encode(); err == nil {
		if err := l.store.Write(ctx, dest.Path+".manifest.json", encoded); err != nil {
			l.log.Warn("manifest write failed", "destination", dest.Name, "error", err)
		}
	}

	l.log.Info("load complete",
		"destination", dest.Name,
		"format", dest.Format,
		"uri", l.store.URI(dest.Path),
		"rows", len(t.Rows),
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return nil
}

// encode renders the table in the destination's format.
func (l *Loader) encode(t *tables.Table, dest config.Destination) ([]byte, error) {
	switch FormatKind(dest.Format) {
	case FormatCSV:
		return encodeCSV(t, dest)
	case FormatParquet:
		return encodeParquet(t, dest)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, dest.Format)
	}
}

// encodeCSV renders the table as delimited text, optionally gzipped.
func encodeCSV(t *tables.Table, dest config.Destination) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if dest.Delimiter != "" {
		w.Comma = []rune(dest.Delimiter)[0]
	}

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("encode csv header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = tables.CellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("encode csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}

	if dest.Compression != "gzip" {
		return buf.Bytes(), nil
	}

	var gzBuf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&gzBuf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("gzip init: %w", err)
	}
	if _, err := gz.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return gzBuf.Bytes(), nil
}

// encodeParquet renders the table as a parquet file, snappy-compressed
// unless disabled.
func encodeParquet(t *tables.Table, dest config.Destination) ([]byte, error) {
	rows := tables.RowsFromTable(t)

	var buf bytes.Buffer
	var wr *parquet.GenericWriter[tables.EmpresaRow]
	if dest.Compression == "none" {
		wr = parquet.NewGenericWriter[tables.EmpresaRow](&buf)
	} else {
		wr = parquet.NewGenericWriter[tables.EmpresaRow](&buf, parquet.Compression(&parquet.Snappy))
	}

	if len(rows) > 0 {
		if _, err := wr.Write(rows); err != nil {
			return nil, fmt.Errorf("encode parquet: %w", err)
		}
	}
	if err := wr.Close(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return buf.Bytes(), nil
}
