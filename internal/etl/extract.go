package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/logging"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

// SourceKind enumerates supported extraction sources.
type SourceKind string

const (
	// SourceCSV reads a delimited text file with a header row.
	SourceCSV SourceKind = "csv"
)

// ErrUnsupportedSource is returned for source kinds the factory does not
// know.
var ErrUnsupportedSource = errors.New("unsupported source kind")

// Extractor reads raw tabular data from a named source into the canonical
// table shape.
type Extractor interface {
	Extract(ctx context.Context, source string) (*tables.Table, error)
}

// ExtractorOptions carries the source dialect.
type ExtractorOptions struct {
	Encoding  string // "utf-8" | "latin-1" | "iso-8859-1" | "windows-1252"
	Delimiter string // single-rune field separator, default ","
}

// NewExtractor creates an extractor for the given source kind.
func NewExtractor(kind SourceKind, opts ExtractorOptions) (Extractor, error) {
	switch kind {
	case SourceCSV:
		return NewCSVExtractor(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, kind)
	}
}

// CSVExtractor reads delimited text files.
type CSVExtractor struct {
	opts ExtractorOptions
	log  *slog.Logger
}

// NewCSVExtractor creates a CSV extractor.
func NewCSVExtractor(opts ExtractorOptions) *CSVExtractor {
	return &CSVExtractor{
		opts: opts,
		log:  logging.Component("extractor"),
	}
}

// Extract reads the file at source into a table. Empty cells become null;
// everything else enters as text for the transformation stages to coerce.
// Any read or parse failure is fatal to the run.
func (e *CSVExtractor) Extract(ctx context.Context, source string) (*tables.Table, error) {
	e.log.Info("extracting data", "source", source, "encoding", e.opts.Encoding)

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", source, err)
	}
	defer f.Close()

	reader, err := decodeReader(f, e.opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(reader)
	if d := e.opts.Delimiter; d != "" {
		cr.Comma = []rune(d)[0]
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", source, err)
	}
	// Strip a UTF-8 byte order mark carried into the first header cell.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	table := tables.New(header)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}

		row := make(tables.Row, len(header))
		for i, col := range header {
			if fields[i] == "" {
				row[col] = nil
			} else {
				row[col] = fields[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}

	e.log.Info("extraction complete", "source", source, "rows", len(table.Rows), "columns", len(table.Columns))
	return table, nil
}

// decodeReader wraps r with a charset decoder when the source is not
// UTF-8.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
