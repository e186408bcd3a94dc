package etl

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/logging"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

// Transformer is one stage of the transformation chain. Stages consume and
// produce the canonical table shape and never mutate their input.
type Transformer interface {
	Name() string
	Transform(t *tables.Table) (*tables.Table, error)
}

// Chain applies transformers in order, feeding each stage's output into
// the next. A stage error is recorded in the run metadata and propagated;
// the partial result is discarded.
type Chain struct {
	stages []Transformer
	meta   *RunMetadata
	log    *slog.Logger
}

// NewChain builds a transformation chain.
func NewChain(stages ...Transformer) *Chain {
	return &Chain{
		stages: stages,
		log:    logging.Component("transform"),
	}
}

// WithMetadata attaches the run metadata accumulator.
func (c *Chain) WithMetadata(m *RunMetadata) *Chain {
	c.meta = m
	return c
}

// Run applies every stage in sequence.
func (c *Chain) Run(t *tables.Table) (*tables.Table, error) {
	out := t
	for _, stage := range c.stages {
		inRows, inCols := len(out.Rows), len(out.Columns)

		next, err := stage.Transform(out)
		if err != nil {
			if c.meta != nil {
				c.meta.AppendError(fmt.Sprintf("transform %s: %v", stage.Name(), err))
			}
			return nil, fmt.Errorf("transform %s: %w", stage.Name(), err)
		}

		c.log.Info("stage complete",
			"transformer", stage.Name(),
			"rows_in", inRows, "cols_in", inCols,
			"rows_out", len(next.Rows), "cols_out", len(next.Columns),
		)
		out = next
	}

	if c.meta != nil {
		c.meta.RecordsProcessed = len(out.Rows)
	}
	return out, nil
}

// StandardChain builds the canonical stage order: standardize names,
// convert types, clean, engineer features.
func StandardChain(decimalSep, thousandsSep string) *Chain {
	return NewChain(
		&ColumnStandardizer{},
		&TypeConverter{Parser: tables.NewNumericParser(decimalSep, thousandsSep)},
		&Cleaner{},
		&FeatureEngineer{},
	)
}

// ColumnStandardizer renames source-system headers to canonical snake_case
// names. Unmapped columns pass through unchanged.
type ColumnStandardizer struct{}

func (*ColumnStandardizer) Name() string { return "standardize_columns" }

func (*ColumnStandardizer) Transform(t *tables.Table) (*tables.Table, error) {
	out := t.Clone()
	renamed := 0
	for _, col := range t.Columns {
		key := strings.TrimPrefix(col, "\uFEFF")
		canonical, ok := tables.ColumnMapping[key]
		if !ok {
			continue
		}
		out.RenameColumn(col, canonical)
		renamed++
	}
	logging.Component("transform").Debug("standardized column names", "renamed", renamed)
	return out, nil
}

// TypeConverter coerces the designated numeric columns to float64 and the
// commercial year to int64, and normalizes categorical text. A column
// whose conversion fails is logged and left untouched; the run continues.
type TypeConverter struct {
	Parser tables.NumericParser
}

func (*TypeConverter) Name() string { return "convert_types" }

func (tc *TypeConverter) Transform(t *tables.Table) (*tables.Table, error) {
	out := t.Clone()
	log := logging.Component("transform")

	for _, col := range tables.NumericColumns {
		if !out.HasColumn(col) {
			continue
		}
		if err := tc.convertColumn(out, col); err != nil {
			log.Warn("failed to convert column, leaving as-is", "column", col, "error", err)
		}
	}

	if out.HasColumn(tables.YearColumn) {
		tc.convertYear(out)
	}

	for _, col := range tables.CategoricalColumns {
		if !out.HasColumn(col) {
			continue
		}
		for _, row := range out.Rows {
			s, ok := row[col].(string)
			if !ok {
				continue
			}
			if norm, ok := tables.NormalizeText(s); ok {
				row[col] = norm
			} else {
				row[col] = nil
			}
		}
	}

	return out, nil
}

// convertColumn coerces one column in place. Unparseable text becomes
// null; a cell of an unexpected type fails the whole column so it is left
// unconverted by the caller.
func (tc *TypeConverter) convertColumn(t *tables.Table, col string) error {
	converted := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		switch v := row[col].(type) {
		case nil:
			converted[i] = nil
		case float64:
			converted[i] = v
		case int64:
			converted[i] = float64(v)
		case string:
			f, present, err := tc.Parser.Parse(v)
			if err != nil || !present {
				converted[i] = nil
			} else {
				converted[i] = f
			}
		default:
			return fmt.Errorf("unexpected cell type %T in column %s", v, col)
		}
	}
	for i, row := range t.Rows {
		row[col] = converted[i]
	}
	return nil
}

// convertYear coerces the year column to int64, nulling what cannot be
// parsed.
func (tc *TypeConverter) convertYear(t *tables.Table) {
	for _, row := range t.Rows {
		switch v := row[tables.YearColumn].(type) {
		case int64:
			// already converted
		case float64:
			row[tables.YearColumn] = int64(v)
		case string:
			f, present, err := tc.Parser.Parse(v)
			if err != nil || !present {
				row[tables.YearColumn] = nil
			} else {
				row[tables.YearColumn] = int64(f)
			}
		case nil:
		default:
			row[tables.YearColumn] = nil
		}
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Cleaner drops empty rows, nulls the unknown marker everywhere, drops
// rows with no key fields at all, and normalizes whitespace in the key
// categorical fields. Running it twice yields the same table.
type Cleaner struct{}

func (*Cleaner) Name() string { return "clean" }

func (*Cleaner) Transform(t *tables.Table) (*tables.Table, error) {
	out := t.Clone()

	// Unknown marker to null, everywhere.
	for _, row := range out.Rows {
		for col, v := range row {
			if s, ok := v.(string); ok && strings.TrimSpace(s) == tables.UnknownMarker {
				row[col] = nil
			}
		}
	}

	keyFields := make([]string, 0, len(tables.RequiredFields))
	for _, col := range tables.RequiredFields {
		if out.HasColumn(col) {
			keyFields = append(keyFields, col)
		}
	}

	kept := out.Rows[:0]
	for _, row := range out.Rows {
		if rowAllNull(row, out.Columns) {
			continue
		}
		if len(keyFields) > 0 && rowAllNull(row, keyFields) {
			continue
		}
		kept = append(kept, row)
	}
	out.Rows = kept

	// Collapse internal whitespace runs in the key categorical fields.
	for _, col := range keyFields {
		for _, row := range out.Rows {
			if s, ok := row[col].(string); ok {
				row[col] = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
			}
		}
	}

	return out, nil
}

func rowAllNull(row tables.Row, cols []string) bool {
	for _, col := range cols {
		if v, ok := row[col]; ok && v != nil {
			return false
		}
	}
	return true
}
