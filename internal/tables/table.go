// Package tables defines the tabular data model shared by every ETL stage:
// an ordered column set, rows of nullable cells, and the canonical SII
// empresas schema.
package tables

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Row maps a column name to a cell value. A nil value is a null cell.
// Cell values are string, float64 or int64.
type Row map[string]any

// Table is an ordered collection of rows sharing a uniform column set.
// Columns carries the column order end-to-end; stages may append columns
// but never reorder the existing ones.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given column order.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Clone returns a deep copy. Transformers operate on copies so a failed
// stage never leaves a half-mutated input behind.
func (t *Table) Clone() *Table {
	out := New(t.Columns)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// HasColumn reports whether the column is part of the table's column set.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the column set if not already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// RenameColumn renames a column in the column set and in every row.
// Unknown names are ignored.
func (t *Table) RenameColumn(from, to string) {
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
			for _, row := range t.Rows {
				if v, ok := row[from]; ok {
					row[to] = v
					delete(row, from)
				}
			}
			return
		}
	}
}

// NullCells counts null cells over the full column set.
func (t *Table) NullCells() int {
	count := 0
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if v, ok := row[col]; !ok || v == nil {
				count++
			}
		}
	}
	return count
}

// NullsInColumn counts null cells in a single column.
func (t *Table) NullsInColumn(name string) int {
	count := 0
	for _, row := range t.Rows {
		if v, ok := row[name]; !ok || v == nil {
			count++
		}
	}
	return count
}

// DuplicateRows counts rows whose full cell fingerprint has already been
// seen earlier in the table (pandas-style duplicated().sum()).
func (t *Table) DuplicateRows() int {
	seen := make(map[string]bool, len(t.Rows))
	dups := 0
	for _, row := range t.Rows {
		fp := t.fingerprint(row)
		if seen[fp] {
			dups++
		}
		seen[fp] = true
	}
	return dups
}

// fingerprint builds a stable per-row key over the column order.
func (t *Table) fingerprint(row Row) string {
	var b strings.Builder
	for _, col := range t.Columns {
		v, ok := row[col]
		if !ok || v == nil {
			b.WriteString("\x00|")
			continue
		}
		fmt.Fprintf(&b, "%v|", v)
	}
	return b.String()
}

// CellString renders a cell for delimited-text output. Null cells render
// as the empty string.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// AsFloat converts a numeric cell to float64. Returns false for null and
// non-numeric cells.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// SortedKeys returns map keys in a stable order, for deterministic issue
// messages.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
