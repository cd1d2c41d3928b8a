// Package table provides the materialized form of a query result and its
// text renderings.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

var (
	// ErrShape reports a row whose width differs from the column count.
	ErrShape = errors.New("row width does not match columns")

	// ErrFormat reports an unsupported render format.
	ErrFormat = errors.New("unsupported format")
)

// Format names a rendering of a Table.
type Format string

// FormatCSV renders a header record followed by one record per row.
const FormatCSV Format = "csv"

// Table is an ordered set of columns and rows. Every row has exactly as
// many values as there are columns.
type Table struct {
	header *Header
	mode   RowMode
	rows   []Row
}

// New returns an empty table with the given columns.
func New(columns []string, mode RowMode) *Table {
	return &Table{header: NewHeader(columns), mode: mode}
}

// FromValues builds a table from a value grid.
func FromValues(columns []string, mode RowMode, values [][]any) (*Table, error) {
	t := New(columns, mode)
	for _, v := range values {
		if err := t.Append(v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a copy of values as the last row.
func (t *Table) Append(values []any) error {
	if len(values) != len(t.header.names) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrShape, len(values), len(t.header.names))
	}
	var h *Header
	if t.mode == Structured {
		h = t.header
	}
	t.rows = append(t.rows, NewRow(append([]any(nil), values...), h))
	return nil
}

// Columns returns the column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.header.names...)
}

// Mode returns the row mode rows are handed out in.
func (t *Table) Mode() RowMode { return t.mode }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in order.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

// Values returns the rows as a value grid.
func (t *Table) Values() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Values()
	}
	return out
}

// Render formats the table. Only FormatCSV is supported.
func (t *Table) Render(format Format) (string, error) {
	switch format {
	case FormatCSV:
		return t.renderCSV()
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

func (t *Table) renderCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.header.names); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.header.names))
	for _, r := range t.rows {
		for i, v := range r.values {
			record[i] = FormatValue(v)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// FormatValue renders a single value as text. NULL renders as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
