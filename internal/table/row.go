package table

import (
	"golang.org/x/text/unicode/norm"
)

// RowMode selects how rows are handed to callers.
type RowMode int

const (
	// Structured rows support positional and column-name access.
	Structured RowMode = iota
	// Raw rows are plain value sequences with no column-name access.
	Raw
)

func (m RowMode) String() string {
	if m == Raw {
		return "raw"
	}
	return "structured"
}

// Header is the shared column metadata of the rows of one result.
// A nil *Header means raw rows.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a header for the given column names. Lookups are keyed
// by the NFC form of each name; on duplicates the first column wins.
func NewHeader(columns []string) *Header {
	h := &Header{
		names: append([]string(nil), columns...),
		index: make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		key := norm.NFC.String(name)
		if _, dup := h.index[key]; !dup {
			h.index[key] = i
		}
	}
	return h
}

// HeaderFor returns the header to attach to rows produced in mode.
func HeaderFor(columns []string, mode RowMode) *Header {
	if mode == Raw {
		return nil
	}
	return NewHeader(columns)
}

// Row is one result row.
type Row struct {
	values []any
	header *Header
}

// NewRow wraps values. Pass a nil header for a raw row.
func NewRow(values []any, header *Header) Row {
	return Row{values: values, header: header}
}

// Len returns the number of values.
func (r Row) Len() int { return len(r.values) }

// At returns the i-th value. It panics if i is out of range, like a slice index.
func (r Row) At(i int) any { return r.values[i] }

// Values returns a copy of the row's values.
func (r Row) Values() []any {
	return append([]any(nil), r.values...)
}

// Raw reports whether the row lacks column-name access.
func (r Row) Raw() bool { return r.header == nil }

// Columns returns the column names, or nil for a raw row.
func (r Row) Columns() []string {
	if r.header == nil {
		return nil
	}
	return append([]string(nil), r.header.names...)
}

// Get returns the value of the named column.
// It reports false for raw rows and unknown names.
func (r Row) Get(name string) (any, bool) {
	if r.header == nil {
		return nil, false
	}
	i, ok := r.header.index[norm.NFC.String(name)]
	if !ok || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}
