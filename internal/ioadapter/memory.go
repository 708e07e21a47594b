package ioadapter

import (
	"fmt"

	"tabula/internal/column"
)

// ColumnSource produces named typed columns, the read side of the
// adapter pair.
type ColumnSource interface {
	ReadColumn(name string) (column.Column, error)
	ColumnNames() []string
}

// ColumnSink consumes named typed columns, the write side.
type ColumnSink interface {
	WriteColumn(name string, col column.Column) error
}

// MemorySource is the in-memory reference ColumnSource, backed by a
// name->WireColumn map decoded lazily on first read.
type MemorySource struct {
	wire  map[string]WireColumn
	cache map[string]column.Column
}

// NewMemorySource builds a MemorySource over already-parsed wire
// columns (e.g. a fixture's `inputs` record).
func NewMemorySource(wire map[string]WireColumn) *MemorySource {
	return &MemorySource{wire: wire, cache: make(map[string]column.Column, len(wire))}
}

func (m *MemorySource) ReadColumn(name string) (column.Column, error) {
	if c, ok := m.cache[name]; ok {
		return c, nil
	}
	w, ok := m.wire[name]
	if !ok {
		return column.Column{}, fmt.Errorf("ioadapter: no column named %q", name)
	}
	c, err := DecodeColumn(w)
	if err != nil {
		return column.Column{}, fmt.Errorf("ioadapter: decode column %q: %w", name, err)
	}
	m.cache[name] = c
	return c, nil
}

func (m *MemorySource) ColumnNames() []string {
	names := make([]string, 0, len(m.wire))
	for name := range m.wire {
		names = append(names, name)
	}
	return names
}

// MemorySink is the in-memory reference ColumnSink, collecting
// written columns for later wire-encoding (e.g. building an oracle
// comparison payload or a parity-report attachment).
type MemorySink struct {
	columns map[string]column.Column
}

// NewMemorySink builds an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{columns: make(map[string]column.Column)}
}

func (m *MemorySink) WriteColumn(name string, col column.Column) error {
	m.columns[name] = col
	return nil
}

// Columns returns every column written so far.
func (m *MemorySink) Columns() map[string]column.Column { return m.columns }

// Wire re-encodes every written column back to its wire form.
func (m *MemorySink) Wire() map[string]WireColumn {
	out := make(map[string]WireColumn, len(m.columns))
	for name, c := range m.columns {
		out[name] = EncodeColumn(c)
	}
	return out
}
