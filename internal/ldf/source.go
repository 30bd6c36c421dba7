// Package ldf implements beefcake's lazy dataframe abstraction: an opaque
// handle to a deferred query over a tabular source. Operations (Select,
// Filter, WithColumn, Rename, Cast, Sample, Slice, Sort, Join) return new
// LDF values; only Collect or a Sink materialises rows. An LDF never owns
// row data — two Collects of the same LDF over unchanged source content
// always produce identical DataFrames, modulo seeded sampling.
package ldf

import "github.com/beefcake-data/beefcake/internal/model"

// RowIterator yields rows one at a time (or, for in-memory sources, from a
// pre-loaded slice). Next returns ok=false with a nil error at clean EOF.
type RowIterator interface {
	Next() (model.Row, bool, error)
	Close() error
}

// Source is a deferred tabular input: its Schema is known without reading
// any rows (collect_schema never materialises data), and Open begins
// streaming rows on demand.
type Source interface {
	Schema() model.Schema
	Open() (RowIterator, error)
	// Streamable reports whether Open yields rows incrementally with
	// bounded memory (CSV, NDJSON, Parquet) as opposed to requiring the
	// whole input read up front (JSON arrays).
	Streamable() bool
}

// sliceIterator adapts a pre-loaded []model.Row to RowIterator.
type sliceIterator struct {
	rows []model.Row
	pos  int
}

func (it *sliceIterator) Next() (model.Row, bool, error) {
	if it.pos >= len(it.rows) {
		return model.Row{}, false, nil
	}
	r := it.rows[it.pos]
	it.pos++
	return r, true, nil
}

func (it *sliceIterator) Close() error { return nil }

// MemSource is a Source backed by rows already materialised in memory —
// used for JSON array input, registry snapshot replay, and tests.
type MemSource struct {
	schema model.Schema
	rows   []model.Row
}

// NewMemSource wraps schema and rows as a Source.
func NewMemSource(schema model.Schema, rows []model.Row) *MemSource {
	return &MemSource{schema: schema, rows: rows}
}

func (m *MemSource) Schema() model.Schema { return m.schema }
func (m *MemSource) Streamable() bool     { return false }
func (m *MemSource) Open() (RowIterator, error) {
	return &sliceIterator{rows: m.rows}, nil
}

// FuncSource is a Source backed by a factory function returning a fresh
// RowIterator on each Open call — used by streaming CSV/NDJSON/Parquet
// readers, which must be able to re-scan the file on a second Collect.
type FuncSource struct {
	schema     model.Schema
	open       func() (RowIterator, error)
	streamable bool
}

// NewFuncSource builds a Source whose Open delegates to openFn.
func NewFuncSource(schema model.Schema, streamable bool, openFn func() (RowIterator, error)) *FuncSource {
	return &FuncSource{schema: schema, open: openFn, streamable: streamable}
}

func (f *FuncSource) Schema() model.Schema         { return f.schema }
func (f *FuncSource) Streamable() bool             { return f.streamable }
func (f *FuncSource) Open() (RowIterator, error)   { return f.open() }
