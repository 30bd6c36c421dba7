package ldf

import "github.com/beefcake-data/beefcake/internal/model"

// RowWriter is implemented by format-specific sinks (internal/loader's CSV
// and NDJSON writers, internal/parquetio's Parquet writer). WriteHeader is
// called exactly once before any WriteRow call.
type RowWriter interface {
	WriteHeader(schema model.Schema) error
	WriteRow(model.Row) error
	Close() error
}

// RowGroupFlusher is implemented by sinks whose underlying format benefits
// from periodic flush boundaries (Parquet row groups). Sink calls Flush
// every RowGroupSize rows when the writer implements it.
type RowGroupFlusher interface {
	Flush() error
}

// RowGroupSize picks the row-group length used when streaming to a
// row-group-aware sink: wide frames use smaller groups to keep
// per-group memory bounded.
func RowGroupSize(numCols int) int {
	switch {
	case numCols <= 16:
		return 65536
	case numCols <= 64:
		return 32768
	default:
		return 16384
	}
}

// Sink runs the plan to completion, writing every output row to w. When
// the plan is Streamable, rows are produced and written one at a time
// with bounded memory; otherwise the plan is fully collected first and
// then written, since a materialising op (sample, sort, join, slice) already
// requires the whole row set in memory.
func (l *LDF) Sink(w RowWriter) error {
	schema := l.CollectSchema()
	if err := w.WriteHeader(schema); err != nil {
		return model.Context(model.ErrIo, "ldf.sink.write_header", err)
	}

	groupSize := RowGroupSize(len(schema.Fields))
	flusher, flushable := w.(RowGroupFlusher)

	writeRow := func(row model.Row, i int) error {
		if err := w.WriteRow(row); err != nil {
			return model.Context(model.ErrIo, "ldf.sink.write_row", err)
		}
		if flushable && (i+1)%groupSize == 0 {
			if err := flusher.Flush(); err != nil {
				return model.Context(model.ErrIo, "ldf.sink.flush", err)
			}
		}
		return nil
	}

	if l.Streamable() {
		return l.sinkStreaming(writeRow)
	}

	rows, _, err := l.collectRows()
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(row, i); err != nil {
			return err
		}
	}
	return nil
}

// sinkStreaming runs every queued op as a per-row pipeline stage without
// ever buffering the full row set, requiring Streamable() to already hold.
func (l *LDF) sinkStreaming(writeRow func(model.Row, int) error) error {
	it, err := l.source.Open()
	if err != nil {
		return model.Context(model.ErrIo, "ldf.sink.open", err)
	}
	defer it.Close()

	schema := l.source.Schema().Clone()
	i := 0
	for {
		row, ok, err := it.Next()
		if err != nil {
			return model.Context(model.ErrIo, "ldf.sink.read_row", err)
		}
		if !ok {
			break
		}

		keep := true
		cur := row
		curSchema := schema
		for _, op := range l.ops {
			if op.Kind == OpFilter {
				ok, err := op.Predicate(cur, curSchema)
				if err != nil {
					return err
				}
				if !ok {
					keep = false
					break
				}
				continue
			}
			rowsOut, newSchema, err := applyOp([]model.Row{cur}, curSchema, op)
			if err != nil {
				return err
			}
			if len(rowsOut) == 0 {
				keep = false
				break
			}
			cur = rowsOut[0]
			curSchema = newSchema
		}
		if !keep {
			continue
		}
		if err := writeRow(cur, i); err != nil {
			return err
		}
		i++
	}
	return nil
}
