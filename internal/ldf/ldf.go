package ldf

import (
	"fmt"
	"sort"

	"github.com/beefcake-data/beefcake/internal/model"
)

// OpKind enumerates the closed set of lazy operations an LDF can queue.
// This mirrors the step algebra in internal/pipelinespec but operates on
// live Go values (predicates, compute funcs) rather than serialised JSON.
type OpKind int

const (
	OpSelect OpKind = iota
	OpDropColumns
	OpFilter
	OpWithColumn
	OpRename
	OpCast
	OpSample
	OpSlice
	OpSort
	OpJoin
)

// Predicate tests one row for inclusion under Filter.
type Predicate func(model.Row, model.Schema) (bool, error)

// Compute derives a new column's value from a row under WithColumn.
type Compute func(model.Row, model.Schema) (model.Value, error)

// Op is one queued lazy operation. Only the fields relevant to Kind are
// populated; the rest are zero.
type Op struct {
	Kind OpKind

	// OpSelect / OpDropColumns
	Columns []string

	// OpFilter
	Predicate Predicate

	// OpWithColumn
	NewColName string
	NewColType model.DType
	Compute    Compute

	// OpRename
	RenameMap map[string]string

	// OpCast
	CastCol  string
	CastType model.DType

	// OpSample
	SampleN    int
	SampleSeed int64

	// OpSlice
	SliceOffset int
	SliceLen    int

	// OpSort
	SortCol  string
	SortDesc bool

	// OpJoin
	JoinOther *LDF
	JoinOn    string
	JoinHow   string // "inner" or "left"
}

// materialising reports whether this op requires the whole upstream row
// set to be known before it can produce output (sample, sort, join,
// slice), as opposed to processing rows one at a time (select, filter,
// with_column, rename, cast).
func (o Op) materialising() bool {
	switch o.Kind {
	case OpSample, OpSort, OpJoin, OpSlice:
		return true
	default:
		return false
	}
}

// LDF is a deferred query over a Source: an ordered list of Ops plus a
// cached output schema. Building an LDF never reads a row; only Collect
// or a Sink does.
type LDF struct {
	source Source
	ops    []Op
	schema model.Schema
}

// FromSource starts a new lazy plan over src with no ops queued.
func FromSource(src Source) *LDF {
	return &LDF{source: src, schema: src.Schema().Clone()}
}

// clone returns a copy of l with op appended, recomputing the cached
// schema for ops that change it.
func (l *LDF) clone(op Op) *LDF {
	next := &LDF{
		source: l.source,
		ops:    append(append([]Op{}, l.ops...), op),
		schema: l.schema.Clone(),
	}
	next.schema = applySchema(next.schema, op)
	return next
}

func applySchema(s model.Schema, op Op) model.Schema {
	switch op.Kind {
	case OpSelect:
		fields := make([]model.Field, 0, len(op.Columns))
		for _, name := range op.Columns {
			if i := s.IndexOf(name); i >= 0 {
				fields = append(fields, s.Fields[i])
			}
		}
		return model.Schema{Fields: fields}
	case OpDropColumns:
		drop := make(map[string]bool, len(op.Columns))
		for _, c := range op.Columns {
			drop[c] = true
		}
		fields := make([]model.Field, 0, len(s.Fields))
		for _, f := range s.Fields {
			if !drop[f.Name] {
				fields = append(fields, f)
			}
		}
		return model.Schema{Fields: fields}
	case OpWithColumn:
		fields := append([]model.Field{}, s.Fields...)
		if i := s.IndexOf(op.NewColName); i >= 0 {
			fields[i] = model.Field{Name: op.NewColName, DType: op.NewColType}
		} else {
			fields = append(fields, model.Field{Name: op.NewColName, DType: op.NewColType})
		}
		return model.Schema{Fields: fields}
	case OpRename:
		fields := make([]model.Field, len(s.Fields))
		for i, f := range s.Fields {
			if newName, ok := op.RenameMap[f.Name]; ok {
				f.Name = newName
			}
			fields[i] = f
		}
		return model.Schema{Fields: fields}
	case OpCast:
		fields := append([]model.Field{}, s.Fields...)
		if i := s.IndexOf(op.CastCol); i >= 0 {
			fields[i].DType = op.CastType
		}
		return model.Schema{Fields: fields}
	case OpJoin:
		fields := append([]model.Field{}, s.Fields...)
		other := op.JoinOther.schema
		for _, f := range other.Fields {
			if f.Name == op.JoinOn {
				continue
			}
			if s.IndexOf(f.Name) >= 0 {
				f.Name = f.Name + "_right"
			}
			fields = append(fields, f)
		}
		return model.Schema{Fields: fields}
	default:
		return s
	}
}

// CollectSchema returns the plan's output schema without reading any rows.
func (l *LDF) CollectSchema() model.Schema { return l.schema.Clone() }

// Select keeps only the named columns, in the given order.
func (l *LDF) Select(columns ...string) *LDF {
	return l.clone(Op{Kind: OpSelect, Columns: columns})
}

// DropColumns removes the named columns, keeping the rest in place.
func (l *LDF) DropColumns(columns ...string) *LDF {
	return l.clone(Op{Kind: OpDropColumns, Columns: columns})
}

// Filter keeps only rows for which pred returns true.
func (l *LDF) Filter(pred Predicate) *LDF {
	return l.clone(Op{Kind: OpFilter, Predicate: pred})
}

// WithColumn adds or replaces a column computed from each row.
func (l *LDF) WithColumn(name string, dt model.DType, compute Compute) *LDF {
	return l.clone(Op{Kind: OpWithColumn, NewColName: name, NewColType: dt, Compute: compute})
}

// Rename maps old column names to new ones; columns not present in the map
// are left untouched.
func (l *LDF) Rename(mapping map[string]string) *LDF {
	return l.clone(Op{Kind: OpRename, RenameMap: mapping})
}

// Cast changes col's declared (and coerced) type to t.
func (l *LDF) Cast(col string, t model.DType) *LDF {
	return l.clone(Op{Kind: OpCast, CastCol: col, CastType: t})
}

// Sample draws n rows using a seeded, deterministic pseudo-random
// selection (a permutation of row indices keyed on seed; the chosen rows
// keep their source order).
func (l *LDF) Sample(n int, seed int64) *LDF {
	return l.clone(Op{Kind: OpSample, SampleN: n, SampleSeed: seed})
}

// Slice keeps up to length rows starting at offset.
func (l *LDF) Slice(offset, length int) *LDF {
	return l.clone(Op{Kind: OpSlice, SliceOffset: offset, SliceLen: length})
}

// Sort orders rows by col, descending if desc.
func (l *LDF) Sort(col string, desc bool) *LDF {
	return l.clone(Op{Kind: OpSort, SortCol: col, SortDesc: desc})
}

// Join performs an inner or left join against other on the named column,
// suffixing any colliding right-hand column names with "_right".
func (l *LDF) Join(other *LDF, on string, how string) *LDF {
	return l.clone(Op{Kind: OpJoin, JoinOther: other, JoinOn: on, JoinHow: how})
}

// hasMaterialisingOp reports whether any queued op forces full
// materialisation, in which case streaming sinks fall back to
// collect-then-write.
func (l *LDF) hasMaterialisingOp() bool {
	for _, op := range l.ops {
		if op.materialising() {
			return true
		}
	}
	return false
}

// Streamable reports whether this plan can run as a bounded-memory
// row-at-a-time pipeline: the source must support it and no queued op may
// require full materialisation.
func (l *LDF) Streamable() bool {
	return l.source.Streamable() && !l.hasMaterialisingOp()
}

// Collect runs the plan to completion and returns a materialised
// DataFrame. It always works, regardless of Streamable.
func (l *LDF) Collect() (*model.DataFrame, error) {
	rows, schema, err := l.collectRows()
	if err != nil {
		return nil, err
	}
	return rowsToDataFrame(rows, schema)
}

// collectRows executes every queued op over the source, returning the
// final row set and schema. Used by both Collect and the sink fallback
// path.
func (l *LDF) collectRows() ([]model.Row, model.Schema, error) {
	it, err := l.source.Open()
	if err != nil {
		return nil, model.Schema{}, model.Context(model.ErrIo, "ldf.open", err)
	}
	defer it.Close()

	schema := l.source.Schema().Clone()
	var rows []model.Row
	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, model.Schema{}, model.Context(model.ErrIo, "ldf.read_row", err)
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}

	for i, op := range l.ops {
		rows, schema, err = applyOp(rows, schema, op)
		if err != nil {
			return nil, model.Schema{}, fmt.Errorf("op %d (%v): %w", i, op.Kind, err)
		}
	}
	return rows, schema, nil
}

func applyOp(rows []model.Row, schema model.Schema, op Op) ([]model.Row, model.Schema, error) {
	switch op.Kind {
	case OpSelect:
		idx := make([]int, 0, len(op.Columns))
		for _, name := range op.Columns {
			i := schema.IndexOf(name)
			if i < 0 {
				return nil, schema, fmt.Errorf("select: unknown column %q", name)
			}
			idx = append(idx, i)
		}
		out := make([]model.Row, len(rows))
		for r, row := range rows {
			vals := make([]model.Value, len(idx))
			for j, i := range idx {
				vals[j] = row.Vals[i]
			}
			out[r] = model.Row{Vals: vals}
		}
		return out, applySchema(schema, op), nil

	case OpDropColumns:
		drop := make(map[int]bool, len(op.Columns))
		for _, c := range op.Columns {
			if i := schema.IndexOf(c); i >= 0 {
				drop[i] = true
			}
		}
		out := make([]model.Row, len(rows))
		for r, row := range rows {
			vals := make([]model.Value, 0, len(row.Vals)-len(drop))
			for i, v := range row.Vals {
				if !drop[i] {
					vals = append(vals, v)
				}
			}
			out[r] = model.Row{Vals: vals}
		}
		return out, applySchema(schema, op), nil

	case OpFilter:
		out := rows[:0:0]
		for _, row := range rows {
			keep, err := op.Predicate(row, schema)
			if err != nil {
				return nil, schema, err
			}
			if keep {
				out = append(out, row)
			}
		}
		return out, schema, nil

	case OpWithColumn:
		newSchema := applySchema(schema, op)
		replaceIdx := schema.IndexOf(op.NewColName)
		out := make([]model.Row, len(rows))
		for r, row := range rows {
			v, err := op.Compute(row, schema)
			if err != nil {
				return nil, schema, err
			}
			if replaceIdx >= 0 {
				vals := append([]model.Value{}, row.Vals...)
				vals[replaceIdx] = v
				out[r] = model.Row{Vals: vals}
			} else {
				vals := append(append([]model.Value{}, row.Vals...), v)
				out[r] = model.Row{Vals: vals}
			}
		}
		return out, newSchema, nil

	case OpRename:
		return rows, applySchema(schema, op), nil

	case OpCast:
		i := schema.IndexOf(op.CastCol)
		if i < 0 {
			return nil, schema, fmt.Errorf("cast: unknown column %q", op.CastCol)
		}
		newSchema := applySchema(schema, op)
		out := make([]model.Row, len(rows))
		for r, row := range rows {
			vals := append([]model.Value{}, row.Vals...)
			cv, err := CastValue(row.Vals[i], op.CastType)
			if err != nil {
				return nil, schema, err
			}
			vals[i] = cv
			out[r] = model.Row{Vals: vals}
		}
		return out, newSchema, nil

	case OpSample:
		sampled := seededSample(rows, op.SampleN, op.SampleSeed)
		return sampled, schema, nil

	case OpSlice:
		end := op.SliceOffset + op.SliceLen
		if op.SliceOffset >= len(rows) {
			return nil, schema, nil
		}
		if end > len(rows) || op.SliceLen < 0 {
			end = len(rows)
		}
		return rows[op.SliceOffset:end], schema, nil

	case OpSort:
		i := schema.IndexOf(op.SortCol)
		if i < 0 {
			return nil, schema, fmt.Errorf("sort: unknown column %q", op.SortCol)
		}
		out := append([]model.Row{}, rows...)
		sort.SliceStable(out, func(a, b int) bool {
			va, vb := out[a].Vals[i], out[b].Vals[i]
			if va.Null || vb.Null {
				return !va.Null && vb.Null
			}
			less := compareValues(va, vb)
			if op.SortDesc {
				return less > 0
			}
			return less < 0
		})
		return out, schema, nil

	case OpJoin:
		return applyJoin(rows, schema, op)

	default:
		return rows, schema, fmt.Errorf("unknown op kind %v", op.Kind)
	}
}

func rowsToDataFrame(rows []model.Row, schema model.Schema) (*model.DataFrame, error) {
	cols := make([]*model.Series, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = model.NewSeries(f.Name, f.DType, len(rows))
	}
	for _, row := range rows {
		for i, v := range row.Vals {
			if i >= len(cols) {
				continue
			}
			cols[i].AppendValue(v)
		}
	}
	return model.NewDataFrame(cols)
}
