package model

import (
	"fmt"
	"time"
)

// Value is a tagged union holding a single cell. Only the field matching
// Kind is meaningful when Null is false; String sources flowing through
// the row pipeline are stored in S regardless of their eventual DType so
// casts can be applied lazily.
type Value struct {
	Kind  DType
	I     int64
	F     float64
	B     bool
	S     string
	T     time.Time
	Null  bool
}

// NullValue returns a null Value of the given kind.
func NullValue(k DType) Value { return Value{Kind: k, Null: true} }

// Row is an ordered record: Vals[i] corresponds to Schema.Fields[i].
// Using parallel slices (rather than a map) keeps column order
// deterministic through the streaming pipeline.
type Row struct {
	Vals []Value
}

// Field describes one column's name and declared type within a Schema.
type Field struct {
	Name  string
	DType DType
}

// Schema is an ordered list of fields. Two collects of the same LDF always
// produce DataFrames with identical Schema.
type Schema struct {
	Fields []Field
}

// IndexOf returns the position of name in the schema, or -1.
func (s Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the ordered column names.
func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Clone returns a deep copy safe for independent mutation.
func (s Schema) Clone() Schema {
	out := Schema{Fields: make([]Field, len(s.Fields))}
	copy(out.Fields, s.Fields)
	return out
}

// Series is one materialised, typed column. Len is authoritative; Valid
// holds the null mask indexed in parallel with the active value slice.
type Series struct {
	Name  string
	DType DType
	Len   int
	Valid []bool

	Ints   []int64
	Floats []float64
	Bools  []bool
	Strs   []string
	Times  []time.Time
}

// NewSeries allocates an empty, typed Series with capacity n.
func NewSeries(name string, dt DType, n int) *Series {
	s := &Series{Name: name, DType: dt, Valid: make([]bool, 0, n)}
	switch dt {
	case DTypeInt64:
		s.Ints = make([]int64, 0, n)
	case DTypeFloat64:
		s.Floats = make([]float64, 0, n)
	case DTypeBool:
		s.Bools = make([]bool, 0, n)
	case DTypeString, DTypeCategorical:
		s.Strs = make([]string, 0, n)
	case DTypeDate, DTypeDatetime:
		s.Times = make([]time.Time, 0, n)
	}
	return s
}

// AppendValue appends v, coercing numeric widenings as needed. The caller
// is responsible for ensuring v.Kind is compatible with s.DType.
func (s *Series) AppendValue(v Value) {
	s.Valid = append(s.Valid, !v.Null)
	switch s.DType {
	case DTypeInt64:
		if v.Null {
			s.Ints = append(s.Ints, 0)
		} else {
			s.Ints = append(s.Ints, v.I)
		}
	case DTypeFloat64:
		if v.Null {
			s.Floats = append(s.Floats, 0)
		} else if v.Kind == DTypeInt64 {
			s.Floats = append(s.Floats, float64(v.I))
		} else {
			s.Floats = append(s.Floats, v.F)
		}
	case DTypeBool:
		if v.Null {
			s.Bools = append(s.Bools, false)
		} else {
			s.Bools = append(s.Bools, v.B)
		}
	case DTypeString, DTypeCategorical:
		if v.Null {
			s.Strs = append(s.Strs, "")
		} else {
			s.Strs = append(s.Strs, v.S)
		}
	case DTypeDate, DTypeDatetime:
		if v.Null {
			s.Times = append(s.Times, time.Time{})
		} else {
			s.Times = append(s.Times, v.T)
		}
	}
	s.Len++
}

// At returns the Value at row index i.
func (s *Series) At(i int) Value {
	if i < 0 || i >= s.Len {
		return NullValue(s.DType)
	}
	if !s.Valid[i] {
		return NullValue(s.DType)
	}
	switch s.DType {
	case DTypeInt64:
		return Value{Kind: s.DType, I: s.Ints[i]}
	case DTypeFloat64:
		return Value{Kind: s.DType, F: s.Floats[i]}
	case DTypeBool:
		return Value{Kind: s.DType, B: s.Bools[i]}
	case DTypeString, DTypeCategorical:
		return Value{Kind: s.DType, S: s.Strs[i]}
	case DTypeDate, DTypeDatetime:
		return Value{Kind: s.DType, T: s.Times[i]}
	default:
		return NullValue(s.DType)
	}
}

// NullCount returns the number of null entries.
func (s *Series) NullCount() int {
	n := 0
	for _, v := range s.Valid {
		if !v {
			n++
		}
	}
	return n
}

// DataFrame is the materialised counterpart of an LDF: named, typed
// columns with positionally-ordered rows.
type DataFrame struct {
	Columns []*Series
	index   map[string]int
}

// NewDataFrame builds a DataFrame from an ordered slice of series. All
// series must share the same Len.
func NewDataFrame(cols []*Series) (*DataFrame, error) {
	df := &DataFrame{Columns: cols, index: make(map[string]int, len(cols))}
	var n int
	for i, c := range cols {
		if i == 0 {
			n = c.Len
		} else if c.Len != n {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len, n)
		}
		df.index[c.Name] = i
	}
	return df, nil
}

// NumRows returns the row count (0 for a frame with no columns).
func (df *DataFrame) NumRows() int {
	if len(df.Columns) == 0 {
		return 0
	}
	return df.Columns[0].Len
}

// NumCols returns the column count.
func (df *DataFrame) NumCols() int { return len(df.Columns) }

// Col returns the series named name, or nil.
func (df *DataFrame) Col(name string) *Series {
	if i, ok := df.index[name]; ok {
		return df.Columns[i]
	}
	return nil
}

// Schema returns the frame's schema in column order.
func (df *DataFrame) Schema() Schema {
	fields := make([]Field, len(df.Columns))
	for i, c := range df.Columns {
		fields[i] = Field{Name: c.Name, DType: c.DType}
	}
	return Schema{Fields: fields}
}

// Row materialises row i as a Row value (used by sinks and the Postgres pusher).
func (df *DataFrame) Row(i int) Row {
	vals := make([]Value, len(df.Columns))
	for c, col := range df.Columns {
		vals[c] = col.At(i)
	}
	return Row{Vals: vals}
}
