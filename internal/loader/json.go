package loader

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/util"
)

// openNDJSONSource builds a streaming ldf.Source over a newline-delimited
// JSON file: one JSON object per line. The schema is the union of keys
// seen in the first 200 lines, typed by their first non-null appearance.
func openNDJSONSource(path string, opts Options) (ldf.Source, error) {
	schema, err := ndjsonProbeSchema(path)
	if err != nil {
		return nil, err
	}
	return ldf.NewFuncSource(schema, true, func() (ldf.RowIterator, error) {
		return newNDJSONIterator(path, schema)
	}), nil
}

func ndjsonProbeSchema(path string) (model.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Schema{}, model.Context(model.ErrIo, "loader.ndjson.probe", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var order []string
	types := map[string]model.DType{}
	seen := map[string]bool{}
	typed := map[string]bool{}
	lines := 0
	for scanner.Scan() && lines < 200 {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(line, &obj); err != nil {
			continue
		}
		lines++
		for k, v := range obj {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
				types[k] = model.DTypeString
			}
			if !typed[k] && v != nil {
				typed[k] = true
				types[k] = jsonValueDType(v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return model.Schema{}, model.Context(model.ErrParse, "loader.ndjson.probe", err)
	}

	fields := make([]model.Field, len(order))
	for i, k := range order {
		fields[i] = model.Field{Name: k, DType: types[k]}
	}
	return model.Schema{Fields: fields}, nil
}

func jsonValueDType(v interface{}) model.DType {
	switch t := v.(type) {
	case bool:
		return model.DTypeBool
	case float64:
		if t == float64(int64(t)) {
			return model.DTypeInt64
		}
		return model.DTypeFloat64
	default:
		return model.DTypeString
	}
}

type ndjsonIterator struct {
	f       *os.File
	scanner *bufio.Scanner
	schema  model.Schema
}

func newNDJSONIterator(path string, schema model.Schema) (ldf.RowIterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "loader.ndjson.open", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &ndjsonIterator{f: f, scanner: scanner, schema: schema}, nil
}

func (it *ndjsonIterator) Next() (model.Row, bool, error) {
	for it.scanner.Scan() {
		line := it.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(line, &obj); err != nil {
			return model.Row{}, false, model.Context(model.ErrParse, "loader.ndjson.read_row", err)
		}
		return jsonObjToRow(obj, it.schema), true, nil
	}
	if err := it.scanner.Err(); err != nil {
		return model.Row{}, false, model.Context(model.ErrIo, "loader.ndjson.read_row", err)
	}
	return model.Row{}, false, nil
}

func (it *ndjsonIterator) Close() error { return it.f.Close() }

// jsonObjToRow maps obj's fields onto schema's declared order, treating a
// missing key or a JSON null as the null oracle (empty string
// also counts as null for this loader).
func jsonObjToRow(obj map[string]interface{}, schema model.Schema) model.Row {
	vals := make([]model.Value, len(schema.Fields))
	for i, f := range schema.Fields {
		raw, ok := obj[f.Name]
		vals[i] = jsonRawToValue(raw, ok, f.DType)
	}
	return model.Row{Vals: vals}
}

func jsonRawToValue(raw interface{}, present bool, dt model.DType) model.Value {
	if !present || raw == nil {
		return model.NullValue(dt)
	}
	switch dt {
	case model.DTypeBool:
		if b, ok := raw.(bool); ok {
			return model.Value{Kind: dt, B: b}
		}
	case model.DTypeInt64:
		if f, ok := raw.(float64); ok {
			return model.Value{Kind: dt, I: int64(f)}
		}
	case model.DTypeFloat64:
		if f, ok := raw.(float64); ok {
			return model.Value{Kind: dt, F: f}
		}
	default:
		if s, ok := raw.(string); ok {
			if s == "" {
				return model.NullValue(model.DTypeString)
			}
			return model.Value{Kind: model.DTypeString, S: s}
		}
	}
	return model.NullValue(dt)
}

// openJSONSource reads a top-level JSON array fully into memory (JSON is
// non-streamable), then attempts to re-cast each string
// column to Datetime then Date, accepting a cast only if it does not
// increase the column's null_count.
func openJSONSource(path string, opts Options) (ldf.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "loader.json.read", err)
	}
	var arr []map[string]interface{}
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, model.Context(model.ErrParse, "loader.json.parse", err)
	}

	var order []string
	types := map[string]model.DType{}
	seen := map[string]bool{}
	for _, obj := range arr {
		for k, v := range obj {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
				types[k] = jsonValueDType(v)
			}
		}
	}
	fields := make([]model.Field, len(order))
	for i, k := range order {
		fields[i] = model.Field{Name: k, DType: types[k]}
	}
	schema := model.Schema{Fields: fields}

	rows := make([]model.Row, len(arr))
	for i, obj := range arr {
		rows[i] = jsonObjToRow(obj, schema)
	}

	schema, rows = recastJSONTemporalColumns(schema, rows)
	return ldf.NewMemSource(schema, rows), nil
}

// recastJSONTemporalColumns tries Datetime then Date for every String
// column, keeping the cast only if it does not increase null_count.
func recastJSONTemporalColumns(schema model.Schema, rows []model.Row) (model.Schema, []model.Row) {
	for i, f := range schema.Fields {
		if f.DType != model.DTypeString {
			continue
		}
		before := nullCount(rows, i)
		for _, target := range []model.DType{model.DTypeDatetime, model.DTypeDate} {
			recast, after := tryRecastColumn(rows, i, target)
			if after <= before {
				rows = recast
				schema.Fields[i].DType = target
				break
			}
		}
	}
	return schema, rows
}

func nullCount(rows []model.Row, col int) int {
	n := 0
	for _, r := range rows {
		if r.Vals[col].Null {
			n++
		}
	}
	return n
}

func tryRecastColumn(rows []model.Row, col int, target model.DType) ([]model.Row, int) {
	out := make([]model.Row, len(rows))
	nulls := 0
	for i, r := range rows {
		vals := append([]model.Value{}, r.Vals...)
		v := r.Vals[col]
		if v.Null {
			vals[col] = model.NullValue(target)
			nulls++
		} else if t, ok := util.ParseTemporal(v.S, ""); ok {
			vals[col] = model.Value{Kind: target, T: t}
		} else {
			vals[col] = model.NullValue(target)
			nulls++
		}
		out[i] = model.Row{Vals: vals}
	}
	return out, nulls
}
