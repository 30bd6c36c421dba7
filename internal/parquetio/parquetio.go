// Package parquetio implements Parquet scan and sink support for the
// loader and the registry's snapshot materialisation, using
// xitongsys/parquet-go's dynamic (schema-less struct) mode: beefcake
// never knows a file's column set at compile time, so both reader and
// writer are driven by a JSON schema built from a model.Schema at
// runtime rather than a generated Go struct.
package parquetio

import (
	"encoding/json"
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

// jsonSchemaField mirrors the Tag/Fields shape xitongsys/parquet-go's
// JSON schema handler expects.
type jsonSchemaField struct {
	Tag    string            `json:"Tag"`
	Fields []jsonSchemaField `json:"Fields,omitempty"`
}

func dtypeTag(name string, dt model.DType) string {
	switch dt {
	case model.DTypeInt64:
		return fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", name)
	case model.DTypeFloat64:
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name)
	case model.DTypeBool:
		return fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", name)
	case model.DTypeDate:
		return fmt.Sprintf("name=%s, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL", name)
	case model.DTypeDatetime:
		return fmt.Sprintf("name=%s, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL", name)
	default:
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
	}
}

func buildJSONSchema(schema model.Schema) (string, error) {
	root := jsonSchemaField{Tag: "name=root, repetitiontype=REQUIRED"}
	for _, f := range schema.Fields {
		root.Fields = append(root.Fields, jsonSchemaField{Tag: dtypeTag(f.Name, f.DType)})
	}
	data, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Writer sinks rows to a Parquet file, implementing ldf.RowWriter and
// ldf.RowGroupFlusher so the LDF sink can flush row groups at column-count
// boundaries.
type Writer struct {
	path   string
	fw     *local.LocalFile
	pw     *writer.JSONWriter
	schema model.Schema
}

// NewWriter records path for writing; WriteHeader (called by ldf.Sink)
// creates the file and initialises the column schema.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) WriteHeader(schema model.Schema) error {
	fw, err := local.NewLocalFileWriter(w.path)
	if err != nil {
		return model.Context(model.ErrIo, "parquetio.write.open", err)
	}
	jsonSchema, err := buildJSONSchema(schema)
	if err != nil {
		fw.Close()
		return model.Context(model.ErrInternal, "parquetio.write.schema", err)
	}
	pw, err := writer.NewJSONWriter(jsonSchema, fw, 4)
	if err != nil {
		fw.Close()
		return model.Context(model.ErrIo, "parquetio.write.open", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	w.fw = fw
	w.pw = pw
	w.schema = schema
	return nil
}

func (w *Writer) WriteRow(row model.Row) error {
	obj := make(map[string]interface{}, len(row.Vals))
	for i, v := range row.Vals {
		name := fmt.Sprintf("field_%d", i)
		if i < len(w.schema.Fields) {
			name = w.schema.Fields[i].Name
		}
		obj[name] = valueToJSON(v)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return model.Context(model.ErrInternal, "parquetio.write.encode_row", err)
	}
	if err := w.pw.Write(string(data)); err != nil {
		return model.Context(model.ErrIo, "parquetio.write.row", err)
	}
	return nil
}

func (w *Writer) Flush() error {
	if err := w.pw.Flush(true); err != nil {
		return model.Context(model.ErrIo, "parquetio.write.flush", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.pw.WriteStop(); err != nil {
		w.fw.Close()
		return model.Context(model.ErrIo, "parquetio.write.close", err)
	}
	return model.Context(model.ErrIo, "parquetio.write.close", w.fw.Close())
}

func valueToJSON(v model.Value) interface{} {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case model.DTypeInt64:
		return v.I
	case model.DTypeFloat64:
		return v.F
	case model.DTypeBool:
		return v.B
	case model.DTypeDate, model.DTypeDatetime:
		return v.T.Unix()
	default:
		return v.S
	}
}

// Scan opens a Parquet file for reading and returns it as an ldf.Source.
// The schema is recovered from the file's own footer.
func Scan(path string) (ldf.Source, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "parquetio.scan.open", err)
	}
	pr, err := reader.NewParquetColumnReader(fr, 4)
	if err != nil {
		fr.Close()
		return nil, model.Context(model.ErrIo, "parquetio.scan.open", err)
	}
	schema := schemaFromFooter(pr)
	pr.ReadStop()
	fr.Close()

	return ldf.NewFuncSource(schema, true, func() (ldf.RowIterator, error) {
		return newParquetIterator(path, schema)
	}), nil
}

func schemaFromFooter(pr *reader.ParquetReader) model.Schema {
	fields := make([]model.Field, 0, len(pr.SchemaHandler.SchemaElements))
	for _, el := range pr.SchemaHandler.SchemaElements {
		if el.GetNumChildren() > 0 {
			continue
		}
		fields = append(fields, model.Field{Name: el.Name, DType: parquetTypeToDType(el)})
	}
	return model.Schema{Fields: fields}
}

func parquetTypeToDType(el *parquet.SchemaElement) model.DType {
	if el.ConvertedType != nil {
		switch *el.ConvertedType {
		case parquet.ConvertedType_DATE:
			return model.DTypeDate
		case parquet.ConvertedType_TIMESTAMP_MICROS, parquet.ConvertedType_TIMESTAMP_MILLIS:
			return model.DTypeDatetime
		case parquet.ConvertedType_UTF8:
			return model.DTypeString
		}
	}
	if el.Type == nil {
		return model.DTypeString
	}
	switch *el.Type {
	case parquet.Type_INT32, parquet.Type_INT64:
		return model.DTypeInt64
	case parquet.Type_DOUBLE, parquet.Type_FLOAT:
		return model.DTypeFloat64
	case parquet.Type_BOOLEAN:
		return model.DTypeBool
	default:
		return model.DTypeString
	}
}

type parquetIterator struct {
	fr     *local.LocalFile
	pr     *reader.ParquetReader
	schema model.Schema
	pos    int64
	total  int64
}

func newParquetIterator(path string, schema model.Schema) (ldf.RowIterator, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "parquetio.scan.open", err)
	}
	pr, err := reader.NewParquetColumnReader(fr, 4)
	if err != nil {
		fr.Close()
		return nil, model.Context(model.ErrIo, "parquetio.scan.open", err)
	}
	return &parquetIterator{fr: fr, pr: pr, schema: schema, total: pr.GetNumRows()}, nil
}

func (it *parquetIterator) Next() (model.Row, bool, error) {
	if it.pos >= it.total {
		return model.Row{}, false, nil
	}
	vals := make([]model.Value, len(it.schema.Fields))
	for i, f := range it.schema.Fields {
		raw, _, _, err := it.pr.ReadColumnByPath(it.schema.Fields[i].Name, 1)
		if err != nil {
			return model.Row{}, false, model.Context(model.ErrParse, "parquetio.scan.read_column", err)
		}
		vals[i] = columnValueToModel(raw, f.DType)
	}
	it.pos++
	return model.Row{Vals: vals}, true, nil
}

func columnValueToModel(raw []interface{}, dt model.DType) model.Value {
	if len(raw) == 0 || raw[0] == nil {
		return model.NullValue(dt)
	}
	switch dt {
	case model.DTypeInt64, model.DTypeDate, model.DTypeDatetime:
		if v, ok := raw[0].(int64); ok {
			return model.Value{Kind: dt, I: v}
		}
		if v, ok := raw[0].(int32); ok {
			return model.Value{Kind: dt, I: int64(v)}
		}
	case model.DTypeFloat64:
		if v, ok := raw[0].(float64); ok {
			return model.Value{Kind: dt, F: v}
		}
	case model.DTypeBool:
		if v, ok := raw[0].(bool); ok {
			return model.Value{Kind: dt, B: v}
		}
	default:
		if v, ok := raw[0].(string); ok {
			return model.Value{Kind: model.DTypeString, S: v}
		}
	}
	return model.NullValue(dt)
}

func (it *parquetIterator) Close() error {
	it.pr.ReadStop()
	return it.fr.Close()
}
