// Package sink implements beefcake's file-format output writers: CSV and
// JSON array, the two RowWriter implementations the loader's readers don't
// already cover. Parquet output lives in internal/parquetio. Dispatch by
// format string lives here so the executor and flows packages share one
// place that knows the supported export formats.
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/parquetio"
)

// Open returns a RowWriter for path based on its extension, creating the
// file (or failing if it exists and overwrite is false).
func Open(path string, overwrite bool) (ldf.RowWriter, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, model.Context(model.ErrIo, "sink.open", fmt.Errorf("%s already exists", path))
		}
	}
	switch format := strings.ToLower(strings.TrimPrefix(ext(path), ".")); format {
	case "csv", "tsv":
		delim := byte(',')
		if format == "tsv" {
			delim = '\t'
		}
		return newCSVWriter(path, delim)
	case "json":
		return newJSONArrayWriter(path)
	case "parquet":
		return parquetio.NewWriter(path), nil
	default:
		return nil, model.Context(model.ErrValidation, "sink.open", fmt.Errorf("unsupported output format %q", format))
	}
}

func ext(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// csvWriter is a RowWriter over encoding/csv.
type csvWriter struct {
	f      *os.File
	w      *csv.Writer
	schema model.Schema
}

func newCSVWriter(path string, delim byte) (*csvWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "sink.csv.create", err)
	}
	w := csv.NewWriter(f)
	w.Comma = rune(delim)
	return &csvWriter{f: f, w: w}, nil
}

func (c *csvWriter) WriteHeader(schema model.Schema) error {
	c.schema = schema
	return c.w.Write(schema.Names())
}

func (c *csvWriter) WriteRow(row model.Row) error {
	record := make([]string, len(row.Vals))
	for i, v := range row.Vals {
		record[i] = cellString(v)
	}
	return c.w.Write(record)
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return model.Context(model.ErrIo, "sink.csv.flush", err)
	}
	return c.f.Close()
}

func cellString(v model.Value) string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case model.DTypeInt64:
		return fmt.Sprintf("%d", v.I)
	case model.DTypeFloat64:
		return fmt.Sprintf("%g", v.F)
	case model.DTypeBool:
		return fmt.Sprintf("%v", v.B)
	case model.DTypeDate:
		return v.T.Format("2006-01-02")
	case model.DTypeDatetime:
		return v.T.Format("2006-01-02T15:04:05Z07:00")
	default:
		return v.S
	}
}

// jsonArrayWriter writes rows as a single top-level JSON array of objects.
// The whole file is held open across calls since a JSON array needs a
// closing "]" written after the last row, unlike CSV/NDJSON which can be
// appended to blindly.
type jsonArrayWriter struct {
	f      *os.File
	enc    *json.Encoder
	schema model.Schema
	wrote  bool
}

func newJSONArrayWriter(path string) (*jsonArrayWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "sink.json.create", err)
	}
	if _, err := f.WriteString("[\n"); err != nil {
		f.Close()
		return nil, model.Context(model.ErrIo, "sink.json.write_open", err)
	}
	return &jsonArrayWriter{f: f, enc: json.NewEncoder(f)}, nil
}

func (j *jsonArrayWriter) WriteHeader(schema model.Schema) error {
	j.schema = schema
	return nil
}

func (j *jsonArrayWriter) WriteRow(row model.Row) error {
	if j.wrote {
		if _, err := j.f.WriteString(","); err != nil {
			return model.Context(model.ErrIo, "sink.json.write_sep", err)
		}
	}
	j.wrote = true
	obj := make(map[string]interface{}, len(row.Vals))
	for i, v := range row.Vals {
		if i >= len(j.schema.Fields) {
			continue
		}
		obj[j.schema.Fields[i].Name] = cellJSON(v)
	}
	return model.Context(model.ErrIo, "sink.json.write_row", j.enc.Encode(obj))
}

func (j *jsonArrayWriter) Close() error {
	if _, err := j.f.WriteString("]\n"); err != nil {
		j.f.Close()
		return model.Context(model.ErrIo, "sink.json.write_close", err)
	}
	return j.f.Close()
}

func cellJSON(v model.Value) interface{} {
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
	case model.DTypeDate:
		return v.T.Format("2006-01-02")
	case model.DTypeDatetime:
		return v.T.Format("2006-01-02T15:04:05Z07:00")
	default:
		return v.S
	}
}
