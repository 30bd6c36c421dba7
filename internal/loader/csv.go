package loader

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/util"
)

const probeBytes = 1024

func openCSVSource(path string, opts Options) (ldf.Source, error) {
	delim := opts.Delimiter
	if delim == 0 {
		sample, err := readSample(path, probeBytes)
		if err != nil {
			return nil, model.Context(model.ErrIo, "loader.csv.probe", err)
		}
		delim = probeDelimiter(sample)
	}

	schema, err := csvSchema(path, delim, opts)
	if err != nil {
		return nil, err
	}

	return ldf.NewFuncSource(schema, true, func() (ldf.RowIterator, error) {
		return newCSVIterator(path, delim, opts, schema)
	}), nil
}

func readSample(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

func newCSVReader(f io.Reader, delim byte) *csv.Reader {
	r := csv.NewReader(f)
	r.Comma = rune(delim)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

// csvSchema reads the header row (and, when try_parse_dates is set,
// samples a handful of data rows) to infer a Schema of all-String columns
// except where values look like an ISO date or datetime throughout the
// sample.
func csvSchema(path string, delim byte, opts Options) (model.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Schema{}, model.Context(model.ErrIo, "loader.csv.schema", err)
	}
	defer f.Close()

	r := newCSVReader(f, delim)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return model.Schema{Fields: nil}, nil
		}
		return model.Schema{}, model.Context(model.ErrParse, "loader.csv.header", err)
	}

	var names []string
	if opts.hasHeader() {
		names = model.DeduplicateNames(header)
	} else {
		names = make([]string, len(header))
		for i := range names {
			names[i] = "column_" + itoaLocal(i+1)
		}
	}

	dtypes := make([]model.DType, len(names))
	for i := range dtypes {
		dtypes[i] = model.DTypeString
	}

	if opts.TryParseDates {
		sampleRows := 0
		allDateLike := make([]bool, len(names))
		for i := range allDateLike {
			allDateLike[i] = true
		}
		// Re-read from the start if there was no header consumed already.
		var startRow []string
		if !opts.hasHeader() {
			startRow = header
		}
		processRow := func(row []string) {
			sampleRows++
			for i, v := range row {
				if i >= len(allDateLike) {
					continue
				}
				if v == "" {
					continue
				}
				if _, ok := util.ParseTemporal(v, ""); !ok {
					allDateLike[i] = false
				}
			}
		}
		if startRow != nil {
			processRow(startRow)
		}
		for sampleRows < 200 {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			processRow(row)
		}
		if sampleRows > 0 {
			for i, isDate := range allDateLike {
				if isDate {
					dtypes[i] = model.DTypeDate
				}
			}
		}
	}

	fields := make([]model.Field, len(names))
	for i, n := range names {
		fields[i] = model.Field{Name: n, DType: dtypes[i]}
	}
	return model.Schema{Fields: fields}, nil
}

func itoaLocal(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

type csvIterator struct {
	f      *os.File
	r      *csv.Reader
	schema model.Schema
}

func newCSVIterator(path string, delim byte, opts Options, schema model.Schema) (ldf.RowIterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "loader.csv.open", err)
	}
	r := newCSVReader(f, delim)
	if opts.hasHeader() {
		if _, err := r.Read(); err != nil && err != io.EOF {
			f.Close()
			return nil, model.Context(model.ErrParse, "loader.csv.header", err)
		}
	}
	return &csvIterator{f: f, r: r, schema: schema}, nil
}

func (it *csvIterator) Next() (model.Row, bool, error) {
	record, err := it.r.Read()
	if err == io.EOF {
		return model.Row{}, false, nil
	}
	if err != nil {
		return model.Row{}, false, model.Context(model.ErrParse, "loader.csv.read_row", err)
	}
	vals := make([]model.Value, len(it.schema.Fields))
	for i, f := range it.schema.Fields {
		var raw string
		if i < len(record) {
			raw = record[i]
		}
		vals[i] = cellToValue(raw, f.DType)
	}
	return model.Row{Vals: vals}, true, nil
}

func (it *csvIterator) Close() error {
	return it.f.Close()
}

// cellToValue converts a raw CSV cell into a typed Value. Empty strings
// become null for every type except String, where an empty string is a
// legitimate (non-null) value — the loader's null oracle is the JSON
// reader's concern, not CSV's (that null-inference rule is JSON-only).
func cellToValue(raw string, dt model.DType) model.Value {
	if dt != model.DTypeString && raw == "" {
		return model.NullValue(dt)
	}
	switch dt {
	case model.DTypeDate, model.DTypeDatetime:
		if t, ok := util.ParseTemporal(raw, ""); ok {
			return model.Value{Kind: dt, T: t}
		}
		return model.NullValue(dt)
	default:
		return model.Value{Kind: model.DTypeString, S: raw}
	}
}
