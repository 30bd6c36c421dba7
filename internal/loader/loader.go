// Package loader implements beefcake's format-sniffing entry point:
// LoadLazy dispatches on file extension to build an ldf.Source, then
// wraps it in an ldf.LDF without reading any row data.
package loader

import (
	"path/filepath"
	"strings"

	"github.com/beefcake-data/beefcake/internal/ldf"
)

// Options controls how a source file is interpreted.
type Options struct {
	// Delimiter overrides auto-probing for CSV/TSV input. Zero value
	// triggers the probe.
	Delimiter byte
	// HasHeader defaults to true; set false for headerless CSV.
	HasHeader *bool
	// TryParseDates enables inline temporal inference on string columns
	// that look like dates (try_parse_dates=true default).
	TryParseDates bool
	// Encoding is currently always treated as UTF-8; the field exists so
	// a pipeline spec's input.encoding round-trips even though only one
	// value is supported today.
	Encoding string
}

func (o Options) hasHeader() bool {
	if o.HasHeader == nil {
		return true
	}
	return *o.HasHeader
}

// LoadLazy dispatches on path's extension and returns an *ldf.LDF over
// it: .parquet → Parquet scan, .json → read-then-lazify (non-streamable),
// .jsonl/.ndjson → line-delimited streaming scan, anything else → CSV
// with an auto-probed delimiter.
func LoadLazy(path string, opts Options) (*ldf.LDF, error) {
	src, err := OpenSource(path, opts)
	if err != nil {
		return nil, err
	}
	return ldf.FromSource(src), nil
}

// OpenSource builds the ldf.Source for path without wrapping it in an
// LDF, used directly by callers (the registry snapshot reader, tests)
// that want the Source in isolation.
func OpenSource(path string, opts Options) (ldf.Source, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return newParquetSourceAdapter(path)
	case ".json":
		return openJSONSource(path, opts)
	case ".jsonl", ".ndjson":
		return openNDJSONSource(path, opts)
	default:
		return openCSVSource(path, opts)
	}
}

// probeDelimiters is the closed set of candidate field separators tried
// when Options.Delimiter is unset.
var probeDelimiters = []byte{',', ';', '\t', '|'}

// probeDelimiter inspects the first kilobyte of data and returns the
// delimiter that produces the most consistent field count across lines.
func probeDelimiter(sample []byte) byte {
	lines := strings.Split(string(sample), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	best := probeDelimiters[0]
	bestScore := -1
	for _, d := range probeDelimiters {
		counts := map[int]int{}
		for _, line := range lines {
			if line == "" {
				continue
			}
			n := strings.Count(line, string(d)) + 1
			counts[n]++
		}
		// Score: the delimiter whose most common field count covers the
		// most lines, preferring more than one field.
		score := 0
		for n, c := range counts {
			if n > 1 && c > score {
				score = c
			}
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}

func boolPtr(b bool) *bool { return &b }
