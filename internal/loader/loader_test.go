package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestProbeDelimiterPrefersConsistentFieldCount(t *testing.T) {
	sample := []byte("a;b;c\n1;2;3\n4;5;6\n")
	if got := probeDelimiter(sample); got != ';' {
		t.Fatalf("expected semicolon, got %q", got)
	}
}

func TestProbeDelimiterHandlesTabs(t *testing.T) {
	sample := []byte("a\tb\tc\n1\t2\t3\n")
	if got := probeDelimiter(sample); got != '\t' {
		t.Fatalf("expected tab, got %q", got)
	}
}

func TestLoadLazyCSVStreamsRows(t *testing.T) {
	path := writeTempFile(t, "data.csv", "id,name\n1,alice\n2,bob\n")
	l, err := LoadLazy(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !l.Streamable() {
		t.Fatalf("expected plain CSV load to be streamable")
	}
	df, err := l.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if df.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", df.NumRows())
	}
	if df.Col("name").At(1).S != "bob" {
		t.Fatalf("expected bob, got %v", df.Col("name").At(1))
	}
}

func TestLoadLazyJSONArrayRecastsTemporalColumns(t *testing.T) {
	path := writeTempFile(t, "data.json", `[{"id":1,"signed_at":"2024-01-05"},{"id":2,"signed_at":"2024-02-01"}]`)
	l, err := LoadLazy(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Streamable() {
		t.Fatalf("expected JSON source to be non-streamable")
	}
	schema := l.CollectSchema()
	i := schema.IndexOf("signed_at")
	if i < 0 {
		t.Fatalf("expected signed_at column in schema")
	}
	if schema.Fields[i].DType != model.DTypeDatetime {
		t.Fatalf("expected signed_at recast to Datetime, got %v", schema.Fields[i].DType)
	}
}

func TestLoadLazyNDJSON(t *testing.T) {
	path := writeTempFile(t, "data.ndjson", "{\"id\":1}\n{\"id\":2}\n")
	l, err := LoadLazy(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	df, err := l.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if df.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", df.NumRows())
	}
}
