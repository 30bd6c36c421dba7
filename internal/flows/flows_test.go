package flows

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestAnalyseProducesColumnSummaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	writeFile(t, path, "col,val\nA,1\nA,2\nB,10\nB,1000\n")

	report, err := Analyse(path)
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	if report.FilePath != path {
		t.Fatalf("expected FilePath %q, got %q", path, report.FilePath)
	}
	if len(report.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(report.Columns))
	}
}

func TestCleanWritesOutputAndReceipt(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.csv")
	writeFile(t, inPath, "raw,age\n Alice ,10\nBob,20\n")
	outPath := filepath.Join(dir, "out.csv")

	configs := map[string]model.CleaningConfig{
		"raw": {Active: true, NewName: "name", TrimWhitespace: true},
		"age": {Active: true},
	}
	result, err := Clean(nil, inPath, outPath, configs, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if result.RowsBefore != 2 || result.RowsAfter != 2 {
		t.Fatalf("expected 2 rows before/after, got %d/%d", result.RowsBefore, result.RowsAfter)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
	if _, err := os.Stat(outPath + ".receipt.json"); err != nil {
		t.Fatalf("expected receipt file to exist: %v", err)
	}
}

func TestResolveDefaultInputPicksAlphabeticallyFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "x\n1\n")
	writeFile(t, filepath.Join(dir, "a.csv"), "x\n1\n")

	got, err := ResolveDefaultInput(dir)
	if err != nil {
		t.Fatalf("ResolveDefaultInput: %v", err)
	}
	if filepath.Base(got) != "a.csv" {
		t.Fatalf("expected a.csv, got %q", got)
	}
}

func TestResolveDefaultInputErrorsOnEmptyDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveDefaultInput(dir); err == nil {
		t.Fatal("expected an error for an empty directory")
	}
}

func TestDefaultOutputPathBuildsParquetName(t *testing.T) {
	got := DefaultOutputPath("clean", "/data/input/sales.csv")
	want := filepath.Join(ProcessedDir, "clean_sales.parquet")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSchemaFingerprintIsStableAndOrderSensitive(t *testing.T) {
	a := model.Schema{Fields: []model.Field{{Name: "x", DType: model.DTypeInt64}, {Name: "y", DType: model.DTypeString}}}
	b := model.Schema{Fields: []model.Field{{Name: "y", DType: model.DTypeString}, {Name: "x", DType: model.DTypeInt64}}}
	if schemaFingerprint(a) != schemaFingerprint(a) {
		t.Fatal("expected fingerprint to be stable across calls")
	}
	if schemaFingerprint(a) == schemaFingerprint(b) {
		t.Fatal("expected field order to change the fingerprint")
	}
}
