package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func TestLoadCleaningConfigsEmptyPath(t *testing.T) {
	got, err := loadCleaningConfigs("")
	if err != nil {
		t.Fatalf("loadCleaningConfigs(\"\"): %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil configs for empty path, got %#v", got)
	}
}

func TestLoadCleaningConfigsParsesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{"age":{"active":true,"new_name":"years"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := loadCleaningConfigs(p)
	if err != nil {
		t.Fatalf("loadCleaningConfigs: %v", err)
	}
	cfg, ok := got["age"]
	if !ok {
		t.Fatalf("expected an \"age\" entry, got %#v", got)
	}
	if !cfg.Active || cfg.NewName != "years" {
		t.Fatalf("unexpected config for age: %#v", cfg)
	}
}

func TestLoadCleaningConfigsRejectsBadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := loadCleaningConfigs(p); err == nil {
		t.Fatal("expected an error for malformed config JSON")
	}
}

func TestPreviewFromDataFrameTruncates(t *testing.T) {
	col := model.NewSeries("n", model.DTypeInt64, 0)
	for i := 0; i < previewRows+5; i++ {
		col.AppendValue(model.Value{Kind: model.DTypeInt64, I: int64(i)})
	}
	df, err := model.NewDataFrame([]*model.Series{col})
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}

	preview := previewFromDataFrame(df)
	if len(preview.Rows) != previewRows {
		t.Fatalf("expected %d rows, got %d", previewRows, len(preview.Rows))
	}
	if !preview.Truncated {
		t.Fatal("expected Truncated to be true")
	}
	if preview.TotalRows != int64(previewRows+5) {
		t.Fatalf("expected TotalRows %d, got %d", previewRows+5, preview.TotalRows)
	}
}

func TestPreviewFromDataFrameNoTruncation(t *testing.T) {
	col := model.NewSeries("n", model.DTypeInt64, 0)
	col.AppendValue(model.Value{Kind: model.DTypeInt64, I: 1})
	df, err := model.NewDataFrame([]*model.Series{col})
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}

	preview := previewFromDataFrame(df)
	if preview.Truncated {
		t.Fatal("did not expect truncation for a single row")
	}
	if len(preview.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(preview.Rows))
	}
}
