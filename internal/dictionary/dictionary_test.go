package dictionary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/beefcake-data/beefcake/internal/model"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func sampleDataFrame(t *testing.T) *model.DataFrame {
	t.Helper()
	idCol := model.NewSeries("id", model.DTypeInt64, 2)
	nameCol := model.NewSeries("name", model.DTypeString, 2)
	for _, row := range [][2]model.Value{
		{{Kind: model.DTypeInt64, I: 1}, {Kind: model.DTypeString, S: "a"}},
		{{Kind: model.DTypeInt64, I: 2}, {Kind: model.DTypeString, S: "b"}},
	} {
		idCol.AppendValue(row[0])
		nameCol.AppendValue(row[1])
	}
	df, err := model.NewDataFrame([]*model.Series{idCol, nameCol})
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func TestColumnNameToUUIDStable(t *testing.T) {
	a := columnNameToUUID("customer_id")
	b := columnNameToUUID("customer_id")
	if a != b {
		t.Fatalf("expected columnNameToUUID to be deterministic, got %s and %s", a, b)
	}
	c := columnNameToUUID("other_column")
	if a == c {
		t.Fatal("expected distinct column names to produce distinct UUIDs")
	}
}

func TestEmptyDictionaryCompletenessIsZero(t *testing.T) {
	dict := &DataDictionary{}
	if got := dict.DocumentationCompleteness(); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestCreateSnapshotBasics(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeTempFile(t, dir, "input.csv", "id,name\n1,a\n2,b\n")

	df := sampleDataFrame(t)
	snap, err := CreateSnapshot("customers", df, inputPath, filepath.Join(dir, "out.parquet"), nil, nil)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if snap.DatasetName != "customers" {
		t.Fatalf("expected dataset name customers, got %q", snap.DatasetName)
	}
	if len(snap.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(snap.Columns))
	}
	if snap.DatasetMetadata.Technical.RowCount != 2 {
		t.Fatalf("expected row_count=2, got %d", snap.DatasetMetadata.Technical.RowCount)
	}
	if snap.DatasetMetadata.Technical.InputDatasetHash == nil {
		t.Fatal("expected input dataset hash to be populated from a readable input file")
	}
	if snap.DatasetMetadata.Technical.OutputDatasetHash == "" {
		t.Fatal("expected output dataset hash to be populated")
	}
	if snap.PreviousSnapshotID != nil {
		t.Fatal("expected a fresh snapshot to have no previous snapshot")
	}
}

func TestRenderBasicMarkdown(t *testing.T) {
	dict := &DataDictionary{
		DatasetName: "Test Dataset",
		DatasetMetadata: DatasetMetadata{
			Technical: TechnicalMetadata{
				OutputDatasetHash: "abc123",
				RowCount:          100,
				ColumnCount:       2,
				ExportFormat:      "csv",
				QualitySummary:    QualitySummary{OverallScore: 95.0},
			},
			Business: DatasetBusinessMetadata{Description: strPtr("A test dataset")},
		},
	}

	md := RenderMarkdown(dict)
	for _, want := range []string{"# Data Dictionary: Test Dataset", "A test dataset", "## Column Catalog"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSaveAndLoadSnapshotRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snap := &DataDictionary{
		SnapshotID:  uuid.New(),
		DatasetName: "test_data",
		DatasetMetadata: DatasetMetadata{
			Technical: TechnicalMetadata{
				OutputDatasetHash: "abc123",
				RowCount:          100,
				ColumnCount:       5,
				ExportFormat:      "csv",
				QualitySummary:    QualitySummary{OverallScore: 95.0},
			},
		},
	}

	path, err := SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected saved file to exist: %v", err)
	}

	loaded, err := LoadSnapshot(snap.SnapshotID, dir)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.DatasetName != "test_data" {
		t.Fatalf("expected dataset name test_data, got %q", loaded.DatasetName)
	}
}

func TestListSnapshotsFiltersByHash(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		snap := &DataDictionary{
			SnapshotID:  uuid.New(),
			DatasetName: "dataset_" + string(rune('0'+i)),
			DatasetMetadata: DatasetMetadata{
				Technical: TechnicalMetadata{
					OutputDatasetHash: "hash_" + string(rune('0'+i)),
					RowCount:          100,
					ColumnCount:       5,
					ExportFormat:      "csv",
				},
			},
		}
		if _, err := SaveSnapshot(snap, dir); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	all, err := ListSnapshots(dir, "")
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(all))
	}

	filtered, err := ListSnapshots(dir, "hash_0")
	if err != nil {
		t.Fatalf("ListSnapshots filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].DatasetName != "dataset_0" {
		t.Fatalf("expected exactly dataset_0, got %+v", filtered)
	}
}

func TestUpdateBusinessMetadataCreatesNewVersion(t *testing.T) {
	dir := t.TempDir()
	snap := &DataDictionary{
		SnapshotID:  uuid.New(),
		DatasetName: "test_data",
		DatasetMetadata: DatasetMetadata{
			Technical: TechnicalMetadata{OutputDatasetHash: "abc", RowCount: 1, ColumnCount: 1},
		},
	}
	if _, err := SaveSnapshot(snap, dir); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	desc := "now documented"
	updated, err := UpdateBusinessMetadata(snap.SnapshotID, dir, &DatasetBusinessMetadata{Description: &desc}, nil)
	if err != nil {
		t.Fatalf("UpdateBusinessMetadata: %v", err)
	}
	if updated.SnapshotID == snap.SnapshotID {
		t.Fatal("expected a new snapshot ID for the updated version")
	}
	if updated.PreviousSnapshotID == nil || *updated.PreviousSnapshotID != snap.SnapshotID {
		t.Fatal("expected previous_snapshot_id to link back to the original snapshot")
	}
	if updated.DatasetMetadata.Business.Description == nil || *updated.DatasetMetadata.Business.Description != desc {
		t.Fatal("expected updated business description to be applied")
	}

	original, err := LoadSnapshot(snap.SnapshotID, dir)
	if err != nil {
		t.Fatalf("LoadSnapshot original: %v", err)
	}
	if original.DatasetMetadata.Business.Description != nil {
		t.Fatal("expected the original snapshot to remain untouched")
	}
}

func strPtr(s string) *string { return &s }
