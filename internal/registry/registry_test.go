package registry

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/beefcake-data/beefcake/internal/model"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return r
}

func schemaOf(names ...string) model.Schema {
	fields := make([]model.Field, len(names))
	for i, n := range names {
		fields[i] = model.Field{Name: n, DType: model.DTypeString}
	}
	return model.Schema{Fields: fields}
}

func TestCreateDatasetPersistsAcrossReopen(t *testing.T) {
	root := t.TempDir()
	r, err := Open(root, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ds, err := r.CreateDataset("orders", model.DataLocation{Kind: model.LocationSnapshot, Path: "x.parquet"}, schemaOf("id", "amount"), 10, "fp1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r2, err := Open(root, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := r2.Get(ds.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "orders" {
		t.Fatalf("expected name orders, got %q", got.Name)
	}
}

func TestApplyTransformsRejectsBackwardStage(t *testing.T) {
	r := openTestRegistry(t)
	ds, err := r.CreateDataset("t", model.DataLocation{Kind: model.LocationView, SourceURI: "f.csv"}, schemaOf("a"), 5, "fp")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.ApplyTransforms(ds.ID, model.TransformPipeline{}, model.StageRaw, model.DataLocation{}, schemaOf("a"), 5, "fp"); err != nil {
		t.Fatalf("same-stage transform should be allowed: %v", err)
	}
	// Advance to Cleaned, then attempt to regress to Raw.
	ver, err := r.ApplyTransforms(ds.ID, model.TransformPipeline{}, model.StageCleaned, model.DataLocation{}, schemaOf("a"), 5, "fp")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ver.Stage != model.StageCleaned {
		t.Fatalf("expected stage Cleaned, got %v", ver.Stage)
	}
	if _, err := r.ApplyTransforms(ds.ID, model.TransformPipeline{}, model.StageRaw, model.DataLocation{}, schemaOf("a"), 5, "fp"); err == nil {
		t.Fatalf("expected regression to Raw to be rejected")
	}
}

func TestComputeDiffDetectsAddedRemovedChanged(t *testing.T) {
	r := openTestRegistry(t)
	ds, err := r.CreateDataset("t", model.DataLocation{}, schemaOf("a", "b"), 10, "fp1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rootVer := ds.ActiveVersionID

	newSchema := model.Schema{Fields: []model.Field{
		{Name: "a", DType: model.DTypeInt64}, // changed from String to Int64
		{Name: "c", DType: model.DTypeString}, // added; b removed
	}}
	ver, err := r.ApplyTransforms(ds.ID, model.TransformPipeline{}, model.StageCleaned, model.DataLocation{}, newSchema, 12, "fp2")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	diff, err := r.ComputeDiff(ds.ID, rootVer, ver.ID)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(diff.AddedCols) != 1 || diff.AddedCols[0] != "c" {
		t.Fatalf("expected added [c], got %v", diff.AddedCols)
	}
	if len(diff.RemovedCols) != 1 || diff.RemovedCols[0] != "b" {
		t.Fatalf("expected removed [b], got %v", diff.RemovedCols)
	}
	if len(diff.ChangedTypes) != 1 || diff.ChangedTypes[0].Name != "a" {
		t.Fatalf("expected changed type on a, got %v", diff.ChangedTypes)
	}
	if diff.RowDelta != 2 {
		t.Fatalf("expected row delta 2, got %d", diff.RowDelta)
	}
}

func TestSetActiveVersionRejectsUnknownVersion(t *testing.T) {
	r := openTestRegistry(t)
	ds, err := r.CreateDataset("t", model.DataLocation{}, schemaOf("a"), 1, "fp")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetActiveVersion(ds.ID, "nonexistent"); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}
