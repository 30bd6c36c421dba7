package pipelinespec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func sampleSpecJSON() []byte {
	spec := map[string]interface{}{
		"version": "0.1",
		"name":    "trim-and-cast",
		"input":   map[string]interface{}{"format": "csv", "has_header": true},
		"schema":  map[string]interface{}{"match_mode": "tolerant", "required_columns": []string{"name", "amount"}},
		"steps": []map[string]interface{}{
			{"op": "trim_whitespace", "parameters": map[string]interface{}{"cols": []string{"name"}}},
			{"op": "cast_types", "parameters": map[string]interface{}{"col": "amount", "type_str": "f64"}},
		},
		"output": map[string]interface{}{"format": "csv", "path_template": "out-{date}.csv", "overwrite": true},
	}
	raw, _ := json.Marshal(spec)
	return raw
}

func TestParseRoundTrip(t *testing.T) {
	spec, err := Parse(sampleSpecJSON())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Name != "trim-and-cast" || len(spec.Steps) != 2 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	raw, err := ToJSON(spec)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	again, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(ToJSON): %v", err)
	}
	if again.Name != spec.Name || len(again.Steps) != len(spec.Steps) {
		t.Fatalf("round-trip mismatch: %+v vs %+v", again, spec)
	}
}

func TestParseRejectsMissingRequiredField(t *testing.T) {
	raw := []byte(`{"version":"0.1","name":"x"}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected structural validation error for missing input/schema/steps/output")
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	spec := sampleSpecJSON()
	var doc map[string]interface{}
	if err := json.Unmarshal(spec, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc["version"] = "9.9"
	raw, _ := json.Marshal(doc)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected version mismatch error")
	}
}

func TestValidateFlagsMissingRequiredColumn(t *testing.T) {
	spec, err := Parse(sampleSpecJSON())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schema := model.Schema{Fields: []model.Field{{Name: "name", DType: model.DTypeString}}}
	errs := Validate(spec, schema)
	if len(errs) == 0 {
		t.Fatal("expected a validation error for missing 'amount'")
	}
}

func TestValidateFlagsRenameCollision(t *testing.T) {
	spec := model.PipelineSpec{
		Version: model.PipelineSpecVersion,
		Steps: []model.TransformSpec{
			{Op: "rename_columns", Parameters: map[string]interface{}{
				"map": map[string]interface{}{"a": "b"},
			}},
		},
	}
	schema := model.Schema{Fields: []model.Field{
		{Name: "a", DType: model.DTypeString},
		{Name: "b", DType: model.DTypeString},
	}}
	errs := Validate(spec, schema)
	if len(errs) == 0 {
		t.Fatal("expected rename collision to be flagged")
	}
}

func TestValidateFlagsUnknownCastType(t *testing.T) {
	spec := model.PipelineSpec{
		Version: model.PipelineSpecVersion,
		Steps: []model.TransformSpec{
			{Op: "cast_types", Parameters: map[string]interface{}{"col": "x", "type_str": "wat"}},
		},
	}
	schema := model.Schema{Fields: []model.Field{{Name: "x", DType: model.DTypeString}}}
	errs := Validate(spec, schema)
	if len(errs) == 0 {
		t.Fatal("expected unknown type_str to be flagged")
	}
}

func TestRunAppliesStepsAndWritesOutput(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(inPath, []byte("name,amount\n  Bob  ,\"1,234.5\"\nAlice,7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	spec, err := Parse(sampleSpecJSON())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	outPath := filepath.Join(dir, "out.csv")

	report, err := Run(spec, inPath, RunOptions{OutputPathOverride: outPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RowsBefore != 2 || report.RowsAfter != 2 {
		t.Errorf("expected 2 rows before/after, got %+v", report)
	}
	if report.StepsApplied != 2 {
		t.Errorf("expected both steps to apply, got %d (warnings: %v)", report.StepsApplied, report.Warnings)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", report.Warnings)
	}
	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile(out): %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty output file")
	}
}

// applyStep itself is the thing that turns a step failure into a warning
// inside Run's loop; Validate is expected to catch most of the same
// problems up front, so this exercises applyStep directly rather than
// fighting Run's validation gate to reach an already-pre-empted failure.
func TestApplyStepReturnsErrorOnMissingColumn(t *testing.T) {
	df := mustDataFrameForTest(t, []*model.Series{stringSeriesForTest("name", []string{"Bob"})})
	step := model.TransformSpec{Op: "trim_whitespace", Parameters: map[string]interface{}{
		"cols": []interface{}{"does_not_exist"},
	}}
	if _, err := applyStep(df, step); err == nil {
		t.Fatal("expected an error for a cols reference to a missing column")
	}
}

func TestApplyStepUnknownOpReturnsError(t *testing.T) {
	df := mustDataFrameForTest(t, []*model.Series{stringSeriesForTest("name", []string{"Bob"})})
	step := model.TransformSpec{Op: "teleport_columns", Parameters: nil}
	if _, err := applyStep(df, step); err == nil {
		t.Fatal("expected an error for an unrecognised step op")
	}
}

func mustDataFrameForTest(t *testing.T, cols []*model.Series) *model.DataFrame {
	t.Helper()
	df, err := model.NewDataFrame(cols)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func stringSeriesForTest(name string, vals []string) *model.Series {
	s := model.NewSeries(name, model.DTypeString, len(vals))
	for _, v := range vals {
		s.AppendValue(model.Value{Kind: model.DTypeString, S: v})
	}
	return s
}
