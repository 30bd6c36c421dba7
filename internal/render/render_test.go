package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func TestRenderDataFramePreviewTable(t *testing.T) {
	result := &model.Result{
		Kind: model.KindDataFramePreview,
		Data: model.DataFramePreview{
			Schema: model.Schema{Fields: []model.Field{{Name: "a", DType: model.DTypeInt64}}},
			Rows:   []model.Row{{Vals: []model.Value{{Kind: model.DTypeInt64, I: 1}}}},
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, result, FormatTable); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty table output")
	}
}

func TestRenderRunReportJSON(t *testing.T) {
	result := &model.Result{
		Kind: model.KindRunReport,
		Data: model.RunReport{RowsBefore: 10, RowsAfter: 8, StepsApplied: 2},
	}
	var buf bytes.Buffer
	if err := Render(&buf, result, FormatJSON); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded model.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Kind != model.KindRunReport {
		t.Fatalf("expected kind %q, got %q", model.KindRunReport, decoded.Kind)
	}
}

func TestRenderColumnSummariesCSV(t *testing.T) {
	result := &model.Result{
		Kind: model.KindColumnSummaries,
		Data: model.AnalysisReport{
			FilePath: "in.csv",
			Columns: []model.ColumnSummary{
				{Name: "age", Kind: model.ColumnKindNumeric, Count: 10, Nulls: 1},
			},
			Health: model.FileHealth{Score: 0.9},
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, result, FormatCSV); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("age")) {
		t.Fatalf("expected CSV output to mention column 'age', got %q", buf.String())
	}
}
