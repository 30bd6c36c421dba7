package profiler

import (
	"strings"
	"testing"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

func mkRow(vals ...model.Value) model.Row { return model.Row{Vals: vals} }

func strVal(s string) model.Value { return model.Value{Kind: model.DTypeString, S: s} }
func fltVal(f float64) model.Value { return model.Value{Kind: model.DTypeFloat64, F: f} }
func nullVal(k model.DType) model.Value { return model.NullValue(k) }

func analyseRows(t *testing.T, schema model.Schema, rows []model.Row) Result {
	t.Helper()
	src := ldf.NewMemSource(schema, rows)
	l := ldf.FromSource(src)
	result, err := Analyse(l, 0, 0.1)
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	return result
}

func summaryFor(t *testing.T, result Result, name string) model.ColumnSummary {
	t.Helper()
	for _, s := range result.Columns {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no column summary for %q", name)
	return model.ColumnSummary{}
}

// TestScenario1CSVLoadAndProfile covers the CSV-load-and-profile worked
// example: col=[A,A,B,B], val=[1,2,10,1000].
func TestScenario1CSVLoadAndProfile(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{
		{Name: "col", DType: model.DTypeString},
		{Name: "val", DType: model.DTypeFloat64},
	}}
	rows := []model.Row{
		mkRow(strVal("A"), fltVal(1)),
		mkRow(strVal("A"), fltVal(2)),
		mkRow(strVal("B"), fltVal(10)),
		mkRow(strVal("B"), fltVal(1000)),
	}
	result := analyseRows(t, schema, rows)

	col := summaryFor(t, result, "col")
	if col.Kind != model.ColumnKindCategorical {
		t.Fatalf("col: expected Categorical, got %s", col.Kind)
	}
	if col.Stats.Categorical == nil {
		t.Fatal("col: expected categorical stats")
	}
	if col.Stats.Categorical.Counts["A"] != 2 || col.Stats.Categorical.Counts["B"] != 2 {
		t.Fatalf("col: expected {A:2,B:2}, got %v", col.Stats.Categorical.Counts)
	}

	val := summaryFor(t, result, "val")
	if val.Kind != model.ColumnKindNumeric {
		t.Fatalf("val: expected Numeric, got %s", val.Kind)
	}
	n := val.Stats.Numeric
	if n == nil {
		t.Fatal("val: expected numeric stats")
	}
	if n.Min != 1 || n.Max != 1000 {
		t.Fatalf("val: expected min=1 max=1000, got min=%v max=%v", n.Min, n.Max)
	}
	if n.Q1 > 2 {
		t.Fatalf("val: expected q1<=2, got %v", n.Q1)
	}
	if n.Median > 6 {
		t.Fatalf("val: expected median<=6, got %v", n.Median)
	}
	if n.Q3 > 505 {
		t.Fatalf("val: expected q3<=505, got %v", n.Q3)
	}
	if n.Skew <= 0.1 {
		t.Fatalf("val: expected skew>0.1, got %v", n.Skew)
	}
	found := false
	for _, s := range val.Interpretation {
		if strings.Contains(s, "Right-skewed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("val: expected interpretation to contain Right-skewed, got %v", val.Interpretation)
	}
}

// TestHistogramSumInvariant checks that histogram bin counts sum to the
// column's non-null count, even with nulls interspersed.
func TestHistogramSumInvariant(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{{Name: "n", DType: model.DTypeFloat64}}}
	rows := []model.Row{
		mkRow(fltVal(1)), mkRow(fltVal(2)), mkRow(nullVal(model.DTypeFloat64)),
		mkRow(fltVal(3)), mkRow(fltVal(40)), mkRow(fltVal(7)), mkRow(fltVal(19)),
	}
	result := analyseRows(t, schema, rows)
	n := summaryFor(t, result, "n").Stats.Numeric
	if n == nil {
		t.Fatal("expected numeric stats")
	}
	var total int
	for _, b := range n.Histogram {
		total += b.Count
	}
	nonNull := 0
	for _, r := range rows {
		if !r.Vals[0].Null {
			nonNull++
		}
	}
	if total != nonNull {
		t.Fatalf("histogram bin counts sum to %d, expected non-null count %d", total, nonNull)
	}
}

// TestQuantileOrdering checks min<=p05<=q1<=median<=q3<=p95<=max holds for a
// non-trivial numeric series.
func TestQuantileOrdering(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{{Name: "n", DType: model.DTypeFloat64}}}
	vals := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 100, 0, 55, 23, 17, 42}
	rows := make([]model.Row, len(vals))
	for i, v := range vals {
		rows[i] = mkRow(fltVal(v))
	}
	result := analyseRows(t, schema, rows)
	n := summaryFor(t, result, "n").Stats.Numeric
	if n == nil {
		t.Fatal("expected numeric stats")
	}
	ordered := []float64{n.Min, n.P05, n.Q1, n.Median, n.Q3, n.P95, n.Max}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] > ordered[i] {
			t.Fatalf("quantile ordering violated at index %d: %v", i, ordered)
		}
	}
}

// TestSingleValueHistogram checks the boundary case of a constant numeric
// column: 20 bins, exactly one non-zero.
func TestSingleValueHistogram(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{{Name: "n", DType: model.DTypeFloat64}}}
	rows := make([]model.Row, 5)
	for i := range rows {
		rows[i] = mkRow(fltVal(42))
	}
	result := analyseRows(t, schema, rows)
	n := summaryFor(t, result, "n").Stats.Numeric
	if n == nil {
		t.Fatal("expected numeric stats")
	}
	if len(n.Histogram) != 20 {
		t.Fatalf("expected 20 bins, got %d", len(n.Histogram))
	}
	nonZero := 0
	for _, b := range n.Histogram {
		if b.Count > 0 {
			nonZero++
			if b.Count != 5 {
				t.Fatalf("expected the single non-zero bin to hold all 5 rows, got %d", b.Count)
			}
		}
	}
	if nonZero != 1 {
		t.Fatalf("expected exactly one non-zero bin, got %d", nonZero)
	}
}

// TestEmptyColumnIsText checks the boundary case of an all-null column:
// classified Text with distinct=0.
func TestEmptyColumnIsText(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{{Name: "s", DType: model.DTypeString}}}
	rows := []model.Row{
		mkRow(nullVal(model.DTypeString)),
		mkRow(nullVal(model.DTypeString)),
		mkRow(nullVal(model.DTypeString)),
	}
	result := analyseRows(t, schema, rows)
	s := summaryFor(t, result, "s")
	if s.Kind != model.ColumnKindText {
		t.Fatalf("expected Text, got %s", s.Kind)
	}
	if s.Stats.Text == nil {
		t.Fatal("expected text stats")
	}
	if s.Stats.Text.Distinct != 0 {
		t.Fatalf("expected distinct=0, got %d", s.Stats.Text.Distinct)
	}
}

func TestLooksCategoricalHighRatioLowDistinctStillCategorical(t *testing.T) {
	col := model.NewSeries("x", model.DTypeString, 4)
	for _, v := range []string{"A", "A", "B", "B"} {
		col.AppendValue(model.Value{Kind: model.DTypeString, S: v})
	}
	if !looksCategorical(col) {
		t.Fatal("expected distinct=2 (<=100) to satisfy the categorical OR even with ratio=0.5")
	}
}
