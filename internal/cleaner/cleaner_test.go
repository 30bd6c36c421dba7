package cleaner

import (
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func mustDataFrame(t *testing.T, cols []*model.Series) *model.DataFrame {
	t.Helper()
	df, err := model.NewDataFrame(cols)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func stringSeries(name string, vals []string, valid []bool) *model.Series {
	s := model.NewSeries(name, model.DTypeString, len(vals))
	for i, v := range vals {
		if valid != nil && !valid[i] {
			s.AppendValue(model.NullValue(model.DTypeString))
			continue
		}
		s.AppendValue(model.Value{Kind: model.DTypeString, S: v})
	}
	return s
}

func floatSeries(name string, vals []float64) *model.Series {
	s := model.NewSeries(name, model.DTypeFloat64, len(vals))
	for _, v := range vals {
		s.AppendValue(model.Value{Kind: model.DTypeFloat64, F: v})
	}
	return s
}

func TestDropInactiveColumn(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		stringSeries("keep", []string{"a", "b"}, nil),
		stringSeries("drop", []string{"x", "y"}, nil),
	})
	configs := map[string]model.CleaningConfig{
		"keep": {Active: true},
		"drop": {Active: false},
	}
	out, err := Clean(df, configs, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out.NumCols() != 1 || out.Col("keep") == nil {
		t.Fatalf("expected only 'keep' to survive, got %v", out.Schema().Names())
	}
}

func TestAdvancedCleaningTrimAndStandardiseNulls(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		stringSeries("name", []string{"  Bob  ", "n/a", "Alice"}, nil),
	})
	cfg := model.DefaultCleaningConfig()
	cfg.AdvancedCleaning = true
	cfg.TrimWhitespace = true
	cfg.StandardiseNulls = true
	out, err := Clean(df, map[string]model.CleaningConfig{"name": cfg}, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	col := out.Col("name")
	if col.At(0).S != "Bob" {
		t.Errorf("expected trimmed 'Bob', got %q", col.At(0).S)
	}
	if !col.At(1).Null {
		t.Errorf("expected n/a to become null")
	}
}

func TestCastStringToNumericWithCommaStripping(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		stringSeries("amount", []string{"1,234.5", "bogus"}, nil),
	})
	kind := model.ColumnKindNumeric
	cfg := model.DefaultCleaningConfig()
	cfg.TargetDtype = &kind
	out, err := Clean(df, map[string]model.CleaningConfig{"amount": cfg}, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	col := out.Col("amount")
	if col.DType != model.DTypeFloat64 {
		t.Fatalf("expected Float64 column, got %v", col.DType)
	}
	if col.At(0).F != 1234.5 {
		t.Errorf("expected 1234.5, got %v", col.At(0).F)
	}
	if !col.At(1).Null {
		t.Errorf("expected unparsable value to become null")
	}
}

func TestRestrictedModeSkipsTextCaseAndMLPreprocessing(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		stringSeries("name", []string{"bob"}, nil),
	})
	cfg := model.DefaultCleaningConfig()
	cfg.AdvancedCleaning = true
	cfg.TextCase = model.TextCaseUpper
	cfg.MLPreprocessing = true
	cfg.OneHotEncode = true
	out, err := Clean(df, map[string]model.CleaningConfig{"name": cfg}, true)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out.Col("name") == nil {
		t.Fatalf("expected restricted mode to skip one-hot encoding and keep the name column")
	}
	if out.Col("name").At(0).S != "bob" {
		t.Errorf("expected restricted mode to skip text_case, got %q", out.Col("name").At(0).S)
	}
}

func TestRenameCollisionFails(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		stringSeries("a", []string{"1"}, nil),
		stringSeries("b", []string{"2"}, nil),
	})
	cfgA := model.DefaultCleaningConfig()
	cfgA.NewName = "b"
	_, err := Clean(df, map[string]model.CleaningConfig{"a": cfgA}, false)
	if err == nil {
		t.Fatal("expected rename collision error")
	}
}

func TestClipOutliersWinsorises(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		floatSeries("v", []float64{1, 2, 3, 4, 5, 1000}),
	})
	cfg := model.DefaultCleaningConfig()
	cfg.MLPreprocessing = true
	cfg.ClipOutliers = true
	out, err := Clean(df, map[string]model.CleaningConfig{"v": cfg}, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	col := out.Col("v")
	if col.At(5).F >= 1000 {
		t.Errorf("expected outlier to be clipped, got %v", col.At(5).F)
	}
}

func TestOneHotEncodeExpandsColumns(t *testing.T) {
	col := model.NewSeries("color", model.DTypeCategorical, 3)
	for _, v := range []string{"red", "blue", "red"} {
		col.AppendValue(model.Value{Kind: model.DTypeCategorical, S: v})
	}
	df := mustDataFrame(t, []*model.Series{col})
	cfg := model.DefaultCleaningConfig()
	cfg.MLPreprocessing = true
	cfg.OneHotEncode = true
	out, err := Clean(df, map[string]model.CleaningConfig{"color": cfg}, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out.Col("color") != nil {
		t.Errorf("expected original column dropped")
	}
	blue := out.Col("color_blue")
	red := out.Col("color_red")
	if blue == nil || red == nil {
		t.Fatalf("expected color_blue and color_red columns, got %v", out.Schema().Names())
	}
	if red.At(0).I != 1 || red.At(1).I != 0 || red.At(2).I != 1 {
		t.Errorf("unexpected color_red values")
	}
}

func TestNormaliseZScoreZeroStdDevYieldsZeros(t *testing.T) {
	df := mustDataFrame(t, []*model.Series{
		floatSeries("v", []float64{5, 5, 5}),
	})
	cfg := model.DefaultCleaningConfig()
	cfg.MLPreprocessing = true
	cfg.Normalisation = model.NormaliseZScore
	out, err := Clean(df, map[string]model.CleaningConfig{"v": cfg}, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	col := out.Col("v")
	for i := 0; i < col.Len; i++ {
		if col.At(i).F != 0 {
			t.Errorf("expected zscore of constant column to be 0, got %v", col.At(i).F)
		}
	}
}
