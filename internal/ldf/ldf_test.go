package ldf

import (
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func sampleSchema() model.Schema {
	return model.Schema{Fields: []model.Field{
		{Name: "id", DType: model.DTypeInt64},
		{Name: "name", DType: model.DTypeString},
		{Name: "score", DType: model.DTypeFloat64},
	}}
}

func sampleRows() []model.Row {
	mk := func(id int64, name string, score float64) model.Row {
		return model.Row{Vals: []model.Value{
			{Kind: model.DTypeInt64, I: id},
			{Kind: model.DTypeString, S: name},
			{Kind: model.DTypeFloat64, F: score},
		}}
	}
	return []model.Row{
		mk(1, "alice", 10),
		mk(2, "bob", 20),
		mk(3, "carol", 30),
	}
}

func TestSelectAndFilter(t *testing.T) {
	src := NewMemSource(sampleSchema(), sampleRows())
	l := FromSource(src).
		Select("id", "score").
		Filter(func(r model.Row, s model.Schema) (bool, error) {
			return r.Vals[s.IndexOf("score")].F >= 20, nil
		})

	df, err := l.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if df.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", df.NumRows())
	}
	if df.NumCols() != 2 {
		t.Fatalf("expected 2 cols, got %d", df.NumCols())
	}
	if df.Col("name") != nil {
		t.Fatalf("expected name column dropped by select")
	}
}

func TestCollectSchemaNeverReadsRows(t *testing.T) {
	src := NewMemSource(sampleSchema(), sampleRows())
	l := FromSource(src).Rename(map[string]string{"name": "full_name"})
	schema := l.CollectSchema()
	if schema.IndexOf("full_name") != 1 {
		t.Fatalf("expected renamed column at index 1")
	}
}

func TestSortDescending(t *testing.T) {
	src := NewMemSource(sampleSchema(), sampleRows())
	l := FromSource(src).Sort("score", true)
	df, err := l.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if df.Col("score").At(0).F != 30 {
		t.Fatalf("expected first row to have score 30, got %v", df.Col("score").At(0).F)
	}
}

func TestSliceBounds(t *testing.T) {
	src := NewMemSource(sampleSchema(), sampleRows())
	l := FromSource(src).Slice(1, 10)
	df, err := l.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if df.NumRows() != 2 {
		t.Fatalf("expected slice to clamp to remaining 2 rows, got %d", df.NumRows())
	}
}

func TestValueCountsOrdersByFrequency(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{{Name: "color", DType: model.DTypeString}}}
	rows := []model.Row{
		{Vals: []model.Value{{Kind: model.DTypeString, S: "red"}}},
		{Vals: []model.Value{{Kind: model.DTypeString, S: "blue"}}},
		{Vals: []model.Value{{Kind: model.DTypeString, S: "red"}}},
	}
	l := FromSource(NewMemSource(schema, rows))
	counts, err := l.ValueCounts("color")
	if err != nil {
		t.Fatalf("value_counts: %v", err)
	}
	if counts[0].Value != "red" || counts[0].Count != 2 {
		t.Fatalf("expected red:2 first, got %+v", counts[0])
	}
}

func TestQuantileInterpolates(t *testing.T) {
	got := Interpolate([]float64{1, 2, 3, 4}, 0.5)
	if got != 2.5 {
		t.Fatalf("expected median 2.5, got %v", got)
	}
}

func TestJoinInner(t *testing.T) {
	leftSchema := model.Schema{Fields: []model.Field{
		{Name: "id", DType: model.DTypeInt64},
		{Name: "name", DType: model.DTypeString},
	}}
	leftRows := []model.Row{
		{Vals: []model.Value{{Kind: model.DTypeInt64, I: 1}, {Kind: model.DTypeString, S: "alice"}}},
		{Vals: []model.Value{{Kind: model.DTypeInt64, I: 2}, {Kind: model.DTypeString, S: "bob"}}},
	}
	rightSchema := model.Schema{Fields: []model.Field{
		{Name: "id", DType: model.DTypeInt64},
		{Name: "dept", DType: model.DTypeString},
	}}
	rightRows := []model.Row{
		{Vals: []model.Value{{Kind: model.DTypeInt64, I: 1}, {Kind: model.DTypeString, S: "eng"}}},
	}

	right := FromSource(NewMemSource(rightSchema, rightRows))
	left := FromSource(NewMemSource(leftSchema, leftRows)).Join(right, "id", "inner")

	df, err := left.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if df.NumRows() != 1 {
		t.Fatalf("expected inner join to keep 1 row, got %d", df.NumRows())
	}
	if df.Col("dept").At(0).S != "eng" {
		t.Fatalf("expected dept eng, got %v", df.Col("dept").At(0))
	}
}
