// Package profiler implements beefcake's statistical analysis pass:
// Analyse produces a ColumnSummary per column plus a FileHealth score,
// sampling large inputs deterministically and isolating per-column
// failures so one bad column never aborts the whole run.
package profiler

import (
	"fmt"
	"math"
	"sort"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

const (
	sampleSeed          = 42
	sampleTriggerBytes  = 20 * 1024 * 1024
	sampleTriggerCols   = 50
	sampleRowCap        = 500_000
	sampleRowBudget     = 5_000_000
	histogramSampleCap  = 10_000
	histogramSampleFrom = 10_000
	categoricalCapKeys  = 100
)

// Result bundles the per-column summaries with the file-level health score
// so callers (CLI, flows) get both from one Analyse call.
type Result struct {
	Columns []model.ColumnSummary
	Health  model.FileHealth
}

// Analyse runs the full profiler contract over l: sampling when the
// source is large, computing per-column statistics and advisory signals,
// and scoring overall file health.
func Analyse(l *ldf.LDF, fileSizeBytes int64, trimPct float64) (Result, error) {
	schema := l.CollectSchema()
	df, sampled, sampleNote, err := materialiseForProfiling(l, schema, fileSizeBytes)
	if err != nil {
		return Result{}, err
	}

	summaries := make([]model.ColumnSummary, 0, len(schema.Fields))
	for i, f := range schema.Fields {
		summary := profileColumnSafe(df, f, trimPct)
		if i == 0 && sampled {
			summary.Samples = append([]string{sampleNote}, summary.Samples...)
		}
		summaries = append(summaries, summary)
	}

	health := computeFileHealth(summaries)
	return Result{Columns: summaries, Health: health}, nil
}

func materialiseForProfiling(l *ldf.LDF, schema model.Schema, fileSizeBytes int64) (*model.DataFrame, bool, string, error) {
	needsSample := fileSizeBytes > sampleTriggerBytes || len(schema.Fields) > sampleTriggerCols
	if !needsSample {
		df, err := l.Collect()
		return df, false, "", err
	}

	ncols := len(schema.Fields)
	n := sampleRowBudget / maxInt(ncols, 1)
	if n > sampleRowCap {
		n = sampleRowCap
	}
	sampled := l.Sample(n, sampleSeed)
	df, err := sampled.Collect()
	if err != nil {
		return nil, false, "", err
	}
	note := fmt.Sprintf("sampled %d rows (seed=%d) for profiling", df.NumRows(), sampleSeed)
	return df, true, note, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// profileColumnSafe recovers from a per-column failure, returning a
// placeholder summary rather than letting one bad column abort the whole
// analysis.
func profileColumnSafe(df *model.DataFrame, f model.Field, trimPct float64) (summary model.ColumnSummary) {
	defer func() {
		if r := recover(); r != nil {
			summary = placeholderSummary(f.Name, fmt.Sprintf("%v", r))
		}
	}()
	return profileColumn(df, f, trimPct)
}

func placeholderSummary(name, reason string) model.ColumnSummary {
	return model.ColumnSummary{
		Name:             name,
		StandardisedName: model.StandardiseName(name),
		Kind:             model.ColumnKindNested,
		MLAdvice:         []string{"profile_failed: " + reason},
	}
}

func profileColumn(df *model.DataFrame, f model.Field, trimPct float64) model.ColumnSummary {
	col := df.Col(f.Name)
	n := df.NumRows()
	nulls := 0
	if col != nil {
		nulls = col.NullCount()
	}

	kind := classifyColumn(col, f.DType)
	summary := model.ColumnSummary{
		Name:             f.Name,
		StandardisedName: model.StandardiseName(f.Name),
		Kind:             kind,
		Count:            n,
		Nulls:            nulls,
	}

	switch kind {
	case model.ColumnKindNumeric, model.ColumnKindBoolean:
		if kind == model.ColumnKindBoolean {
			summary.Stats.Kind = model.ColumnKindBoolean
			summary.Stats.Boolean = computeBooleanStats(col)
		} else {
			summary.Stats.Kind = model.ColumnKindNumeric
			summary.Stats.Numeric = computeNumericStats(col, trimPct)
		}
	case model.ColumnKindTemporal:
		summary.Stats.Kind = model.ColumnKindTemporal
		summary.Stats.Temporal = computeTemporalStats(col)
	case model.ColumnKindCategorical:
		summary.Stats.Kind = model.ColumnKindCategorical
		summary.Stats.Categorical = computeCategoricalStats(col)
	default:
		summary.Stats.Kind = model.ColumnKindText
		summary.Stats.Text = computeTextStats(col)
		summary.HasSpecial = columnHasSpecial(col)
	}

	summary.Samples = append(summary.Samples, sampleValues(col, 5)...)
	applySignals(&summary)
	return summary
}

// classifyColumn applies the numeric-to-Boolean and string-to-Categorical
// reclassification heuristics on top of the physical DType.
func classifyColumn(col *model.Series, dt model.DType) model.ColumnKind {
	switch dt {
	case model.DTypeInt64, model.DTypeFloat64:
		if looksBoolean(col) {
			return model.ColumnKindBoolean
		}
		return model.ColumnKindNumeric
	case model.DTypeBool:
		return model.ColumnKindBoolean
	case model.DTypeDate, model.DTypeDatetime:
		return model.ColumnKindTemporal
	case model.DTypeCategorical:
		return model.ColumnKindCategorical
	default:
		if looksCategorical(col) {
			return model.ColumnKindCategorical
		}
		return model.ColumnKindText
	}
}

func looksBoolean(col *model.Series) bool {
	if col == nil {
		return false
	}
	distinct := map[float64]bool{}
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		var v float64
		if col.DType == model.DTypeInt64 {
			v = float64(col.Ints[i])
		} else {
			v = col.Floats[i]
		}
		distinct[v] = true
		if len(distinct) > 3 {
			return false
		}
		if v != 0 && v != 1 {
			return false
		}
	}
	return len(distinct) > 0 && len(distinct) <= 3
}

// looksCategorical reclassifies a string column as Categorical when its
// distinct count is at most categoricalCapKeys or its distinct-to-row
// ratio is under 5% — either condition alone is sufficient.
func looksCategorical(col *model.Series) bool {
	if col == nil || col.Len == 0 {
		return false
	}
	distinct := map[string]bool{}
	for i, s := range col.Strs {
		if i < len(col.Valid) && !col.Valid[i] {
			continue
		}
		distinct[s] = true
	}
	if len(distinct) == 0 {
		return false
	}
	ratio := float64(len(distinct)) / float64(col.Len)
	return len(distinct) <= categoricalCapKeys || ratio < 0.05
}

func sampleValues(col *model.Series, n int) []string {
	if col == nil {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < col.Len && len(out) < n; i++ {
		if !col.Valid[i] {
			continue
		}
		out = append(out, formatColumnValue(col, i))
	}
	return out
}

func formatColumnValue(col *model.Series, i int) string {
	switch col.DType {
	case model.DTypeInt64:
		return fmt.Sprintf("%d", col.Ints[i])
	case model.DTypeFloat64:
		return fmt.Sprintf("%g", col.Floats[i])
	case model.DTypeBool:
		return fmt.Sprintf("%v", col.Bools[i])
	case model.DTypeDate:
		return col.Times[i].Format("2006-01-02")
	case model.DTypeDatetime:
		return col.Times[i].Format("2006-01-02T15:04:05Z07:00")
	default:
		return col.Strs[i]
	}
}

func columnHasSpecial(col *model.Series) bool {
	if col == nil {
		return false
	}
	for i, s := range col.Strs {
		if i < len(col.Valid) && !col.Valid[i] {
			continue
		}
		if model.HasSpecial(s) {
			return true
		}
	}
	return false
}

// sortedFloats returns the non-null numeric values of col as a sorted
// ascending slice.
func sortedFloats(col *model.Series) []float64 {
	if col == nil {
		return nil
	}
	out := make([]float64, 0, col.Len)
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		if col.DType == model.DTypeInt64 {
			out = append(out, float64(col.Ints[i]))
		} else {
			out = append(out, col.Floats[i])
		}
	}
	sort.Float64s(out)
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
