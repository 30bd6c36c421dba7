package cleaner

import (
	"math"
	"sort"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

// applyMLPreprocessing runs ML-preprocessing step c over a single (already
// advanced-cleaned and cast) column. one_hot_encode returns more than one
// series and drops the original; every other step returns exactly one.
func applyMLPreprocessing(col *model.Series, cfg model.CleaningConfig) ([]*model.Series, error) {
	kind := kindOf(col.DType)
	cfg.Sanitise(kind)

	cur := col
	if cfg.ImputeMode != model.ImputeNone {
		cur = imputeColumn(cur, cfg.ImputeMode)
	}

	if kind == model.ColumnKindNumeric {
		if cfg.ClipOutliers {
			cur = clipOutliers(cur)
		}
		if cfg.Rounding != nil {
			cur = roundColumn(cur, *cfg.Rounding)
		}
		if cfg.Normalisation != model.NormaliseNone {
			cur = normaliseColumn(cur, cfg.Normalisation)
		}
	}

	if kind == model.ColumnKindCategorical && cfg.FreqThreshold != nil {
		cur = applyFreqThreshold(cur, *cfg.FreqThreshold)
	}

	if cfg.OneHotEncode && (kind == model.ColumnKindCategorical || kind == model.ColumnKindText) {
		return oneHotEncode(cur), nil
	}
	return []*model.Series{cur}, nil
}

func imputeColumn(col *model.Series, mode model.ImputeMode) *model.Series {
	vals := seriesValues(col)
	switch mode {
	case model.ImputeMean, model.ImputeMedian:
		sorted := sortedNonNullFloats(vals)
		if len(sorted) == 0 {
			return col
		}
		var fill float64
		if mode == model.ImputeMean {
			fill = meanOf(sorted)
		} else {
			fill = ldf.Interpolate(sorted, 0.5)
		}
		return buildSeries(col.Name, col.DType, fillNumeric(vals, fill))

	case model.ImputeZero:
		return buildSeries(col.Name, col.DType, fillNumeric(vals, 0))

	case model.ImputeMode_:
		fillValue := modeOf(vals)
		out := make([]model.Value, len(vals))
		for i, v := range vals {
			if v.Null {
				out[i] = model.Value{Kind: v.Kind, S: fillValue}
				continue
			}
			out[i] = v
		}
		return buildSeries(col.Name, col.DType, out)

	default:
		return col
	}
}

func sortedNonNullFloats(vals []model.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Null {
			continue
		}
		out = append(out, floatOf(v))
	}
	sort.Float64s(out)
	return out
}

func floatOf(v model.Value) float64 {
	if v.Kind == model.DTypeInt64 {
		return float64(v.I)
	}
	return v.F
}

func fillNumeric(vals []model.Value, fill float64) []model.Value {
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if !v.Null {
			out[i] = v
			continue
		}
		if v.Kind == model.DTypeInt64 {
			out[i] = model.Value{Kind: v.Kind, I: int64(fill)}
		} else {
			out[i] = model.Value{Kind: v.Kind, F: fill}
		}
	}
	return out
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// modeOf returns the most frequent non-null string value, breaking ties
// lexicographically for determinism.
func modeOf(vals []model.Value) string {
	counts := map[string]int{}
	for _, v := range vals {
		if !v.Null {
			counts[v.S]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// clipOutliers winsorises numeric values to [q1-1.5*IQR, q3+1.5*IQR].
func clipOutliers(col *model.Series) *model.Series {
	vals := seriesValues(col)
	sorted := sortedNonNullFloats(vals)
	if len(sorted) == 0 {
		return col
	}
	q1 := ldf.Interpolate(sorted, 0.25)
	q3 := ldf.Interpolate(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null {
			out[i] = v
			continue
		}
		f := floatOf(v)
		if f < lower {
			f = lower
		} else if f > upper {
			f = upper
		}
		out[i] = toNumericValue(v.Kind, f)
	}
	return buildSeries(col.Name, col.DType, out)
}

func roundColumn(col *model.Series, places int) *model.Series {
	factor := math.Pow(10, float64(places))
	vals := seriesValues(col)
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null {
			out[i] = v
			continue
		}
		f := math.Round(floatOf(v)*factor) / factor
		out[i] = toNumericValue(v.Kind, f)
	}
	return buildSeries(col.Name, col.DType, out)
}

// normaliseColumn applies ZScore or MinMax scaling. A zero standard
// deviation or zero range yields all zeros rather than dividing by zero.
func normaliseColumn(col *model.Series, method model.NormaliseMethod) *model.Series {
	vals := seriesValues(col)
	sorted := sortedNonNullFloats(vals)
	if len(sorted) == 0 {
		return col
	}

	var transform func(float64) float64
	switch method {
	case model.NormaliseZScore:
		m := meanOf(sorted)
		var ss float64
		for _, x := range sorted {
			d := x - m
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(len(sorted)))
		if sd == 0 {
			transform = func(float64) float64 { return 0 }
		} else {
			transform = func(x float64) float64 { return (x - m) / sd }
		}
	case model.NormaliseMinMax:
		min, max := sorted[0], sorted[len(sorted)-1]
		rangeV := max - min
		if rangeV == 0 {
			transform = func(float64) float64 { return 0 }
		} else {
			transform = func(x float64) float64 { return (x - min) / rangeV }
		}
	default:
		return col
	}

	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null {
			out[i] = v
			continue
		}
		out[i] = model.Value{Kind: model.DTypeFloat64, F: transform(floatOf(v))}
	}
	return buildSeries(col.Name, model.DTypeFloat64, out)
}

func toNumericValue(k model.DType, f float64) model.Value {
	if k == model.DTypeInt64 {
		return model.Value{Kind: k, I: int64(f)}
	}
	return model.Value{Kind: model.DTypeFloat64, F: f}
}

// applyFreqThreshold collapses categorical values occurring fewer than
// threshold times into "Other".
func applyFreqThreshold(col *model.Series, threshold int) *model.Series {
	vals := seriesValues(col)
	counts := map[string]int{}
	for _, v := range vals {
		if !v.Null {
			counts[v.S]++
		}
	}
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null || counts[v.S] >= threshold {
			out[i] = v
			continue
		}
		out[i] = model.Value{Kind: v.Kind, S: "Other"}
	}
	return buildSeries(col.Name, col.DType, out)
}

// oneHotEncode expands col into one Int64-valued {0,1} column per distinct
// value, named "{col}_{value}", ordered by a deterministic sort of the
// distinct values. The original column is dropped. Spec calls for Int32;
// the engine's DType enum has no narrower integer type, so Int64 stands in.
func oneHotEncode(col *model.Series) []*model.Series {
	vals := seriesValues(col)
	distinct := map[string]bool{}
	for _, v := range vals {
		if !v.Null {
			distinct[v.S] = true
		}
	}
	values := make([]string, 0, len(distinct))
	for v := range distinct {
		values = append(values, v)
	}
	sort.Strings(values)

	out := make([]*model.Series, len(values))
	for i, val := range values {
		s := model.NewSeries(col.Name+"_"+val, model.DTypeInt64, len(vals))
		for _, v := range vals {
			if !v.Null && v.S == val {
				s.AppendValue(model.Value{Kind: model.DTypeInt64, I: 1})
			} else {
				s.AppendValue(model.Value{Kind: model.DTypeInt64, I: 0})
			}
		}
		out[i] = s
	}
	return out
}
