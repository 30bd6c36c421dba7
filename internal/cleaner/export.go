package cleaner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

// The pipeline executor (internal/pipelinespec) reuses these column-level
// transforms for its multi-column step algebra, so the two engines never
// drift apart on what "impute" or "one_hot_encode" actually does.

// TrimWhitespace returns col with each non-null string cell trimmed.
func TrimWhitespace(col *model.Series) *model.Series {
	vals := mapStrings(seriesValues(col), strings.TrimSpace)
	return buildSeries(col.Name, col.DType, vals)
}

// ImputeColumn fills nulls per mode (Mean/Median/Zero for numeric, Mode for
// categorical/text).
func ImputeColumn(col *model.Series, mode model.ImputeMode) *model.Series {
	return imputeColumn(col, mode)
}

// ClipOutliersIQR winsorises col to [q1-1.5*IQR, q3+1.5*IQR].
func ClipOutliersIQR(col *model.Series) *model.Series {
	return clipOutliers(col)
}

// ClipOutliersQuantile winsorises col to [lowerQ, upperQ] percentile bounds,
// used by the pipeline executor's clip_outliers(cols, lower_q, upper_q)
// step, which takes explicit quantile bounds rather than the fixed IQR
// multiplier the cleaning-config variant uses.
func ClipOutliersQuantile(col *model.Series, lowerQ, upperQ float64) *model.Series {
	vals := seriesValues(col)
	sorted := sortedNonNullFloats(vals)
	if len(sorted) == 0 {
		return col
	}
	lower := ldf.Interpolate(sorted, lowerQ)
	upper := ldf.Interpolate(sorted, upperQ)
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

// Normalise applies ZScore or MinMax scaling.
func Normalise(col *model.Series, method model.NormaliseMethod) *model.Series {
	return normaliseColumn(col, method)
}

// OneHotEncode expands col into one {0,1} Int64 column per distinct value.
func OneHotEncode(col *model.Series) []*model.Series {
	return oneHotEncode(col)
}

// ExtractNumbersColumn replaces each cell with the first numeric run it
// contains, re-typing the column to Float64.
func ExtractNumbersColumn(col *model.Series) (*model.Series, error) {
	return extractNumbers(col)
}

// RegexReplace applies re.ReplaceAllString to every non-null string cell.
func RegexReplace(col *model.Series, re *regexp.Regexp, replacement string) *model.Series {
	vals := mapStrings(seriesValues(col), func(s string) string { return re.ReplaceAllString(s, replacement) })
	return buildSeries(col.Name, col.DType, vals)
}

// FreqThreshold collapses categorical values occurring fewer than
// threshold times into "Other".
func FreqThreshold(col *model.Series, threshold int) *model.Series {
	return applyFreqThreshold(col, threshold)
}

// DistinctSortedValues returns the column's non-null distinct string values
// in deterministic sorted order — the encoding schema one_hot_encode uses.
func DistinctSortedValues(col *model.Series) []string {
	vals := seriesValues(col)
	distinct := map[string]bool{}
	for _, v := range vals {
		if !v.Null {
			distinct[v.S] = true
		}
	}
	out := make([]string, 0, len(distinct))
	for v := range distinct {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
