package ldf

import (
	"fmt"
	"sort"

	"github.com/beefcake-data/beefcake/internal/model"
)

// ValueCount pairs a distinct value's string form with its occurrence
// count, ordered by Count descending (ties broken by first appearance).
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts materialises l and tallies the distinct values of col,
// sorted by descending frequency.
func (l *LDF) ValueCounts(col string) ([]ValueCount, error) {
	rows, schema, err := l.collectRows()
	if err != nil {
		return nil, err
	}
	i := schema.IndexOf(col)
	if i < 0 {
		return nil, fmt.Errorf("value_counts: unknown column %q", col)
	}
	order := make([]string, 0)
	counts := make(map[string]int)
	for _, row := range rows {
		v := row.Vals[i]
		key := "<null>"
		if !v.Null {
			key = formatValue(v)
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	out := make([]ValueCount, len(order))
	for idx, k := range order {
		out[idx] = ValueCount{Value: k, Count: counts[k]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out, nil
}

// Quantile materialises l and returns the q-th quantile (0<=q<=1) of col,
// using linear interpolation between closest ranks, matching the
// interpolation the profiler uses for percentile statistics.
func (l *LDF) Quantile(col string, q float64) (float64, error) {
	rows, schema, err := l.collectRows()
	if err != nil {
		return 0, err
	}
	i := schema.IndexOf(col)
	if i < 0 {
		return 0, fmt.Errorf("quantile: unknown column %q", col)
	}
	vals := make([]float64, 0, len(rows))
	for _, row := range rows {
		v := row.Vals[i]
		if v.Null {
			continue
		}
		switch v.Kind {
		case model.DTypeInt64:
			vals = append(vals, float64(v.I))
		case model.DTypeFloat64:
			vals = append(vals, v.F)
		default:
			return 0, fmt.Errorf("quantile: column %q is not numeric", col)
		}
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("quantile: column %q has no non-null values", col)
	}
	sort.Float64s(vals)
	return Interpolate(vals, q), nil
}

// Interpolate returns the q-th quantile of a pre-sorted ascending slice
// using linear interpolation between closest ranks (the R-7 method, same
// convention used throughout the profiler's percentile statistics).
func Interpolate(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
