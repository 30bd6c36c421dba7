package profiler

import (
	"math"
	"math/rand"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

func computeNumericStats(col *model.Series, trimPct float64) *model.NumericStats {
	sorted := sortedFloats(col)
	if len(sorted) == 0 {
		return &model.NumericStats{}
	}

	min, max := sorted[0], sorted[len(sorted)-1]
	p05 := ldf.Interpolate(sorted, 0.05)
	q1 := ldf.Interpolate(sorted, 0.25)
	median := ldf.Interpolate(sorted, 0.5)
	q3 := ldf.Interpolate(sorted, 0.75)
	p95 := ldf.Interpolate(sorted, 0.95)
	m := mean(sorted)
	sd := stdDev(sorted, m)
	trimmed := trimmedMean(sorted, trimPct)

	skew := computeSkew(m, median, sd, q1, q3)

	zero, neg, isInt := 0, 0, true
	for _, v := range sorted {
		if v == 0 {
			zero++
		}
		if v < 0 {
			neg++
		}
		if v != math.Floor(v) {
			isInt = false
		}
	}

	isSorted, isSortedRev := monotonic(col)

	binWidth, bins := buildNumericHistogram(sorted, q1, q3, min, max)

	return &model.NumericStats{
		Min: min, P05: p05, Q1: q1, Median: median, Mean: m, TrimmedMean: trimmed,
		Q3: q3, P95: p95, Max: max, StdDev: sd, Skew: skew,
		ZeroCount: zero, NegativeCount: neg, IsInteger: isInt,
		IsSorted: isSorted, IsSortedRev: isSortedRev,
		DistinctCount: distinctCount(sorted),
		BinWidth:      binWidth, Histogram: bins,
	}
}

func computeSkew(m, median, sd, q1, q3 float64) float64 {
	var pearson float64
	pearsonDefined := sd != 0
	if pearsonDefined {
		pearson = 3 * (m - median) / sd
	}
	iqr := q3 - q1
	var bowley float64
	bowleyDefined := iqr != 0
	if bowleyDefined {
		bowley = (q3 + q1 - 2*median) / iqr
	}
	switch {
	case pearsonDefined && bowleyDefined:
		return (pearson + bowley) / 2
	case pearsonDefined:
		return pearson
	default:
		return 0
	}
}

func trimmedMean(sorted []float64, trimPct float64) float64 {
	n := len(sorted)
	k := int(float64(n) * trimPct)
	if 2*k >= n {
		return mean(sorted)
	}
	return mean(sorted[k : n-k])
}

func monotonic(col *model.Series) (sorted, sortedRev bool) {
	if col == nil || col.Len < 2 {
		return true, true
	}
	sorted, sortedRev = true, true
	prevSet := false
	var prev float64
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
		if prevSet {
			if v <= prev {
				sorted = false
			}
			if v >= prev {
				sortedRev = false
			}
		}
		prev = v
		prevSet = true
	}
	return sorted, sortedRev
}

func distinctCount(sorted []float64) int {
	if len(sorted) == 0 {
		return 0
	}
	n := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			n++
		}
	}
	return n
}

// buildNumericHistogram applies the Freedman-Diaconis bin-width rule,
// falling back to max-min/sqrt(n) when IQR is zero, clamped to [5, 50]
// bins. A constant column (max==min) gets 20 synthetic bins centred on
// the value.
func buildNumericHistogram(sorted []float64, q1, q3, min, max float64) (float64, []model.HistBin) {
	n := len(sorted)
	if n == 0 {
		return 0, nil
	}
	if max == min {
		return syntheticConstantHistogram(min, n)
	}

	sample := sorted
	if n >= histogramSampleFrom && n > histogramSampleCap {
		sample = seededFloatSample(sorted, histogramSampleCap, sampleSeed)
	}

	iqr := q3 - q1
	var h float64
	if iqr > 0 {
		h = 2 * iqr / math.Cbrt(float64(n))
	} else {
		h = (max - min) / math.Sqrt(float64(n))
	}
	if h <= 0 {
		h = (max - min) / 10
	}
	numBins := int(math.Ceil((max - min) / h))
	if numBins < 5 {
		numBins = 5
	}
	if numBins > 50 {
		numBins = 50
	}
	binWidth := (max - min) / float64(numBins)

	counts := make([]int, numBins)
	for _, v := range sample {
		idx := int((v - min) / binWidth)
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	bins := make([]model.HistBin, numBins)
	for i, c := range counts {
		bins[i] = model.HistBin{BinLeft: min + float64(i)*binWidth, Count: c}
	}
	return binWidth, bins
}

// seededFloatSample draws n values from sorted uniformly at random using a
// fixed seed, so the histogram sample is reproducible across runs rather
// than biased toward one tail of the distribution (mirrors
// ldf.seededSample's fixed-seed permutation approach).
func seededFloatSample(sorted []float64, n int, seed int64) []float64 {
	if n >= len(sorted) {
		return sorted
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(sorted))[:n]
	out := make([]float64, n)
	for i, j := range idx {
		out[i] = sorted[j]
	}
	return out
}

func syntheticConstantHistogram(value float64, n int) (float64, []model.HistBin) {
	const numBins = 20
	width := 1.0
	bins := make([]model.HistBin, numBins)
	mid := numBins / 2
	for i := range bins {
		bins[i] = model.HistBin{BinLeft: value - float64(mid-i)*width, Count: 0}
	}
	bins[mid].Count = n
	return width, bins
}

func computeBooleanStats(col *model.Series) *model.BooleanStats {
	stats := &model.BooleanStats{}
	if col == nil {
		return stats
	}
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		var truthy bool
		if col.DType == model.DTypeBool {
			truthy = col.Bools[i]
		} else if col.DType == model.DTypeInt64 {
			truthy = col.Ints[i] != 0
		} else {
			truthy = col.Floats[i] != 0
		}
		if truthy {
			stats.TrueCount++
		} else {
			stats.FalseCount++
		}
	}
	return stats
}
