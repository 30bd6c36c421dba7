package profiler

import (
	"time"

	"github.com/beefcake-data/beefcake/internal/model"
)

func computeTemporalStats(col *model.Series) *model.TemporalStats {
	stats := &model.TemporalStats{}
	if col == nil || col.Len == 0 {
		return stats
	}

	ms := make([]int64, 0, col.Len)
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		ms = append(ms, col.Times[i].UnixMilli())
	}
	if len(ms) == 0 {
		return stats
	}

	minMs, maxMs := ms[0], ms[0]
	for _, v := range ms {
		if v < minMs {
			minMs = v
		}
		if v > maxMs {
			maxMs = v
		}
	}
	stats.Min = formatMillis(minMs)
	stats.Max = formatMillis(maxMs)
	stats.DistinctCount = distinctInt64(ms)

	sortedMs := append([]int64{}, ms...)
	sortInt64(sortedMs)
	p05 := timePercentile(sortedMs, 0.05)
	p95 := timePercentile(sortedMs, 0.95)
	stats.P05 = &p05
	stats.P95 = &p95

	stats.IsSorted, stats.IsSortedRev = temporalMonotonic(col)
	stats.BinWidth, stats.Histogram = buildTemporalHistogram(sortedMs, minMs, maxMs)
	return stats
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05Z07:00")
}

func timePercentile(sortedMs []int64, q float64) string {
	pos := q * float64(len(sortedMs)-1)
	lo := int(pos)
	if lo < 0 {
		lo = 0
	}
	if lo >= len(sortedMs) {
		lo = len(sortedMs) - 1
	}
	return formatMillis(sortedMs[lo])
}

func distinctInt64(xs []int64) int {
	seen := map[int64]bool{}
	for _, x := range xs {
		seen[x] = true
	}
	return len(seen)
}

func sortInt64(xs []int64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func temporalMonotonic(col *model.Series) (sorted, sortedRev bool) {
	sorted, sortedRev = true, true
	prevSet := false
	var prev int64
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		v := col.Times[i].UnixMilli()
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

// buildTemporalHistogram always produces 20 bins over the integer
// millisecond timestamp range.
func buildTemporalHistogram(sortedMs []int64, minMs, maxMs int64) (float64, []model.TemporalHistBin) {
	const numBins = 20
	if maxMs == minMs {
		bins := make([]model.TemporalHistBin, numBins)
		mid := numBins / 2
		for i := range bins {
			bins[i] = model.TemporalHistBin{Ts: minMs, Count: 0}
		}
		bins[mid].Count = len(sortedMs)
		return 1, bins
	}
	width := float64(maxMs-minMs) / float64(numBins)
	counts := make([]int, numBins)
	for _, v := range sortedMs {
		idx := int(float64(v-minMs) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	bins := make([]model.TemporalHistBin, numBins)
	for i, c := range counts {
		bins[i] = model.TemporalHistBin{Ts: minMs + int64(float64(i)*width), Count: c}
	}
	return width, bins
}
