package profiler

import (
	"sort"

	"github.com/beefcake-data/beefcake/internal/model"
)

func computeTextStats(col *model.Series) *model.TextStats {
	stats := &model.TextStats{}
	if col == nil {
		return stats
	}
	counts := map[string]int{}
	var totalLen, n int
	minLen, maxLen := -1, -1
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		s := col.Strs[i]
		counts[s]++
		l := len([]rune(s))
		totalLen += l
		n++
		if minLen == -1 || l < minLen {
			minLen = l
		}
		if l > maxLen {
			maxLen = l
		}
	}
	stats.Distinct = len(counts)
	if minLen == -1 {
		minLen = 0
	}
	stats.MinLength = minLen
	stats.MaxLength = maxLen
	if n > 0 {
		stats.AvgLength = float64(totalLen) / float64(n)
	}
	stats.TopValue = topValueOf(counts)
	return stats
}

// topValueOf finds the highest-frequency value, breaking ties by
// lexicographically smallest value for determinism.
func topValueOf(counts map[string]int) *model.TopValue {
	if len(counts) == 0 {
		return nil
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
	return &model.TopValue{Value: best, Count: counts[best]}
}

func computeCategoricalStats(col *model.Series) *model.CategoricalStats {
	stats := &model.CategoricalStats{Counts: map[string]int{}}
	if col == nil {
		return stats
	}
	counts := map[string]int{}
	for i := 0; i < col.Len; i++ {
		if !col.Valid[i] {
			continue
		}
		counts[col.Strs[i]]++
	}
	if len(counts) <= categoricalCapKeys {
		stats.Counts = counts
		return stats
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return counts[keys[i]] > counts[keys[j]] })

	capped := map[string]int{}
	var otherTotal int
	for i, k := range keys {
		if i < categoricalCapKeys-1 {
			capped[k] = counts[k]
		} else {
			otherTotal += counts[k]
		}
	}
	capped["Other"] = otherTotal
	stats.Counts = capped
	return stats
}
