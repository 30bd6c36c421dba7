package profiler

import (
	"fmt"
	"math"

	"github.com/beefcake-data/beefcake/internal/model"
)

// applySignals fills Interpretation/BusinessSummary/MLAdvice for a summary
// that already has Stats populated.
func applySignals(s *model.ColumnSummary) {
	nullPct := 0.0
	if s.Count > 0 {
		nullPct = 100 * float64(s.Nulls) / float64(s.Count)
	}
	isID := model.IsIdentifierLike(s.Name)

	switch {
	case nullPct == 0:
		s.Interpretation = append(s.Interpretation, "Complete data set")
	case nullPct > 15:
		s.Interpretation = append(s.Interpretation, "significant missing data")
		s.BusinessSummary = append(s.BusinessSummary, "significant missing data")
	case nullPct > 5:
		s.Interpretation = append(s.Interpretation, "material missing data")
		s.BusinessSummary = append(s.BusinessSummary, "material missing data")
	}

	switch s.Stats.Kind {
	case model.ColumnKindNumeric:
		applyNumericSignals(s, isID)
	case model.ColumnKindBoolean:
		if b := s.Stats.Boolean; b != nil && (b.TrueCount == 0 || b.FalseCount == 0) {
			s.Interpretation = append(s.Interpretation, "field is constant")
		}
	case model.ColumnKindText:
		applyTextSignals(s)
	case model.ColumnKindCategorical:
		applyCategoricalSignals(s)
	}

	if s.HasSpecial && !isID {
		s.MLAdvice = append(s.MLAdvice, "remove_special_chars recommended")
	}
	if nullPct > 0 {
		if s.Stats.Kind == model.ColumnKindNumeric {
			s.MLAdvice = append(s.MLAdvice, "impute_mode=mean recommended")
		} else if s.Stats.Kind == model.ColumnKindCategorical {
			s.MLAdvice = append(s.MLAdvice, "impute_mode=mode recommended")
		}
	}

	isHighCardinalityID := s.Stats.Kind == model.ColumnKindNumeric && s.Stats.Numeric != nil &&
		s.Stats.Numeric.DistinctCount > 100 && s.Count > 0 &&
		float64(s.Stats.Numeric.DistinctCount)/float64(s.Count) >= 0.95
	if isID || isHighCardinalityID {
		s.MLAdvice = append(s.MLAdvice, "excluding this identifier from regression features")
	}
}

func applyNumericSignals(s *model.ColumnSummary, isID bool) {
	n := s.Stats.Numeric
	if n == nil {
		return
	}
	switch {
	case math.Abs(n.Skew) < 0.1:
		s.Interpretation = append(s.Interpretation, "symmetric distribution")
	case n.Skew > 0.1:
		s.Interpretation = append(s.Interpretation, "Right-skewed distribution")
	case n.Skew < -0.1:
		s.Interpretation = append(s.Interpretation, "Left-skewed distribution")
	}

	if n.Median != 0 && math.Abs(n.Mean-n.Median)/math.Abs(n.Median) > 0.1 {
		s.Interpretation = append(s.Interpretation, "outliers influencing the average")
	}
	if n.StdDev != 0 && math.Abs(n.Mean-n.Median)/n.StdDev > 0.3 {
		s.Interpretation = append(s.Interpretation, "standard deviation less reliable")
	}

	rangeV := n.Max - n.Min
	iqr := n.Q3 - n.Q1
	if rangeV > 0 {
		ratio := iqr / rangeV
		if ratio < 0.1 {
			s.Interpretation = append(s.Interpretation, "concentrated distribution")
		} else if ratio > 0.6 {
			s.Interpretation = append(s.Interpretation, "high variability")
		}
	}

	if n.P95 != n.P05 && n.Max-n.Min > 3*(n.P95-n.P05) {
		s.Interpretation = append(s.Interpretation, "extreme outliers stretching scale")
	}

	total := 0
	maxCount, minVisible := 0, math.MaxInt64
	for _, b := range n.Histogram {
		total += b.Count
		if b.Count > maxCount {
			maxCount = b.Count
		}
		if b.Count > 0 && b.Count < minVisible {
			minVisible = b.Count
		}
	}
	if total > 0 {
		if float64(maxCount)/float64(total) > 0.9 {
			s.Interpretation = append(s.Interpretation, "dominant bin")
		}
		if minVisible != math.MaxInt64 && float64(minVisible)/float64(maxCount) < 0.005 {
			s.Interpretation = append(s.Interpretation, "some bars may be invisible")
		}
	}

	if math.Abs(n.Skew) > 1 {
		s.MLAdvice = append(s.MLAdvice, "clip_outliers recommended")
	}
	if !isID {
		s.MLAdvice = append(s.MLAdvice, "normalisation=zscore recommended")
	}
}

func applyTextSignals(s *model.ColumnSummary) {
	t := s.Stats.Text
	if t == nil {
		return
	}
	if t.Distinct == s.Count && s.Nulls == 0 {
		s.Interpretation = append(s.Interpretation, "likely unique identifier")
	}
}

func applyCategoricalSignals(s *model.ColumnSummary) {
	c := s.Stats.Categorical
	if c == nil {
		return
	}
	if len(c.Counts) == 1 {
		s.Interpretation = append(s.Interpretation, "constant")
	} else {
		maxC, minC := 0, math.MaxInt64
		for _, n := range c.Counts {
			if n > maxC {
				maxC = n
			}
			if n < minC {
				minC = n
			}
		}
		if minC > 0 && float64(maxC)/float64(minC) > 5 {
			s.Interpretation = append(s.Interpretation, "heavily uneven distribution")
		}
	}
	s.MLAdvice = append(s.MLAdvice, "one_hot_encode recommended")
}

// computeFileHealth scores file health starting from 1.0, deducting per
// column for missingness, special characters, and skew.
func computeFileHealth(summaries []model.ColumnSummary) model.FileHealth {
	score := 1.0
	var risks []string
	for _, s := range summaries {
		if s.Count > 0 {
			nullFrac := float64(s.Nulls) / float64(s.Count)
			deduction := math.Min(0.3*nullFrac, 0.3)
			score -= deduction
			if nullFrac > 0 {
				risks = append(risks, fmt.Sprintf("%s: %.1f%% missing", s.Name, nullFrac*100))
			}
		}
		if s.HasSpecial {
			score -= 0.05
			risks = append(risks, fmt.Sprintf("%s: special characters present", s.Name))
		}
		if s.Stats.Kind == model.ColumnKindNumeric && s.Stats.Numeric != nil && math.Abs(s.Stats.Numeric.Skew) > 1 {
			score -= 0.10
			risks = append(risks, fmt.Sprintf("%s: highly skewed", s.Name))
		}
	}
	if score < 0 {
		score = 0
	}
	return model.FileHealth{Score: score, Risks: risks}
}
