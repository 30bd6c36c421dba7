package model

// HistBin is one (bin_left, count) pair. Bins are left-closed, right-open
// except the last bin of a histogram, which is right-closed.
type HistBin struct {
	BinLeft float64 `json:"bin_left"`
	Count   int     `json:"count"`
}

// TemporalHistBin is the temporal analogue of HistBin, keyed by a
// millisecond Unix timestamp rather than a float.
type TemporalHistBin struct {
	Ts    int64 `json:"ts"`
	Count int   `json:"count"`
}

// NumericStats is the ColumnStats variant for Numeric columns.
type NumericStats struct {
	Min            float64   `json:"min"`
	P05            float64   `json:"p05"`
	Q1             float64   `json:"q1"`
	Median         float64   `json:"median"`
	Mean           float64   `json:"mean"`
	TrimmedMean    float64   `json:"trimmed_mean"`
	Q3             float64   `json:"q3"`
	P95            float64   `json:"p95"`
	Max            float64   `json:"max"`
	StdDev         float64   `json:"std_dev"`
	Skew           float64   `json:"skew"`
	ZeroCount      int       `json:"zero_count"`
	NegativeCount  int       `json:"negative_count"`
	IsInteger      bool      `json:"is_integer"`
	IsSorted       bool      `json:"is_sorted"`
	IsSortedRev    bool      `json:"is_sorted_rev"`
	DistinctCount  int       `json:"distinct_count"`
	BinWidth       float64   `json:"bin_width"`
	Histogram      []HistBin `json:"histogram"`
}

// TopValue is a (value, count) pair used for Text.TopValue.
type TopValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TextStats is the ColumnStats variant for Text columns.
type TextStats struct {
	Distinct  int       `json:"distinct"`
	TopValue  *TopValue `json:"top_value,omitempty"`
	MinLength int       `json:"min_length"`
	MaxLength int       `json:"max_length"`
	AvgLength float64   `json:"avg_length"`
}

// CategoricalStats is the ColumnStats variant for Categorical columns: a
// full frequency map, capped at 100 keys with an "Other" aggregate beyond
// that (see profiler package for the capping logic).
type CategoricalStats struct {
	Counts map[string]int `json:"counts"`
}

// TemporalStats is the ColumnStats variant for Temporal columns.
type TemporalStats struct {
	Min           string            `json:"min"`
	Max           string            `json:"max"`
	DistinctCount int               `json:"distinct_count"`
	P05           *string           `json:"p05,omitempty"`
	P95           *string           `json:"p95,omitempty"`
	IsSorted      bool              `json:"is_sorted"`
	IsSortedRev   bool              `json:"is_sorted_rev"`
	BinWidth      float64           `json:"bin_width"`
	Histogram     []TemporalHistBin `json:"histogram"`
}

// BooleanStats is the ColumnStats variant for Boolean columns.
type BooleanStats struct {
	TrueCount  int `json:"true_count"`
	FalseCount int `json:"false_count"`
}

// ColumnStats is the tagged-variant envelope for per-column statistics.
// Exactly one of the typed fields is non-nil, selected by Kind.
type ColumnStats struct {
	Kind        ColumnKind        `json:"kind"`
	Numeric     *NumericStats     `json:"numeric,omitempty"`
	Text        *TextStats        `json:"text,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
	Temporal    *TemporalStats    `json:"temporal,omitempty"`
	Boolean     *BooleanStats     `json:"boolean,omitempty"`
}

// ColumnSummary is the profiler's per-column output envelope.
type ColumnSummary struct {
	Name              string      `json:"name"`
	StandardisedName  string      `json:"standardised_name"`
	Kind              ColumnKind  `json:"kind"`
	Count             int         `json:"count"`
	Nulls             int         `json:"nulls"`
	HasSpecial        bool        `json:"has_special"`
	Stats             ColumnStats `json:"stats"`
	Interpretation    []string    `json:"interpretation"`
	BusinessSummary   []string    `json:"business_summary"`
	MLAdvice          []string    `json:"ml_advice"`
	Samples           []string    `json:"samples"`
}

// FileHealth is the profiler's overall-quality verdict for a dataset.
type FileHealth struct {
	Score float64  `json:"score"`
	Risks []string `json:"risks"`
}
