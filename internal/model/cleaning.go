package model

// TextCase selects the case transform applied by advanced cleaning.
// The wire spelling is lowercase.
type TextCase string

const (
	TextCaseNone  TextCase = "none"
	TextCaseLower TextCase = "lower"
	TextCaseUpper TextCase = "upper"
	TextCaseTitle TextCase = "title"
)

// ImputeMode selects the null-filling strategy for ML preprocessing.
type ImputeMode string

const (
	ImputeNone   ImputeMode = "none"
	ImputeMean   ImputeMode = "mean"
	ImputeMedian ImputeMode = "median"
	ImputeMode_  ImputeMode = "mode" // trailing underscore avoids colliding with the type name
	ImputeZero   ImputeMode = "zero"
)

// NormaliseMethod selects the scaling strategy for ML preprocessing.
// Spelled "normalisation" on the wire throughout.
type NormaliseMethod string

const (
	NormaliseNone   NormaliseMethod = "none"
	NormaliseZScore NormaliseMethod = "zscore"
	NormaliseMinMax NormaliseMethod = "minmax"
)

// CleaningConfig describes how a single column should be cleaned. The
// zero value is inert: active=false drops the column, every other knob
// defaults to its no-op setting.
type CleaningConfig struct {
	Active      bool        `json:"active"`
	NewName     string      `json:"new_name"`
	TargetDtype *ColumnKind `json:"target_dtype,omitempty"`

	AdvancedCleaning   bool     `json:"advanced_cleaning"`
	TrimWhitespace     bool     `json:"trim_whitespace"`
	RemoveSpecialChars bool     `json:"remove_special_chars"`
	RemoveNonASCII     bool     `json:"remove_non_ascii"`
	StandardiseNulls   bool     `json:"standardise_nulls"`
	TextCase           TextCase `json:"text_case"`
	RegexFind          string   `json:"regex_find"`
	RegexReplace       string   `json:"regex_replace"`
	ExtractNumbers     bool     `json:"extract_numbers"`

	MLPreprocessing bool            `json:"ml_preprocessing"`
	ImputeMode      ImputeMode      `json:"impute_mode"`
	Normalisation   NormaliseMethod `json:"normalisation"`
	ClipOutliers    bool            `json:"clip_outliers"`
	Rounding        *int            `json:"rounding,omitempty"`
	OneHotEncode    bool            `json:"one_hot_encode"`
	FreqThreshold   *int            `json:"freq_threshold,omitempty"`

	TemporalFormat string `json:"temporal_format"`
	TimezoneUTC    bool   `json:"timezone_utc"`
}

// DefaultCleaningConfig returns an active, no-op configuration: the column
// passes through unchanged apart from being kept.
func DefaultCleaningConfig() CleaningConfig {
	return CleaningConfig{
		Active:        true,
		TextCase:      TextCaseNone,
		ImputeMode:    ImputeNone,
		Normalisation: NormaliseNone,
	}
}

// Sanitise enforces the invariant that imputation modes
// restricted to {Mean,Median,Zero} apply only when the effective kind
// (post target_dtype cast, falling back to the observed kind) is
// Numeric; Mode only when Categorical. Invalid combinations are rewritten
// to ImputeNone in place, mirroring the cleaner's own rewrite-don't-reject
// posture for malformed configuration.
func (c *CleaningConfig) Sanitise(effectiveKind ColumnKind) {
	switch c.ImputeMode {
	case ImputeMean, ImputeMedian, ImputeZero:
		if effectiveKind != ColumnKindNumeric {
			c.ImputeMode = ImputeNone
		}
	case ImputeMode_:
		if effectiveKind != ColumnKindCategorical {
			c.ImputeMode = ImputeNone
		}
	}
}

// TransformSpec is one step of a TransformPipeline: a discriminated op
// name plus loosely-typed parameters, deserialised by the pipelinespec
// package into concrete step structs.
type TransformSpec struct {
	Op         string                 `json:"op"`
	Parameters map[string]interface{} `json:"parameters"`
}

// TransformPipeline is an ordered sequence of steps. Order is significant
// and is always preserved verbatim through JSON round-trips and version
// concatenation.
type TransformPipeline struct {
	Steps []TransformSpec `json:"steps"`
}

// Concat returns a new pipeline whose steps are p's steps followed by
// other's steps. Neither input is mutated.
func (p TransformPipeline) Concat(other TransformPipeline) TransformPipeline {
	out := make([]TransformSpec, 0, len(p.Steps)+len(other.Steps))
	out = append(out, p.Steps...)
	out = append(out, other.Steps...)
	return TransformPipeline{Steps: out}
}
