package model

import "time"

// ResultKind discriminates the shape of Result.Data for render.Render's
// dispatch — one constant per CLI-facing output shape the engine produces.
type ResultKind string

const (
	KindDataFramePreview ResultKind = "dataframe_preview"
	KindColumnSummaries  ResultKind = "column_summaries"
	KindReceipt          ResultKind = "receipt"
	KindVerification     ResultKind = "verification"
	KindRunReport        ResultKind = "run_report"
	KindDiff             ResultKind = "diff"
	KindDictionaryList   ResultKind = "dictionary_list"
)

// DataFramePreview is a bounded row sample of a DataFrame, used to render
// a quick look at import/clean/export results without dumping the whole
// file to the terminal.
type DataFramePreview struct {
	Schema    Schema `json:"schema"`
	Rows      []Row  `json:"rows"`
	TotalRows int64  `json:"total_rows"`
	Truncated bool   `json:"truncated"`
}

// AnalysisReport bundles the profiler's per-column output with the
// file-level health verdict, the shape flows.Analyse returns.
type AnalysisReport struct {
	FilePath      string          `json:"file_path"`
	FileSizeBytes int64           `json:"file_size_bytes"`
	Columns       []ColumnSummary `json:"columns"`
	Health        FileHealth      `json:"health"`
}

// ResultStats carries lightweight timing/volume metadata about how a
// Result was produced, surfaced by render.PrintFooter in verbose mode.
type ResultStats struct {
	Items      int   `json:"items"`
	DurationMs int64 `json:"duration_ms"`
}

// Result is the generic envelope every CLI command renders: Data holds one
// of DataFramePreview, AnalysisReport, IntegrityReceipt, VerificationResult,
// RunReport, DiffSummary, or a []dictionary.SnapshotMetadata list
// depending on Kind.
type Result struct {
	Kind        ResultKind  `json:"kind"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
	Stats       ResultStats `json:"stats"`
}
