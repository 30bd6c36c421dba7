// Package dictionary builds, persists, and renders per-export data
// dictionary snapshots: an immutable combination of auto-captured
// technical metadata (lineage hashes, per-column statistics, a quality
// summary) and a user-editable business-metadata layer (descriptions,
// ownership, sensitivity tags). Editing business metadata never mutates a
// snapshot in place — it produces a new snapshot linked to the one it
// supersedes via PreviousSnapshotID.
package dictionary

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
)

// DataDictionary is one immutable snapshot of a dataset export's metadata.
type DataDictionary struct {
	SnapshotID         uuid.UUID        `json:"snapshot_id"`
	DatasetName        string           `json:"dataset_name"`
	ExportTimestamp    time.Time        `json:"export_timestamp"`
	DatasetMetadata    DatasetMetadata  `json:"dataset_metadata"`
	Columns            []ColumnMetadata `json:"columns"`
	PreviousSnapshotID *uuid.UUID       `json:"previous_snapshot_id,omitempty"`
}

// DatasetMetadata pairs the dataset's auto-captured technical metadata
// with its user-editable business metadata.
type DatasetMetadata struct {
	Technical TechnicalMetadata       `json:"technical"`
	Business  DatasetBusinessMetadata `json:"business"`
}

// TechnicalMetadata is automatically captured at export time and never
// edited by a user.
type TechnicalMetadata struct {
	InputSources      []InputSource  `json:"input_sources"`
	PipelineID        *uuid.UUID     `json:"pipeline_id,omitempty"`
	PipelineJSON      *string        `json:"pipeline_json,omitempty"`
	InputDatasetHash  *string        `json:"input_dataset_hash,omitempty"`
	OutputDatasetHash string         `json:"output_dataset_hash"`
	RowCount          int            `json:"row_count"`
	ColumnCount       int            `json:"column_count"`
	ExportFormat      string         `json:"export_format"`
	QualitySummary    QualitySummary `json:"quality_summary"`
}

// InputSource records one input file's path and content hash, for
// lineage tracking.
type InputSource struct {
	Path string  `json:"path"`
	Hash *string `json:"hash,omitempty"`
}

// QualitySummary rolls the per-column technical metadata up into
// dataset-level quality signals.
type QualitySummary struct {
	AvgNullPercentage   float64 `json:"avg_null_percentage"`
	EmptyColumnCount    int     `json:"empty_column_count"`
	ConstantColumnCount int     `json:"constant_column_count"`
	DuplicateRowCount   *int    `json:"duplicate_row_count,omitempty"`
	OverallScore        float64 `json:"overall_score"`
}

// DatasetBusinessMetadata is the user-editable semantic layer at the
// dataset level. Every field is optional; an unfilled DataDictionary has
// it zero-valued.
type DatasetBusinessMetadata struct {
	Description               *string  `json:"description,omitempty"`
	IntendedUse               *string  `json:"intended_use,omitempty"`
	OwnerOrSteward            *string  `json:"owner_or_steward,omitempty"`
	RefreshExpectation        *string  `json:"refresh_expectation,omitempty"`
	SensitivityClassification *string  `json:"sensitivity_classification,omitempty"`
	KnownLimitations          *string  `json:"known_limitations,omitempty"`
	Tags                      []string `json:"tags,omitempty"`
}

// ColumnMetadata combines a column's technical profile with its
// business-metadata layer, keyed by a UUID derived from the column name:
// the same name yields the same ID across snapshot versions, and a
// renamed column gets a new ID.
type ColumnMetadata struct {
	ColumnID     uuid.UUID               `json:"column_id"`
	CurrentName  string                  `json:"current_name"`
	OriginalName *string                 `json:"original_name,omitempty"`
	Technical    ColumnTechnicalMetadata `json:"technical"`
	Business     ColumnBusinessMetadata  `json:"business"`
}

// ColumnTechnicalMetadata is a single column's auto-captured profile,
// reduced from the profiler's richer model.ColumnStats to the subset
// worth carrying in a long-lived documentation artefact.
type ColumnTechnicalMetadata struct {
	DataType       string   `json:"data_type"`
	Nullable       bool     `json:"nullable"`
	NullPercentage float64  `json:"null_percentage"`
	DistinctCount  int      `json:"distinct_count"`
	MinValue       *string  `json:"min_value,omitempty"`
	MaxValue       *string  `json:"max_value,omitempty"`
	SampleValues   []string `json:"sample_values"`
	Warnings       []string `json:"warnings"`
	StatsJSON      *string  `json:"stats_json,omitempty"`
}

// ColumnBusinessMetadata is a single column's user-editable semantic
// layer.
type ColumnBusinessMetadata struct {
	BusinessDefinition *string  `json:"business_definition,omitempty"`
	BusinessRules      *string  `json:"business_rules,omitempty"`
	SensitivityTag     *string  `json:"sensitivity_tag,omitempty"`
	ApprovedExamples   []string `json:"approved_examples,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

// DocumentationCompleteness returns the percentage (0-100) of optional
// business-metadata fields that are populated, across the dataset-level
// fields (6) and three key fields per column.
func (d *DataDictionary) DocumentationCompleteness() float64 {
	var filled, total int

	b := d.DatasetMetadata.Business
	total += 6
	for _, f := range []interface{}{b.Description, b.IntendedUse, b.OwnerOrSteward, b.RefreshExpectation, b.SensitivityClassification, b.KnownLimitations} {
		if isSetPtr(f) {
			filled++
		}
	}

	for _, col := range d.Columns {
		total += 3
		if col.Business.BusinessDefinition != nil {
			filled++
		}
		if col.Business.BusinessRules != nil {
			filled++
		}
		if col.Business.SensitivityTag != nil {
			filled++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total) * 100
}

func isSetPtr(v interface{}) bool {
	switch p := v.(type) {
	case *string:
		return p != nil
	default:
		return false
	}
}

// UndocumentedColumns returns every column with no business metadata set
// at all.
func (d *DataDictionary) UndocumentedColumns() []ColumnMetadata {
	var out []ColumnMetadata
	for _, col := range d.Columns {
		b := col.Business
		if b.BusinessDefinition == nil && b.BusinessRules == nil && b.SensitivityTag == nil {
			out = append(out, col)
		}
	}
	return out
}

// ColumnsWithWarnings returns every column whose technical profile
// flagged at least one quality warning.
func (d *DataDictionary) ColumnsWithWarnings() []ColumnMetadata {
	var out []ColumnMetadata
	for _, col := range d.Columns {
		if len(col.Technical.Warnings) > 0 {
			out = append(out, col)
		}
	}
	return out
}

// columnNameToUUID derives a stable UUID from a column name so a column
// keeps the same ID across snapshot versions as long as its name is
// unchanged; a rename yields a different ID.
func columnNameToUUID(name string) uuid.UUID {
	sum := sha256.Sum256([]byte(name))
	id, _ := uuid.FromBytes(sum[:16])
	return id
}
