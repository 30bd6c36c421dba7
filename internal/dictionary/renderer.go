package dictionary

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders dict as a complete human-readable Markdown
// document: dataset overview, column catalog, quality summary, and
// technical metadata, in that order.
func RenderMarkdown(dict *DataDictionary) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# Data Dictionary: %s\n\n", dict.DatasetName)
	fmt.Fprintf(&md, "> **Snapshot ID:** `%s`  \n", dict.SnapshotID)
	fmt.Fprintf(&md, "> **Created:** %s  \n", dict.ExportTimestamp.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&md, "> **Documentation Completeness:** %.1f%%  \n\n", dict.DocumentationCompleteness())

	md.WriteString("## Table of Contents\n\n")
	md.WriteString("1. [Dataset Overview](#dataset-overview)\n")
	md.WriteString("2. [Column Catalog](#column-catalog)\n")
	md.WriteString("3. [Data Quality Summary](#data-quality-summary)\n")
	md.WriteString("4. [Technical Metadata](#technical-metadata)\n\n")
	md.WriteString("---\n\n")

	md.WriteString("## Dataset Overview\n\n")
	renderDatasetBusinessMetadata(&md, dict)
	md.WriteString("\n")

	md.WriteString("## Column Catalog\n\n")
	fmt.Fprintf(&md, "**Total Columns:** %d  \n", len(dict.Columns))
	fmt.Fprintf(&md, "**Total Rows:** %d  \n\n", dict.DatasetMetadata.Technical.RowCount)

	for i, col := range dict.Columns {
		fmt.Fprintf(&md, "### %d — `%s`\n\n", i+1, col.CurrentName)
		renderColumnMetadata(&md, col)
		md.WriteString("\n---\n\n")
	}

	md.WriteString("## Data Quality Summary\n\n")
	renderQualitySummary(&md, dict)
	md.WriteString("\n")

	md.WriteString("## Technical Metadata\n\n")
	renderTechnicalMetadata(&md, dict)

	if dict.PreviousSnapshotID != nil {
		md.WriteString("\n---\n\n")
		md.WriteString("## Version History\n\n")
		fmt.Fprintf(&md, "**Previous Snapshot:** `%s`  \n", *dict.PreviousSnapshotID)
	}

	return md.String()
}

func renderDatasetBusinessMetadata(md *strings.Builder, dict *DataDictionary) {
	b := dict.DatasetMetadata.Business

	if b.Description != nil {
		fmt.Fprintf(md, "**Description:**  \n%s\n\n", *b.Description)
	}
	if b.IntendedUse != nil {
		fmt.Fprintf(md, "**Intended Use:**  \n%s\n\n", *b.IntendedUse)
	}
	if b.OwnerOrSteward != nil {
		fmt.Fprintf(md, "**Owner/Steward:** %s\n\n", *b.OwnerOrSteward)
	}
	if b.RefreshExpectation != nil {
		fmt.Fprintf(md, "**Refresh Cadence:** %s\n\n", *b.RefreshExpectation)
	}
	if b.SensitivityClassification != nil {
		fmt.Fprintf(md, "**Sensitivity:** %s\n\n", *b.SensitivityClassification)
	}
	if b.KnownLimitations != nil {
		fmt.Fprintf(md, "**Known Limitations:**  \n%s\n\n", *b.KnownLimitations)
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(md, "**Tags:** %s\n\n", strings.Join(b.Tags, ", "))
	}

	if b.Description == nil && b.IntendedUse == nil && b.OwnerOrSteward == nil {
		md.WriteString("*No dataset-level documentation provided.*\n\n")
	}
}

func renderColumnMetadata(md *strings.Builder, col ColumnMetadata) {
	md.WriteString("#### Business Definition\n\n")
	if col.Business.BusinessDefinition != nil {
		fmt.Fprintf(md, "%s\n\n", *col.Business.BusinessDefinition)
	} else {
		md.WriteString("*No business definition provided.*\n\n")
	}

	if col.Business.BusinessRules != nil {
		fmt.Fprintf(md, "**Business Rules:** %s\n\n", *col.Business.BusinessRules)
	}
	if col.Business.SensitivityTag != nil {
		fmt.Fprintf(md, "**Sensitivity:** %s\n\n", *col.Business.SensitivityTag)
	}
	if len(col.Business.ApprovedExamples) > 0 {
		fmt.Fprintf(md, "**Approved Examples:** %s\n\n", strings.Join(col.Business.ApprovedExamples, ", "))
	}
	if col.Business.Notes != nil {
		fmt.Fprintf(md, "**Notes:** %s\n\n", *col.Business.Notes)
	}

	md.WriteString("<details>\n")
	md.WriteString("<summary><strong>Technical Details</strong></summary>\n\n")
	md.WriteString("| Property | Value |\n")
	md.WriteString("|----------|-------|\n")
	fmt.Fprintf(md, "| **Data Type** | `%s` |\n", col.Technical.DataType)
	fmt.Fprintf(md, "| **Nullable** | %t |\n", col.Technical.Nullable)
	fmt.Fprintf(md, "| **Null %%** | %.2f%% |\n", col.Technical.NullPercentage)
	fmt.Fprintf(md, "| **Distinct Values** | %d |\n", col.Technical.DistinctCount)

	if col.Technical.MinValue != nil {
		fmt.Fprintf(md, "| **Min** | `%s` |\n", *col.Technical.MinValue)
	}
	if col.Technical.MaxValue != nil {
		fmt.Fprintf(md, "| **Max** | `%s` |\n", *col.Technical.MaxValue)
	}
	if col.OriginalName != nil {
		fmt.Fprintf(md, "| **Original Name** | `%s` |\n", *col.OriginalName)
	}
	md.WriteString("\n")

	if len(col.Technical.SampleValues) > 0 {
		md.WriteString("**Sample Values:**  \n")
		for _, s := range col.Technical.SampleValues {
			fmt.Fprintf(md, "- `%s`\n", s)
		}
		md.WriteString("\n")
	}

	if len(col.Technical.Warnings) > 0 {
		md.WriteString("**Warnings:**  \n")
		for _, w := range col.Technical.Warnings {
			fmt.Fprintf(md, "- %s\n", w)
		}
		md.WriteString("\n")
	}

	md.WriteString("</details>\n\n")
}

func renderQualitySummary(md *strings.Builder, dict *DataDictionary) {
	q := dict.DatasetMetadata.Technical.QualitySummary

	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	fmt.Fprintf(md, "| **Overall Quality Score** | %.1f%% |\n", q.OverallScore)
	fmt.Fprintf(md, "| **Avg Null %%** | %.2f%% |\n", q.AvgNullPercentage)
	fmt.Fprintf(md, "| **Empty Columns** | %d |\n", q.EmptyColumnCount)
	fmt.Fprintf(md, "| **Constant Columns** | %d |\n", q.ConstantColumnCount)
	if q.DuplicateRowCount != nil {
		fmt.Fprintf(md, "| **Duplicate Rows** | %d |\n", *q.DuplicateRowCount)
	}
	md.WriteString("\n")

	warned := dict.ColumnsWithWarnings()
	if len(warned) > 0 {
		md.WriteString("### Columns with Warnings\n\n")
		for _, col := range warned {
			fmt.Fprintf(md, "- **%s**: %s\n", col.CurrentName, strings.Join(col.Technical.Warnings, "; "))
		}
		md.WriteString("\n")
	}
}

func renderTechnicalMetadata(md *strings.Builder, dict *DataDictionary) {
	t := dict.DatasetMetadata.Technical

	md.WriteString("| Property | Value |\n")
	md.WriteString("|----------|-------|\n")
	fmt.Fprintf(md, "| **Row Count** | %d |\n", t.RowCount)
	fmt.Fprintf(md, "| **Column Count** | %d |\n", t.ColumnCount)
	fmt.Fprintf(md, "| **Export Format** | `%s` |\n", t.ExportFormat)
	fmt.Fprintf(md, "| **Output Hash** | `%s` |\n", t.OutputDatasetHash)

	if t.InputDatasetHash != nil {
		fmt.Fprintf(md, "| **Input Hash** | `%s` |\n", *t.InputDatasetHash)
	}
	if t.PipelineID != nil {
		fmt.Fprintf(md, "| **Pipeline ID** | `%s` |\n", *t.PipelineID)
	}
	md.WriteString("\n")

	if len(t.InputSources) > 0 {
		md.WriteString("### Input Sources\n\n")
		for _, src := range t.InputSources {
			fmt.Fprintf(md, "- `%s`", src.Path)
			if src.Hash != nil && len(*src.Hash) >= 8 {
				fmt.Fprintf(md, " (hash: `%s`)", (*src.Hash)[:8])
			}
			md.WriteString("\n")
		}
		md.WriteString("\n")
	}

	if t.PipelineJSON != nil {
		md.WriteString("<details>\n")
		md.WriteString("<summary><strong>Pipeline Specification</strong></summary>\n\n")
		md.WriteString("```json\n")
		md.WriteString(*t.PipelineJSON)
		md.WriteString("\n```\n\n")
		md.WriteString("</details>\n\n")
	}
}
