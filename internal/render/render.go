// Package render converts Result values into human-readable or
// machine-parseable output. Each format is a separate function; the
// top-level Render dispatcher selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/beefcake-data/beefcake/internal/dictionary"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/olekukonko/tablewriter"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch result.Kind {
	case model.KindDataFramePreview:
		preview, ok := result.Data.(model.DataFramePreview)
		if !ok {
			return renderJSON(w, result)
		}
		names := preview.Schema.Names()
		for _, row := range preview.Rows {
			obj := make(map[string]interface{}, len(names))
			for i, name := range names {
				if i < len(row.Vals) {
					obj[name] = cellJSON(row.Vals[i])
				}
			}
			if err := enc.Encode(obj); err != nil {
				return err
			}
		}
		return nil
	case model.KindColumnSummaries:
		report, ok := result.Data.(model.AnalysisReport)
		if !ok {
			return renderJSON(w, result)
		}
		for _, col := range report.Columns {
			if err := enc.Encode(col); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindDataFramePreview:
		preview, ok := result.Data.(model.DataFramePreview)
		if !ok {
			return fmt.Errorf("unexpected data type for dataframe_preview")
		}
		return renderPreviewTable(w, preview)
	case model.KindColumnSummaries:
		report, ok := result.Data.(model.AnalysisReport)
		if !ok {
			return fmt.Errorf("unexpected data type for column_summaries")
		}
		return renderAnalysisTable(w, report)
	case model.KindReceipt:
		receipt, ok := result.Data.(model.IntegrityReceipt)
		if !ok {
			return fmt.Errorf("unexpected data type for receipt")
		}
		return renderReceiptTable(w, receipt)
	case model.KindVerification:
		v, ok := result.Data.(model.VerificationResult)
		if !ok {
			return fmt.Errorf("unexpected data type for verification")
		}
		return renderVerificationTable(w, v)
	case model.KindRunReport:
		rep, ok := result.Data.(model.RunReport)
		if !ok {
			return fmt.Errorf("unexpected data type for run_report")
		}
		return renderRunReportTable(w, rep)
	case model.KindDiff:
		d, ok := result.Data.(model.DiffSummary)
		if !ok {
			return fmt.Errorf("unexpected data type for diff")
		}
		return renderDiffTable(w, d)
	case model.KindDictionaryList:
		snaps, ok := result.Data.([]dictionary.SnapshotMetadata)
		if !ok {
			return fmt.Errorf("unexpected data type for dictionary_list")
		}
		return renderDictionaryListTable(w, snaps)
	default:
		return renderJSON(w, result)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderPreviewTable(w io.Writer, preview model.DataFramePreview) error {
	tw := newTable(w, preview.Schema.Names())
	for _, row := range preview.Rows {
		record := make([]string, len(row.Vals))
		for i, v := range row.Vals {
			record[i] = cellString(v)
		}
		tw.Append(record)
	}
	tw.Render()
	if preview.Truncated {
		fmt.Fprintf(w, "... %d of %d rows shown\n", len(preview.Rows), preview.TotalRows)
	}
	return nil
}

func renderAnalysisTable(w io.Writer, report model.AnalysisReport) error {
	fmt.Fprintf(w, "%s — health score %.2f\n", report.FilePath, report.Health.Score)
	for _, r := range report.Health.Risks {
		fmt.Fprintf(w, "  risk: %s\n", r)
	}
	fmt.Fprintln(w)

	tw := newTable(w, []string{"COLUMN", "KIND", "NULLS", "SIGNALS"})
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})
	for _, col := range report.Columns {
		nullPct := 0.0
		if col.Count > 0 {
			nullPct = 100 * float64(col.Nulls) / float64(col.Count)
		}
		signals := strings.Join(col.Interpretation, "; ")
		tw.Append([]string{
			col.Name,
			string(col.Kind),
			fmt.Sprintf("%d (%.1f%%)", col.Nulls, nullPct),
			signals,
		})
	}
	tw.Render()
	return nil
}

func renderReceiptTable(w io.Writer, r model.IntegrityReceipt) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.Append([]string{"Filename", r.Export.Filename})
	tw.Append([]string{"Format", r.Export.Format})
	tw.Append([]string{"File Size", fmt.Sprintf("%d bytes", r.Export.FileSize)})
	tw.Append([]string{"Rows", fmt.Sprintf("%d", r.Export.RowCount)})
	tw.Append([]string{"Columns", fmt.Sprintf("%d", r.Export.ColCount)})
	tw.Append([]string{"Algorithm", r.Integrity.Algorithm})
	tw.Append([]string{"Hash", r.Integrity.Hash})
	tw.Append([]string{"Created", r.CreatedUTC.Format(time.RFC3339)})
	tw.Append([]string{"Producer", fmt.Sprintf("%s %s (%s)", r.Producer.AppName, r.Producer.AppVersion, r.Producer.Platform)})
	tw.Render()
	return nil
}

func renderVerificationTable(w io.Writer, v model.VerificationResult) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	status := "PASS"
	if !v.Passed {
		status = "FAIL"
	}
	tw.Append([]string{"Status", status})
	tw.Append([]string{"Message", v.Message})
	if v.Expected != "" {
		tw.Append([]string{"Expected", v.Expected})
	}
	if v.Actual != "" {
		tw.Append([]string{"Actual", v.Actual})
	}
	tw.Render()
	return nil
}

func renderRunReportTable(w io.Writer, r model.RunReport) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.Append([]string{"Rows before", fmt.Sprintf("%d", r.RowsBefore)})
	tw.Append([]string{"Rows after", fmt.Sprintf("%d", r.RowsAfter)})
	tw.Append([]string{"Cols before", fmt.Sprintf("%d", r.ColsBefore)})
	tw.Append([]string{"Cols after", fmt.Sprintf("%d", r.ColsAfter)})
	tw.Append([]string{"Steps applied", fmt.Sprintf("%d", r.StepsApplied)})
	tw.Append([]string{"Duration", r.Duration.String()})
	tw.Render()
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	return nil
}

func renderDiffTable(w io.Writer, d model.DiffSummary) error {
	fmt.Fprintf(w, "Row delta: %+d\n\n", d.RowDelta)
	if len(d.AddedCols) > 0 {
		fmt.Fprintf(w, "Added columns: %s\n", strings.Join(d.AddedCols, ", "))
	}
	if len(d.RemovedCols) > 0 {
		fmt.Fprintf(w, "Removed columns: %s\n", strings.Join(d.RemovedCols, ", "))
	}
	if len(d.ChangedTypes) > 0 {
		tw := newTable(w, []string{"COLUMN", "FROM", "TO"})
		for _, c := range d.ChangedTypes {
			tw.Append([]string{c.Name, c.From, c.To})
		}
		tw.Render()
	}
	return nil
}

func renderDictionaryListTable(w io.Writer, snaps []dictionary.SnapshotMetadata) error {
	tw := newTable(w, []string{"SNAPSHOT ID", "DATASET", "CREATED", "ROWS", "COLS", "COMPLETE"})
	for _, s := range snaps {
		tw.Append([]string{
			s.SnapshotID.String(),
			s.DatasetName,
			s.Timestamp.Format(time.RFC3339),
			fmt.Sprintf("%d", s.RowCount),
			fmt.Sprintf("%d", s.ColumnCount),
			fmt.Sprintf("%.1f%%", s.CompletenessPct),
		})
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	switch result.Kind {
	case model.KindDataFramePreview:
		preview, ok := result.Data.(model.DataFramePreview)
		if !ok {
			return fmt.Errorf("unexpected data type for dataframe_preview")
		}
		_ = cw.Write(preview.Schema.Names())
		for _, row := range preview.Rows {
			record := make([]string, len(row.Vals))
			for i, v := range row.Vals {
				record[i] = cellString(v)
			}
			_ = cw.Write(record)
		}
	case model.KindColumnSummaries:
		report, ok := result.Data.(model.AnalysisReport)
		if !ok {
			return fmt.Errorf("unexpected data type for column_summaries")
		}
		_ = cw.Write([]string{"name", "kind", "count", "nulls", "has_special", "interpretation", "ml_advice"})
		for _, col := range report.Columns {
			_ = cw.Write([]string{
				col.Name,
				string(col.Kind),
				strconv.Itoa(col.Count),
				strconv.Itoa(col.Nulls),
				strconv.FormatBool(col.HasSpecial),
				strings.Join(col.Interpretation, "; "),
				strings.Join(col.MLAdvice, "; "),
			})
		}
	default:
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindColumnSummaries:
		report, ok := result.Data.(model.AnalysisReport)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "# %s\n\nHealth score: **%.2f**\n\n", report.FilePath, report.Health.Score)
		fmt.Fprintf(w, "| COLUMN | KIND | NULLS | SIGNALS |\n|---|---|---|---|\n")
		for _, col := range report.Columns {
			fmt.Fprintf(w, "| %s | %s | %d | %s |\n",
				mdEscape(col.Name), string(col.Kind), col.Nulls, mdEscape(strings.Join(col.Interpretation, "; ")))
		}
		return nil
	case model.KindRunReport:
		rep, ok := result.Data.(model.RunReport)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| FIELD | VALUE |\n|---|---|\n")
		fmt.Fprintf(w, "| Rows | %d → %d |\n", rep.RowsBefore, rep.RowsAfter)
		fmt.Fprintf(w, "| Cols | %d → %d |\n", rep.ColsBefore, rep.ColsAfter)
		fmt.Fprintf(w, "| Steps applied | %d |\n", rep.StepsApplied)
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes result's warnings to w, followed by a stats line when
// verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		fmt.Fprintf(w, "\n[%s • %d items • %dms]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func cellString(v model.Value) string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case model.DTypeInt64:
		return strconv.FormatInt(v.I, 10)
	case model.DTypeFloat64:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case model.DTypeBool:
		return strconv.FormatBool(v.B)
	case model.DTypeDate:
		return v.T.Format("2006-01-02")
	case model.DTypeDatetime:
		return v.T.Format("2006-01-02T15:04:05Z07:00")
	default:
		return v.S
	}
}

func cellJSON(v model.Value) interface{} {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case model.DTypeInt64:
		return v.I
	case model.DTypeFloat64:
		return v.F
	case model.DTypeBool:
		return v.B
	case model.DTypeDate:
		return v.T.Format("2006-01-02")
	case model.DTypeDatetime:
		return v.T.Format("2006-01-02T15:04:05Z07:00")
	default:
		return v.S
	}
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
