package dictionary

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/profiler"
)

// hashBufSize mirrors internal/integrity's streaming hash buffer so a
// dictionary snapshot's lineage hash costs constant memory regardless of
// input file size.
const hashBufSize = 8 * 1024

// CreateSnapshot profiles df and builds a DataDictionary with technical
// metadata fully populated and an empty business-metadata shell, ready
// for a user to annotate. inputPath is hashed for lineage; outputPath's
// extension determines the recorded export format. previousSnapshotID
// links this snapshot into a version chain when it supersedes an earlier
// one.
func CreateSnapshot(datasetName string, df *model.DataFrame, inputPath, outputPath string, pipelineJSON *string, previousSnapshotID *uuid.UUID) (*DataDictionary, error) {
	outputHash := hashDataFrame(df)
	exportFormat := strings.TrimPrefix(filepath.Ext(outputPath), ".")
	if exportFormat == "" {
		exportFormat = "unknown"
	}

	inputHash, err := hashFile(inputPath)
	var inputHashPtr *string
	if err == nil {
		inputHashPtr = &inputHash
	}
	inputSources := []InputSource{{Path: inputPath, Hash: inputHashPtr}}

	columns, err := buildColumnMetadata(df)
	if err != nil {
		return nil, err
	}
	quality := calculateQualitySummary(columns)

	technical := TechnicalMetadata{
		InputSources:      inputSources,
		PipelineJSON:      pipelineJSON,
		InputDatasetHash:  inputHashPtr,
		OutputDatasetHash: outputHash,
		RowCount:          df.NumRows(),
		ColumnCount:       df.NumCols(),
		ExportFormat:      exportFormat,
		QualitySummary:    quality,
	}

	return &DataDictionary{
		SnapshotID:      uuid.New(),
		DatasetName:     datasetName,
		ExportTimestamp: time.Now().UTC(),
		DatasetMetadata: DatasetMetadata{
			Technical: technical,
			Business:  DatasetBusinessMetadata{},
		},
		Columns:            columns,
		PreviousSnapshotID: previousSnapshotID,
	}, nil
}

// buildColumnMetadata runs the statistical profiler over df (no trimming,
// no sampling — a dictionary snapshot describes the exact exported data)
// and reduces each model.ColumnSummary to a ColumnMetadata entry.
func buildColumnMetadata(df *model.DataFrame) ([]ColumnMetadata, error) {
	schema := df.Schema()
	rows := make([]model.Row, df.NumRows())
	for i := 0; i < df.NumRows(); i++ {
		rows[i] = df.Row(i)
	}
	l := ldf.FromSource(ldf.NewMemSource(schema, rows))
	result, err := profiler.Analyse(l, 0, 0)
	if err != nil {
		return nil, model.Context(model.ErrInternal, "dictionary.build_column_metadata", err)
	}

	out := make([]ColumnMetadata, 0, len(result.Columns))
	for _, col := range result.Columns {
		minVal, maxVal := extractMinMax(col)
		var original *string
		if col.Name != col.StandardisedName {
			name := col.StandardisedName
			original = &name
		}

		statsJSON, err := json.Marshal(col.Stats)
		var statsPtr *string
		if err == nil {
			s := string(statsJSON)
			statsPtr = &s
		}

		nullPct := 0.0
		if col.Count > 0 {
			nullPct = 100 * float64(col.Nulls) / float64(col.Count)
		}

		out = append(out, ColumnMetadata{
			ColumnID:     columnNameToUUID(col.Name),
			CurrentName:  col.Name,
			OriginalName: original,
			Technical: ColumnTechnicalMetadata{
				DataType:       string(col.Kind),
				Nullable:       col.Nulls > 0,
				NullPercentage: nullPct,
				DistinctCount:  distinctCountOf(col),
				MinValue:       minVal,
				MaxValue:       maxVal,
				SampleValues:   col.Samples,
				Warnings:       detectColumnWarnings(col, nullPct),
				StatsJSON:      statsPtr,
			},
			Business: ColumnBusinessMetadata{},
		})
	}
	return out, nil
}

// distinctCountOf reads the distinct-value count out of whichever
// ColumnStats variant is populated.
func distinctCountOf(col model.ColumnSummary) int {
	switch col.Stats.Kind {
	case model.ColumnKindNumeric:
		if col.Stats.Numeric != nil {
			return col.Stats.Numeric.DistinctCount
		}
	case model.ColumnKindText:
		if col.Stats.Text != nil {
			return col.Stats.Text.Distinct
		}
	case model.ColumnKindCategorical:
		if col.Stats.Categorical != nil {
			return len(col.Stats.Categorical.Counts)
		}
	case model.ColumnKindTemporal:
		if col.Stats.Temporal != nil {
			return col.Stats.Temporal.DistinctCount
		}
	case model.ColumnKindBoolean:
		if col.Stats.Boolean != nil {
			n := 0
			if col.Stats.Boolean.TrueCount > 0 {
				n++
			}
			if col.Stats.Boolean.FalseCount > 0 {
				n++
			}
			return n
		}
	}
	return 0
}

// extractMinMax pulls stringified min/max bounds from whichever numeric
// or temporal stats variant is populated; other kinds have no ordering.
func extractMinMax(col model.ColumnSummary) (min, max *string) {
	switch col.Stats.Kind {
	case model.ColumnKindNumeric:
		if n := col.Stats.Numeric; n != nil {
			lo, hi := strconv.FormatFloat(n.Min, 'g', -1, 64), strconv.FormatFloat(n.Max, 'g', -1, 64)
			return &lo, &hi
		}
	case model.ColumnKindTemporal:
		if t := col.Stats.Temporal; t != nil {
			lo, hi := t.Min, t.Max
			return &lo, &hi
		}
	}
	return nil, nil
}

// detectColumnWarnings flags quality issues worth surfacing in the
// dictionary independent of whether the underlying profiler summary
// phrased them as an interpretation note.
func detectColumnWarnings(col model.ColumnSummary, nullPct float64) []string {
	var warnings []string
	if nullPct > 50 {
		warnings = append(warnings, fmt.Sprintf("High missingness: %.1f%% null values", nullPct))
	}
	distinct := distinctCountOf(col)
	if distinct == 1 {
		warnings = append(warnings, "Constant column: only one distinct value")
	}
	if col.Count > 0 {
		uniqueness := float64(distinct) / float64(col.Count)
		if uniqueness > 0.95 && distinct > 100 {
			warnings = append(warnings, fmt.Sprintf("ID-like column: %.1f%% unique values", uniqueness*100))
		}
	}
	for _, s := range col.Interpretation {
		low := strings.ToLower(s)
		if strings.Contains(low, "warning") || strings.Contains(low, "caution") {
			warnings = append(warnings, s)
		}
	}
	return warnings
}

// calculateQualitySummary rolls per-column technical metadata up into a
// dataset-level quality verdict.
func calculateQualitySummary(columns []ColumnMetadata) QualitySummary {
	total := float64(len(columns))
	var sumNullPct float64
	var emptyCount, constantCount int
	for _, c := range columns {
		sumNullPct += c.Technical.NullPercentage
		if c.Technical.NullPercentage >= 100 {
			emptyCount++
		}
		if c.Technical.DistinctCount <= 1 {
			constantCount++
		}
	}
	avgNullPct := 0.0
	if total > 0 {
		avgNullPct = sumNullPct / total
	}
	overall := 100.0
	if avgNullPct > 0 || emptyCount > 0 || constantCount > 0 {
		overall = 100 - avgNullPct*0.5 - float64(emptyCount)*5 - float64(constantCount)*2
		if overall < 0 {
			overall = 0
		}
	}
	return QualitySummary{
		AvgNullPercentage:   avgNullPct,
		EmptyColumnCount:    emptyCount,
		ConstantColumnCount: constantCount,
		OverallScore:        overall,
	}
}

// hashDataFrame hashes the schema, row count, and up to 100 sample rows
// of df, for a cheap content fingerprint that does not require re-reading
// the exported file from disk.
func hashDataFrame(df *model.DataFrame) string {
	h := sha256.New()
	for _, f := range df.Schema().Fields {
		fmt.Fprintf(h, "%s:%s;", f.Name, f.DType)
	}
	fmt.Fprintf(h, "rows=%d;", df.NumRows())
	sampleSize := df.NumRows()
	if sampleSize > 100 {
		sampleSize = 100
	}
	for i := 0; i < sampleSize; i++ {
		row := df.Row(i)
		for _, v := range row.Vals {
			fmt.Fprintf(h, "%v;", v)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// hashFile streams path through SHA-256 in hashBufSize chunks, mirroring
// internal/integrity.hashFile.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	buf := make([]byte, hashBufSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
