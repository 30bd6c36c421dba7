// Package flows wires the loader, profiler, cleaner, registry, integrity,
// and dbpush packages into beefcake's high-level operations: analyse a
// file, clean/export it, and push it to a database. Each entry point does
// the minimum orchestration a CLI command needs; rendering and flag
// parsing stay in cmd.
package flows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/beefcake-data/beefcake/internal/cleaner"
	"github.com/beefcake-data/beefcake/internal/dbpush"
	"github.com/beefcake-data/beefcake/internal/dictionary"
	"github.com/beefcake-data/beefcake/internal/integrity"
	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/loader"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/profiler"
	"github.com/beefcake-data/beefcake/internal/registry"
	"github.com/beefcake-data/beefcake/internal/sink"
)

// defaultTrimPct is the trimmed-mean fraction the profiler uses when a flow
// doesn't have a caller-supplied override.
const defaultTrimPct = 0.05

// AppVersion is stamped into every receipt this package creates. cmd sets
// it from the build-time version string at startup.
var AppVersion = "dev"

// InputDir and ProcessedDir are the default directories commands fall
// back to when invoked without explicit --input/--output flags.
const (
	InputDir     = "data/input"
	ProcessedDir = "data/processed"
)

// Analyse loads path and runs the full profiler pass over it, returning
// the per-column summaries and file health the CLI renders as
// model.KindColumnSummaries.
func Analyse(path string) (model.AnalysisReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.AnalysisReport{}, model.Context(model.ErrIo, "flows.analyse.stat", err)
	}
	l, err := loader.LoadLazy(path, loader.Options{TryParseDates: true})
	if err != nil {
		return model.AnalysisReport{}, model.Context(model.ErrIo, "flows.analyse.load", err)
	}
	result, err := profiler.Analyse(l, info.Size(), defaultTrimPct)
	if err != nil {
		return model.AnalysisReport{}, err
	}
	return model.AnalysisReport{
		FilePath:      path,
		FileSizeBytes: info.Size(),
		Columns:       result.Columns,
		Health:        result.Health,
	}, nil
}

// CleanResult is what a clean/export flow hands back for rendering and
// registry bookkeeping.
type CleanResult struct {
	OutputPath string
	RowsBefore int64
	ColsBefore int
	RowsAfter  int64
	ColsAfter  int
	Receipt    model.IntegrityReceipt
	DatasetID  string
	VersionID  string

	// DictionarySnapshotID and DictionaryPath are populated whenever reg is
	// non-nil: every registered run gets a data dictionary snapshot
	// alongside its integrity receipt.
	DictionarySnapshotID string
	DictionaryPath       string
}

// Clean loads inputPath, applies configs in restricted-or-full mode, writes
// the result to outputPath, records an integrity receipt alongside it, and
// registers the run as a new dataset version at StageCleaned.
func Clean(reg *registry.Registry, inputPath, outputPath string, configs map[string]model.CleaningConfig, restricted bool) (CleanResult, error) {
	return materialise(reg, inputPath, outputPath, configs, restricted, model.StageCleaned)
}

// Export behaves like Clean but only applies cleaning configs when
// doClean is true, and always lands at StageAdvanced — export is the
// terminal, publish-adjacent step in the lifecycle.
func Export(reg *registry.Registry, inputPath, outputPath string, doClean bool, configs map[string]model.CleaningConfig, restricted bool) (CleanResult, error) {
	if !doClean {
		configs = nil
	}
	return materialise(reg, inputPath, outputPath, configs, restricted, model.StageAdvanced)
}

func materialise(reg *registry.Registry, inputPath, outputPath string, configs map[string]model.CleaningConfig, restricted bool, stage model.LifecycleStage) (CleanResult, error) {
	l, err := loader.LoadLazy(inputPath, loader.Options{TryParseDates: true})
	if err != nil {
		return CleanResult{}, model.Context(model.ErrIo, "flows.materialise.load", err)
	}
	rawSchema := l.CollectSchema()
	rawDF, err := l.Collect()
	if err != nil {
		return CleanResult{}, model.Context(model.ErrIo, "flows.materialise.collect", err)
	}
	rowsBefore, colsBefore := int64(rawDF.NumRows()), rawDF.NumCols()

	outDF := rawDF
	var pipeline model.TransformPipeline
	if len(configs) > 0 {
		cleaned, err := cleaner.Clean(rawDF, configs, restricted)
		if err != nil {
			return CleanResult{}, err
		}
		outDF = cleaned
	}

	if err := writeDataFrame(outDF, outputPath); err != nil {
		return CleanResult{}, err
	}

	receipt, err := integrity.CreateReceipt(outputPath, outputFormat(outputPath), outDF.Schema(), int64(outDF.NumRows()), integrity.Producer{AppVersion: AppVersion})
	if err != nil {
		return CleanResult{}, err
	}
	if err := integrity.SaveReceipt(receipt, outputPath); err != nil {
		return CleanResult{}, err
	}

	result := CleanResult{
		OutputPath: outputPath,
		RowsBefore: rowsBefore,
		ColsBefore: colsBefore,
		RowsAfter:  int64(outDF.NumRows()),
		ColsAfter:  outDF.NumCols(),
		Receipt:    receipt,
	}

	if reg != nil {
		ds, err := reg.CreateDataset(filepath.Base(inputPath), model.DataLocation{Kind: model.LocationSnapshot, Path: inputPath}, rawSchema, rowsBefore, schemaFingerprint(rawSchema))
		if err != nil {
			return CleanResult{}, err
		}
		ver, err := reg.ApplyTransforms(ds.ID, pipeline, stage,
			model.DataLocation{Kind: model.LocationSnapshot, Path: outputPath},
			outDF.Schema(), int64(outDF.NumRows()), schemaFingerprint(outDF.Schema()))
		if err != nil {
			return CleanResult{}, err
		}
		result.DatasetID = ds.ID
		result.VersionID = ver.ID

		var pipelineJSON *string
		if len(pipeline.Steps) > 0 {
			if b, err := json.Marshal(pipeline); err == nil {
				s := string(b)
				pipelineJSON = &s
			}
		}
		snap, err := dictionary.CreateSnapshot(filepath.Base(inputPath), outDF, inputPath, outputPath, pipelineJSON, nil)
		if err != nil {
			return CleanResult{}, err
		}
		path, err := dictionary.SaveSnapshot(snap, reg.Root())
		if err != nil {
			return CleanResult{}, err
		}
		result.DictionarySnapshotID = snap.SnapshotID.String()
		result.DictionaryPath = path
	}

	return result, nil
}

func writeDataFrame(df *model.DataFrame, path string) error {
	w, err := sink.Open(path, true)
	if err != nil {
		return err
	}
	return writeThrough(w, df)
}

func writeThrough(w ldf.RowWriter, df *model.DataFrame) error {
	if err := w.WriteHeader(df.Schema()); err != nil {
		w.Close()
		return model.Context(model.ErrIo, "flows.write_header", err)
	}
	for i := 0; i < df.NumRows(); i++ {
		if err := w.WriteRow(df.Row(i)); err != nil {
			w.Close()
			return model.Context(model.ErrIo, "flows.write_row", err)
		}
	}
	return w.Close()
}

func outputFormat(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		ext = ext[1:]
	}
	switch ext {
	case "tsv":
		return "csv"
	default:
		return ext
	}
}

// Push runs Analyse over inputPath, optionally cleans it, then pushes the
// materialised DataFrame to target via pusher — the `import` command's
// sequence.
func Push(pusher dbpush.DBPusher, inputPath, table string, target dbpush.Target, configs map[string]model.CleaningConfig, restricted bool) (dbpush.PushResult, error) {
	report, err := Analyse(inputPath)
	if err != nil {
		return dbpush.PushResult{}, err
	}

	l, err := loader.LoadLazy(inputPath, loader.Options{TryParseDates: true})
	if err != nil {
		return dbpush.PushResult{}, model.Context(model.ErrIo, "flows.push.load", err)
	}
	df, err := l.Collect()
	if err != nil {
		return dbpush.PushResult{}, model.Context(model.ErrIo, "flows.push.collect", err)
	}
	if len(configs) > 0 {
		df, err = cleaner.Clean(df, configs, restricted)
		if err != nil {
			return dbpush.PushResult{}, err
		}
	}

	return pusher.Push(context.Background(), df, report, table, target)
}

// ResolveDefaultInput returns the alphabetically first regular file in dir,
// the default `import`/`clean`/`export`/`run` input when --input/--file is
// omitted.
func ResolveDefaultInput(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", model.Context(model.ErrIo, "flows.resolve_default_input", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", model.Context(model.ErrIo, "flows.resolve_default_input", fmt.Errorf("no regular files in %s", dir))
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// DefaultOutputPath builds the `data/processed/<prefix>_<stem>.parquet`
// default output path used when --output/-file is omitted.
func DefaultOutputPath(prefix, inputPath string) string {
	stem := filepath.Base(inputPath)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	return filepath.Join(ProcessedDir, fmt.Sprintf("%s_%s.parquet", prefix, stem))
}

// ArchiveInput moves inputPath into ProcessedDir on a successful run,
// timestamped so repeated runs over the same filename never collide.
func ArchiveInput(inputPath string) (string, error) {
	dest := filepath.Join(ProcessedDir, fmt.Sprintf("%s_%s", archiveTimestamp(), filepath.Base(inputPath)))
	if err := os.MkdirAll(ProcessedDir, 0755); err != nil {
		return "", model.Context(model.ErrIo, "flows.archive_input", err)
	}
	if err := os.Rename(inputPath, dest); err != nil {
		return "", model.Context(model.ErrIo, "flows.archive_input", err)
	}
	return dest, nil
}

var archiveTimestamp = func() string { return time.Now().Format("20060102_150405") }

func schemaFingerprint(schema model.Schema) string {
	h := sha256.New()
	for _, f := range schema.Fields {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(f.DType.String()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
