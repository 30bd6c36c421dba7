package pipelinespec

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/beefcake-data/beefcake/internal/cleaner"
	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/loader"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/sink"
	"github.com/beefcake-data/beefcake/internal/util"
)

// RunOptions carries the CLI-level knobs the `run` command exposes on top
// of the pipeline spec itself.
type RunOptions struct {
	OutputPathOverride string
	Date               string // YYYY-MM-DD, used to expand {date} in path_template; defaults to today
}

// Run validates spec against input's schema, applies every step in order,
// and writes the result. A step failure becomes a warning and the
// remaining steps still run; validation failures are returned before any
// work starts.
func Run(spec model.PipelineSpec, inputPath string, opts RunOptions) (model.RunReport, error) {
	report := model.RunReport{}
	started := timeNow()

	inputOpts := loader.Options{TryParseDates: true}
	if spec.Input.Delimiter != "" {
		inputOpts.Delimiter = spec.Input.Delimiter[0]
	}
	hasHeader := spec.Input.HasHeader
	inputOpts.HasHeader = &hasHeader

	l, err := loader.LoadLazy(inputPath, inputOpts)
	if err != nil {
		return report, model.Context(model.ErrIo, "pipelinespec.run.load", err)
	}

	if errs := Validate(spec, l.CollectSchema()); len(errs) > 0 {
		return report, model.Context(model.ErrValidation, "pipelinespec.run.validate", fmt.Errorf("%d validation error(s), first: %s", len(errs), errs[0].Message))
	}

	df, err := l.Collect()
	if err != nil {
		return report, model.Context(model.ErrIo, "pipelinespec.run.collect", err)
	}
	report.RowsBefore = int64(df.NumRows())
	report.ColsBefore = df.NumCols()

	for i, step := range spec.Steps {
		if util.Global.Check() {
			return report, model.Aborted
		}
		next, err := applyStep(df, step)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Step %d: %s (skipped)", i, err.Error()))
			continue
		}
		df = next
		report.StepsApplied++
	}

	report.RowsAfter = int64(df.NumRows())
	report.ColsAfter = df.NumCols()

	outPath := resolveOutputPath(spec, opts)
	w, err := sink.Open(outPath, spec.Output.Overwrite)
	if err != nil {
		return report, err
	}
	out := ldf.FromSource(dataFrameSource(df))
	if err := out.Sink(w); err != nil {
		w.Close()
		return report, err
	}
	if err := w.Close(); err != nil {
		return report, err
	}

	report.Duration = timeNow().Sub(started)
	return report, nil
}

// timeNow is a thin indirection over time.Now so tests can't be tripped up
// by wall-clock flakiness in duration assertions.
var timeNow = time.Now

func dataFrameSource(df *model.DataFrame) ldf.Source {
	schema := df.Schema()
	rows := make([]model.Row, df.NumRows())
	for i := range rows {
		rows[i] = df.Row(i)
	}
	return ldf.NewMemSource(schema, rows)
}

// resolveOutputPath expands path_template's {date} placeholder and prefers
// an explicit CLI override.
func resolveOutputPath(spec model.PipelineSpec, opts RunOptions) string {
	if opts.OutputPathOverride != "" {
		return opts.OutputPathOverride
	}
	date := opts.Date
	if date == "" {
		date = timeNow().Format(util.ISODate)
	}
	return strings.ReplaceAll(spec.Output.PathTemplate, "{date}", date)
}

func applyStep(df *model.DataFrame, step model.TransformSpec) (*model.DataFrame, error) {
	switch step.Op {
	case "drop_columns":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return nil, fmt.Errorf("missing parameter \"cols\"")
		}
		return dropColumns(df, cols)

	case "rename_columns":
		m, ok := paramStringMap(step.Parameters, "map")
		if !ok {
			return nil, fmt.Errorf("missing parameter \"map\"")
		}
		return renameColumns(df, m)

	case "trim_whitespace":
		return mapColumns(df, step, cleaner.TrimWhitespace)

	case "cast_types":
		col, ok := paramString(step.Parameters, "col")
		if !ok {
			return nil, fmt.Errorf("missing parameter \"col\"")
		}
		typeStr, ok := paramString(step.Parameters, "type_str")
		if !ok {
			return nil, fmt.Errorf("missing parameter \"type_str\"")
		}
		target, ok := model.ParseDType(typeStr)
		if !ok {
			return nil, fmt.Errorf("unknown type %q", typeStr)
		}
		return replaceColumn(df, col, func(s *model.Series) (*model.Series, error) {
			return castColumnGeneric(s, target)
		})

	case "parse_dates":
		col, ok := paramString(step.Parameters, "col")
		if !ok {
			return nil, fmt.Errorf("missing parameter \"col\"")
		}
		format, _ := paramString(step.Parameters, "format")
		return replaceColumn(df, col, func(s *model.Series) (*model.Series, error) {
			return parseDatesColumn(s, format), nil
		})

	case "impute":
		strategy, _ := paramString(step.Parameters, "strategy")
		mode, ok := imputeModeOf(strategy)
		if !ok {
			return nil, fmt.Errorf("unknown impute strategy %q", strategy)
		}
		return mapColumns(df, step, func(s *model.Series) *model.Series { return cleaner.ImputeColumn(s, mode) })

	case "one_hot_encode":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return nil, fmt.Errorf("missing parameter \"cols\"")
		}
		dropOriginal, _ := paramBool(step.Parameters, "drop_original")
		return oneHotEncodeColumns(df, cols, dropOriginal)

	case "normalise_columns":
		method, _ := paramString(step.Parameters, "method")
		nm, ok := normaliseMethodOf(method)
		if !ok {
			return nil, fmt.Errorf("unknown normalisation method %q", method)
		}
		return mapColumns(df, step, func(s *model.Series) *model.Series { return cleaner.Normalise(s, nm) })

	case "clip_outliers":
		lowerQ, lok := paramFloat(step.Parameters, "lower_q")
		upperQ, uok := paramFloat(step.Parameters, "upper_q")
		if !lok || !uok {
			return nil, fmt.Errorf("missing lower_q/upper_q")
		}
		return mapColumns(df, step, func(s *model.Series) *model.Series {
			return cleaner.ClipOutliersQuantile(s, lowerQ, upperQ)
		})

	case "extract_numbers":
		return mapColumnsErr(df, step, cleaner.ExtractNumbersColumn)

	case "regex_replace":
		pattern, _ := paramString(step.Parameters, "pattern")
		replacement, _ := paramString(step.Parameters, "replacement")
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		return mapColumns(df, step, func(s *model.Series) *model.Series { return cleaner.RegexReplace(s, re, replacement) })

	default:
		return nil, fmt.Errorf("unknown step op %q", step.Op)
	}
}

func imputeModeOf(strategy string) (model.ImputeMode, bool) {
	switch strategy {
	case "Mean":
		return model.ImputeMean, true
	case "Median":
		return model.ImputeMedian, true
	case "Mode":
		return model.ImputeMode_, true
	case "Zero":
		return model.ImputeZero, true
	default:
		return model.ImputeNone, false
	}
}

func normaliseMethodOf(method string) (model.NormaliseMethod, bool) {
	switch method {
	case "ZScore":
		return model.NormaliseZScore, true
	case "MinMax":
		return model.NormaliseMinMax, true
	default:
		return model.NormaliseNone, false
	}
}

func castColumnGeneric(col *model.Series, target model.DType) (*model.Series, error) {
	if col.DType == target {
		return col, nil
	}
	out := model.NewSeries(col.Name, target, col.Len)
	for i := 0; i < col.Len; i++ {
		cv, err := ldf.CastValue(col.At(i), target)
		if err != nil {
			return nil, err
		}
		out.AppendValue(cv)
	}
	return out, nil
}

func parseDatesColumn(col *model.Series, format string) *model.Series {
	out := model.NewSeries(col.Name, model.DTypeDatetime, col.Len)
	for i := 0; i < col.Len; i++ {
		v := col.At(i)
		if v.Null || (v.Kind != model.DTypeString && v.Kind != model.DTypeCategorical) {
			out.AppendValue(model.NullValue(model.DTypeDatetime))
			continue
		}
		if t, ok := util.ParseTemporal(v.S, format); ok {
			out.AppendValue(model.Value{Kind: model.DTypeDatetime, T: t})
		} else {
			out.AppendValue(model.NullValue(model.DTypeDatetime))
		}
	}
	return out
}
