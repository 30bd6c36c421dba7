// Package cleaner implements beefcake's transform engine: clean_lazy (spec
// §4.3) applies a CleaningConfig per column in a fixed, deterministic order
// so output never depends on map iteration order. The engine materialises
// its input (ML preprocessing needs whole-column
// statistics a lazy row-at-a-time plan cannot provide) and rewraps the
// result as a fresh LDF over an in-memory source, so downstream code keeps
// working with the lazy abstraction regardless.
package cleaner

import (
	"fmt"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
)

// batchSize bounds how many columns are rewritten per pass
// ("batched rewrite"). With a materialised engine this only bounds
// transient allocation rather than plan-tree depth, but the batching
// itself — and its determinism regardless of batch size — is preserved.
const batchSize = 128

// CleanLazy applies configs to l's output and returns a new LDF over the
// cleaned result. l is collected once; cleaning itself never re-reads the
// original source.
func CleanLazy(l *ldf.LDF, configs map[string]model.CleaningConfig, restricted bool) (*ldf.LDF, error) {
	df, err := l.Collect()
	if err != nil {
		return nil, model.Context(model.ErrIo, "cleaner.collect_input", err)
	}
	cleaned, err := Clean(df, configs, restricted)
	if err != nil {
		return nil, err
	}
	return ldf.FromSource(dataFrameSource(cleaned)), nil
}

// dataFrameSource adapts a materialised DataFrame back into an ldf.Source
// so Clean's result re-enters the lazy pipeline.
func dataFrameSource(df *model.DataFrame) ldf.Source {
	schema := df.Schema()
	rows := make([]model.Row, df.NumRows())
	for i := range rows {
		rows[i] = df.Row(i)
	}
	return ldf.NewMemSource(schema, rows)
}

// Clean applies configs to df in the fixed order:
// drop inactive columns, then per remaining column (original schema
// order) advanced cleaning, cast, ML preprocessing, and finally a single
// rename pass with collision detection across the whole result.
func Clean(df *model.DataFrame, configs map[string]model.CleaningConfig, restricted bool) (*model.DataFrame, error) {
	kept := make([]*model.Series, 0, len(df.Columns))
	keptCfg := make([]model.CleaningConfig, 0, len(df.Columns))
	for _, col := range df.Columns {
		cfg := configFor(configs, col.Name)
		if !cfg.Active {
			continue
		}
		kept = append(kept, col)
		keptCfg = append(keptCfg, cfg)
	}

	var processed []*model.Series
	var processedFromOneHot []bool
	var processedCfg []model.CleaningConfig // cfg of the original column each processed series descends from
	for start := 0; start < len(kept); start += batchSize {
		end := start + batchSize
		if end > len(kept) {
			end = len(kept)
		}
		for i := start; i < end; i++ {
			cols, err := processColumn(kept[i], keptCfg[i], restricted)
			if err != nil {
				return nil, err
			}
			for _, c := range cols {
				processed = append(processed, c)
				processedFromOneHot = append(processedFromOneHot, len(cols) > 1)
				processedCfg = append(processedCfg, keptCfg[i])
			}
		}
	}

	renamed, err := applyRenames(processed, processedCfg, processedFromOneHot)
	if err != nil {
		return nil, err
	}
	return model.NewDataFrame(renamed)
}

func configFor(configs map[string]model.CleaningConfig, name string) model.CleaningConfig {
	if cfg, ok := configs[name]; ok {
		return cfg
	}
	return model.DefaultCleaningConfig()
}

// processColumn runs steps a-c over a single column, returning
// one series normally or several when one_hot_encode fires.
func processColumn(col *model.Series, cfg model.CleaningConfig, restricted bool) ([]*model.Series, error) {
	cur := col

	if cfg.AdvancedCleaning && (cur.DType == model.DTypeString || cur.DType == model.DTypeCategorical) {
		var err error
		cur, err = applyAdvancedCleaning(cur, cfg, restricted)
		if err != nil {
			return nil, err
		}
	}

	if cfg.TargetDtype != nil {
		var err error
		cur, err = castColumn(cur, *cfg.TargetDtype, cfg)
		if err != nil {
			return nil, err
		}
	}

	if cfg.MLPreprocessing && !restricted {
		cols, err := applyMLPreprocessing(cur, cfg)
		if err != nil {
			return nil, err
		}
		return cols, nil
	}

	return []*model.Series{cur}, nil
}

// applyRenames performs step d over the whole processed column set: a
// non-empty, distinct new_name renames the column; colliding final names
// are a hard failure. Columns produced by one_hot_encode keep their
// generated names — there is no longer a single column to rename.
func applyRenames(cols []*model.Series, cfgs []model.CleaningConfig, fromOneHot []bool) ([]*model.Series, error) {
	final := make([]string, len(cols))
	for i, c := range cols {
		name := c.Name
		if !fromOneHot[i] && cfgs[i].NewName != "" && cfgs[i].NewName != c.Name {
			name = cfgs[i].NewName
		}
		final[i] = name
	}

	seen := make(map[string]bool, len(final))
	for _, name := range final {
		if seen[name] {
			return nil, model.Context(model.ErrValidation, "cleaner.rename",
				fmt.Errorf("rename collision: column %q already exists", name))
		}
		seen[name] = true
	}

	out := make([]*model.Series, len(cols))
	for i, c := range cols {
		renamed := *c
		renamed.Name = final[i]
		out[i] = &renamed
	}
	return out, nil
}

// kindOf maps a physical DType to its default analytical ColumnKind, used
// to pick which ML preprocessing rules apply to a column (spec's
// Sanitise rewrite uses the same mapping).
func kindOf(dt model.DType) model.ColumnKind {
	switch dt {
	case model.DTypeInt64, model.DTypeFloat64:
		return model.ColumnKindNumeric
	case model.DTypeBool:
		return model.ColumnKindBoolean
	case model.DTypeDate, model.DTypeDatetime:
		return model.ColumnKindTemporal
	case model.DTypeCategorical:
		return model.ColumnKindCategorical
	default:
		return model.ColumnKindText
	}
}

// seriesValues reads col out as a slice of Values, used by every
// transform stage so each stage can be written as a plain
// []model.Value -> []model.Value function.
func seriesValues(col *model.Series) []model.Value {
	out := make([]model.Value, col.Len)
	for i := range out {
		out[i] = col.At(i)
	}
	return out
}

// buildSeries assembles a new Series of dtype dt named name from vals.
func buildSeries(name string, dt model.DType, vals []model.Value) *model.Series {
	s := model.NewSeries(name, dt, len(vals))
	for _, v := range vals {
		s.AppendValue(v)
	}
	return s
}
