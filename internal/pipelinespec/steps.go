package pipelinespec

import (
	"fmt"

	"github.com/beefcake-data/beefcake/internal/cleaner"
	"github.com/beefcake-data/beefcake/internal/model"
)

// dropColumns returns a frame with the named columns removed.
func dropColumns(df *model.DataFrame, names []string) (*model.DataFrame, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if df.Col(n) == nil {
			return nil, fmt.Errorf("column %q does not exist", n)
		}
		drop[n] = true
	}
	cols := make([]*model.Series, 0, len(df.Columns))
	for _, c := range df.Columns {
		if !drop[c.Name] {
			cols = append(cols, c)
		}
	}
	return model.NewDataFrame(cols)
}

// renameColumns applies m (old -> new) across df's columns, copying each
// renamed Series so the original isn't mutated out from under any other
// reference to it.
func renameColumns(df *model.DataFrame, m map[string]string) (*model.DataFrame, error) {
	cols := make([]*model.Series, len(df.Columns))
	copy(cols, df.Columns)
	final := make(map[string]bool, len(cols))
	for _, c := range cols {
		name := c.Name
		if nn, ok := m[name]; ok {
			name = nn
		}
		if final[name] {
			return nil, fmt.Errorf("rename collision on %q", name)
		}
		final[name] = true
	}
	for i, c := range cols {
		if nn, ok := m[c.Name]; ok && nn != c.Name {
			renamed := *c
			renamed.Name = nn
			cols[i] = &renamed
		}
	}
	return model.NewDataFrame(cols)
}

// mapColumns applies fn to every column named in step's "cols" parameter,
// replacing each in place.
func mapColumns(df *model.DataFrame, step model.TransformSpec, fn func(*model.Series) *model.Series) (*model.DataFrame, error) {
	names, ok := paramStringSlice(step.Parameters, "cols")
	if !ok {
		return nil, fmt.Errorf("missing parameter \"cols\"")
	}
	cols := make([]*model.Series, len(df.Columns))
	copy(cols, df.Columns)
	for _, name := range names {
		idx := -1
		for i, c := range cols {
			if c.Name == name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("column %q does not exist", name)
		}
		cols[idx] = fn(cols[idx])
	}
	return model.NewDataFrame(cols)
}

// mapColumnsErr is mapColumns for transforms that can themselves fail
// per-column (e.g. extract_numbers on a column with no numeric runs at all).
func mapColumnsErr(df *model.DataFrame, step model.TransformSpec, fn func(*model.Series) (*model.Series, error)) (*model.DataFrame, error) {
	names, ok := paramStringSlice(step.Parameters, "cols")
	if !ok {
		return nil, fmt.Errorf("missing parameter \"cols\"")
	}
	cols := make([]*model.Series, len(df.Columns))
	copy(cols, df.Columns)
	for _, name := range names {
		idx := -1
		for i, c := range cols {
			if c.Name == name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("column %q does not exist", name)
		}
		next, err := fn(cols[idx])
		if err != nil {
			return nil, err
		}
		cols[idx] = next
	}
	return model.NewDataFrame(cols)
}

// replaceColumn applies fn to the single column named col, replacing it
// in place; used by cast_types and parse_dates which take one column, not
// a "cols" list.
func replaceColumn(df *model.DataFrame, col string, fn func(*model.Series) (*model.Series, error)) (*model.DataFrame, error) {
	cols := make([]*model.Series, len(df.Columns))
	copy(cols, df.Columns)
	idx := -1
	for i, c := range cols {
		if c.Name == col {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("column %q does not exist", col)
	}
	next, err := fn(cols[idx])
	if err != nil {
		return nil, err
	}
	cols[idx] = next
	return model.NewDataFrame(cols)
}

// oneHotEncodeColumns expands each named column into its {0,1} indicator
// columns, inserted where the source column was; dropOriginal controls
// whether the source column itself is kept alongside them.
func oneHotEncodeColumns(df *model.DataFrame, names []string, dropOriginal bool) (*model.DataFrame, error) {
	target := make(map[string]bool, len(names))
	for _, n := range names {
		if df.Col(n) == nil {
			return nil, fmt.Errorf("column %q does not exist", n)
		}
		target[n] = true
	}
	cols := make([]*model.Series, 0, len(df.Columns))
	for _, c := range df.Columns {
		if !target[c.Name] {
			cols = append(cols, c)
			continue
		}
		if !dropOriginal {
			cols = append(cols, c)
		}
		cols = append(cols, cleaner.OneHotEncode(c)...)
	}
	return model.NewDataFrame(cols)
}
