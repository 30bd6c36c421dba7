package ldf

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/beefcake-data/beefcake/internal/model"
)

// CastValue coerces v to target, following the pipeline cast_types rules:
// numeric widening is always allowed; numeric-to-string
// formats the value; string-to-numeric/bool parses it, producing a null
// on failure rather than an error, since a cast step's job is to change a
// column's type for an entire file, not to validate individual cells.
func CastValue(v model.Value, target model.DType) (model.Value, error) {
	if v.Null {
		return model.NullValue(target), nil
	}
	switch target {
	case model.DTypeInt64:
		switch v.Kind {
		case model.DTypeInt64:
			return v, nil
		case model.DTypeFloat64:
			return model.Value{Kind: target, I: int64(v.F)}, nil
		case model.DTypeBool:
			if v.B {
				return model.Value{Kind: target, I: 1}, nil
			}
			return model.Value{Kind: target, I: 0}, nil
		case model.DTypeString, model.DTypeCategorical:
			n, err := strconv.ParseInt(strings.TrimSpace(v.S), 10, 64)
			if err != nil {
				return model.NullValue(target), nil
			}
			return model.Value{Kind: target, I: n}, nil
		}
	case model.DTypeFloat64:
		switch v.Kind {
		case model.DTypeFloat64:
			return v, nil
		case model.DTypeInt64:
			return model.Value{Kind: target, F: float64(v.I)}, nil
		case model.DTypeString, model.DTypeCategorical:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
			if err != nil {
				return model.NullValue(target), nil
			}
			return model.Value{Kind: target, F: f}, nil
		}
	case model.DTypeBool:
		switch v.Kind {
		case model.DTypeBool:
			return v, nil
		case model.DTypeInt64:
			return model.Value{Kind: target, B: v.I != 0}, nil
		case model.DTypeFloat64:
			return model.Value{Kind: target, B: v.F != 0}, nil
		case model.DTypeString, model.DTypeCategorical:
			b, err := strconv.ParseBool(strings.TrimSpace(v.S))
			if err != nil {
				return model.NullValue(target), nil
			}
			return model.Value{Kind: target, B: b}, nil
		}
	case model.DTypeString, model.DTypeCategorical:
		return model.Value{Kind: target, S: formatValue(v)}, nil
	case model.DTypeDate, model.DTypeDatetime:
		switch v.Kind {
		case model.DTypeDate, model.DTypeDatetime:
			return model.Value{Kind: target, T: v.T}, nil
		}
	}
	return model.NullValue(target), fmt.Errorf("cannot cast %v to %v", v.Kind, target)
}

func formatValue(v model.Value) string {
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
	case model.DTypeString, model.DTypeCategorical:
		return v.S
	case model.DTypeDate:
		return v.T.Format("2006-01-02")
	case model.DTypeDatetime:
		return v.T.Format("2006-01-02T15:04:05Z07:00")
	default:
		return ""
	}
}

// compareValues orders two values of the same kind: <0, 0, >0. Nulls sort
// last regardless of direction.
func compareValues(a, b model.Value) int {
	if a.Null && b.Null {
		return 0
	}
	if a.Null {
		return 1
	}
	if b.Null {
		return -1
	}
	switch a.Kind {
	case model.DTypeInt64:
		switch {
		case a.I < b.I:
			return -1
		case a.I > b.I:
			return 1
		default:
			return 0
		}
	case model.DTypeFloat64:
		switch {
		case a.F < b.F:
			return -1
		case a.F > b.F:
			return 1
		default:
			return 0
		}
	case model.DTypeBool:
		if a.B == b.B {
			return 0
		}
		if !a.B {
			return -1
		}
		return 1
	case model.DTypeDate, model.DTypeDatetime:
		if a.T.Before(b.T) {
			return -1
		}
		if a.T.After(b.T) {
			return 1
		}
		return 0
	default:
		return strings.Compare(a.S, b.S)
	}
}

// seededSample draws min(n, len(rows)) rows deterministically for a given
// seed, using Go's math/rand with an explicit source so results are
// reproducible across runs and platforms.
func seededSample(rows []model.Row, n int, seed int64) []model.Row {
	if n >= len(rows) {
		out := append([]model.Row{}, rows...)
		return out
	}
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(rows))[:n]
	// Preserve source row order rather than the permutation's order, so
	// sample output reads like a filtered subset of the file.
	chosen := make([]bool, len(rows))
	for _, i := range idx {
		chosen[i] = true
	}
	out := make([]model.Row, 0, n)
	for i, row := range rows {
		if chosen[i] {
			out = append(out, row)
		}
	}
	return out
}

func applyJoin(rows []model.Row, schema model.Schema, op Op) ([]model.Row, model.Schema, error) {
	leftIdx := schema.IndexOf(op.JoinOn)
	if leftIdx < 0 {
		return nil, schema, fmt.Errorf("join: unknown left column %q", op.JoinOn)
	}
	rightRows, rightSchema, err := op.JoinOther.collectRows()
	if err != nil {
		return nil, schema, err
	}
	rightOnIdx := rightSchema.IndexOf(op.JoinOn)
	if rightOnIdx < 0 {
		return nil, schema, fmt.Errorf("join: unknown right column %q", op.JoinOn)
	}

	rightByKey := make(map[string][]model.Row, len(rightRows))
	for _, r := range rightRows {
		key := formatValue(r.Vals[rightOnIdx])
		rightByKey[key] = append(rightByKey[key], r)
	}

	newSchema := applySchema(schema, op)
	rightKeep := make([]int, 0, len(rightSchema.Fields)-1)
	for i := range rightSchema.Fields {
		if i != rightOnIdx {
			rightKeep = append(rightKeep, i)
		}
	}

	var out []model.Row
	for _, left := range rows {
		key := formatValue(left.Vals[leftIdx])
		matches := rightByKey[key]
		if len(matches) == 0 {
			if op.JoinHow == "left" {
				vals := append([]model.Value{}, left.Vals...)
				for range rightKeep {
					vals = append(vals, model.NullValue(model.DTypeString))
				}
				out = append(out, model.Row{Vals: vals})
			}
			continue
		}
		for _, right := range matches {
			vals := append([]model.Value{}, left.Vals...)
			for _, ri := range rightKeep {
				vals = append(vals, right.Vals[ri])
			}
			out = append(out, model.Row{Vals: vals})
		}
	}
	return out, newSchema, nil
}
