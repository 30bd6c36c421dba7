package pipelinespec

import (
	"fmt"
	"regexp"

	"github.com/beefcake-data/beefcake/internal/model"
)

var imputeStrategies = map[string]bool{"Mean": true, "Median": true, "Mode": true, "Zero": true}
var normaliseMethods = map[string]bool{"ZScore": true, "MinMax": true}

// Validate simulates spec's steps against inputSchema's column set,
// step-by-step, and returns every problem found. An empty
// result means the spec can run against this schema without a
// validation-category failure.
func Validate(spec model.PipelineSpec, inputSchema model.Schema) []model.ValidationError {
	var errs []model.ValidationError

	present := make(map[string]bool, len(inputSchema.Fields))
	for _, f := range inputSchema.Fields {
		present[f.Name] = true
	}

	for _, req := range spec.Schema.RequiredColumns {
		if !present[req] {
			errs = append(errs, model.ValidationError{Message: fmt.Sprintf("required column %q not present in input", req)})
		}
	}
	if spec.Schema.MatchMode == model.MatchStrict {
		required := make(map[string]bool, len(spec.Schema.RequiredColumns))
		for _, r := range spec.Schema.RequiredColumns {
			required[r] = true
		}
		for name := range present {
			if !required[name] {
				errs = append(errs, model.ValidationError{Message: fmt.Sprintf("unexpected column %q in strict match mode", name)})
			}
		}
	}

	for i, step := range spec.Steps {
		errs = append(errs, validateStep(i, step, present)...)
	}
	return errs
}

func validateStep(i int, step model.TransformSpec, present map[string]bool) []model.ValidationError {
	idx := i
	fail := func(format string, args ...interface{}) model.ValidationError {
		return model.ValidationError{StepIndex: &idx, Message: fmt.Sprintf("step %d: %s", idx, fmt.Sprintf(format, args...))}
	}

	requireCols := func(cols []string) []model.ValidationError {
		var out []model.ValidationError
		for _, c := range cols {
			if !present[c] {
				out = append(out, fail("column %q does not exist", c))
			}
		}
		return out
	}

	switch step.Op {
	case "drop_columns":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		errs := requireCols(cols)
		for _, c := range cols {
			delete(present, c)
		}
		return errs

	case "rename_columns":
		m, ok := paramStringMap(step.Parameters, "map")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"map\"")}
		}
		var errs []model.ValidationError
		for oldName, newName := range m {
			if !present[oldName] {
				errs = append(errs, fail("column %q does not exist", oldName))
				continue
			}
			if newName != oldName && present[newName] {
				errs = append(errs, fail("rename target %q already exists", newName))
				continue
			}
			delete(present, oldName)
			present[newName] = true
		}
		return errs

	case "trim_whitespace", "extract_numbers":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		return requireCols(cols)

	case "cast_types":
		col, ok := paramString(step.Parameters, "col")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"col\"")}
		}
		var errs []model.ValidationError
		if !present[col] {
			errs = append(errs, fail("column %q does not exist", col))
		}
		typeStr, ok := paramString(step.Parameters, "type_str")
		if !ok || !model.TypeWhitelist[typeStr] {
			errs = append(errs, fail("unknown type %q", typeStr))
		}
		return errs

	case "parse_dates":
		col, ok := paramString(step.Parameters, "col")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"col\"")}
		}
		return requireCols([]string{col})

	case "impute":
		strategy, _ := paramString(step.Parameters, "strategy")
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		errs := requireCols(cols)
		if !imputeStrategies[strategy] {
			errs = append(errs, fail("unknown impute strategy %q", strategy))
		}
		return errs

	case "one_hot_encode":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		errs := requireCols(cols)
		dropOriginal, _ := paramBool(step.Parameters, "drop_original")
		if dropOriginal {
			for _, c := range cols {
				delete(present, c)
			}
		}
		return errs

	case "normalise_columns":
		method, _ := paramString(step.Parameters, "method")
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		errs := requireCols(cols)
		if !normaliseMethods[method] {
			errs = append(errs, fail("unknown normalisation method %q", method))
		}
		return errs

	case "clip_outliers":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		errs := requireCols(cols)
		lowerQ, lok := paramFloat(step.Parameters, "lower_q")
		upperQ, uok := paramFloat(step.Parameters, "upper_q")
		if !lok || !uok || lowerQ < 0 || lowerQ > 1 || upperQ < 0 || upperQ > 1 {
			errs = append(errs, fail("lower_q/upper_q must be in [0,1]"))
		} else if lowerQ >= upperQ {
			errs = append(errs, fail("lower_q must be less than upper_q"))
		}
		return errs

	case "regex_replace":
		cols, ok := paramStringSlice(step.Parameters, "cols")
		if !ok {
			return []model.ValidationError{fail("missing parameter \"cols\"")}
		}
		errs := requireCols(cols)
		pattern, _ := paramString(step.Parameters, "pattern")
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fail("invalid regex %q: %v", pattern, err))
		}
		return errs

	default:
		return []model.ValidationError{fail("unknown step op %q", step.Op)}
	}
}

func paramString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok
}

func paramBool(params map[string]interface{}, key string) (bool, bool) {
	v, ok := params[key].(bool)
	return v, ok
}

func paramFloat(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key].(float64)
	return v, ok
}

func paramStringSlice(params map[string]interface{}, key string) ([]string, bool) {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func paramStringMap(params map[string]interface{}, key string) (map[string]string, bool) {
	raw, ok := params[key].(map[string]interface{})
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[k] = s
	}
	return out, true
}
