package cleaner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/beefcake-data/beefcake/internal/model"
)

// removeSpecialPattern matches anything outside word characters, whitespace,
// and the punctuation allowlist used throughout cleaning and HasSpecial
// (text-cleaning step a).
var removeSpecialPattern = regexp.MustCompile(`[^\w\s.,\-_/:()!?;'"]`)

// extractNumbersPattern pulls the first numeric run out of a string.
var extractNumbersPattern = regexp.MustCompile(`(\d+\.?\d*)`)

var nullTokens = map[string]bool{
	"": true, "n/a": true, "null": true, "na": true, "none": true, "-": true,
}

// applyAdvancedCleaning runs the string-cleaning sub-steps in spec order.
// text_case and regex_find/regex_replace are skipped entirely in
// restricted mode; extract_numbers, when set, runs regardless and
// re-types the column to Float64.
func applyAdvancedCleaning(col *model.Series, cfg model.CleaningConfig, restricted bool) (*model.Series, error) {
	vals := seriesValues(col)

	if cfg.TrimWhitespace {
		vals = mapStrings(vals, strings.TrimSpace)
	}
	if cfg.RemoveSpecialChars {
		vals = mapStrings(vals, func(s string) string { return removeSpecialPattern.ReplaceAllString(s, "") })
	}
	if cfg.RemoveNonASCII {
		vals = mapStrings(vals, stripNonASCII)
	}
	if cfg.StandardiseNulls {
		vals = standardiseNulls(vals)
	}
	if !restricted && cfg.TextCase != "" && cfg.TextCase != model.TextCaseNone {
		vals = mapStrings(vals, func(s string) string { return applyTextCase(s, cfg.TextCase) })
	}
	if !restricted && cfg.RegexFind != "" {
		re, err := regexp.Compile(cfg.RegexFind)
		if err != nil {
			return nil, model.Context(model.ErrValidation, "cleaner.regex_find", err)
		}
		vals = mapStrings(vals, func(s string) string { return re.ReplaceAllString(s, cfg.RegexReplace) })
	}

	out := buildSeries(col.Name, col.DType, vals)

	if cfg.ExtractNumbers {
		return extractNumbers(out)
	}
	return out, nil
}

func mapStrings(vals []model.Value, f func(string) string) []model.Value {
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null {
			out[i] = v
			continue
		}
		out[i] = model.Value{Kind: v.Kind, S: f(v.S)}
	}
	return out
}

func stripNonASCII(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func standardiseNulls(vals []model.Value) []model.Value {
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if !v.Null && nullTokens[strings.ToLower(strings.TrimSpace(v.S))] {
			out[i] = model.NullValue(v.Kind)
			continue
		}
		out[i] = v
	}
	return out
}

func applyTextCase(s string, tc model.TextCase) string {
	switch tc {
	case model.TextCaseLower:
		return strings.ToLower(s)
	case model.TextCaseUpper:
		return strings.ToUpper(s)
	case model.TextCaseTitle:
		return strings.Title(strings.ToLower(s))
	default:
		return s
	}
}

// extractNumbers replaces each string with the first numeric run it
// contains, re-typing the column to Float64. Non-matches
// become null.
func extractNumbers(col *model.Series) (*model.Series, error) {
	vals := seriesValues(col)
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null {
			out[i] = model.NullValue(model.DTypeFloat64)
			continue
		}
		m := extractNumbersPattern.FindString(v.S)
		if m == "" {
			out[i] = model.NullValue(model.DTypeFloat64)
			continue
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			out[i] = model.NullValue(model.DTypeFloat64)
			continue
		}
		out[i] = model.Value{Kind: model.DTypeFloat64, F: f}
	}
	return buildSeries(col.Name, model.DTypeFloat64, out), nil
}
