package cleaner

import (
	"strconv"
	"strings"

	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/util"
)

// castColumn applies step b: cast to target_dtype. String
// sources get the best-effort parsing rules spec'd for each target kind;
// everything else falls back to ldf.CastValue's numeric-widening rules.
func castColumn(col *model.Series, target model.ColumnKind, cfg model.CleaningConfig) (*model.Series, error) {
	targetType := dtypeForKind(target)
	if col.DType == targetType {
		return col, nil
	}

	vals := seriesValues(col)
	out := make([]model.Value, len(vals))
	for i, v := range vals {
		if v.Null {
			out[i] = model.NullValue(targetType)
			continue
		}
		if v.Kind == model.DTypeString || v.Kind == model.DTypeCategorical {
			cv, err := castStringValue(v.S, target, cfg)
			if err != nil {
				return nil, err
			}
			out[i] = cv
			continue
		}
		cv, err := ldf.CastValue(v, targetType)
		if err != nil {
			out[i] = model.NullValue(targetType)
			continue
		}
		out[i] = cv
	}
	return buildSeries(col.Name, targetType, out), nil
}

func dtypeForKind(k model.ColumnKind) model.DType {
	switch k {
	case model.ColumnKindNumeric:
		return model.DTypeFloat64
	case model.ColumnKindBoolean:
		return model.DTypeBool
	case model.ColumnKindTemporal:
		return model.DTypeDatetime
	case model.ColumnKindCategorical:
		return model.DTypeCategorical
	default:
		return model.DTypeString
	}
}

// castStringValue parses a raw string cell: numeric casts
// tolerate thousands separators, boolean casts accept a small word list
// beyond strconv.ParseBool, temporal casts try temporal_format then the
// common ISO layouts. Unparseable cells become null rather than an error.
func castStringValue(s string, target model.ColumnKind, cfg model.CleaningConfig) (model.Value, error) {
	trimmed := strings.TrimSpace(s)
	switch target {
	case model.ColumnKindNumeric:
		f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
		if err != nil {
			return model.NullValue(model.DTypeFloat64), nil
		}
		return model.Value{Kind: model.DTypeFloat64, F: f}, nil

	case model.ColumnKindBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "yes", "1":
			return model.Value{Kind: model.DTypeBool, B: true}, nil
		case "false", "no", "0":
			return model.Value{Kind: model.DTypeBool, B: false}, nil
		default:
			return model.NullValue(model.DTypeBool), nil
		}

	case model.ColumnKindTemporal:
		t, ok := util.ParseTemporal(trimmed, cfg.TemporalFormat)
		if !ok {
			return model.NullValue(model.DTypeDatetime), nil
		}
		if cfg.TimezoneUTC {
			t = t.UTC()
		}
		return model.Value{Kind: model.DTypeDatetime, T: t}, nil

	case model.ColumnKindCategorical:
		return model.Value{Kind: model.DTypeCategorical, S: trimmed}, nil

	default: // Text
		return model.Value{Kind: model.DTypeString, S: s}, nil
	}
}
