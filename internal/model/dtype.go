package model

// DType is the physical storage type of a materialised column.
type DType int

const (
	DTypeInt64 DType = iota
	DTypeFloat64
	DTypeBool
	DTypeString
	DTypeDate
	DTypeDatetime
	DTypeCategorical
	DTypeList
	DTypeStruct
)

func (d DType) String() string {
	switch d {
	case DTypeInt64:
		return "Int64"
	case DTypeFloat64:
		return "Float64"
	case DTypeBool:
		return "Bool"
	case DTypeString:
		return "String"
	case DTypeDate:
		return "Date"
	case DTypeDatetime:
		return "Datetime"
	case DTypeCategorical:
		return "Categorical"
	case DTypeList:
		return "List"
	case DTypeStruct:
		return "Struct"
	default:
		return "Unknown"
	}
}

// ParseDType maps the pipeline-spec type whitelist (§4.4) plus the raw
// physical type names onto a DType. Unknown strings return (0, false).
func ParseDType(s string) (DType, bool) {
	switch s {
	case "i64", "Int64":
		return DTypeInt64, true
	case "f64", "Float64", "Numeric":
		return DTypeFloat64, true
	case "Boolean":
		return DTypeBool, true
	case "String", "Text", "Categorical":
		return DTypeString, true
	case "Temporal", "Date":
		return DTypeDate, true
	case "Datetime":
		return DTypeDatetime, true
	default:
		return 0, false
	}
}

// ColumnKind is the analytical classification of a column, distinct from
// its physical DType: a Float64 column of two distinct {0,1} values is
// ColumnKindBoolean even though its DType stays Float64.
type ColumnKind string

const (
	ColumnKindNumeric     ColumnKind = "Numeric"
	ColumnKindText        ColumnKind = "Text"
	ColumnKindCategorical ColumnKind = "Categorical"
	ColumnKindTemporal    ColumnKind = "Temporal"
	ColumnKindBoolean     ColumnKind = "Boolean"
	ColumnKindNested      ColumnKind = "Nested"
)

// TypeWhitelist is the set of type strings the pipeline validator (§4.4)
// accepts for cast_types steps.
var TypeWhitelist = map[string]bool{
	"i64": true, "f64": true, "String": true, "Boolean": true,
	"Numeric": true, "Text": true, "Categorical": true, "Temporal": true,
}
