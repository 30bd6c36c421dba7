package dbpush

import (
	"testing"
	"time"

	"github.com/beefcake-data/beefcake/internal/model"
)

func TestPgTypeMapsDTypes(t *testing.T) {
	cases := []struct {
		dt   model.DType
		want string
	}{
		{model.DTypeInt64, "bigint"},
		{model.DTypeFloat64, "double precision"},
		{model.DTypeBool, "boolean"},
		{model.DTypeDate, "date"},
		{model.DTypeDatetime, "timestamptz"},
		{model.DTypeString, "text"},
		{model.DTypeCategorical, "text"},
	}
	for _, c := range cases {
		if got := pgType(c.dt); got != c.want {
			t.Errorf("pgType(%v) = %q, want %q", c.dt, got, c.want)
		}
	}
}

func TestValueToSQLUnwrapsNonNullValues(t *testing.T) {
	if got := valueToSQL(model.Value{Kind: model.DTypeInt64, I: 42}); got != int64(42) {
		t.Errorf("expected int64 42, got %#v", got)
	}
	if got := valueToSQL(model.Value{Kind: model.DTypeFloat64, F: 3.5}); got != 3.5 {
		t.Errorf("expected float64 3.5, got %#v", got)
	}
	if got := valueToSQL(model.Value{Kind: model.DTypeBool, B: true}); got != true {
		t.Errorf("expected bool true, got %#v", got)
	}
	if got := valueToSQL(model.Value{Kind: model.DTypeString, S: "hi"}); got != "hi" {
		t.Errorf("expected string \"hi\", got %#v", got)
	}
	now := time.Now()
	if got := valueToSQL(model.Value{Kind: model.DTypeDate, T: now}); got != now {
		t.Errorf("expected time %v, got %#v", now, got)
	}
}

func TestValueToSQLReturnsNilForNullValue(t *testing.T) {
	if got := valueToSQL(model.NullValue(model.DTypeInt64)); got != nil {
		t.Errorf("expected nil for a null value, got %#v", got)
	}
}

func TestSSLModeOrDefault(t *testing.T) {
	if got := sslModeOrDefault(""); got != "require" {
		t.Errorf("expected default sslmode \"require\", got %q", got)
	}
	if got := sslModeOrDefault("disable"); got != "disable" {
		t.Errorf("expected passthrough \"disable\", got %q", got)
	}
}
