// Package pipelinespec implements beefcake's reusable-pipeline JSON format
// parsing, structural pre-validation with gojsonschema,
// semantic validation that simulates column presence step-by-step, and an
// executor that applies the spec's step algebra to a loaded LDF.
package pipelinespec

import (
	"encoding/json"
	"os"

	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/xeipuuv/gojsonschema"
)

// structuralSchema is the JSON Schema shape of a PipelineSpec document,
// checked before the looser encoding/json unmarshal so a malformed file
// produces a pointed error ("steps[2].op is required") rather than a
// generic type-mismatch panic deep in step interpretation.
const structuralSchema = `{
  "type": "object",
  "required": ["version", "name", "input", "schema", "steps", "output"],
  "properties": {
    "version": {"type": "string"},
    "name": {"type": "string"},
    "input": {
      "type": "object",
      "required": ["format"],
      "properties": {
        "format": {"type": "string"},
        "has_header": {"type": "boolean"},
        "delimiter": {"type": "string"},
        "encoding": {"type": "string"}
      }
    },
    "schema": {
      "type": "object",
      "properties": {
        "match_mode": {"type": "string"},
        "required_columns": {"type": "array", "items": {"type": "string"}}
      }
    },
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["op"],
        "properties": {
          "op": {"type": "string"},
          "parameters": {"type": "object"}
        }
      }
    },
    "output": {
      "type": "object",
      "required": ["format", "path_template"],
      "properties": {
        "format": {"type": "string"},
        "path_template": {"type": "string"},
        "overwrite": {"type": "boolean"}
      }
    }
  }
}`

// ValidateStructure runs raw against structuralSchema, returning a
// descriptive error for the first problem found. This runs before
// unmarshalling so malformed JSON never reaches the semantic validator.
func ValidateStructure(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(structuralSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return model.Context(model.ErrParse, "pipelinespec.validate_structure", err)
	}
	if !result.Valid() {
		msg := result.Errors()[0].String()
		return model.Context(model.ErrValidation, "pipelinespec.validate_structure", errString(msg))
	}
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

// Parse runs structural validation then unmarshals raw into a PipelineSpec.
func Parse(raw []byte) (model.PipelineSpec, error) {
	if err := ValidateStructure(raw); err != nil {
		return model.PipelineSpec{}, err
	}
	var spec model.PipelineSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return model.PipelineSpec{}, model.Context(model.ErrParse, "pipelinespec.unmarshal", err)
	}
	if spec.Version != model.PipelineSpecVersion {
		return model.PipelineSpec{}, model.Context(model.ErrValidation, "pipelinespec.version",
			errString("unsupported pipeline spec version "+spec.Version+", expected "+model.PipelineSpecVersion))
	}
	return spec, nil
}

// LoadFile reads and parses a PipelineSpec from path.
func LoadFile(path string) (model.PipelineSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.PipelineSpec{}, model.Context(model.ErrIo, "pipelinespec.read_file", err)
	}
	return Parse(raw)
}

// ToJSON serialises spec back to its canonical JSON form.
func ToJSON(spec model.PipelineSpec) ([]byte, error) {
	raw, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, model.Context(model.ErrInternal, "pipelinespec.marshal", err)
	}
	return raw, nil
}
