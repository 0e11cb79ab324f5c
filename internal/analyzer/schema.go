package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildExtractionJSONSchema describes the object the extraction prompts ask
// for. Scalars are accepted where models commonly emit numbers for values;
// ranges are normalised after decoding rather than rejected.
func BuildExtractionJSONSchema() map[string]any {
	scalar := map[string]any{"type": []string{"string", "number", "boolean", "null"}}
	str := map[string]any{"type": "string"}
	num := map[string]any{"type": "number"}

	field := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label":      str,
			"value":      scalar,
			"type":       map[string]any{"type": []string{"string", "null"}},
			"position":   map[string]any{"type": []string{"string", "null"}},
			"confidence": map[string]any{"type": []string{"number", "null"}},
			"boundingBox": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"x": num, "y": num, "width": num, "height": num,
				},
			},
		},
		"required": []string{"label", "value"},
	}

	table := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"position": map[string]any{"type": []string{"string", "null"}},
			"headers":  map[string]any{"type": "array", "items": scalar},
			"rows": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "array", "items": scalar},
			},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"documentType":    map[string]any{"type": []string{"string", "null"}},
			"extractedFields": map[string]any{"type": []string{"array", "null"}, "items": field},
			"tables":          map[string]any{"type": "array", "items": table},
			"logos":           map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
			"signatures":      map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
			"fullText":        map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"extractedFields"},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func extractionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildExtractionJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("extraction.json")
	})
	return compiledSchema, schemaErr
}

// ValidateExtractionJSON checks data against the extraction schema.
func ValidateExtractionJSON(data []byte) error {
	schema, err := extractionSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
