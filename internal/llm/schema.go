package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// BuildFeedbackJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Normalized feedback always satisfies it; raw model replies are checked against it
// for diagnostics only.
func BuildFeedbackJSONSchema() map[string]any {
	sections := make(map[string]any, 4)
	required := make([]string, 0, 4)
	for _, d := range constants.Dimensions() {
		sections[string(d)] = sectionSchema()
		required = append(required, string(d))
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"summary", "feedback"},
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
			"feedback": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             required,
				"properties":           sections,
			},
		},
	}
}

func sectionSchema() map[string]any {
	list := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"summary", "issues", "revision_tips"},
		"properties": map[string]any{
			"summary":       map[string]any{"type": "string"},
			"issues":        list,
			"revision_tips": list,
		},
	}
}

var (
	feedbackSchemaOnce sync.Once
	feedbackSchema     *jsonschema.Schema
	feedbackSchemaErr  error
)

// ValidateFeedback checks an untyped document against BuildFeedbackJSONSchema.
func ValidateFeedback(doc any) error {
	feedbackSchemaOnce.Do(func() {
		feedbackSchema, feedbackSchemaErr = compileSchema(BuildFeedbackJSONSchema())
	})
	if feedbackSchemaErr != nil {
		return feedbackSchemaErr
	}
	if err := feedbackSchema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
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

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
