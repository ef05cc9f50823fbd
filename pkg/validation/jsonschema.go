package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	_ "github.com/santhosh-tekuri/jsonschema/v5/httploader"
)

// compiled schemas keyed by their source text
var schemaCache sync.Map

func compile(schemaJSON string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schemaJSON); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile JSON schema: %w", err)
	}
	schemaCache.Store(schemaJSON, sch)
	return sch, nil
}

// ValidateJSONWithSchema validates a JSON data string against a JSON schema string.
func ValidateJSONWithSchema(schemaJSON string, dataJSON string) error {
	if schemaJSON == "" {
		return nil
	}

	sch, err := compile(schemaJSON)
	if err != nil {
		return err
	}

	var data interface{}
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w", err)
	}
	return validate(sch, data)
}

// ValidateValue validates an already decoded value (or any struct) against a schema.
func ValidateValue(schemaJSON string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for validation: %w", err)
	}
	return ValidateJSONWithSchema(schemaJSON, string(data))
}

func validate(sch *jsonschema.Schema, data interface{}) error {
	if err := sch.Validate(data); err != nil {
		validationErr, ok := err.(*jsonschema.ValidationError)
		if ok {
			return fmt.Errorf("JSON data failed validation against schema: %v", validationErr)
		}
		return fmt.Errorf("JSON data failed validation (unexpected error type): %w", err)
	}
	return nil
}
