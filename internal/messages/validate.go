package messages

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/execute.schema.json
var executeSchemaJSON string

var executeSchema = jsonschema.MustCompileString("execute.schema.json", executeSchemaJSON)

// DecodeExecuteRequest validates body against the execute schema and decodes
// it. Errors are suitable for a 400 response.
func DecodeExecuteRequest(body []byte) (ExecuteRequest, error) {
	var req ExecuteRequest

	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := executeSchema.Validate(v); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}
