package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Structured pairs an output schema with its resolved form so model text can be
// parsed and validated in one step.
type Structured struct {
	Name     string
	Schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// NewStructured resolves schema. It fails only for schemas that are themselves invalid.
func NewStructured(name string, schema *jsonschema.Schema) (*Structured, error) {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("llm: resolve %s schema: %w", name, err)
	}
	return &Structured{Name: name, Schema: schema, resolved: resolved}, nil
}

// Request fills the schema fields of a request
func (s *Structured) Request(system, user string) *Request {
	return &Request{
		System:     system,
		User:       user,
		SchemaName: s.Name,
		Schema:     s.Schema,
	}
}

// Decode extracts the JSON object from text, validates it against the schema and
// unmarshals it into out.
func (s *Structured) Decode(text string, out any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return fmt.Errorf("llm: decode %s output: %w", s.Name, err)
	}
	if err := s.resolved.Validate(instance); err != nil {
		return fmt.Errorf("llm: %s output does not match schema: %w", s.Name, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("llm: decode %s output: %w", s.Name, err)
	}
	return nil
}

// IntPtr is a helper for the schema bounds fields
func IntPtr(v int) *int {
	return &v
}
