// Package schema compiles and validates the JSON Schema documents that back
// tool parameter declarations.
//
// The registry converts each tool's parameter list into an object schema,
// compiles it once at registration time, and validates resolved arguments
// against it before every dispatch. Schemas can also be built directly:
//
//	raw := schema.Object(map[string]*schema.Property{
//	    "query": schema.String("What to search for"),
//	    "limit": schema.Integer("Maximum results").Default(5),
//	}, "query")
//	s := schema.MustCompile(raw)
//	err := s.Validate(map[string]any{"query": "go releases"})
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema pairs a raw schema document with its compiled validator. The raw map
// is what gets rendered into prompts and catalogs; the compiled form is what
// arguments are checked against.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the underlying schema document.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate checks data against the compiled schema. A nil receiver or a
// schema compiled from a nil document accepts everything.
func (s *Schema) Validate(data map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(data); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidationError wraps the validator's error with a stable prefix so callers
// can surface it as an observation without leaking library internals.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Compile compiles a raw schema document. A nil document compiles to a nil
// Schema, which validates everything.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", data); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Schema{raw: raw, compiled: compiled}, nil
}

// MustCompile is Compile for schemas defined at init time. It panics on error.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Object builds an object schema from named properties. Trailing arguments
// name the required properties.
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, prop := range properties {
		props[name] = prop.build()
	}

	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// Property is a single property of an object schema, built fluently:
//
//	schema.Integer("Maximum results").Default(5)
type Property struct {
	typ         string
	description string
	def         any
}

func (p *Property) build() map[string]any {
	m := map[string]any{"type": p.typ}
	if p.description != "" {
		m["description"] = p.description
	}
	if p.def != nil {
		m["default"] = p.def
	}
	return m
}

// String creates a string property.
func String(description string) *Property {
	return &Property{typ: "string", description: description}
}

// Integer creates an integer property.
func Integer(description string) *Property {
	return &Property{typ: "integer", description: description}
}

// Number creates a floating point property.
func Number(description string) *Property {
	return &Property{typ: "number", description: description}
}

// Boolean creates a boolean property.
func Boolean(description string) *Property {
	return &Property{typ: "boolean", description: description}
}

// Default records the value used when the property is omitted. The validator
// does not apply defaults; the argument resolver does, before validation.
func (p *Property) Default(value any) *Property {
	p.def = value
	return p
}
