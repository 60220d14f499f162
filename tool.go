package reagent

import "context"

// ParamType is the declared type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// Parameter declares a single tool parameter. The declaration drives both the
// catalog shown to the model and argument validation/coercion in [Registry].
type Parameter struct {
	// Name is the argument key the model must supply.
	Name string

	// Type is the expected primitive type.
	Type ParamType

	// Description is shown to the model in the tool catalog.
	Description string

	// Required marks the parameter as mandatory. A required string parameter
	// additionally rejects the empty string.
	Required bool

	// Default is filled in when an optional parameter is absent. Nil means no
	// default.
	Default any
}

// Tool is a callable capability the agent can invoke between model calls.
//
// Responsibility split:
//   - Tool: accept validated args, execute logic, return text output
//   - Registry: prompt the model about tools, resolve raw args, dispatch
//
// Run receives args already validated and coerced against Parameters, so
// implementations can assert types without re-checking. Ordinary failure modes
// (bad input, upstream down) should be reported as a descriptive result
// string, not an error; returned errors and panics are caught at the registry
// boundary and fed back to the model as an error observation.
type Tool interface {
	// Name returns the tool's identifier used in action clauses.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the tool's parameter declarations in schema order.
	Parameters() []Parameter

	// Run executes the tool.
	Run(ctx context.Context, args map[string]any) (string, error)
}

// ToolFunc adapts a plain function into a [Tool].
type ToolFunc struct {
	name        string
	description string
	params      []Parameter
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// NewToolFunc creates a ToolFunc with the given declaration.
// Panics if name is empty or fn is nil; a malformed declaration is a
// configuration-time fault, not a runtime condition.
func NewToolFunc(
	name, description string,
	params []Parameter,
	fn func(ctx context.Context, args map[string]any) (string, error),
) *ToolFunc {
	if name == "" {
		panic("reagent: tool name must not be empty")
	}
	if fn == nil {
		panic("reagent: tool function must not be nil")
	}
	return &ToolFunc{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
	}
}

// Name returns the tool's identifier.
func (t *ToolFunc) Name() string { return t.name }

// Description returns a human-readable description for the model.
func (t *ToolFunc) Description() string { return t.description }

// Parameters returns the tool's parameter declarations.
func (t *ToolFunc) Parameters() []Parameter { return t.params }

// Run executes the wrapped function.
func (t *ToolFunc) Run(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}

// ToolSchema is one catalog entry presented to a model that expects structured
// tool declarations. Parameters follows the JSON Schema object shape
// (type/properties/required).
type ToolSchema struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters" yaml:"parameters"`
}

// Compile-time check that ToolFunc implements Tool.
var _ Tool = (*ToolFunc)(nil)
