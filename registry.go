package reagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/reagentlabs/reagent/schema"
	"gopkg.in/yaml.v3"
)

// NoToolsSentinel is returned by [Registry.DescribeAll] when the registry is
// completely empty. It is produced only when both stores are empty, so it can
// never be confused with a registered tool's catalog line (which always starts
// with "- ").
const NoToolsSentinel = "No tools available."

// bareFunc is a legacy-style entry: name + description + a callable taking a
// single unvalidated string. It has no parameter schema.
type bareFunc struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) (string, error)
}

// registryEntry preserves registration order across both stores.
type registryEntry struct {
	name string
	bare bool
}

// Registry maps tool names to their contracts and dispatch entry points. It
// renders tool catalogs for prompts, and resolves and validates raw
// model-supplied arguments before dispatch.
//
// A Registry is populated once before any run begins and may then be shared by
// reference across agent instances. Reads are safe concurrently after setup;
// Register/Unregister concurrent with reads must be serialized externally.
type Registry struct {
	tools     map[string]Tool
	compiled  map[string]*schema.Schema
	functions map[string]*bareFunc
	order     []registryEntry
	logger    *slog.Logger
	hooks     *HookRegistry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		compiled:  make(map[string]*schema.Schema),
		functions: make(map[string]*bareFunc),
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger used for registration notices.
// Returns the registry for chaining.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithHooks sets the hook registry fired around tool dispatch.
// Returns the registry for chaining.
func (r *Registry) WithHooks(hooks *HookRegistry) *Registry {
	r.hooks = hooks
	return r
}

// Register inserts a schema-backed tool, replacing any prior entry under the
// same name (last-write-wins, with a warning-level notice).
//
// Panics if the tool's parameter declaration does not compile to a valid JSON
// Schema: that is a configuration-time fault, not a runtime condition.
// Returns the registry for chaining.
func (r *Registry) Register(tool Tool) *Registry {
	name := tool.Name()
	if r.replaceExisting(name) {
		r.logger.Warn("replacing previously registered tool", "tool", name)
	}

	compiled, err := schema.Compile(paramsToSchema(tool.Parameters()))
	if err != nil {
		panic(fmt.Sprintf("reagent: tool %q has invalid parameter schema: %v", name, err))
	}

	r.tools[name] = tool
	r.compiled[name] = compiled
	r.order = append(r.order, registryEntry{name: name})
	return r
}

// RegisterFunc inserts a bare function entry: a simplified contract with no
// parameter schema, taking a single string. Replacement semantics match
// Register. Returns the registry for chaining.
func (r *Registry) RegisterFunc(
	name, description string,
	fn func(ctx context.Context, input string) (string, error),
) *Registry {
	if fn == nil {
		panic("reagent: bare function must not be nil")
	}
	if r.replaceExisting(name) {
		r.logger.Warn("replacing previously registered tool", "tool", name)
	}

	r.functions[name] = &bareFunc{name: name, description: description, fn: fn}
	r.order = append(r.order, registryEntry{name: name, bare: true})
	return r
}

// replaceExisting removes name from both stores and the order slice.
// Reports whether an entry was actually replaced.
func (r *Registry) replaceExisting(name string) bool {
	_, hadTool := r.tools[name]
	_, hadFunc := r.functions[name]
	if !hadTool && !hadFunc {
		return false
	}
	delete(r.tools, name)
	delete(r.compiled, name)
	delete(r.functions, name)
	for i, e := range r.order {
		if e.name == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Unregister removes a tool from either store. Removing an absent name is a
// no-op with a notice.
func (r *Registry) Unregister(name string) {
	if !r.replaceExisting(name) {
		r.logger.Warn("unregister of unknown tool", "tool", name)
		return
	}
}

// Len returns the number of registered entries across both stores.
func (r *Registry) Len() int {
	return len(r.order)
}

// Tools returns the schema-backed tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, e := range r.order {
		if !e.bare {
			out = append(out, r.tools[e.name])
		}
	}
	return out
}

// DescribeAll renders a newline-joined bullet list of "name: description"
// across both stores in registration order. An empty registry yields
// [NoToolsSentinel].
func (r *Registry) DescribeAll() string {
	if len(r.order) == 0 {
		return NoToolsSentinel
	}

	lines := make([]string, 0, len(r.order))
	for _, e := range r.order {
		if e.bare {
			f := r.functions[e.name]
			lines = append(lines, fmt.Sprintf("- %s: %s", f.name, f.description))
			continue
		}
		t := r.tools[e.name]
		lines = append(lines, fmt.Sprintf("- %s: %s", t.Name(), t.Description()))
	}
	return strings.Join(lines, "\n")
}

// Catalog returns one structured entry per registered tool, in registration
// order. Bare functions get a synthesized single-string "input" parameter so
// models that expect structured declarations can still call them.
func (r *Registry) Catalog() []ToolSchema {
	out := make([]ToolSchema, 0, len(r.order))
	for _, e := range r.order {
		if e.bare {
			f := r.functions[e.name]
			out = append(out, ToolSchema{
				Name:        f.name,
				Description: f.description,
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "Input text passed to the tool.",
						},
					},
					"required": []string{"input"},
				},
			})
			continue
		}
		t := r.tools[e.name]
		out = append(out, ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  paramsToSchema(t.Parameters()),
		})
	}
	return out
}

// CatalogPrompt renders the full catalog for inclusion in a system prompt.
// Parameter schemas are rendered as indented YAML, which reads better for
// models than nested JSON.
func (r *Registry) CatalogPrompt() string {
	if len(r.order) == 0 {
		return NoToolsSentinel
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, ts := range r.Catalog() {
		fmt.Fprintf(&sb, "\n- %s: %s\n", ts.Name, ts.Description)
		schemaYAML, err := yaml.Marshal(ts.Parameters)
		if err != nil {
			continue
		}
		sb.WriteString("  Parameters:\n")
		for _, line := range strings.Split(string(schemaYAML), "\n") {
			if line != "" {
				sb.WriteString("    ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// ResolveArgs normalizes raw model-supplied arguments into a mapping that
// matches the named tool's declared parameters.
//
// Accepted raw forms:
//   - map[string]any (the JSON-object convention)
//   - a JSON object string
//   - a "key=value,key2=value2" string (the bracket convention)
//   - a single positional string, when the tool declares exactly one parameter
//
// Unknown extra keys are silently dropped: models routinely hallucinate fields
// like "confidence" or "reasoning", and dropping maximizes robustness.
// Missing required parameters, empty required strings, and uncoercible values
// are reported as errors wrapping [ErrMissingParameter], [ErrEmptyParameter],
// or [ErrWrongType].
func (r *Registry) ResolveArgs(name string, raw any) (map[string]any, error) {
	tool, ok := r.tools[name]
	if !ok {
		if _, isBare := r.functions[name]; isBare {
			return resolveBareArgs(raw)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	params := tool.Parameters()
	supplied, err := normalizeRaw(raw, params)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(params))
	for _, p := range params {
		value, present := supplied[p.Name]
		if !present {
			if p.Default != nil {
				resolved[p.Name] = p.Default
				continue
			}
			if p.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingParameter, p.Name)
			}
			continue
		}

		coerced, err := coerceValue(value, p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrWrongType, p.Name, err)
		}
		if p.Required && p.Type == ParamString {
			if s, _ := coerced.(string); strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("%w: %s", ErrEmptyParameter, p.Name)
			}
		}
		resolved[p.Name] = coerced
	}

	if compiled := r.compiled[name]; compiled != nil {
		if err := compiled.Validate(jsonShape(resolved)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
	}
	return resolved, nil
}

// jsonShape rewrites coerced values into the forms a JSON decoder would
// produce, which is what the schema validator expects.
func jsonShape(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		case float32:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}

// Execute composes ResolveArgs with dispatch. It never returns an error:
// unknown tools, validation failures, tool errors, and tool panics all come
// back as descriptive result strings the loop can feed to the model as an
// observation.
func (r *Registry) Execute(ctx context.Context, name string, raw any) string {
	if f, ok := r.functions[name]; ok {
		args, err := resolveBareArgs(raw)
		if err != nil {
			return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
		}
		return r.dispatch(ctx, name, args, func(ctx context.Context) (string, error) {
			input, _ := args["input"].(string)
			return f.fn(ctx, input)
		})
	}

	if _, ok := r.tools[name]; !ok {
		return fmt.Sprintf("Error: %q is not an available tool. %s", name, r.DescribeAll())
	}

	args, err := r.ResolveArgs(name, raw)
	if err != nil {
		return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
	}
	return r.dispatch(ctx, name, args, func(ctx context.Context) (string, error) {
		return r.tools[name].Run(ctx, args)
	})
}

// dispatch runs a tool body with hook firing and panic containment.
func (r *Registry) dispatch(
	ctx context.Context,
	name string,
	args map[string]any,
	run func(ctx context.Context) (string, error),
) (result string) {
	r.hooks.FireBeforeToolCall(ctx, BeforeToolCallEvent{Tool: name, Args: args})

	start := time.Now()
	var runErr error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				runErr = fmt.Errorf("tool panicked: %v", rec)
			}
		}()
		result, runErr = run(ctx)
	}()
	duration := time.Since(start)

	if runErr != nil {
		result = fmt.Sprintf("Error: tool %s failed: %v", name, runErr)
	}
	r.hooks.FireAfterToolCall(ctx, AfterToolCallEvent{
		Tool:     name,
		Args:     args,
		Result:   result,
		Duration: duration,
		Err:      runErr,
	})
	return result
}

// resolveBareArgs normalizes raw args for a bare function into an
// {input: string} mapping.
func resolveBareArgs(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{"input": ""}, nil
	case string:
		return map[string]any{"input": v}, nil
	case map[string]any:
		if input, ok := v["input"]; ok {
			return map[string]any{"input": fmt.Sprint(input)}, nil
		}
		if len(v) == 1 {
			for _, value := range v {
				return map[string]any{"input": fmt.Sprint(value)}, nil
			}
		}
		return nil, fmt.Errorf("%w: bare function takes a single input string", ErrInvalidArgs)
	default:
		return nil, fmt.Errorf("%w: unsupported argument form %T", ErrInvalidArgs, raw)
	}
}

// normalizeRaw converts any accepted raw argument form into a plain mapping.
func normalizeRaw(raw any, params []Parameter) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		return normalizeRawString(v, params)
	default:
		return nil, fmt.Errorf("%w: unsupported argument form %T", ErrInvalidArgs, raw)
	}
}

// normalizeRawString handles the three textual argument conventions: a JSON
// object, "key=value" pairs, or a single positional value.
func normalizeRawString(s string, params []Parameter) (map[string]any, error) {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON object: %v", ErrInvalidArgs, err)
		}
		return m, nil
	}

	if pairs, ok := parseKeyValuePairs(trimmed); ok {
		return pairs, nil
	}

	// Positional form: only unambiguous when the contract has exactly one
	// parameter. A value containing both '=' and ',' (e.g. "expression=1,2")
	// falls through pair-parsing above, so strip a leading "name=" naming the
	// sole parameter rather than binding it into the value.
	if len(params) == 1 {
		value := trimmed
		if rest, ok := strings.CutPrefix(trimmed, params[0].Name+"="); ok {
			value = strings.TrimSpace(rest)
		}
		return map[string]any{params[0].Name: value}, nil
	}
	return nil, fmt.Errorf(
		"%w: cannot bind positional value to a tool with %d parameters",
		ErrInvalidArgs, len(params),
	)
}

// parseKeyValuePairs parses "key=value,key2=value2". It reports false when the
// text does not follow the convention (so a positional value containing no
// '=' falls through).
func parseKeyValuePairs(s string) (map[string]any, bool) {
	if !strings.Contains(s, "=") {
		return nil, false
	}
	out := make(map[string]any)
	for _, part := range strings.Split(s, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return nil, false
		}
		key = strings.TrimSpace(key)
		if !isIdentifier(key) {
			// Not a bare identifier; treat the whole text as positional.
			return nil, false
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, true
}

// isIdentifier reports whether s looks like a parameter name: a letter or
// underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// coerceValue converts a supplied value to the declared parameter type.
// String inputs are parsed (the bracket convention supplies everything as
// text); JSON numbers arrive as float64 and are narrowed for integer
// parameters only when integral.
func coerceValue(value any, typ ParamType) (any, error) {
	switch typ {
	case ParamString:
		switch v := value.(type) {
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("expected string, got %T", value)
		}
	case ParamInteger:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
	case ParamNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
	case ParamBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected boolean, got %q", v)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
	default:
		// Undeclared types pass through untouched.
		return value, nil
	}
}

// paramsToSchema builds the JSON Schema object shape from an ordered parameter
// declaration.
func paramsToSchema(params []Parameter) map[string]any {
	properties := make(map[string]*schema.Property, len(params))
	var required []string
	for _, p := range params {
		var prop *schema.Property
		switch p.Type {
		case ParamInteger:
			prop = schema.Integer(p.Description)
		case ParamNumber:
			prop = schema.Number(p.Description)
		case ParamBoolean:
			prop = schema.Boolean(p.Description)
		default:
			prop = schema.String(p.Description)
		}
		if p.Default != nil {
			prop.Default(p.Default)
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return schema.Object(properties, required...)
}
