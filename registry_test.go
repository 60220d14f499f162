package reagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *ToolFunc {
	return NewToolFunc(
		name,
		"Echoes the expression back",
		[]Parameter{
			{Name: "expression", Type: ParamString, Description: "Text to echo", Required: true},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("echo: %v", args["expression"]), nil
		},
	)
}

func TestRegistryDescribeAll(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, NoToolsSentinel, r.DescribeAll())

	r.Register(echoTool("calculator"))
	r.RegisterFunc("time_now", "Returns the current time", func(ctx context.Context, input string) (string, error) {
		return "noon", nil
	})

	desc := r.DescribeAll()
	lines := strings.Split(desc, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "- calculator: Echoes the expression back", lines[0])
	assert.Equal(t, "- time_now: Returns the current time", lines[1])
}

func TestRegistrySentinelOnlyWhenEmpty(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("noop", "", func(ctx context.Context, input string) (string, error) {
		return "", nil
	})
	assert.NotEqual(t, NoToolsSentinel, r.DescribeAll())
	// Every catalog line starts with "- ", so the sentinel can never be
	// mistaken for a registered tool.
	assert.True(t, strings.HasPrefix(r.DescribeAll(), "- "))

	r.Unregister("noop")
	assert.Equal(t, NoToolsSentinel, r.DescribeAll())
}

func TestRegistryReplaceIsLastWriteWins(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := NewRegistry().WithLogger(logger)
	r.Register(echoTool("calculator"))
	r.Register(NewToolFunc("calculator", "Second registration", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			return "v2", nil
		}))

	assert.Equal(t, 1, r.Len())
	assert.Contains(t, r.DescribeAll(), "Second registration")
	assert.Contains(t, buf.String(), "replacing previously registered tool")

	out := r.Execute(context.Background(), "calculator", nil)
	assert.Equal(t, "v2", out)
}

func TestRegistryCatalogShapes(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))
	r.RegisterFunc("time_now", "Returns the current time", func(ctx context.Context, input string) (string, error) {
		return "noon", nil
	})

	catalog := r.Catalog()
	require.Len(t, catalog, 2)

	calc := catalog[0]
	assert.Equal(t, "object", calc.Parameters["type"])
	props := calc.Parameters["properties"].(map[string]any)
	assert.Contains(t, props, "expression")
	assert.Equal(t, []string{"expression"}, calc.Parameters["required"])

	// Bare functions synthesize a single string "input" parameter.
	bare := catalog[1]
	bareProps := bare.Parameters["properties"].(map[string]any)
	assert.Contains(t, bareProps, "input")
}

func TestRegistryCatalogPromptRendersYAML(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	prompt := r.CatalogPrompt()
	assert.Contains(t, prompt, "- calculator: Echoes the expression back")
	assert.Contains(t, prompt, "type: object")
	assert.Contains(t, prompt, "expression")
}

func TestResolveArgsDropsUnknownKeys(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	// Models routinely hallucinate extra fields; they must vanish no matter
	// how many there are.
	for n := 0; n <= 5; n++ {
		raw := map[string]any{"expression": "5+5"}
		for i := 0; i < n; i++ {
			raw[fmt.Sprintf("extra_%d", i)] = i
		}
		resolved, err := r.ResolveArgs("calculator", raw)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, map[string]any{"expression": "5+5"}, resolved, "n=%d", n)
	}
}

func TestResolveArgsMissingAndEmptyRequired(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	_, err := r.ResolveArgs("calculator", map[string]any{})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = r.ResolveArgs("calculator", map[string]any{"expression": "   "})
	assert.ErrorIs(t, err, ErrEmptyParameter)
}

func TestResolveArgsAcceptedForms(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	tests := []struct {
		name string
		raw  any
	}{
		{"mapping", map[string]any{"expression": "5+5"}},
		{"json text", `{"expression": "5+5"}`},
		{"key=value", "expression=5+5"},
		{"positional", "5+5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := r.ResolveArgs("calculator", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "5+5", resolved["expression"])
		})
	}
}

func TestResolveArgsPositionalWithEqualsSign(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	// "2=2" is not a key=value pair; the whole text binds positionally.
	resolved, err := r.ResolveArgs("calculator", "2=2")
	require.NoError(t, err)
	assert.Equal(t, "2=2", resolved["expression"])
}

func TestResolveArgsCommaInSingleParameterValue(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	// A comma in the value defeats key=value parsing; the named prefix must
	// still not leak into the bound value.
	resolved, err := r.ResolveArgs("calculator", "expression=1,2")
	require.NoError(t, err)
	assert.Equal(t, "1,2", resolved["expression"])

	// Same text without the name binds as-is.
	resolved, err = r.ResolveArgs("calculator", "1,2")
	require.NoError(t, err)
	assert.Equal(t, "1,2", resolved["expression"])
}

func TestResolveArgsCoercion(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolFunc("paged", "Fetches a page", []Parameter{
		{Name: "limit", Type: ParamInteger, Required: true},
		{Name: "ratio", Type: ParamNumber},
		{Name: "strict", Type: ParamBoolean},
		{Name: "cursor", Type: ParamString, Default: "start"},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return "ok", nil
	}))

	resolved, err := r.ResolveArgs("paged", map[string]any{
		"limit":  "25",
		"ratio":  "0.5",
		"strict": "true",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, resolved["limit"])
	assert.Equal(t, 0.5, resolved["ratio"])
	assert.Equal(t, true, resolved["strict"])
	assert.Equal(t, "start", resolved["cursor"])

	// JSON numbers arrive as float64; integral ones narrow.
	resolved, err = r.ResolveArgs("paged", map[string]any{"limit": float64(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, resolved["limit"])

	_, err = r.ResolveArgs("paged", map[string]any{"limit": 2.5})
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = r.ResolveArgs("paged", map[string]any{"limit": 1, "strict": "maybe"})
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestResolveArgsUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.ResolveArgs("ghost", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestExecuteUnknownToolListsCatalog(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	out := r.Execute(context.Background(), "weather", map[string]any{"city": "Guangzhou"})
	assert.Contains(t, out, `"weather" is not an available tool`)
	assert.Contains(t, out, "- calculator:")
}

func TestExecuteNeverRaises(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolFunc("failing", "Always errors", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("backend unavailable")
		}))
	r.Register(NewToolFunc("panicking", "Always panics", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		}))

	out := r.Execute(context.Background(), "failing", nil)
	assert.Contains(t, out, "backend unavailable")

	assert.NotPanics(t, func() {
		out = r.Execute(context.Background(), "panicking", nil)
	})
	assert.Contains(t, out, "tool panicked")
	assert.Contains(t, out, "boom")
}

func TestExecuteInvalidArgsIsObservation(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("calculator"))

	out := r.Execute(context.Background(), "calculator", map[string]any{})
	assert.Contains(t, out, "invalid arguments for calculator")
}

func TestExecuteBareFunction(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("shout", "Uppercases the input", func(ctx context.Context, input string) (string, error) {
		return strings.ToUpper(input), nil
	})

	assert.Equal(t, "HELLO", r.Execute(context.Background(), "shout", "hello"))
	assert.Equal(t, "HELLO", r.Execute(context.Background(), "shout", map[string]any{"input": "hello"}))
	// A single-key mapping with any name binds to the input.
	assert.Equal(t, "HELLO", r.Execute(context.Background(), "shout", map[string]any{"text": "hello"}))
}

func TestExecuteFiresToolHooks(t *testing.T) {
	var before []BeforeToolCallEvent
	var after []AfterToolCallEvent
	hooks := NewHookRegistry().Register(toolRecorder{&before, &after})

	r := NewRegistry().WithHooks(hooks)
	r.Register(echoTool("calculator"))

	r.Execute(context.Background(), "calculator", map[string]any{"expression": "5+5"})

	require.Len(t, before, 1)
	assert.Equal(t, "calculator", before[0].Tool)
	require.Len(t, after, 1)
	assert.Equal(t, "echo: 5+5", after[0].Result)
	assert.NoError(t, after[0].Err)
}

type toolRecorder struct {
	before *[]BeforeToolCallEvent
	after  *[]AfterToolCallEvent
}

func (r toolRecorder) OnBeforeToolCall(_ context.Context, e BeforeToolCallEvent) {
	*r.before = append(*r.before, e)
}

func (r toolRecorder) OnAfterToolCall(_ context.Context, e AfterToolCallEvent) {
	*r.after = append(*r.after, e)
}

func TestUnregisterAbsentIsNoticeNotError(t *testing.T) {
	var buf strings.Builder
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	assert.NotPanics(t, func() { r.Unregister("ghost") })
	assert.Contains(t, buf.String(), "unregister of unknown tool")
}
