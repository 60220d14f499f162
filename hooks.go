package reagent

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// -----------------------------------------------------------------------------
// Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe an agent run at its suspension points. To use hooks:
//
//  1. Implement the desired hook interface(s)
//  2. Register with a HookRegistry
//  3. Attach the registry to the agent (and, for tool hooks, the Registry)
//
// Hooks are called in registration order. For paired hooks (Before/After), the
// After hook is always called if the Before hook was called, even on error.
// Hooks must not return errors; they are observers, not interceptors.

// BeforeModelCallHook is called immediately before each model invocation.
type BeforeModelCallHook interface {
	OnBeforeModelCall(ctx context.Context, event BeforeModelCallEvent)
}

// AfterModelCallHook is called after each model invocation, successful or not.
type AfterModelCallHook interface {
	OnAfterModelCall(ctx context.Context, event AfterModelCallEvent)
}

// BeforeToolCallHook is called immediately before a tool is dispatched with
// its resolved arguments.
type BeforeToolCallHook interface {
	OnBeforeToolCall(ctx context.Context, event BeforeToolCallEvent)
}

// AfterToolCallHook is called after a tool call completes, including when it
// failed or panicked (Err is set and Result carries the error string fed back
// to the model).
type AfterToolCallHook interface {
	OnAfterToolCall(ctx context.Context, event AfterToolCallEvent)
}

// StepHook is called after each completed loop step with the plain-text
// thought, action, and observation for that step. This is the presentation
// surface: line-oriented UIs subscribe here.
type StepHook interface {
	OnStep(ctx context.Context, event StepEvent)
}

// BeforeModelCallEvent carries the request about to be sent.
type BeforeModelCallEvent struct {
	Step     int
	Messages []llms.MessageContent
}

// AfterModelCallEvent carries the model's response or error.
type AfterModelCallEvent struct {
	Step     int
	Response *ContentResponse
	Duration time.Duration
	Err      error
}

// BeforeToolCallEvent carries the resolved arguments about to be dispatched.
type BeforeToolCallEvent struct {
	Tool string
	Args map[string]any
}

// AfterToolCallEvent carries the tool's result as fed back to the model.
type AfterToolCallEvent struct {
	Tool     string
	Args     map[string]any
	Result   string
	Duration time.Duration
	Err      error
}

// StepEvent carries one completed step's textual trace.
type StepEvent struct {
	Step        int
	Thought     string
	Action      string
	Observation string
}

// HookRegistry holds registered hooks and fires them by interface. A nil
// registry is valid and fires nothing, so components can call Fire methods
// unconditionally.
type HookRegistry struct {
	beforeModel []BeforeModelCallHook
	afterModel  []AfterModelCallHook
	beforeTool  []BeforeToolCallHook
	afterTool   []AfterToolCallHook
	step        []StepHook
}

// NewHookRegistry creates an empty HookRegistry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{}
}

// Register adds a hook implementing any combination of the hook interfaces.
// Returns the registry for chaining.
func (r *HookRegistry) Register(hook any) *HookRegistry {
	if h, ok := hook.(BeforeModelCallHook); ok {
		r.beforeModel = append(r.beforeModel, h)
	}
	if h, ok := hook.(AfterModelCallHook); ok {
		r.afterModel = append(r.afterModel, h)
	}
	if h, ok := hook.(BeforeToolCallHook); ok {
		r.beforeTool = append(r.beforeTool, h)
	}
	if h, ok := hook.(AfterToolCallHook); ok {
		r.afterTool = append(r.afterTool, h)
	}
	if h, ok := hook.(StepHook); ok {
		r.step = append(r.step, h)
	}
	return r
}

// FireBeforeModelCall notifies all BeforeModelCallHook hooks.
func (r *HookRegistry) FireBeforeModelCall(ctx context.Context, event BeforeModelCallEvent) {
	if r == nil {
		return
	}
	for _, h := range r.beforeModel {
		h.OnBeforeModelCall(ctx, event)
	}
}

// FireAfterModelCall notifies all AfterModelCallHook hooks.
func (r *HookRegistry) FireAfterModelCall(ctx context.Context, event AfterModelCallEvent) {
	if r == nil {
		return
	}
	for _, h := range r.afterModel {
		h.OnAfterModelCall(ctx, event)
	}
}

// FireBeforeToolCall notifies all BeforeToolCallHook hooks.
func (r *HookRegistry) FireBeforeToolCall(ctx context.Context, event BeforeToolCallEvent) {
	if r == nil {
		return
	}
	for _, h := range r.beforeTool {
		h.OnBeforeToolCall(ctx, event)
	}
}

// FireAfterToolCall notifies all AfterToolCallHook hooks.
func (r *HookRegistry) FireAfterToolCall(ctx context.Context, event AfterToolCallEvent) {
	if r == nil {
		return
	}
	for _, h := range r.afterTool {
		h.OnAfterToolCall(ctx, event)
	}
}

// FireStep notifies all StepHook hooks.
func (r *HookRegistry) FireStep(ctx context.Context, event StepEvent) {
	if r == nil {
		return
	}
	for _, h := range r.step {
		h.OnStep(ctx, event)
	}
}
