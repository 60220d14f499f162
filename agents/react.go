// Package agents implements the reasoning paradigms: the tool-calling ReAct
// loop, Plan-and-Solve decomposition, and Reflection self-critique. Each
// paradigm wraps a Model, keeps a durable History of inputs and final
// answers, and always returns a non-empty string from Run.
package agents

import (
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/reagentlabs/reagent"
	"github.com/reagentlabs/reagent/grammar"
)

// State is the run state of an agent loop.
type State int

const (
	StateRunning State = iota
	StateFinished
	StateAborted
)

// EntryKind distinguishes trajectory entries.
type EntryKind int

const (
	EntryAction EntryKind = iota
	EntryObservation
)

// Entry is one trajectory record. Action entries carry the raw action clause
// plus the thought that preceded it; observation entries carry the tool
// result text.
type Entry struct {
	Kind    EntryKind
	Text    string
	Thought string
}

// Fallback answers returned when a run cannot produce a real one. They are
// fixed strings so callers and tests can distinguish the failure modes.
const (
	FallbackNoResponse  = "I'm sorry, I could not answer: the model produced no response."
	FallbackUnparseable = "I'm sorry, I could not answer: the model's reply did not follow the action format."
	FallbackModelError  = "I'm sorry, I could not answer: the model call failed."
	FallbackBudget      = "I'm sorry, I could not finish within the allowed number of steps."
	FallbackNoPlan      = "I'm sorry, I could not answer: planning did not produce a usable plan."
)

// DefaultMaxSteps bounds a ReAct run when the caller does not set a budget.
const DefaultMaxSteps = 8

// ReAct is the primary agent loop. Each step renders a prompt from the tool
// catalog, the grammar's guidance, the question, and the trajectory so far,
// makes exactly one model call, and either dispatches a tool or terminates.
//
//	agent := agents.NewReAct(model).
//	    WithRegistry(registry).
//	    WithGrammar(grammar.NewJSON()).
//	    WithMaxSteps(8)
//	answer := agent.Run(ctx, "How old was Euler when he died?")
//
// A single malformed turn aborts the run rather than retrying, which keeps
// the step budget a real cost bound. An aborted run still returns one of the
// fixed fallback answers and still records the exchange in History.
//
// A ReAct instance serves one run at a time; drive concurrent runs from
// separate instances sharing the same Registry.
type ReAct struct {
	model          reagent.Model
	registry       *reagent.Registry
	grammar        reagent.Grammar
	history        *reagent.History
	hooks          *reagent.HookRegistry
	systemTemplate *template.Template
	systemPrompt   string
	maxSteps       int
	modelTimeout   time.Duration
	toolTimeout    time.Duration
	sink           reagent.Sink
	useStreaming   bool

	state      State
	trajectory []Entry
}

// NewReAct creates a ReAct loop with the bracket grammar, an empty registry,
// a fresh history, and DefaultMaxSteps.
func NewReAct(model reagent.Model) *ReAct {
	return &ReAct{
		model:          model,
		registry:       reagent.NewRegistry(),
		grammar:        grammar.NewBracket(),
		history:        reagent.NewHistory(),
		systemTemplate: DefaultReActSystemTemplate,
		maxSteps:       DefaultMaxSteps,
	}
}

// WithRegistry sets the tool registry.
func (a *ReAct) WithRegistry(r *reagent.Registry) *ReAct {
	a.registry = r
	return a
}

// WithGrammar sets the action grammar. The grammar is fixed per agent; it is
// never auto-detected from model output.
func (a *ReAct) WithGrammar(g reagent.Grammar) *ReAct {
	a.grammar = g
	return a
}

// WithHistory sets the conversation history. By default each agent owns a
// fresh one.
func (a *ReAct) WithHistory(h *reagent.History) *ReAct {
	a.history = h
	return a
}

// WithHooks sets the hook registry fired around model calls and steps.
func (a *ReAct) WithHooks(h *reagent.HookRegistry) *ReAct {
	a.hooks = h
	return a
}

// WithMaxSteps sets the step budget. Values below 1 are ignored.
func (a *ReAct) WithMaxSteps(n int) *ReAct {
	if n >= 1 {
		a.maxSteps = n
	}
	return a
}

// WithSystemPrompt adds caller context to the default system prompt. It does
// not replace the ReAct instructions; use WithSystemTemplate for that.
func (a *ReAct) WithSystemPrompt(prompt string) *ReAct {
	a.systemPrompt = prompt
	return a
}

// WithSystemTemplate replaces the system prompt template. The template
// receives ReActPromptData.
func (a *ReAct) WithSystemTemplate(tmpl *template.Template) *ReAct {
	a.systemTemplate = tmpl
	return a
}

// WithModelTimeout bounds each individual model call. A timeout aborts the
// run the same way any model failure does.
func (a *ReAct) WithModelTimeout(d time.Duration) *ReAct {
	a.modelTimeout = d
	return a
}

// WithToolTimeout bounds each individual tool dispatch. A timeout becomes an
// error observation and the run continues.
func (a *ReAct) WithToolTimeout(d time.Duration) *ReAct {
	a.toolTimeout = d
	return a
}

// WithStreaming forwards model output fragments to sink as they arrive, when
// the model implements StreamingModel. The run semantics are unchanged; the
// accumulated text is what gets parsed.
func (a *ReAct) WithStreaming(sink reagent.Sink) *ReAct {
	a.sink = sink
	a.useStreaming = true
	return a
}

// History returns the durable conversation history.
func (a *ReAct) History() *reagent.History {
	return a.history
}

// State returns the terminal state of the most recent run.
func (a *ReAct) State() State {
	return a.state
}

// Trajectory returns the Action/Observation entries of the most recent run.
func (a *ReAct) Trajectory() []Entry {
	out := make([]Entry, len(a.trajectory))
	copy(out, a.trajectory)
	return out
}

// Run executes the loop for one input. It always returns non-empty text, the
// final answer or a fixed fallback, and always appends the exchange to
// History.
func (a *ReAct) Run(ctx context.Context, input string) string {
	a.trajectory = a.trajectory[:0]
	a.state = StateRunning

	answer := a.run(ctx, input)

	a.history.Append(reagent.RoleUser, input)
	a.history.Append(reagent.RoleAssistant, answer)
	return answer
}

func (a *ReAct) run(ctx context.Context, input string) string {
	step := 0
	for {
		resp, err := a.callModel(ctx, step, a.buildMessages(input))
		if err != nil {
			a.state = StateAborted
			return FallbackModelError
		}

		content := ""
		if resp != nil {
			content = resp.FirstContent()
		}
		if strings.TrimSpace(content) == "" {
			a.state = StateAborted
			return FallbackNoResponse
		}

		act := a.grammar.Parse(content)
		switch act.Kind {
		case reagent.ActionFinish:
			a.state = StateFinished
			a.hooks.FireStep(ctx, reagent.StepEvent{
				Step:    step,
				Thought: act.Thought,
				Action:  act.Clause,
			})
			return act.Answer

		case reagent.ActionToolCall:
			observation := a.dispatch(ctx, act)
			a.trajectory = append(a.trajectory,
				Entry{Kind: EntryAction, Text: act.Clause, Thought: act.Thought},
				Entry{Kind: EntryObservation, Text: observation},
			)
			a.hooks.FireStep(ctx, reagent.StepEvent{
				Step:        step,
				Thought:     act.Thought,
				Action:      act.Clause,
				Observation: observation,
			})
			step++
			if step == a.maxSteps {
				a.state = StateAborted
				return FallbackBudget
			}

		default:
			a.state = StateAborted
			return FallbackUnparseable
		}
	}
}

// dispatch runs one tool call under the tool timeout. The registry already
// converts unknown tools, bad arguments, tool errors, and panics into
// observation strings.
func (a *ReAct) dispatch(ctx context.Context, act *reagent.Action) string {
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}

	var raw any
	if act.Args != nil {
		raw = act.Args
	} else {
		raw = act.RawArgs
	}
	return a.registry.Execute(ctx, act.Tool, raw)
}

func (a *ReAct) callModel(
	ctx context.Context,
	step int,
	messages []llms.MessageContent,
) (*reagent.ContentResponse, error) {
	if a.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.modelTimeout)
		defer cancel()
	}

	a.hooks.FireBeforeModelCall(ctx, reagent.BeforeModelCallEvent{
		Step:     step,
		Messages: messages,
	})

	start := time.Now()
	resp, err := a.generate(ctx, messages)
	a.hooks.FireAfterModelCall(ctx, reagent.AfterModelCallEvent{
		Step:     step,
		Response: resp,
		Duration: time.Since(start),
		Err:      err,
	})
	return resp, err
}

func (a *ReAct) generate(
	ctx context.Context,
	messages []llms.MessageContent,
) (*reagent.ContentResponse, error) {
	if a.useStreaming {
		if sm, ok := a.model.(reagent.StreamingModel); ok {
			stream, err := sm.GenerateContentStream(ctx, messages)
			if err != nil {
				return nil, err
			}
			return reagent.Drain(stream, a.sink)
		}
	}
	return a.model.GenerateContent(ctx, messages)
}

// buildMessages renders the system prompt and re-serializes the trajectory as
// alternating assistant turns and observation messages. Ordering is
// load-bearing: the model reasons from the chronology of prior attempts.
func (a *ReAct) buildMessages(input string) []llms.MessageContent {
	systemContent, err := executeTemplate(a.systemTemplate, ReActPromptData{
		SystemPrompt: a.systemPrompt,
		Catalog:      a.registry.CatalogPrompt(),
		Guidance:     a.grammar.Guidance(),
	})
	if err != nil {
		systemContent = a.grammar.Guidance()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemContent),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}

	for _, entry := range a.trajectory {
		switch entry.Kind {
		case EntryAction:
			text := "Action: " + entry.Text
			if entry.Thought != "" {
				text = "Thought: " + entry.Thought + "\n" + text
			}
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, text))
		case EntryObservation:
			messages = append(messages,
				llms.TextParts(llms.ChatMessageTypeHuman, "Observation: "+entry.Text))
		}
	}
	return messages
}
