package agents

import (
	"context"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/reagentlabs/reagent"
)

// DefaultSentinel is the exact substring a critique must contain to stop the
// refinement loop early.
const DefaultSentinel = "No further improvement needed"

// DefaultMaxIterations bounds the critique/refine cycle.
const DefaultMaxIterations = 3

// Reflection generates an initial answer and then iteratively critiques and
// refines it. A critique containing the sentinel substring stops the loop;
// the latest generated answer is the result. No tools are involved.
type Reflection struct {
	model         reagent.Model
	history       *reagent.History
	hooks         *reagent.HookRegistry
	modelTimeout  time.Duration
	sentinel      string
	maxIterations int
	sink          reagent.Sink
	useStreaming  bool
}

// NewReflection creates the paradigm with the default sentinel and iteration
// bound and a fresh history.
func NewReflection(model reagent.Model) *Reflection {
	return &Reflection{
		model:         model,
		history:       reagent.NewHistory(),
		sentinel:      DefaultSentinel,
		maxIterations: DefaultMaxIterations,
	}
}

// WithHistory sets the conversation history.
func (a *Reflection) WithHistory(h *reagent.History) *Reflection {
	a.history = h
	return a
}

// WithHooks sets the hook registry fired around model calls and iterations.
func (a *Reflection) WithHooks(h *reagent.HookRegistry) *Reflection {
	a.hooks = h
	return a
}

// WithSentinel sets the exact substring that marks a critique as "done".
func (a *Reflection) WithSentinel(s string) *Reflection {
	if s != "" {
		a.sentinel = s
	}
	return a
}

// WithMaxIterations sets the critique/refine bound. Values below 1 are
// ignored.
func (a *Reflection) WithMaxIterations(n int) *Reflection {
	if n >= 1 {
		a.maxIterations = n
	}
	return a
}

// WithModelTimeout bounds each individual model call.
func (a *Reflection) WithModelTimeout(d time.Duration) *Reflection {
	a.modelTimeout = d
	return a
}

// WithStreaming forwards answer fragments to sink as they arrive, when the
// model implements StreamingModel. Critique calls are never streamed.
func (a *Reflection) WithStreaming(sink reagent.Sink) *Reflection {
	a.sink = sink
	a.useStreaming = true
	return a
}

// History returns the durable conversation history.
func (a *Reflection) History() *reagent.History {
	return a.history
}

// Run produces an initial answer and refines it up to the iteration bound.
func (a *Reflection) Run(ctx context.Context, input string) string {
	answer := a.run(ctx, input)
	a.history.Append(reagent.RoleUser, input)
	a.history.Append(reagent.RoleAssistant, answer)
	return answer
}

func (a *Reflection) run(ctx context.Context, input string) string {
	answer, err := a.callModel(ctx, 0, input, true)
	if err != nil {
		return FallbackModelError
	}
	if strings.TrimSpace(answer) == "" {
		return FallbackNoResponse
	}

	for i := 0; i < a.maxIterations; i++ {
		critiquePrompt, err := executeTemplate(critiqueTemplate, critiquePromptData{
			Question: input,
			Answer:   answer,
			Sentinel: a.sentinel,
		})
		if err != nil {
			break
		}
		critique, err := a.callModel(ctx, i, critiquePrompt, false)
		if err != nil || strings.TrimSpace(critique) == "" {
			// A failed critique call cannot improve the answer; keep what
			// we have.
			break
		}
		if strings.Contains(critique, a.sentinel) {
			break
		}

		a.hooks.FireStep(ctx, reagent.StepEvent{
			Step:        i,
			Thought:     critique,
			Action:      "refine",
			Observation: answer,
		})

		refinePrompt, err := executeTemplate(refineTemplate, refinePromptData{
			Question: input,
			Answer:   answer,
			Critique: critique,
		})
		if err != nil {
			break
		}
		refined, err := a.callModel(ctx, i, refinePrompt, true)
		if err != nil || strings.TrimSpace(refined) == "" {
			break
		}
		answer = refined
	}
	return answer
}

func (a *Reflection) callModel(
	ctx context.Context,
	step int,
	prompt string,
	streamable bool,
) (string, error) {
	if a.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.modelTimeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	a.hooks.FireBeforeModelCall(ctx, reagent.BeforeModelCallEvent{
		Step:     step,
		Messages: messages,
	})

	start := time.Now()
	resp, err := a.generate(ctx, messages, streamable)
	a.hooks.FireAfterModelCall(ctx, reagent.AfterModelCallEvent{
		Step:     step,
		Response: resp,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return "", err
	}
	return resp.FirstContent(), nil
}

func (a *Reflection) generate(
	ctx context.Context,
	messages []llms.MessageContent,
	streamable bool,
) (*reagent.ContentResponse, error) {
	if a.useStreaming && streamable {
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
