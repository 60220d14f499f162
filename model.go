package reagent

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Model is the model-invocation collaborator consumed by the agent loops. It
// wraps a provider client behind a single blocking call that returns the
// complete generated text for one exchange.
//
// Network, timeout, and auth failures must surface as returned errors; the
// loops translate them into their abort paths, so they never propagate as an
// unhandled crash out of a run.
type Model interface {
	// GenerateContent generates content from a sequence of role-tagged
	// messages.
	GenerateContent(
		ctx context.Context,
		messages []llms.MessageContent,
		options ...llms.CallOption,
	) (*ContentResponse, error)
}

// StreamingModel is the optional incremental variant. The returned stream is a
// finite, non-restartable sequence of text fragments whose concatenation
// equals the non-streaming result.
type StreamingModel interface {
	Model

	GenerateContentStream(
		ctx context.Context,
		messages []llms.MessageContent,
		options ...llms.CallOption,
	) (*Stream, error)
}

// ContentResponse is the response from a GenerateContent call.
type ContentResponse struct {
	// Choices contains the generated content choices.
	Choices []*ContentChoice

	// Info contains generation metadata with normalized token counts.
	Info *GenerationInfo
}

// FirstContent returns the first choice's content, or "" when the model
// produced no choices at all.
func (r *ContentResponse) FirstContent() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Content
}

// ContentChoice is a single content choice from the model.
type ContentChoice struct {
	// Content is the textual content of the response.
	Content string

	// StopReason is the reason the model stopped generating.
	StopReason string

	// ReasoningContent contains reasoning/thinking content if the provider
	// supports it.
	ReasoningContent string
}

// GenerationInfo contains normalized generation metadata. Token counts are
// normalized across providers (OpenAI PromptTokens/CompletionTokens, Anthropic
// InputTokens/OutputTokens, snake_case variants) by the models package.
type GenerationInfo struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int

	// Raw contains the original provider-specific metadata map, for fields
	// the normalized ones do not cover.
	Raw map[string]any

	// Duration is how long the generation took.
	Duration time.Duration
}
