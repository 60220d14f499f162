// Package models provides Model implementations and provider resolution.
//
// Two families are included. LCGWrapper adapts any langchaingo llms.Model,
// which covers the providers that ecosystem already speaks. OpenAICompat
// talks the OpenAI chat completion dialect directly and, combined with
// ResolveProvider, covers the OpenAI-compatible endpoints (DeepSeek,
// SiliconFlow, ModelScope, Ollama) that only differ in base URL and key.
package models

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/reagentlabs/reagent"
)

// LCGWrapper adapts an llms.Model to the reagent Model interface. Token usage
// reported under provider-specific keys is normalized into GenerationInfo.
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	model := models.NewLCGWrapper(llm).WithModelName("gpt-4o")
type LCGWrapper struct {
	model     llms.Model
	modelName string
}

// NewLCGWrapper wraps the given llms.Model.
func NewLCGWrapper(model llms.Model) *LCGWrapper {
	return &LCGWrapper{model: model}
}

// WithModelName sets the name reported in hook events. Returns the wrapper
// for chaining.
func (m *LCGWrapper) WithModelName(name string) *LCGWrapper {
	m.modelName = name
	return m
}

// ModelName returns the configured model name.
func (m *LCGWrapper) ModelName() string {
	return m.modelName
}

// Unwrap returns the underlying llms.Model.
func (m *LCGWrapper) Unwrap() llms.Model {
	return m.model
}

// GenerateContent implements reagent.Model.
func (m *LCGWrapper) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*reagent.ContentResponse, error) {
	start := time.Now()
	resp, err := m.model.GenerateContent(ctx, messages, options...)
	duration := time.Since(start)

	if resp == nil {
		return nil, err
	}
	return convertResponse(resp, duration), err
}

// GenerateContentStream implements reagent.StreamingModel. The returned
// stream buffers without bound, so a slow consumer never blocks generation.
func (m *LCGWrapper) GenerateContentStream(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*reagent.Stream, error) {
	stream := reagent.NewStream()
	start := time.Now()

	opts := make([]llms.CallOption, 0, len(options)+1)
	opts = append(opts, options...)
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if len(chunk) > 0 {
			stream.Send(string(chunk))
		}
		return nil
	}))

	go func() {
		resp, err := m.model.GenerateContent(ctx, messages, opts...)
		duration := time.Since(start)

		var converted *reagent.ContentResponse
		if resp != nil && err == nil {
			converted = convertResponse(resp, duration)
		} else if err == nil {
			// Some providers return nil on streamed calls; fall back to
			// whatever the callback accumulated.
			converted = &reagent.ContentResponse{
				Choices: []*reagent.ContentChoice{{Content: stream.Accumulated()}},
				Info:    &reagent.GenerationInfo{Duration: duration},
			}
		}
		stream.Complete(converted, err)
	}()

	return stream, nil
}

func convertResponse(resp *llms.ContentResponse, duration time.Duration) *reagent.ContentResponse {
	out := &reagent.ContentResponse{
		Choices: make([]*reagent.ContentChoice, len(resp.Choices)),
		Info:    &reagent.GenerationInfo{Duration: duration},
	}
	for i, choice := range resp.Choices {
		out.Choices[i] = &reagent.ContentChoice{
			Content:          choice.Content,
			StopReason:       choice.StopReason,
			ReasoningContent: choice.ReasoningContent,
		}
	}

	if len(resp.Choices) > 0 && resp.Choices[0].GenerationInfo != nil {
		raw := resp.Choices[0].GenerationInfo
		out.Info.Raw = raw
		out.Info.InputTokens = extractInputTokens(raw)
		out.Info.OutputTokens = extractOutputTokens(raw)
		out.Info.TotalTokens = extractTotalTokens(raw, out.Info.InputTokens, out.Info.OutputTokens)
	}
	return out
}

// extractInputTokens reads the prompt token count under whichever key the
// provider used.
func extractInputTokens(info map[string]any) int {
	if v := intFromMap(info, "PromptTokens"); v > 0 {
		return v
	}
	if v := intFromMap(info, "InputTokens"); v > 0 {
		return v
	}
	if v := intFromMap(info, "input_tokens"); v > 0 {
		return v
	}
	return 0
}

func extractOutputTokens(info map[string]any) int {
	if v := intFromMap(info, "CompletionTokens"); v > 0 {
		return v
	}
	if v := intFromMap(info, "OutputTokens"); v > 0 {
		return v
	}
	if v := intFromMap(info, "output_tokens"); v > 0 {
		return v
	}
	return 0
}

func extractTotalTokens(info map[string]any, input, output int) int {
	if v := intFromMap(info, "TotalTokens"); v > 0 {
		return v
	}
	if v := intFromMap(info, "total_tokens"); v > 0 {
		return v
	}
	return input + output
}

func intFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

// Compile-time checks that LCGWrapper implements the model interfaces.
var (
	_ reagent.Model          = (*LCGWrapper)(nil)
	_ reagent.StreamingModel = (*LCGWrapper)(nil)
)
