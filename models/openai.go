package models

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"

	"github.com/reagentlabs/reagent"
)

// ErrEmptyResponse is returned when the endpoint answers with no choices.
var ErrEmptyResponse = errors.New("models: endpoint returned no choices")

// OpenAICompat speaks the OpenAI chat completion dialect against any
// compatible endpoint. Construct it from a resolved ProviderConfig:
//
//	cfg, err := models.ResolveProvider()
//	if err != nil { ... }
//	model := models.NewOpenAICompat(cfg)
type OpenAICompat struct {
	client *openai.Client
	cfg    ProviderConfig
}

// NewOpenAICompat creates a client for the resolved endpoint.
func NewOpenAICompat(cfg ProviderConfig) *OpenAICompat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAICompat{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Config returns the resolved configuration this client was built from.
func (m *OpenAICompat) Config() ProviderConfig {
	return m.cfg
}

// GenerateContent implements reagent.Model.
func (m *OpenAICompat) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*reagent.ContentResponse, error) {
	req := m.buildRequest(messages, options)

	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	out := &reagent.ContentResponse{
		Choices: make([]*reagent.ContentChoice, len(resp.Choices)),
		Info: &reagent.GenerationInfo{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			Duration:     duration,
		},
	}
	for i, c := range resp.Choices {
		out.Choices[i] = &reagent.ContentChoice{
			Content:          c.Message.Content,
			StopReason:       string(c.FinishReason),
			ReasoningContent: c.Message.ReasoningContent,
		}
	}
	return out, nil
}

// GenerateContentStream implements reagent.StreamingModel.
func (m *OpenAICompat) GenerateContentStream(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*reagent.Stream, error) {
	req := m.buildRequest(messages, options)
	req.Stream = true

	start := time.Now()
	sse, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	stream := reagent.NewStream()
	go func() {
		defer sse.Close()
		var finish string
		for {
			chunk, err := sse.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				stream.Complete(nil, err)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				stream.Send(choice.Delta.Content)
			}
			if choice.FinishReason != "" {
				finish = string(choice.FinishReason)
			}
		}
		stream.Complete(&reagent.ContentResponse{
			Choices: []*reagent.ContentChoice{{
				Content:    stream.Accumulated(),
				StopReason: finish,
			}},
			Info: &reagent.GenerationInfo{Duration: time.Since(start)},
		}, nil)
	}()

	return stream, nil
}

func (m *OpenAICompat) buildRequest(
	messages []llms.MessageContent,
	options []llms.CallOption,
) openai.ChatCompletionRequest {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	model := m.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if opts.Temperature > 0 {
		req.Temperature = float32(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if len(opts.StopWords) > 0 {
		req.Stop = opts.StopWords
	}
	return req
}

// convertMessages flattens message text parts into the wire format. Non-text
// parts are dropped; the agent loops only produce text.
func convertMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var sb strings.Builder
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    roleFor(msg.Role),
			Content: sb.String(),
		})
	}
	return out
}

func roleFor(t llms.ChatMessageType) string {
	switch t {
	case llms.ChatMessageTypeSystem:
		return openai.ChatMessageRoleSystem
	case llms.ChatMessageTypeAI:
		return openai.ChatMessageRoleAssistant
	case llms.ChatMessageTypeTool, llms.ChatMessageTypeFunction:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}

// Compile-time checks that OpenAICompat implements the model interfaces.
var (
	_ reagent.Model          = (*OpenAICompat)(nil)
	_ reagent.StreamingModel = (*OpenAICompat)(nil)
)
