package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/reagentlabs/reagent"
	"github.com/reagentlabs/reagent/grammar"
)

// mockModel returns scripted responses in order. Once the script runs out it
// repeats the last response.
type mockModel struct {
	responses []string
	err       error
	calls     int
	requests  [][]llms.MessageContent
}

func (m *mockModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*reagent.ContentResponse, error) {
	m.calls++
	m.requests = append(m.requests, messages)
	if m.err != nil {
		return nil, m.err
	}

	i := m.calls - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return &reagent.ContentResponse{
		Choices: []*reagent.ContentChoice{{Content: m.responses[i]}},
	}, nil
}

func calcRegistry(t *testing.T) *reagent.Registry {
	t.Helper()
	r := reagent.NewRegistry()
	r.Register(reagent.NewToolFunc(
		"calculator",
		"Evaluates an arithmetic expression",
		[]reagent.Parameter{
			{Name: "expression", Type: reagent.ParamString, Description: "Expression to evaluate", Required: true},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if args["expression"] == "5+5" {
				return "10", nil
			}
			return "0", nil
		},
	))
	return r
}

func TestReActToolCallThenFinish(t *testing.T) {
	model := &mockModel{responses: []string{
		"Thought: I should compute this.\nAction: {\"tool\":\"calculator\",\"parameters\":{\"expression\":\"5+5\"}}",
		"Thought: I have the result.\nAction: Finish[10]",
	}}
	agent := NewReAct(model).
		WithRegistry(calcRegistry(t)).
		WithGrammar(grammar.NewJSON())

	answer := agent.Run(context.Background(), "What is 5+5?")

	assert.Equal(t, "10", answer)
	assert.Equal(t, 2, model.calls)
	assert.Equal(t, StateFinished, agent.State())

	traj := agent.Trajectory()
	require.Len(t, traj, 2)
	assert.Equal(t, EntryAction, traj[0].Kind)
	assert.Equal(t, EntryObservation, traj[1].Kind)
	assert.Equal(t, "10", traj[1].Text)
}

func TestReActImmediateFinish(t *testing.T) {
	model := &mockModel{responses: []string{
		"Thought: I already know this.\nAction: Finish[Paris]",
	}}
	agent := NewReAct(model)

	answer := agent.Run(context.Background(), "Capital of France?")

	assert.Equal(t, "Paris", answer)
	assert.Equal(t, 1, model.calls)
	assert.Empty(t, agent.Trajectory())
}

func TestReActUnparseableAborts(t *testing.T) {
	model := &mockModel{responses: []string{
		"Thought: hmm\nAction: NotARealFormat",
	}}
	agent := NewReAct(model)

	answer := agent.Run(context.Background(), "question")

	assert.Equal(t, FallbackUnparseable, answer)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, StateAborted, agent.State())
}

func TestReActUnknownToolContinues(t *testing.T) {
	model := &mockModel{responses: []string{
		"Thought: check the weather\nAction: weather[Guangzhou]",
		"Thought: no such tool, answering directly\nAction: Finish[sunny, probably]",
	}}
	agent := NewReAct(model).WithRegistry(calcRegistry(t))

	answer := agent.Run(context.Background(), "weather tomorrow?")

	assert.Equal(t, "sunny, probably", answer)
	assert.Equal(t, 2, model.calls)

	traj := agent.Trajectory()
	require.Len(t, traj, 2)
	assert.Contains(t, traj[1].Text, "not an available tool")
}

func TestReActStepBudgetExhaustion(t *testing.T) {
	const k = 4
	model := &mockModel{responses: []string{
		"Thought: keep going\nAction: calculator[expression=1+1]",
	}}
	agent := NewReAct(model).
		WithRegistry(calcRegistry(t)).
		WithMaxSteps(k)

	answer := agent.Run(context.Background(), "loop forever")

	assert.Equal(t, FallbackBudget, answer)
	assert.Equal(t, k, model.calls)
	assert.Len(t, agent.Trajectory(), 2*k)
	assert.Equal(t, StateAborted, agent.State())
}

func TestReActEmptyResponseAborts(t *testing.T) {
	model := &mockModel{responses: []string{"   \n"}}
	agent := NewReAct(model)

	answer := agent.Run(context.Background(), "question")

	assert.Equal(t, FallbackNoResponse, answer)
	assert.Equal(t, StateAborted, agent.State())
}

func TestReActModelErrorAborts(t *testing.T) {
	model := &mockModel{err: errors.New("connection refused")}
	agent := NewReAct(model)

	answer := agent.Run(context.Background(), "question")

	assert.Equal(t, FallbackModelError, answer)
	assert.Equal(t, StateAborted, agent.State())
}

func TestReActRecordsHistoryOnEveryOutcome(t *testing.T) {
	tests := []struct {
		name      string
		responses []string
		err       error
		want      string
	}{
		{
			name:      "finished",
			responses: []string{"Action: Finish[done]"},
			want:      "done",
		},
		{
			name:      "aborted",
			responses: []string{"gibberish"},
			want:      FallbackUnparseable,
		},
		{
			name: "model failure",
			err:  errors.New("boom"),
			want: FallbackModelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := NewReAct(&mockModel{responses: tt.responses, err: tt.err})
			agent.Run(context.Background(), "the question")

			msgs := agent.History().Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, reagent.RoleUser, msgs[0].Role)
			assert.Equal(t, "the question", msgs[0].Content)
			assert.Equal(t, reagent.RoleAssistant, msgs[1].Role)
			assert.Equal(t, tt.want, msgs[1].Content)
		})
	}
}

func TestReActTrajectoryResetBetweenRuns(t *testing.T) {
	model := &mockModel{responses: []string{
		"Action: calculator[expression=1+1]",
		"Action: Finish[2]",
	}}
	agent := NewReAct(model).WithRegistry(calcRegistry(t))

	agent.Run(context.Background(), "first")
	require.Len(t, agent.Trajectory(), 2)

	model.responses = []string{"Action: Finish[fresh]"}
	model.calls = 0
	agent.Run(context.Background(), "second")
	assert.Empty(t, agent.Trajectory())
	assert.Equal(t, 4, agent.History().Len())
}

func TestReActPromptCarriesCatalogAndTrajectory(t *testing.T) {
	model := &mockModel{responses: []string{
		"Thought: compute\nAction: calculator[expression=5+5]",
		"Action: Finish[10]",
	}}
	agent := NewReAct(model).
		WithRegistry(calcRegistry(t)).
		WithSystemPrompt("Answer tersely.")

	agent.Run(context.Background(), "What is 5+5?")

	require.Len(t, model.requests, 2)

	first := model.requests[0]
	require.NotEmpty(t, first)
	system := textOf(t, first[0])
	assert.Contains(t, system, "calculator")
	assert.Contains(t, system, "Answer tersely.")
	assert.Contains(t, system, "Finish[")

	// Second call replays the action and its observation in order.
	second := model.requests[1]
	require.Len(t, second, 4)
	assert.Equal(t, llms.ChatMessageTypeAI, second[2].Role)
	assert.Contains(t, textOf(t, second[2]), "calculator[expression=5+5]")
	assert.Equal(t, llms.ChatMessageTypeHuman, second[3].Role)
	assert.Contains(t, textOf(t, second[3]), "Observation: 10")
}

func TestReActFiresStepHooks(t *testing.T) {
	var events []reagent.StepEvent
	hooks := reagent.NewHookRegistry().Register(stepRecorder{&events})

	model := &mockModel{responses: []string{
		"Thought: compute\nAction: calculator[expression=5+5]",
		"Action: Finish[10]",
	}}
	agent := NewReAct(model).
		WithRegistry(calcRegistry(t)).
		WithHooks(hooks)

	agent.Run(context.Background(), "What is 5+5?")

	require.Len(t, events, 2)
	assert.Equal(t, "compute", events[0].Thought)
	assert.Equal(t, "10", events[0].Observation)
	assert.Equal(t, "Finish[10]", events[1].Action)
}

type stepRecorder struct {
	events *[]reagent.StepEvent
}

func (r stepRecorder) OnStep(_ context.Context, event reagent.StepEvent) {
	*r.events = append(*r.events, event)
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	var sb strings.Builder
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
