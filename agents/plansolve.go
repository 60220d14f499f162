package agents

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/reagentlabs/reagent"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// PlanAndSolve decomposes a task into an ordered list of sub-tasks with one
// planning call, then solves each sub-task strictly in order. The last
// sub-task's output is the answer. No tools, no branching, no re-planning.
//
// A plan that cannot be parsed, or any failed step, yields a fixed fallback
// answer; like ReAct, Run never returns empty text and always records the
// exchange in History.
type PlanAndSolve struct {
	model        reagent.Model
	history      *reagent.History
	hooks        *reagent.HookRegistry
	modelTimeout time.Duration
	planTmpl     *template.Template
	solveTmpl    *template.Template

	plan []string
}

// NewPlanAndSolve creates the paradigm with a fresh history.
func NewPlanAndSolve(model reagent.Model) *PlanAndSolve {
	return &PlanAndSolve{
		model:     model,
		history:   reagent.NewHistory(),
		planTmpl:  planTemplate,
		solveTmpl: solveTemplate,
	}
}

// WithHistory sets the conversation history.
func (a *PlanAndSolve) WithHistory(h *reagent.History) *PlanAndSolve {
	a.history = h
	return a
}

// WithHooks sets the hook registry fired around model calls and steps.
func (a *PlanAndSolve) WithHooks(h *reagent.HookRegistry) *PlanAndSolve {
	a.hooks = h
	return a
}

// WithModelTimeout bounds each individual model call.
func (a *PlanAndSolve) WithModelTimeout(d time.Duration) *PlanAndSolve {
	a.modelTimeout = d
	return a
}

// History returns the durable conversation history.
func (a *PlanAndSolve) History() *reagent.History {
	return a.history
}

// Plan returns the sub-task list of the most recent run.
func (a *PlanAndSolve) Plan() []string {
	out := make([]string, len(a.plan))
	copy(out, a.plan)
	return out
}

// Run plans and then executes each sub-task in order.
func (a *PlanAndSolve) Run(ctx context.Context, input string) string {
	a.plan = nil
	answer := a.run(ctx, input)
	a.history.Append(reagent.RoleUser, input)
	a.history.Append(reagent.RoleAssistant, answer)
	return answer
}

func (a *PlanAndSolve) run(ctx context.Context, input string) string {
	planPrompt, err := executeTemplate(a.planTmpl, planPromptData{Question: input})
	if err != nil {
		return FallbackNoPlan
	}

	planText, err := a.callModel(ctx, 0, planPrompt)
	if err != nil || strings.TrimSpace(planText) == "" {
		return FallbackNoPlan
	}

	plan, ok := parsePlan(planText)
	if !ok {
		return FallbackNoPlan
	}
	a.plan = plan

	var results []string
	for i, subTask := range plan {
		prompt, err := executeTemplate(a.solveTmpl, solvePromptData{
			Question:     input,
			Plan:         plan,
			PriorResults: strings.Join(results, "\n\n"),
			SubTask:      subTask,
		})
		if err != nil {
			return FallbackModelError
		}

		result, err := a.callModel(ctx, i+1, prompt)
		if err != nil || strings.TrimSpace(result) == "" {
			return FallbackModelError
		}
		results = append(results, result)

		a.hooks.FireStep(ctx, reagent.StepEvent{
			Step:        i,
			Action:      subTask,
			Observation: result,
		})
	}
	return results[len(results)-1]
}

func (a *PlanAndSolve) callModel(ctx context.Context, step int, prompt string) (string, error) {
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
	resp, err := a.model.GenerateContent(ctx, messages)
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

// parsePlan extracts an ordered list of non-empty sub-task strings from the
// planning response. A fenced code block is preferred; bare JSON is accepted.
func parsePlan(output string) ([]string, bool) {
	candidate := output
	if m := fencedJSONRe.FindStringSubmatch(output); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)

	var plan []string
	if err := json.Unmarshal([]byte(candidate), &plan); err != nil {
		return nil, false
	}

	out := plan[:0]
	for _, s := range plan {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
