package agents

import (
	"bytes"
	"text/template"
)

// reactSystemTemplateContent is the default ReAct system prompt. It explains
// the think/act/observe cycle and splices in the tool catalog and the
// grammar's format instructions.
const reactSystemTemplateContent = `You are an AI assistant that solves problems by reasoning step by step and calling tools when needed.

You work in a cycle:
1. Think: analyze what you know and decide what to do next.
2. Act: call exactly one tool, or finish with the final answer.
3. Observe: read the tool's result and continue the cycle.

{{if .SystemPrompt}}{{.SystemPrompt}}

{{end}}## Available Tools

{{.Catalog}}

## Output Format

{{.Guidance}}`

// ReActPromptData is the data available to ReAct system prompt templates.
type ReActPromptData struct {
	// SystemPrompt is additional context supplied by the caller.
	SystemPrompt string

	// Catalog describes the available tools and their parameters.
	Catalog string

	// Guidance is the grammar's format instructions.
	Guidance string
}

// DefaultReActSystemTemplate renders the default ReAct system prompt.
// Replace it via ReAct.WithSystemTemplate for full control over prompting.
var DefaultReActSystemTemplate = template.Must(
	template.New("react_system").Parse(reactSystemTemplateContent),
)

const planTemplateContent = `You are a planning assistant. Decompose the task below into an ordered list of sub-tasks.

Task: {{.Question}}

Respond with ONLY a JSON array of sub-task strings inside a fenced code block:

` + "```json" + `
["first sub-task", "second sub-task"]
` + "```" + `

Keep the plan short. Each sub-task must be solvable with text reasoning alone.`

// planPromptData feeds the Plan-and-Solve planning template.
type planPromptData struct {
	Question string
}

var planTemplate = template.Must(template.New("plan").Parse(planTemplateContent))

const solveTemplateContent = `You are executing one step of a plan.

Original task: {{.Question}}

Full plan:
{{range $i, $s := .Plan}}{{inc $i}}. {{$s}}
{{end}}
{{- if .PriorResults}}
Results so far:
{{.PriorResults}}
{{end}}
Current sub-task: {{.SubTask}}

Solve ONLY the current sub-task. Respond with the result, nothing else.`

type solvePromptData struct {
	Question     string
	Plan         []string
	PriorResults string
	SubTask      string
}

var solveTemplate = template.Must(
	template.New("solve").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(solveTemplateContent),
)

const critiqueTemplateContent = `You are a strict reviewer.

Task: {{.Question}}

Candidate answer:
{{.Answer}}

Critique the answer: point out factual errors, gaps, and unclear reasoning.
If the answer is already correct and complete, reply with exactly: {{.Sentinel}}`

type critiquePromptData struct {
	Question string
	Answer   string
	Sentinel string
}

var critiqueTemplate = template.Must(template.New("critique").Parse(critiqueTemplateContent))

const refineTemplateContent = `Improve the answer below using the critique.

Task: {{.Question}}

Previous answer:
{{.Answer}}

Critique:
{{.Critique}}

Respond with the improved answer only.`

type refinePromptData struct {
	Question string
	Answer   string
	Critique string
}

var refineTemplate = template.Must(template.New("refine").Parse(refineTemplateContent))

// executeTemplate renders tmpl with data into a string.
func executeTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
