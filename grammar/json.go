package grammar

import (
	"encoding/json"
	"strings"

	"github.com/reagentlabs/reagent"
)

// JSON is a structured action grammar. The clause after Action: must be a
// JSON object with a "tool" string and a "parameters" object:
//
//	Thought: I should look this up.
//	Action: {"tool": "search", "parameters": {"query": "latest release of Go"}}
//
// Markdown code fences around the object are tolerated. The terminal form is
// the same bracket-style Finish[answer] as the classic grammar, which keeps
// final answers free of JSON escaping.
type JSON struct{}

// NewJSON creates the JSON grammar.
func NewJSON() *JSON {
	return &JSON{}
}

// Name identifies the grammar.
func (g *JSON) Name() string { return "json" }

// Guidance returns the format instructions placed in the system prompt.
func (g *JSON) Guidance() string {
	var sb strings.Builder
	sb.WriteString("Respond using exactly this format:\n\n")
	sb.WriteString("Thought: your reasoning about the problem and what to do next.\n")
	sb.WriteString("Action: exactly one of:\n")
	sb.WriteString("- A JSON object {\"tool\": \"tool_name\", \"parameters\": {...}} to call an available tool.\n")
	sb.WriteString("- Finish[final answer] once you have enough information to answer.\n\n")
	sb.WriteString("Example:\n")
	sb.WriteString("Thought: I need current information, so I should search.\n")
	sb.WriteString("Action: {\"tool\": \"search\", \"parameters\": {\"query\": \"weather in Guangzhou tomorrow\"}}\n\n")
	sb.WriteString("Write exactly one Thought and one Action per response. Do not write the Observation yourself.")
	return sb.String()
}

type jsonCall struct {
	Tool       string          `json:"tool"`
	Parameters json.RawMessage `json:"parameters"`
}

// Parse extracts the first Thought/Action pair and interprets the clause as a
// JSON tool call or Finish terminal.
func (g *JSON) Parse(output string) *reagent.Action {
	t, ok := scanTurn(output)
	if !ok {
		return &reagent.Action{
			Kind:   reagent.ActionUnparseable,
			Reason: reasonNoAction,
		}
	}

	if answer, done := scanFinish(t.clause); done {
		return &reagent.Action{
			Kind:    reagent.ActionFinish,
			Thought: t.thought,
			Clause:  t.clause,
			Answer:  answer,
		}
	}

	clause := stripFences(t.clause)

	var call jsonCall
	if err := json.Unmarshal([]byte(clause), &call); err != nil {
		return &reagent.Action{
			Kind:    reagent.ActionUnparseable,
			Thought: t.thought,
			Clause:  t.clause,
			Reason:  reasonBadJSON,
		}
	}
	if call.Tool == "" {
		return &reagent.Action{
			Kind:    reagent.ActionUnparseable,
			Thought: t.thought,
			Clause:  t.clause,
			Reason:  reasonBadJSON,
		}
	}

	var params map[string]any
	if len(call.Parameters) > 0 && string(call.Parameters) != "null" {
		if err := json.Unmarshal(call.Parameters, &params); err != nil {
			return &reagent.Action{
				Kind:    reagent.ActionUnparseable,
				Thought: t.thought,
				Clause:  t.clause,
				Reason:  reasonBadJSON,
			}
		}
	}
	if params == nil {
		return &reagent.Action{
			Kind:    reagent.ActionUnparseable,
			Thought: t.thought,
			Clause:  t.clause,
			Reason:  reasonBadJSON,
		}
	}

	return &reagent.Action{
		Kind:    reagent.ActionToolCall,
		Thought: t.thought,
		Clause:  t.clause,
		Tool:    call.Tool,
		Args:    params,
	}
}

// Compile-time check that JSON implements reagent.Grammar.
var _ reagent.Grammar = (*JSON)(nil)
