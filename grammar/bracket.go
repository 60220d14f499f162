package grammar

import (
	"regexp"
	"strings"

	"github.com/reagentlabs/reagent"
)

var toolCallRe = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_-]*)\[(.*)\]$`)

// Bracket is the classic ReAct textual grammar:
//
//	Thought: I should look this up.
//	Action: search[latest release of Go]
//
// The argument text may follow a key=value,key2=value2 convention or be a
// single positional value; the registry's argument resolver accepts either.
// The terminal form is Finish[answer].
type Bracket struct{}

// NewBracket creates the bracket grammar.
func NewBracket() *Bracket {
	return &Bracket{}
}

// Name identifies the grammar.
func (g *Bracket) Name() string { return "bracket" }

// Guidance returns the format instructions placed in the system prompt.
func (g *Bracket) Guidance() string {
	var sb strings.Builder
	sb.WriteString("Respond using exactly this format:\n\n")
	sb.WriteString("Thought: your reasoning about the problem and what to do next.\n")
	sb.WriteString("Action: exactly one of:\n")
	sb.WriteString("- tool_name[arguments] to call an available tool. Use key=value,key2=value2 for multiple arguments.\n")
	sb.WriteString("- Finish[final answer] once you have enough information to answer.\n\n")
	sb.WriteString("Example:\n")
	sb.WriteString("Thought: I need current information, so I should search.\n")
	sb.WriteString("Action: search[weather in Guangzhou tomorrow]\n\n")
	sb.WriteString("Write exactly one Thought and one Action per response. Do not write the Observation yourself.")
	return sb.String()
}

// Parse extracts the first Thought/Action pair and interprets the clause as a
// bracket-form tool call or Finish terminal.
func (g *Bracket) Parse(output string) *reagent.Action {
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

	m := toolCallRe.FindStringSubmatch(t.clause)
	if m == nil {
		return &reagent.Action{
			Kind:    reagent.ActionUnparseable,
			Thought: t.thought,
			Clause:  t.clause,
			Reason:  reasonBadCall,
		}
	}

	return &reagent.Action{
		Kind:    reagent.ActionToolCall,
		Thought: t.thought,
		Clause:  t.clause,
		Tool:    m[1],
		RawArgs: strings.TrimSpace(m[2]),
	}
}

// Compile-time check that Bracket implements reagent.Grammar.
var _ reagent.Grammar = (*Bracket)(nil)
