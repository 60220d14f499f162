package reagent

// ActionKind discriminates the outcomes of parsing one model turn.
type ActionKind string

const (
	// ActionToolCall is a request to invoke a registered tool.
	ActionToolCall ActionKind = "tool_call"

	// ActionFinish is the terminal form carrying the final answer.
	ActionFinish ActionKind = "finish"

	// ActionUnparseable means the turn did not follow the requested grammar.
	// The loop treats this as a hard stop for the run, not a retryable
	// observation.
	ActionUnparseable ActionKind = "unparseable"
)

// Action is the structured intent extracted from one model turn.
//
// Exactly one of the kind-specific field groups is meaningful:
//   - ActionToolCall: Tool plus Args (JSON grammar) or RawArgs (bracket
//     grammar). [Registry.ResolveArgs] accepts either form.
//   - ActionFinish: Answer.
//   - ActionUnparseable: Reason, phrased so it is safe to show to the model.
//
// Thought is populated for diagnostics whenever a Thought: line was present,
// regardless of kind.
type Action struct {
	Kind    ActionKind
	Thought string

	// Clause is the raw action clause as written by the model, recorded in
	// the trajectory verbatim.
	Clause string

	Tool    string
	Args    map[string]any
	RawArgs string

	Answer string
	Reason string
}

// Grammar interprets raw model output for one turn into an [Action]. A caller
// configures exactly one grammar per agent; grammars are never auto-detected
// from content.
//
// Implementations must never fail: malformed input yields the
// [ActionUnparseable] variant with a diagnostic reason.
type Grammar interface {
	// Name identifies the grammar (e.g. "bracket", "json").
	Name() string

	// Guidance returns format instructions placed in the system prompt,
	// telling the model exactly how to write its Thought/Action turns.
	Guidance() string

	// Parse extracts the first Thought/Action pair from output and interprets
	// the action clause. Runaway output containing multiple pairs is
	// truncated to the first pair before parsing.
	Parse(output string) *Action
}
