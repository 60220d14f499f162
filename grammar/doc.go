// Package grammar interprets raw model output into structured actions.
//
// Both grammars share the same turn scanning: the first Thought:-prefixed
// line and the first Action:-prefixed line are located, the action clause runs
// from Action: to the next recognized section header (or end of text), and
// output containing multiple Thought/Action pairs is truncated to the first
// pair before any interpretation. A turn with no Action: line at all is
// unparseable: the model abandoned the protocol entirely, and the loop treats
// that as a hard stop rather than a retryable observation.
//
// The Finish[answer] terminal form is bracket-style in both grammars, matching
// the conventions models are trained on. Parsing never fails; malformed input
// always yields an unparseable action with a reason string that is safe to
// show to the model.
package grammar
