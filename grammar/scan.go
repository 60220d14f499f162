package grammar

import (
	"regexp"
	"strings"
)

var (
	thoughtRe = regexp.MustCompile(`(?m)^[ \t]*Thought:[ \t]*`)
	actionRe  = regexp.MustCompile(`(?m)^[ \t]*Action:[ \t]*`)
	headerRe  = regexp.MustCompile(`(?m)^[ \t]*(?:Thought|Action|Observation):`)
	finishRe  = regexp.MustCompile(`(?s)^Finish\[(.*)\]$`)
)

// turn is the first Thought/Action pair scanned out of one model response.
type turn struct {
	thought string
	clause  string
}

// scanTurn extracts the first Thought:/Action: pair from output. The action
// clause runs from the first Action: header to the next recognized section
// header or end of text; any further pairs the model "ran ahead" and
// hallucinated are discarded by construction, which makes the truncation
// idempotent. Reports false when no Action: line exists.
func scanTurn(output string) (turn, bool) {
	actionLoc := actionRe.FindStringIndex(output)
	if actionLoc == nil {
		return turn{}, false
	}

	clauseStart := actionLoc[1]
	clauseEnd := len(output)
	if next := headerRe.FindStringIndex(output[clauseStart:]); next != nil {
		clauseEnd = clauseStart + next[0]
	}

	t := turn{clause: strings.TrimSpace(output[clauseStart:clauseEnd])}

	if thoughtLoc := thoughtRe.FindStringIndex(output); thoughtLoc != nil && thoughtLoc[0] < actionLoc[0] {
		thoughtEnd := actionLoc[0]
		if next := headerRe.FindStringIndex(output[thoughtLoc[1]:]); next != nil {
			thoughtEnd = thoughtLoc[1] + next[0]
		}
		t.thought = strings.TrimSpace(output[thoughtLoc[1]:thoughtEnd])
	}

	return t, true
}

// scanFinish matches the terminal Finish[answer] form. The capture is greedy
// to the last closing bracket, so answers containing brackets survive intact.
func scanFinish(clause string) (string, bool) {
	m := finishRe.FindStringSubmatch(strings.TrimSpace(clause))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// stripFences removes a markdown code fence wrapped around content, if any.
// Models frequently fence JSON action clauses even when told not to.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	inner := strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(inner, "\n"); idx >= 0 {
		// Drop the optional language tag on the opening fence line.
		firstLine := strings.TrimSpace(inner[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			inner = inner[idx+1:]
		}
	}
	if idx := strings.LastIndex(inner, "```"); idx >= 0 {
		inner = inner[:idx]
	}
	return strings.TrimSpace(inner)
}

// The diagnostic reasons are phrased for the model, not the operator: they are
// surfaced verbatim when a caller chooses to show parse failures.
const (
	reasonNoAction = "could not parse an Action field; respond with a Thought: line followed by an Action: line in the exact requested format"
	reasonBadJSON  = "the Action clause must be a JSON object with a \"tool\" string field and a \"parameters\" object field, or Finish[answer]"
	reasonBadCall  = "the Action clause must be ToolName[arguments] or Finish[answer]"
)
