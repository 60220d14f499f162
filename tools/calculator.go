// Package tools provides the builtin tools: an arithmetic calculator and a
// web search client. Both return descriptive error strings for ordinary
// failure modes instead of errors, so the agent loop can feed them straight
// back to the model as observations.
package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reagentlabs/reagent"
)

// Calculator evaluates arithmetic expressions: + - * /, parentheses, the
// sqrt function, and the pi constant. Division by zero and malformed input
// produce error strings, never panics.
type Calculator struct{}

// NewCalculator creates the calculator tool.
func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) Name() string { return "calculator" }

func (c *Calculator) Description() string {
	return "Evaluates an arithmetic expression. Supports + - * /, parentheses, sqrt(x) and pi."
}

func (c *Calculator) Parameters() []reagent.Parameter {
	return []reagent.Parameter{
		{
			Name:        "expression",
			Type:        reagent.ParamString,
			Description: "The expression to evaluate, e.g. 2+3 or sqrt(16)",
			Required:    true,
		},
	}
}

// Run evaluates the expression. Failures come back as observation text.
func (c *Calculator) Run(ctx context.Context, args map[string]any) (string, error) {
	expression, _ := args["expression"].(string)
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "Error: expression cannot be empty", nil
	}

	result, err := Evaluate(expression)
	if err != nil {
		return fmt.Sprintf("Failed to calculate, please check the expression format: %v", err), nil
	}
	return formatNumber(result), nil
}

// formatNumber renders integral results without a decimal point.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Evaluate parses and evaluates an arithmetic expression.
func Evaluate(expression string) (float64, error) {
	p := &exprParser{input: expression}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

// exprParser is a recursive descent parser over the grammar
//
//	expr   = term (('+' | '-') term)*
//	term   = unary (('*' | '/') unary)*
//	unary  = '-' unary | atom
//	atom   = number | 'pi' | 'sqrt' '(' expr ')' | '(' expr ')'
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.consume('+'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case p.consume('-'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.consume('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.consume('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.consume('-') {
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	if p.consume('(') {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.consume(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	}

	if name := p.readIdent(); name != "" {
		switch name {
		case "pi":
			return math.Pi, nil
		case "sqrt":
			p.skipSpaces()
			if !p.consume('(') {
				return 0, fmt.Errorf("sqrt requires parentheses, e.g. sqrt(16)")
			}
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			p.skipSpaces()
			if !p.consume(')') {
				return 0, fmt.Errorf("missing closing parenthesis")
			}
			if v < 0 {
				return 0, fmt.Errorf("sqrt of negative number")
			}
			return math.Sqrt(v), nil
		default:
			return 0, fmt.Errorf("unknown identifier %q", name)
		}
	}

	return p.readNumber()
}

func (p *exprParser) readNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
		} else {
			break
		}
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected a number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *exprParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
		} else {
			break
		}
	}
	return p.input[start:p.pos]
}

func (p *exprParser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

// Compile-time check that Calculator implements reagent.Tool.
var _ reagent.Tool = (*Calculator)(nil)
