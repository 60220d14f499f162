package tools

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+3", 5},
		{"5+5", 10},
		{"10 - 4", 6},
		{"3 * 4", 12},
		{"10 / 4", 2.5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"-5 + 3", -2},
		{"--5", 5},
		{"sqrt(16)", 4},
		{"sqrt(2 + 2)", 2},
		{"2 * pi", 2 * math.Pi},
		{"1.5 * 2", 3},
		{"((1 + 2) * (3 + 4))", 21},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"division by zero", "1 / 0"},
		{"trailing garbage", "1 + 2 x"},
		{"unclosed paren", "(1 + 2"},
		{"empty parens", "()"},
		{"unknown identifier", "foo(3)"},
		{"sqrt without parens", "sqrt 16"},
		{"sqrt of negative", "sqrt(-4)"},
		{"bare operator", "+"},
		{"double dot", "1..5 + 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCalculatorRun(t *testing.T) {
	calc := NewCalculator()

	out, err := calc.Run(context.Background(), map[string]any{"expression": "5+5"})
	require.NoError(t, err)
	assert.Equal(t, "10", out)

	out, err = calc.Run(context.Background(), map[string]any{"expression": "10/4"})
	require.NoError(t, err)
	assert.Equal(t, "2.5", out)
}

func TestCalculatorRunEmptyExpression(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Run(context.Background(), map[string]any{"expression": "   "})
	require.NoError(t, err)
	assert.Equal(t, "Error: expression cannot be empty", out)
}

func TestCalculatorRunMalformedExpression(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Run(context.Background(), map[string]any{"expression": "2 +* 3"})
	require.NoError(t, err)
	assert.Contains(t, out, "Failed to calculate")
}

func TestCalculatorDeclaresRequiredExpression(t *testing.T) {
	params := NewCalculator().Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, "expression", params[0].Name)
	assert.True(t, params[0].Required)
}
