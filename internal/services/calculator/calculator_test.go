package calculator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	cases := []struct {
		expr string
		want float64
	}{
		{"5+10", 15},
		{"2 * (3 + 4)", 14},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2^10", 1024},
		{"2^-1", 0.5},
		{"-5 + 3", -2},
		{"-(2 + 3) * 2", -10},
		{"1 + 2 * 3 - 4 / 2", 5},
		{"2^3^2", 512},
		{"3.5 + 1.25", 4.75},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			result, err := svc.Evaluate(ctx, tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.expr, result.Expression)
			assert.InDelta(t, tc.want, result.Result, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	cases := []struct {
		name string
		expr string
		want string
	}{
		{"empty", "   ", "Expression cannot be empty."},
		{"division by zero", "1/0", "Division by zero is not allowed."},
		{"modulo by zero", "5 % 0", "Division by zero is not allowed."},
		{"letters", "two plus two", "Invalid arithmetic expression."},
		{"dangling operator", "5 +", "Invalid arithmetic expression."},
		{"double operator", "5 * / 2", "Invalid arithmetic expression."},
		{"unbalanced open", "(1 + 2", "Mismatched parentheses."},
		{"unbalanced close", "1 + 2)", "Mismatched parentheses."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Evaluate(ctx, tc.expr)
			require.Error(t, err)
			var calcErr *Error
			require.ErrorAs(t, err, &calcErr)
			assert.Equal(t, tc.want, calcErr.Message)
		})
	}
}

func TestEvaluateLengthLimit(t *testing.T) {
	svc := NewService()
	long := make([]byte, maxExpressionLength+1)
	for i := range long {
		long[i] = '1'
	}
	_, err := svc.Evaluate(context.Background(), string(long))
	var calcErr *Error
	require.ErrorAs(t, err, &calcErr)
	assert.Contains(t, calcErr.Message, "exceeds")
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "15", FormatResult(15))
	assert.Equal(t, "-3", FormatResult(-3))
	assert.Equal(t, "2.5", FormatResult(2.5))
	assert.Equal(t, "0.1", FormatResult(0.1))
}
