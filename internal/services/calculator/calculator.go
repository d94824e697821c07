package calculator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

const maxExpressionLength = 200

// Error is the calculator's typed failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Service evaluates arithmetic expressions: + - * / % ^, parentheses, and
// unary signs. No variables, no functions.
type Service struct{}

func NewService() *Service { return &Service{} }

func (s *Service) Evaluate(ctx context.Context, expression string) (*model.CalcResult, error) {
	cleaned := strings.TrimSpace(expression)
	if cleaned == "" {
		return nil, newError("Expression cannot be empty.")
	}
	if len(cleaned) > maxExpressionLength {
		return nil, newError("Expression exceeds %d characters.", maxExpressionLength)
	}

	tokens, err := tokenize(cleaned)
	if err != nil {
		return nil, err
	}
	value, err := evalTokens(tokens)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, newError("Expression result is not a finite number.")
	}

	return &model.CalcResult{Expression: expression, Result: value}, nil
}

// FormatResult renders integral values without a decimal point, matching how
// users expect `5+10` to come back as `15`.
func FormatResult(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenOperator
	tokenLeftParen
	tokenRightParen
)

type token struct {
	kind  tokenKind
	value float64
	op    byte
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			v, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, newError("Invalid number %q.", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokenNumber, value: v})
			i = j
		case c == '(':
			tokens = append(tokens, token{kind: tokenLeftParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRightParen})
			i++
		case strings.IndexByte("+-*/%^", c) >= 0:
			tokens = append(tokens, token{kind: tokenOperator, op: c})
			i++
		default:
			if unicode.IsLetter(rune(c)) {
				return nil, newError("Invalid arithmetic expression.")
			}
			return nil, newError("Unexpected character %q.", string(c))
		}
	}
	if len(tokens) == 0 {
		return nil, newError("Invalid arithmetic expression.")
	}
	return tokens, nil
}

// evalTokens runs a shunting-yard pass: operators move to an operator stack by
// precedence, operands to a value stack, unary +/- binds tightest.
func evalTokens(tokens []token) (float64, error) {
	var values []float64
	var ops []byte
	expectOperand := true

	apply := func() error {
		if len(ops) == 0 {
			return newError("Invalid arithmetic expression.")
		}
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]

		if op == 'n' || op == 'p' { // unary
			if len(values) < 1 {
				return newError("Invalid arithmetic expression.")
			}
			if op == 'n' {
				values[len(values)-1] = -values[len(values)-1]
			}
			return nil
		}

		if len(values) < 2 {
			return newError("Invalid arithmetic expression.")
		}
		b := values[len(values)-1]
		a := values[len(values)-2]
		values = values[:len(values)-2]

		var r float64
		switch op {
		case '+':
			r = a + b
		case '-':
			r = a - b
		case '*':
			r = a * b
		case '/':
			if b == 0 {
				return newError("Division by zero is not allowed.")
			}
			r = a / b
		case '%':
			if b == 0 {
				return newError("Division by zero is not allowed.")
			}
			r = math.Mod(a, b)
		case '^':
			r = math.Pow(a, b)
		default:
			return newError("Invalid arithmetic expression.")
		}
		values = append(values, r)
		return nil
	}

	precedence := func(op byte) int {
		switch op {
		case 'n', 'p':
			return 4
		case '^':
			return 3
		case '*', '/', '%':
			return 2
		case '+', '-':
			return 1
		default:
			return 0
		}
	}
	rightAssoc := func(op byte) bool { return op == '^' || op == 'n' || op == 'p' }

	for _, t := range tokens {
		switch t.kind {
		case tokenNumber:
			if !expectOperand {
				return 0, newError("Invalid arithmetic expression.")
			}
			values = append(values, t.value)
			expectOperand = false
		case tokenLeftParen:
			if !expectOperand {
				return 0, newError("Invalid arithmetic expression.")
			}
			ops = append(ops, '(')
		case tokenRightParen:
			if expectOperand {
				return 0, newError("Invalid arithmetic expression.")
			}
			for len(ops) > 0 && ops[len(ops)-1] != '(' {
				if err := apply(); err != nil {
					return 0, err
				}
			}
			if len(ops) == 0 {
				return 0, newError("Mismatched parentheses.")
			}
			ops = ops[:len(ops)-1]
		case tokenOperator:
			op := t.op
			if expectOperand {
				switch op {
				case '-':
					op = 'n'
				case '+':
					op = 'p'
				default:
					return 0, newError("Invalid arithmetic expression.")
				}
			} else {
				expectOperand = true
			}
			for len(ops) > 0 && ops[len(ops)-1] != '(' {
				top := ops[len(ops)-1]
				if precedence(top) > precedence(op) || (precedence(top) == precedence(op) && !rightAssoc(op)) {
					if err := apply(); err != nil {
						return 0, err
					}
					continue
				}
				break
			}
			ops = append(ops, op)
		}
	}

	if expectOperand {
		return 0, newError("Invalid arithmetic expression.")
	}
	for len(ops) > 0 {
		if ops[len(ops)-1] == '(' {
			return 0, newError("Mismatched parentheses.")
		}
		if err := apply(); err != nil {
			return 0, err
		}
	}
	if len(values) != 1 {
		return 0, newError("Invalid arithmetic expression.")
	}
	return values[0], nil
}
