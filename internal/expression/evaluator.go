package expression

import (
	"fmt"
)

// Evaluate reduces the tree rooted at n to a single value.
func Evaluate(n Node) (float64, error) {
	if n == nil {
		return 0, newEvalError(fmt.Errorf("empty expression"))
	}
	return n.evaluate()
}

func (n *NumberLiteral) evaluate() (float64, error) {
	if n == nil {
		return 0, newEvalError(fmt.Errorf("empty expression"))
	}
	return n.Value, nil
}

func (b *BinaryExpression) evaluate() (float64, error) {
	if b == nil {
		return 0, newEvalError(fmt.Errorf("empty expression"))
	}

	left, err := Evaluate(b.Left)
	if err != nil {
		return 0, err
	}

	right, err := Evaluate(b.Right)
	if err != nil {
		return 0, err
	}

	switch b.Operator {
	case AddOperator:
		return left + right, nil
	case SubOperator:
		return left - right, nil
	case MulOperator:
		return left * right, nil
	case DivOperator:
		if right == 0 {
			return 0, newEvalError(&DivisionByZeroError{Dividend: left})
		}
		return left / right, nil
	default:
		return 0, newEvalError(fmt.Errorf("unknown operator %q", b.Operator))
	}
}

type Evaluator struct{}

func (e *Evaluator) EvaluateValue(expr *Expr) (float64, error) {
	v, err := Evaluate(expr.Node)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", expr.Source, err)
	}
	return v, nil
}

// EvaluateValueRecursive walks maps and slices of value, replacing each
// *Expr by its value.
func (e *Evaluator) EvaluateValueRecursive(value any) (any, error) {
	switch v := value.(type) {
	case *Expr:
		return e.EvaluateValue(v)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			var err error
			result[key], err = e.EvaluateValueRecursive(value)
			if err != nil {
				return nil, fmt.Errorf("key=%q: %w", key, err)
			}
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			var err error
			result[i], err = e.EvaluateValueRecursive(value)
			if err != nil {
				return nil, fmt.Errorf("index=%d: %w", i, err)
			}
		}
		return result, nil

	default:
		return value, nil
	}
}
