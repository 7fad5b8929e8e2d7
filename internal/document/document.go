package document

import (
	"github.com/karupanerura/expression-calculator/internal/expression"
)

// Expand replaces every "${...}" string in doc by the value of the
// expression it holds. Other values are returned as they are.
func Expand(doc any) (any, error) {
	parsed, err := expression.ExpandExprRecursive(doc)
	if err != nil {
		return nil, err
	}

	var ev expression.Evaluator
	return ev.EvaluateValueRecursive(parsed)
}
