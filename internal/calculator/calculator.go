// Package calculator is the entry point used by host layers (CLI, HTTP) to
// evaluate expression text.
package calculator

import (
	"context"
	"errors"

	"github.com/karupanerura/expression-calculator/internal/expression"
	"github.com/karupanerura/expression-calculator/internal/types"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the batch worker limit used when none is given.
const DefaultConcurrency = 8

type Result struct {
	Expression        string
	AST               expression.Node
	ASTRepresentation string
	Value             float64
}

// EvaluateExpression runs tokenize, parse and evaluate on text. The
// returned error is the first one raised, tagged with its stage.
func EvaluateExpression(text string) (*Result, error) {
	tokens, err := expression.Tokenize(text)
	if err != nil {
		return nil, err
	}

	node, err := expression.Parse(tokens)
	if err != nil {
		return nil, err
	}

	value, err := expression.Evaluate(node)
	if err != nil {
		return nil, err
	}

	return &Result{
		Expression:        text,
		AST:               node,
		ASTRepresentation: node.String(),
		Value:             value,
	}, nil
}

type ErrorDescription struct {
	Stage    types.ErrorTag `json:"stage"`
	Kind     string         `json:"kind"`
	Message  string         `json:"message"`
	Position *int           `json:"position,omitempty"`
}

// DescribeError flattens err for rendering by a host.
func DescribeError(err error) *ErrorDescription {
	if err == nil {
		return nil
	}

	var e *types.Error
	if !errors.As(err, &e) {
		return &ErrorDescription{
			Stage:   types.SystemErrorTag,
			Kind:    string(types.SystemErrorTag),
			Message: err.Error(),
		}
	}

	desc := &ErrorDescription{
		Stage:   e.Tag,
		Kind:    e.Kind(),
		Message: e.Message(),
	}
	if pos, ok := e.Extra["position"].(int); ok {
		desc.Position = &pos
	}
	return desc
}

type Outcome struct {
	Index  int
	Result *Result
	Err    error
}

// EvaluateBatch evaluates texts independently with at most concurrency
// workers. Outcomes are in input order. Items not started before ctx is
// done report ctx.Err().
func EvaluateBatch(ctx context.Context, texts []string, concurrency int) []Outcome {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outcomes := lo.Map(texts, func(_ string, i int) Outcome {
		return Outcome{Index: i}
	})

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, text := range texts {
		i := i
		text := text
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}

			outcomes[i].Result, outcomes[i].Err = EvaluateExpression(text)
			return nil
		})
	}
	_ = eg.Wait() // workers never fail the group
	return outcomes
}
