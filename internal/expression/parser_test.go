package expression_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/expression-calculator/internal/expression"
	"github.com/karupanerura/expression-calculator/internal/types"
)

func TestParseExpr(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		source                string
		expected              float64
		expectToBeParseErr    bool
		expectToBeEvaluateErr bool
		expectedKind          string
		debug                 bool
	}{
		{
			source:             "",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "   ",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "+",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "-1",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "1 + ",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "1 * * 2",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "()",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             ")",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedToken",
		},
		{
			source:             "(1 + 2",
			expectToBeParseErr: true,
			expectedKind:       "UnbalancedParen",
		},
		{
			source:             "((1)",
			expectToBeParseErr: true,
			expectedKind:       "UnbalancedParen",
		},
		{
			source:             "(1 2)",
			expectToBeParseErr: true,
			expectedKind:       "UnbalancedParen",
		},
		{
			source:             "(1))",
			expectToBeParseErr: true,
			expectedKind:       "TrailingInput",
		},
		{
			source:             "1 2",
			expectToBeParseErr: true,
			expectedKind:       "TrailingInput",
		},
		{
			source:             "1 (2)",
			expectToBeParseErr: true,
			expectedKind:       "TrailingInput",
		},
		{
			source:             "1 & 2",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedCharacter",
		},
		{
			source:             "1.5",
			expectToBeParseErr: true,
			expectedKind:       "UnexpectedCharacter",
		},
		{
			source:             "1" + strings.Repeat("0", 400),
			expectToBeParseErr: true,
			expectedKind:       "InvalidNumber",
		},
		{
			source:                "5 / 0",
			expectToBeEvaluateErr: true,
			expectedKind:          "DivisionByZero",
		},
		{
			source:                "0 / 0",
			expectToBeEvaluateErr: true,
			expectedKind:          "DivisionByZero",
		},
		{
			source:                "1 / (2 - 2)",
			expectToBeEvaluateErr: true,
			expectedKind:          "DivisionByZero",
		},
		{
			source:   "0",
			expected: 0,
		},
		{
			source:   "42",
			expected: 42,
		},
		{
			source:   "007",
			expected: 7,
		},
		{
			source:   "(1)",
			expected: 1,
		},
		{
			source:   "((2))",
			expected: 2,
		},
		{
			source:   "2 + 3 * 4",
			expected: 14,
		},
		{
			source:   "(2 + 3) * 4",
			expected: 20,
		},
		{
			source:   "10 - 2 - 3",
			expected: 5,
		},
		{
			source:   "8 / 4 / 2",
			expected: 1,
		},
		{
			source:   "1+2",
			expected: 3,
		},
		{
			source:   " 1 + 2 ",
			expected: 3,
		},
		{
			source:   "\t1\n+\r\n2",
			expected: 3,
		},
		{
			source:   "((1+2)*(3+4))",
			expected: 21,
		},
		{
			source:   "1+2-3*4/5",
			expected: 3.0 - 12.0/5.0,
		},
		{
			source:   "7 / 2",
			expected: 3.5,
		},
		{
			source:   "0 / 5",
			expected: 0,
		},
		{
			source:   "2 * (3 + 4) * 5",
			expected: 70,
		},
		{
			source:   "100 - (10 - (5 - 1))",
			expected: 94,
		},
		{
			source:   "1 + 2 * 3 - 4 / 2",
			expected: 5,
		},
		{
			source:   "1 + 2 * 3 - 4 / 2",
			expected: 5,
			debug:    true,
		},
	} {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			tokens, err := expression.Tokenize(tt.source)
			var node expression.Node
			if err == nil {
				parse := expression.Parse
				if tt.debug {
					parse = expression.ParseWithDebugOutput
				}
				node, err = parse(tokens)
			}
			if err != nil {
				if tt.expectToBeParseErr {
					t.Logf("expected parse error: %v", err)
					assertErrorKind(t, err, tt.expectedKind)
					return
				}
				t.Fatal(err)
			}
			if tt.expectToBeParseErr {
				t.Errorf("should be parse error but got %s", node)
				return
			}

			ret, err := expression.Evaluate(node)
			if err != nil {
				if tt.expectToBeEvaluateErr {
					t.Logf("expected evaluate error: %v", err)
					assertErrorKind(t, err, tt.expectedKind)
					if tag, _ := types.TagOf(err); tag != types.EvalErrorTag {
						t.Errorf("expect tag %s but got %s", types.EvalErrorTag, tag)
					}
					return // ok
				}
				t.Fatal(err)
			}
			if tt.expectToBeEvaluateErr {
				t.Error("should be evaluate error")
				return
			}

			if math.Abs(ret-tt.expected) >= 0.0000001 {
				t.Errorf("expect to %v but got %v", tt.expected, ret)
			}
		})
	}
}

func assertErrorKind(t *testing.T, err error, expected string) {
	t.Helper()

	var kinded types.Kinded
	if !errors.As(err, &kinded) {
		t.Fatalf("error has no kind: %v", err)
	}
	if kind := kinded.Kind(); kind != expected {
		t.Errorf("expect error kind %s but got %s (%v)", expected, kind, err)
	}
}

func TestParseTreeShape(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		source   string
		expected string
	}{
		{source: "1", expected: "1"},
		{source: "2 + 3 * 4", expected: "(+ 2 (* 3 4))"},
		{source: "(2 + 3) * 4", expected: "(* (+ 2 3) 4)"},
		{source: "10 - 2 - 3", expected: "(- (- 10 2) 3)"},
		{source: "8 / 4 / 2", expected: "(/ (/ 8 4) 2)"},
		{source: "1 - (2 - 3)", expected: "(- 1 (- 2 3))"},
		{source: "1 * 2 + 3 * 4", expected: "(+ (* 1 2) (* 3 4))"},
		{source: "((1+2)*(3+4))", expected: "(* (+ 1 2) (+ 3 4))"},
	} {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			expr, err := expression.ParseExpr(tt.source)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, expr.Node.String()); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStructure(t *testing.T) {
	t.Parallel()

	expr, err := expression.ParseExpr("1 + 2 * 3")
	if err != nil {
		t.Fatal(err)
	}

	expected := &expression.BinaryExpression{
		Left:     &expression.NumberLiteral{Value: 1},
		Operator: expression.AddOperator,
		Right: &expression.BinaryExpression{
			Left:     &expression.NumberLiteral{Value: 2},
			Operator: expression.MulOperator,
			Right:    &expression.NumberLiteral{Value: 3},
		},
	}
	if diff := cmp.Diff(expression.Node(expected), expr.Node); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLeftLeaningChain(t *testing.T) {
	t.Parallel()

	for _, op := range []string{"+", "-", "*", "/"} {
		op := op
		t.Run(op, func(t *testing.T) {
			t.Parallel()

			for n := 1; n <= 20; n++ {
				operands := make([]string, n+1)
				for i := range operands {
					operands[i] = "1"
				}

				expr, err := expression.ParseExpr(strings.Join(operands, " "+op+" "))
				if err != nil {
					t.Fatal(err)
				}
				if depth := expression.Depth(expr.Node); depth != n {
					t.Errorf("n=%d: expect depth %d but got %d", n, n, depth)
				}

				// every right child of the chain is a leaf
				node := expr.Node
				for i := 0; i < n; i++ {
					b, ok := node.(*expression.BinaryExpression)
					if !ok {
						t.Fatalf("n=%d: expect binary expression at level %d but got %T", n, i, node)
					}
					if _, ok := b.Right.(*expression.NumberLiteral); !ok {
						t.Fatalf("n=%d: right child at level %d is not a literal: %s", n, i, b.Right)
					}
					node = b.Left
				}
				if _, ok := node.(*expression.NumberLiteral); !ok {
					t.Fatalf("n=%d: leftmost node is not a literal: %s", n, node)
				}
			}
		})
	}
}

func TestParseErrorDetails(t *testing.T) {
	t.Parallel()

	t.Run("UnexpectedToken", func(t *testing.T) {
		t.Parallel()

		_, err := expression.ParseExpr("1 + ")
		var e *expression.UnexpectedTokenError
		if !errors.As(err, &e) {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Found.Kind != expression.EndOfInputToken {
			t.Errorf("expect to find end of input but got %s", e.Found.Kind)
		}
		if e.Pos != 4 {
			t.Errorf("expect position 4 but got %d", e.Pos)
		}
		if tag, _ := types.TagOf(err); tag != types.ParseErrorTag {
			t.Errorf("expect tag %s but got %s", types.ParseErrorTag, tag)
		}
	})

	t.Run("UnbalancedParen", func(t *testing.T) {
		t.Parallel()

		_, err := expression.ParseExpr("2 * (1 + 2")
		var e *expression.UnbalancedParenError
		if !errors.As(err, &e) {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.OpenPos != 4 {
			t.Errorf("expect open position 4 but got %d", e.OpenPos)
		}
	})

	t.Run("TrailingInput", func(t *testing.T) {
		t.Parallel()

		_, err := expression.ParseExpr("1 2")
		var e *expression.TrailingInputError
		if !errors.As(err, &e) {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(expression.Token{Value: "2", Kind: expression.NumberToken, Pos: 2}, e.Found); diff != "" {
			t.Errorf("found token mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("WithoutEndOfInput", func(t *testing.T) {
		t.Parallel()

		node, err := expression.Parse([]expression.Token{
			{Value: "1", Kind: expression.NumberToken, Pos: 0},
			{Value: "+", Kind: expression.OperatorToken, Pos: 1},
			{Value: "2", Kind: expression.NumberToken, Pos: 2},
		})
		if err != nil {
			t.Fatal(err)
		}
		if s := node.String(); s != "(+ 1 2)" {
			t.Errorf("unexpected tree: %s", s)
		}

		_, err = expression.Parse(nil)
		var e *expression.UnexpectedTokenError
		if !errors.As(err, &e) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("EndOfInputBeforeEnd", func(t *testing.T) {
		t.Parallel()

		node, err := expression.Parse([]expression.Token{
			{Value: "1", Kind: expression.NumberToken, Pos: 0},
			{Kind: expression.EndOfInputToken, Pos: 1},
			{Value: "2", Kind: expression.NumberToken, Pos: 2},
			{Kind: expression.EndOfInputToken, Pos: 3},
		})
		if node != nil {
			t.Errorf("should not return a tree: %s", node)
		}
		var e *expression.TrailingInputError
		if !errors.As(err, &e) {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(expression.Token{Value: "2", Kind: expression.NumberToken, Pos: 2}, e.Found); diff != "" {
			t.Errorf("found token mismatch (-want +got):\n%s", diff)
		}
		if tag, _ := types.TagOf(err); tag != types.ParseErrorTag {
			t.Errorf("expect tag %s but got %s", types.ParseErrorTag, tag)
		}
	})
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"2 + 3 * 4", "1 2", "5 / 0", "1 & 2", "(1"} {
		first, firstErr := evaluateString(source)
		for i := 0; i < 10; i++ {
			v, err := evaluateString(source)
			if v != first {
				t.Errorf("%q: expect %v but got %v", source, first, v)
			}
			if (err == nil) != (firstErr == nil) || (err != nil && err.Error() != firstErr.Error()) {
				t.Errorf("%q: expect error %v but got %v", source, firstErr, err)
			}
		}
	}
}

func evaluateString(source string) (float64, error) {
	expr, err := expression.ParseExpr(source)
	if err != nil {
		return 0, err
	}
	return expression.Evaluate(expr.Node)
}

func FuzzParseExpr(f *testing.F) {
	for _, seed := range []string{"1+2", "(2 + 3) * 4", "8 / 4 / 2", "1 2", "(1", "5/0", "1 & 2"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, source string) {
		expr, err := expression.ParseExpr(source)
		if err != nil {
			if _, ok := types.TagOf(err); !ok {
				t.Errorf("untagged error for %q: %v", source, err)
			}
			t.Logf("INVALID: %q (%v)", source, err)
			return
		}

		if _, err := expression.Evaluate(expr.Node); err != nil {
			if tag, _ := types.TagOf(err); tag != types.EvalErrorTag {
				t.Errorf("unexpected error for %q: %v", source, err)
			}
		}
		t.Logf("PASS: %q", source)
	})
}
