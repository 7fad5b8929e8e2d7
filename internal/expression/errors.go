package expression

import (
	"fmt"
	"strconv"

	"github.com/karupanerura/expression-calculator/internal/types"
)

// UnexpectedCharacterError is reported by Tokenize for a character
// outside of the expression alphabet.
type UnexpectedCharacterError struct {
	Char rune
	Pos  int
}

func (e *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf("unexpected character %s at %d", strconv.QuoteRune(e.Char), e.Pos)
}

func (e *UnexpectedCharacterError) Kind() string { return "UnexpectedCharacter" }

// UnexpectedTokenError is reported when a primary expression was expected.
type UnexpectedTokenError struct {
	Expected string
	Found    Token
	Pos      int
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("expected %s but found %s at %d", e.Expected, e.Found, e.Pos)
}

func (e *UnexpectedTokenError) Kind() string { return "UnexpectedToken" }

// UnbalancedParenError is reported when an opening parenthesis is not
// followed by its matching close.
type UnbalancedParenError struct {
	OpenPos int
	Found   Token
}

func (e *UnbalancedParenError) Error() string {
	return fmt.Sprintf("unbalanced parenthesis opened at %d: expected \")\" but found %s at %d", e.OpenPos, e.Found, e.Found.Pos)
}

func (e *UnbalancedParenError) Kind() string { return "UnbalancedParen" }

// TrailingInputError is reported when a complete expression is followed
// by more tokens.
type TrailingInputError struct {
	Found Token
}

func (e *TrailingInputError) Error() string {
	return fmt.Sprintf("unexpected trailing input %s at %d", e.Found, e.Found.Pos)
}

func (e *TrailingInputError) Kind() string { return "TrailingInput" }

// InvalidNumberError is reported for a digit run that does not fit in a
// finite float64.
type InvalidNumberError struct {
	Literal string
	Pos     int
	Err     error
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("invalid number %s at %d: %v", e.Literal, e.Pos, e.Err)
}

func (e *InvalidNumberError) Unwrap() error { return e.Err }

func (e *InvalidNumberError) Kind() string { return "InvalidNumber" }

// DivisionByZeroError is reported by Evaluate when a divisor is zero.
type DivisionByZeroError struct {
	Dividend float64
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero: %s / 0", strconv.FormatFloat(e.Dividend, 'g', -1, 64))
}

func (e *DivisionByZeroError) Kind() string { return "DivisionByZero" }

func newLexError(err error, pos int) error {
	return &types.Error{
		Tag:   types.LexErrorTag,
		Err:   err,
		Extra: map[string]any{"position": pos},
	}
}

func newParseError(err error, pos int) error {
	return &types.Error{
		Tag:   types.ParseErrorTag,
		Err:   err,
		Extra: map[string]any{"position": pos},
	}
}

func newEvalError(err error) error {
	return &types.Error{
		Tag: types.EvalErrorTag,
		Err: err,
	}
}
