package expression

import (
	"strconv"

	"github.com/samber/lo"
)

type TokenKind int

const (
	NumberToken TokenKind = iota
	OperatorToken
	OpenParenToken
	CloseParenToken
	EndOfInputToken
)

func (k TokenKind) String() string {
	switch k {
	case NumberToken:
		return "Number"
	case OperatorToken:
		return "Operator"
	case OpenParenToken:
		return "OpenParen"
	case CloseParenToken:
		return "CloseParen"
	case EndOfInputToken:
		return "EndOfInput"
	default:
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is a lexical unit of an expression. Pos is the 0-based index of
// its first character in the source.
type Token struct {
	Value string
	Kind  TokenKind
	Pos   int
}

func (t Token) String() string {
	if t.Kind == EndOfInputToken {
		return "end of input"
	}
	return strconv.Quote(t.Value)
}

func (t Token) isOperator(ops ...string) bool {
	return t.Kind == OperatorToken && lo.Contains(ops, t.Value)
}
