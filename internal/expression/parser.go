package expression

import (
	"log"
	"math"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
)

const (
	primaryExpected = "number or \"(\""
)

var (
	additiveOperators       = []string{string(AddOperator), string(SubOperator)}
	multiplicativeOperators = []string{string(MulOperator), string(DivOperator)}
)

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("EXPRESSION_CALCULATOR_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

// EnableDebugLog turns on parser tracing for every subsequent parse.
func EnableDebugLog() {
	parserDebugLog = true
}

type parser struct {
	tokens []Token
	index  int
	debug  bool
}

// Parse builds a syntax tree from tokens produced by Tokenize.
func Parse(tokens []Token) (Node, error) {
	p := &parser{tokens: tokens, debug: parserDebugLog}
	return p.parse()
}

func ParseWithDebugOutput(tokens []Token) (Node, error) {
	p := &parser{tokens: tokens, debug: true}
	return p.parse()
}

// ParseExpr tokenizes and parses source.
func ParseExpr(source string) (*Expr, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}

	node, err := Parse(tokens)
	if err != nil {
		return nil, err
	}

	return &Expr{
		Source: source,
		Node:   node,
	}, nil
}

func (p *parser) parse() (Node, error) {
	node, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Kind != EndOfInputToken {
		if p.debug {
			log.Println("not consumed token: ", tok)
		}
		return nil, newParseError(&TrailingInputError{Found: tok}, tok.Pos)
	}
	// tokens after an EndOfInput are trailing input
	if p.index+1 < len(p.tokens) {
		tok := p.tokens[p.index+1]
		return nil, newParseError(&TrailingInputError{Found: tok}, tok.Pos)
	}

	if p.debug {
		pp.Println(p.tokens)
		log.Println(node.String())
	}
	return node, nil
}

// peek returns the token under the cursor. Reading past the end yields
// an EndOfInput token.
func (p *parser) peek() Token {
	if p.index < len(p.tokens) {
		return p.tokens[p.index]
	}

	pos := 0
	if n := len(p.tokens); n != 0 {
		last := p.tokens[n-1]
		pos = last.Pos + len([]rune(last.Value))
	}
	return Token{Kind: EndOfInputToken, Pos: pos}
}

func (p *parser) consume() Token {
	tok := p.peek()
	if tok.Kind != EndOfInputToken {
		p.index++
	}
	return tok
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.peek().isOperator(additiveOperators...) {
		op := p.consume()
		if p.debug {
			log.Println("additive op: ", op, left)
		}

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpression{Left: left, Operator: Operator(op.Value), Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.peek().isOperator(multiplicativeOperators...) {
		op := p.consume()
		if p.debug {
			log.Println("multiplicative op: ", op, left)
		}

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpression{Left: left, Operator: Operator(op.Value), Right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()
	if p.debug {
		log.Println("primary token: ", tok)
	}

	switch tok.Kind {
	case NumberToken:
		p.consume()
		return p.constructNumberLiteral(tok)

	case OpenParenToken:
		p.consume()
		node, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		closeTok := p.peek()
		if closeTok.Kind != CloseParenToken {
			return nil, newParseError(&UnbalancedParenError{OpenPos: tok.Pos, Found: closeTok}, closeTok.Pos)
		}
		p.consume()
		return node, nil

	default:
		return nil, newParseError(&UnexpectedTokenError{Expected: primaryExpected, Found: tok, Pos: tok.Pos}, tok.Pos)
	}
}

func (p *parser) constructNumberLiteral(tok Token) (Node, error) {
	v, err := strconv.ParseFloat(tok.Value, 64)
	if err == nil && math.IsInf(v, 0) {
		err = strconv.ErrRange
	}
	if err != nil {
		return nil, newParseError(&InvalidNumberError{Literal: tok.Value, Pos: tok.Pos, Err: err}, tok.Pos)
	}
	return &NumberLiteral{Value: v}, nil
}
