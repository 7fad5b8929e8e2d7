package expression

type lexer struct {
	source []rune
	index  int
}

func newLexer(source string) *lexer {
	return &lexer{
		source: []rune(source),
		index:  0,
	}
}

// Tokenize converts source into tokens terminated by exactly one
// EndOfInput token.
func Tokenize(source string) ([]Token, error) {
	return newLexer(source).tokenize()
}

func (l *lexer) isCompleted() bool {
	return l.index == len(l.source)
}

func (l *lexer) tokenize() ([]Token, error) {
	var tokens []Token
	for !l.isCompleted() {
		tok, ok, err := l.consume()
		if err != nil {
			return nil, err
		}
		if ok {
			tokens = append(tokens, tok)
		}
	}
	return append(tokens, Token{Kind: EndOfInputToken, Pos: l.index}), nil
}

// consume scans from the cursor. ok is false when only whitespace was skipped.
func (l *lexer) consume() (tok Token, ok bool, err error) {
	switch c := l.source[l.index]; c {
	case ' ', '\t', '\n', '\r':
		l.index++ // just skip white spaces
		return Token{}, false, nil
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		begins := l.index
		for l.index != len(l.source) && '0' <= l.source[l.index] && l.source[l.index] <= '9' {
			l.index++
		}
		return Token{Value: string(l.source[begins:l.index]), Kind: NumberToken, Pos: begins}, true, nil
	case '+', '-', '*', '/':
		l.index++
		return Token{Value: string(c), Kind: OperatorToken, Pos: l.index - 1}, true, nil
	case '(':
		l.index++
		return Token{Value: "(", Kind: OpenParenToken, Pos: l.index - 1}, true, nil
	case ')':
		l.index++
		return Token{Value: ")", Kind: CloseParenToken, Pos: l.index - 1}, true, nil
	default:
		return Token{}, false, newLexError(&UnexpectedCharacterError{Char: c, Pos: l.index}, l.index)
	}
}
