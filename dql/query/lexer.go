package query

import "strings"

// Lexer tokenizes a query string
type Lexer struct {
	input []rune
	pos   int
}

// NewLexer creates a new lexer for the input string
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: []rune(input),
		pos:   0,
	}
}

// Tokenize converts the whole input into tokens. The returned slice always
// ends with a zero-width TokEOF positioned at the end of the input.
func Tokenize(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos}, nil
	}

	ch := l.input[l.pos]

	switch ch {
	case ':':
		return l.emit(TokEq, 1), nil
	case '(':
		return l.emit(TokLParen, 1), nil
	case ')':
		return l.emit(TokRParen, 1), nil
	case '>':
		if l.peek(1) == '=' {
			return l.emit(TokGe, 2), nil
		}
		return l.emit(TokGt, 1), nil
	case '<':
		if l.peek(1) == '=' {
			return l.emit(TokLe, 2), nil
		}
		return l.emit(TokLt, 1), nil
	case '"':
		return l.scanPhrase()
	}

	if isDigit(ch) || (ch == '.' && isDigit(l.peek(1))) ||
		(ch == '-' && (isDigit(l.peek(1)) || (l.peek(1) == '.' && isDigit(l.peek(2))))) {
		return l.scanNumber(), nil
	}

	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}

	return Token{}, &SyntaxError{
		Kind:   ErrInvalidCharacter,
		Offset: l.pos,
		Found:  TokInvalid,
		Text:   string(ch),
	}
}

func (l *Lexer) emit(kind TokenKind, width int) Token {
	start := l.pos
	l.pos += width
	return Token{Kind: kind, Text: string(l.input[start:l.pos]), Start: start, End: l.pos}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos < len(l.input) {
		return l.input[pos]
	}
	return 0
}

// scanPhrase keeps the raw lexeme; unescaping happens in the parser.
func (l *Lexer) scanPhrase() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '"':
			l.pos++
			return Token{Kind: TokPhrase, Text: string(l.input[start:l.pos]), Start: start, End: l.pos}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				l.pos = len(l.input)
				continue
			}
			l.pos += 2
		default:
			l.pos++
		}
	}

	return Token{}, &SyntaxError{
		Kind:   ErrUnterminatedPhrase,
		Offset: start,
		Found:  TokPhrase,
		Text:   string(l.input[start:]),
	}
}

// scanNumber reads an optional '-' followed by dot-separated digit groups,
// e.g. 12, -3.5, .25, 1.2.3. A dot is only consumed when a digit follows.
func (l *Lexer) scanNumber() Token {
	start := l.pos

	if l.input[l.pos] == '-' {
		l.pos++
	}
	if l.input[l.pos] != '.' {
		l.scanDigits()
	}
	for l.pos < len(l.input) && l.input[l.pos] == '.' && isDigit(l.peek(1)) {
		l.pos++
		l.scanDigits()
	}

	return Token{Kind: TokNumber, Text: string(l.input[start:l.pos]), Start: start, End: l.pos}
}

func (l *Lexer) scanDigits() {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos

	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}

	value := string(l.input[start:l.pos])
	kind := TokIdent

	switch strings.ToUpper(value) {
	case "AND":
		kind = TokAnd
	case "OR":
		kind = TokOr
	case "NOT":
		kind = TokNot
	}

	return Token{Kind: kind, Text: value, Start: start, End: l.pos}
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch rune) bool {
	return isLetter(ch) || ch == '_' || ch == '*'
}

func isIdentChar(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}
