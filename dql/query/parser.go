package query

import "fmt"

// DefaultMaxDepth bounds nested parentheses, groups and NOT chains.
const DefaultMaxDepth = 128

// Options configures parsing
type Options struct {
	MaxDepth int
}

// DefaultOptions returns default parse options
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

// Parse parses a query string into an expression AST
func Parse(input string) (Expr, error) {
	return ParseWithOptions(input, DefaultOptions())
}

// ParseWithOptions tokenizes and parses input.
func ParseWithOptions(input string, opts Options) (Expr, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return ParseTokensWithOptions(tokens, opts)
}

// ParseTokens parses a token sequence produced by Tokenize. A missing EOF
// sentinel is implied after the last token.
func ParseTokens(tokens []Token) (Expr, error) {
	return ParseTokensWithOptions(tokens, DefaultOptions())
}

// ParseTokensWithOptions parses tokens with explicit options.
func ParseTokensWithOptions(tokens []Token, opts Options) (Expr, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	p := &parser{tokens: tokens, maxDepth: opts.MaxDepth}
	return p.parseQuery()
}

type parser struct {
	tokens []Token
	pos    int

	depth    int
	maxDepth int

	// token kinds tested at expectPos, reported on failure
	expectPos int
	expected  kindSet
}

func (p *parser) parseQuery() (Expr, error) {
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.match(TokEOF) {
		return nil, p.fail()
	}
	return expr, nil
}

func (p *parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	var operands []Expr
	for p.match(TokOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if operands == nil {
			operands = flattenOr(nil, first)
		}
		operands = flattenOr(operands, right)
	}

	if operands == nil {
		return first, nil
	}
	return Or{Operands: operands}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	var operands []Expr
	for p.match(TokAnd) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if operands == nil {
			operands = flattenAnd(nil, first)
		}
		operands = flattenAnd(operands, right)
	}

	if operands == nil {
		return first, nil
	}
	return And{Operands: operands}, nil
}

// parseNot handles NOT chains iteratively; each NOT still counts towards
// the nesting limit.
func (p *parser) parseNot() (Expr, error) {
	negations := 0
	defer func() { p.depth -= negations }()
	for p.match(TokNot) {
		if err := p.enter(); err != nil {
			return nil, err
		}
		p.advance()
		negations++
	}

	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for i := 0; i < negations; i++ {
		expr = Not{Operand: expr}
	}
	return expr, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	// Parenthesized expression
	if p.match(TokLParen) {
		if err := p.enter(); err != nil {
			return nil, err
		}
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(TokRParen) {
			return nil, p.fail()
		}
		p.advance()
		p.leave()
		return expr, nil
	}

	if !p.match(TokIdent) {
		return nil, p.fail()
	}

	// field:value and field>value share an IDENTIFIER prefix with a bare
	// term search, so look one token past the identifier first.
	next := p.peek(1).Kind
	switch {
	case next == TokEq:
		return p.parseFieldMatch()
	case isComparisonOp(next):
		return p.parseComparison()
	default:
		return p.parseTermSearch(), nil
	}
}

func (p *parser) parseComparison() (Expr, error) {
	field := p.current().Text
	p.advance()
	op := cmpOpFor(p.current().Kind)
	p.advance()

	phrase := p.match(TokPhrase)
	if !phrase && !p.match(TokNumber) {
		return nil, p.fail()
	}

	tok := p.current()
	if phrase {
		text, ok := unescapePhrase(tok.Text)
		if !ok {
			return nil, p.malformedPhrase()
		}
		if text == "" {
			err := p.fail()
			err.Message = "comparison value cannot be an empty phrase"
			return nil, err
		}
		p.advance()
		return Comparison{Field: field, Op: op, Value: Phrase{Text: text}}, nil
	}
	p.advance()
	return Comparison{Field: field, Op: op, Value: Number{Text: tok.Text}}, nil
}

func (p *parser) parseFieldMatch() (Expr, error) {
	field := p.current().Text
	p.advance() // field
	p.advance() // ':'

	if p.match(TokLParen) {
		group, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		return FieldMatch{Field: field, Value: group}, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return FieldMatch{Field: field, Value: value}, nil
}

// parseValue reads PHRASE | NUMBER | TermSearch.
func (p *parser) parseValue() (Value, error) {
	switch {
	case p.match(TokPhrase):
		text, ok := unescapePhrase(p.current().Text)
		if !ok {
			return nil, p.malformedPhrase()
		}
		p.advance()
		return Phrase{Text: text}, nil
	case p.match(TokNumber):
		text := p.current().Text
		p.advance()
		return Number{Text: text}, nil
	case p.match(TokIdent):
		return p.parseTermSearch(), nil
	default:
		return nil, p.fail()
	}
}

// parseTermSearch consumes identifiers greedily but leaves an identifier
// that starts a field match or comparison for the caller. The current
// token must be an identifier.
func (p *parser) parseTermSearch() TermSearch {
	terms := []string{p.current().Text}
	p.advance()
	for {
		if p.current().Kind == TokIdent && p.fieldAhead() {
			break
		}
		if !p.match(TokIdent) {
			break
		}
		terms = append(terms, p.current().Text)
		p.advance()
	}
	return TermSearch{Terms: terms}
}

// parseGroup reads LPAREN NOT? content ((OR|AND) NOT? content)* RPAREN.
func (p *parser) parseGroup() (Group, error) {
	if err := p.enter(); err != nil {
		return Group{}, err
	}
	p.advance() // '('

	var g Group
	if p.match(TokNot) {
		p.advance()
		g.HeadNegated = true
	}
	head, err := p.parseGroupContent()
	if err != nil {
		return Group{}, err
	}
	g.Head = head

	for {
		var conn Connective
		if p.match(TokOr) {
			conn = ConnOr
		} else if p.match(TokAnd) {
			conn = ConnAnd
		} else {
			break
		}
		p.advance()

		term := GroupTerm{Conn: conn}
		if p.match(TokNot) {
			p.advance()
			term.Negated = true
		}
		content, err := p.parseGroupContent()
		if err != nil {
			return Group{}, err
		}
		term.Content = content
		g.Tail = append(g.Tail, term)
	}

	if !p.match(TokRParen) {
		return Group{}, p.fail()
	}
	p.advance()
	p.leave()
	return g, nil
}

func (p *parser) parseGroupContent() (Value, error) {
	if p.match(TokLParen) {
		return p.parseGroup()
	}
	return p.parseValue()
}

func (p *parser) fieldAhead() bool {
	next := p.peek(1).Kind
	return next == TokEq || isComparisonOp(next)
}

func (p *parser) enter() error {
	if p.depth >= p.maxDepth {
		tok := p.current()
		return &SyntaxError{
			Kind:    ErrNestingTooDeep,
			Offset:  tok.Start,
			Found:   tok.Kind,
			Text:    tok.Text,
			Message: fmt.Sprintf("maximum nesting depth %d exceeded", p.maxDepth),
		}
	}
	p.depth++
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) current() Token {
	return p.peek(0)
}

func (p *parser) peek(offset int) Token {
	pos := p.pos + offset
	if pos < len(p.tokens) {
		return p.tokens[pos]
	}
	end := 0
	if n := len(p.tokens); n > 0 {
		end = p.tokens[n-1].End
	}
	return Token{Kind: TokEOF, Start: end, End: end}
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// match reports whether the current token has the given kind and records
// the kind as acceptable at the current position.
func (p *parser) match(kind TokenKind) bool {
	if p.pos != p.expectPos {
		p.expectPos = p.pos
		p.expected = 0
	}
	p.expected.add(kind)
	return p.current().Kind == kind
}

func (p *parser) fail() *SyntaxError {
	tok := p.current()
	kind := ErrSyntax
	if tok.Kind == TokEOF {
		kind = ErrUnexpectedEOF
	}
	var expected []TokenKind
	if p.expectPos == p.pos {
		expected = p.expected.kinds()
	}
	return &SyntaxError{
		Kind:     kind,
		Offset:   tok.Start,
		Expected: expected,
		Found:    tok.Kind,
		Text:     tok.Text,
	}
}

// malformedPhrase reports a PHRASE token whose text is not a quoted
// lexeme. Only hand-built token slices can carry one.
func (p *parser) malformedPhrase() *SyntaxError {
	err := p.fail()
	err.Message = "phrase token is not quoted"
	return err
}

func flattenOr(operands []Expr, e Expr) []Expr {
	if or, ok := e.(Or); ok {
		return append(operands, or.Operands...)
	}
	return append(operands, e)
}

func flattenAnd(operands []Expr, e Expr) []Expr {
	if and, ok := e.(And); ok {
		return append(operands, and.Operands...)
	}
	return append(operands, e)
}
