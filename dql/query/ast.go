package query

import (
	"strconv"
	"strings"
)

// Expr represents a query expression
type Expr interface {
	isExpr()
}

// Value is the right-hand side of a field match and the content of a
// group element: a Phrase, a Number, a TermSearch or a nested Group.
type Value interface {
	isValue()
}

// Literal is a Phrase or a Number.
type Literal interface {
	Value
	isLiteral()
}

// Not represents a boolean NOT of an expression
type Not struct {
	Operand Expr
}

func (Not) isExpr() {}

// And is a conjunction of two or more operands, none of which is an And.
type And struct {
	Operands []Expr
}

func (And) isExpr() {}

// Or is a disjunction of two or more operands, none of which is an Or.
type Or struct {
	Operands []Expr
}

func (Or) isExpr() {}

// CmpOp is a comparison operator
type CmpOp int

const (
	CmpGt CmpOp = iota
	CmpLt
	CmpGe
	CmpLe
)

func (op CmpOp) String() string {
	switch op {
	case CmpGt:
		return ">"
	case CmpLt:
		return "<"
	case CmpGe:
		return ">="
	case CmpLe:
		return "<="
	default:
		return "?"
	}
}

func cmpOpFor(k TokenKind) CmpOp {
	switch k {
	case TokLt:
		return CmpLt
	case TokGe:
		return CmpGe
	case TokLe:
		return CmpLe
	default:
		return CmpGt
	}
}

// Comparison is a range test such as age>=21.
type Comparison struct {
	Field string
	Op    CmpOp
	Value Literal
}

func (Comparison) isExpr() {}

// FieldMatch is an equality or containment test such as status:active.
type FieldMatch struct {
	Field string
	Value Value
}

func (FieldMatch) isExpr() {}

// TermSearch is a run of bare terms. It is a standalone expression at the top
// level and a value on the right of a field match.
type TermSearch struct {
	Terms []string
}

func (TermSearch) isExpr()  {}
func (TermSearch) isValue() {}

// Phrase is a quoted string with escapes removed.
type Phrase struct {
	Text string
}

func (Phrase) isValue()   {}
func (Phrase) isLiteral() {}

// Number keeps the exact lexeme, e.g. "-3.50" or "1.2.3".
type Number struct {
	Text string
}

func (Number) isValue()   {}
func (Number) isLiteral() {}

// Float64 converts the lexeme. Multi-dot lexemes such as 1.2.3 fail.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(n.Text, 64)
}

// Connective joins group elements.
type Connective int

const (
	ConnOr Connective = iota
	ConnAnd
)

func (c Connective) String() string {
	if c == ConnAnd {
		return "AND"
	}
	return "OR"
}

// Group is a parenthesized value list such as (a OR b AND NOT c). It is
// evaluated strictly left to right: AND and OR have equal precedence here,
// unlike at the top level.
type Group struct {
	HeadNegated bool
	Head        Value
	Tail        []GroupTerm
}

func (Group) isValue() {}

// GroupTerm is one (connective, negation, content) element after the head.
type GroupTerm struct {
	Conn    Connective
	Negated bool
	Content Value
}

// Len returns the number of content elements in the group.
func (g Group) Len() int {
	return 1 + len(g.Tail)
}

// unescapePhrase strips the quotes of a PHRASE lexeme and resolves its
// escapes. ok is false when raw is not a quoted lexeme.
func unescapePhrase(raw string) (text string, ok bool) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", false
	}
	inner := raw[1 : len(raw)-1]
	if !strings.Contains(inner, `\`) {
		return inner, true
	}
	var sb strings.Builder
	rs := []rune(inner)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '\\' && i+1 < len(rs) {
			i++
		}
		sb.WriteRune(rs[i])
	}
	return sb.String(), true
}
