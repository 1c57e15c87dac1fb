// Package translate turns a parsed DQL tree into a parameterized SQL
// boolean expression over a JSON document column.
package translate

import (
	"fmt"
	"strings"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage/sqlbuilder"
)

// Options configures translation guardrails
type Options struct {
	// MinWildcardLiteral is the number of non-wildcard characters a
	// wildcard term must carry.
	MinWildcardLiteral int
}

// DefaultOptions returns default translation options
func DefaultOptions() Options {
	return Options{MinWildcardLiteral: 1}
}

// Error reports a tree that cannot be expressed in SQL.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (field=%s)", e.Message, e.Field)
	}
	return e.Message
}

// Result is a WHERE clause body and its positional arguments.
type Result struct {
	SQL  string
	Args []any
}

// Translate renders e with a fresh builder for d.
func Translate(e query.Expr, d Dialect, opts Options) (Result, error) {
	b := sqlbuilder.New(d.Style())
	sql, err := New(d, b, opts).Where(e)
	if err != nil {
		return Result{}, err
	}
	return Result{SQL: sql, Args: b.Args()}, nil
}

// Translator is a query.Visitor producing SQL. Arguments are appended to
// the shared builder so the clause can be embedded in a larger statement.
type Translator struct {
	dialect Dialect
	builder *sqlbuilder.Builder
	opts    Options

	// field and path name the field match being rendered; path is nil at
	// the top level.
	field string
	path  []string
}

func New(d Dialect, b *sqlbuilder.Builder, opts Options) *Translator {
	return &Translator{dialect: d, builder: b, opts: opts}
}

// Where renders e as a boolean SQL expression.
func (t *Translator) Where(e query.Expr) (string, error) {
	return query.Visit[string](e, t)
}

func (t *Translator) VisitNot(n query.Not) (string, error) {
	inner, err := t.Where(n.Operand)
	if err != nil {
		return "", err
	}
	return "NOT " + paren(inner), nil
}

func (t *Translator) VisitAnd(n query.And) (string, error) {
	return t.join(n.Operands, " AND ")
}

func (t *Translator) VisitOr(n query.Or) (string, error) {
	return t.join(n.Operands, " OR ")
}

func (t *Translator) join(operands []query.Expr, sep string) (string, error) {
	parts := make([]string, len(operands))
	for i, op := range operands {
		s, err := t.Where(op)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (t *Translator) VisitComparison(n query.Comparison) (string, error) {
	path, err := FieldPath(n.Field)
	if err != nil {
		return "", err
	}
	var cond string
	switch v := n.Value.(type) {
	case query.Number:
		f, err := v.Float64()
		if err != nil {
			return "", &Error{Field: n.Field, Message: fmt.Sprintf("%q is not a number", v.Text)}
		}
		cond = fmt.Sprintf("%s %s %s", t.dialect.ElementNumber(), n.Op, t.builder.Arg(f))
	case query.Phrase:
		cond = fmt.Sprintf("%s %s %s", t.dialect.ElementText(), n.Op, t.builder.Arg(v.Text))
	default:
		return "", &Error{Field: n.Field, Message: fmt.Sprintf("unsupported comparison value %T", n.Value)}
	}
	return t.exists(path, cond), nil
}

func (t *Translator) VisitFieldMatch(n query.FieldMatch) (string, error) {
	path, err := FieldPath(n.Field)
	if err != nil {
		return "", err
	}
	t.field, t.path = n.Field, path
	defer func() { t.field, t.path = "", nil }()
	return t.value(n.Value)
}

// value renders a field match value against the current field.
func (t *Translator) value(v query.Value) (string, error) {
	switch n := v.(type) {
	case query.Phrase:
		return t.exists(t.path, t.dialect.ElementText()+" = "+t.builder.Arg(n.Text)), nil
	case query.Number:
		f, err := n.Float64()
		if err != nil {
			return "", &Error{Field: t.field, Message: fmt.Sprintf("%q is not a number", n.Text)}
		}
		return t.exists(t.path, t.dialect.ElementNumber()+" = "+t.builder.Arg(f)), nil
	default:
		return query.VisitValue[string](v, t)
	}
}

// VisitTermSearch matches the terms against the elements of the current
// field, or against the whole document text at the top level.
func (t *Translator) VisitTermSearch(n query.TermSearch) (string, error) {
	if t.path == nil {
		return t.documentTerms(n)
	}
	elem := "lower(" + t.dialect.ElementText() + ")"
	conds := make([]string, len(n.Terms))
	for i, term := range n.Terms {
		if err := t.checkWildcard(t.field, term); err != nil {
			return "", err
		}
		term = strings.ToLower(term)
		if strings.ContainsRune(term, '*') {
			conds[i] = fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, elem, t.builder.Arg(globToLike(term)))
		} else {
			conds[i] = elem + " = " + t.builder.Arg(term)
		}
	}
	return t.exists(t.path, strings.Join(conds, " OR ")), nil
}

func (t *Translator) documentTerms(n query.TermSearch) (string, error) {
	doc := "lower(" + t.dialect.DocumentText() + ")"
	conds := make([]string, len(n.Terms))
	for i, term := range n.Terms {
		if err := t.checkWildcard("", term); err != nil {
			return "", err
		}
		pattern := "%" + globToLike(strings.ToLower(term)) + "%"
		conds[i] = fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, doc, t.builder.Arg(pattern))
	}
	return orAll(conds), nil
}

// VisitGroup folds the elements left to right with their own connectives;
// there is no AND-over-OR precedence inside a group. A group only has
// meaning as the value of a field match.
func (t *Translator) VisitGroup(g query.Group) (string, error) {
	if t.path == nil {
		return "", &Error{Message: "group value without a field"}
	}
	acc, err := t.value(g.Head)
	if err != nil {
		return "", err
	}
	if g.HeadNegated {
		acc = "NOT " + paren(acc)
	}
	for _, term := range g.Tail {
		s, err := t.value(term.Content)
		if err != nil {
			return "", err
		}
		if term.Negated {
			s = "NOT " + paren(s)
		}
		acc = fmt.Sprintf("(%s %s %s)", acc, term.Conn, s)
	}
	return acc, nil
}

func (t *Translator) exists(path []string, cond string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", t.dialect.Elements(path), cond)
}

func (t *Translator) checkWildcard(field, term string) error {
	if !strings.ContainsRune(term, '*') {
		return nil
	}
	literal := len(strings.ReplaceAll(term, "*", ""))
	if literal < t.opts.MinWildcardLiteral {
		return &Error{
			Field:   field,
			Message: fmt.Sprintf("wildcard pattern '%s' needs at least %d literal characters", term, t.opts.MinWildcardLiteral),
		}
	}
	return nil
}

// FieldPath splits a dotted field name into JSON path segments. Every
// segment must be non-empty and made of ASCII letters, digits and
// underscores.
func FieldPath(field string) ([]string, error) {
	if strings.ContainsRune(field, '*') {
		return nil, &Error{Field: field, Message: "wildcard field names cannot be addressed"}
	}
	segs := strings.Split(field, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, &Error{Field: field, Message: "empty path segment"}
		}
		for _, r := range seg {
			if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return nil, &Error{Field: field, Message: fmt.Sprintf("invalid character %q in field name", r)}
			}
		}
	}
	return segs, nil
}

// globToLike converts a * pattern into a SQL LIKE pattern, escaping %, _
// and \ for use with ESCAPE '\'.
func globToLike(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 8)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func orAll(conds []string) string {
	if len(conds) == 1 {
		return conds[0]
	}
	return "(" + strings.Join(conds, " OR ") + ")"
}

func paren(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && balanced(s[1:len(s)-1]) {
		return s
	}
	return "(" + s + ")"
}

// balanced reports whether s never closes a parenthesis it did not open,
// ignoring quoted SQL string literals.
func balanced(s string) bool {
	depth := 0
	quoted := false
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
		case quoted:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
