package query

import "strings"

// Format renders e in canonical DQL. Parsing the result yields a tree equal
// to e for any tree produced by Parse.
func Format(e Expr) string {
	s, err := Visit[string](e, formatter{})
	if err != nil {
		return ""
	}
	return s
}

// FormatValue renders a field-match value or group element.
func FormatValue(v Value) string {
	switch n := v.(type) {
	case Phrase:
		return quotePhrase(n.Text)
	case Number:
		return n.Text
	case TermSearch:
		return strings.Join(n.Terms, " ")
	case Group:
		s, _ := formatter{}.VisitGroup(n)
		return s
	default:
		return ""
	}
}

type formatter struct{}

func (f formatter) VisitNot(n Not) (string, error) {
	inner, err := Visit[string](n.Operand, f)
	if err != nil {
		return "", err
	}
	switch n.Operand.(type) {
	case And, Or:
		inner = "(" + inner + ")"
	}
	return "NOT " + inner, nil
}

func (f formatter) VisitAnd(n And) (string, error) {
	return f.join(n.Operands, " AND ", func(e Expr) bool {
		switch e.(type) {
		case And, Or:
			return true
		}
		return false
	})
}

func (f formatter) VisitOr(n Or) (string, error) {
	return f.join(n.Operands, " OR ", func(e Expr) bool {
		_, ok := e.(Or)
		return ok
	})
}

func (f formatter) join(operands []Expr, sep string, needParens func(Expr) bool) (string, error) {
	parts := make([]string, len(operands))
	for i, op := range operands {
		s, err := Visit[string](op, f)
		if err != nil {
			return "", err
		}
		if needParens(op) {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func (f formatter) VisitComparison(n Comparison) (string, error) {
	return n.Field + n.Op.String() + FormatValue(n.Value), nil
}

func (f formatter) VisitFieldMatch(n FieldMatch) (string, error) {
	return n.Field + ":" + FormatValue(n.Value), nil
}

func (f formatter) VisitTermSearch(n TermSearch) (string, error) {
	return strings.Join(n.Terms, " "), nil
}

func (f formatter) VisitGroup(g Group) (string, error) {
	var sb strings.Builder
	sb.WriteByte('(')
	if g.HeadNegated {
		sb.WriteString("NOT ")
	}
	sb.WriteString(FormatValue(g.Head))
	for _, t := range g.Tail {
		sb.WriteByte(' ')
		sb.WriteString(t.Conn.String())
		sb.WriteByte(' ')
		if t.Negated {
			sb.WriteString("NOT ")
		}
		sb.WriteString(FormatValue(t.Content))
	}
	sb.WriteByte(')')
	return sb.String(), nil
}

func quotePhrase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}
