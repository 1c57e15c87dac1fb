package query

import "fmt"

// CheckShape verifies the structural invariants that Parse guarantees:
// And/Or have at least two operands and never directly contain a node of
// the same kind, term searches are non-empty, fields are named, and a
// comparison never carries an empty phrase. It is meant for trees built by
// hand or received from elsewhere.
func CheckShape(e Expr) error {
	switch n := e.(type) {
	case nil:
		return fmt.Errorf("nil expression")
	case Not:
		return CheckShape(n.Operand)
	case And:
		if len(n.Operands) < 2 {
			return fmt.Errorf("AND needs at least 2 operands, got %d", len(n.Operands))
		}
		for _, op := range n.Operands {
			if _, ok := op.(And); ok {
				return fmt.Errorf("AND directly contains AND")
			}
			if err := CheckShape(op); err != nil {
				return err
			}
		}
	case Or:
		if len(n.Operands) < 2 {
			return fmt.Errorf("OR needs at least 2 operands, got %d", len(n.Operands))
		}
		for _, op := range n.Operands {
			if _, ok := op.(Or); ok {
				return fmt.Errorf("OR directly contains OR")
			}
			if err := CheckShape(op); err != nil {
				return err
			}
		}
	case Comparison:
		if n.Field == "" {
			return fmt.Errorf("comparison without field")
		}
		switch v := n.Value.(type) {
		case Phrase:
			if v.Text == "" {
				return fmt.Errorf("comparison on %s has an empty phrase", n.Field)
			}
		case Number:
		default:
			return fmt.Errorf("comparison on %s needs a phrase or number, got %T", n.Field, n.Value)
		}
	case FieldMatch:
		if n.Field == "" {
			return fmt.Errorf("field match without field")
		}
		return checkValue(n.Value)
	case TermSearch:
		if len(n.Terms) == 0 {
			return fmt.Errorf("empty term search")
		}
	default:
		return fmt.Errorf("unknown expression type: %T", e)
	}
	return nil
}

func checkValue(v Value) error {
	switch n := v.(type) {
	case Phrase, Number:
		return nil
	case TermSearch:
		return CheckShape(n)
	case Group:
		if err := checkValue(n.Head); err != nil {
			return err
		}
		for _, t := range n.Tail {
			if err := checkValue(t.Content); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}
}

// Fields returns the distinct field names referenced by e, in first-seen order.
func Fields(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(e, func(node any) bool {
		var field string
		switch n := node.(type) {
		case Comparison:
			field = n.Field
		case FieldMatch:
			field = n.Field
		default:
			return true
		}
		if !seen[field] {
			seen[field] = true
			out = append(out, field)
		}
		return true
	})
	return out
}

// Depth returns the nesting depth of e, counting each Not, And, Or and
// Group level. A lone atom has depth 1.
func Depth(node any) int {
	switch n := node.(type) {
	case Not:
		return 1 + Depth(n.Operand)
	case And:
		return 1 + maxDepth(n.Operands)
	case Or:
		return 1 + maxDepth(n.Operands)
	case FieldMatch:
		if g, ok := n.Value.(Group); ok {
			return Depth(g)
		}
		return 1
	case Group:
		d := Depth(n.Head)
		for _, t := range n.Tail {
			if td := Depth(t.Content); td > d {
				d = td
			}
		}
		return 1 + d
	default:
		return 1
	}
}

func maxDepth(exprs []Expr) int {
	d := 0
	for _, e := range exprs {
		if ed := Depth(e); ed > d {
			d = ed
		}
	}
	return d
}
