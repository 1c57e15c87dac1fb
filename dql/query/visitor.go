package query

import "fmt"

// Visitor receives one callback per node variant. Implementations recurse
// into children themselves by calling Visit for expressions and VisitValue
// for the value of a field match, so they control traversal order and
// result shape.
type Visitor[R any] interface {
	VisitNot(Not) (R, error)
	VisitAnd(And) (R, error)
	VisitOr(Or) (R, error)
	VisitComparison(Comparison) (R, error)
	VisitFieldMatch(FieldMatch) (R, error)
	VisitTermSearch(TermSearch) (R, error)
	VisitGroup(Group) (R, error)
}

// Visit dispatches e to the matching visitor method.
func Visit[R any](e Expr, v Visitor[R]) (R, error) {
	switch n := e.(type) {
	case Not:
		return v.VisitNot(n)
	case And:
		return v.VisitAnd(n)
	case Or:
		return v.VisitOr(n)
	case Comparison:
		return v.VisitComparison(n)
	case FieldMatch:
		return v.VisitFieldMatch(n)
	case TermSearch:
		return v.VisitTermSearch(n)
	default:
		var zero R
		return zero, fmt.Errorf("unknown expression type: %T", e)
	}
}

// VisitValue dispatches the value of a field match or the content of a
// group element: Group goes to VisitGroup and TermSearch to
// VisitTermSearch. Phrase and Number have no callback of their own and are
// reported as an error; visitors handle literals directly.
func VisitValue[R any](v Value, vis Visitor[R]) (R, error) {
	switch n := v.(type) {
	case Group:
		return vis.VisitGroup(n)
	case TermSearch:
		return vis.VisitTermSearch(n)
	default:
		var zero R
		return zero, fmt.Errorf("no visitor callback for value type %T", v)
	}
}

// Walk calls fn for e and every expression or value beneath it, depth first.
// Returning false from fn skips the node's children.
func Walk(e Expr, fn func(node any) bool) {
	walkNode(e, fn)
}

func walkNode(node any, fn func(node any) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case Not:
		walkNode(n.Operand, fn)
	case And:
		for _, op := range n.Operands {
			walkNode(op, fn)
		}
	case Or:
		for _, op := range n.Operands {
			walkNode(op, fn)
		}
	case Comparison:
		walkNode(n.Value, fn)
	case FieldMatch:
		walkNode(n.Value, fn)
	case Group:
		walkNode(n.Head, fn)
		for _, t := range n.Tail {
			walkNode(t.Content, fn)
		}
	}
}
