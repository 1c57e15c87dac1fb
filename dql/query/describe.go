package query

// Describe converts a node into plain maps and slices with a "type" key per
// node, suitable for JSON or YAML encoding.
func Describe(node any) map[string]any {
	switch n := node.(type) {
	case Not:
		return map[string]any{"type": "not", "operand": Describe(n.Operand)}
	case And:
		return map[string]any{"type": "and", "operands": describeAll(n.Operands)}
	case Or:
		return map[string]any{"type": "or", "operands": describeAll(n.Operands)}
	case Comparison:
		return map[string]any{
			"type":     "comparison",
			"field":    n.Field,
			"operator": n.Op.String(),
			"value":    Describe(n.Value),
		}
	case FieldMatch:
		return map[string]any{"type": "field_match", "field": n.Field, "value": Describe(n.Value)}
	case TermSearch:
		terms := make([]any, len(n.Terms))
		for i, t := range n.Terms {
			terms[i] = t
		}
		return map[string]any{"type": "term_search", "terms": terms}
	case Phrase:
		return map[string]any{"type": "phrase", "text": n.Text}
	case Number:
		return map[string]any{"type": "number", "text": n.Text}
	case Group:
		head := map[string]any{"negated": n.HeadNegated, "content": Describe(n.Head)}
		elems := []any{head}
		for _, t := range n.Tail {
			elems = append(elems, map[string]any{
				"connective": t.Conn.String(),
				"negated":    t.Negated,
				"content":    Describe(t.Content),
			})
		}
		return map[string]any{"type": "group", "elements": elems}
	default:
		return map[string]any{"type": "unknown"}
	}
}

func describeAll(exprs []Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = Describe(e)
	}
	return out
}
