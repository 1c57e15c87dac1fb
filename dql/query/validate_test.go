package query

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheckShapeAcceptsParsedTrees(t *testing.T) {
	for _, input := range []string{
		"status:active",
		"a:1 OR b:2 AND NOT c:3",
		`tag:(NOT x AND "y" OR (z OR 4))`,
		"age>=21 AND name:jo*",
	} {
		expr, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if err := CheckShape(expr); err != nil {
			t.Errorf("CheckShape(%q): %v", input, err)
		}
	}
}

func TestCheckShapeRejects(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"nil", nil, "nil expression"},
		{"single and", And{Operands: []Expr{ts("a")}}, "at least 2"},
		{"nested and", And{Operands: []Expr{ts("a"), And{Operands: []Expr{ts("b"), ts("c")}}}}, "AND directly contains AND"},
		{"nested or", Or{Operands: []Expr{Or{Operands: []Expr{ts("b"), ts("c")}}, ts("a")}}, "OR directly contains OR"},
		{"empty terms", TermSearch{}, "empty term search"},
		{"no field", FieldMatch{Value: ts("x")}, "without field"},
		{"empty comparison phrase", Comparison{Field: "a", Op: CmpGt, Value: Phrase{}}, "empty phrase"},
		{"empty group term", fm("f", Group{Head: ts("a"), Tail: []GroupTerm{{Content: TermSearch{}}}}), "empty term search"},
	}
	for _, tt := range tests {
		err := CheckShape(tt.expr)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestFields(t *testing.T) {
	expr, err := Parse("status:active AND (age>21 OR status:pending) AND region:(a OR b) AND free text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"status", "age", "region"}
	if diff := cmp.Diff(want, Fields(expr)); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDepth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"a", 1},
		{"NOT a", 2},
		{"a AND b", 2},
		{"a AND (b OR NOT c)", 4},
		{"f:(a OR (b AND c))", 3},
	}
	for _, tt := range tests {
		expr, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.input, err)
		}
		if got := Depth(expr); got != tt.want {
			t.Errorf("Depth(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// countingVisitor counts leaf expressions, recursing through And/Or/Not.
type countingVisitor struct{}

func (c countingVisitor) VisitNot(n Not) (int, error) { return Visit[int](n.Operand, c) }
func (c countingVisitor) VisitAnd(n And) (int, error) { return c.sum(n.Operands) }
func (c countingVisitor) VisitOr(n Or) (int, error)   { return c.sum(n.Operands) }
func (c countingVisitor) VisitComparison(Comparison) (int, error) {
	return 1, nil
}
func (c countingVisitor) VisitFieldMatch(FieldMatch) (int, error) { return 1, nil }
func (c countingVisitor) VisitTermSearch(TermSearch) (int, error) { return 1, nil }
func (c countingVisitor) VisitGroup(Group) (int, error)           { return 0, nil }

func (c countingVisitor) sum(exprs []Expr) (int, error) {
	total := 0
	for _, e := range exprs {
		n, err := Visit[int](e, c)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func TestVisit(t *testing.T) {
	expr, err := Parse("a:1 OR NOT b>2 AND (c OR d:(x OR y))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := Visit[int](expr, countingVisitor{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 leaves, got %d", n)
	}

	if _, err := Visit[int](nil, countingVisitor{}); err == nil {
		t.Error("expected error for nil expression")
	}
}

// recordingVisitor lists the callbacks it receives, descending into field
// match values through VisitValue.
type recordingVisitor struct {
	calls []string
}

func (r *recordingVisitor) VisitNot(n Not) (int, error) {
	r.calls = append(r.calls, "not")
	return Visit[int](n.Operand, r)
}

func (r *recordingVisitor) VisitAnd(n And) (int, error) {
	r.calls = append(r.calls, "and")
	for _, op := range n.Operands {
		if _, err := Visit[int](op, r); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func (r *recordingVisitor) VisitOr(n Or) (int, error) {
	r.calls = append(r.calls, "or")
	return 0, nil
}

func (r *recordingVisitor) VisitComparison(n Comparison) (int, error) {
	r.calls = append(r.calls, "comparison:"+n.Field)
	return 0, nil
}

func (r *recordingVisitor) VisitFieldMatch(n FieldMatch) (int, error) {
	r.calls = append(r.calls, "field:"+n.Field)
	switch n.Value.(type) {
	case Phrase, Number:
		return 0, nil
	}
	return VisitValue[int](n.Value, r)
}

func (r *recordingVisitor) VisitTermSearch(n TermSearch) (int, error) {
	r.calls = append(r.calls, "terms:"+strings.Join(n.Terms, ","))
	return 0, nil
}

func (r *recordingVisitor) VisitGroup(g Group) (int, error) {
	r.calls = append(r.calls, "group")
	contents := []Value{g.Head}
	for _, t := range g.Tail {
		contents = append(contents, t.Content)
	}
	for _, c := range contents {
		switch c.(type) {
		case Phrase, Number:
			continue
		}
		if _, err := VisitValue[int](c, r); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func TestVisitValueReachesGroup(t *testing.T) {
	expr, err := Parse(`tag:(a OR ("x" AND b c)) AND NOT age>3 AND f:g`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := &recordingVisitor{}
	if _, err := Visit[int](expr, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"and",
		"field:tag", "group", "terms:a", "group", "terms:b,c",
		"not", "comparison:age",
		"field:f", "terms:g",
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
	}

	for _, v := range []Value{Phrase{Text: "x"}, Number{Text: "1"}, nil} {
		if _, err := VisitValue[int](v, r); err == nil {
			t.Errorf("VisitValue(%#v): expected error", v)
		}
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	expr, err := Parse("f:(a OR b) AND NOT g:c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var seen []string
	Walk(expr, func(node any) bool {
		switch n := node.(type) {
		case Not:
			seen = append(seen, "not")
			return false
		case FieldMatch:
			seen = append(seen, "field:"+n.Field)
		case Group:
			seen = append(seen, "group")
		case TermSearch:
			seen = append(seen, "terms:"+strings.Join(n.Terms, ","))
		}
		return true
	})
	want := []string{"field:f", "group", "terms:a", "terms:b", "not"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("Walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe(t *testing.T) {
	expr, err := Parse(`age>=21 AND tag:(NOT "x")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"type": "and",
		"operands": []any{
			map[string]any{
				"type":     "comparison",
				"field":    "age",
				"operator": ">=",
				"value":    map[string]any{"type": "number", "text": "21"},
			},
			map[string]any{
				"type":  "field_match",
				"field": "tag",
				"value": map[string]any{
					"type": "group",
					"elements": []any{
						map[string]any{"negated": true, "content": map[string]any{"type": "phrase", "text": "x"}},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, Describe(expr)); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}
