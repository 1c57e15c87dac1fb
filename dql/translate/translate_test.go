package translate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage/sqlbuilder"
)

func translate(t *testing.T, input string, d Dialect) Result {
	t.Helper()
	expr, err := query.Parse(input)
	require.NoError(t, err, "parse %q", input)
	res, err := Translate(expr, d, DefaultOptions())
	require.NoError(t, err, "translate %q", input)
	return res
}

func TestFieldMatchTerm(t *testing.T) {
	d := SQLite("")
	res := translate(t, "status:active", d)
	want := fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(data, '$."status"') WHERE lower(%s) = ?)`, d.ElementText())
	assert.Equal(t, want, res.SQL)
	assert.Equal(t, []any{"active"}, res.Args)
}

func TestNestedFieldPath(t *testing.T) {
	d := SQLite("doc")
	res := translate(t, `user.name:"Ada"`, d)
	want := fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(doc, '$."user"."name"') WHERE %s = ?)`, d.ElementText())
	assert.Equal(t, want, res.SQL)
	assert.Equal(t, []any{"Ada"}, res.Args)
}

func TestComparisonPostgres(t *testing.T) {
	d := Postgres("")
	res := translate(t, "age>=21", d)
	src := "jsonb_array_elements(CASE jsonb_typeof(data #> '{age}') WHEN 'array' THEN data #> '{age}' ELSE jsonb_build_array(data #> '{age}') END) AS elem(v)"
	want := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s >= $1)", src, d.ElementNumber())
	assert.Equal(t, want, res.SQL)
	assert.Equal(t, []any{21.0}, res.Args)
}

func TestComparisonPhrase(t *testing.T) {
	d := SQLite("")
	res := translate(t, `name<"m"`, d)
	assert.Contains(t, res.SQL, d.ElementText()+" < ?")
	assert.Equal(t, []any{"m"}, res.Args)
}

func TestBooleanStructure(t *testing.T) {
	d := SQLite("")
	res := translate(t, `NOT a:1 AND b:"x"`, d)
	a := fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(data, '$."a"') WHERE %s = ?)`, d.ElementNumber())
	b := fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(data, '$."b"') WHERE %s = ?)`, d.ElementText())
	assert.Equal(t, "(NOT ("+a+") AND "+b+")", res.SQL)
	assert.Equal(t, []any{1.0, "x"}, res.Args)
}

func TestPostgresPlaceholdersAreNumbered(t *testing.T) {
	res := translate(t, "a:1 OR b:2 OR NOT c:3", Postgres(""))
	assert.Contains(t, res.SQL, "= $1)")
	assert.Contains(t, res.SQL, "= $2)")
	assert.Contains(t, res.SQL, "= $3)")
	assert.Equal(t, []any{1.0, 2.0, 3.0}, res.Args)
}

func TestGroupFoldsLeftToRight(t *testing.T) {
	d := SQLite("")
	res := translate(t, "tag:(a AND NOT b OR c)", d)
	term := fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(data, '$."tag"') WHERE lower(%s) = ?)`, d.ElementText())
	assert.Equal(t, "(("+term+" AND NOT ("+term+")) OR "+term+")", res.SQL)
	assert.Equal(t, []any{"a", "b", "c"}, res.Args)
}

func TestGroupLeadingNot(t *testing.T) {
	res := translate(t, "tag:(NOT archived OR draft)", SQLite(""))
	assert.Regexp(t, `^\(NOT \(EXISTS .*\) OR EXISTS .*\)$`, res.SQL)
	assert.Equal(t, []any{"archived", "draft"}, res.Args)
}

func TestGroupNeedsField(t *testing.T) {
	tr := New(SQLite(""), sqlbuilder.New(sqlbuilder.PlaceholderQuestion), DefaultOptions())
	_, err := tr.VisitGroup(query.Group{Head: query.Phrase{Text: "a"}})
	var te *Error
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Contains(t, te.Message, "without a field")
}

func TestFieldContextEndsWithFieldMatch(t *testing.T) {
	res := translate(t, `tag:(a OR "b c" OR 3) AND quick`, SQLite(""))
	assert.True(t, strings.HasPrefix(res.SQL, "(((EXISTS (SELECT 1 FROM json_each(data, '$.\"tag\"')"), res.SQL)
	assert.True(t, strings.HasSuffix(res.SQL, ` AND lower(data) LIKE ? ESCAPE '\')`), res.SQL)
	assert.Equal(t, []any{"a", "b c", 3.0, "%quick%"}, res.Args)
}

func TestFieldTermsAreOrdAndWildcardsBecomeLike(t *testing.T) {
	d := SQLite("")
	res := translate(t, "name:Jo* a_b*", d)
	elem := "lower(" + d.ElementText() + ")"
	want := fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(data, '$."name"') WHERE %s LIKE ? ESCAPE '\' OR %s LIKE ? ESCAPE '\')`, elem, elem)
	assert.Equal(t, want, res.SQL)
	assert.Equal(t, []any{"jo%", `a\_b%`}, res.Args)
}

func TestFreeTextSearch(t *testing.T) {
	res := translate(t, "quick fox*", SQLite(""))
	assert.Equal(t, `(lower(data) LIKE ? ESCAPE '\' OR lower(data) LIKE ? ESCAPE '\')`, res.SQL)
	assert.Equal(t, []any{"%quick%", "%fox%%"}, res.Args)

	res = translate(t, "quick", Postgres(""))
	assert.Equal(t, `lower(data::text) LIKE $1 ESCAPE '\'`, res.SQL)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		input string
		field string
		msg   string
	}{
		{"a*:1", "a*", "wildcard field"},
		{"n:1.2.3", "n", "not a number"},
		{"n>1.2.3", "n", "not a number"},
		{"name:*", "name", "literal characters"},
		{"a..b:1", "a..b", "empty path segment"},
	}
	for _, tt := range tests {
		expr, err := query.Parse(tt.input)
		require.NoError(t, err, "parse %q", tt.input)
		_, err = Translate(expr, SQLite(""), DefaultOptions())
		var te *Error
		require.True(t, errors.As(err, &te), "translate %q: expected *Error, got %v", tt.input, err)
		assert.Equal(t, tt.field, te.Field, tt.input)
		assert.Contains(t, te.Error(), tt.msg, tt.input)
	}
}

func TestWildcardGuardrail(t *testing.T) {
	expr, err := query.Parse("name:ab*")
	require.NoError(t, err)

	_, err = Translate(expr, SQLite(""), Options{MinWildcardLiteral: 3})
	require.Error(t, err)

	_, err = Translate(expr, SQLite(""), Options{MinWildcardLiteral: 2})
	require.NoError(t, err)
}

func TestSharedBuilderContinuesNumbering(t *testing.T) {
	d := Postgres("")
	expr, err := query.Parse("a:x")
	require.NoError(t, err)

	b := sqlbuilderWithArgs(d, "preset")
	where, err := New(d, b, DefaultOptions()).Where(expr)
	require.NoError(t, err)
	assert.Contains(t, where, "= $2)")
	assert.Equal(t, []any{"preset", "x"}, b.Args())
}

func sqlbuilderWithArgs(d Dialect, args ...any) *sqlbuilder.Builder {
	b := sqlbuilder.New(d.Style())
	for _, a := range args {
		b.Arg(a)
	}
	return b
}
