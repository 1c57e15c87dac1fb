package translate

import (
	"strings"

	"github.com/nonibytes/dql/dql/storage/sqlbuilder"
)

// DefaultColumn is the JSON document column the store creates.
const DefaultColumn = "data"

// Dialect renders the backend specific pieces of a predicate over a JSON
// document column. Path segments handed to a dialect are already validated
// to contain only ASCII letters, digits and underscores.
type Dialect interface {
	Name() string
	Style() sqlbuilder.PlaceholderStyle
	// Elements returns a FROM source with one row per value stored at path.
	// Arrays are expanded, a scalar yields a single row and a missing path
	// yields none.
	Elements(path []string) string
	// ElementText is the text form of the current element row.
	ElementText() string
	// ElementNumber is the numeric value of the current element row, or NULL
	// when the element is not a JSON number.
	ElementNumber() string
	// DocumentText is the whole document rendered as text.
	DocumentText() string
}

type sqliteDialect struct {
	column string
}

// SQLite addresses documents stored as JSON text through the JSON1 functions.
func SQLite(column string) Dialect {
	if column == "" {
		column = DefaultColumn
	}
	return sqliteDialect{column: column}
}

func (sqliteDialect) Name() string                       { return "sqlite" }
func (sqliteDialect) Style() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderQuestion }

func (d sqliteDialect) Elements(path []string) string {
	var b strings.Builder
	b.WriteString("json_each(")
	b.WriteString(d.column)
	b.WriteString(", '$")
	for _, seg := range path {
		b.WriteString(`."`)
		b.WriteString(seg)
		b.WriteByte('"')
	}
	b.WriteString("')")
	return b.String()
}

func (sqliteDialect) ElementText() string {
	return "(CASE json_each.type WHEN 'true' THEN 'true' WHEN 'false' THEN 'false' ELSE CAST(json_each.value AS TEXT) END)"
}

func (sqliteDialect) ElementNumber() string {
	return "(CASE WHEN json_each.type IN ('integer', 'real') THEN json_each.value END)"
}

func (d sqliteDialect) DocumentText() string { return d.column }

type postgresDialect struct {
	column string
}

// Postgres addresses documents stored in a jsonb column.
func Postgres(column string) Dialect {
	if column == "" {
		column = DefaultColumn
	}
	return postgresDialect{column: column}
}

func (postgresDialect) Name() string                       { return "postgres" }
func (postgresDialect) Style() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderDollar }

func (d postgresDialect) Elements(path []string) string {
	at := d.column + " #> '{" + strings.Join(path, ",") + "}'"
	return "jsonb_array_elements(CASE jsonb_typeof(" + at + ") WHEN 'array' THEN " + at +
		" ELSE jsonb_build_array(" + at + ") END) AS elem(v)"
}

func (postgresDialect) ElementText() string { return "(elem.v #>> '{}')" }

func (postgresDialect) ElementNumber() string {
	return "(CASE WHEN jsonb_typeof(elem.v) = 'number' THEN (elem.v #>> '{}')::double precision END)"
}

func (d postgresDialect) DocumentText() string { return d.column + "::text" }
