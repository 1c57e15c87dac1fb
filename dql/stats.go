package dql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage/sqlbuilder"
	"github.com/nonibytes/dql/dql/translate"
)

// DefaultTopValues is the number of values Values returns when top <= 0.
const DefaultTopValues = 20

// FieldStats summarizes the numeric values stored at a field. Elements of
// arrays count individually; non-numeric values are ignored.
type FieldStats struct {
	Field string   `json:"field" yaml:"field"`
	Count int64    `json:"count" yaml:"count"`
	Min   *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Avg   *float64 `json:"avg,omitempty" yaml:"avg,omitempty"`
}

// ValueCount is one value of a field and how often it occurs.
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int64  `json:"count" yaml:"count"`
}

// fieldSource renders the FROM clause yielding one row per element stored
// at field, restricted to documents matching q when q is not empty.
func (s *Store) fieldSource(b *sqlbuilder.Builder, field, q string) (string, error) {
	path, err := translate.FieldPath(field)
	if err != nil {
		var te *translate.Error
		if errors.As(err, &te) {
			return "", &Error{Kind: ErrTranslate, Message: te.Message, Field: te.Field}
		}
		return "", Wrap(ErrTranslate, "field path", err)
	}

	docs := s.sqlt.Data
	if q != "" {
		expr, err := query.ParseWithOptions(q, s.opts.Parse)
		if err != nil {
			return "", QueryParseError(err)
		}
		where, err := s.where(b, expr)
		if err != nil {
			return "", err
		}
		docs += " WHERE " + where
	}
	return fmt.Sprintf("(%s) AS docs, %s", docs, s.adapter.Dialect().Elements(path)), nil
}

// Stats computes count, min, max and average over the numeric values of
// field, optionally only in documents matching q.
func (s *Store) Stats(ctx context.Context, field, q string) (*FieldStats, error) {
	d := s.adapter.Dialect()
	b := sqlbuilder.New(d.Style())
	from, err := s.fieldSource(b, field, q)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT COUNT(n), MIN(n), MAX(n), AVG(n)
		FROM (SELECT %s AS n FROM %s) AS vals`, d.ElementNumber(), from)

	res := &FieldStats{Field: field}
	var minVal, maxVal, avgVal sql.NullFloat64
	err = s.db.QueryRowContext(ctx, stmt, b.Args()...).Scan(&res.Count, &minVal, &maxVal, &avgVal)
	if err != nil {
		return nil, Wrap(ErrSQL, "query stats", err)
	}
	if minVal.Valid {
		res.Min = &minVal.Float64
	}
	if maxVal.Valid {
		res.Max = &maxVal.Float64
	}
	if avgVal.Valid {
		res.Avg = &avgVal.Float64
	}
	return res, nil
}

// Values returns the most frequent values of field, most frequent first and
// ties in value order.
func (s *Store) Values(ctx context.Context, field, q string, top int) ([]ValueCount, error) {
	if top <= 0 {
		top = DefaultTopValues
	}
	d := s.adapter.Dialect()
	b := sqlbuilder.New(d.Style())
	from, err := s.fieldSource(b, field, q)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT t, COUNT(*) AS c
		FROM (SELECT %s AS t FROM %s) AS vals
		WHERE t IS NOT NULL
		GROUP BY t
		ORDER BY c DESC, t
		LIMIT %s`, d.ElementText(), from, b.Arg(top))

	rows, err := s.db.QueryContext(ctx, stmt, b.Args()...)
	if err != nil {
		return nil, Wrap(ErrSQL, "query values", err)
	}
	defer rows.Close()

	out := make([]ValueCount, 0)
	for rows.Next() {
		var vc ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, Wrap(ErrSQL, "scan value", err)
		}
		out = append(out, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap(ErrSQL, "value rows", err)
	}
	return out, nil
}
