// Package dql stores JSON documents in SQLite or PostgreSQL and searches
// them with DQL queries.
package dql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage"
	"github.com/nonibytes/dql/dql/storage/sqlbuilder"
	"github.com/nonibytes/dql/dql/translate"
)

// Store is an open document store. It is safe for concurrent use.
type Store struct {
	adapter storage.Adapter
	db      *sql.DB
	table   string
	sqlt    storage.SQL
	opts    Options
	log     zerolog.Logger
	parsers fastjson.ParserPool
}

// Create creates the document table and opens the store
func Create(ctx context.Context, adapter storage.Adapter, opts Options) (*Store, error) {
	opts = withDefaults(opts)
	if !storage.ValidIdent(opts.Table) {
		return nil, &Error{Kind: ErrConfig, Message: fmt.Sprintf("invalid table name %q", opts.Table)}
	}

	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}
	if err := adapter.CreateStore(ctx, db, opts.Table); err != nil {
		db.Close()
		return nil, Wrap(ErrSQL, "create store", err)
	}
	return newStore(adapter, db, opts.Table, opts), nil
}

// Open opens an existing store
func Open(ctx context.Context, adapter storage.Adapter, opts Options) (*Store, error) {
	opts = withDefaults(opts)

	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}
	table, err := adapter.OpenStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, Wrap(ErrSQL, "open store", err)
	}
	return newStore(adapter, db, table, opts), nil
}

func newStore(adapter storage.Adapter, db *sql.DB, table string, opts Options) *Store {
	log := opts.Logger.With().
		Str("backend", string(adapter.Backend())).
		Str("store", adapter.StoreID()).
		Str("table", table).
		Logger()
	log.Debug().Msg("store opened")
	return &Store{
		adapter: adapter,
		db:      db,
		table:   table,
		sqlt:    adapter.SQL(table),
		opts:    opts,
		log:     log,
	}
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Table == "" {
		opts.Table = def.Table
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.Parse.MaxDepth <= 0 {
		opts.Parse = def.Parse
	}
	return opts
}

// Close closes the store
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return Wrap(ErrIO, "close database", err)
		}
	}
	return s.adapter.Close()
}

// Table returns the document table name
func (s *Store) Table() string { return s.table }

func (s *Store) nowMS() int64 {
	return s.opts.Now().UnixMilli()
}

// Put inserts or replaces a document and returns its id. The id is taken
// from the document's "id" member or generated when absent.
func (s *Store) Put(ctx context.Context, doc []byte) (string, error) {
	p := s.parsers.Get()
	defer s.parsers.Put(p)

	id, data, err := prepareDocument(p, doc)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, s.sqlt.Upsert, id, string(data), s.nowMS()); err != nil {
		return "", Wrap(ErrSQL, "upsert document", err)
	}
	s.log.Debug().Str("id", id).Int("bytes", len(data)).Msg("put")
	return id, nil
}

// Get returns the document with the given id
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	var data string
	var created int64
	err := s.db.QueryRowContext(ctx, s.sqlt.Get, id).Scan(&data, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, NotFoundError(id)
	}
	if err != nil {
		return Document{}, Wrap(ErrSQL, "get document", err)
	}
	return Document{ID: id, Data: []byte(data), CreatedAtMS: created}, nil
}

// Delete removes a document. Deleting a missing id is a not_found error.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.sqlt.Delete, id)
	if err != nil {
		return Wrap(ErrSQL, "delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Wrap(ErrSQL, "delete document", err)
	}
	if n == 0 {
		return NotFoundError(id)
	}
	s.log.Debug().Str("id", id).Msg("delete")
	return nil
}

// DeleteWhere removes every document matching q and returns how many were
// removed.
func (s *Store) DeleteWhere(ctx context.Context, q string) (int64, error) {
	expr, err := query.ParseWithOptions(q, s.opts.Parse)
	if err != nil {
		return 0, QueryParseError(err)
	}
	b := sqlbuilder.New(s.adapter.Dialect().Style())
	where, err := s.where(b, expr)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, s.sqlt.DeleteFrom+" WHERE "+where, b.Args()...)
	if err != nil {
		return 0, Wrap(ErrSQL, "delete documents", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, Wrap(ErrSQL, "delete documents", err)
	}
	s.log.Debug().Str("query", query.Format(expr)).Int64("deleted", n).Msg("delete where")
	return n, nil
}

// Count returns the number of stored documents
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.sqlt.Count).Scan(&n); err != nil {
		return 0, Wrap(ErrSQL, "count documents", err)
	}
	return n, nil
}

// CountMatching returns the number of documents matching q.
func (s *Store) CountMatching(ctx context.Context, q string) (int64, error) {
	expr, err := query.ParseWithOptions(q, s.opts.Parse)
	if err != nil {
		return 0, QueryParseError(err)
	}
	b := sqlbuilder.New(s.adapter.Dialect().Style())
	where, err := s.where(b, expr)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, s.sqlt.Count+" WHERE "+where, b.Args()...).Scan(&n); err != nil {
		return 0, Wrap(ErrSQL, "count documents", err)
	}
	return n, nil
}

// Optimize runs backend maintenance
func (s *Store) Optimize(ctx context.Context) error {
	if err := s.adapter.Optimize(ctx, s.db); err != nil {
		return Wrap(ErrSQL, "optimize", err)
	}
	return nil
}

// Compile parses q and renders the WHERE clause the store would run,
// without executing it.
func (s *Store) Compile(q string) (Explain, error) {
	expr, err := query.ParseWithOptions(q, s.opts.Parse)
	if err != nil {
		return Explain{}, QueryParseError(err)
	}
	b := sqlbuilder.New(s.adapter.Dialect().Style())
	where, err := s.where(b, expr)
	if err != nil {
		return Explain{}, err
	}
	return Explain{Query: query.Format(expr), SQL: where, Args: b.Args()}, nil
}

func (s *Store) where(b *sqlbuilder.Builder, expr query.Expr) (string, error) {
	where, err := translate.New(s.adapter.Dialect(), b, s.opts.Translate).Where(expr)
	if err != nil {
		var te *translate.Error
		if errors.As(err, &te) {
			return "", &Error{Kind: ErrTranslate, Message: te.Message, Field: te.Field}
		}
		return "", Wrap(ErrTranslate, "translate query", err)
	}
	return where, nil
}

// Search returns documents matching q in insertion order.
func (s *Store) Search(ctx context.Context, q string, opts SearchOptions) (*SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	start := time.Now()
	expr, err := query.ParseWithOptions(q, s.opts.Parse)
	if err != nil {
		s.log.Debug().Err(err).Str("query", q).Msg("parse failed")
		return nil, QueryParseError(err)
	}
	parsed := time.Since(start)
	canonical := query.Format(expr)
	hash := hashQuery(s.table, canonical)

	b := sqlbuilder.New(s.adapter.Dialect().Style())
	where, err := s.where(b, expr)
	if err != nil {
		return nil, err
	}
	steps := []string{
		fmt.Sprintf("PARSE %s", canonical),
		fmt.Sprintf("FILTER %d fields", len(query.Fields(expr))),
	}

	stmt := s.sqlt.Select + " WHERE " + where
	if opts.After != "" {
		pos, err := decodeCursor(opts.After, hash)
		if err != nil {
			return nil, err
		}
		stmt += " AND seq > " + b.Arg(pos.Seq)
		steps = append(steps, fmt.Sprintf("AFTER seq %d", pos.Seq))
	}
	stmt += " " + s.sqlt.OrderBy + " LIMIT " + b.Arg(limit+1)
	steps = append(steps, fmt.Sprintf("LIMIT %d", limit))
	translated := time.Since(start) - parsed

	rows, err := s.db.QueryContext(ctx, stmt, b.Args()...)
	if err != nil {
		return nil, Wrap(ErrSQL, "search", err)
	}
	defer rows.Close()

	res := &SearchResult{Documents: make([]Document, 0)}
	var lastSeq int64
	more := false
	for rows.Next() {
		if len(res.Documents) == limit {
			more = true
			break
		}
		var (
			seq  int64
			doc  Document
			data string
		)
		if err := rows.Scan(&seq, &doc.ID, &data, &doc.CreatedAtMS); err != nil {
			return nil, Wrap(ErrSQL, "scan document", err)
		}
		doc.Data = []byte(data)
		res.Documents = append(res.Documents, doc)
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap(ErrSQL, "search rows", err)
	}

	if more {
		next, err := encodeCursor(cursorPosition{Seq: lastSeq, Hash: hash})
		if err != nil {
			return nil, err
		}
		res.NextCursor = next
	}
	if opts.Explain {
		res.Explain = &Explain{Query: canonical, SQL: stmt, Args: b.Args(), Steps: steps}
	}

	s.log.Debug().
		Str("query", canonical).
		Object("opts", opts).
		Dur("parse", parsed).
		Dur("translate", translated).
		Dur("total", time.Since(start)).
		Int("hits", len(res.Documents)).
		Msg("search")
	return res, nil
}
