package dql

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage"
	"github.com/nonibytes/dql/dql/translate"
)

const (
	DefaultLimit = 50
	MaxLimit     = 10000
)

// Options configures store behavior
type Options struct {
	// Table is used by Create; Open reads it from the store meta.
	Table     string
	Parse     query.Options
	Translate translate.Options
	Logger    zerolog.Logger
	Now       func() time.Time
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Table:     storage.DefaultTable,
		Parse:     query.DefaultOptions(),
		Translate: translate.DefaultOptions(),
		Logger:    zerolog.Nop(),
		Now:       time.Now,
	}
}

// SearchOptions configures a search operation
type SearchOptions struct {
	Limit   int
	After   string // cursor token or ""
	Explain bool
}

// MarshalZerologObject formats the options for logging purposes
func (o SearchOptions) MarshalZerologObject(e *zerolog.Event) {
	e.Int("limit", o.Limit)
	e.Bool("paged", o.After != "")
	e.Bool("explain", o.Explain)
}

// Document is a stored JSON document.
type Document struct {
	ID          string          `json:"id" yaml:"id"`
	Data        json.RawMessage `json:"data" yaml:"-"`
	CreatedAtMS int64           `json:"created_at_ms" yaml:"created_at_ms"`
}

// Explain describes how a search was executed.
type Explain struct {
	Query string   `json:"query" yaml:"query"`
	SQL   string   `json:"sql" yaml:"sql"`
	Args  []any    `json:"args" yaml:"args"`
	Steps []string `json:"steps" yaml:"steps"`
}

type SearchResult struct {
	Documents  []Document `json:"documents"`
	NextCursor string     `json:"next_cursor,omitempty"`
	Explain    *Explain   `json:"explain,omitempty"`
}
