package storage

import (
	"context"
	"database/sql"
	"regexp"

	"github.com/nonibytes/dql/dql/translate"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// DefaultTable is the document table a store uses unless configured otherwise.
const DefaultTable = "documents"

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	Dialect() translate.Dialect
	StoreID() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// CreateStore creates the document table and records it in the meta table.
	CreateStore(ctx context.Context, db *sql.DB, table string) error
	// OpenStore checks the meta table and returns the document table name.
	OpenStore(ctx context.Context, db *sql.DB) (table string, err error)
	Optimize(ctx context.Context, db *sql.DB) error

	SQL(table string) SQL
}

// SQL holds prepared SQL templates for one document table
type SQL struct {
	// Upsert takes id, data and created_at (unix ms). An existing document
	// keeps its created_at and insertion position.
	Upsert string
	// Get takes id and yields data, created_at.
	Get    string
	Delete string
	Count  string
	// Select lists seq, id, data, created_at; callers append WHERE and
	// ORDER BY.
	Select string
	// OrderBy orders documents by insertion.
	OrderBy string
	// Data selects only the document column; callers append WHERE.
	Data string
	// DeleteFrom deletes without a condition; callers append WHERE.
	DeleteFrom string
}

// Meta keys shared by all backends.
const (
	MetaMagic   = "dql_magic"
	MetaVersion = "dql_version"
	MetaTable   = "dql_table"

	Magic   = "dql"
	Version = "1"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether s can be used unquoted as a table or schema name.
func ValidIdent(s string) bool {
	return identRe.MatchString(s)
}
