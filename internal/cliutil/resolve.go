package cliutil

import (
	"path/filepath"
	"strings"

	"github.com/nonibytes/dql/dql"
	"github.com/nonibytes/dql/dql/storage"
	"github.com/nonibytes/dql/dql/storage/postgres"
	"github.com/nonibytes/dql/dql/storage/sqlite"
	"github.com/nonibytes/dql/internal/cliopt"
)

// ResolveStoreRef transforms the user-provided -s/--store value into a backend-specific reference.
//
//   - sqlite: if store contains a path separator or ends with .db, treat as explicit path.
//     else: <SQLitePath>/<name>.db
//   - postgres: the name is the schema; empty selects the configured default.
func ResolveStoreRef(g cliopt.GlobalOptions, store string) string {
	switch strings.ToLower(g.Backend) {
	case string(storage.BackendSQLite):
		if strings.Contains(store, string(filepath.Separator)) || strings.HasSuffix(store, ".db") {
			return store
		}
		return filepath.Join(g.SQLitePath, store+".db")
	default:
		if store == "" {
			return g.PostgresSchema
		}
		return store
	}
}

// Adapter builds the storage adapter for a store reference.
func Adapter(g cliopt.GlobalOptions, store string) (storage.Adapter, error) {
	switch strings.ToLower(g.Backend) {
	case string(storage.BackendSQLite):
		if store == "" {
			return nil, dql.New(dql.ErrConfig, "missing --store")
		}
		return sqlite.NewWithDriver(ResolveStoreRef(g, store), g.SQLiteDriver), nil
	case string(storage.BackendPostgres), "pg":
		if g.PostgresDSN == "" {
			return nil, dql.New(dql.ErrConfig, "postgres backend needs --pg-dsn")
		}
		return postgres.New(g.PostgresDSN, ResolveStoreRef(g, store)), nil
	default:
		return nil, dql.New(dql.ErrConfig, "unknown backend "+g.Backend)
	}
}
