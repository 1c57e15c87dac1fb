package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/nonibytes/dql/dql/storage"
	"github.com/nonibytes/dql/dql/translate"
)

type Adapter struct {
	DSN    string
	Schema string // used as dedicated schema via search_path
}

func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) Dialect() translate.Dialect { return translate.Postgres(translate.DefaultColumn) }

func (a *Adapter) StoreID() string { return "postgres:" + a.Schema }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) SQL(table string) storage.SQL { return templates(table) }

func quoteIdent(ident string) string {
	// ident is validated to contain no quotes; safe to wrap
	return `"` + ident + `"`
}

func (a *Adapter) ensureSchema(ctx context.Context, db *sql.DB) error {
	if !storage.ValidIdent(a.Schema) {
		return fmt.Errorf("invalid postgres schema name %q", a.Schema)
	}
	_, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(a.Schema))
	return err
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	// Connect without search_path first so the schema can be created.
	cfg0, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	db0 := stdlib.OpenDB(*cfg0)
	if err := db0.PingContext(ctx); err != nil {
		_ = db0.Close()
		return nil, err
	}
	if err := a.ensureSchema(ctx, db0); err != nil {
		_ = db0.Close()
		return nil, err
	}
	_ = db0.Close()

	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = make(map[string]string)
	}
	// public stays on the path for built-ins; the store schema is first.
	cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", quoteIdent(a.Schema))

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) CreateStore(ctx context.Context, db *sql.DB, table string) error {
	if !storage.ValidIdent(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if _, err := db.ExecContext(ctx, ddlMeta); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(ddlTable, table)); err != nil {
		return err
	}
	for _, kv := range [][2]string{
		{storage.MetaMagic, storage.Magic},
		{storage.MetaVersion, storage.Version},
		{storage.MetaTable, table},
	} {
		if _, err := db.ExecContext(ctx, setMeta, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) OpenStore(ctx context.Context, db *sql.DB) (string, error) {
	var magic string
	if err := db.QueryRowContext(ctx, getMeta, storage.MetaMagic).Scan(&magic); err != nil {
		return "", err
	}
	if magic != storage.Magic {
		return "", fmt.Errorf("not a dql store")
	}
	var table string
	if err := db.QueryRowContext(ctx, getMeta, storage.MetaTable).Scan(&table); err != nil {
		return "", err
	}
	if !storage.ValidIdent(table) {
		return "", fmt.Errorf("invalid table name %q in meta", table)
	}
	return table, nil
}

func (a *Adapter) Optimize(ctx context.Context, db *sql.DB) error {
	_, _ = db.ExecContext(ctx, "ANALYZE")
	return nil
}
