package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nonibytes/dql/dql/storage"
	"github.com/nonibytes/dql/dql/translate"
)

// DriverModernc is the pure Go driver registered by modernc.org/sqlite.
// DriverCgo is the name github.com/mattn/go-sqlite3 registers.
const (
	DriverModernc = "sqlite"
	DriverCgo     = "sqlite3"
)

type Adapter struct {
	Path       string
	DriverName string
}

// New uses the modernc driver; the caller must import modernc.org/sqlite.
func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: DriverModernc}
}

func NewWithDriver(path, driver string) *Adapter {
	if driver == "" {
		driver = DriverModernc
	}
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) Dialect() translate.Dialect {
	return translate.SQLite(translate.DefaultColumn)
}

func (a *Adapter) StoreID() string {
	return a.Path
}

// dsn adds a busy timeout in the parameter syntax of the selected driver.
func (a *Adapter) dsn() string {
	param := "_pragma=busy_timeout(5000)"
	if a.DriverName == DriverCgo {
		param = "_busy_timeout=5000"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + param
	}
	return a.Path + "?" + param
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) SQL(table string) storage.SQL {
	return templates(table)
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
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

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
	_, _ = db.ExecContext(ctx, "PRAGMA optimize")
	_, _ = db.ExecContext(ctx, "VACUUM")
	return nil
}
