package sqlite

import (
	"fmt"

	"github.com/nonibytes/dql/dql/storage"
)

const ddlMeta = `
CREATE TABLE IF NOT EXISTS dql_meta (
  key   TEXT PRIMARY KEY,
  value TEXT
);`

const ddlTable = `
CREATE TABLE IF NOT EXISTS %[1]s (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT UNIQUE NOT NULL,
  data       TEXT NOT NULL CHECK (json_valid(data)),
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(created_at);`

const (
	getMeta = "SELECT value FROM dql_meta WHERE key = ?1"
	setMeta = "INSERT INTO dql_meta(key,value) VALUES(?1,?2) ON CONFLICT(key) DO UPDATE SET value=excluded.value"
)

func templates(table string) storage.SQL {
	return storage.SQL{
		Upsert: fmt.Sprintf(`INSERT INTO %s(id, data, created_at) VALUES(?1, ?2, ?3)
			ON CONFLICT(id) DO UPDATE SET data=excluded.data`, table),
		Get:     fmt.Sprintf("SELECT data, created_at FROM %s WHERE id = ?1", table),
		Delete:  fmt.Sprintf("DELETE FROM %s WHERE id = ?1", table),
		Count:   fmt.Sprintf("SELECT COUNT(*) FROM %s", table),
		Select:  fmt.Sprintf("SELECT seq, id, data, created_at FROM %s", table),
		OrderBy: "ORDER BY seq",
		Data:    fmt.Sprintf("SELECT data FROM %s", table),

		DeleteFrom: fmt.Sprintf("DELETE FROM %s", table),
	}
}
