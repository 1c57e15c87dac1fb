package postgres

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
  seq        BIGSERIAL PRIMARY KEY,
  id         TEXT UNIQUE NOT NULL,
  data       JSONB NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(created_at);
CREATE INDEX IF NOT EXISTS idx_%[1]s_data ON %[1]s USING GIN (data jsonb_path_ops);`

const (
	getMeta = "SELECT value FROM dql_meta WHERE key = $1"
	setMeta = "INSERT INTO dql_meta(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value"
)

func templates(table string) storage.SQL {
	return storage.SQL{
		Upsert: fmt.Sprintf(`INSERT INTO %s(id, data, created_at)
		        VALUES($1, $2::jsonb, $3)
		        ON CONFLICT(id) DO UPDATE
		          SET data=EXCLUDED.data`, table),
		Get:     fmt.Sprintf("SELECT data::text, created_at FROM %s WHERE id = $1", table),
		Delete:  fmt.Sprintf("DELETE FROM %s WHERE id = $1", table),
		Count:   fmt.Sprintf("SELECT COUNT(*) FROM %s", table),
		Select:  fmt.Sprintf("SELECT seq, id, data::text, created_at FROM %s", table),
		OrderBy: "ORDER BY seq",
		Data:    fmt.Sprintf("SELECT data FROM %s", table),

		DeleteFrom: fmt.Sprintf("DELETE FROM %s", table),
	}
}
