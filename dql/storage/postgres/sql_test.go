package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/dql/dql/storage"
	"github.com/nonibytes/dql/dql/storage/sqlbuilder"
)

func TestAdapterDescribesPostgres(t *testing.T) {
	a := New("postgres://localhost/dql", "tenant_a")
	assert.Equal(t, storage.BackendPostgres, a.Backend())
	assert.Equal(t, sqlbuilder.PlaceholderDollar, a.Dialect().Style())
	assert.Equal(t, "postgres:tenant_a", a.StoreID())
}

func TestTemplatesUseTable(t *testing.T) {
	sqlt := New("", "s").SQL("docs")
	for _, q := range []string{sqlt.Upsert, sqlt.Get, sqlt.Delete, sqlt.Count, sqlt.Select, sqlt.Data, sqlt.DeleteFrom} {
		assert.Contains(t, q, " docs")
	}
	assert.True(t, strings.Contains(sqlt.Upsert, "$2::jsonb"))
}

func TestConnectRejectsBadSchema(t *testing.T) {
	a := New("postgres://user@127.0.0.1:1/none?connect_timeout=1", "bad-schema")
	_, err := a.Connect(context.Background())
	require.Error(t, err)
}

func TestCreateStoreRejectsBadTable(t *testing.T) {
	err := New("", "s").CreateStore(context.Background(), nil, "docs; DROP TABLE x")
	require.Error(t, err)
}
