package dql_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nonibytes/dql/dql"
	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage/sqlite"
)

func monotonicNow(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func newStore(t *testing.T) (*dql.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	opts := dql.DefaultOptions()
	opts.Now = monotonicNow(time.Unix(1700000000, 0))

	s, err := dql.Create(context.Background(), sqlite.New(dbPath), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dbPath
}

var people = []string{
	`{"id":"1","status":"active","age":30,"tags":["go","db"],"name":"Ada Lovelace","address":{"city":"London"}}`,
	`{"id":"2","status":"pending","age":17,"tags":["rust"],"name":"Bob"}`,
	`{"id":"3","status":"active","age":21,"tags":["go"],"name":"Carol","note":"quick brown fox"}`,
}

func seed(t *testing.T, s *dql.Store) {
	t.Helper()
	for _, doc := range people {
		_, err := s.Put(context.Background(), []byte(doc))
		require.NoError(t, err)
	}
}

func ids(res *dql.SearchResult) []string {
	out := make([]string, 0, len(res.Documents))
	for _, d := range res.Documents {
		out = append(out, d.ID)
	}
	return out
}

func TestSearch_SQLite(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"status:active", []string{"1", "3"}},
		{"STATUS:active", []string{}},
		{"age>=21", []string{"1", "3"}},
		{"age<21", []string{"2"}},
		{"age:17", []string{"2"}},
		{"tags:go AND NOT status:pending", []string{"1", "3"}},
		{"tags:(rust OR db)", []string{"1", "2"}},
		{"tags:(NOT rust)", []string{"1", "3"}},
		{"tags:(go AND NOT db)", []string{"3"}},
		{`address.city:"London"`, []string{"1"}},
		{`name:"ada lovelace"`, []string{}},
		{"name:ad*", []string{"1"}},
		{"quick", []string{"3"}},
		{"status:active OR age<18", []string{"1", "2", "3"}},
		{"NOT status:active", []string{"2"}},
		{`name>"B"`, []string{"2", "3"}},
		{"missing:x", []string{}},
	}
	for _, tt := range tests {
		res, err := s.Search(ctx, tt.query, dql.SearchOptions{})
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, ids(res), tt.query)
	}
}

func TestPutGetDelete_SQLite(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, []byte(`{"title":"no id"}`))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "generated id should be a uuid")

	doc, err := s.Get(ctx, id)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(doc.Data, &m))
	assert.Equal(t, id, m["id"])
	assert.Equal(t, "no id", m["title"])
	assert.Equal(t, time.Unix(1700000000, 0).Add(time.Millisecond).UnixMilli(), doc.CreatedAtMS)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.True(t, dql.IsKind(err, dql.ErrNotFound))
	assert.True(t, dql.IsKind(s.Delete(ctx, id), dql.ErrNotFound))
}

func TestPutRejectsInvalidDocuments(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for _, doc := range []string{`[1,2]`, `{"id":5}`, `{"id":""}`, `{broken`} {
		_, err := s.Put(ctx, []byte(doc))
		assert.True(t, dql.IsKind(err, dql.ErrInvalidDocument), "doc %s: %v", doc, err)
	}
}

func TestUpsertKeepsPosition(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	_, err := s.Put(ctx, []byte(`{"id":"1","status":"pending"}`))
	require.NoError(t, err)

	res, err := s.Search(ctx, "status:pending", dql.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(res))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.CountMatching(ctx, "status:pending OR age>25")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSearchPagination(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	page1, err := s.Search(ctx, "status:active", dql.SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(page1))
	require.NotEmpty(t, page1.NextCursor)

	page2, err := s.Search(ctx, "status:active", dql.SearchOptions{Limit: 1, After: page1.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(page2))
	assert.Empty(t, page2.NextCursor)

	_, err = s.Search(ctx, "age>1", dql.SearchOptions{After: page1.NextCursor})
	assert.True(t, dql.IsKind(err, dql.ErrCursor))

	_, err = s.Search(ctx, "status:active", dql.SearchOptions{After: "!!"})
	assert.True(t, dql.IsKind(err, dql.ErrCursor))
}

func TestSearchErrors(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Search(ctx, "status:", dql.SearchOptions{})
	require.True(t, dql.IsKind(err, dql.ErrQueryParse))
	var se *query.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, query.ErrUnexpectedEOF, se.Kind)
	assert.Equal(t, 7, se.Offset)

	_, err = s.Search(ctx, "a*:1", dql.SearchOptions{})
	assert.True(t, dql.IsKind(err, dql.ErrTranslate))
}

func TestSearchExplain(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)

	res, err := s.Search(context.Background(), "status:active   and age>=21", dql.SearchOptions{Explain: true})
	require.NoError(t, err)
	require.NotNil(t, res.Explain)
	assert.Equal(t, "status:active AND age>=21", res.Explain.Query)
	assert.Contains(t, res.Explain.SQL, "json_each")
	assert.Equal(t, []any{"active", 21.0, dql.DefaultLimit + 1}, res.Explain.Args)

	ex, err := s.Compile("status:active")
	require.NoError(t, err)
	assert.Equal(t, []any{"active"}, ex.Args)
}

func TestBatch_SQLite(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	b := dql.NewBatch()
	b.Put([]byte(`{"id":"4","status":"active"}`))
	require.NoError(t, b.Delete("1"))
	b.Put([]byte(`{"status":"active"}`))
	require.Equal(t, 3, b.Len())

	written, err := b.Execute(ctx, s)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, "4", written[0])

	res, err := s.Search(ctx, "status:active", dql.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", written[1]}, ids(res))

	bad := dql.NewBatch()
	bad.Put([]byte(`{"id":"5"}`))
	bad.Put([]byte(`not json`))
	_, err = s.Batch(ctx, bad)
	require.Error(t, err)
	_, err = s.Get(ctx, "5")
	assert.True(t, dql.IsKind(err, dql.ErrNotFound), "failed batch must not write")
}

func TestReopen_SQLite(t *testing.T) {
	s, dbPath := newStore(t)
	seed(t, s)
	require.NoError(t, s.Close())

	s2, err := dql.Open(context.Background(), sqlite.New(dbPath), dql.Options{})
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, "documents", s2.Table())

	n, err := s2.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestOpenRejectsNonStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	_, err := dql.Open(context.Background(), sqlite.New(dbPath), dql.Options{})
	assert.True(t, dql.IsKind(err, dql.ErrSQL))
}

func TestSearchLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	opts := dql.DefaultOptions()
	opts.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	opts.Table = "people"

	s, err := dql.Create(context.Background(), sqlite.New(filepath.Join(t.TempDir(), "log.db")), opts)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Search(context.Background(), "x:1", dql.SearchOptions{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"search"`)
	assert.Contains(t, buf.String(), `"table":"people"`)
}

func TestConcurrentSearch_SQLite(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Search(context.Background(), "tags:go", dql.SearchOptions{})
			if assert.NoError(t, err) {
				assert.Equal(t, []string{"1", "3"}, ids(res))
			}
		}()
	}
	wg.Wait()
}
