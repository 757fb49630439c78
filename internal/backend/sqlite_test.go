package backend

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

func openMemory(t *testing.T) Engine {
	t.Helper()

	e, err := Open(context.Background(), Config{Backend: dialect.SQLite, Name: MemoryPath})
	require.NoError(t, err)

	t.Cleanup(func() { _ = e.Close(context.Background()) })

	return e
}

func TestSQLite_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)
	assert.Equal(t, dialect.SQLite, e.Backend())
	require.NoError(t, e.Ping(ctx))

	_, err := e.Exec(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, day DATE, name TEXT, data BLOB)`)
	require.NoError(t, err)

	res, err := e.Exec(ctx, `INSERT INTO t (day, name, data) VALUES (?, ?, ?)`, "2024-02-29", "a", []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Equal(t, int64(1), res.LastInsertID)

	rows, err := e.Query(ctx, `SELECT id, day, name, data FROM t`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "a", rows[0]["name"])
	assert.Equal(t, []byte{1, 2}, rows[0]["data"])
	assert.Equal(t, "2024-02-29", stringOf(rows[0]["day"]))
}

func stringOf(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}

	s, _ := v.(string)

	return s
}

func TestSQLite_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	_, err := e.Exec(ctx, `CREATE TABLE p (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = e.Exec(ctx, `CREATE TABLE c (id INTEGER PRIMARY KEY, p_id INTEGER REFERENCES p (id))`)
	require.NoError(t, err)

	_, err = e.Exec(ctx, `INSERT INTO c (id, p_id) VALUES (1, 42)`)
	assert.Error(t, err)
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	ctx := context.Background()

	e, err := Open(ctx, Config{Backend: dialect.SQLite, Name: MemoryPath})
	require.NoError(t, err)

	require.NoError(t, e.Close(ctx))
	require.NoError(t, e.Close(ctx))

	_, err = e.Query(ctx, `SELECT 1`)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Ping(ctx), ErrClosed)
}

func TestCloser_BoundedByContext(t *testing.T) {
	var c closer

	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.close(ctx, func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, c.check(), ErrClosed)

	wrapped := c.wrap(errors.New("sql: database is closed"))
	assert.ErrorIs(t, wrapped, ErrClosed)
	assert.Contains(t, wrapped.Error(), "engine is closed")
}

func TestOpen_Rejects(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{Name: "x"})
	assert.True(t, errors.Is(err, diagnostic.ErrNotSupported))

	_, err = Open(ctx, Config{Backend: dialect.SQLite})
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}
