package macrosrc_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/macrosrc"
)

func openSQLite(t *testing.T, table string) *macrosrc.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "macros.db")
	store, err := macrosrc.OpenStore(context.Background(), macrosrc.DriverSQLite, dsn, table)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureTable(context.Background()))

	return store
}

func TestStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t, "")
	assert.Equal(t, macrosrc.DefaultTable, store.Table())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, macro.Map{"a": "${b}", "b": "X"}))
	require.NoError(t, store.Save(ctx, macro.Map{"b": "Y", "c": ""}))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, macro.Map{"a": "${b}", "b": "Y", "c": ""}, got)

	out, err := macro.Expand("${a}", got)
	require.NoError(t, err)
	assert.Equal(t, "Y", out)

	require.NoError(t, store.Delete(ctx, "a", "missing"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, macro.Map{"b": "Y", "c": ""}, got)

	require.NoError(t, store.Save(ctx, nil))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.EnsureTable(ctx), "idempotent")
}

func TestNewStore_BorrowedDB(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open(macrosrc.DriverSQLite, filepath.Join(t.TempDir(), "borrowed.db"))
	require.NoError(t, err)
	defer db.Close()

	store, err := macrosrc.NewStore(db, macrosrc.DriverSQLite, "custom_macros")
	require.NoError(t, err)
	require.NoError(t, store.EnsureTable(ctx))
	require.NoError(t, store.Save(ctx, macro.Map{"k": "v"}))
	require.NoError(t, store.Close())

	// Close 不关闭借用的连接
	require.NoError(t, db.PingContext(ctx))

	var value string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT value FROM custom_macros WHERE name = ?", "k").Scan(&value))
	assert.Equal(t, "v", value)
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := macrosrc.OpenStore(ctx, "mysql", "dsn", "")
	require.Error(t, err)

	_, err = macrosrc.OpenStore(ctx, macrosrc.DriverSQLite, ":memory:", "bad-name; DROP")
	require.Error(t, err)

	_, err = macrosrc.NewStore(nil, macrosrc.DriverPostgres, "1abc")
	require.Error(t, err)
}

func TestStore_MissingTable(t *testing.T) {
	ctx := context.Background()

	store, err := macrosrc.OpenStore(ctx, macrosrc.DriverSQLite, filepath.Join(t.TempDir(), "empty.db"), "absent")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(ctx)
	require.Error(t, err)
}
