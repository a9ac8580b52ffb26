//go:build integration

package macrosrc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/macrosrc"
)

// setupPostgresStore 启动临时 PostgreSQL 容器并返回已建表的 Store。
func setupPostgresStore(t *testing.T) *macrosrc.Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("markup_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := macrosrc.OpenStore(ctx, macrosrc.DriverPostgres, dsn, "macros_e2e")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureTable(ctx))

	return store
}

func TestStore_PostgresRoundTrip(t *testing.T) {
	store := setupPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, macro.Map{"greeting": "Hello ${name}", "name": "pg"}))
	require.NoError(t, store.Save(ctx, macro.Map{"name": "PostgreSQL"}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, macro.Map{"greeting": "Hello ${name}", "name": "PostgreSQL"}, got)

	out, err := macro.Expand("${greeting}!", got)
	require.NoError(t, err)
	assert.Equal(t, "Hello PostgreSQL!", out)

	require.NoError(t, store.Delete(ctx, "greeting"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, macro.Map{"name": "PostgreSQL"}, got)
}
