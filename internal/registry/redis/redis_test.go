package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRegistry creates a registry backed by miniredis.
func setupTestRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	registry, err := NewRedisRegistry(context.Background(), "redis://"+mr.Addr(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	return registry, mr
}

func TestRedisRegistry_CreateAndList(t *testing.T) {
	registry, mr := setupTestRegistry(t)
	ctx := context.Background()

	alice, err := registry.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)

	again, err := registry.Create(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, again.ID)

	_, err = registry.Create(ctx, "bob")
	require.NoError(t, err)

	accounts, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	assert.Equal(t, "alice", mr.HGet("test:kol:"+alice.ID, "handle_name"))
}

func TestRedisRegistry_UpdateCursor(t *testing.T) {
	registry, _ := setupTestRegistry(t)
	ctx := context.Background()

	alice, err := registry.Create(ctx, "alice")
	require.NoError(t, err)

	ok, err := registry.UpdateCursor(ctx, alice.ID, "T1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = registry.UpdateCursor(ctx, "missing", "T1")
	require.NoError(t, err)
	assert.False(t, ok)

	accounts, err := registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "T1", accounts[0].LastSeenPostID)
}

func TestRedisRegistry_Delete(t *testing.T) {
	registry, mr := setupTestRegistry(t)
	ctx := context.Background()

	alice, err := registry.Create(ctx, "alice")
	require.NoError(t, err)

	ok, err := registry.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("test:handle:alice"))

	ok, err = registry.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// handle can be registered again after deletion
	recreated, err := registry.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, recreated.ID)
}
