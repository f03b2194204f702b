package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)

	require.NoError(t, store.Set(ctx, "catalog:newest:{}", []byte(`[{"id":"1"}]`), time.Hour))

	value, ttl, ok, err := store.Get(ctx, "catalog:newest:{}")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`[{"id":"1"}]`), value)
	assert.Greater(t, ttl, 59*time.Minute)

	_, _, ok, err = store.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoltStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", []byte(`"a"`), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte(`"b"`), time.Hour))

	now = now.Add(2 * time.Minute)

	_, _, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := store.CleanExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	value, _, ok, err := store.Get(ctx, "long")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`"b"`), value)
}

func TestBoltStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte(`"v"`), time.Hour))
	require.NoError(t, store.Delete(ctx, "k"))

	_, _, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", []byte(`"v"`), time.Hour))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, _, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`"v"`), value)
}
