package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := New(10)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	value, ttl, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
	assert.InDelta(t, time.Minute, ttl, float64(time.Second))

	_, _, ok, _ = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestLRUCacheExpiration(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := New(10)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("v"), time.Hour))

	now = now.Add(2 * time.Second)

	_, _, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok)
	_, _, ok, _ = c.Get(ctx, "long")
	assert.True(t, ok)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := New(2)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	_, _, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	_, _, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, _, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRUCacheCleanExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := New(10)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Second))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	now = now.Add(time.Minute)

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Len())
}

func TestLRUCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := New(10)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.Delete(ctx, "a"))

	_, _, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
