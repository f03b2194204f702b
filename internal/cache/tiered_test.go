package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredLocalHitSkipsRemote(t *testing.T) {
	ctx := context.Background()
	remote := newFakeStore("remote")
	tc := NewTiered(New(10), remote, Options{})
	defer tc.Close()

	tc.Set(ctx, "k", []byte(`"v"`), time.Minute)
	tc.Flush()

	value, ok := tc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte(`"v"`), value)
	assert.Equal(t, 0, remote.getCount())
}

func TestTieredPromotesRemoteHit(t *testing.T) {
	ctx := context.Background()
	remote := newFakeStore("remote")
	remote.data["K"] = []byte(`{"name":"remote"}`)
	local := New(10)
	tc := NewTiered(local, remote, Options{})
	defer tc.Close()

	value, ok := tc.Get(ctx, "K")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"name":"remote"}`), value)
	assert.Equal(t, 1, remote.getCount())

	tc.Flush()

	value, ok = tc.Get(ctx, "K")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"name":"remote"}`), value)
	assert.Equal(t, 1, remote.getCount(), "second read must be served by the local tier")
}

func TestTieredSetWritesBothTiers(t *testing.T) {
	ctx := context.Background()
	local := newFakeStore("local")
	remote := newFakeStore("remote")
	tc := NewTiered(local, remote, Options{})
	defer tc.Close()

	tc.Set(ctx, "k", []byte(`[1]`), time.Minute)
	assert.True(t, local.has("k"), "local write is synchronous")

	tc.Flush()
	assert.True(t, remote.has("k"))
}

func TestTieredRejectsEmptyValues(t *testing.T) {
	ctx := context.Background()
	local := newFakeStore("local")
	remote := newFakeStore("remote")
	tc := NewTiered(local, remote, Options{})
	defer tc.Close()

	for _, value := range [][]byte{nil, []byte(""), []byte("null"), []byte("{}"), []byte(" [] "), []byte(`""`)} {
		tc.Set(ctx, "K", value, time.Minute)
	}
	tc.Flush()

	_, ok := tc.Get(ctx, "K")
	assert.False(t, ok)
	assert.Equal(t, 0, local.setCount())
	assert.Equal(t, 0, remote.setCount())
}

func TestTieredRejectsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	local := newFakeStore("local")
	tc := NewTiered(local, nil, Options{})

	tc.Set(ctx, "k", []byte(`"v"`), 0)
	tc.Set(ctx, "k", []byte(`"v"`), -time.Second)

	assert.Equal(t, 0, local.setCount())
}

func TestTieredRemoteFailureDegradesToLocal(t *testing.T) {
	ctx := context.Background()
	remote := newFakeStore("remote")
	remote.err = errors.New("connection refused")
	tc := NewTiered(New(10), remote, Options{})
	defer tc.Close()

	_, ok := tc.Get(ctx, "missing")
	assert.False(t, ok)

	tc.Set(ctx, "k", []byte(`"v"`), time.Minute)
	tc.Flush()

	value, ok := tc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte(`"v"`), value)

	tc.Delete(ctx, "k")
	_, ok = tc.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTieredLocalFailureIsAMiss(t *testing.T) {
	ctx := context.Background()
	local := newFakeStore("local")
	local.err = errors.New("boom")
	tc := NewTiered(local, nil, Options{})

	tc.Set(ctx, "k", []byte(`"v"`), time.Minute)
	_, ok := tc.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTieredDeleteClearsBothTiers(t *testing.T) {
	ctx := context.Background()
	local := newFakeStore("local")
	remote := newFakeStore("remote")
	tc := NewTiered(local, remote, Options{})
	defer tc.Close()

	tc.Set(ctx, "k", []byte(`"v"`), time.Minute)
	tc.Flush()
	tc.Delete(ctx, "k")

	assert.False(t, local.has("k"))
	assert.False(t, remote.has("k"))
}

func TestTieredCloseClosesStores(t *testing.T) {
	local := newFakeStore("local")
	remote := newFakeStore("remote")
	tc := NewTiered(local, remote, Options{})

	require.NoError(t, tc.Close())
	require.NoError(t, tc.Close())
	assert.True(t, local.closed)
	assert.True(t, remote.closed)
	assert.Equal(t, []string{"local", "remote"}, tc.Tiers())
}

func TestCacheable(t *testing.T) {
	assert.False(t, Cacheable(nil))
	assert.False(t, Cacheable([]byte("null")))
	assert.False(t, Cacheable([]byte("{}")))
	assert.True(t, Cacheable([]byte(`{"a":1}`)))
	assert.True(t, Cacheable([]byte(`0`)))
	assert.True(t, Cacheable([]byte(`false`)))
}
