package cache

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRemoteStore(t *testing.T) {
	store, err := NewRemoteStore("  ")
	require.NoError(t, err)
	assert.Nil(t, store)

	mr := miniredis.RunT(t)
	store, err = NewRemoteStore("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	assert.Equal(t, "redis", store.Name())
	require.NoError(t, store.Close())

	store, err = NewRemoteStore("bolt://" + filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	assert.Equal(t, "bolt", store.Name())
	require.NoError(t, store.Close())
}

func TestNewRemoteStoreRejectsBadInput(t *testing.T) {
	for _, connection := range []string{"memcached://localhost", "bolt://", "redis://localhost:notaport"} {
		store, err := NewRemoteStore(connection)
		assert.Error(t, err, connection)
		assert.Nil(t, store, connection)
	}
}
