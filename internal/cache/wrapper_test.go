package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
)

type catalogPage struct {
	Items []string `json:"items"`
}

func newTestWrappers() (*Wrappers, *TieredCache) {
	tc := NewTiered(New(100), nil, Options{})
	return NewWrappers(tc, DefaultTTLs(), nil), tc
}

func TestWrapColdCatalogFetch(t *testing.T) {
	ctx := context.Background()
	wrappers, tc := newTestWrappers()
	defer tc.Close()

	calls := 0
	compute := func(context.Context) Result[catalogPage] {
		calls++
		return Found(catalogPage{Items: []string{"a", "b"}})
	}

	identifier := CatalogIdentifier("newest", nil)
	assert.Equal(t, "catalog:newest:{}", wrappers.Catalog.Key(identifier))

	first := Wrap(ctx, wrappers.Catalog, identifier, compute)
	second := Wrap(ctx, wrappers.Catalog, identifier, compute)

	assert.Equal(t, 1, calls)
	assert.True(t, first.IsFound())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Value, second.Value)
}

func TestWrapDoesNotCacheNotFound(t *testing.T) {
	ctx := context.Background()
	wrappers, tc := newTestWrappers()
	defer tc.Close()

	calls := 0
	compute := func(context.Context) Result[catalogPage] {
		calls++
		return NotFound[catalogPage]()
	}

	Wrap(ctx, wrappers.Meta, "missing-slug", compute)
	result := Wrap(ctx, wrappers.Meta, "missing-slug", compute)

	assert.Equal(t, 2, calls)
	_, err := result.Unwrap()
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWrapDoesNotCacheTransientErrors(t *testing.T) {
	ctx := context.Background()
	wrappers, tc := newTestWrappers()
	defer tc.Close()

	boom := errors.New("upstream down")
	calls := 0
	failing := func(context.Context) Result[catalogPage] {
		calls++
		return TransientError[catalogPage](boom)
	}

	result := Wrap(ctx, wrappers.Stream, "video-1", failing)
	_, err := result.Unwrap()
	assert.ErrorIs(t, err, boom)

	recovered := Wrap(ctx, wrappers.Stream, "video-1", func(context.Context) Result[catalogPage] {
		calls++
		return Found(catalogPage{Items: []string{"ok"}})
	})
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"ok"}, recovered.Value.Items)
}

func TestWrapDoesNotCacheEmptyValues(t *testing.T) {
	ctx := context.Background()
	wrappers, tc := newTestWrappers()
	defer tc.Close()

	calls := 0
	compute := func(context.Context) Result[[]string] {
		calls++
		return Found([]string{})
	}

	Wrap(ctx, wrappers.Catalog, CatalogIdentifier("trending", nil), compute)
	Wrap(ctx, wrappers.Catalog, CatalogIdentifier("trending", nil), compute)

	assert.Equal(t, 2, calls)
}

func TestWrapWithCachingDisabled(t *testing.T) {
	ctx := context.Background()
	w := NewWrapper(nil, "meta", time.Hour, nil)

	calls := 0
	compute := func(context.Context) Result[string] {
		calls++
		return Found("value")
	}

	Wrap(ctx, w, "x", compute)
	Wrap(ctx, w, "x", compute)
	assert.Equal(t, 2, calls)
}

func TestWrapRecomputesUndecodableValues(t *testing.T) {
	ctx := context.Background()
	wrappers, tc := newTestWrappers()
	defer tc.Close()

	tc.Set(ctx, wrappers.Meta.Key("slug"), []byte(`not json`), time.Hour)

	result := Wrap(ctx, wrappers.Meta, "slug", func(context.Context) Result[string] {
		return Found("fresh")
	})
	require.True(t, result.IsFound())
	assert.Equal(t, "fresh", result.Value)
	assert.False(t, result.Cached)
}

func TestCatalogIdentifierIsDeterministic(t *testing.T) {
	a := CatalogIdentifier("newest", map[string]string{"genre": "action", "skip": "24"})
	b := CatalogIdentifier("newest", map[string]string{"skip": "24", "genre": "action"})

	assert.Equal(t, a, b)
	assert.Equal(t, `newest:{"genre":"action","skip":"24"}`, a)
	assert.Equal(t, "slug-1:poster", ImageIdentifier("slug-1", "poster"))
}

func TestResultFromError(t *testing.T) {
	assert.Equal(t, StatusFound, FromError("v", nil).Status)
	assert.Equal(t, StatusNotFound, FromError("", apperrors.ErrNotFound).Status)
	assert.Equal(t, StatusTransient, FromError("", errors.New("x")).Status)
}
