package cache

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

// TieredCache combines the local tier with an optional remote tier.
// Nothing it does returns an error: the cache is an optimization, so store
// failures are logged and read as a miss.
type TieredCache struct {
	local  Store
	remote Store // nil when not configured

	logger       logger.Logger
	promotionTTL time.Duration
	storeTimeout time.Duration

	mu         sync.RWMutex // guards closed against background.Go
	background conc.WaitGroup
	closed     bool
}

// Options tunes a TieredCache. Zero values use the package defaults.
type Options struct {
	Logger       logger.Logger
	PromotionTTL time.Duration
	StoreTimeout time.Duration
}

// NewTiered builds a cache over local and, when non-nil, remote.
// A nil local store is replaced by a default-sized LRUCache.
func NewTiered(local, remote Store, opts Options) *TieredCache {
	if local == nil {
		local = New(constants.DefaultCacheMaxItems)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.PromotionTTL <= 0 {
		opts.PromotionTTL = constants.PromotionTTL
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = constants.CacheStoreTimeout
	}

	return &TieredCache{
		local:        local,
		remote:       remote,
		logger:       opts.Logger,
		promotionTTL: opts.PromotionTTL,
		storeTimeout: opts.StoreTimeout,
	}
}

// Tiers lists the configured store names, local first.
func (t *TieredCache) Tiers() []string {
	tiers := []string{t.local.Name()}
	if t.remote != nil {
		tiers = append(tiers, t.remote.Name())
	}
	return tiers
}

// Get returns the cached value for key. ok is false on a miss, which is
// distinct from any stored value.
func (t *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, _, ok, err := t.local.Get(ctx, key)
	if err != nil {
		t.logStoreError(t.local, "get", key, err)
	} else if ok {
		return value, true
	}

	if t.remote == nil {
		return nil, false
	}

	rctx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	value, ttl, ok, err := t.remote.Get(rctx, key)
	cancel()
	if err != nil {
		t.logStoreError(t.remote, "get", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	if ttl <= 0 {
		ttl = t.promotionTTL
	}
	t.async(func(ctx context.Context) {
		if err := t.local.Set(ctx, key, value, ttl); err != nil {
			t.logStoreError(t.local, "promote", key, err)
		}
	})

	return value, true
}

// Set stores value under key for ttl. Values failing Cacheable and
// non-positive TTLs are dropped. The local write completes before Set
// returns; the remote write happens in the background.
func (t *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		t.logger.Debugf("[Cache] skipping %s: non-positive ttl %v", key, ttl)
		return
	}
	if !Cacheable(value) {
		t.logger.Debugf("[Cache] skipping %s: value is empty", key)
		return
	}

	if err := t.local.Set(ctx, key, value, ttl); err != nil {
		t.logStoreError(t.local, "set", key, err)
	}

	if t.remote == nil {
		return
	}
	t.async(func(ctx context.Context) {
		if err := t.remote.Set(ctx, key, value, ttl); err != nil {
			t.logStoreError(t.remote, "set", key, err)
		}
	})
}

// Delete removes key from every tier before returning.
func (t *TieredCache) Delete(ctx context.Context, key string) {
	if err := t.local.Delete(ctx, key); err != nil {
		t.logStoreError(t.local, "delete", key, err)
	}
	if t.remote == nil {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()
	if err := t.remote.Delete(rctx, key); err != nil {
		t.logStoreError(t.remote, "delete", key, err)
	}
}

// Flush blocks until the background writes issued so far have finished.
// It must not race with new writes; tests and shutdown use it.
func (t *TieredCache) Flush() {
	t.background.Wait()
}

// Close waits for pending background writes and closes both stores.
func (t *TieredCache) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.background.Wait()

	err := t.local.Close()
	if t.remote != nil {
		if rerr := t.remote.Close(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

// async runs fn detached from the request with the store timeout.
func (t *TieredCache) async(fn func(ctx context.Context)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	t.background.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.storeTimeout)
		defer cancel()
		fn(ctx)
	})
}

func (t *TieredCache) logStoreError(store Store, op, key string, err error) {
	t.logger.Warnf("[Cache] %v (key: %s)", apperrors.NewCacheStoreError(store.Name(), op, err), key)
}

// Cacheable reports whether value is worth storing: nil, blank, JSON null,
// empty string, empty object and empty array are not.
func Cacheable(value []byte) bool {
	trimmed := bytes.TrimSpace(value)
	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}
