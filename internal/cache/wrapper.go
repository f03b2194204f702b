package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

// Wrapper is a typed façade over the TieredCache for one data category:
// it owns the key prefix and the TTL.
type Wrapper struct {
	cache  *TieredCache // nil disables caching
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

// NewWrapper creates a façade. A nil cache makes Wrap always compute.
func NewWrapper(cache *TieredCache, prefix string, ttl time.Duration, log logger.Logger) *Wrapper {
	if log == nil {
		log = logger.Discard()
	}
	return &Wrapper{cache: cache, prefix: prefix, ttl: ttl, logger: log}
}

// Key returns the full cache key for identifier.
func (w *Wrapper) Key(identifier string) string {
	return w.prefix + ":" + identifier
}

// TTL returns the category TTL.
func (w *Wrapper) TTL() time.Duration {
	return w.ttl
}

// Wrap returns the cached value for identifier or, on a miss, runs compute and
// caches a Found result. Values that cannot be decoded are treated as a miss.
func Wrap[T any](ctx context.Context, w *Wrapper, identifier string, compute func(ctx context.Context) Result[T]) Result[T] {
	if w.cache == nil {
		return compute(ctx)
	}

	if value, ok := Peek[T](ctx, w, identifier); ok {
		return Result[T]{Value: value, Status: StatusFound, Cached: true}
	}

	key := w.Key(identifier)
	w.logger.Debugf("[Cache] miss %s", key)
	result := compute(ctx)
	if !result.IsFound() {
		w.logger.Debugf("[Cache] not caching %s: %s", key, result.Status)
		return result
	}

	raw, err := json.Marshal(result.Value)
	if err != nil {
		w.logger.Warnf("[Cache] failed to encode %s: %v", key, err)
		return result
	}
	w.cache.Set(ctx, key, raw, w.ttl)
	return result
}

// Peek returns the cached value for identifier without computing anything.
func Peek[T any](ctx context.Context, w *Wrapper, identifier string) (T, bool) {
	var value T
	if w.cache == nil {
		return value, false
	}

	key := w.Key(identifier)
	raw, ok := w.cache.Get(ctx, key)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		w.logger.Warnf("[Cache] failed to decode %s, treating as miss: %v", key, err)
		var zero T
		return zero, false
	}
	w.logger.Debugf("[Cache] hit %s", key)
	return value, true
}

// TTLs holds the per-category lifetimes.
type TTLs struct {
	Catalog time.Duration
	Meta    time.Duration
	Stream  time.Duration
	Image   time.Duration
}

// DefaultTTLs returns the built-in category lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Catalog: constants.CatalogTTL,
		Meta:    constants.MetaTTL,
		Stream:  constants.StreamTTL,
		Image:   constants.ImageTTL,
	}
}

// Wrappers groups the four category façades.
type Wrappers struct {
	Catalog *Wrapper
	Meta    *Wrapper
	Stream  *Wrapper
	Image   *Wrapper
}

// NewWrappers builds every façade over cache. A nil cache disables caching.
func NewWrappers(cache *TieredCache, ttls TTLs, log logger.Logger) *Wrappers {
	return &Wrappers{
		Catalog: NewWrapper(cache, constants.KeyPrefixCatalog, ttls.Catalog, log),
		Meta:    NewWrapper(cache, constants.KeyPrefixMeta, ttls.Meta, log),
		Stream:  NewWrapper(cache, constants.KeyPrefixStream, ttls.Stream, log),
		Image:   NewWrapper(cache, constants.KeyPrefixImage, ttls.Image, log),
	}
}

// CatalogIdentifier serializes a catalog id and its extra parameters.
// encoding/json sorts map keys, so equal parameter sets give equal identifiers.
func CatalogIdentifier(catalogID string, extra map[string]string) string {
	if extra == nil {
		extra = map[string]string{}
	}
	raw, _ := json.Marshal(extra)
	return catalogID + ":" + string(raw)
}

// ImageIdentifier is the identifier for one artwork of one entity.
func ImageIdentifier(entityID, imageType string) string {
	return entityID + ":" + imageType
}
