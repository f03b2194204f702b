// Package services holds the catalog, meta and stream logic behind the HTTP handlers.
package services

import (
	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/imageproxy"
	"github.com/amaumene/gostremiocatalog/internal/session"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

// Container holds all application services for dependency injection.
type Container struct {
	Catalog  *CatalogService
	Meta     *MetaService
	Stream   *StreamService
	Images   *imageproxy.Pipeline
	Sessions *session.Store
	Cache    *cache.TieredCache // nil when caching is disabled
	Cleanup  *CleanupService
	Logger   logger.Logger
}

// NewContainer wires the services over one upstream client and one cache.
func NewContainer(up Upstream, fetcher imageproxy.Fetcher, sessions *session.Store, tc *cache.TieredCache, ttls cache.TTLs, imageOpts imageproxy.Options, log logger.Logger) *Container {
	wrappers := cache.NewWrappers(tc, ttls, log)
	imageOpts.Logger = log

	return &Container{
		Catalog:  NewCatalogService(up, wrappers.Catalog, log),
		Meta:     NewMetaService(up, wrappers.Meta, log),
		Stream:   NewStreamService(up, sessions, wrappers.Stream, log),
		Images:   imageproxy.New(fetcher, wrappers.Image, imageOpts),
		Sessions: sessions,
		Cache:    tc,
		Cleanup:  NewCleanupService(log),
		Logger:   log,
	}
}

// Close stops background work and releases the cache stores.
func (c *Container) Close() error {
	c.Cleanup.Stop()
	c.Images.Close()
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}
