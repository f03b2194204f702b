package main

import (
	"context"
	"fmt"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/config"
	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/internal/handlers"
	"github.com/amaumene/gostremiocatalog/internal/imageproxy"
	"github.com/amaumene/gostremiocatalog/internal/services"
	"github.com/amaumene/gostremiocatalog/internal/session"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
	"github.com/amaumene/gostremiocatalog/pkg/httputil"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
	"github.com/amaumene/gostremiocatalog/pkg/ratelimiter"
)

var (
	Logger           logger.Logger
	Config           *config.Config
	handler          *handlers.Handler
	serviceContainer *services.Container
)

func InitializeLogger() {
	Logger = logger.New()
}

func InitializeConfig() {
	var err error
	Config, err = config.Load()
	if err != nil {
		Logger.Fatalf("[App] failed to load configuration: %v", err)
	}

	Logger = logger.NewWithOptions(logger.Options{
		Level:      Config.LogLevel,
		File:       Config.LogFile,
		MaxSizeMB:  Config.LogMaxSizeMB,
		MaxBackups: Config.LogMaxBackups,
	})
}

// InitializeCache builds the tiered cache. It returns nil when caching is
// disabled, in which case every wrapper computes on each call.
func InitializeCache() (*cache.TieredCache, *cache.LRUCache, cache.Store) {
	if !Config.CacheEnabled {
		Logger.Infof("[App] cache disabled")
		return nil, nil, nil
	}

	local := cache.New(Config.CacheMaxItems)
	remote, err := cache.NewRemoteStore(Config.CacheRemoteURL)
	if err != nil {
		// The remote tier is optional; run on the local tier alone.
		Logger.Errorf("[App] failed to open remote cache, continuing without it: %v", err)
		remote = nil
	}
	if rs, ok := remote.(*cache.RedisStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CacheStoreTimeout)
		if err := rs.Ping(ctx); err != nil {
			Logger.Warnf("[App] redis cache unreachable at startup, reads will fall back to memory: %v", err)
		}
		cancel()
	}

	tc := cache.NewTiered(local, remote, cache.Options{
		Logger:       Logger,
		PromotionTTL: Config.CachePromotionTTL.Std(),
	})
	Logger.Infof("[App] cache tiers: %v", tc.Tiers())
	return tc, local, remote
}

func InitializeServices(ctx context.Context) {
	tc, local, remote := InitializeCache()

	client := upstream.NewClient(upstream.Options{
		BaseURL:     Config.UpstreamBaseURL,
		HTTPClient:  httputil.NewHTTPClientWithAgent(constants.UpstreamTimeout, constants.AddonName+"/"+constants.AddonVersion),
		RateLimiter: ratelimiter.NewTokenBucket(constants.DefaultUpstreamBurst, Config.UpstreamRateLimit),
		Logger:      Logger,
	})

	sessions := session.NewStore(client, tc, session.Options{
		Logger:        Logger,
		RefreshBuffer: Config.SessionRefreshBuffer.Std(),
	})

	serviceContainer = services.NewContainer(client, client, sessions, tc, Config.TTLs(), imageproxy.Options{
		QueueEnabled: Config.ImageQueueEnabled,
		QueueDelay:   Config.ImageQueueDelay.Std(),
	}, Logger)

	if local != nil {
		serviceContainer.Cleanup.AddTask(local.Name(), func() (int, error) {
			return local.CleanExpired(), nil
		})
	}
	if bolt, ok := remote.(*cache.BoltStore); ok {
		serviceContainer.Cleanup.AddTask(bolt.Name(), bolt.CleanExpired)
	}
	serviceContainer.Cleanup.Start(ctx)

	handler = handlers.New(serviceContainer, Config)

	Logger.Infof("[App] services initialized successfully")
}

func ShutdownServices() error {
	if serviceContainer == nil {
		return nil
	}
	if err := serviceContainer.Close(); err != nil {
		return fmt.Errorf("failed to close services: %w", err)
	}
	return nil
}
