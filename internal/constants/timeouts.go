// Package constants defines timeout values, TTLs and retry limits used throughout the application.
package constants

import "time"

// Cache TTLs per data category
const (
	CatalogTTL = 2 * time.Hour
	MetaTTL    = 36 * time.Hour
	StreamTTL  = 36 * time.Hour
	ImageTTL   = 30 * time.Second

	// TTL given to values promoted from the remote tier when it cannot report one
	PromotionTTL = 10 * time.Minute

	// Local tier sweep interval
	CacheCleanupInterval = 1 * time.Hour
)

// Session settings
const (
	SessionRefreshBuffer = 300 * time.Second
	// Sessions closer than this to expiry are not written to the cache
	SessionCacheSafetyBuffer = 5 * time.Minute
	LoginTimeout             = 20 * time.Second
)

// Upstream timeouts and retry limits
const (
	UpstreamTimeout     = 15 * time.Second
	ImageFetchTimeout   = 10 * time.Second
	CacheStoreTimeout   = 2 * time.Second
	RetryBaseDelay      = 500 * time.Millisecond
	RetryMaxDelay       = 8 * time.Second
	RetryMaxJitter      = 400 * time.Millisecond
	MaxBlockedAttempts  = 4
	BlockedURLCooldown  = 2 * time.Second
	ImageQueueDelay     = 250 * time.Millisecond
	ShutdownGracePeriod = 10 * time.Second
	RequestTimeout      = 30 * time.Second
)
