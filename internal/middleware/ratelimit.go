package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/pkg/ratelimiter"
)

const (
	limiterIdleTimeout  = 10 * time.Minute
	limiterSweepEvery   = time.Minute
	rateLimitRetryAfter = "1"
)

type ipLimiterEntry struct {
	bucket   *ratelimiter.TokenBucket
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiterEntry
	rate      int64
	burst     int64
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows rps requests per second per IP with the given burst.
func NewIPRateLimiter(rps, burst int64) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rate:     rps,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether ip may make a request now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.bucket(ip).TakeToken()
}

func (rl *IPRateLimiter) bucket(ip string) *ratelimiter.TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterSweepEvery {
		for key, entry := range rl.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleTimeout {
				delete(rl.limiters, key)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{bucket: ratelimiter.NewTokenBucket(rl.burst, rl.rate)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.bucket
}

// Len returns the number of tracked IPs.
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimit rejects requests over the per-IP limit with 429.
func RateLimit(rl *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", rateLimitRetryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
