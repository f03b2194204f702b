// Package config provides configuration management for the application.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/constants"
)

const (
	// Default configuration file name
	defaultConfigFile = "config.json"
)

// Duration is a time.Duration read from "90s"/"2h" strings or plain seconds.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the application configuration.
// Values come from the built-in defaults, then an optional JSON file, then
// environment variables, each overriding the previous.
type Config struct {
	Port     string `json:"PORT" env:"PORT"`
	LogLevel string `json:"LOG_LEVEL" env:"LOG_LEVEL"`

	// Rotated log file, disabled when empty
	LogFile       string `json:"LOG_FILE" env:"LOG_FILE"`
	LogMaxSizeMB  int    `json:"LOG_MAX_SIZE_MB" env:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `json:"LOG_MAX_BACKUPS" env:"LOG_MAX_BACKUPS"`

	// Upstream
	UpstreamBaseURL   string `json:"UPSTREAM_BASE_URL" env:"UPSTREAM_BASE_URL"`
	UpstreamRateLimit int64  `json:"UPSTREAM_RATE_LIMIT" env:"UPSTREAM_RATE_LIMIT"` // requests per second

	// Cache
	CacheEnabled      bool     `json:"CACHE_ENABLED" env:"CACHE_ENABLED"`
	CacheTTLCatalog   Duration `json:"CACHE_TTL_CATALOG" env:"CACHE_TTL_CATALOG"`
	CacheTTLMeta      Duration `json:"CACHE_TTL_META" env:"CACHE_TTL_META"`
	CacheTTLStream    Duration `json:"CACHE_TTL_STREAM" env:"CACHE_TTL_STREAM"`
	CacheTTLImage     Duration `json:"CACHE_TTL_IMAGE" env:"CACHE_TTL_IMAGE"`
	CacheMaxItems     int      `json:"CACHE_MAX_ITEMS" env:"CACHE_MAX_ITEMS"`
	CacheRemoteURL    string   `json:"CACHE_REMOTE_URL" env:"CACHE_REMOTE_URL"`
	CachePromotionTTL Duration `json:"CACHE_PROMOTION_TTL" env:"CACHE_PROMOTION_TTL"`

	// Image proxy
	ImageQueueEnabled bool     `json:"IMAGE_QUEUE_ENABLED" env:"IMAGE_QUEUE_ENABLED"`
	ImageQueueDelay   Duration `json:"IMAGE_QUEUE_DELAY" env:"IMAGE_QUEUE_DELAY"`

	// Sessions
	SessionRefreshBuffer Duration `json:"SESSION_REFRESH_BUFFER" env:"SESSION_REFRESH_BUFFER"`

	// Inbound per-IP limits
	RateLimitRPS   int64 `json:"RATE_LIMIT_RPS" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int64 `json:"RATE_LIMIT_BURST" env:"RATE_LIMIT_BURST"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                 constants.DefaultPort,
		LogLevel:             constants.DefaultLogLevel,
		LogMaxSizeMB:         50,
		LogMaxBackups:        3,
		UpstreamBaseURL:      constants.DefaultUpstreamBase,
		UpstreamRateLimit:    constants.DefaultUpstreamRate,
		CacheEnabled:         true,
		CacheTTLCatalog:      Duration(constants.CatalogTTL),
		CacheTTLMeta:         Duration(constants.MetaTTL),
		CacheTTLStream:       Duration(constants.StreamTTL),
		CacheTTLImage:        Duration(constants.ImageTTL),
		CacheMaxItems:        constants.DefaultCacheMaxItems,
		CachePromotionTTL:    Duration(constants.PromotionTTL),
		ImageQueueEnabled:    false,
		ImageQueueDelay:      Duration(constants.ImageQueueDelay),
		SessionRefreshBuffer: Duration(constants.SessionRefreshBuffer),
		RateLimitRPS:         constants.DefaultInboundRate,
		RateLimitBurst:       constants.DefaultInboundBurst,
	}
}

// Load reads configuration from an optional JSON file and the environment.
// Environment variables take precedence over file values.
// Returns an error if the configuration is invalid.
func Load() (*Config, error) {
	cfg := Default()

	configFile := getEnvOrDefault("CONFIG_FILE", defaultConfigFile)
	if err := cfg.loadFromFile(configFile); err != nil {
		// Ignore file not found errors
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a JSON file.
func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number, got %q", c.Port)
	}
	if !strings.HasPrefix(c.UpstreamBaseURL, "http://") && !strings.HasPrefix(c.UpstreamBaseURL, "https://") {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an http(s) URL, got %q", c.UpstreamBaseURL)
	}

	for name, ttl := range map[string]Duration{
		"CACHE_TTL_CATALOG":   c.CacheTTLCatalog,
		"CACHE_TTL_META":      c.CacheTTLMeta,
		"CACHE_TTL_STREAM":    c.CacheTTLStream,
		"CACHE_TTL_IMAGE":     c.CacheTTLImage,
		"CACHE_PROMOTION_TTL": c.CachePromotionTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.CacheMaxItems <= 0 {
		return fmt.Errorf("CACHE_MAX_ITEMS must be positive")
	}
	if c.ImageQueueDelay < 0 {
		return fmt.Errorf("IMAGE_QUEUE_DELAY must not be negative")
	}
	if c.SessionRefreshBuffer < 0 {
		return fmt.Errorf("SESSION_REFRESH_BUFFER must not be negative")
	}
	if c.UpstreamRateLimit <= 0 || c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if remote := strings.TrimSpace(c.CacheRemoteURL); remote != "" {
		switch {
		case strings.HasPrefix(remote, "redis://"), strings.HasPrefix(remote, "rediss://"), strings.HasPrefix(remote, "bolt://"):
		default:
			return fmt.Errorf("CACHE_REMOTE_URL must start with redis://, rediss:// or bolt://")
		}
	}

	return nil
}

// TTLs returns the per-category cache lifetimes.
func (c *Config) TTLs() cache.TTLs {
	return cache.TTLs{
		Catalog: c.CacheTTLCatalog.Std(),
		Meta:    c.CacheTTLMeta.Std(),
		Stream:  c.CacheTTLStream.Std(),
		Image:   c.CacheTTLImage.Std(),
	}
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
