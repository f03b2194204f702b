// Package httputil provides HTTP client utilities with standard configurations.
package httputil

import (
	"net/http"
	"time"
)

const (
	// Default timeout for HTTP requests
	defaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent on every upstream request unless overridden.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

	// Transport configuration constants
	maxIdleConns        = 32
	maxIdleConnsPerHost = 8
	idleConnTimeout     = 90 * time.Second
)

// userAgentTransport sets a User-Agent header when the request carries none.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient creates a new HTTP client with the specified timeout.
// The client is configured with connection pooling and a default User-Agent.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return NewHTTPClientWithAgent(timeout, DefaultUserAgent)
}

// NewHTTPClientWithAgent is NewHTTPClient with an explicit User-Agent.
func NewHTTPClientWithAgent(timeout time.Duration, userAgent string) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConnsPerHost,
				IdleConnTimeout:     idleConnTimeout,
			},
			userAgent: userAgent,
		},
	}
}

// NewDefaultHTTPClient creates a new HTTP client with default 30 second timeout.
func NewDefaultHTTPClient() *http.Client {
	return NewHTTPClient(defaultTimeout)
}
