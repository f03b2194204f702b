// Package upstream talks to the video platform's HTTP API and its image CDN.
// The client is stateless apart from pacing and the per-URL block cooldown.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/pkg/httputil"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
	"github.com/amaumene/gostremiocatalog/pkg/ratelimiter"
)

const apiPrefix = "/api/v1"

// RetryPolicy controls how 403 answers are retried. Other failures are not.
type RetryPolicy struct {
	Attempts  uint
	BaseDelay time.Duration
	MaxDelay  time.Duration
	MaxJitter time.Duration
}

// DefaultRetryPolicy returns the production backoff settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  constants.MaxBlockedAttempts,
		BaseDelay: constants.RetryBaseDelay,
		MaxDelay:  constants.RetryMaxDelay,
		MaxJitter: constants.RetryMaxJitter,
	}
}

// Options configures a Client. Zero values use the package defaults.
type Options struct {
	BaseURL         string
	HTTPClient      *http.Client
	RateLimiter     ratelimiter.RateLimiter
	Logger          logger.Logger
	Retry           RetryPolicy
	BlockedCooldown time.Duration
	ImageTimeout    time.Duration
}

type Client struct {
	httpClient      *http.Client
	baseURL         string
	rateLimiter     ratelimiter.RateLimiter
	logger          logger.Logger
	retry           RetryPolicy
	blockedCooldown time.Duration
	imageTimeout    time.Duration

	mu      sync.Mutex
	blocked map[string]time.Time // url -> end of cooldown
	now     func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultUpstreamBase
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httputil.NewHTTPClient(constants.UpstreamTimeout)
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = ratelimiter.NewTokenBucket(constants.DefaultUpstreamBurst, constants.DefaultUpstreamRate)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.BlockedCooldown <= 0 {
		opts.BlockedCooldown = constants.BlockedURLCooldown
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = constants.ImageFetchTimeout
	}

	return &Client{
		httpClient:      opts.HTTPClient,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		rateLimiter:     opts.RateLimiter,
		logger:          opts.Logger,
		retry:           opts.Retry,
		blockedCooldown: opts.BlockedCooldown,
		imageTimeout:    opts.ImageTimeout,
		blocked:         make(map[string]time.Time),
		now:             time.Now,
	}
}

// Search lists franchises matching params.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Item, error) {
	query := url.Values{}
	if params.Query != "" {
		query.Set("q", params.Query)
	}
	if params.Genre != "" {
		query.Set("genre", params.Genre)
	}
	if params.Sort != "" {
		query.Set("sort", params.Sort)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		query.Set("perPage", strconv.Itoa(params.PerPage))
	}

	endpoint := c.baseURL + apiPrefix + "/search"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	c.logger.Debugf("[Upstream] search %q returned %d items", params.Query, len(resp.Items))
	return resp.Items, nil
}

// GetVideoData returns the franchise identified by slug, or nil when the
// upstream has no such franchise.
func (c *Client) GetVideoData(ctx context.Context, slug string) (*VideoData, error) {
	if slug == "" {
		return nil, apperrors.NewInvalidInputError("slug is required")
	}

	var data VideoData
	err := c.getJSON(ctx, c.baseURL+apiPrefix+"/videos/"+url.PathEscape(slug), "", &data)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAuthenticatedStreamDetails returns the streams a logged-in user may play for videoID.
func (c *Client) GetAuthenticatedStreamDetails(ctx context.Context, sessionToken, videoID string) (*StreamDetails, error) {
	if videoID == "" {
		return nil, apperrors.NewInvalidInputError("video id is required")
	}

	var details StreamDetails
	endpoint := c.baseURL + apiPrefix + "/videos/" + url.PathEscape(videoID) + "/streams"
	if err := c.getJSON(ctx, endpoint, sessionToken, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	raw, _, err := c.do(ctx, http.MethodPost, c.baseURL+apiPrefix+"/auth/login", "", body, constants.MaxUpstreamBodyBytes)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeAuthentication) || apperrors.StatusOf(err) == http.StatusBadRequest {
			return nil, apperrors.NewAuthenticationError("login rejected", err)
		}
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.NewUnavailableError("failed to decode login response", err)
	}
	if result.SessionToken == "" {
		return nil, apperrors.NewAuthenticationError("login returned no session token", nil)
	}
	return &result, nil
}

// FetchImageBytes downloads an image from an absolute CDN URL. The content
// type is sniffed when the CDN does not send a usable one.
func (c *Client) FetchImageBytes(ctx context.Context, imageURL string) (*Image, error) {
	if imageURL == "" {
		return nil, apperrors.NewInvalidInputError("image url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.imageTimeout)
	defer cancel()

	raw, contentType, err := c.do(ctx, http.MethodGet, imageURL, "", nil, constants.MaxImageBytes)
	if err != nil {
		return nil, err
	}

	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = mimetype.Detect(raw).String()
	}
	return &Image{Bytes: raw, ContentType: contentType}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, sessionToken string, out interface{}) error {
	raw, _, err := c.do(ctx, http.MethodGet, endpoint, sessionToken, nil, constants.MaxUpstreamBodyBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewUnavailableError("failed to decode response", err)
	}
	return nil
}

// do performs one logical request, retrying 403 answers with exponential
// backoff and jitter.
func (c *Client) do(ctx context.Context, method, endpoint, sessionToken string, body []byte, limit int64) ([]byte, string, error) {
	var (
		payload     []byte
		contentType string
	)

	err := retry.Do(
		func() error {
			var err error
			payload, contentType, err = c.attempt(ctx, method, endpoint, sessionToken, body, limit)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.retry.Attempts),
		retry.Delay(c.retry.BaseDelay),
		retry.MaxDelay(c.retry.MaxDelay),
		retry.MaxJitter(c.retry.MaxJitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(apperrors.IsBlocked),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debugf("[Upstream] %s blocked, retry %d/%d: %v", redact(endpoint), n+1, c.retry.Attempts-1, err)
		}),
	)
	if err != nil {
		if apperrors.IsBlocked(err) {
			c.logger.Warnf("[Upstream] %s still blocked after %d attempts", redact(endpoint), c.retry.Attempts)
		} else if !apperrors.IsNotFound(err) {
			c.logger.Errorf("[Upstream] %s %s failed: %v", method, redact(endpoint), err)
		}
		return nil, "", err
	}
	return payload, contentType, nil
}

func (c *Client) attempt(ctx context.Context, method, endpoint, sessionToken string, body []byte, limit int64) ([]byte, string, error) {
	if err := c.waitCooldown(ctx, endpoint); err != nil {
		return nil, "", err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, "", apperrors.NewInvalidInputError(fmt.Sprintf("failed to create request: %v", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, image/*")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", apperrors.NewUnavailableError("failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusForbidden {
			c.markBlocked(endpoint)
		}
		return nil, "", apperrors.NewUpstreamError(resp.StatusCode, fmt.Sprintf("%s %s", method, redact(endpoint)), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", apperrors.NewUnavailableError("failed to read response", err)
	}
	c.clearBlocked(endpoint)
	return raw, resp.Header.Get("Content-Type"), nil
}

// waitCooldown delays a request to a URL that answered 403 recently.
func (c *Client) waitCooldown(ctx context.Context, endpoint string) error {
	c.mu.Lock()
	until, ok := c.blocked[endpoint]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	wait := until.Sub(c.now())
	if wait <= 0 {
		return nil
	}
	c.logger.Debugf("[Upstream] %s cooling down for %v", redact(endpoint), wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) markBlocked(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for u, until := range c.blocked {
		if !until.After(now) {
			delete(c.blocked, u)
		}
	}
	c.blocked[endpoint] = now.Add(c.blockedCooldown)
}

func (c *Client) clearBlocked(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.blocked, endpoint)
}

// redact drops the query string, which may carry search terms or signatures.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
