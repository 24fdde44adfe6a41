// Package client provides the HTTP client for the movie search service with
// response caching, request coalescing and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/cache"
	"github.com/Sternrassler/movie-search-client/pkg/logging"
	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/query"
	"github.com/Sternrassler/movie-search-client/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// maxBodyBytes caps the size of a search response body.
const maxBodyBytes = 4 << 20

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// Client is the movie search client.
type Client struct {
	httpClient *http.Client
	cache      cache.Store
	config     Config
	limiter    *ratelimit.Limiter
	logger     zerolog.Logger
	inflight   singleflight.Group
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the search service, e.g. "http://localhost:8000".
	BaseURL string

	// User-Agent header sent with every request.
	UserAgent string

	// Timeout for a single HTTP attempt.
	Timeout time.Duration

	// Retry. Zero disables retries: a failed search surfaces immediately.
	MaxRetries int

	// Pacing. RateLimit is requests per second (0 = unlimited); RateBurst
	// defaults to 1. A 429 response pauses requests for its Retry-After.
	RateLimit float64
	RateBurst int

	// Caching. Cache is optional; CacheTTL is used when the response
	// carries no Cache-Control or Expires header.
	Cache    cache.Store
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "movie-search-client/0.1.0",
		Timeout:   10 * time.Second,
		CacheTTL:  cache.DefaultTTL,
	}
}

// New creates a new search client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %v)", cfg.RateLimit)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cfg.Cache,
		config: cfg,
		limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             cfg.RateBurst,
		}, logging.NewLogger("ratelimit")),
		logger: logging.NewLogger("search-client"),
	}, nil
}

// Do performs an HTTP request with retry and error classification.
//
// 2xx and 4xx responses are returned to the caller. Server errors, 429 and
// network failures are retried up to MaxRetries times and returned as a
// *SearchError once attempts run out.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(HeaderRequestID, requestID)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	logger := c.logger.With().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Logger()

	logger.Debug().
		Str("method", req.Method).
		Str("query", req.URL.RawQuery).
		Msg("Executing search request")

	var resp *http.Response
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, c.config.MaxRetries+1, func() error {
		errClass = ""
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(req)

		if reqErr != nil {
			errClass = c.classifyError(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			logger.Warn().Err(reqErr).Msg("HTTP request failed")
			return &SearchError{
				Kind:       ErrTransport,
				ErrorClass: errClass,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		c.limiter.UpdateFromResponse(resp.StatusCode, resp.Header)

		if resp.StatusCode >= 400 {
			errClass = c.classifyError(resp, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			logger.Warn().
				Int("status_code", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Search request error")

			if shouldRetry(errClass) {
				err := &SearchError{
					Kind:       ErrTransport,
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
				drainAndClose(resp)
				resp = nil
				return err
			}

			// Client errors are not retried; the caller inspects the status.
			return nil
		}

		return nil
	}, func(err error) ErrorClass {
		return errClass
	})

	if retryErr != nil {
		if resp != nil {
			drainAndClose(resp)
		}
		logger.Error().Err(retryErr).Msg("Search request failed")
		return nil, retryErr
	}

	return resp, nil
}

// Search runs one search call and decodes the result page.
//
// Cached pages are served without a network round trip. Concurrent searches
// for the same request share a single HTTP call. Failures are *SearchError
// values matching ErrTransport or ErrDecode.
func (c *Client) Search(ctx context.Context, req query.Request) (*movie.SearchResult, error) {
	key := cache.KeyFor(req)

	if result, ok := c.fromCache(ctx, key); ok {
		return result, nil
	}

	v, err, shared := c.inflight.Do(key.String(), func() (any, error) {
		return c.fetch(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}

	result := v.(*movie.SearchResult)
	if shared {
		sharedFetchesTotal.Inc()
		// Each caller gets its own copy.
		result = &movie.SearchResult{
			Movies: append([]movie.Movie(nil), result.Movies...),
			Total:  result.Total,
		}
		if result.Movies == nil {
			result.Movies = []movie.Movie{}
		}
	}
	return result, nil
}

// fromCache returns a previously cached page for key, if any.
func (c *Client) fromCache(ctx context.Context, key cache.Key) (*movie.SearchResult, bool) {
	if c.cache == nil {
		return nil, false
	}

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
		return nil, false
	}

	result, err := movie.Unmarshal(entry.Data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Dropping undecodable cache entry")
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.Warn().Err(err).Msg("Cache delete error")
		}
		return nil, false
	}

	c.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", entry.TTL()).
		Bool("cache_hit", true).
		Msg("Serving search from cache")
	return result, true
}

// fetch performs the HTTP call for req and stores the decoded body in the cache.
func (c *Client) fetch(ctx context.Context, req query.Request, key cache.Key) (*movie.SearchResult, error) {
	target, err := req.URL(c.config.BaseURL)
	if err != nil {
		return nil, &SearchError{Kind: ErrTransport, Message: "build url", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &SearchError{Kind: ErrTransport, Message: "create request", Err: err}
	}

	resp, err := c.Do(httpReq)
	if err != nil {
		if errors.Is(err, ErrTransport) {
			return nil, err
		}
		return nil, &SearchError{Kind: ErrTransport, ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &SearchError{
			Kind:       ErrTransport,
			StatusCode: resp.StatusCode,
			ErrorClass: c.classifyError(resp, nil),
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &SearchError{
			Kind:       ErrTransport,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	result, err := movie.Unmarshal(body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		c.logger.Warn().
			Err(err).
			Str("endpoint", req.Path).
			Int("status_code", resp.StatusCode).
			Msg("Search response rejected")
		return nil, &SearchError{
			Kind:       ErrDecode,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Err:        err,
		}
	}

	c.store(ctx, key, body, resp.Header)
	return result, nil
}

// store caches a successful response body until its expiry.
func (c *Client) store(ctx context.Context, key cache.Key, body []byte, headers http.Header) {
	if c.cache == nil {
		return
	}

	entry := cache.NewEntry(body, cache.ExpiresFromHeaders(headers, c.config.CacheTTL))
	if entry.TTL() <= 0 {
		return
	}

	// The request context may already be cancelled once the body is read.
	ctx = context.WithoutCancel(ctx)
	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache response")
		return
	}

	c.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", entry.TTL()).
		Msg("Cached response")
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
}

// Close closes the client and its cache.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// BaseURL returns the configured search service URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// RateLimitState returns the current pacing state.
func (c *Client) RateLimitState() ratelimit.State {
	return c.limiter.State()
}

// Cache returns the configured cache store, or nil.
func (c *Client) Cache() cache.Store {
	return c.cache
}
