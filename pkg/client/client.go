// Package client provides the HTTP transport for the Inspectorio Sight API:
// token authentication, JSON encoding, error decoding and optional response
// caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/sight-client/pkg/cache"
	"github.com/Sternrassler/sight-client/pkg/session"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sight API environments.
const (
	BaseURLProduction    = "https://sight.inspectorio.com/api/v1"
	BaseURLPreProduction = "https://sight.pre.inspectorio.com/api/v1"
	BaseURLStaging       = "https://sight.stg.inspectorio.com/api/v1"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "token"

// Prometheus metrics for Sight requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sight_requests_total",
		Help: "Total Sight requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sight_request_duration_seconds",
		Help:    "Sight request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sight_errors_total",
		Help: "Total Sight errors by class",
	}, []string{"class"})
)

var validate = validator.New()

// Config holds the client configuration.
type Config struct {
	// BaseURL is one of the BaseURL* constants or any absolute URL.
	BaseURL string `validate:"required,url"`

	// UserAgent is sent with every request when set.
	UserAgent string

	// Timeout bounds each HTTP call. Ignored when HTTPClient is set.
	Timeout time.Duration `validate:"gte=0"`

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Tokens stores the session token. Defaults to a session.MemoryStore.
	Tokens session.Store

	// Cache enables conditional caching of single-resource GETs.
	Cache *cache.Manager

	// CacheScope separates cache entries of different accounts.
	CacheScope string

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a production configuration with a 30s timeout.
func DefaultConfig() Config {
	return Config{
		BaseURL: BaseURLProduction,
		Timeout: 30 * time.Second,
	}
}

// Client is the Sight HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     session.Store
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
	closed     atomic.Bool
}

// New creates a new Sight client.
func New(cfg Config) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid client config")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = session.NewMemoryStore()
	}

	logger := log.With().Str("component", "sight-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     tokens,
		cache:      cfg.Cache,
		config:     cfg,
		logger:     logger,
	}, nil
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the session store.
func (c *Client) Tokens() session.Store {
	return c.tokens
}

// Login exchanges credentials for a session token and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload := map[string]string{
		"username": username,
		"password": password,
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := c.Do(ctx, http.MethodPost, "/auth/login", nil, payload, &resp); err != nil {
		return errors.Wrap(err, "login")
	}

	if resp.Data.Token == "" {
		return ErrTokenNotFound
	}

	if err := c.tokens.SetToken(ctx, resp.Data.Token); err != nil {
		return errors.Wrap(err, "store session token")
	}

	c.logger.Info().Str("username", username).Msg("Logged in to Sight")
	return nil
}

// Do sends a request to path (relative to the base URL) and decodes a
// successful JSON body into out. A nil out or an empty body skips decoding.
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.closed.Load() {
		return ErrClosed
	}

	endpoint := endpointLabel(path)
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var (
		cacheKey cache.CacheKey
		cached   *cache.CacheEntry
	)
	cacheable := c.cacheable(method, query)
	if cacheable {
		cacheKey = cache.CacheKey{Path: path, Query: query, Scope: c.config.CacheScope}
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}

		if cached != nil && !cached.HasValidators() {
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return decodeBody(cached.Data, out)
		}
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if cached != nil {
		cache.AddConditionalHeaders(req, cached)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Str("path", path).
		Msg("Executing Sight request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return errors.Wrapf(err, "read %s %s response", method, path)
	}
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		cache.NotModified.Inc()
		newExpires := cache.ParseExpires(resp.Header, c.cache.DefaultTTL())
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to update cache TTL")
		}
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified, serving cached body")
		return decodeBody(cached.Data, out)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		errorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.Class)).
			Msg("Sight request error")
		return apiErr
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		c.store(ctx, cacheKey, resp, respBody)
	}
	if c.cache != nil && method != http.MethodGet {
		c.invalidate(ctx, path)
	}

	return decodeBody(respBody, out)
}

// Close releases idle connections. Calls made afterwards fail with ErrClosed.
// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.httpClient.CloseIdleConnections()
	c.logger.Debug().Msg("Client closed")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	token, err := c.tokens.Token(ctx)
	switch {
	case err == nil:
		req.Header.Set(TokenHeader, token)
	case !errors.Is(err, session.ErrNoToken):
		return nil, errors.Wrap(err, "load session token")
	}

	return req, nil
}

// cacheable reports whether a request may be answered from cache. Paged
// listings are never cached.
func (c *Client) cacheable(method string, query url.Values) bool {
	if c.cache == nil || method != http.MethodGet {
		return false
	}
	return !query.Has("offset") && !query.Has("limit")
}

func (c *Client) store(ctx context.Context, key cache.CacheKey, resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	entry, err := cache.ResponseToEntry(resp, c.cache.DefaultTTL())
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}
	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
	}
}

// invalidate drops the cached single-resource GET of a path after a write.
func (c *Client) invalidate(ctx context.Context, path string) {
	key := cache.CacheKey{Path: path, Scope: c.config.CacheScope}
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Failed to invalidate cache entry")
	}
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

// endpointLabel returns the first path segment, keeping metric cardinality low.
func endpointLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}
