package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/sight-client/pkg/cache"
	"github.com/Sternrassler/sight-client/pkg/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*Config)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newTestCache(t *testing.T) *cache.Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return cache.NewManager(rc)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"staging", Config{BaseURL: BaseURLStaging}, false},
		{"missing base url", Config{}, true},
		{"relative base url", Config{BaseURL: "api/v1"}, true},
		{"negative timeout", Config{BaseURL: BaseURLProduction, Timeout: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c.Tokens())
		})
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New(Config{BaseURL: BaseURLPreProduction + "/"})
	require.NoError(t, err)
	assert.Equal(t, BaseURLPreProduction, c.BaseURL())
}

func TestLogin(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"data":{"token":"abc123"}}`)
	}))

	require.NoError(t, c.Login(context.Background(), "user", "pass"))
	assert.Equal(t, map[string]string{"username": "user", "password": "pass"}, gotBody)

	token, err := c.Tokens().Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestLogin_TokenMissing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))

	err := c.Login(context.Background(), "user", "pass")
	assert.True(t, errors.Is(err, ErrTokenNotFound))

	_, err = c.Tokens().Token(context.Background())
	assert.True(t, errors.Is(err, session.ErrNoToken))
}

func TestLogin_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errorCode":"Unauthorized","message":"Invalid credentials"}`)
	}))

	err := c.Login(context.Background(), "user", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorClassUnauthorized, apiErr.Class)
	assert.Contains(t, err.Error(), "API Error 401 [Unauthorized]: Invalid credentials")
}

func TestDo_SendsTokenAfterLogin(t *testing.T) {
	var tokens []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get(TokenHeader))
		if r.URL.Path == "/auth/login" {
			_, _ = io.WriteString(w, `{"data":{"token":"secret"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))

	ctx := context.Background()
	require.NoError(t, c.Do(ctx, http.MethodGet, "/brands", nil, nil, nil))
	require.NoError(t, c.Login(ctx, "u", "p"))
	require.NoError(t, c.Do(ctx, http.MethodGet, "/brands", nil, nil, nil))

	assert.Equal(t, []string{"", "", "secret"}, tokens)
}

func TestDo_QueryAndHeaders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.Equal(t, "NEW", r.URL.Query().Get("status"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "sight-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"total":1,"data":[{"id":"b1"}]}`)
	}), func(cfg *Config) { cfg.UserAgent = "sight-test/1.0" })

	var out struct {
		Total int `json:"total"`
	}
	err := c.Do(context.Background(), http.MethodGet, "/bookings",
		url.Values{"status": {"NEW"}, "limit": {"20"}}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
}

func TestDo_EmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	out := map[string]any{"untouched": true}
	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "/brands/1", nil, nil, &out))
	assert.Equal(t, map[string]any{"untouched": true}, out)
}

func TestDo_InvalidJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))

	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/brands/1", nil, nil, &out)
	assert.Error(t, err)
}

func TestDo_PlainTextError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	err := c.Do(context.Background(), http.MethodGet, "/reports", nil, nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, ErrorClassServer, apiErr.Class)
	assert.Equal(t, "API Error 502: upstream exploded\n", apiErr.Error())
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	c, err := New(Config{BaseURL: baseURL, Timeout: time.Second})
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodGet, "/brands", nil, nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClose(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Do(context.Background(), http.MethodGet, "/brands", nil, nil, nil)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.Zero(t, calls.Load())
}

func TestDo_ConditionalCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = io.WriteString(w, `{"data":{"id":"42"}}`)
	}), func(cfg *Config) { cfg.Cache = newTestCache(t) })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		var out struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		require.NoError(t, c.Do(ctx, http.MethodGet, "/brands/42", nil, nil, &out))
		assert.Equal(t, "42", out.Data.ID)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_CacheWithoutValidatorsServesDirectly(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"data":{"id":"7"}}`)
	}), func(cfg *Config) { cfg.Cache = newTestCache(t) })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		var out map[string]any
		require.NoError(t, c.Do(ctx, http.MethodGet, "/capas/7", nil, nil, &out))
		assert.NotEmpty(t, out)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_WriteInvalidatesCachedResource(t *testing.T) {
	var name atomic.Value
	name.Store("old")
	var gets atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			name.Store("new")
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			name.Store("deleted")
			w.WriteHeader(http.StatusNoContent)
		default:
			gets.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"name": name.Load().(string)}})
		}
	}), func(cfg *Config) { cfg.Cache = newTestCache(t) })

	ctx := context.Background()
	get := func() string {
		var out struct {
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		}
		require.NoError(t, c.Do(ctx, http.MethodGet, "/brands/1", nil, nil, &out))
		return out.Data.Name
	}

	assert.Equal(t, "old", get())
	assert.Equal(t, "old", get())
	assert.Equal(t, int32(1), gets.Load())

	require.NoError(t, c.Do(ctx, http.MethodPut, "/brands/1", nil, map[string]string{"name": "new"}, nil))
	assert.Equal(t, "new", get())
	assert.Equal(t, int32(2), gets.Load())

	require.NoError(t, c.Do(ctx, http.MethodDelete, "/brands/1", nil, nil, nil))
	assert.Equal(t, "deleted", get())
	assert.Equal(t, int32(3), gets.Load())
}

func TestDo_PagedListingsBypassCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"total":0,"data":[]}`)
	}), func(cfg *Config) { cfg.Cache = newTestCache(t) })

	ctx := context.Background()
	query := url.Values{"offset": {"0"}, "limit": {"10"}}
	require.NoError(t, c.Do(ctx, http.MethodGet, "/brands", query, nil, nil))
	require.NoError(t, c.Do(ctx, http.MethodGet, "/brands", query, nil, nil))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheable(t *testing.T) {
	c := &Client{cache: &cache.Manager{}}

	assert.True(t, c.cacheable(http.MethodGet, nil))
	assert.True(t, c.cacheable(http.MethodGet, url.Values{"lang": {"en"}}))
	assert.False(t, c.cacheable(http.MethodGet, url.Values{"offset": {"0"}}))
	assert.False(t, c.cacheable(http.MethodGet, url.Values{"limit": {"1"}}))
	assert.False(t, c.cacheable(http.MethodPut, nil))

	assert.False(t, (&Client{}).cacheable(http.MethodGet, nil))
}

func TestEndpointLabel(t *testing.T) {
	tests := map[string]string{
		"/bookings":                          "bookings",
		"/brands/42":                         "brands",
		"/metadata/analytics/abc":            "metadata",
		"/time-and-actions/1/milestones":     "time-and-actions",
		"":                                   "root",
		"/":                                  "root",
		"/analytics/factory-risk-profile/99": "analytics",
	}

	for path, want := range tests {
		assert.Equal(t, want, endpointLabel(path), path)
	}
}
