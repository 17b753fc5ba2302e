// Package testutil provides an httptest-backed Sight server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockResponse is a fixed response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Request is a request seen by the mock server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Collection is a paginated listing served with offset and limit.
type Collection struct {
	Records []json.RawMessage

	// Delay is applied to every page request.
	Delay time.Duration

	// FailOffsets answers the page at these offsets with the given status.
	FailOffsets map[int]int
}

// MockSight is a configurable mock Sight API.
type MockSight struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []Request

	inFlight    int
	maxInFlight int
}

// NewMockSight starts a mock server. Unknown paths answer 404 with a Sight
// error body.
func NewMockSight() *MockSight {
	mock := &MockSight{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if !exists {
			writeError(w, http.StatusNotFound, "NotFound", "Resource not found")
			return
		}
		handler(w, r)
	}))

	return mock
}

// URL returns the server URL, used as the client base URL.
func (m *MockSight) URL() string {
	return m.server.URL
}

// Close shuts down the server.
func (m *MockSight) Close() {
	m.server.Close()
}

// SetHandler installs a handler for an exact path.
func (m *MockSight) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse answers path with a fixed response.
func (m *MockSight) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// SetJSON answers path with v encoded as JSON.
func (m *MockSight) SetJSON(path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal %s response: %v", path, err))
	}
	m.SetResponse(path, MockResponse{StatusCode: http.StatusOK, Body: string(data)})
}

// SetLogin answers /auth/login with token.
func (m *MockSight) SetLogin(token string) {
	m.SetJSON("/auth/login", map[string]any{
		"data": map[string]string{"token": token},
	})
}

// SetCollection serves a paginated listing at path.
func (m *MockSight) SetCollection(path string, c Collection) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		m.enter()
		defer m.leave()

		if c.Delay > 0 {
			time.Sleep(c.Delay)
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = 10
		}

		if status, fail := c.FailOffsets[offset]; fail {
			writeError(w, status, "PageFailed", fmt.Sprintf("page at offset %d failed", offset))
			return
		}

		total := len(c.Records)
		start := min(max(offset, 0), total)
		end := min(start+limit, total)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": total,
			"data":  c.Records[start:end],
		})
	})
}

// Records builds n records of the form {"id": i}.
func Records(n int) []json.RawMessage {
	records := make([]json.RawMessage, n)
	for i := range records {
		records[i] = json.RawMessage(fmt.Sprintf(`{"id":%d}`, i))
	}
	return records
}

// Requests returns the requests received so far.
func (m *MockSight) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// RequestsFor returns the requests received for path.
func (m *MockSight) RequestsFor(path string) []Request {
	var out []Request
	for _, r := range m.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// LastRequest returns the most recent request, or nil.
func (m *MockSight) LastRequest() *Request {
	requests := m.Requests()
	if len(requests) == 0 {
		return nil
	}
	return &requests[len(requests)-1]
}

// MaxInFlight returns the peak number of concurrent collection requests.
func (m *MockSight) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Reset clears recorded requests and counters.
func (m *MockSight) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.inFlight = 0
	m.maxInFlight = 0
}

func (m *MockSight) enter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
}

func (m *MockSight) leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"errorCode": code,
		"message":   message,
	})
}
