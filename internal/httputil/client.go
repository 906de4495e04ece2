// Package httputil provides the HTTP client seam used by the feed poller,
// plus shared JSON response helpers for the API server.
package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Client abstracts HTTP fetches so the feed poller can be tested against
// canned responses. Production code wraps *http.Client.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardClient adapts *http.Client to Client.
type StandardClient struct {
	*http.Client
}

// NewStandardClient wraps c, falling back to http.DefaultClient when nil.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &StandardClient{Client: c}
}

func (c *StandardClient) Do(req *http.Request) (*http.Response, error) {
	return c.Client.Do(req)
}

// MockClient returns queued responses in order and records every request.
type MockClient struct {
	mu        sync.Mutex
	requests  []*http.Request
	responses []mockResponse
	next      int
}

type mockResponse struct {
	status int
	body   string
	err    error
}

// NewMockClient creates an empty MockClient. A request past the end of the
// queue gets an empty 200.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// AddResponse queues a canned response.
func (m *MockClient) AddResponse(status int, body string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{status: status, body: body})
	return m
}

// AddError queues a transport-level error.
func (m *MockClient) AddError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.next >= len(m.responses) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	r := m.responses[m.next]
	m.next++
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// RequestCount reports how many requests were issued.
func (m *MockClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockClient) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
