// Copyright 2025 Yaru Games
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
)

// MockResponse represents a canned HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
}

// MockHTTPClient is a mock implementation of HTTPClient for testing.
// Responses are looked up by full URL; unknown URLs yield an error. The
// request counter lets tests assert that no network call was made.
type MockHTTPClient struct {
	ResponseMap map[string]MockResponse

	mu       sync.Mutex
	requests []string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		ResponseMap: make(map[string]MockResponse),
	}
}

// SetResponse sets a canned response for a URL
func (m *MockHTTPClient) SetResponse(url string, response MockResponse) {
	m.ResponseMap[url] = response
}

// RequestCount returns the number of requests the mock has served or rejected
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Requests returns the URLs requested so far, in order
func (m *MockHTTPClient) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.requests...)
}

func (m *MockHTTPClient) lookup(url string) (MockResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, url)
	m.mu.Unlock()

	resp, ok := m.ResponseMap[url]
	if !ok {
		return MockResponse{}, fmt.Errorf("no mock response configured for %s", url)
	}

	return resp, nil
}

// Do executes an HTTP request against the response map
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := m.lookup(req.URL.String())
	if err != nil {
		return nil, err
	}

	return &http.Response{
		StatusCode: resp.StatusCode,
		Body:       io.NopCloser(bytes.NewReader(resp.Body)),
		Request:    req,
	}, nil
}

// GetWithBody performs a GET request against the response map
func (m *MockHTTPClient) GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error) {
	resp, err := m.lookup(url)
	if err != nil {
		return nil, nil, err
	}

	return &http.Response{StatusCode: resp.StatusCode}, resp.Body, nil
}

// StreamToFile writes the canned body for url into the file at path
func (m *MockHTTPClient) StreamToFile(ctx context.Context, url, path string) (int64, error) {
	resp, err := m.lookup(url)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	if err := os.WriteFile(path, resp.Body, 0644); err != nil {
		return 0, err
	}

	return int64(len(resp.Body)), nil
}
