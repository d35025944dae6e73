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
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/yarugames/bedrockci/pkg/logger"
	"go.uber.org/zap"
)

// userAgent mirrors a desktop browser; the download page rejects
// obviously non-browser agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultTransport is a shared transport with connection pooling
var defaultTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:        10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// HTTPClient interface for making HTTP requests
type HTTPClient interface {
	// Do executes an HTTP request and returns the response
	Do(req *http.Request) (*http.Response, error)

	// GetWithBody performs a GET request and returns the response with body bytes
	// This is a convenience method that combines request creation, execution,
	// and body reading in a single call
	GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error)

	// StreamToFile performs a GET request and streams the response body into
	// the file at path, returning the number of bytes written. Server
	// archives are several hundred megabytes, so the body is never held in
	// memory.
	StreamToFile(ctx context.Context, url, path string) (int64, error)
}

// DefaultHTTPClient is the default implementation of HTTPClient
type DefaultHTTPClient struct {
	client *http.Client
	logger *zap.SugaredLogger
}

// NewDefaultHTTPClient creates a new DefaultHTTPClient
func NewDefaultHTTPClient() *DefaultHTTPClient {
	return &DefaultHTTPClient{
		client: &http.Client{Transport: defaultTransport},
		logger: logger.For(logger.ComponentHTTPClient),
	}
}

// Do executes an HTTP request and returns the response
func (c *DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	return c.client.Do(req)
}

// GetWithBody performs a GET request and returns the response with body
func (c *DefaultHTTPClient) GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := c.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute request for %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response body for %s: %w", url, err)
	}

	return resp, body, nil
}

// StreamToFile performs a GET request and streams the response body into the file at path
func (c *DefaultHTTPClient) StreamToFile(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request for %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()

		return written, fmt.Errorf("failed to stream %s to %s: %w", url, path, err)
	}

	return written, out.Close()
}
