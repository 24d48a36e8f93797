// Package httputil provides the shared HTTP plumbing for all upstream clients.
//
// It covers the concerns every outbound call has in common: a bounded-timeout
// http.Client, default headers (bearer credentials), JSON/text/byte decoding,
// status-code mapping to sentinel errors, and retry with exponential backoff
// for transient failures.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/funcfeed/funcfeed/pkg/observability"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a resource doesn't exist upstream (404).
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// Client provides shared HTTP functionality for the CI, registry, and feed clients.
// It handles common request headers and optional retry of transient failures.
//
// Retries default to off: a failed sub-operation fails the whole aggregation
// run. Operators who want backoff on 5xx responses can raise Attempts in the
// service configuration.
type Client struct {
	http    *http.Client
	headers map[string]string
	backoff Backoff
}

// NewClient creates a Client with the given default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string) *Client {
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		headers: headers,
		backoff: Backoff{Attempts: 1, Delay: time.Second},
	}
}

// SetHTTPClient replaces the underlying http.Client. Intended for tests.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetAttempts sets how many times transient failures are attempted.
// Values below 1 are treated as 1 (no retry).
func (c *Client) SetAttempts(n int) { c.backoff.Attempts = max(n, 1) }

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return c.backoff.Do(ctx, fn)
}

// GetJSON performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return c.retry(ctx, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		return json.NewDecoder(body).Decode(v)
	})
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for non-JSON endpoints like checksum sidecar files.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	data, err := c.GetBytes(ctx, url)
	return string(data), err
}

// GetBytes performs an HTTP GET request and returns the raw response body.
// Used for artifact downloads that are opened as archives.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := c.retry(ctx, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		return err
	})
	return data, err
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, req.URL.Path); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus maps a response code to the package's sentinel errors.
// The attempted path is carried in the message so a failing aggregation
// run names the call that broke it.
func checkStatus(code int, path string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: status %d on %s", ErrNetwork, code, path)}
	default:
		return fmt.Errorf("%w: status %d on %s", ErrNetwork, code, path)
	}
}
