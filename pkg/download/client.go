/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package download provides an HTTP fetch client with bounded retries.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	// DefaultMaxSize bounds a single response body (100 MB, the largest JAR we accept).
	DefaultMaxSize = 100 * 1024 * 1024
	userAgent      = "modsyncer (+https://github.com/lexfrei/modsyncer)"
)

// DefaultBackoff retries transient failures four times, doubling from 500ms.
var DefaultBackoff = wait.Backoff{
	Duration: 500 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
	Steps:    4,
}

// ErrTooLarge is returned when a response body exceeds the configured maximum size.
var ErrTooLarge = errors.New("response exceeds maximum size")

// NetworkError is returned when a URL could not be fetched after all retries.
type NetworkError struct {
	URL string
	// StatusCode is the last HTTP status received, 0 when the request never completed.
	StatusCode int
	Attempts   int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}

	return fmt.Sprintf("fetching %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a non-retryable HTTP response such as 404 or 401.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err carries an HTTP 404 response.
func IsNotFound(err error) bool {
	var statusErr *StatusError

	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Fetcher downloads a URL into memory.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client fetches URLs with retries on network errors, 429 and 5xx responses.
type Client struct {
	httpClient *http.Client
	backoff    wait.Backoff
	headers    map[string]string
	maxSize    int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBackoff replaces the retry schedule.
func WithBackoff(backoff wait.Backoff) Option {
	return func(c *Client) {
		c.backoff = backoff
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithMaxSize bounds the accepted response body size.
func WithMaxSize(size int64) Option {
	return func(c *Client) {
		c.maxSize = size
	}
}

// NewClient creates a download client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		backoff:    DefaultBackoff,
		headers:    map[string]string{"User-Agent": userAgent},
		maxSize:    DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch downloads url and returns the body.
// Transient failures are retried according to the backoff; the final failure
// is a *NetworkError. Non-retryable HTTP statuses return a *StatusError at once.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		lastErr  error
		lastCode int
		attempts int
	)

	err := wait.ExponentialBackoffWithContext(ctx, c.backoff, func(ctx context.Context) (bool, error) {
		attempts++

		data, code, err := c.fetchOnce(ctx, url)
		lastCode = code

		switch {
		case err == nil:
			body = data

			return true, nil
		case isPermanent(code), errors.Is(err, ErrTooLarge):
			return false, err
		default:
			lastErr = err
			slog.DebugContext(ctx, "Fetch failed, retrying", "url", url, "attempt", attempts, "error", err)

			return false, nil
		}
	})
	if err == nil {
		return body, nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) || errors.Is(err, ErrTooLarge) {
		return nil, err
	}

	if lastErr == nil {
		lastErr = err
	}

	return nil, &NetworkError{URL: url, StatusCode: lastCode, Attempts: attempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create request")
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to execute request")
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "failed to read response body")
	}

	if int64(len(data)) > c.maxSize {
		return nil, resp.StatusCode, errors.Wrapf(ErrTooLarge, "limit is %d bytes", c.maxSize)
	}

	return data, resp.StatusCode, nil
}

// isPermanent reports whether an HTTP status will not change on retry.
func isPermanent(code int) bool {
	if code == 0 || code == http.StatusOK {
		return false
	}

	if code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return false
	}

	return code < http.StatusInternalServerError
}
