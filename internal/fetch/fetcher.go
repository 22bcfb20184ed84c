// Package fetch retrieves playlists and media segments over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-hclog"
)

// Fetcher retrieves a single resource and returns its full body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is an HTTP Fetcher. By default every URL is requested exactly once;
// Config.Retries enables bounded retry of transient failures.
type Client struct {
	config Config
	http   *http.Client
	logger hclog.Logger
}

// New creates a new HTTP fetcher.
func New(config Config, logger hclog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
			Transport: &headerTransport{
				headers:   config.Headers,
				userAgent: config.UserAgent,
				base:      http.DefaultTransport,
			},
		},
		logger: logger.Named("fetch"),
	}, nil
}

// Fetch performs a GET request. Transport failures are returned as *NetworkError and
// non-2xx responses as *HTTPStatusError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.config.Retries == 0 {
		return c.get(ctx, url)
	}

	var body []byte
	err := retry.Do(
		func() error {
			data, err := c.get(ctx, url)
			if err != nil {
				if !retryable(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.config.Retries+1),
		retry.Delay(c.config.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying request", "url", url, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Trace("fetched", "url", url, "status", resp.StatusCode, "bytes", len(data))

	return data, nil
}

// retryable reports whether a failed request is worth repeating.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	return errors.Is(err, ErrNetwork)
}
