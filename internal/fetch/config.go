package fetch

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "qpdown/1.0"

// Config holds the configuration for an HTTP fetcher.
type Config struct {
	// Timeout bounds a single request including reading the body.
	Timeout time.Duration
	// Retries is the number of extra attempts after a retryable failure. Zero disables retry.
	Retries uint
	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration
	// UserAgent is sent unless Headers sets one.
	UserAgent string
	// Headers are added to every request.
	Headers map[string]string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative, got %s", c.RetryDelay)
	}

	for k := range c.Headers {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("header name must not be empty")
		}
	}

	// Set defaults
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	return nil
}

// ParseHeaders converts "Name: value" strings into a header map.
func ParseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
		}
		headers[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}

	return headers, nil
}
