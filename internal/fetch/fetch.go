// Package fetch is the outbound HTTP client shared by the prayer and profile
// challenge features. Every host gets its own circuit breaker; requests are
// never retried.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/edgard/dayplanbot/internal/resilience"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrStatus, e.URL, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Config tunes the client.
type Config struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	UserAgent       string
}

// Client performs GET requests through per-host circuit breakers.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewClient creates a Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		http:     httpClient,
		cfg:      cfg,
		logger:   logger.With("component", "fetch"),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
}

func (c *Client) breaker(host string) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[host]
	if !ok {
		cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        host,
			MaxFailures: c.cfg.BreakerFailures,
			Timeout:     c.cfg.Timeout,
			OpenTimeout: c.cfg.BreakerTimeout,
			Logger:      c.logger,
		})
		c.breakers[host] = cb
	}
	return cb
}

// Get fetches rawURL with the query parameters and returns the body.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body []byte
	err = c.breaker(u.Host).Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if c.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", c.cfg.UserAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", u.Host, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
			return &StatusError{URL: u.Redacted(), Code: resp.StatusCode}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("failed to read response from %s: %w", u.Host, err)
		}
		return nil
	})
	if err != nil {
		c.logger.DebugContext(ctx, "Request failed", "host", u.Host, "error", err)
		return nil, err
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, v any) error {
	body, err := c.Get(ctx, rawURL, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
