package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderflow/internal/constants"
	"orderflow/pkg/circuitbreaker"
)

var ErrUnexpectedStatus = errors.New("processor returned non-success status")

// Client posts serialized order records to the delivery order processor.
type Client struct {
	client  *http.Client
	url     string
	breaker *circuitbreaker.Wrapper
}

type Option func(*Client)

// WithBreaker guards every call with cb; an open breaker fails fast.
func WithBreaker(cb *circuitbreaker.Wrapper) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func NewClient(url string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	c := &Client{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Notify(ctx context.Context, body []byte) error {
	if c.breaker == nil {
		return c.post(ctx, body)
	}
	return c.breaker.Do(ctx, func() error {
		return c.post(ctx, body)
	})
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return nil
}
