package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderflow/internal/constants"
)

var (
	ErrNotConfigured = errors.New("fallback webhook url is not configured")
	ErrRejected      = errors.New("fallback webhook rejected the payload")
)

// Client forwards raw payloads to the fallback webhook. Bytes are sent as
// received.
type Client struct {
	client *http.Client
	url    string
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultFallbackTimeout
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (c *Client) Configured() bool {
	return c.url != ""
}

// Post returns the response status. A non-2xx status is returned together
// with ErrRejected.
func (c *Client) Post(ctx context.Context, body []byte) (int, error) {
	if c.url == "" {
		return 0, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create fallback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fallback request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return resp.StatusCode, nil
}
