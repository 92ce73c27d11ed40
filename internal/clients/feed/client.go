package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tazhate/icsync/internal/engine"
)

// Client downloads the source ICS feed, optionally with basic auth.
type Client struct {
	url        string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a new feed client. Username and password may be empty
// for public feeds.
func NewClient(url, username, password string) *Client {
	return &Client{
		url:      url,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads the feed document. A non-2xx status is reported as a
// FetchError, which aborts the sync run.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &engine.FetchError{URL: c.url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return body, nil
}
