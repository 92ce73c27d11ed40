package caldav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-webdav/caldav"

	"github.com/tazhate/icsync/internal/engine"
)

// Client talks to a Nextcloud CalDAV endpoint. The raw GET/PUT/DELETE
// operations used by the sync engine go over a plain HTTP client so that
// per-request status codes and response bodies stay visible; the go-webdav
// client is only used for calendar discovery.
type Client struct {
	baseURL    string // Nextcloud root, e.g. https://cloud.example.com
	username   string
	password   string
	httpClient *http.Client
	client     *caldav.Client
}

// NewClient creates a new Nextcloud CalDAV client.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Transport: &basicAuthTransport{
				username: username,
				password: password,
			},
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has credentials
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != ""
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// connect establishes the go-webdav connection used for discovery
func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	client, err := caldav.NewClient(c.httpClient, c.baseURL+"/remote.php/dav")
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// Fetch downloads a calendar document. Any non-2xx status is reported as a
// FetchError, which aborts the sync run.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &engine.FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return body, nil
}

// Put uploads a single-event calendar document to the given resource URL and
// returns the server's status code and response body.
func (c *Client) Put(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("put %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return resp.StatusCode, respBody, nil
}

// Delete removes the resource at the given URL and returns the server's
// status code and response body.
func (c *Client) Delete(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("delete %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return resp.StatusCode, respBody, nil
}

// DiscoverCalendars returns all calendars available to the user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{
			ID:          calendarIDFromPath(cal.Path, c.username),
			DisplayName: cal.Name,
			URL:         cal.Path,
		})
	}

	return result, nil
}

// calendarIDFromPath extracts the calendar ID from a DAV path like
// /remote.php/dav/calendars/<username>/<id>/. Returns "" when the path does
// not contain the username segment.
func calendarIDFromPath(path, username string) string {
	_, rest, found := strings.Cut(path, "/"+username+"/")
	if !found {
		return ""
	}
	return strings.Trim(rest, "/")
}
