// Package twflow provides a small Go client for the dashboard server API.
package twflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to a tw-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetLatest retrieves the current snapshot document.
func (c *Client) GetLatest(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/data/latest.json")
}

// GetDates retrieves the available history dates.
func (c *Client) GetDates(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/api/dates")
}

// GetHistory retrieves one archived snapshot document ("YYYYMMDD").
func (c *Client) GetHistory(ctx context.Context, date string) ([]byte, error) {
	return c.get(ctx, "/api/history/"+date)
}

// GetTop retrieves one day's full archived top list ("YYYY-MM-DD").
func (c *Client) GetTop(ctx context.Context, date string) ([]byte, error) {
	return c.get(ctx, "/api/top/"+date)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
