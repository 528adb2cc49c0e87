// Package client provides an HTTP client for the branchcast worker.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/service"
)

// Client talks to a running branchcast-worker.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new worker client.
// If endpoint is empty, uses BRANCHCAST_WORKER_URL env var or defaults to localhost:9090.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("BRANCHCAST_WORKER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:9090"
	}

	timeout := 10 * time.Second
	if t := os.Getenv("BRANCHCAST_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// get fetches path and decodes the JSON body into result (if non-nil).
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Health checks that the worker is up.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// Stats returns the worker's in-memory operation statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.get(ctx, "/stats", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// States returns the generation state of every map the worker has seen.
func (c *Client) States(ctx context.Context) ([]service.MapState, error) {
	var states []service.MapState
	if err := c.get(ctx, "/states", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// State returns the generation state of one map.
func (c *Client) State(ctx context.Context, mapID string) (*service.MapState, error) {
	var st service.MapState
	if err := c.get(ctx, "/states/"+url.PathEscape(mapID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}
