// Package registry talks to the external legacy personnel registry: a
// read-only source that supplies periodic snapshots of officer data. The
// service never writes back.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"servicebook/internal/platform/config"
	"servicebook/internal/record"
	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
)

// Client fetches registry snapshots over HTTP with retries. Snapshot reads
// are idempotent, so transient failures are retried transparently.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

func NewClient(cfg config.RegistryConfig) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.HTTPClient.Timeout = cfg.Timeout
	c.Logger = nil
	return &Client{baseURL: cfg.BaseURL, httpClient: c}
}

// snapshotResponse is the registry's wire shape: a list of entries keyed by
// the registry's own field names.
type snapshotResponse struct {
	Entries []map[string]string `json:"entries"`
}

// personalResponse carries the registry's personal-data section.
type personalResponse struct {
	Fields map[string]string `json:"fields"`
}

// Snapshot returns the registry's current entries for one officer and
// category, in registry-native field names.
func (c *Client) Snapshot(ctx context.Context, officerID id.OfficerID, category id.Category) ([]record.RawExternal, error) {
	url := fmt.Sprintf("%s/officers/%s/%s", c.baseURL, officerID, category)
	var payload snapshotResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	out := make([]record.RawExternal, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		out = append(out, record.RawExternal{Fields: entry})
	}
	return out, nil
}

// Personal returns the registry's personal-data fields for one officer.
func (c *Client) Personal(ctx context.Context, officerID id.OfficerID) (map[string]string, error) {
	url := fmt.Sprintf("%s/officers/%s/personal", c.baseURL, officerID)
	var payload personalResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload.Fields, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("registry fetch: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry fetch: %w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}
