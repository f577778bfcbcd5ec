package clcaclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// Health probes the CLCA endpoint with the same bearer credential as the
// ingest path. Operational tooling only; never part of the retry loop.
func (c *Client) Health(ctx context.Context) error {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	if err := c.authorize(req, requestID); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clca health check failed (%d): %s", resp.StatusCode, string(raw))
	}
	return nil
}
