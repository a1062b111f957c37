package accountsdk

import (
	"context"
	"net/http"
)

func (c *Client) Liveness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", "", nil, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// Readiness reports dependency health. A 503 still decodes, with the failing
// checks marked in Checks.
func (c *Client) Readiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.send(ctx, http.MethodGet, "/readyz", "", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	expected := http.StatusOK
	if resp.StatusCode == http.StatusServiceUnavailable {
		expected = http.StatusServiceUnavailable
	}
	if err := decodeJSON(resp, &health, expected); err != nil {
		return nil, err
	}
	return &health, nil
}
