package accountsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls public endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Session calls endpoints that require an ID token.
type Session struct {
	client *Client
	token  string
}

// WithBearer returns a Session authenticating with idToken.
func (c *Client) WithBearer(idToken string) *Session {
	return &Session{client: c, token: idToken}
}

// do sends body as JSON (when non-nil) and decodes a response with the
// expected status into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any, expectedStatus int) error {
	resp, err := c.send(ctx, method, path, bearer, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}

func (c *Client) send(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func decodeJSON(resp *http.Response, out any, expectedStatus int) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
