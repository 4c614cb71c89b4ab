package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Client is the backend REST API client (Boundary Layer). All JSON over
// HTTPS, bearer-token auth on the account surfaces.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new REST client for a base URL like
// "https://velocity.0v1.xyz/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "rest_client"),
	}
}

// SetToken installs the bearer token used for authenticated requests.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, empty if not logged in.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// apiError is the backend's JSON error payload.
type apiError struct {
	Error string `json:"error"`
}

// doRequest handles auth headers, serialization, and error decoding. The
// server's rejection message is surfaced verbatim.
func (c *Client) doRequest(ctx context.Context, op, method, path string, query url.Values, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newNetworkError(op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return newNetworkError(op, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			return newRejectionError(op, apiErr.Error)
		}
		return newRejectionError(op, fmt.Sprintf("status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return nil
}
