// Package asana exposes the Asana REST API as gateway tools.
package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

const (
	DefaultBaseURL      = "https://app.asana.com/api/1.0"
	DefaultWorkspaceGID = "373563495855656"
	DefaultTimeout      = 30 * time.Second
	DefaultRetryMax     = 2
)

var ErrMissingToken = errors.New("asana token is not configured")

// Config holds Asana client settings.
type Config struct {
	Token        string
	WorkspaceGID string
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana: %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Client is a thin JSON client for the Asana API. Requests that fail with
// 429 or 5xx are retried with backoff.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	token     string
	workspace string
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.WorkspaceGID == "" {
		cfg.WorkspaceGID = DefaultWorkspaceGID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger.With("asana")
	// Hand the last response back instead of a generic "giving up" error so
	// callers see Asana's status and message.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		http:      rc,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		workspace: cfg.WorkspaceGID,
	}, nil
}

// Workspace returns the default workspace gid.
func (c *Client) Workspace() string {
	return c.workspace
}

// Get issues a GET and decodes the response envelope.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// Post sends data wrapped as {"data": data}.
func (c *Client) Post(ctx context.Context, path string, data map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, nil, map[string]any{"data": data})
}

// Put sends data wrapped as {"data": data}.
func (c *Client) Put(ctx context.Context, path string, data map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodPut, path, nil, map[string]any{"data": data})
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (map[string]any, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("asana: encode body: %w", err)
		}
		payload = encoded
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("asana: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asana: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("asana: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: excerpt(raw)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("asana: decode response: %w", err)
	}
	return decoded, nil
}

func excerpt(raw []byte) string {
	const limit = 500
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
