// Package client provides a Go client for the Zoppel API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CallerHeader names the account a write acts for when the server runs
// without authentication.
const CallerHeader = "X-Caller-Address"

// Client is a Zoppel API client
type Client struct {
	baseURL    string
	apiKey     string
	caller     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithCaller sends address as the caller of every write. Servers with
// api-key auth ignore it.
func WithCaller(address string) Option {
	return func(client *Client) {
		client.caller = address
	}
}

// New creates a new Zoppel client
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error response. Transaction is set when the
// call was executed and reverted.
type APIError struct {
	StatusCode  int      `json:"-"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Transaction *Receipt `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Health checks the server liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, result)
}

func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.caller != "" {
		req.Header.Set(CallerHeader, c.caller)
	}

	return c.do(req, result)
}

// submit sends a transaction and decodes the receipt. result receives the
// method's return value when non-nil.
func (c *Client) submit(ctx context.Context, method, path string, body, result any) (*Receipt, error) {
	var resp struct {
		Transaction Receipt         `json:"transaction"`
		Result      json.RawMessage `json:"result"`
	}
	if err := c.send(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
	}
	return &resp.Transaction, nil
}

func (c *Client) do(req *http.Request, result any) error {
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error       APIError `json:"error"`
		Transaction *Receipt `json:"transaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error.Code == "" {
		return &APIError{StatusCode: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status}
	}
	errResp.Error.StatusCode = resp.StatusCode
	errResp.Error.Transaction = errResp.Transaction
	return &errResp.Error
}
