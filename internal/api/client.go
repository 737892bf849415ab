// Package api provides an HTTP client for the Social Thread backend.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the backend base URL used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// ClientOptions configures a new Client.
type ClientOptions struct {
	BaseURL    string
	Verbose    bool
	UserAgent  string
	MaxRetries *int
	Timeout    time.Duration
}

// Client wraps an HTTP client for backend calls. It holds no credentials:
// authenticated methods take the bearer token explicitly.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

// NewClient builds a Client with retry transport and optional verbose logging.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "socialthread-cli/dev"
	}

	retries := 3
	if opts.MaxRetries != nil && *opts.MaxRetries >= 0 {
		retries = *opts.MaxRetries
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		// Uploads of video files can be slow.
		timeout = 2 * time.Minute
	}

	var transport http.RoundTripper = &retryTransport{
		base:       http.DefaultTransport,
		maxRetries: retries,
		baseDelay:  1 * time.Second,
	}

	if opts.Verbose {
		transport = &loggingTransport{base: transport}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:   baseURL,
		userAgent: ua,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// request describes one outbound call.
type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

// do executes an HTTP request with standard headers.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	if r.body != nil {
		ct := r.contentType
		if ct == "" {
			ct = "application/json"
		}

		req.Header.Set("Content-Type", ct)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// Get performs a GET request. token may be empty for anonymous calls.
func (c *Client) Get(ctx context.Context, path, token string) (*http.Response, error) {
	return c.do(ctx, request{method: http.MethodGet, path: path, token: token})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path, token string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, request{method: http.MethodPost, path: path, token: token, body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path, token string) (*http.Response, error) {
	return c.do(ctx, request{method: http.MethodDelete, path: path, token: token})
}

type clientCtxKey struct{}

// WithClient stores a Client in the context.
func WithClient(ctx context.Context, cl *Client) context.Context {
	return context.WithValue(ctx, clientCtxKey{}, cl)
}

// ClientFromContext retrieves the Client from the context.
func ClientFromContext(ctx context.Context) *Client {
	if v := ctx.Value(clientCtxKey{}); v != nil {
		if cl, ok := v.(*Client); ok {
			return cl
		}
	}

	return nil
}
