// Package client talks to the exam code server's JSON API.
package client

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second

	// HeaderSessionKey carries the session id on authenticated requests.
	HeaderSessionKey = "X-Session-Key"
	// HeaderRequestID carries a per-request id for log correlation.
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

// Client is an API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for the API rooted at baseURL, for example
// "https://codes.example.edu/api/2.0".
func New(baseURL string, opts ...Option) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultTimeout
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

type response struct {
	status    int
	body      []byte
	requestID string
}

func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, body []byte) (*response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("client: request failed",
			slog.String("op", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.Debug("client: response",
		slog.String("op", op),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode))

	return &response{status: resp.StatusCode, body: data, requestID: requestID}, nil
}
