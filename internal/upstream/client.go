package upstream

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

// DefaultMaxBodySize caps a response body read into memory.
const DefaultMaxBodySize = 10 << 20

// Client performs requests against one upstream with a fixed timeout.
type Client struct {
	source     string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	header     http.Header
	maxBody    int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// NewClient creates a client for source that aborts requests after timeout.
func NewClient(source string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		source:     source,
		timeout:    timeout,
		httpClient: &http.Client{},
		header:     make(http.Header),
		maxBody:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the name used in errors and logs.
func (c *Client) Source() string {
	return c.source
}

// Get fetches url and returns the raw body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// GetJSON fetches url and decodes the JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.decode(body, dst)
}

// PostJSON sends payload as JSON and decodes the response into dst.
func (c *Client) PostJSON(ctx context.Context, url string, payload, dst any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, url, data)
	if err != nil {
		return err
	}
	return c.decode(body, dst)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, c.source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classify(ctx, c.source, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, &Error{Kind: KindDecode, Source: c.source, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBody)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:    KindStatus,
			Source:  c.source,
			Status:  resp.StatusCode,
			Message: messageFrom(body),
		}
	}
	return body, nil
}

func (c *Client) decode(body []byte, dst any) error {
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Kind: KindDecode, Source: c.source, Err: err}
	}
	return nil
}

// messageFrom extracts a human readable message from an error body.
// WordPress style APIs put it under "message"; others use "error".
func messageFrom(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
