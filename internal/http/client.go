package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "YGOCardDownloader/1.0"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Client wraps HTTP operations with downloader-specific configuration.
//
// Client provides:
//   - A configured User-Agent header
//   - A per-request timeout applied on top of the caller's context
//   - Byte downloads with a size ceiling
//
// Example usage:
//
//	client := NewClient(WithTimeout(10 * time.Second))
//
//	// Fetch the JSON catalog
//	body, err := client.Get(ctx, "https://db.ygoprodeck.com/api/v7/cardinfo.php")
//
//	// Download an image
//	data, err := client.DownloadBytes(ctx, imageURL)
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxBytes   int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxBytes limits the size of a response body. Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - 60 second timeout
//   - "YGOCardDownloader/1.0" User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  DefaultUserAgent,
		timeout:    60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and returns the response body as bytes.
//
// The request includes the configured User-Agent header and is bounded by
// the client timeout.
//
// Returns an error if:
//   - The request fails or times out
//   - The response status is not 2xx (a *StatusError)
//   - Reading the body fails or it exceeds the size limit
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/image.jpg")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, c.maxBytes)
	}

	return data, nil
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// Use this for card images, which are small enough to decode in memory.
//
// Example:
//
//	imageData, err := client.DownloadBytes(ctx, card.Images[0].Normal)
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}
