package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
)

// maxBodySize caps feed downloads; some feeds carry their full back catalogue.
const maxBodySize = 32 << 20

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
	IsError    bool
}

// Client is a GET-only HTTP client with default headers and a per-request
// timeout.
type Client struct {
	client    *http.Client
	timeout   time.Duration
	headers   map[string]string
	bodyLimit int64
}

func NewHTTPClient(timeout time.Duration) *Client {
	return &Client{
		client:    &http.Client{},
		timeout:   timeout,
		headers:   make(map[string]string),
		bodyLimit: maxBodySize,
	}
}

// SetHeader sets a header sent with every request.
func (c *Client) SetHeader(key, value string) *Client {
	c.headers[key] = value
	return c
}

// Get fetches url. Transport failures and non-2xx statuses are returned as
// ErrFeedUnavailable.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Errorf("failed to create GET request: %w", err))
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	logutils.Log.WithField("url", url).Debug("Making GET request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("failed to execute GET request: %w", err))
	}
	defer resp.Body.Close()

	response, err := c.buildResponse(resp)
	if err != nil {
		return nil, err
	}
	if response.IsError {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("unexpected status %d", resp.StatusCode)).
			WithDetails(map[string]any{"url": url, "status": resp.StatusCode})
	}
	return response, nil
}

func (c *Client) buildResponse(resp *http.Response) (*Response, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(body)) > c.bodyLimit {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("response body exceeds %d bytes", c.bodyLimit)).
			WithDetails(map[string]any{"limit_bytes": c.bodyLimit}).
			WithUserMessage("That podcast feed is too large to read.")
	}

	headers := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    headers,
		IsError:    resp.StatusCode < 200 || resp.StatusCode >= 300,
	}, nil
}
