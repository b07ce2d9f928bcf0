package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; the tool talks to a single host, repeatedly
const (
	defaultMaxIdleConns    = 2
	defaultIdleConnTimeout = 60 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
//
// Response captures the body (limited to 1MB), the status code, and any
// error that occurred. Errors are carried in the Error field rather than
// returned separately; a probe attempt never fails outright.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 403).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Error contains any error that occurred during the request.
	// nil indicates a response was received (though its status or body may
	// still classify as not-ready).
	Error error
}

// Client is an HTTP client wrapper for readiness probing.
//
// Timeouts are applied per-request via context rather than a global client
// timeout. Response bodies are limited to 1MB; the version endpoint's body
// is tiny, the limit only guards against polling something that is not the
// expected service.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	requestID  string
}

// NewClient creates a probing [Client].
//
// timeout bounds each individual request; the overall wait duration is the
// caller's concern. requestID, if non-empty, is sent as the X-Request-Id
// header on every probe so probe traffic is attributable in the target
// service's logs.
func NewClient(timeout time.Duration, requestID string) *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConns,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		timeout:   timeout,
		requestID: requestID,
	}
}

// Fetch performs a GET request and returns a structured [Response].
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately. This simplifies classification in the
// poll loop, where every failure mode is just another reason to retry.
func (c *Client) Fetch(ctx context.Context, url string) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{Error: fmt.Errorf("failed to create request: %w", err)}
	}
	if c.requestID != "" {
		req.Header.Set("X-Request-Id", c.requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Error: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	// read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{Body: body, StatusCode: resp.StatusCode}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil receiver. After Close, the
// client remains usable; new connections are established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
