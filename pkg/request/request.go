// Package request dispatches prepared transport tuples to an HTTP client.
// It performs a single attempt per call: retry policy belongs to the
// caller, which can match on TransportError to implement one.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperweave/ao-sign-go/pkg/cache"
)

// Request is the transport tuple the signing pipeline produces: either a
// raw binary item body (format A) or a multipart/inline envelope with
// signature headers (format B).
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// Response is the outcome of one dispatch.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// TransportError is the distinct error kind for underlying transport
// failures, so callers can apply their own retry policy.
type TransportError struct {
	URL        string
	StatusCode int // zero when the request never reached the server
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport failure for %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ClientConfig holds the dependencies of a transport client.
type ClientConfig struct {
	// HTTPClient is the underlying client; defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger is required.
	Logger *zap.Logger
	// Limiter optionally smooths outbound dispatch.
	Limiter *rate.Limiter
	// ResponseCache optionally caches successful GET responses.
	ResponseCache cache.ResponseCache
	// CacheTTL bounds how long cached responses remain valid.
	CacheTTL time.Duration
}

// Client hands prepared requests to the network. It holds no per-call
// state and is safe for concurrent use.
type Client struct {
	http     *http.Client
	logger   *zap.Logger
	limiter  *rate.Limiter
	cache    cache.ResponseCache
	cacheTTL time.Duration
}

// NewClient creates a transport client with dependency injection.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Second
	}
	return &Client{
		http:     httpClient,
		logger:   cfg.Logger,
		limiter:  cfg.Limiter,
		cache:    cfg.ResponseCache,
		cacheTTL: cacheTTL,
	}, nil
}

// Do dispatches one prepared request. Successful GET responses are served
// from and written to the response cache under the configured TTL.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	requestID := uuid.NewString()
	cacheable := c.cache != nil && req.Method == http.MethodGet

	if cacheable {
		if body, ok, err := c.cache.Get(ctx, cacheKey(req)); err != nil {
			c.logger.Sugar().Warnw("Response cache read failed", "request_id", requestID, "error", err)
		} else if ok {
			c.logger.Sugar().Debugw("Serving response from cache", "request_id", requestID, "url", req.URL)
			return &Response{StatusCode: http.StatusOK, Body: body}, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: req.URL, Err: err}
		}
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	c.logger.Sugar().Debugw("Dispatching request",
		"request_id", requestID, "method", req.Method, "url", req.URL, "body_bytes", len(req.Body))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: req.URL, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &TransportError{URL: req.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("server returned %s", resp.Status)}
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		if err := c.cache.Set(ctx, cacheKey(req), body, c.cacheTTL); err != nil {
			c.logger.Sugar().Warnw("Response cache write failed", "request_id", requestID, "error", err)
		}
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

func cacheKey(req *Request) string {
	return req.Method + " " + req.URL
}
