// Package message runs the end-to-end preparation pipeline: flatten the
// caller's field map, assemble the unsigned material for the selected wire
// format, sign it, splice the signature back, and return a transport-ready
// request.
package message

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperweave/ao-sign-go/pkg/codec"
	"github.com/hyperweave/ao-sign-go/pkg/dataitem"
	"github.com/hyperweave/ao-sign-go/pkg/httpsig"
	"github.com/hyperweave/ao-sign-go/pkg/multipart"
	"github.com/hyperweave/ao-sign-go/pkg/ratelimit"
	"github.com/hyperweave/ao-sign-go/pkg/request"
	"github.com/hyperweave/ao-sign-go/pkg/signer"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// ClientConfig holds the dependencies of a message client.
type ClientConfig struct {
	// Signer is required.
	Signer signer.Signer
	// Logger is required.
	Logger *zap.Logger
	// Format selects the default wire encoding; FormatHTTPSig when unset.
	Format types.Format
	// IncludePath adds the derived @path pseudo-field to format B
	// signatures.
	IncludePath bool
	// Limiter optionally bounds signing operations per signer address in
	// fixed windows.
	Limiter *ratelimit.Limiter
}

// Client prepares signed requests. Constructed once per signer, reused
// across many operations; it holds no per-call state.
type Client struct {
	signer      signer.Signer
	logger      *zap.Logger
	format      types.Format
	includePath bool
	limiter     *ratelimit.Limiter
	signItem    dataitem.SignItemFunc
	signRequest httpsig.SignRequestFunc
}

// Prepared is a signed, transport-ready artifact. ID is set for the binary
// item format only.
type Prepared struct {
	Request *request.Request
	ID      string
}

// NewClient creates a message client with dependency injection.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	format := cfg.Format
	if format == "" {
		format = types.DefaultFormat
	}
	if format != types.FormatDataItem && format != types.FormatHTTPSig {
		return nil, fmt.Errorf("%w: %q", signer.ErrUnknownFormat, format)
	}
	return &Client{
		signer:      cfg.Signer,
		logger:      cfg.Logger,
		format:      format,
		includePath: cfg.IncludePath,
		limiter:     cfg.Limiter,
		signItem:    dataitem.ToDataItemSigner(cfg.Signer),
		signRequest: httpsig.ToHTTPSigner(cfg.Signer),
	}, nil
}

// Prepare signs a field map under the client's default format.
func (c *Client) Prepare(ctx context.Context, url, method string, fields types.FieldMap) (*Prepared, error) {
	return c.PrepareFormat(ctx, url, method, fields, c.format)
}

// PrepareFormat signs a field map under an explicit format selector.
func (c *Client) PrepareFormat(ctx context.Context, url, method string, fields types.FieldMap, format types.Format) (*Prepared, error) {
	if method == "" {
		method = http.MethodPost
	}
	switch format {
	case types.FormatHTTPSig, types.FormatDataItem:
	default:
		// Rejected before the limiter so bad requests never consume
		// signing budget.
		return nil, fmt.Errorf("%w: %q", signer.ErrUnknownFormat, format)
	}
	if c.limiter != nil {
		if err := c.limiter.Allow(c.signer.Address()); err != nil {
			return nil, err
		}
	}

	if format == types.FormatHTTPSig {
		return c.prepareHTTPSig(ctx, url, method, fields)
	}
	return c.prepareDataItem(ctx, url, method, fields)
}

func (c *Client) prepareHTTPSig(ctx context.Context, url, method string, fields types.FieldMap) (*Prepared, error) {
	flat, err := codec.Flatten(fields, "")
	if err != nil {
		return nil, err
	}
	envelope, err := multipart.Build(flat)
	if err != nil {
		return nil, err
	}

	signed, err := c.signRequest(ctx, httpsig.SigBaseArgs{
		URL:         url,
		Method:      method,
		Headers:     envelope.Headers,
		Body:        envelope.Body,
		IncludePath: c.includePath,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Debugw("Prepared header-signed message",
		"url", url, "method", method, "headers", len(signed.Headers), "body_bytes", len(signed.Body))

	return &Prepared{Request: &request.Request{
		URL:     signed.URL,
		Method:  signed.Method,
		Headers: signed.Headers,
		Body:    signed.Body,
	}}, nil
}

func (c *Client) prepareDataItem(ctx context.Context, url, method string, fields types.FieldMap) (*Prepared, error) {
	headers, item, err := dataitem.ToItem(fields)
	if err != nil {
		return nil, err
	}
	signed, err := c.signItem(ctx, item)
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Debugw("Prepared binary item",
		"url", url, "method", method, "id", signed.ID, "raw_bytes", len(signed.Raw))

	return &Prepared{
		Request: &request.Request{
			URL:     url,
			Method:  method,
			Headers: headers,
			Body:    signed.Raw,
		},
		ID: signed.ID,
	}, nil
}
