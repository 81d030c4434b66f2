// Package httpsig assembles the canonical signature base for the
// HTTP-header signature encoding (format B) and splices the resulting
// Signature and Signature-Input headers into a request.
package httpsig

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/hyperweave/ao-sign-go/pkg/signer"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

var (
	// ErrCreateNotInvoked is returned when a signer completed without
	// asking for the signature base; the signature cannot cover it.
	ErrCreateNotInvoked = errors.New("signer did not invoke create")
	// ErrMissingSignature is returned when a signer produced no signature.
	ErrMissingSignature = errors.New("signer returned no signature")
)

// componentPath is the derived pseudo-field covering the request path.
const componentPath = "@path"

// signerIDPrefix prefixes the deterministic signature label derived from
// the signer's address.
const signerIDPrefix = "http-sig-"

// Request is the transport tuple format B signs: headers are augmented,
// the body travels unchanged.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// SigBaseArgs selects what a signature covers. Body is carried through to
// the signed request untouched; it is covered indirectly via the
// content-digest header when one is present.
type SigBaseArgs struct {
	URL         string
	Method      string
	Headers     map[string]string
	Body        []byte
	IncludePath bool
}

// SigBase is the normalized signing input: the signable field names in
// ascending ASCII order, plus the request they are resolved against.
type SigBase struct {
	Fields  []string
	Request Request
}

// ToSigBaseArgs normalizes headers to lowercase names and emits the sorted
// list of signable fields, optionally including the derived @path.
func ToSigBaseArgs(args SigBaseArgs) SigBase {
	headers := make(map[string]string, len(args.Headers))
	fields := make([]string, 0, len(args.Headers)+1)
	for name, value := range args.Headers {
		lower := strings.ToLower(name)
		headers[lower] = value
		fields = append(fields, lower)
	}
	if args.IncludePath {
		fields = append(fields, componentPath)
	}
	sort.Strings(fields)
	return SigBase{
		Fields: fields,
		Request: Request{
			URL:     args.URL,
			Method:  args.Method,
			Headers: headers,
		},
	}
}

type baseEntry struct {
	name  string
	value string
}

// createSignatureBase resolves each signable field against the request,
// canonicalizing header values by trimming surrounding whitespace.
func createSignatureBase(fields []string, req Request) ([]baseEntry, error) {
	entries := make([]baseEntry, 0, len(fields))
	for _, name := range fields {
		if name == componentPath {
			u, err := url.Parse(req.URL)
			if err != nil {
				return nil, fmt.Errorf("failed to derive @path from %q: %w", req.URL, err)
			}
			entries = append(entries, baseEntry{name: componentPath, value: u.Path})
			continue
		}
		value, ok := req.Headers[name]
		if !ok {
			return nil, fmt.Errorf("signable field %q not present in request headers", name)
		}
		entries = append(entries, baseEntry{name: name, value: strings.TrimSpace(value)})
	}
	return entries, nil
}

// serializeParams renders the @signature-params component value: the
// quoted field list followed by the signing parameters sorted by name.
func serializeParams(fields []string, params map[string]string) string {
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, fmt.Sprintf("%q", f))
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("(" + strings.Join(quoted, " ") + ")")
	for _, name := range names {
		b.WriteString(fmt.Sprintf(";%s=%q", name, params[name]))
	}
	return b.String()
}

// signatureBaseString concatenates the component list into the exact byte
// sequence handed to the signer, with @signature-params strictly last.
func signatureBaseString(entries []baseEntry, paramsValue string) string {
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%q: %s", e.name, e.value))
	}
	lines = append(lines, fmt.Sprintf("%q: %s", "@signature-params", paramsValue))
	return strings.Join(lines, "\n")
}

// SignRequestFunc signs one request and returns it with Signature and
// Signature-Input headers spliced in; the body is unchanged.
type SignRequestFunc func(ctx context.Context, args SigBaseArgs) (*Request, error)

// ToHTTPSigner binds a signer capability to the header signature format.
func ToHTTPSigner(s signer.Signer) SignRequestFunc {
	return func(ctx context.Context, args SigBaseArgs) (*Request, error) {
		base := ToSigBaseArgs(args)
		entries, err := createSignatureBase(base.Fields, base.Request)
		if err != nil {
			return nil, err
		}

		params := map[string]string{
			"alg":   signer.AlgHTTPSig,
			"keyid": base64.RawURLEncoding.EncodeToString(s.PublicKey()),
		}
		paramsValue := serializeParams(base.Fields, params)
		payload := []byte(signatureBaseString(entries, paramsValue))

		invoked := false
		create := func(ctx context.Context, in signer.CreateInput) (*signer.CreateOutput, error) {
			invoked = true
			return &signer.CreateOutput{SignBytes: payload}, nil
		}

		result, err := s.Sign(ctx, create, types.FormatHTTPSig)
		if err != nil {
			return nil, err
		}
		if !invoked {
			return nil, ErrCreateNotInvoked
		}
		if len(result.Signature) == 0 {
			return nil, ErrMissingSignature
		}

		label, err := signerLabel(result.Address)
		if err != nil {
			return nil, err
		}

		signed := Request{
			URL:     args.URL,
			Method:  args.Method,
			Headers: make(map[string]string, len(args.Headers)+2),
			Body:    args.Body,
		}
		for name, value := range args.Headers {
			signed.Headers[name] = value
		}
		signed.Headers["Signature"] = fmt.Sprintf("%s=:%s:", label, base64.StdEncoding.EncodeToString(result.Signature))
		signed.Headers["Signature-Input"] = fmt.Sprintf("%s=%s", label, paramsValue)
		return &signed, nil
	}
}

// signerLabel derives the deterministic signature name from the signer
// address: the first 8 bytes of the decoded address, hex-encoded.
func signerLabel(address string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(address)
	if err != nil {
		return "", fmt.Errorf("signer address is not base64url: %w", err)
	}
	if len(decoded) < 8 {
		return "", fmt.Errorf("signer address too short: %d bytes", len(decoded))
	}
	return signerIDPrefix + hex.EncodeToString(decoded[:8]), nil
}
