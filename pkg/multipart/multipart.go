// Package multipart assembles the body parts of a flattened field set into
// a single inline body or a boundary-delimited multipart envelope, and
// computes the content digest the signature covers.
package multipart

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperweave/ao-sign-go/pkg/codec"
)

const (
	// InlineBodyKey records which field was promoted to the whole request
	// body when the envelope holds exactly one part.
	InlineBodyKey = "inline-body-key"

	headerContentType   = "content-type"
	headerContentDigest = "content-digest"
	crlf                = "\r\n"
)

// Envelope is the transport-ready result of building a flattened field
// set: headers plus an optional body.
type Envelope struct {
	Headers map[string]string
	Body    []byte
}

// Build partitions a flattened field set into headers and body parts and
// assembles the body. Zero body parts yields headers only; exactly one
// yields the part value verbatim as the body; more than one yields a
// multipart envelope with a content-derived boundary.
func Build(flat codec.FlatSet) (*Envelope, error) {
	headers := make(map[string]string)
	groups := make(map[string]codec.FlatSet)

	for _, key := range flat.SortedKeys() {
		field := flat[key]
		if !codec.IsBodyField(key, field) {
			headers[key] = field.Value
			continue
		}
		top, rest, _ := strings.Cut(key, "/")
		group, ok := groups[top]
		if !ok {
			group = make(codec.FlatSet)
			groups[top] = group
		}
		group[rest] = field
	}

	if len(groups) == 0 {
		return &Envelope{Headers: headers}, nil
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	if len(names) == 1 {
		name := names[0]
		content, err := groupContent(groups[name])
		if err != nil {
			return nil, fmt.Errorf("body part %q: %w", name, err)
		}
		headers[InlineBodyKey] = name
		headers[headerContentDigest] = contentDigest(content)
		return &Envelope{Headers: headers, Body: content}, nil
	}

	parts := make([]string, 0, len(names))
	for _, name := range sorted(names) {
		content, err := groupContent(groups[name])
		if err != nil {
			return nil, fmt.Errorf("body part %q: %w", name, err)
		}
		part := fmt.Sprintf("content-disposition: form-data; name=%q%s%s%s", name, crlf, crlf, content)
		parts = append(parts, part)
	}

	boundaryHash := sha256.Sum256([]byte(strings.Join(parts, crlf)))
	boundary := base64.RawURLEncoding.EncodeToString(boundaryHash[:])

	var body strings.Builder
	for _, part := range parts {
		body.WriteString("--" + boundary + crlf)
		body.WriteString(part)
		body.WriteString(crlf)
	}
	body.WriteString("--" + boundary + "--")

	assembled := []byte(body.String())
	headers[headerContentType] = fmt.Sprintf("multipart/form-data; boundary=%q", boundary)
	headers[headerContentDigest] = contentDigest(assembled)
	return &Envelope{Headers: headers, Body: assembled}, nil
}

// groupContent renders one body part. A group holding a single entry under
// the empty relative key is a plain oversized or newline-bearing field and
// its value is used verbatim. Anything else came from nested flattening:
// the group is rebuilt recursively and serialized as a nested message
// (header lines, blank line, body).
func groupContent(group codec.FlatSet) ([]byte, error) {
	if field, ok := group[""]; ok && len(group) == 1 {
		return []byte(field.Value), nil
	}

	sub, err := Build(group)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(sub.Headers))
	for _, key := range sortedHeaderKeys(sub.Headers) {
		lines = append(lines, key+": "+sub.Headers[key])
	}
	content := strings.Join(lines, crlf)
	if len(sub.Body) > 0 {
		content += crlf + crlf + string(sub.Body)
	}
	return []byte(content), nil
}

func contentDigest(body []byte) string {
	digest := sha256.Sum256(body)
	return fmt.Sprintf("sha-256=:%s:", base64.StdEncoding.EncodeToString(digest[:]))
}

func sorted(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

func sortedHeaderKeys(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
