package multipart

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperweave/ao-sign-go/pkg/codec"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

func TestBuild_HeadersOnly(t *testing.T) {
	envelope, err := Build(codec.FlatSet{
		"action": {Value: "Test"},
		"count":  {Tag: codec.TagInteger, Value: "5"},
	})
	require.NoError(t, err)

	assert.Empty(t, envelope.Body)
	assert.Equal(t, "Test", envelope.Headers["action"])
	assert.Equal(t, "5", envelope.Headers["count"])
	_, ok := envelope.Headers[InlineBodyKey]
	assert.False(t, ok)
}

func TestBuild_SinglePartInlinesBody(t *testing.T) {
	content := "line one\nline two"
	envelope, err := Build(codec.FlatSet{
		"action": {Value: "Test"},
		"data":   {Value: content},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte(content), envelope.Body)
	assert.Equal(t, "data", envelope.Headers[InlineBodyKey])

	digest := sha256.Sum256([]byte(content))
	want := fmt.Sprintf("sha-256=:%s:", base64.StdEncoding.EncodeToString(digest[:]))
	assert.Equal(t, want, envelope.Headers["content-digest"])
	_, ok := envelope.Headers["content-type"]
	assert.False(t, ok, "inline bodies carry no multipart content type")
}

func TestBuild_MultiplePartsAssembleMultipart(t *testing.T) {
	first := strings.Repeat("a", types.MaxHeaderLength+1)
	second := strings.Repeat("b", types.MaxHeaderLength+1)
	envelope, err := Build(codec.FlatSet{
		"first":  {Value: first},
		"second": {Value: second},
		"action": {Value: "Test"},
	})
	require.NoError(t, err)

	contentType := envelope.Headers["content-type"]
	require.True(t, strings.HasPrefix(contentType, `multipart/form-data; boundary="`), contentType)
	boundary := strings.TrimSuffix(strings.TrimPrefix(contentType, `multipart/form-data; boundary="`), `"`)

	body := string(envelope.Body)
	assert.True(t, strings.HasPrefix(body, "--"+boundary+"\r\n"))
	assert.True(t, strings.HasSuffix(body, "--"+boundary+"--"))
	assert.Contains(t, body, `content-disposition: form-data; name="first"`+"\r\n\r\n"+first)
	assert.Contains(t, body, `content-disposition: form-data; name="second"`+"\r\n\r\n"+second)

	// Parts appear in ascending key order.
	assert.Less(t, strings.Index(body, `name="first"`), strings.Index(body, `name="second"`))

	digest := sha256.Sum256(envelope.Body)
	want := fmt.Sprintf("sha-256=:%s:", base64.StdEncoding.EncodeToString(digest[:]))
	assert.Equal(t, want, envelope.Headers["content-digest"])

	_, ok := envelope.Headers[InlineBodyKey]
	assert.False(t, ok)
}

func TestBuild_BoundaryIsContentDerived(t *testing.T) {
	flat := codec.FlatSet{
		"first":  {Value: "one\ntwo"},
		"second": {Value: "three\nfour"},
	}
	a, err := Build(flat)
	require.NoError(t, err)
	b, err := Build(flat)
	require.NoError(t, err)

	assert.Equal(t, a.Body, b.Body, "same parts must produce the same boundary and body")
	assert.Equal(t, a.Headers, b.Headers)

	c, err := Build(codec.FlatSet{
		"first":  {Value: "one\ntwo"},
		"second": {Value: "three\nfive"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.Headers["content-type"], c.Headers["content-type"])
}

func TestBuild_NestedGroupSerializesAsSubMessage(t *testing.T) {
	envelope, err := Build(codec.FlatSet{
		"config/depth":    {Tag: codec.TagInteger, Value: "2"},
		"config/mode":     {Value: "fast"},
		"config/ao-types": {Value: `depth="integer"`},
	})
	require.NoError(t, err)

	// One group: the nested level becomes the inline body, rendered as
	// sorted header lines.
	assert.Equal(t, "config", envelope.Headers[InlineBodyKey])
	want := "ao-types: depth=\"integer\"\r\ndepth: 2\r\nmode: fast"
	assert.Equal(t, want, string(envelope.Body))
}

func TestBuild_EmptySet(t *testing.T) {
	envelope, err := Build(codec.FlatSet{})
	require.NoError(t, err)
	assert.Empty(t, envelope.Headers)
	assert.Empty(t, envelope.Body)
}
