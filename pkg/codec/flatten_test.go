package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

func TestFlatten_PlainStringsNeedNoManifest(t *testing.T) {
	flat, err := Flatten(types.FieldMap{"Action": types.String("Test")}, "")
	require.NoError(t, err)

	require.Len(t, flat, 1)
	field, ok := flat["action"]
	require.True(t, ok, "keys are lowercased")
	assert.Equal(t, TagNone, field.Tag)
	assert.Equal(t, "Test", field.Value)
	_, ok = flat[TypeManifestKey]
	assert.False(t, ok)
}

func TestFlatten_TypedFieldsGetManifest(t *testing.T) {
	flat, err := Flatten(types.FieldMap{
		"Count":   types.Integer(5),
		"Ratio":   types.Float(0.5),
		"Enabled": types.Atom("true"),
		"Empty":   types.List(),
		"Name":    types.String("x"),
	}, "")
	require.NoError(t, err)

	manifest, ok := flat[TypeManifestKey]
	require.True(t, ok)
	assert.Equal(t, `count="integer", empty="empty-list", enabled="atom", ratio="float"`, manifest.Value)
	assert.Equal(t, TagNone, manifest.Tag, "the manifest itself is a plain string")
}

func TestFlatten_NonEmptyBinaryIsSelfDescribing(t *testing.T) {
	flat, err := Flatten(types.FieldMap{
		"blob":  types.Bytes([]byte("raw")),
		"empty": types.Bytes(nil),
	}, "")
	require.NoError(t, err)

	manifest, ok := flat[TypeManifestKey]
	require.True(t, ok)
	// Only the empty byte sequence needs an explicit tag to be recoverable.
	assert.Equal(t, `empty="binary"`, manifest.Value)
}

func TestFlatten_NestedMapsQualifyKeys(t *testing.T) {
	flat, err := Flatten(types.FieldMap{
		"Config": types.Map(types.FieldMap{
			"Depth": types.Integer(2),
			"Mode":  types.String("fast"),
		}),
		"Action": types.String("Run"),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Run", flat["action"].Value)
	assert.Equal(t, "2", flat["config/depth"].Value)
	assert.Equal(t, "fast", flat["config/mode"].Value)
	// The nested level gets its own manifest for the integer.
	assert.Equal(t, `depth="integer"`, flat["config/ao-types"].Value)
	_, ok := flat[TypeManifestKey]
	assert.False(t, ok, "top level had no typed scalar fields")
}

func TestFlatten_ArrayOfMapsBecomesIndexedMap(t *testing.T) {
	flat, err := Flatten(types.FieldMap{
		"items": types.List(
			types.Map(types.FieldMap{"id": types.String("a")}),
			types.Map(types.FieldMap{"id": types.String("b")}),
		),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "a", flat["items/0/id"].Value)
	assert.Equal(t, "b", flat["items/1/id"].Value)
}

func TestFlatten_MixedListStaysList(t *testing.T) {
	flat, err := Flatten(types.FieldMap{
		"mixed": types.List(types.Integer(1), types.String("x")),
	}, "")
	require.NoError(t, err)

	field := flat["mixed"]
	assert.Equal(t, TagList, field.Tag)
	assert.Equal(t, "(ao-type-integer) 1, (ao-type-binary) x", field.Value)
}

func TestIsBodyField(t *testing.T) {
	assert.False(t, IsBodyField("action", Field{Value: "Test"}))
	assert.True(t, IsBodyField("data", Field{Value: "line one\nline two"}), "newlines cannot travel in headers")
	assert.True(t, IsBodyField("config/depth", Field{Value: "2"}), "qualified keys came from nesting")
	assert.True(t, IsBodyField("big", Field{Value: strings.Repeat("a", types.MaxHeaderLength+1)}))
	assert.False(t, IsBodyField("edge", Field{Value: strings.Repeat("a", types.MaxHeaderLength)}))
}
