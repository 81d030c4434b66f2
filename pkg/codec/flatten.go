package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// TypeManifestKey is the synthesized per-level field enumerating the type
// tags of every non-default field at that nesting level.
const TypeManifestKey = "ao-types"

// Field is one entry of a flattened field set: the encoded value plus the
// tag recorded for the type manifest.
type Field struct {
	Tag   TypeTag
	Value string
}

// FlatSet maps fully-qualified lowercase paths to encoded fields. Keys use
// "/" between nesting levels.
type FlatSet map[string]Field

// SortedKeys returns the set's keys in ascending ASCII order.
func (s FlatSet) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsBodyField reports whether an encoded field must travel in the request
// body rather than as an HTTP header: it exceeds the header size ceiling,
// contains a newline, or originated from nested flattening (path-qualified
// key).
func IsBodyField(key string, f Field) bool {
	return len(f.Value) > types.MaxHeaderLength ||
		strings.Contains(f.Value, "\n") ||
		strings.Contains(key, "/")
}

// Flatten walks a nested field map and lifts every nested level into
// path-qualified top-level keys. Arrays whose elements are all maps are
// first converted to an index-keyed nested map. Each nesting level that
// produced at least one non-default type tag receives a synthesized
// ao-types field.
func Flatten(m types.FieldMap, parentPath string) (FlatSet, error) {
	out := make(FlatSet)
	manifest := make(map[string]TypeTag)

	for _, key := range m.SortedKeys() {
		value := m[key]
		path := strings.ToLower(key)
		if parentPath != "" {
			path = parentPath + "/" + path
		}

		if value.Kind() == types.KindList {
			if converted, ok := mapArrayToIndexedMap(value.Items()); ok {
				value = converted
			}
		}

		if value.Kind() == types.KindMap {
			nested, err := Flatten(value.SubMap(), path)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			for k, v := range nested {
				out[k] = v
			}
			continue
		}

		enc, err := Encode(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[path] = Field{Tag: enc.Tag, Value: enc.Value}
		if manifestTag(enc) {
			manifest[strings.ToLower(key)] = enc.Tag
		}
	}

	if len(manifest) > 0 {
		path := TypeManifestKey
		if parentPath != "" {
			path = parentPath + "/" + TypeManifestKey
		}
		out[path] = Field{Tag: TagNone, Value: renderManifest(manifest)}
	}
	return out, nil
}

// manifestTag reports whether an encoded field needs an ao-types entry.
// Plain strings and non-empty byte sequences are self-describing.
func manifestTag(enc Encoded) bool {
	if enc.Tag == TagNone {
		return false
	}
	if enc.Tag == TagBinary && enc.Value != "" {
		return false
	}
	return true
}

func renderManifest(manifest map[string]TypeTag) string {
	keys := make([]string, 0, len(manifest))
	for k := range manifest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, string(manifest[k])))
	}
	return strings.Join(pairs, ", ")
}

// mapArrayToIndexedMap converts [{a:1},{a:2}] into {"0":{a:1},"1":{a:2}} so
// nested flattening can address each element by position. Arrays holding
// any non-map element are left alone.
func mapArrayToIndexedMap(items []types.Value) (types.Value, bool) {
	if len(items) == 0 {
		return types.Value{}, false
	}
	for _, item := range items {
		if item.Kind() != types.KindMap {
			return types.Value{}, false
		}
	}
	indexed := make(types.FieldMap, len(items))
	for i, item := range items {
		indexed[strconv.Itoa(i)] = item
	}
	return types.Map(indexed), true
}
