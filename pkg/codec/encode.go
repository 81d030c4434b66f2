package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// ErrUnsupportedValue is returned when a value has no encoded representation.
var ErrUnsupportedValue = errors.New("unsupported field value")

// TypeTag classifies the encoded representation of a field value.
type TypeTag string

const (
	// TagNone marks a self-describing value (plain string) that needs no
	// entry in the ao-types manifest.
	TagNone      TypeTag = ""
	TagBinary    TypeTag = "binary"
	TagList      TypeTag = "list"
	TagInteger   TypeTag = "integer"
	TagFloat     TypeTag = "float"
	TagAtom      TypeTag = "atom"
	TagEmptyList TypeTag = "empty-list"
)

// Encoded is the (type tag, encoded value) pair produced for a field.
// Byte sequences are carried in Value as a raw string.
type Encoded struct {
	Tag   TypeTag
	Value string
}

const listElementPrefix = "(ao-type-"

// Encode maps a scalar or list value to its wire representation. Nested
// maps are not encodable here; the flattener lifts them before encoding.
func Encode(v types.Value) (Encoded, error) {
	switch v.Kind() {
	case types.KindString:
		return Encoded{Tag: TagNone, Value: v.Str()}, nil
	case types.KindBytes:
		return Encoded{Tag: TagBinary, Value: string(v.Raw())}, nil
	case types.KindInteger:
		return Encoded{Tag: TagInteger, Value: strconv.FormatInt(v.Int(), 10)}, nil
	case types.KindFloat:
		f := v.Flt()
		// Integral floats collapse to integers only when the value fits
		// in int64; converting beyond that range corrupts the digits.
		if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) && f >= -(1<<63) && f < 1<<63 {
			return Encoded{Tag: TagInteger, Value: strconv.FormatInt(int64(f), 10)}, nil
		}
		return Encoded{Tag: TagFloat, Value: strconv.FormatFloat(f, 'f', -1, 64)}, nil
	case types.KindAtom:
		return Encoded{Tag: TagAtom, Value: v.Str()}, nil
	case types.KindList:
		return encodeList(v.Items())
	default:
		return Encoded{}, fmt.Errorf("%w: kind %s", ErrUnsupportedValue, v.Kind())
	}
}

func encodeList(items []types.Value) (Encoded, error) {
	if len(items) == 0 {
		return Encoded{Tag: TagEmptyList, Value: ""}, nil
	}
	parts := make([]string, 0, len(items))
	for i, item := range items {
		enc, err := Encode(item)
		if err != nil {
			return Encoded{}, fmt.Errorf("list element %d: %w", i, err)
		}
		tag := enc.Tag
		if tag == TagNone {
			tag = TagBinary
		}
		parts = append(parts, fmt.Sprintf("%s%s) %s", listElementPrefix, tag, enc.Value))
	}
	return Encoded{Tag: TagList, Value: strings.Join(parts, ", ")}, nil
}

// DecodeList splits a list-encoded value back into its typed members.
func DecodeList(encoded string) ([]Encoded, error) {
	if encoded == "" {
		return nil, nil
	}
	if !strings.HasPrefix(encoded, listElementPrefix) {
		return nil, fmt.Errorf("%w: list value missing %q prefix", ErrUnsupportedValue, listElementPrefix)
	}
	segments := strings.Split(encoded, ", "+listElementPrefix)
	out := make([]Encoded, 0, len(segments))
	for i, seg := range segments {
		if i == 0 {
			seg = strings.TrimPrefix(seg, listElementPrefix)
		}
		tag, value, found := strings.Cut(seg, ") ")
		if !found {
			// An element with an empty value ends at the closing paren.
			tag = strings.TrimSuffix(seg, ")")
			value = ""
		}
		out = append(out, Encoded{Tag: TypeTag(tag), Value: value})
	}
	return out, nil
}
