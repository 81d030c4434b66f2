package dataitem

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hyperweave/ao-sign-go/pkg/codec"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// Fixed protocol tags appended to every item.
const (
	TagDataProtocol = "Data-Protocol"
	TagType         = "Type"
	TagVariant      = "Variant"

	dataProtocolValue = "ao"
	defaultType       = "Message"
	defaultVariant    = "ao.N.1"
)

// TransportHeaders declares the binary codec to the receiving transport.
var TransportHeaders = map[string]string{
	"codec-device": "ans104@1.0",
	"content-type": "application/ans104",
}

// ToItem converts a field map into an unsigned binary item. Reserved keys
// carry protocol meaning and are stripped from tag conversion: target and
// anchor become item regions, data becomes the payload, and type/variant
// feed the fixed tags. Every remaining field yields exactly one tag.
func ToItem(fields types.FieldMap) (map[string]string, *Item, error) {
	item := &Item{}
	typeTag := defaultType
	variantTag := defaultVariant

	var tags []Tag
	for _, key := range fields.SortedKeys() {
		value := fields[key]
		switch strings.ToLower(key) {
		case "target":
			target, err := decodeRegion(value, "target")
			if err != nil {
				return nil, nil, err
			}
			item.Target = target
		case "anchor":
			anchor, err := decodeRegion(value, "anchor")
			if err != nil {
				return nil, nil, err
			}
			item.Anchor = anchor
		case "data":
			switch value.Kind() {
			case types.KindBytes:
				item.Data = value.Raw()
			case types.KindString:
				item.Data = []byte(value.Str())
			default:
				return nil, nil, fmt.Errorf("%w: data must be a string or byte sequence", ErrMalformedItem)
			}
		case "type":
			typeTag = value.Str()
		case "variant":
			variantTag = value.Str()
		case "data-protocol", "dryrun", "path", "method":
			// Reserved for routing; never encoded into the item.
		case "tags":
			parsed, err := tagsFromValue(value)
			if err != nil {
				return nil, nil, err
			}
			tags = append(tags, parsed...)
		default:
			enc, err := codec.Encode(value)
			if err != nil {
				return nil, nil, fmt.Errorf("field %q: %w", key, err)
			}
			tags = append(tags, Tag{Name: key, Value: enc.Value})
		}
	}

	tags = append(tags,
		Tag{Name: TagDataProtocol, Value: dataProtocolValue},
		Tag{Name: TagType, Value: typeTag},
		Tag{Name: TagVariant, Value: variantTag},
	)
	item.Tags = tags

	headers := make(map[string]string, len(TransportHeaders))
	for k, v := range TransportHeaders {
		headers[k] = v
	}
	return headers, item, nil
}

// tagsFromValue accepts an explicit tag list: an array of {name, value}
// maps, each contributing exactly one tag.
func tagsFromValue(value types.Value) ([]Tag, error) {
	if value.Kind() != types.KindList {
		return nil, fmt.Errorf("%w: tags must be a list of name/value maps", ErrMalformedItem)
	}
	tags := make([]Tag, 0, len(value.Items()))
	for i, item := range value.Items() {
		if item.Kind() != types.KindMap {
			return nil, fmt.Errorf("%w: tag %d is not a name/value map", ErrMalformedItem, i)
		}
		sub := item.SubMap()
		var name, val string
		for key, field := range sub {
			switch strings.ToLower(key) {
			case "name":
				name = field.Str()
			case "value":
				val = field.Str()
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w: tag %d has no name", ErrMalformedItem, i)
		}
		tags = append(tags, Tag{Name: name, Value: val})
	}
	return tags, nil
}

// decodeRegion accepts either raw bytes or a base64url string for the
// 32-byte target/anchor regions.
func decodeRegion(value types.Value, name string) ([]byte, error) {
	switch value.Kind() {
	case types.KindBytes:
		return value.Raw(), nil
	case types.KindString:
		if value.Str() == "" {
			return nil, nil
		}
		decoded, err := base64.RawURLEncoding.DecodeString(value.Str())
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not base64url: %v", ErrMalformedItem, name, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a string or byte sequence", ErrMalformedItem, name)
	}
}
