package types

import (
	"fmt"
	"math"
	"strconv"
)

// Bool wraps a boolean as its atom representation.
func Bool(b bool) Value { return Atom(strconv.FormatBool(b)) }

// FromJSON converts a decoded JSON document (map[string]any from
// encoding/json) into a field map. Numbers become integers when integral,
// booleans become atoms, and null entries are dropped.
func FromJSON(doc map[string]any) (FieldMap, error) {
	out := make(FieldMap, len(doc))
	for key, raw := range doc {
		if raw == nil {
			continue
		}
		value, err := valueFromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func valueFromJSON(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case float64:
		// Only integral values inside int64 range become integers; the
		// rest stay floats to keep their digits intact.
		if v == math.Trunc(v) && !math.IsInf(v, 0) && v >= -(1<<63) && v < 1<<63 {
			return Integer(int64(v)), nil
		}
		return Float(v), nil
	case []any:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			converted, err := valueFromJSON(item)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, converted)
		}
		return List(items...), nil
	case map[string]any:
		sub, err := FromJSON(v)
		if err != nil {
			return Value{}, err
		}
		return Map(sub), nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value of type %T", raw)
	}
}
