package types

import (
	"sort"
	"strings"
)

// Format selects which wire encoding a message is signed under.
type Format string

const (
	// FormatDataItem is the length-prefixed binary bundle encoding ("ans104").
	FormatDataItem Format = "ans104"
	// FormatHTTPSig is the structured HTTP-header signature encoding ("httpsig").
	FormatHTTPSig Format = "httpsig"
)

// DefaultFormat is used when a caller does not select a format explicitly.
const DefaultFormat = FormatHTTPSig

// MaxHeaderLength is the protocol ceiling on an encoded header field.
// Fields larger than this become body parts.
const MaxHeaderLength = 4096

// ReservedFieldNames are excluded from tag/body conversion when building a
// binary data item; they carry protocol-level meaning of their own.
var ReservedFieldNames = []string{
	"target", "anchor", "data", "data-protocol", "variant", "dryrun", "type", "path", "method",
}

// IsReservedFieldName reports whether key (case-insensitive) is protocol-reserved.
func IsReservedFieldName(key string) bool {
	lower := strings.ToLower(key)
	for _, name := range ReservedFieldNames {
		if lower == name {
			return true
		}
	}
	return false
}

// Kind discriminates the value variants a field map may hold.
type Kind int

const (
	KindString Kind = iota
	KindBytes
	KindInteger
	KindFloat
	KindAtom
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindAtom:
		return "atom"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the scalar, list, and nested-map shapes a
// field may take. The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	raw  []byte
	num  int64
	flt  float64
	list []Value
	sub  FieldMap
}

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bytes wraps a byte-sequence value.
func Bytes(b []byte) Value { return Value{kind: KindBytes, raw: b} }

// Integer wraps an integral number.
func Integer(i int64) Value { return Value{kind: KindInteger, num: i} }

// Float wraps a floating-point number.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Atom wraps a symbol-like value identified by its display name.
func Atom(name string) Value { return Value{kind: KindAtom, str: name} }

// List wraps an ordered collection of values.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Map wraps a nested field map.
func Map(m FieldMap) Value { return Value{kind: KindMap, sub: m} }

func (v Value) Kind() Kind         { return v.kind }
func (v Value) Str() string        { return v.str }
func (v Value) Raw() []byte        { return v.raw }
func (v Value) Int() int64         { return v.num }
func (v Value) Flt() float64       { return v.flt }
func (v Value) Items() []Value     { return v.list }
func (v Value) SubMap() FieldMap   { return v.sub }

// FieldMap maps case-insensitive keys to values. Keys may use "/" to
// address nested levels once flattened.
type FieldMap map[string]Value

// SortedKeys returns the map's keys in ascending ASCII order. Go map
// iteration is randomized, so every walk that must be deterministic goes
// through this.
func (m FieldMap) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
