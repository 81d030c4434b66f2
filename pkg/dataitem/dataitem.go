// Package dataitem builds, signs, and verifies the binary bundle encoding
// (format A). An item serializes to one buffer with a fixed layout:
//
//	[0:2]    signature type, little-endian uint16
//	[2:2+S]  signature region, zero-filled until spliced post-sign
//	[..+O]   owner (public key modulus, left-padded to the owner width)
//	[1]      target presence, then 32 bytes when present
//	[1]      anchor presence, then 32 bytes when present
//	[8]      tag count, little-endian uint64
//	[8]      encoded tag bytes length, little-endian uint64
//	[...]    tag name/value pairs (zigzag-varint framed)
//	[...]    data, to the end of the buffer
//
// S and O are fixed by the signature-type metadata. The signable payload
// is the deep hash over every region except the signature.
package dataitem

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hyperweave/ao-sign-go/pkg/signer"
)

var (
	// ErrMissingSignature is returned when a signer produced no signature.
	ErrMissingSignature = errors.New("signer returned no signature")
	// ErrInvalidSignature is returned when local post-sign verification
	// fails; the artifact is never transmitted.
	ErrInvalidSignature = errors.New("invalid signature on signed item")
	// ErrMalformedItem is returned when a buffer does not parse as an item.
	ErrMalformedItem = errors.New("malformed binary item")
)

// SignatureOffset is where the signature region starts: immediately after
// the 2-byte signature-type field.
const SignatureOffset = 2

// sigMeta fixes the signature and owner region widths per signature type.
type sigMeta struct {
	SigLength   int
	OwnerLength int
}

var sigMetaByType = map[int]sigMeta{
	signer.SignatureTypeRSA: {SigLength: 512, OwnerLength: 512},
}

// Tag is one name/value pair attached to an item.
type Tag struct {
	Name  string
	Value string
}

// Item is the unsigned logical content of a binary data item.
type Item struct {
	Target []byte // 0 or 32 bytes
	Anchor []byte // 0..32 bytes
	Tags   []Tag
	Data   []byte
}

// SignedItem is a completed artifact: the digest-derived identifier and
// the raw signed buffer.
type SignedItem struct {
	ID  string
	Raw []byte
}

// Serialize produces the unsigned buffer for an item, with the signature
// region zero-filled. owner is the signer's public key modulus; shorter
// keys are left-padded to the owner width.
func Serialize(item *Item, sigType int, owner []byte) ([]byte, error) {
	meta, ok := sigMetaByType[sigType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown signature type %d", ErrMalformedItem, sigType)
	}
	if len(owner) == 0 || len(owner) > meta.OwnerLength {
		return nil, fmt.Errorf("%w: owner must be 1..%d bytes, got %d", ErrMalformedItem, meta.OwnerLength, len(owner))
	}
	if len(item.Target) != 0 && len(item.Target) != 32 {
		return nil, fmt.Errorf("%w: target must be 0 or 32 bytes, got %d", ErrMalformedItem, len(item.Target))
	}
	if len(item.Anchor) > 32 {
		return nil, fmt.Errorf("%w: anchor must be at most 32 bytes, got %d", ErrMalformedItem, len(item.Anchor))
	}

	tagBytes, err := encodeTags(item.Tags)
	if err != nil {
		return nil, err
	}

	// The anchor region is always 32 bytes when present; shorter anchors
	// are left-padded with zeros.
	var anchor []byte
	if len(item.Anchor) > 0 {
		anchor = make([]byte, 32)
		copy(anchor[32-len(item.Anchor):], item.Anchor)
	}

	size := 2 + meta.SigLength + meta.OwnerLength +
		1 + len(item.Target) +
		1 + len(anchor) +
		8 + 8 + len(tagBytes) +
		len(item.Data)
	buf := make([]byte, size)

	binary.LittleEndian.PutUint16(buf[0:2], uint16(sigType))
	pos := SignatureOffset + meta.SigLength
	copy(buf[pos+meta.OwnerLength-len(owner):pos+meta.OwnerLength], owner)
	pos += meta.OwnerLength

	if len(item.Target) > 0 {
		buf[pos] = 1
		copy(buf[pos+1:], item.Target)
		pos += 1 + len(item.Target)
	} else {
		pos++
	}
	if len(anchor) > 0 {
		buf[pos] = 1
		copy(buf[pos+1:], anchor)
		pos += 1 + len(anchor)
	} else {
		pos++
	}

	binary.LittleEndian.PutUint64(buf[pos:], uint64(len(item.Tags)))
	pos += 8
	binary.LittleEndian.PutUint64(buf[pos:], uint64(len(tagBytes)))
	pos += 8
	copy(buf[pos:], tagBytes)
	pos += len(tagBytes)
	copy(buf[pos:], item.Data)

	return buf, nil
}

// Parsed is a signed (or unsigned) buffer decoded back into its regions.
type Parsed struct {
	SigType   int
	Signature []byte
	Owner     []byte
	Target    []byte
	Anchor    []byte
	TagBytes  []byte
	Tags      []Tag
	Data      []byte
}

// Parse decodes a buffer into its regions, validating the layout.
func Parse(raw []byte) (*Parsed, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: buffer too short for signature type", ErrMalformedItem)
	}
	sigType := int(binary.LittleEndian.Uint16(raw[0:2]))
	meta, ok := sigMetaByType[sigType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown signature type %d", ErrMalformedItem, sigType)
	}

	pos := SignatureOffset
	if len(raw) < pos+meta.SigLength+meta.OwnerLength+2 {
		return nil, fmt.Errorf("%w: buffer too short for signature and owner", ErrMalformedItem)
	}
	signature := raw[pos : pos+meta.SigLength]
	pos += meta.SigLength
	owner := raw[pos : pos+meta.OwnerLength]
	pos += meta.OwnerLength

	var target []byte
	if raw[pos] == 1 {
		if len(raw) < pos+1+32 {
			return nil, fmt.Errorf("%w: buffer too short for target", ErrMalformedItem)
		}
		target = raw[pos+1 : pos+1+32]
		pos += 1 + 32
	} else {
		pos++
	}

	var anchor []byte
	if raw[pos] == 1 {
		if len(raw) < pos+1+32 {
			return nil, fmt.Errorf("%w: buffer too short for anchor", ErrMalformedItem)
		}
		anchor = raw[pos+1 : pos+1+32]
		pos += 1 + 32
	} else {
		pos++
	}

	if len(raw) < pos+16 {
		return nil, fmt.Errorf("%w: buffer too short for tag counts", ErrMalformedItem)
	}
	tagCount := binary.LittleEndian.Uint64(raw[pos:])
	pos += 8
	tagLen := binary.LittleEndian.Uint64(raw[pos:])
	pos += 8
	if uint64(len(raw)-pos) < tagLen {
		return nil, fmt.Errorf("%w: buffer too short for tags", ErrMalformedItem)
	}
	tagBytes := raw[pos : pos+int(tagLen)]
	pos += int(tagLen)

	tags, err := decodeTags(tagBytes)
	if err != nil {
		return nil, err
	}
	if uint64(len(tags)) != tagCount {
		return nil, fmt.Errorf("%w: tag count %d does not match encoded tags %d", ErrMalformedItem, tagCount, len(tags))
	}

	return &Parsed{
		SigType:   sigType,
		Signature: signature,
		Owner:     owner,
		Target:    target,
		Anchor:    anchor,
		TagBytes:  tagBytes,
		Tags:      tags,
		Data:      raw[pos:],
	}, nil
}
