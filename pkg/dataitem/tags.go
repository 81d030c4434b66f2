package dataitem

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Tags are framed Avro-style: a zigzag-varint block count, then for each
// tag a length-prefixed name and value, terminated by a zero count. Every
// input field yields exactly one tag entry.

func encodeTags(tags []Tag) ([]byte, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	writeZigZag(&buf, int64(len(tags)))
	for i, tag := range tags {
		if tag.Name == "" {
			return nil, fmt.Errorf("%w: tag %d has empty name", ErrMalformedItem, i)
		}
		writeZigZag(&buf, int64(len(tag.Name)))
		buf.WriteString(tag.Name)
		writeZigZag(&buf, int64(len(tag.Value)))
		buf.WriteString(tag.Value)
	}
	writeZigZag(&buf, 0)
	return buf.Bytes(), nil
}

func decodeTags(data []byte) ([]Tag, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := bytes.NewReader(data)
	var tags []Tag
	for {
		count, err := readZigZag(r)
		if err != nil {
			return nil, fmt.Errorf("%w: bad tag block count: %v", ErrMalformedItem, err)
		}
		if count == 0 {
			break
		}
		if count < 0 {
			// Negative counts carry a block byte size we do not emit.
			return nil, fmt.Errorf("%w: negative tag block count", ErrMalformedItem)
		}
		for i := int64(0); i < count; i++ {
			name, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("%w: bad tag name: %v", ErrMalformedItem, err)
			}
			value, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("%w: bad tag value: %v", ErrMalformedItem, err)
			}
			tags = append(tags, Tag{Name: name, Value: value})
		}
	}
	return tags, nil
}

func writeZigZag(buf *bytes.Buffer, v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64((v<<1)^(v>>63)))
	buf.Write(tmp[:n])
}

func readZigZag(r *bytes.Reader) (int64, error) {
	u, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readZigZag(r)
	if err != nil {
		return "", err
	}
	if n < 0 || n > int64(r.Len()) {
		return "", fmt.Errorf("string length %d out of range", n)
	}
	out := make([]byte, n)
	if _, err := r.Read(out); err != nil {
		return "", err
	}
	return string(out), nil
}
