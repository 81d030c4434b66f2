package dataitem

import (
	"crypto/sha256"
	"strconv"
)

// The deep hash is the signable payload of the binary item format: a
// digest computed over the item's serialized fields in a fixed order,
// excluding the signature region. Each chunk is domain-separated by a tag
// naming its kind and length, so no field can masquerade as another.

func deepHashBlob(data []byte) [32]byte {
	tag := sha256.Sum256([]byte("blob" + strconv.Itoa(len(data))))
	body := sha256.Sum256(data)
	return sha256.Sum256(append(tag[:], body[:]...))
}

func deepHashList(chunks [][]byte) [32]byte {
	acc := sha256.Sum256([]byte("list" + strconv.Itoa(len(chunks))))
	for _, chunk := range chunks {
		blob := deepHashBlob(chunk)
		acc = sha256.Sum256(append(acc[:], blob[:]...))
	}
	return acc
}

// signablePayload computes the deep hash covering every field of an item,
// including tags, in serialization order. owner must already be padded to
// the owner region width so signing and verification agree byte for byte.
func signablePayload(sigType int, owner, target, anchor, tagBytes, data []byte) []byte {
	digest := deepHashList([][]byte{
		[]byte("dataitem"),
		[]byte("1"),
		[]byte(strconv.Itoa(sigType)),
		owner,
		target,
		anchor,
		tagBytes,
		data,
	})
	return digest[:]
}
