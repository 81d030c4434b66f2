// Package signer defines the capability contract shared by both wire
// formats: a signer is handed a deferred create callback that produces the
// exact bytes to sign, and returns the signature together with the
// digest-derived address of its key material. Concrete backends (local RSA
// key material, AWS KMS, opaque delegated wallets) all implement the same
// contract, so the encoders never know which one they are talking to.
package signer

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/hyperweave/ao-sign-go/pkg/cache"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

var (
	// ErrUnknownFormat is returned when the format selector matches
	// neither wire encoding.
	ErrUnknownFormat = errors.New("unknown signer format")
	// ErrMalformedKey is returned when key material cannot be parsed.
	ErrMalformedKey = errors.New("malformed key material")
)

// Signing algorithm identifiers, one per wire format.
const (
	AlgDataItem = "rsa-pss-sha256"
	AlgHTTPSig  = "rsa-pss-sha512"
)

// SignatureTypeRSA identifies the RSA-PSS scheme of the binary item
// format, with 512-byte signature and owner regions.
const SignatureTypeRSA = 1

// CreateInput is the context a signer injects when invoking the create
// callback. Passthrough requests the raw logical fields instead of signable
// bytes; delegated wallets that compute their own canonical bytes set it.
type CreateInput struct {
	Type        int
	PublicKey   []byte
	Alg         string
	Passthrough bool
}

// CreateOutput carries either the exact bytes to sign or, on the
// passthrough path, the original logical fields.
type CreateOutput struct {
	SignBytes   []byte
	Passthrough any
}

// CreateFunc produces the signable material for one signing attempt. It is
// invoked exactly once per attempt.
type CreateFunc func(ctx context.Context, in CreateInput) (*CreateOutput, error)

// Result is what a signing attempt yields. Signature and Address are set
// on the direct path; ID and Raw are set instead when a delegated backend
// returned a fully-formed signed artifact.
type Result struct {
	Signature []byte
	Address   string
	ID        string
	Raw       []byte
}

// Signer is the protocol-agnostic signing capability. Implementations are
// constructed once per key material, hold no per-call state, and may be
// reused across many signing operations.
type Signer interface {
	Sign(ctx context.Context, create CreateFunc, format types.Format) (*Result, error)
	PublicKey() []byte
	Address() string
}

// AddressFromPublicKey derives the protocol address of a public key:
// base64url(SHA-256(publicKey)). When a hash cache is supplied the
// derivation is memoized per key material.
func AddressFromPublicKey(pub []byte, hashCache *cache.HashCache) string {
	if hashCache != nil {
		if addr, ok := hashCache.Get(string(pub)); ok {
			return string(addr)
		}
	}
	digest := sha256.Sum256(pub)
	addr := base64.RawURLEncoding.EncodeToString(digest[:])
	if hashCache != nil {
		hashCache.Put(string(pub), []byte(addr))
	}
	return addr
}
