package dataitem

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/hyperweave/ao-sign-go/pkg/signer"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// ErrCreateNotInvoked is returned when a signer completed without ever
// asking for the signable bytes; such a signature cannot cover the item.
var ErrCreateNotInvoked = errors.New("signer did not invoke create")

// SignItemFunc signs one unsigned item and returns the completed artifact.
type SignItemFunc func(ctx context.Context, item *Item) (*SignedItem, error)

// ToDataItemSigner binds a signer capability to the binary item format.
// The returned function serializes the item with a zero-filled signature
// region, hands the deep hash to the signer's create callback (or the
// logical fields, on the passthrough path), splices the signature back at
// the fixed offset, and verifies the completed buffer before releasing it.
func ToDataItemSigner(s signer.Signer) SignItemFunc {
	return func(ctx context.Context, item *Item) (*SignedItem, error) {
		meta := sigMetaByType[signer.SignatureTypeRSA]

		unsigned, err := Serialize(item, signer.SignatureTypeRSA, s.PublicKey())
		if err != nil {
			return nil, err
		}
		parsed, err := Parse(unsigned)
		if err != nil {
			return nil, err
		}
		payload := signablePayload(parsed.SigType, parsed.Owner, parsed.Target, parsed.Anchor, parsed.TagBytes, parsed.Data)

		invoked := false
		create := func(ctx context.Context, in signer.CreateInput) (*signer.CreateOutput, error) {
			invoked = true
			if in.Passthrough {
				return &signer.CreateOutput{Passthrough: item}, nil
			}
			return &signer.CreateOutput{SignBytes: payload}, nil
		}

		result, err := s.Sign(ctx, create, types.FormatDataItem)
		if err != nil {
			return nil, err
		}
		if result.Raw != nil && result.ID != "" {
			// Delegated wallet computed its own canonical bytes and
			// returned a fully-formed artifact.
			return &SignedItem{ID: result.ID, Raw: result.Raw}, nil
		}
		if !invoked {
			return nil, ErrCreateNotInvoked
		}
		if len(result.Signature) == 0 {
			return nil, ErrMissingSignature
		}
		if len(result.Signature) > meta.SigLength {
			return nil, fmt.Errorf("%w: signature is %d bytes, region holds %d", ErrMalformedItem, len(result.Signature), meta.SigLength)
		}

		copy(unsigned[SignatureOffset+meta.SigLength-len(result.Signature):SignatureOffset+meta.SigLength], result.Signature)

		if err := Verify(unsigned); err != nil {
			return nil, err
		}

		// The identifier digests the signature region as it sits in the
		// buffer, padding included, so a receiver derives the same ID
		// from the parsed bytes.
		id := sha256.Sum256(unsigned[SignatureOffset : SignatureOffset+meta.SigLength])
		return &SignedItem{
			ID:  base64.RawURLEncoding.EncodeToString(id[:]),
			Raw: unsigned,
		}, nil
	}
}

// Verify recomputes the deep hash of a signed buffer and checks the
// spliced signature against the embedded owner key. It is the local gate
// a freshly signed item must pass before transmission.
func Verify(raw []byte) error {
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	payload := signablePayload(parsed.SigType, parsed.Owner, parsed.Target, parsed.Anchor, parsed.TagBytes, parsed.Data)
	digest := sha256.Sum256(payload)

	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(parsed.Owner),
		E: 65537,
	}
	sig := new(big.Int).SetBytes(parsed.Signature).FillBytes(make([]byte, pub.Size()))

	if err := rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
