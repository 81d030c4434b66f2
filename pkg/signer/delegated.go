package signer

import (
	"context"
	"fmt"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// DelegatedSignFunc is the external, opaque signing capability a
// DelegatedSigner defers to (browser extension, HSM, remote service). On
// the binary-item path it receives the original logical fields and returns
// a fully-formed {ID, Raw} result; on the header-signature path it
// receives the canonical bytes and returns {Signature, Address}.
type DelegatedSignFunc func(ctx context.Context, payload any) (*Result, error)

// DelegatedSigner implements the signer capability for wallets that
// compute their own canonical bytes. For the binary item format it invokes
// create with passthrough set, hands the logical fields to the external
// capability, and returns its result untouched.
type DelegatedSigner struct {
	sign    DelegatedSignFunc
	pub     []byte
	address string
}

// NewDelegatedSigner wraps an external signing capability. pub is the
// wallet's public key material, used only for address derivation and the
// create callback context.
func NewDelegatedSigner(pub []byte, sign DelegatedSignFunc) (*DelegatedSigner, error) {
	if sign == nil {
		return nil, fmt.Errorf("delegated sign function cannot be nil")
	}
	return &DelegatedSigner{
		sign:    sign,
		pub:     pub,
		address: AddressFromPublicKey(pub, nil),
	}, nil
}

func (s *DelegatedSigner) PublicKey() []byte { return s.pub }
func (s *DelegatedSigner) Address() string   { return s.address }

func (s *DelegatedSigner) Sign(ctx context.Context, create CreateFunc, format types.Format) (*Result, error) {
	switch format {
	case types.FormatDataItem:
		out, err := create(ctx, CreateInput{
			Type:        SignatureTypeRSA,
			PublicKey:   s.pub,
			Alg:         AlgDataItem,
			Passthrough: true,
		})
		if err != nil {
			return nil, err
		}
		return s.sign(ctx, out.Passthrough)
	case types.FormatHTTPSig:
		out, err := create(ctx, CreateInput{PublicKey: s.pub, Alg: AlgHTTPSig})
		if err != nil {
			return nil, err
		}
		return s.sign(ctx, out.SignBytes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
