package signer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/hyperweave/ao-sign-go/pkg/cache"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// RSASigner signs with local RSA key material. Format A material is signed
// RSA-PSS over SHA-256; format B material RSA-PSS over SHA-512.
type RSASigner struct {
	key     *rsa.PrivateKey
	pub     []byte
	address string
}

// RSASignerOption configures an RSASigner at construction time.
type RSASignerOption func(*rsaSignerOptions)

type rsaSignerOptions struct {
	addressCache *cache.HashCache
}

// WithAddressCache memoizes the address derivation in the given cache.
func WithAddressCache(c *cache.HashCache) RSASignerOption {
	return func(o *rsaSignerOptions) { o.addressCache = c }
}

// NewRSASigner creates a signer from an RSA private key.
func NewRSASigner(key *rsa.PrivateKey, opts ...RSASignerOption) (*RSASigner, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil RSA private key", ErrMalformedKey)
	}
	var options rsaSignerOptions
	for _, opt := range opts {
		opt(&options)
	}

	pub := key.PublicKey.N.Bytes()
	return &RSASigner{
		key:     key,
		pub:     pub,
		address: AddressFromPublicKey(pub, options.addressCache),
	}, nil
}

// NewRSASignerFromJWK creates a signer from a serialized RSA JWK.
func NewRSASignerFromJWK(raw []byte, opts ...RSASignerOption) (*RSASigner, error) {
	key, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	var rsaKey rsa.PrivateKey
	if err := jwk.Export(key, &rsaKey); err != nil {
		return nil, fmt.Errorf("%w: not an RSA private key: %v", ErrMalformedKey, err)
	}
	return NewRSASigner(&rsaKey, opts...)
}

func (s *RSASigner) PublicKey() []byte { return s.pub }
func (s *RSASigner) Address() string   { return s.address }

// Sign dispatches on the format selector, invokes create for the exact
// signable bytes, and signs them with the format's digest scheme.
func (s *RSASigner) Sign(ctx context.Context, create CreateFunc, format types.Format) (*Result, error) {
	switch format {
	case types.FormatDataItem:
		out, err := create(ctx, CreateInput{
			Type:      SignatureTypeRSA,
			PublicKey: s.pub,
			Alg:       AlgDataItem,
		})
		if err != nil {
			return nil, err
		}
		digest := sha256.Sum256(out.SignBytes)
		sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
			SaltLength: sha256.Size,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to sign data item: %w", err)
		}
		return &Result{Signature: sig, Address: s.address}, nil

	case types.FormatHTTPSig:
		out, err := create(ctx, CreateInput{
			PublicKey: s.pub,
			Alg:       AlgHTTPSig,
		})
		if err != nil {
			return nil, err
		}
		digest := sha512.Sum512(out.SignBytes)
		sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA512, digest[:], &rsa.PSSOptions{
			SaltLength: sha512.Size,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to sign signature base: %w", err)
		}
		return &Result{Signature: sig, Address: s.address}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
