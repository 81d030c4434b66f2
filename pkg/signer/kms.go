package signer

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// KMSAPI is the subset of the AWS KMS client the signer uses.
type KMSAPI interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// KMSSigner is the delegated-wallet variant for key material held in AWS
// KMS: the private key never leaves the service, signing happens remotely,
// and the signer participates through the same capability contract as
// local key material.
type KMSSigner struct {
	client  KMSAPI
	keyID   string
	logger  *zap.Logger
	pub     []byte
	address string
}

// NewKMSSigner creates a signer for an asymmetric RSA key in AWS KMS. The
// public key is fetched once at construction.
func NewKMSSigner(ctx context.Context, client KMSAPI, keyID string, logger *zap.Logger, opts ...RSASignerOption) (*KMSSigner, error) {
	var options rsaSignerOptions
	for _, opt := range opts {
		opt(&options)
	}

	out, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for KMS key %s", keyID)
	}
	parsed, err := x509.ParsePKIXPublicKey(out.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse KMS public key: %v", ErrMalformedKey, err)
	}
	rsaPub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: KMS key %s is not RSA", ErrMalformedKey, keyID)
	}

	pub := rsaPub.N.Bytes()
	return &KMSSigner{
		client:  client,
		keyID:   keyID,
		logger:  logger,
		pub:     pub,
		address: AddressFromPublicKey(pub, options.addressCache),
	}, nil
}

// NewKMSSignerFromConfig creates a KMS signer using the default AWS
// configuration chain (environment, shared config, instance role).
func NewKMSSignerFromConfig(ctx context.Context, keyID string, logger *zap.Logger, opts ...RSASignerOption) (*KMSSigner, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS configuration")
	}
	return NewKMSSigner(ctx, kms.NewFromConfig(cfg), keyID, logger, opts...)
}

func (s *KMSSigner) PublicKey() []byte { return s.pub }
func (s *KMSSigner) Address() string   { return s.address }

// Sign invokes create for the signable bytes, digests them locally, and
// defers the RSA-PSS signing operation to KMS.
func (s *KMSSigner) Sign(ctx context.Context, create CreateFunc, format types.Format) (*Result, error) {
	var digest []byte
	var alg kmstypes.SigningAlgorithmSpec

	switch format {
	case types.FormatDataItem:
		out, err := create(ctx, CreateInput{Type: SignatureTypeRSA, PublicKey: s.pub, Alg: AlgDataItem})
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(out.SignBytes)
		digest = sum[:]
		alg = kmstypes.SigningAlgorithmSpecRsassaPssSha256
	case types.FormatHTTPSig:
		out, err := create(ctx, CreateInput{PublicKey: s.pub, Alg: AlgHTTPSig})
		if err != nil {
			return nil, err
		}
		sum := sha512.Sum512(out.SignBytes)
		digest = sum[:]
		alg = kmstypes.SigningAlgorithmSpecRsassaPssSha512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	s.logger.Sugar().Debugw("Signing via AWS KMS", "key_id", s.keyID, "algorithm", alg)

	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyID),
		Message:          digest,
		MessageType:      kmstypes.MessageTypeDigest,
		SigningAlgorithm: alg,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign with KMS key %s", s.keyID)
	}
	return &Result{Signature: out.Signature, Address: s.address}, nil
}
