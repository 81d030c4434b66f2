package signer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperweave/ao-sign-go/pkg/testutil"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// fakeKMS signs locally with a test key but exposes the KMS surface, so the
// signer's digest/algorithm selection can be asserted without AWS.
type fakeKMS struct {
	key      *rsa.PrivateKey
	lastAlg  kmstypes.SigningAlgorithmSpec
	signErr  error
	pubErr   error
	lastType kmstypes.MessageType
}

func (f *fakeKMS) GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	if f.pubErr != nil {
		return nil, f.pubErr
	}
	der, err := x509.MarshalPKIXPublicKey(&f.key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{PublicKey: der}, nil
}

func (f *fakeKMS) Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	f.lastAlg = params.SigningAlgorithm
	f.lastType = params.MessageType

	var hash crypto.Hash
	var saltLen int
	switch params.SigningAlgorithm {
	case kmstypes.SigningAlgorithmSpecRsassaPssSha256:
		hash, saltLen = crypto.SHA256, 32
	case kmstypes.SigningAlgorithmSpecRsassaPssSha512:
		hash, saltLen = crypto.SHA512, 64
	default:
		return nil, errors.New("unexpected algorithm")
	}
	sig, err := rsa.SignPSS(rand.Reader, f.key, hash, params.Message, &rsa.PSSOptions{SaltLength: saltLen})
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{Signature: sig}, nil
}

func TestNewKMSSigner_DerivesAddressFromModulus(t *testing.T) {
	key := testutil.GenerateRSAKey(t, 2048)
	fake := &fakeKMS{key: key}

	s, err := NewKMSSigner(context.Background(), fake, "alias/test", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, key.PublicKey.N.Bytes(), s.PublicKey())
	assert.Equal(t, AddressFromPublicKey(key.PublicKey.N.Bytes(), nil), s.Address())
}

func TestNewKMSSigner_GetPublicKeyFails(t *testing.T) {
	fake := &fakeKMS{key: testutil.GenerateRSAKey(t, 2048), pubErr: errors.New("access denied")}
	_, err := NewKMSSigner(context.Background(), fake, "alias/test", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias/test")
}

func TestKMSSigner_SignDataItemFormat(t *testing.T) {
	key := testutil.GenerateRSAKey(t, 2048)
	fake := &fakeKMS{key: key}
	s, err := NewKMSSigner(context.Background(), fake, "alias/test", zap.NewNop())
	require.NoError(t, err)

	payload := []byte("deep hash bytes")
	result, err := s.Sign(context.Background(), func(ctx context.Context, in CreateInput) (*CreateOutput, error) {
		assert.Equal(t, AlgDataItem, in.Alg)
		return &CreateOutput{SignBytes: payload}, nil
	}, types.FormatDataItem)
	require.NoError(t, err)

	assert.Equal(t, kmstypes.SigningAlgorithmSpecRsassaPssSha256, fake.lastAlg)
	assert.Equal(t, kmstypes.MessageTypeDigest, fake.lastType, "the digest is computed locally")

	digest := sha256.Sum256(payload)
	err = rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, digest[:], result.Signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	})
	assert.NoError(t, err)
	assert.Equal(t, s.Address(), result.Address)
}

func TestKMSSigner_SignHTTPSigFormat(t *testing.T) {
	key := testutil.GenerateRSAKey(t, 2048)
	fake := &fakeKMS{key: key}
	s, err := NewKMSSigner(context.Background(), fake, "alias/test", zap.NewNop())
	require.NoError(t, err)

	_, err = s.Sign(context.Background(), func(ctx context.Context, in CreateInput) (*CreateOutput, error) {
		assert.Equal(t, AlgHTTPSig, in.Alg)
		return &CreateOutput{SignBytes: []byte("signature base")}, nil
	}, types.FormatHTTPSig)
	require.NoError(t, err)

	assert.Equal(t, kmstypes.SigningAlgorithmSpecRsassaPssSha512, fake.lastAlg)
}

func TestKMSSigner_UnknownFormat(t *testing.T) {
	fake := &fakeKMS{key: testutil.GenerateRSAKey(t, 2048)}
	s, err := NewKMSSigner(context.Background(), fake, "alias/test", zap.NewNop())
	require.NoError(t, err)

	_, err = s.Sign(context.Background(), func(ctx context.Context, in CreateInput) (*CreateOutput, error) {
		return &CreateOutput{}, nil
	}, types.Format("bogus"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestKMSSigner_RemoteSignFails(t *testing.T) {
	fake := &fakeKMS{key: testutil.GenerateRSAKey(t, 2048)}
	s, err := NewKMSSigner(context.Background(), fake, "alias/test", zap.NewNop())
	require.NoError(t, err)

	fake.signErr = errors.New("throttled")
	_, err = s.Sign(context.Background(), func(ctx context.Context, in CreateInput) (*CreateOutput, error) {
		return &CreateOutput{SignBytes: []byte("x")}, nil
	}, types.FormatDataItem)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias/test")
}
