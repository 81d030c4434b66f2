package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/require"
)

// GenerateRSAKey creates an RSA private key for test signers. 2048 bits
// keeps test runtime reasonable; production wallets use 4096.
func GenerateRSAKey(t *testing.T, bits int) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err, "failed to generate RSA key")
	return key
}

// EncodeJWK serializes a private key as a JWK document, the wallet format
// signers are loaded from.
func EncodeJWK(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	imported, err := jwk.Import(key)
	require.NoError(t, err, "failed to import key as JWK")
	raw, err := json.Marshal(imported)
	require.NoError(t, err, "failed to serialize JWK")
	return raw
}
