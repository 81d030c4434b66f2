package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

func validConfig() *ClientConfig {
	return &ClientConfig{
		WalletPath: "/keys/wallet.json",
		GatewayURL: "https://gateway.example",
	}
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{
			name:   "valid wallet config",
			mutate: func(c *ClientConfig) {},
		},
		{
			name: "valid kms config",
			mutate: func(c *ClientConfig) {
				c.WalletPath = ""
				c.KMSKeyID = "alias/signing"
			},
		},
		{
			name: "valid with format and redis",
			mutate: func(c *ClientConfig) {
				c.Format = types.FormatDataItem
				c.RedisAddress = "localhost:6379"
			},
		},
		{
			name: "missing key material",
			mutate: func(c *ClientConfig) {
				c.WalletPath = ""
			},
			wantErr: "walletPath",
		},
		{
			name: "wallet and kms are exclusive",
			mutate: func(c *ClientConfig) {
				c.KMSKeyID = "alias/signing"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "missing gateway",
			mutate: func(c *ClientConfig) {
				c.GatewayURL = ""
			},
			wantErr: "gatewayUrl",
		},
		{
			name: "relative gateway",
			mutate: func(c *ClientConfig) {
				c.GatewayURL = "/relay"
			},
			wantErr: "absolute URL",
		},
		{
			name: "unsupported format",
			mutate: func(c *ClientConfig) {
				c.Format = "carrier-pigeon"
			},
			wantErr: "format",
		},
		{
			name: "redis and disk cache are exclusive",
			mutate: func(c *ClientConfig) {
				c.RedisAddress = "localhost:6379"
				c.CachePath = "/var/cache/aosign"
			},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvWalletPath, "/keys/wallet.json")
	t.Setenv(EnvGatewayURL, "https://gateway.example")
	t.Setenv(EnvFormat, "ans104")
	t.Setenv(EnvVerbose, "true")

	cfg := FromEnv()
	assert.Equal(t, "/keys/wallet.json", cfg.WalletPath)
	assert.Equal(t, "https://gateway.example", cfg.GatewayURL)
	assert.Equal(t, types.FormatDataItem, cfg.Format)
	assert.True(t, cfg.Verbose)
}
