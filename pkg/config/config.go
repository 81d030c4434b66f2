package config

import (
	"net/url"
	"os"
	"strconv"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/hyperweave/ao-sign-go/pkg/types"
)

// Environment variable names for client configuration
const (
	EnvWalletPath   = "AO_WALLET_PATH"
	EnvKMSKeyID     = "AO_KMS_KEY_ID"
	EnvGatewayURL   = "AO_GATEWAY_URL"
	EnvFormat       = "AO_FORMAT"
	EnvRedisAddress = "AO_REDIS_ADDRESS"
	EnvCachePath    = "AO_CACHE_PATH"
	EnvVerbose      = "AO_VERBOSE"
)

// ClientConfig is the complete configuration for the signing client.
type ClientConfig struct {
	// WalletPath points at an RSA JWK on disk. Mutually exclusive with
	// KMSKeyID.
	WalletPath string `json:"wallet_path"`
	// KMSKeyID selects an AWS KMS key as the delegated signing backend.
	KMSKeyID string `json:"kms_key_id,omitempty"`

	// GatewayURL is where prepared requests are dispatched.
	GatewayURL string `json:"gateway_url"`

	// Format selects the default wire encoding; httpsig when empty.
	Format types.Format `json:"format,omitempty"`

	// RedisAddress enables the Redis response cache backend when set.
	RedisAddress string `json:"redis_address,omitempty"`
	// CachePath enables the disk-backed response cache when set.
	CachePath string `json:"cache_path,omitempty"`

	Verbose bool `json:"verbose"`
}

// FromEnv reads configuration from the environment.
func FromEnv() *ClientConfig {
	verbose, _ := strconv.ParseBool(os.Getenv(EnvVerbose))
	return &ClientConfig{
		WalletPath:   os.Getenv(EnvWalletPath),
		KMSKeyID:     os.Getenv(EnvKMSKeyID),
		GatewayURL:   os.Getenv(EnvGatewayURL),
		Format:       types.Format(os.Getenv(EnvFormat)),
		RedisAddress: os.Getenv(EnvRedisAddress),
		CachePath:    os.Getenv(EnvCachePath),
		Verbose:      verbose,
	}
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	var allErrors field.ErrorList

	if c.WalletPath == "" && c.KMSKeyID == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("walletPath"), "either walletPath or kmsKeyId is required"))
	}
	if c.WalletPath != "" && c.KMSKeyID != "" {
		allErrors = append(allErrors, field.Invalid(field.NewPath("kmsKeyId"), c.KMSKeyID, "walletPath and kmsKeyId are mutually exclusive"))
	}

	if c.GatewayURL == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("gatewayUrl"), "gatewayUrl is required"))
	} else if u, err := url.Parse(c.GatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
		allErrors = append(allErrors, field.Invalid(field.NewPath("gatewayUrl"), c.GatewayURL, "must be an absolute URL"))
	}

	switch c.Format {
	case "", types.FormatDataItem, types.FormatHTTPSig:
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("format"), c.Format,
			[]string{string(types.FormatDataItem), string(types.FormatHTTPSig)}))
	}

	if c.RedisAddress != "" && c.CachePath != "" {
		allErrors = append(allErrors, field.Invalid(field.NewPath("cachePath"), c.CachePath, "redisAddress and cachePath are mutually exclusive"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
