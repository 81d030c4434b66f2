package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperweave/ao-sign-go/pkg/cache"
	"github.com/hyperweave/ao-sign-go/pkg/cache/badger"
	"github.com/hyperweave/ao-sign-go/pkg/cache/memory"
	"github.com/hyperweave/ao-sign-go/pkg/cache/redis"
	"github.com/hyperweave/ao-sign-go/pkg/config"
	"github.com/hyperweave/ao-sign-go/pkg/logger"
	"github.com/hyperweave/ao-sign-go/pkg/message"
	"github.com/hyperweave/ao-sign-go/pkg/request"
	"github.com/hyperweave/ao-sign-go/pkg/signer"
	"github.com/hyperweave/ao-sign-go/pkg/types"
)

func main() {
	app := &cli.App{
		Name:  "ao-sign",
		Usage: "Prepare and sign outbound messages for the ao compute protocol",
		Description: `Flattens a JSON field map, signs it with an RSA JWK wallet or an AWS KMS
key, and emits the transport-ready artifact.

Two wire formats are supported:
- httpsig: headers plus an optional multipart body, signed via HTTP message signatures
- ans104: a raw binary data item, signed over its deep hash`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "wallet",
				Usage:   "Path to an RSA JWK wallet file",
				EnvVars: []string{config.EnvWalletPath},
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "AWS KMS key ID to sign with instead of a local wallet",
				EnvVars: []string{config.EnvKMSKeyID},
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Target URL for the prepared request",
				EnvVars: []string{config.EnvGatewayURL},
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "Wire format: httpsig or ans104",
				Value:   string(types.DefaultFormat),
				EnvVars: []string{config.EnvFormat},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address for the shared response cache",
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.StringFlag{
				Name:    "cache-path",
				Usage:   "Directory for the disk-backed response cache",
				EnvVars: []string{config.EnvCachePath},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "sign",
				Usage: "Sign a JSON field map and print the transport tuple",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "fields",
						Usage:    "Path to a JSON file holding the field map",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Write the request body to this file instead of stdout",
					},
				},
				Action: signCommand,
			},
			{
				Name:  "send",
				Usage: "Sign a JSON field map and dispatch it to the gateway",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "fields",
						Usage:    "Path to a JSON file holding the field map",
						Required: true,
					},
				},
				Action: sendCommand,
			},
			{
				Name:   "address",
				Usage:  "Print the wallet address",
				Action: addressCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func createSigner(c *cli.Context) (signer.Signer, error) {
	zl, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	walletPath := c.String("wallet")
	kmsKeyID := c.String("kms-key-id")
	if walletPath == "" && kmsKeyID == "" {
		return nil, fmt.Errorf("either --wallet or --kms-key-id is required")
	}
	if walletPath != "" && kmsKeyID != "" {
		return nil, fmt.Errorf("--wallet and --kms-key-id are mutually exclusive")
	}

	if kmsKeyID != "" {
		return signer.NewKMSSignerFromConfig(c.Context, kmsKeyID, zl)
	}
	raw, err := os.ReadFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}
	return signer.NewRSASignerFromJWK(raw)
}

// prepare runs the shared sign pipeline: validate configuration, load the
// field map, and produce a signed transport tuple.
func prepare(c *cli.Context, zl *zap.Logger) (*message.Prepared, error) {
	cfg := &config.ClientConfig{
		WalletPath:   c.String("wallet"),
		KMSKeyID:     c.String("kms-key-id"),
		GatewayURL:   c.String("url"),
		Format:       types.Format(c.String("format")),
		RedisAddress: c.String("redis-address"),
		CachePath:    c.String("cache-path"),
		Verbose:      c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := createSigner(c)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(c.String("fields"))
	if err != nil {
		return nil, fmt.Errorf("failed to read fields file: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("fields file is not a JSON object: %w", err)
	}
	fields, err := types.FromJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert fields: %w", err)
	}

	client, err := message.NewClient(&message.ClientConfig{
		Signer: s,
		Logger: zl,
		Format: types.Format(c.String("format")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message client: %w", err)
	}

	prepared, err := client.Prepare(c.Context, c.String("url"), "", fields)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare message: %w", err)
	}
	return prepared, nil
}

// createResponseCache selects the response cache backend from configuration:
// Redis when an address is set, Badger when a cache directory is set, and a
// bounded in-memory cache otherwise.
func createResponseCache(c *cli.Context, zl *zap.Logger) (cache.ResponseCache, error) {
	if addr := c.String("redis-address"); addr != "" {
		return redis.NewRedisResponseCache(c.Context, &redis.RedisConfig{Address: addr}, zl)
	}
	if path := c.String("cache-path"); path != "" {
		return badger.NewBadgerResponseCache(path, zl)
	}
	return memory.NewMemoryResponseCache(256), nil
}

func signCommand(c *cli.Context) error {
	zl, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	prepared, err := prepare(c, zl)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", prepared.Request.Method, prepared.Request.URL)
	names := make([]string, 0, len(prepared.Request.Headers))
	for name := range prepared.Request.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, prepared.Request.Headers[name])
	}
	if prepared.ID != "" {
		fmt.Printf("\nitem id: %s\n", prepared.ID)
	}

	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, prepared.Request.Body, 0644); err != nil {
			return fmt.Errorf("failed to write body: %w", err)
		}
		fmt.Printf("body written to %s (%d bytes)\n", output, len(prepared.Request.Body))
	} else if len(prepared.Request.Body) > 0 {
		fmt.Printf("\n%d body bytes\n", len(prepared.Request.Body))
	}
	return nil
}

func sendCommand(c *cli.Context) error {
	zl, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	prepared, err := prepare(c, zl)
	if err != nil {
		return err
	}

	responseCache, err := createResponseCache(c, zl)
	if err != nil {
		return fmt.Errorf("failed to create response cache: %w", err)
	}
	defer func() { _ = responseCache.Close() }()

	client, err := request.NewClient(&request.ClientConfig{
		Logger:        zl,
		Limiter:       rate.NewLimiter(rate.Limit(10), 1),
		ResponseCache: responseCache,
	})
	if err != nil {
		return fmt.Errorf("failed to create transport client: %w", err)
	}

	resp, err := client.Do(c.Context, prepared.Request)
	if err != nil {
		return fmt.Errorf("failed to dispatch request: %w", err)
	}

	fmt.Printf("status: %d\n", resp.StatusCode)
	if prepared.ID != "" {
		fmt.Printf("item id: %s\n", prepared.ID)
	}
	if len(resp.Body) > 0 {
		fmt.Printf("\n%s\n", resp.Body)
	}
	return nil
}

func addressCommand(c *cli.Context) error {
	s, err := createSigner(c)
	if err != nil {
		return err
	}
	fmt.Println(s.Address())
	return nil
}
