package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Mnemonic source: a plain-text file, or an encrypted keystore entry.
	MnemonicFile     string `envconfig:"HDADA_MNEMONIC_FILE"`
	KeystoreDir      string `envconfig:"HDADA_KEYSTORE_DIR" default:"./data/keystore"`
	KeystoreName     string `envconfig:"HDADA_KEYSTORE_NAME"`
	KeystorePassword string `envconfig:"HDADA_KEYSTORE_PASSWORD"`
	Passphrase       string `envconfig:"HDADA_PASSPHRASE"`

	DBPath   string `envconfig:"HDADA_DB_PATH" default:"./data/hdada.sqlite"`
	Port     int    `envconfig:"HDADA_PORT" default:"8080"`
	LogLevel string `envconfig:"HDADA_LOG_LEVEL" default:"info"`
	LogDir   string `envconfig:"HDADA_LOG_DIR" default:"./logs"`
	Network  string `envconfig:"HDADA_NETWORK" default:"testnet"`

	ExportDir     string `envconfig:"HDADA_EXPORT_DIR" default:"./data/export"`
	AccountIndex  uint32 `envconfig:"HDADA_ACCOUNT_INDEX" default:"0"`
	ExternalCount int    `envconfig:"HDADA_EXTERNAL_COUNT" default:"5"`
	InternalCount int    `envconfig:"HDADA_INTERNAL_COUNT" default:"0"`

	SignRateLimit float64       `envconfig:"HDADA_SIGN_RATE_LIMIT" default:"5"`
	ChallengeTTL  time.Duration `envconfig:"HDADA_CHALLENGE_TTL" default:"5m"`
}

// Load reads configuration from .env file (if present) then from environment variables.
// Environment variables override .env values.
func Load() (*Config, error) {
	// Load .env file if it exists. godotenv does NOT override already-set env vars,
	// so real environment variables take precedence over .env values.
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Network != "mainnet" && c.Network != "testnet" {
		return fmt.Errorf("%w: network must be \"mainnet\" or \"testnet\", got %q", ErrInvalidConfig, c.Network)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.AccountIndex >= HardenedOffset {
		return fmt.Errorf("%w: account index must be below 2^31, got %d", ErrInvalidConfig, c.AccountIndex)
	}
	if c.ExternalCount < 0 || c.ExternalCount > MaxAddressesPerChain {
		return fmt.Errorf("%w: external count must be 0-%d, got %d", ErrInvalidConfig, MaxAddressesPerChain, c.ExternalCount)
	}
	if c.InternalCount < 0 || c.InternalCount > MaxAddressesPerChain {
		return fmt.Errorf("%w: internal count must be 0-%d, got %d", ErrInvalidConfig, MaxAddressesPerChain, c.InternalCount)
	}
	if c.SignRateLimit < 0 {
		return fmt.Errorf("%w: sign rate limit must not be negative, got %v", ErrInvalidConfig, c.SignRateLimit)
	}
	if c.ChallengeTTL < 0 {
		return fmt.Errorf("%w: challenge TTL must not be negative, got %s", ErrInvalidConfig, c.ChallengeTTL)
	}
	return nil
}

// UsesKeystore reports whether the mnemonic comes from the encrypted keystore.
// A configured mnemonic file takes precedence.
func (c *Config) UsesKeystore() bool {
	return c.MnemonicFile == "" && c.KeystoreName != ""
}

// RequireMnemonicSource fails with ErrMnemonicSourceNotSet when neither a
// mnemonic file nor a keystore entry is configured.
func (c *Config) RequireMnemonicSource() error {
	if c.MnemonicFile == "" && c.KeystoreName == "" {
		return fmt.Errorf("%w: set HDADA_MNEMONIC_FILE or HDADA_KEYSTORE_NAME", ErrMnemonicSourceNotSet)
	}
	return nil
}

// ListenAddr is the loopback address the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}
