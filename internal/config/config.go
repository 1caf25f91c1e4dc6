package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// Config is the service's environment configuration.
//
// ADMIN_ID is the only identity allowed to update compliance records;
// SYSTEM_ID is the service's own operating identity. Both are reserved and
// can never receive shares. When DATABASE_URL is empty the ledger runs
// purely in memory; when the SOLANA_* variables are set the settlement
// routes are enabled.
type Config struct {
	HTTPAddr    string    `env:"HTTP_ADDR" envDefault:":8080"`
	APIToken    string    `env:"API_TOKEN" envDefault:"dev-token"`
	DatabaseURL string    `env:"DATABASE_URL"`
	AdminID     uuid.UUID `env:"ADMIN_ID"`
	SystemID    uuid.UUID `env:"SYSTEM_ID"`

	SolanaRPCURL       string `env:"SOLANA_RPC_URL"`
	SolanaFeePayerKey  string `env:"SOLANA_FEE_PAYER_KEY"`
	SolanaDirectory    string `env:"SOLANA_DIRECTORY"`     // "identity=wallet,..."
	SolanaControlMints string `env:"SOLANA_CONTROL_MINTS"` // "assetID=mint,..."
}

// SettlementEnabled reports whether the Solana settlement gateway should be
// wired.
func (c Config) SettlementEnabled() bool {
	return c.SolanaRPCURL != "" && c.SolanaFeePayerKey != ""
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
