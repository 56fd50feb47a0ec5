package config

import (
	"time"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// DefaultMainnet returns the default client configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Chain: ChainConfig{
			ChainID:  7700,
			Endpoint: "http://127.0.0.1:8545",
			// Deployment-fixed contracts. Real addresses are filled
			// per environment via the config file.
			CurrencyContract: types.HexToAddress("0x00000000000000000000000000000000000c0111"),
			ClaimContract:    types.HexToAddress("0x00000000000000000000000000000000000d0901"),
			CurrencySymbol:   "GLD",
			CurrencyDecimals: 8,
			ConfirmationWait: 90 * time.Second,
			PollInterval:     2 * time.Second,
		},
		Claim: ClaimConfig{
			TokenID:      0,
			Quantity:     1,
			PricePerUnit: 100_000_000, // 1 GLD
			PriceSource:  PriceStatic,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default client configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Chain.ChainID = 7701
	cfg.Chain.Endpoint = "http://127.0.0.1:8645"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
