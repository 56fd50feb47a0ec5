// Package config handles client configuration.
//
// Configuration is split into two categories:
//   - Chain settings: network, RPC endpoint, contract addresses
//   - Claim policy: price, quantity, and where the price comes from
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// PriceSource selects where the mint price is read from.
type PriceSource string

const (
	// PriceStatic takes price and currency from this configuration.
	PriceStatic PriceSource = "static"
	// PriceRemote reads the active claim condition from the ledger
	// before each mint attempt.
	PriceRemote PriceSource = "remote"
)

// Config holds client runtime configuration.
type Config struct {
	// Core
	Network NetworkType
	DataDir string

	// Chain connection
	Chain ChainConfig

	// Claim (mint) policy
	Claim ClaimConfig

	// Logging
	Log LogConfig
}

// ChainConfig describes the target network and its fixed contracts.
type ChainConfig struct {
	ChainID  uint64
	Endpoint string // JSON-RPC endpoint URL

	// Fixed contract addresses supplied by the deployment, never
	// computed by the client.
	CurrencyContract types.Address
	ClaimContract    types.Address

	CurrencySymbol   string
	CurrencyDecimals uint8

	// ConfirmationWait bounds how long a submitted write is awaited
	// before the attempt is reported as timed out.
	ConfirmationWait time.Duration
	// PollInterval is the receipt polling cadence during an await.
	PollInterval time.Duration
}

// ClaimConfig is the default mint policy.
type ClaimConfig struct {
	TokenID      uint64
	Quantity     uint64
	PricePerUnit uint64 // in currency base units
	PriceSource  PriceSource
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

// DefaultDataDir returns the platform default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tokendeck"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Tokendeck")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Tokendeck")
		}
		return filepath.Join(home, "Tokendeck")
	default:
		return filepath.Join(home, ".tokendeck")
	}
}

// HistoryDir returns the command-history database path for a network.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, string(c.Network), "history")
}
