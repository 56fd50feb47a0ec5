package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tokendeck/tokendeck/pkg/types"
)

// LoadFile loads client configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
// claim.price is applied last because its parse depends on
// chain.decimals.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if key == "claim.price" {
			continue
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	if value, ok := values["claim.price"]; ok {
		if err := setConfigValue(cfg, "claim.price", value); err != nil {
			return fmt.Errorf("config key %q: %w", "claim.price", err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key. Unknown keys are ignored.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Chain
	case "chain.id":
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Chain.ChainID = id
	case "chain.endpoint", "rpc":
		cfg.Chain.Endpoint = value
	case "chain.currency":
		addr, err := types.ParseAddress(value)
		if err != nil {
			return err
		}
		cfg.Chain.CurrencyContract = addr
	case "chain.claimcontract":
		addr, err := types.ParseAddress(value)
		if err != nil {
			return err
		}
		cfg.Chain.ClaimContract = addr
	case "chain.symbol":
		cfg.Chain.CurrencySymbol = value
	case "chain.decimals":
		d, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		cfg.Chain.CurrencyDecimals = uint8(d)
	case "chain.confirmwait":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Chain.ConfirmationWait = d
	case "chain.pollinterval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Chain.PollInterval = d

	// Claim policy
	case "claim.tokenid":
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Claim.TokenID = id
	case "claim.quantity":
		q, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Claim.Quantity = q
	case "claim.price":
		p, err := types.ParseUnits(value, cfg.Chain.CurrencyDecimals)
		if err != nil {
			return err
		}
		cfg.Claim.PricePerUnit = p
	case "claim.pricesource":
		cfg.Claim.PriceSource = PriceSource(strings.ToLower(value))

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
