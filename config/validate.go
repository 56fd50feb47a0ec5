package config

import "fmt"

// Validate checks the configuration for values the client cannot run
// without. It returns the first problem found.
func (c *Config) Validate() error {
	switch c.Network {
	case Mainnet, Testnet:
	default:
		return fmt.Errorf("unknown network %q", c.Network)
	}

	if c.Chain.Endpoint == "" {
		return fmt.Errorf("chain.endpoint must not be empty")
	}
	if c.Chain.CurrencyContract.IsZero() {
		return fmt.Errorf("chain.currency contract address must be set")
	}
	if c.Chain.ClaimContract.IsZero() {
		return fmt.Errorf("chain.claimcontract address must be set")
	}
	if c.Chain.ConfirmationWait <= 0 {
		return fmt.Errorf("chain.confirmwait must be positive")
	}
	if c.Chain.PollInterval <= 0 {
		return fmt.Errorf("chain.pollinterval must be positive")
	}

	if c.Claim.Quantity == 0 {
		return fmt.Errorf("claim.quantity must be at least 1")
	}
	if c.Claim.PricePerUnit == 0 && c.Claim.PriceSource == PriceStatic {
		return fmt.Errorf("claim.price must be positive with a static price source")
	}
	switch c.Claim.PriceSource {
	case PriceStatic, PriceRemote:
	default:
		return fmt.Errorf("claim.pricesource must be %q or %q", PriceStatic, PriceRemote)
	}

	return nil
}
