package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/tokendeck/tokendeck/internal/ledger"
	"github.com/tokendeck/tokendeck/internal/mint"
	"github.com/tokendeck/tokendeck/internal/wallet"
	"github.com/tokendeck/tokendeck/pkg/types"
)

// errNotConnected is the fixed message every wallet-gated command
// reports when no session is active.
var errNotConnected = errors.New("Wallet not connected. Run 'connect' first.")

// CommandSet builds the console's six actions over the wallet provider,
// the ledger client, and the mint orchestrator.
type CommandSet struct {
	provider   wallet.Provider
	client     ledger.Client
	orch       *mint.Orchestrator
	transcript *Transcript

	currencySymbol   string
	currencyDecimals uint8
	nativeSymbol     string
}

// NewCommandSet creates the command set. The orchestrator's progress
// lines land in the transcript as Info.
func NewCommandSet(provider wallet.Provider, client ledger.Client, policy mint.Policy, transcript *Transcript) *CommandSet {
	c := &CommandSet{
		provider:         provider,
		client:           client,
		transcript:       transcript,
		currencySymbol:   policy.CurrencySymbol,
		currencyDecimals: policy.CurrencyDecimals,
		nativeSymbol:     "TDK",
	}
	c.orch = mint.New(client, policy, mint.WithProgress(func(phase mint.Phase, detail string) {
		// The dispatcher renders the terminal failure as the single
		// Error line; Done is reported by the command itself.
		if phase != mint.PhaseDone && phase != mint.PhaseFailed {
			transcript.Append(LineInfo, detail)
		}
	}))
	return c
}

// Register adds all commands to the dispatcher. Registration order is
// the help catalogue order.
func (c *CommandSet) Register(d *Dispatcher) {
	d.Register(c.connect())
	d.Register(c.balance())
	d.Register(c.nfts())
	d.Register(c.mint())
	d.Register(c.clear())
	d.Register(c.help(d))
}

// session re-reads the active session. Commands call this at every
// point where they are about to use the holder address, so a wallet
// that disconnected mid-command is treated as never connected.
func (c *CommandSet) session() (*wallet.Session, error) {
	s := c.provider.Active()
	if s == nil || !s.Connected {
		return nil, errNotConnected
	}
	return s, nil
}

func (c *CommandSet) connect() *Action {
	return &Action{
		Name:    "connect",
		Usage:   "connect",
		Summary: "Connect the wallet",
		Run: func(ctx context.Context, _ []string) error {
			if s := c.provider.Active(); s != nil && s.Connected {
				c.transcript.Append(LineInfo, fmt.Sprintf("Already connected: %s", s.Address))
				return nil
			}
			s, err := c.provider.Connect(ctx)
			if err != nil {
				return fmt.Errorf("connect failed: %w", err)
			}
			c.transcript.Append(LineOutput, fmt.Sprintf("Connected: %s (chain %d)", s.Address, s.ChainID))
			return nil
		},
	}
}

func (c *CommandSet) balance() *Action {
	return &Action{
		Name:    "balance",
		Usage:   "balance",
		Summary: "Show native and currency balances",
		Run: func(ctx context.Context, _ []string) error {
			s, err := c.session()
			if err != nil {
				return err
			}
			native, err := c.client.NativeBalance(ctx, s.Address)
			if err != nil {
				return err
			}

			// The session may have gone away during the read.
			s, err = c.session()
			if err != nil {
				return err
			}
			currency, err := c.client.FungibleBalance(ctx, s.Address)
			if err != nil {
				return err
			}

			c.transcript.Append(LineOutput, fmt.Sprintf("%s: %s",
				c.nativeSymbol, types.FormatUnits(native, c.currencyDecimals)))
			c.transcript.Append(LineOutput, fmt.Sprintf("%s: %s",
				c.currencySymbol, types.FormatUnits(currency, c.currencyDecimals)))
			return nil
		},
	}
}

func (c *CommandSet) nfts() *Action {
	return &Action{
		Name:    "nfts",
		Usage:   "nfts",
		Summary: "List owned NFTs",
		Run: func(ctx context.Context, _ []string) error {
			s, err := c.session()
			if err != nil {
				return err
			}
			tokens, err := c.client.OwnedTokens(ctx, s.Address)
			if err != nil {
				return err
			}
			if len(tokens) == 0 {
				c.transcript.Append(LineOutput, "No NFTs owned yet. Try 'mint'.")
				return nil
			}
			for _, tok := range tokens {
				c.transcript.Append(LineOutput, fmt.Sprintf("#%d %s ×%d", tok.TokenID, tok.Name, tok.Quantity))
			}
			return nil
		},
	}
}

func (c *CommandSet) mint() *Action {
	return &Action{
		Name:    "mint",
		Usage:   "mint",
		Summary: "Mint one token (paid claim)",
		Run: func(ctx context.Context, _ []string) error {
			s, err := c.session()
			if err != nil {
				return err
			}
			hash, err := c.orch.Mint(ctx, s.Address)
			if err != nil {
				return err
			}
			c.transcript.Append(LineOutput, "Mint confirmed: "+hash.String())
			return nil
		},
	}
}

func (c *CommandSet) clear() *Action {
	return &Action{
		Name:    "clear",
		Usage:   "clear",
		Summary: "Clear the console",
		Run: func(context.Context, []string) error {
			c.transcript.Reset()
			return nil
		},
	}
}

func (c *CommandSet) help(d *Dispatcher) *Action {
	return &Action{
		Name:    "help",
		Usage:   "help",
		Summary: "Show this command list",
		Run: func(context.Context, []string) error {
			c.transcript.Append(LineOutput, "Available commands:")
			for _, a := range d.Catalogue() {
				c.transcript.Append(LineOutput, fmt.Sprintf("  %-10s %s", a.Usage, a.Summary))
			}
			return nil
		},
	}
}
