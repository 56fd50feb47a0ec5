// Tokendeck interactive wallet console.
//
// Usage:
//
//	tokendeck                      Connect to the configured network
//	tokendeck --devnet             Run against the in-process dev ledger
//	tokendeck --help               Show help
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokendeck/tokendeck/config"
	"github.com/tokendeck/tokendeck/internal/console"
	"github.com/tokendeck/tokendeck/internal/ledger"
	"github.com/tokendeck/tokendeck/internal/log"
	"github.com/tokendeck/tokendeck/internal/mint"
	"github.com/tokendeck/tokendeck/internal/storage"
	"github.com/tokendeck/tokendeck/internal/ui"
	"github.com/tokendeck/tokendeck/internal/wallet"
)

type flags struct {
	configFile string
	network    string
	endpoint   string
	dataDir    string
	devnet     bool
	logLevel   string
	logFile    string
	logJSON    bool
}

func main() {
	var f flags

	root := &cobra.Command{
		Use:          "tokendeck",
		Short:        "Interactive wallet console",
		Long:         "Tokendeck is a terminal console for a single wallet: check balances, list NFTs, and mint tokens through a paid claim.",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(&f)
		},
	}

	root.Flags().StringVar(&f.configFile, "config", "", "path to a tokendeck.conf file")
	root.Flags().StringVar(&f.network, "network", "", "network to target (mainnet or testnet)")
	root.Flags().StringVar(&f.endpoint, "rpc", "", "JSON-RPC endpoint (overrides the network default)")
	root.Flags().StringVar(&f.dataDir, "datadir", "", "data directory for command history")
	root.Flags().BoolVar(&f.devnet, "devnet", false, "use an in-process ledger instead of a remote node")
	root.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&f.logFile, "log-file", "", "also write logs to this file as JSON")
	root.Flags().BoolVar(&f.logJSON, "log-json", false, "write JSON logs to stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	db, err := openHistoryDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	provider := wallet.NewLocal(cfg.Chain.ChainID)
	client := buildClient(cfg, f.devnet, provider)

	policy := mint.Policy{
		ClaimContract:    cfg.Chain.ClaimContract,
		Currency:         cfg.Chain.CurrencyContract,
		CurrencySymbol:   cfg.Chain.CurrencySymbol,
		CurrencyDecimals: cfg.Chain.CurrencyDecimals,
		TokenID:          cfg.Claim.TokenID,
		Quantity:         cfg.Claim.Quantity,
		PricePerUnit:     cfg.Claim.PricePerUnit,
		RemotePrice:      cfg.Claim.PriceSource == config.PriceRemote,
	}

	transcript := console.NewTranscript(console.DefaultBanner(string(cfg.Network)))
	history := console.NewHistory(console.NewHistoryStore(db))
	dispatcher := console.NewDispatcher(transcript, history)
	console.NewCommandSet(provider, client, policy, transcript).Register(dispatcher)

	controller := console.NewController(dispatcher, history, transcript, provider, nil)
	defer controller.Close()

	log.Info().
		Str("network", string(cfg.Network)).
		Str("endpoint", cfg.Chain.Endpoint).
		Bool("devnet", f.devnet).
		Msg("console starting")

	return ui.Run(controller, dispatcher, string(cfg.Network))
}

// loadConfig builds the effective configuration: network defaults,
// then the config file, then command-line overrides.
func loadConfig(f *flags) (*config.Config, error) {
	network := config.Testnet
	if f.network != "" {
		network = config.NetworkType(f.network)
	}
	cfg := config.Default(network)
	// Keep the requested name so Validate rejects unknown networks.
	cfg.Network = network

	if f.configFile != "" {
		values, err := config.LoadFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFileConfig(cfg, values); err != nil {
			return nil, fmt.Errorf("apply config: %w", err)
		}
	}

	if f.endpoint != "" {
		cfg.Chain.Endpoint = f.endpoint
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if f.logJSON {
		cfg.Log.JSON = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openHistoryDB opens the persistent command-history store, falling
// back to memory when the directory is unusable so the console still
// starts.
func openHistoryDB(cfg *config.Config) (storage.DB, error) {
	dir := cfg.HistoryDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("history dir unavailable, using in-memory history")
		return storage.NewMemory(), nil
	}
	db, err := storage.NewBadger(dir)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return db, nil
}

// buildClient selects the ledger backend. The devnet signs with
// whatever wallet connects and seeds it with spendable balances so
// every command is usable offline.
func buildClient(cfg *config.Config, devnet bool, provider *wallet.LocalProvider) ledger.Client {
	if !devnet {
		return ledger.NewRPC(cfg.Chain.Endpoint, ledger.RPCOptions{
			CurrencyContract: cfg.Chain.CurrencyContract,
			ClaimContract:    cfg.Chain.ClaimContract,
			ConfirmationWait: cfg.Chain.ConfirmationWait,
			PollInterval:     cfg.Chain.PollInterval,
		})
	}

	dev := ledger.NewDevNet()
	currencySeed := cfg.Claim.PricePerUnit * cfg.Claim.Quantity * 5
	nativeSeed := 10 * pow10(cfg.Chain.CurrencyDecimals)
	provider.Subscribe(func(s *wallet.Session) {
		if s == nil || !s.Connected {
			return
		}
		dev.SetSigner(s.Address)
		dev.Fund(s.Address, nativeSeed, currencySeed)
	})
	return dev
}

func pow10(n uint8) uint64 {
	v := uint64(1)
	for i := uint8(0); i < n; i++ {
		v *= 10
	}
	return v
}
