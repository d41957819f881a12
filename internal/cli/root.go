// =============================
// File: internal/cli/root.go
// =============================
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc"
	"github.com/rovshanmuradov/launchpad-sdk/internal/config"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
	"github.com/rovshanmuradov/launchpad-sdk/internal/utils/logger"
	"github.com/rovshanmuradov/launchpad-sdk/internal/wallet"
)

// app – зависимости команд, собираются один раз в PersistentPreRunE.
type app struct {
	configPath  string
	keypairPath string
	walletAddr  string
	submit      bool
	slippageBps uint16

	cfg       *config.Config
	log       *logger.Logger
	market    *market.Market
	confirmer *confirmer
	wallet    *wallet.Wallet
	out       io.Writer
}

// NewRootCommand собирает дерево команд CLI.
func NewRootCommand() *cobra.Command {
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:   "launchpad",
		Short: "Plan and submit fair-launch market transactions",
		Long: `launchpad builds unsigned transactions for the fair-launch token market:
bonding-curve trades, stars, vaults, lending, buybacks and migration.
Without --submit every command prints the transactions as base64 for an external signer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (JSON or YAML)")
	flags.StringVar(&a.keypairPath, "keypair", "", "wallet keypair file (solana-keygen JSON or base58)")
	flags.StringVar(&a.walletAddr, "wallet", "", "acting wallet address when no keypair is given")
	flags.BoolVar(&a.submit, "submit", false, "sign with --keypair, send and wait for confirmation")
	flags.Uint16Var(&a.slippageBps, "slippage", 0, "slippage tolerance in bps (default from config)")

	root.AddCommand(
		a.quoteCommands()...,
	)
	root.AddCommand(
		a.createCommand(),
		a.buyCommand(),
		a.sellCommand(),
		a.starCommand(),
		a.migrateCommand(),
		a.vaultCommand(),
		a.loanCommand(),
		a.buybackCommand(),
		a.harvestCommand(),
		a.swapFeesCommand(),
		a.claimCommand(),
	)
	return root
}

// Execute запускает CLI.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logger.New(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	marketCfg, err := cfg.MarketConfig()
	if err != nil {
		return err
	}
	client := solbc.NewClient(cfg.RPCURL, rpc.CommitmentType(cfg.Commitment), a.log.Logger)
	a.market, err = market.New(client, a.log.Logger, marketCfg)
	if err != nil {
		return err
	}
	a.confirmer = newConfirmer(client, solbc.NewErrorAnalyzer(a.log.Logger, market.ProgramErrors),
		a.log.Logger, rpc.CommitmentType(cfg.Commitment), cfg.ConfirmTimeout)

	if a.keypairPath != "" {
		a.wallet, err = wallet.LoadKeypair(a.keypairPath)
		if err != nil {
			return err
		}
	}
	if a.submit && a.wallet == nil {
		return fmt.Errorf("--submit requires --keypair")
	}

	a.log.Debug("CLI initialized",
		zap.String("rpc", cfg.RPCURL),
		zap.String("commitment", cfg.Commitment),
		zap.Bool("submit", a.submit))
	return nil
}

// actor – адрес кошелька, от имени которого строятся транзакции.
func (a *app) actor() (string, error) {
	if a.wallet != nil {
		return a.wallet.PublicKey.String(), nil
	}
	if a.walletAddr != "" {
		if _, err := solana.PublicKeyFromBase58(a.walletAddr); err != nil {
			return "", fmt.Errorf("invalid --wallet: %w", err)
		}
		return a.walletAddr, nil
	}
	return "", fmt.Errorf("either --keypair or --wallet is required")
}

// slippage – nil означает значение по умолчанию из конфигурации.
func (a *app) slippage() *uint16 {
	if a.slippageBps == 0 {
		return nil
	}
	v := a.slippageBps
	return &v
}

// finish печатает или отправляет транзакции результата строго по порядку.
func (a *app) finish(ctx context.Context, res *market.Result) error {
	if !a.submit {
		return printResult(a.out, res)
	}
	for i, utx := range res.Transactions() {
		opLog := a.log.WithOperation("submit")
		done := a.log.TrackPerformance("submit")
		sig, err := a.confirmer.submit(ctx, a.wallet, utx)
		done()
		if err != nil {
			opLog.Error("Transaction failed", zap.Int("index", i), zap.String("summary", utx.Summary), zap.Error(err))
			return err
		}
		a.log.WithTransaction(sig.String()).Info("Transaction confirmed", zap.String("summary", utx.Summary))
		fmt.Fprintf(a.out, "%s\n  signature: %s\n", utx.Summary, sig)
	}
	return nil
}
