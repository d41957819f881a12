// =============================
// File: internal/dex/market/market.go
// =============================
package market

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain"
)

// Market планирует транзакции программы рынка.
// Между вызовами состояния нет: каждый вызов заново читает сеть. Безопасен для конкурентного использования.
type Market struct {
	cfg     Config
	chain   blockchain.ChainReader
	reader  *Reader
	deriver Deriver
	logger  *zap.Logger
	newKey  keyGenerator
}

// New создаёт Market. ChainReader передаётся явно и используется только для чтения.
func New(chain blockchain.ChainReader, logger *zap.Logger, cfg Config) (*Market, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain reader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market config: %w", err)
	}

	logger = logger.Named("market")
	deriver := NewDeriver(cfg)

	logger.Debug("Market planner prepared",
		zap.String("program_id", cfg.ProgramID.String()),
		zap.String("program_version", ProgramVersion),
		zap.String("cpmm_program", cfg.CPMM.ProgramID.String()),
		zap.String("global_config", deriver.GlobalConfig().String()))

	return &Market{
		cfg:     cfg,
		chain:   chain,
		reader:  NewReader(chain, deriver, logger),
		deriver: deriver,
		logger:  logger,
		newKey:  solana.NewRandomPrivateKey,
	}, nil
}

// Result – результат планирования.
type Result struct {
	Primary *UnsignedTx
	// Secondary – миграция, если покупка завершает кривую. Отправлять строго после Primary.
	Secondary *UnsignedTx
	// Mint – новый минт (только CreateToken)
	Mint      solana.PublicKey
	BuyQuote  *BuyQuote
	SellQuote *SellQuote
}

// Transactions возвращает транзакции в порядке отправки.
func (r *Result) Transactions() []*UnsignedTx {
	out := []*UnsignedTx{r.Primary}
	if r.Secondary != nil {
		out = append(out, r.Secondary)
	}
	return out
}

// Параметры намерений. Адреса – base58 строки, суммы – в минимальных единицах.
// VaultCreator включает режим ViaVault.

type CreateTokenParams struct {
	Creator string
	Name    string
	Symbol  string
	URI     string
}

type BuyParams struct {
	Mint           string
	Buyer          string
	AmountLamports uint64
	SlippageBps    *uint16
	Vote           *bool
	Message        string
	VaultCreator   string
}

type SellParams struct {
	Mint         string
	Seller       string
	TokenAmount  uint64
	SlippageBps  *uint16
	Message      string
	VaultCreator string
}

type StarParams struct {
	Mint         string
	User         string
	VaultCreator string
}

type CreateVaultParams struct {
	Creator string
}

type DepositVaultParams struct {
	Depositor    string
	VaultCreator string
	Lamports     uint64
}

type WithdrawVaultParams struct {
	Authority    string
	VaultCreator string
	Lamports     uint64
}

type LinkWalletParams struct {
	Authority    string
	VaultCreator string
	Wallet       string
}

type UnlinkWalletParams struct {
	Authority    string
	VaultCreator string
	Wallet       string
}

type TransferVaultAuthorityParams struct {
	Authority    string
	VaultCreator string
	NewAuthority string
}

type WithdrawVaultTokenParams struct {
	Authority    string
	VaultCreator string
	Mint         string
	Destination  string
	Amount       uint64
	// TokenProgram – по умолчанию Token-2022
	TokenProgram string
}

type VaultSwapParams struct {
	Mint         string
	Signer       string
	VaultCreator string
	AmountIn     uint64
	// Buy: SOL → токен; иначе токен → SOL
	Buy         bool
	SlippageBps *uint16
	Message     string
}

type BorrowParams struct {
	Mint             string
	Borrower         string
	CollateralAmount uint64
	SolToBorrow      uint64
	VaultCreator     string
}

type RepayParams struct {
	Mint         string
	Borrower     string
	Lamports     uint64
	VaultCreator string
}

type LiquidateParams struct {
	Mint         string
	Liquidator   string
	Borrower     string
	VaultCreator string
}

type ClaimProtocolRewardsParams struct {
	User         string
	VaultCreator string
}

type MigrateParams struct {
	Mint  string
	Payer string
}

type AutoBuybackParams struct {
	Mint        string
	Payer       string
	SlippageBps *uint16
}

type HarvestFeesParams struct {
	Mint  string
	Payer string
	// Sources – токенные аккаунты с удержанными комиссиями
	Sources []string
}

type SwapFeesToSolParams struct {
	Mint        string
	Payer       string
	SlippageBps *uint16
}

// parseKey разбирает base58 адрес; ошибка кодека – Invalid-input.
func parseKey(op, field, value string) (solana.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return solana.PublicKey{}, invalidInput(op, "%s is required", field)
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, invalidInputErr(op, fmt.Sprintf("invalid %s %q", field, value), err)
	}
	return pk, nil
}

func requirePositive(op, field string, v uint64) error {
	if v == 0 {
		return invalidInput(op, "%s must be positive", field)
	}
	return nil
}

func formatSol(lamports uint64) string {
	return fmt.Sprintf("%d.%09d SOL", lamports/solana.LAMPORTS_PER_SOL, lamports%solana.LAMPORTS_PER_SOL)
}

func formatTokens(raw uint64) string {
	return fmt.Sprintf("%d.%06d", raw/1_000_000, raw%1_000_000)
}
