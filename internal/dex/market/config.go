// =============================
// File: internal/dex/market/config.go
// =============================
package market

import (
	"fmt"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc/computebudget"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
	"github.com/rovshanmuradov/launchpad-sdk/internal/types"
)

var (
	// ProgramID – адрес программы рынка в mainnet
	ProgramID = solana.MustPublicKeyFromBase58("8hbUkonssSEEtkqzwM7ZcZrD9evacM92TcWSooVF4BeT")

	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	TokenProgramID           = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	MemoProgramID            = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	WSOLMint                 = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	SysvarRentPubkey         = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

const (
	// TokenDecimals – все токены рынка имеют 6 знаков
	TokenDecimals = 6
	// TotalSupply – эмиссия каждого токена в минимальных единицах
	TotalSupply uint64 = 1_000_000_000 * 1_000_000
	// SupplyFloor – ниже этой циркулирующей эмиссии байбэки остановлены навсегда
	SupplyFloor uint64 = 500_000_000 * 1_000_000
	// MinBuybackLamports – минимальная осмысленная сумма байбэка
	MinBuybackLamports uint64 = 10_000_000

	MaxMessageLength = 500
	MaxNameLength    = 32
	MaxSymbolLength  = 10
	MaxURILength     = 200

	DefaultVanitySuffix   = "tm"
	DefaultVanityAttempts = 50_000

	bpsDenominator = 10_000
)

// Config хранит конфигурацию для работы с программой рынка.
type Config struct {
	ProgramID solana.PublicKey
	CPMM      cpmm.Config

	DefaultSlippageBps uint16
	VanitySuffix       string
	VanityAttempts     int
	// ComputeUnitPrice в микролампортах; 0 – без приоритетной комиссии
	ComputeUnitPrice uint64
}

// GetDefaultConfig возвращает конфигурацию по умолчанию.
func GetDefaultConfig() Config {
	return Config{
		ProgramID:          ProgramID,
		CPMM:               cpmm.GetDefaultConfig(),
		DefaultSlippageBps: types.DefaultSlippageBps,
		VanitySuffix:       DefaultVanitySuffix,
		VanityAttempts:     DefaultVanityAttempts,
	}
}

// Validate проверяет конфигурацию.
func (c Config) Validate() error {
	if c.ProgramID.IsZero() {
		return fmt.Errorf("program id is required")
	}
	if err := c.CPMM.Validate(); err != nil {
		return err
	}
	if err := types.ValidateSlippageBps(c.DefaultSlippageBps); err != nil {
		return fmt.Errorf("default slippage: %w", err)
	}
	if c.VanityAttempts < 1 {
		return fmt.Errorf("vanity attempts must be positive, got %d", c.VanityAttempts)
	}
	if utf8.RuneCountInString(c.VanitySuffix) > 4 {
		return fmt.Errorf("vanity suffix %q is too long", c.VanitySuffix)
	}
	return nil
}

func (c Config) budget(units uint32) computebudget.Config {
	return computebudget.Config{Units: units, UnitPrice: c.ComputeUnitPrice}
}
