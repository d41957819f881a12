// =============================
// File: internal/dex/cpmm/config.go
// =============================
package cpmm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ProgramID – Raydium CPMM
	ProgramID = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")
	// DefaultAmmConfig – конфигурация пула с комиссией 0.25%
	DefaultAmmConfig = solana.MustPublicKeyFromBase58("D4FPEruKEHrG5TenZ2mpDGEfu1iUvTiqBxvpU8HLBvC2")
	// DefaultFeeReceiver получает комиссию за создание пула
	DefaultFeeReceiver = solana.MustPublicKeyFromBase58("DNXgeM9EiiaAbaWvwjHj9fQQLAX5ZsfHyvmYUNRAdNC8")
)

const (
	// FeeRateDenominator – знаменатель ставок комиссии CPMM (ppm)
	FeeRateDenominator uint64 = 1_000_000
	// DefaultTradeFeeRate соответствует DefaultAmmConfig
	DefaultTradeFeeRate uint64 = 2_500
)

// Config хранит конфигурацию для взаимодействия с CPMM.
type Config struct {
	ProgramID    solana.PublicKey
	AmmConfig    solana.PublicKey
	FeeReceiver  solana.PublicKey
	TradeFeeRate uint64
}

// GetDefaultConfig возвращает конфигурацию mainnet.
func GetDefaultConfig() Config {
	return Config{
		ProgramID:    ProgramID,
		AmmConfig:    DefaultAmmConfig,
		FeeReceiver:  DefaultFeeReceiver,
		TradeFeeRate: DefaultTradeFeeRate,
	}
}

// Validate проверяет, что все адреса заданы.
func (c Config) Validate() error {
	switch {
	case c.ProgramID.IsZero():
		return fmt.Errorf("cpmm program id is required")
	case c.AmmConfig.IsZero():
		return fmt.Errorf("cpmm amm config is required")
	case c.FeeReceiver.IsZero():
		return fmt.Errorf("cpmm fee receiver is required")
	case c.TradeFeeRate >= FeeRateDenominator:
		return fmt.Errorf("cpmm trade fee rate %d must be below %d", c.TradeFeeRate, FeeRateDenominator)
	}
	return nil
}
