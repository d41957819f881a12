// =============================
// File: internal/dex/market/accounts.go
// =============================
package market

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// GlobalConfig – параметры рынка, общие для всех токенов.
type GlobalConfig struct {
	Authority               solana.PublicKey
	ProtocolTreasury        solana.PublicKey
	ProtocolFeeBps          uint16
	TreasuryFeeMaxBps       uint16
	TreasuryFeeMinBps       uint16
	CommunityBps            uint16
	InitialVirtualSol       uint64
	InitialVirtualTokens    uint64
	FundingTarget           uint64
	MaxLtvBps               uint16
	LiquidationThresholdBps uint16
	InterestRateBps         uint16
}

// BondingCurve – состояние кривой токена. Флаги Complete и Migrated только false→true.
type BondingCurve struct {
	Mint          solana.PublicKey
	Creator       solana.PublicKey
	VirtualSol    uint64
	VirtualTokens uint64
	RealSol       uint64
	RealTokens    uint64
	FundingTarget uint64
	Complete      bool
	Migrated      bool
	CreatedSlot   uint64
}

// Treasury – казна токена и базовая линия байбэка.
type Treasury struct {
	Mint                solana.PublicKey
	SolBalance          uint64
	ReserveRatioBps     uint16
	BuybackPercentBps   uint16
	RatioThresholdBps   uint16
	MinIntervalSlots    uint64
	LastBuybackSlot     uint64
	BaselineSol         uint64
	BaselineTokens      uint64
	BaselineInitialized bool
	HarvestedFees       uint64
}

type TreasuryLock struct {
	Mint         solana.PublicKey
	LockedTokens uint64
}

// Vault – кастодиальный vault; один на создателя, не удаляется.
type Vault struct {
	Creator        solana.PublicKey
	Authority      solana.PublicKey
	SolBalance     uint64
	TotalDeposited uint64
	TotalWithdrawn uint64
	TotalSpent     uint64
	LinkedWallets  uint32
}

// WalletLink – существование записи единственное доказательство права кошелька на vault.
type WalletLink struct {
	Vault      solana.PublicKey
	Wallet     solana.PublicKey
	LinkedSlot uint64
}

type LoanPosition struct {
	Mint            solana.PublicKey
	Borrower        solana.PublicKey
	Collateral      uint64
	Principal       uint64
	AccruedInterest uint64
	LastUpdateSlot  uint64
}

type StarRecord struct {
	User solana.PublicKey
	Mint solana.PublicKey
	Slot uint64
}

type UserStats struct {
	User             solana.PublicKey
	Volume           uint64
	RewardsClaimable uint64
}

// decodeAccount проверяет Anchor-дискриминатор и декодирует Borsh-тело.
func decodeAccount(name string, data []byte, out interface{}) error {
	if len(data) < 8 {
		return fmt.Errorf("%s: data too short (%d bytes)", name, len(data))
	}
	want := anchorDiscriminator("account", name)
	if !bytes.Equal(data[:8], want[:]) {
		return fmt.Errorf("%s: invalid discriminator", name)
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode: %w", name, err)
	}
	return nil
}

func ParseGlobalConfig(data []byte) (*GlobalConfig, error) {
	var out GlobalConfig
	if err := decodeAccount(AccountGlobalConfig, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseBondingCurve(data []byte) (*BondingCurve, error) {
	var out BondingCurve
	if err := decodeAccount(AccountBondingCurve, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseTreasury(data []byte) (*Treasury, error) {
	var out Treasury
	if err := decodeAccount(AccountTreasury, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseTreasuryLock(data []byte) (*TreasuryLock, error) {
	var out TreasuryLock
	if err := decodeAccount(AccountTreasuryLock, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseVault(data []byte) (*Vault, error) {
	var out Vault
	if err := decodeAccount(AccountTorchVault, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseWalletLink(data []byte) (*WalletLink, error) {
	var out WalletLink
	if err := decodeAccount(AccountVaultWalletLink, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseLoanPosition(data []byte) (*LoanPosition, error) {
	var out LoanPosition
	if err := decodeAccount(AccountLoanPosition, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseStarRecord(data []byte) (*StarRecord, error) {
	var out StarRecord
	if err := decodeAccount(AccountStarRecord, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseUserStats(data []byte) (*UserStats, error) {
	var out UserStats
	if err := decodeAccount(AccountUserStats, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
