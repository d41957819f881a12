// =============================
// File: internal/dex/market/addresses.go
// =============================
package market

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
)

// Сиды PDA программы рынка
const (
	seedGlobalConfig     = "global_config"
	seedBondingCurve     = "bonding_curve"
	seedTreasury         = "treasury"
	seedTreasuryLock     = "treasury_lock"
	seedUserPosition     = "user_position"
	seedUserStats        = "user_stats"
	seedProtocolTreasury = "protocol_treasury_v11"
	seedStarRecord       = "star_record"
	seedLoan             = "loan"
	seedCollateralVault  = "collateral_vault"
	seedTorchVault       = "torch_vault"
	seedVaultWallet      = "vault_wallet"
	seedEventAuthority   = "__event_authority"
)

// Deriver вычисляет все детерминированные адреса рынка. Сетевых запросов не делает.
//
// Вывод адреса из корректных ключей не может завершиться ошибкой: FindProgramAddress
// перебирает 255 bump-ов, и отсутствие подходящего bump для 32-байтовых сидов
// считается недостижимым.
type Deriver struct {
	ProgramID solana.PublicKey
	CPMM      cpmm.Config
}

// NewDeriver создаёт Deriver для указанной конфигурации.
func NewDeriver(cfg Config) Deriver {
	return Deriver{ProgramID: cfg.ProgramID, CPMM: cfg.CPMM}
}

func findPDA(programID solana.PublicKey, seeds ...[]byte) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		panic(fmt.Sprintf("unreachable: no viable bump for program %s: %v", programID, err))
	}
	return addr
}

func (d Deriver) pda(seeds ...[]byte) solana.PublicKey {
	return findPDA(d.ProgramID, seeds...)
}

// AssociatedTokenAddress вычисляет ATA владельца для минта и токен-программы.
func AssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) solana.PublicKey {
	return findPDA(AssociatedTokenProgramID, owner.Bytes(), tokenProgram.Bytes(), mint.Bytes())
}

func (d Deriver) GlobalConfig() solana.PublicKey {
	return d.pda([]byte(seedGlobalConfig))
}

func (d Deriver) BondingCurve(mint solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedBondingCurve), mint.Bytes())
}

// CurveTokenAccount – токенный аккаунт кривой (Token-2022 ATA).
func (d Deriver) CurveTokenAccount(mint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(d.BondingCurve(mint), mint, Token2022ProgramID)
}

// CurveWSOLAccount – WSOL аккаунт кривой, пополняемый перед миграцией.
func (d Deriver) CurveWSOLAccount(mint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(d.BondingCurve(mint), WSOLMint, TokenProgramID)
}

func (d Deriver) Treasury(mint solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedTreasury), mint.Bytes())
}

func (d Deriver) TreasuryTokenAccount(mint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(d.Treasury(mint), mint, Token2022ProgramID)
}

func (d Deriver) TreasuryWSOLAccount(mint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(d.Treasury(mint), WSOLMint, TokenProgramID)
}

func (d Deriver) TreasuryLock(mint solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedTreasuryLock), mint.Bytes())
}

func (d Deriver) TreasuryLockTokenAccount(mint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(d.TreasuryLock(mint), mint, Token2022ProgramID)
}

// Position – позиция пользователя на кривой: сиды (curve, user).
func (d Deriver) Position(mint, user solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedUserPosition), d.BondingCurve(mint).Bytes(), user.Bytes())
}

func (d Deriver) UserStats(user solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedUserStats), user.Bytes())
}

func (d Deriver) ProtocolTreasury() solana.PublicKey {
	return d.pda([]byte(seedProtocolTreasury))
}

func (d Deriver) StarRecord(user, mint solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedStarRecord), user.Bytes(), mint.Bytes())
}

func (d Deriver) LoanPosition(mint, borrower solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedLoan), mint.Bytes(), borrower.Bytes())
}

func (d Deriver) CollateralVault(mint solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedCollateralVault), mint.Bytes())
}

// Vault – кастодиальный vault создателя.
func (d Deriver) Vault(creator solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedTorchVault), creator.Bytes())
}

// WalletLink – запись привязки кошелька; у кошелька не больше одного vault.
func (d Deriver) WalletLink(wallet solana.PublicKey) solana.PublicKey {
	return d.pda([]byte(seedVaultWallet), wallet.Bytes())
}

func (d Deriver) VaultTokenAccount(vault, mint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(vault, mint, Token2022ProgramID)
}

func (d Deriver) VaultWSOLAccount(vault solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAddress(vault, WSOLMint, TokenProgramID)
}

func (d Deriver) EventAuthority() solana.PublicKey {
	return d.pda([]byte(seedEventAuthority))
}

// Pool вычисляет адреса CPMM пула токен/WSOL.
func (d Deriver) Pool(mint solana.PublicKey) cpmm.PoolAddresses {
	pool, err := cpmm.DerivePoolAddresses(d.CPMM, mint, WSOLMint)
	if err != nil {
		panic(fmt.Sprintf("unreachable: %v", err))
	}
	return pool
}

// PoolLPAccount – LP аккаунт кривой, получающий LP токены при миграции.
func (d Deriver) PoolLPAccount(mint solana.PublicKey, pool cpmm.PoolAddresses) solana.PublicKey {
	return AssociatedTokenAddress(d.BondingCurve(mint), pool.LPMint, TokenProgramID)
}
