// =============================
// File: internal/dex/market/funding.go
// =============================
package market

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// FundingMode – источник средств операции.
// Direct: кошелёк вызывающего. ViaVault: кастодиальный vault и привязка кошелька.
type FundingMode interface {
	fundingMode()
}

// Direct – операция оплачивается и рассчитывается с кошелька вызывающего.
type Direct struct{}

// ViaVault – все три адреса задаются вместе.
type ViaVault struct {
	Vault             solana.PublicKey
	WalletLink        solana.PublicKey
	VaultTokenAccount solana.PublicKey
}

func (Direct) fundingMode()   {}
func (ViaVault) fundingMode() {}

// parseVaultCreator разбирает необязательный адрес создателя vault.
func parseVaultCreator(op, vaultCreator string) (*solana.PublicKey, error) {
	if vaultCreator == "" {
		return nil, nil
	}
	creator, err := parseKey(op, "vault creator", vaultCreator)
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// resolveFunding выбирает режим по наличию создателя vault.
// Vault должен существовать; привязку кошелька проверяет программа.
func (m *Market) resolveFunding(ctx context.Context, op string, wallet solana.PublicKey, creator *solana.PublicKey, mint *solana.PublicKey) (FundingMode, error) {
	if creator == nil {
		return Direct{}, nil
	}
	if _, err := m.reader.Vault(ctx, op, *creator); err != nil {
		return nil, err
	}

	vault := m.deriver.Vault(*creator)
	mode := ViaVault{
		Vault:      vault,
		WalletLink: m.deriver.WalletLink(wallet),
	}
	if mint != nil {
		mode.VaultTokenAccount = m.deriver.VaultTokenAccount(vault, *mint)
	}
	return mode, nil
}

// fundingAccounts возвращает слоты vault, link и (опционально) vault token account.
// В режиме Direct необязательные слоты заполняются ID программы.
func (m *Market) fundingAccounts(mode FundingMode, withTokenAccount bool) []*solana.AccountMeta {
	if f, ok := mode.(ViaVault); ok {
		metas := []*solana.AccountMeta{writable(f.Vault), readonly(f.WalletLink)}
		if withTokenAccount {
			metas = append(metas, writable(f.VaultTokenAccount))
		}
		return metas
	}

	n := 2
	if withTokenAccount {
		n = 3
	}
	metas := make([]*solana.AccountMeta, n)
	for i := range metas {
		metas[i] = readonly(m.cfg.ProgramID)
	}
	return metas
}

// fundingCreates – idempotent создание токенного аккаунта vault.
func fundingCreates(payer solana.PublicKey, mode FundingMode, mint solana.PublicKey) []solana.Instruction {
	if f, ok := mode.(ViaVault); ok {
		return []solana.Instruction{createATAIdempotent(payer, f.Vault, mint, Token2022ProgramID)}
	}
	return nil
}

func describeFunding(mode FundingMode) string {
	if f, ok := mode.(ViaVault); ok {
		return " via vault " + f.Vault.String()
	}
	return ""
}

// Источники lamports для wrap_sol
const (
	wrapSourceVault uint8 = iota
	wrapSourceCurve
	wrapSourceTreasury
)

// wrapSolInstruction переводит lamports PDA в его WSOL аккаунт и делает sync_native.
// Всегда отдельная инструкция строго перед инструкцией со свапом.
func (m *Market) wrapSolInstruction(payer, mint, source, sourceWSOL solana.PublicKey, link *solana.PublicKey, kind uint8, amount uint64) (solana.Instruction, error) {
	linkMeta := readonly(m.cfg.ProgramID)
	if link != nil {
		linkMeta = readonly(*link)
	}
	accounts := []*solana.AccountMeta{
		signer(payer),
		readonly(mint),
		writable(source),
		writable(sourceWSOL),
		linkMeta,
		readonly(WSOLMint),
		readonly(TokenProgramID),
		readonly(solana.SystemProgramID),
	}
	return buildInstruction(m.cfg.ProgramID, IxWrapSol, accounts, u8Arg(kind), u64Arg(amount))
}
