// =============================
// File: internal/dex/market/intents_vault.go
// =============================
package market

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc/computebudget"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
	"github.com/rovshanmuradov/launchpad-sdk/internal/types"
)

// CreateVault создаёт vault создателя и привязывает к нему его кошелёк.
func (m *Market) CreateVault(ctx context.Context, p CreateVaultParams) (*Result, error) {
	const op = "create_vault"

	creator, err := parseKey(op, "creator", p.Creator)
	if err != nil {
		return nil, err
	}

	vault := m.deriver.Vault(creator)
	if _, err := m.reader.Vault(ctx, op, creator); err == nil {
		return nil, precondition(op, "vault %s already exists for %s", vault, creator)
	} else if !isNotFound(err) {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		signer(creator),
		writable(vault),
		writable(m.deriver.WalletLink(creator)),
		readonly(solana.SystemProgramID),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxCreateVault, accounts)
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, creator, &pl, fmt.Sprintf("create vault %s", vault))
}

// DepositVault пополняет vault. Вносить может любой кошелёк.
func (m *Market) DepositVault(ctx context.Context, p DepositVaultParams) (*Result, error) {
	const op = "deposit_vault"

	depositor, err := parseKey(op, "depositor", p.Depositor)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(op, "amount", p.Lamports); err != nil {
		return nil, err
	}
	if _, err := m.reader.Vault(ctx, op, creator); err != nil {
		return nil, err
	}

	vault := m.deriver.Vault(creator)
	accounts := []*solana.AccountMeta{
		signer(depositor),
		writable(vault),
		readonly(solana.SystemProgramID),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxDepositVault, accounts, u64Arg(p.Lamports))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, depositor, &pl, fmt.Sprintf("deposit %s into vault %s", formatSol(p.Lamports), vault))
}

// WithdrawVault выводит SOL из vault. Право authority проверяет программа.
func (m *Market) WithdrawVault(ctx context.Context, p WithdrawVaultParams) (*Result, error) {
	const op = "withdraw_vault"

	authority, err := parseKey(op, "authority", p.Authority)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(op, "amount", p.Lamports); err != nil {
		return nil, err
	}

	state, err := m.reader.Vault(ctx, op, creator)
	if err != nil {
		return nil, err
	}
	if p.Lamports > state.SolBalance {
		return nil, precondition(op, "insufficient vault balance: requested %s, available %s",
			formatSol(p.Lamports), formatSol(state.SolBalance))
	}

	vault := m.deriver.Vault(creator)
	accounts := []*solana.AccountMeta{
		signer(authority),
		writable(vault),
		readonly(solana.SystemProgramID),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxWithdrawVault, accounts, u64Arg(p.Lamports))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, authority, &pl, fmt.Sprintf("withdraw %s from vault %s", formatSol(p.Lamports), vault))
}

func (m *Market) linkAccounts(authority, vault, wallet solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		signer(authority),
		writable(vault),
		readonly(wallet),
		writable(m.deriver.WalletLink(wallet)),
		readonly(solana.SystemProgramID),
	}
}

// LinkWallet разрешает кошельку действовать от имени vault.
func (m *Market) LinkWallet(ctx context.Context, p LinkWalletParams) (*Result, error) {
	const op = "link_wallet"

	authority, err := parseKey(op, "authority", p.Authority)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	wallet, err := parseKey(op, "wallet", p.Wallet)
	if err != nil {
		return nil, err
	}

	if _, err := m.reader.Vault(ctx, op, creator); err != nil {
		return nil, err
	}
	link, err := m.reader.WalletLink(ctx, op, wallet)
	if err != nil {
		return nil, err
	}
	if link != nil {
		return nil, precondition(op, "wallet %s is already linked to vault %s", wallet, link.Vault)
	}

	vault := m.deriver.Vault(creator)
	ix, err := buildInstruction(m.cfg.ProgramID, IxLinkWallet, m.linkAccounts(authority, vault, wallet))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, authority, &pl, fmt.Sprintf("link wallet %s to vault %s", wallet, vault))
}

// UnlinkWallet отзывает привязку кошелька.
func (m *Market) UnlinkWallet(ctx context.Context, p UnlinkWalletParams) (*Result, error) {
	const op = "unlink_wallet"

	authority, err := parseKey(op, "authority", p.Authority)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	wallet, err := parseKey(op, "wallet", p.Wallet)
	if err != nil {
		return nil, err
	}

	vault := m.deriver.Vault(creator)
	link, err := m.reader.WalletLink(ctx, op, wallet)
	if err != nil {
		return nil, err
	}
	if link == nil || !link.Vault.Equals(vault) {
		return nil, precondition(op, "wallet %s is not linked to vault %s", wallet, vault)
	}

	ix, err := buildInstruction(m.cfg.ProgramID, IxUnlinkWallet, m.linkAccounts(authority, vault, wallet))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, authority, &pl, fmt.Sprintf("unlink wallet %s from vault %s", wallet, vault))
}

// TransferVaultAuthority передаёт управление vault новому authority.
func (m *Market) TransferVaultAuthority(ctx context.Context, p TransferVaultAuthorityParams) (*Result, error) {
	const op = "transfer_authority"

	authority, err := parseKey(op, "authority", p.Authority)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	newAuthority, err := parseKey(op, "new authority", p.NewAuthority)
	if err != nil {
		return nil, err
	}

	state, err := m.reader.Vault(ctx, op, creator)
	if err != nil {
		return nil, err
	}
	if state.Authority.Equals(newAuthority) {
		return nil, precondition(op, "%s is already the vault authority", newAuthority)
	}

	vault := m.deriver.Vault(creator)
	accounts := []*solana.AccountMeta{
		signer(authority),
		writable(vault),
		readonly(newAuthority),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxTransferAuthority, accounts)
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, authority, &pl, fmt.Sprintf("transfer vault %s authority to %s", vault, newAuthority))
}

// WithdrawVaultToken выводит произвольный токен из vault на ATA получателя.
func (m *Market) WithdrawVaultToken(ctx context.Context, p WithdrawVaultTokenParams) (*Result, error) {
	const op = "withdraw_tokens"

	authority, err := parseKey(op, "authority", p.Authority)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	destination, err := parseKey(op, "destination", p.Destination)
	if err != nil {
		return nil, err
	}
	tokenProgram := Token2022ProgramID
	if p.TokenProgram != "" {
		if tokenProgram, err = parseKey(op, "token program", p.TokenProgram); err != nil {
			return nil, err
		}
		if !tokenProgram.Equals(Token2022ProgramID) && !tokenProgram.Equals(TokenProgramID) {
			return nil, invalidInput(op, "unsupported token program %s", tokenProgram)
		}
	}
	if err := requirePositive(op, "amount", p.Amount); err != nil {
		return nil, err
	}

	if _, err := m.reader.Vault(ctx, op, creator); err != nil {
		return nil, err
	}

	vault := m.deriver.Vault(creator)
	destinationATA := AssociatedTokenAddress(destination, mint, tokenProgram)
	accounts := []*solana.AccountMeta{
		signer(authority),
		readonly(vault),
		readonly(mint),
		writable(AssociatedTokenAddress(vault, mint, tokenProgram)),
		writable(destinationATA),
		readonly(tokenProgram),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxWithdrawTokens, accounts, u64Arg(p.Amount))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		creates: []solana.Instruction{createATAIdempotent(authority, destination, mint, tokenProgram)},
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, authority, &pl,
		fmt.Sprintf("withdraw %d of %s from vault %s to %s", p.Amount, mint, vault, destination))
}

// VaultSwap проводит сделку через CPMM пул за счёт vault. Покупка сначала
// отдельной инструкцией переводит SOL vault в его WSOL аккаунт.
func (m *Market) VaultSwap(ctx context.Context, p VaultSwapParams) (*Result, error) {
	const op = "vault_swap"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	wallet, err := parseKey(op, "signer", p.Signer)
	if err != nil {
		return nil, err
	}
	creator, err := parseKey(op, "vault creator", p.VaultCreator)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(p.SlippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}
	if err := requirePositive(op, "amount", p.AmountIn); err != nil {
		return nil, err
	}
	message, err := validateMessage(op, p.Message)
	if err != nil {
		return nil, err
	}

	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if err := requireMigrated(op, mint, curve); err != nil {
		return nil, err
	}
	mode, err := m.resolveFunding(ctx, op, wallet, &creator, &mint)
	if err != nil {
		return nil, err
	}
	funding := mode.(ViaVault)

	reserves, err := m.reader.PoolReserves(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := reserves.Quote, reserves.Base
	if p.Buy {
		reserveIn, reserveOut = reserves.Base, reserves.Quote
	}
	expected, err := cpmm.QuoteSwap(reserveIn, reserveOut, p.AmountIn, m.cfg.CPMM.TradeFeeRate)
	if err != nil {
		return nil, precondition(op, "cannot quote pool swap: %v", err)
	}
	minOut, err := types.MinAmountOut(expected, slippage)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}
	if minOut == 0 {
		return nil, invalidInput(op, "amount %d is too small to swap", p.AmountIn)
	}

	d := m.deriver
	pool := d.Pool(mint)
	poolSolVault, _ := pool.VaultFor(WSOLMint)
	poolTokenVault, _ := pool.VaultFor(mint)
	vaultWSOL := d.VaultWSOLAccount(funding.Vault)

	accounts := []*solana.AccountMeta{
		signer(wallet),
		writable(funding.Vault),
		readonly(funding.WalletLink),
		readonly(mint),
		readonly(d.BondingCurve(mint)),
		writable(funding.VaultTokenAccount),
		writable(vaultWSOL),
		readonly(m.cfg.CPMM.ProgramID),
		readonly(pool.Authority),
		readonly(m.cfg.CPMM.AmmConfig),
		writable(pool.PoolState),
		writable(poolSolVault),
		writable(poolTokenVault),
		writable(pool.Observation),
		readonly(WSOLMint),
		readonly(TokenProgramID),
		readonly(Token2022ProgramID),
		readonly(solana.SystemProgramID),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxVaultSwap, accounts,
		u64Arg(p.AmountIn), u64Arg(minOut), boolArg(p.Buy))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget: computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: []solana.Instruction{
			createATAIdempotent(wallet, funding.Vault, mint, Token2022ProgramID),
			createATAIdempotent(wallet, funding.Vault, WSOLMint, TokenProgramID),
		},
		primary: []solana.Instruction{ix},
	}
	if p.Buy {
		wrap, err := m.wrapSolInstruction(wallet, mint, funding.Vault, vaultWSOL, &funding.WalletLink, wrapSourceVault, p.AmountIn)
		if err != nil {
			return nil, compositionFailed(op, "failed to build wrap instruction", err)
		}
		pl.funding = []solana.Instruction{wrap}
	}
	if message != "" {
		pl.memo = []solana.Instruction{memoInstruction(wallet, message)}
	}

	m.logger.Debug("Vault swap quote",
		zap.Bool("buy", p.Buy),
		zap.Uint64("amount_in", p.AmountIn),
		zap.Uint64("expected_out", expected),
		zap.Uint64("min_out", minOut))

	summary := fmt.Sprintf("vault swap: sell %s tokens of %s for min %s via vault %s",
		formatTokens(p.AmountIn), mint, formatSol(minOut), funding.Vault)
	if p.Buy {
		summary = fmt.Sprintf("vault swap: buy %s of %s for min %s tokens via vault %s",
			formatSol(p.AmountIn), mint, formatTokens(minOut), funding.Vault)
	}
	return m.single(ctx, op, wallet, &pl, summary)
}

// single собирает одну транзакцию плана.
func (m *Market) single(ctx context.Context, op string, payer solana.PublicKey, pl *plan, summary string) (*Result, error) {
	tx, err := m.compose(ctx, op, payer, pl.instructions(), summary)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: tx}, nil
}
