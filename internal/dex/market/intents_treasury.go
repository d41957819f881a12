// =============================
// File: internal/dex/market/intents_treasury.go
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

// ClaimProtocolRewards забирает накопленные награды из протокольной казны.
func (m *Market) ClaimProtocolRewards(ctx context.Context, p ClaimProtocolRewardsParams) (*Result, error) {
	const op = "claim_protocol_rewards"

	user, err := parseKey(op, "user", p.User)
	if err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	stats, err := m.reader.UserStats(ctx, op, user)
	if err != nil {
		return nil, err
	}
	if stats.RewardsClaimable == 0 {
		return nil, precondition(op, "no protocol rewards to claim for %s", user)
	}
	mode, err := m.resolveFunding(ctx, op, user, creator, nil)
	if err != nil {
		return nil, err
	}

	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(user),
		writable(d.UserStats(user)),
		writable(d.ProtocolTreasury()),
	}
	accounts = append(accounts, m.fundingAccounts(mode, false)...)
	accounts = append(accounts, readonly(solana.SystemProgramID))

	ix, err := buildInstruction(m.cfg.ProgramID, IxClaimProtocolRewards, accounts)
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	return m.single(ctx, op, user, &pl, fmt.Sprintf("claim %s protocol rewards%s",
		formatSol(stats.RewardsClaimable), describeFunding(mode)))
}

// treasurySwapAccounts – общий хвост аккаунтов свапа казны через CPMM.
func (m *Market) treasurySwapAccounts(mint solana.PublicKey) []*solana.AccountMeta {
	pool := m.deriver.Pool(mint)
	solVault, _ := pool.VaultFor(WSOLMint)
	tokenVault, _ := pool.VaultFor(mint)
	return []*solana.AccountMeta{
		readonly(m.cfg.CPMM.ProgramID),
		readonly(pool.Authority),
		readonly(m.cfg.CPMM.AmmConfig),
		writable(pool.PoolState),
		writable(solVault),
		writable(tokenVault),
		writable(pool.Observation),
		readonly(WSOLMint),
		readonly(TokenProgramID),
		readonly(Token2022ProgramID),
	}
}

// AutoBuyback запускает permissionless байбэк из казны токена.
// Условия проверяются в фиксированном порядке, см. checkBuyback.
func (m *Market) AutoBuyback(ctx context.Context, p AutoBuybackParams) (*Result, error) {
	const op = "auto_buyback"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	payer, err := parseKey(op, "payer", p.Payer)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(p.SlippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}

	bp, err := m.checkBuyback(ctx, op, mint)
	if err != nil {
		return nil, err
	}

	expected, err := cpmm.QuoteSwap(bp.reserves.Base, bp.reserves.Quote, bp.amount, m.cfg.CPMM.TradeFeeRate)
	if err != nil {
		return nil, precondition(op, "cannot quote pool swap: %v", err)
	}
	minOut, err := types.MinAmountOut(expected, slippage)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}

	d := m.deriver
	treasury := d.Treasury(mint)
	treasuryWSOL := d.TreasuryWSOLAccount(mint)

	wrap, err := m.wrapSolInstruction(payer, mint, treasury, treasuryWSOL, nil, wrapSourceTreasury, bp.amount)
	if err != nil {
		return nil, compositionFailed(op, "failed to build wrap instruction", err)
	}

	accounts := []*solana.AccountMeta{
		signer(payer),
		readonly(d.GlobalConfig()),
		writable(mint),
		readonly(d.BondingCurve(mint)),
		writable(treasury),
		writable(d.TreasuryTokenAccount(mint)),
		writable(treasuryWSOL),
	}
	accounts = append(accounts, m.treasurySwapAccounts(mint)...)
	accounts = append(accounts, readonly(solana.SystemProgramID))

	ix, err := buildInstruction(m.cfg.ProgramID, IxExecuteAutoBuyback, accounts, u64Arg(minOut))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: []solana.Instruction{createATAIdempotent(payer, treasury, WSOLMint, TokenProgramID)},
		funding: []solana.Instruction{wrap},
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, payer, &pl, fmt.Sprintf("buyback %s of %s, min %s tokens",
		formatSol(bp.amount), mint, formatTokens(minOut)))
}

// HarvestFees собирает удержанные комиссии Token-2022 с аккаунтов-источников в казну.
// Бюджет вычислений растёт с числом источников.
func (m *Market) HarvestFees(ctx context.Context, p HarvestFeesParams) (*Result, error) {
	const op = "harvest_fees"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	payer, err := parseKey(op, "payer", p.Payer)
	if err != nil {
		return nil, err
	}
	if len(p.Sources) == 0 {
		return nil, invalidInput(op, "at least one source account is required")
	}
	sources := make([]solana.PublicKey, 0, len(p.Sources))
	seen := make(map[solana.PublicKey]struct{}, len(p.Sources))
	for _, s := range p.Sources {
		src, err := parseKey(op, "source", s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[src]; dup {
			return nil, invalidInput(op, "duplicate source %s", src)
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}

	if _, err := m.reader.BondingCurve(ctx, op, mint); err != nil {
		return nil, err
	}

	d := m.deriver
	treasury := d.Treasury(mint)
	accounts := []*solana.AccountMeta{
		signer(payer),
		writable(mint),
		readonly(treasury),
		writable(d.TreasuryTokenAccount(mint)),
		readonly(Token2022ProgramID),
	}
	for _, src := range sources {
		accounts = append(accounts, writable(src))
	}

	ix, err := buildInstruction(m.cfg.ProgramID, IxHarvestFees, accounts)
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	budget := computebudget.ForHarvest(len(sources), m.cfg.ComputeUnitPrice)
	m.logger.Debug("Harvest budget",
		zap.Int("sources", len(sources)),
		zap.Uint32("units", budget.Units))

	pl := plan{
		budget:  computebudget.BuildInstructions(budget),
		creates: []solana.Instruction{createATAIdempotent(payer, treasury, mint, Token2022ProgramID)},
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, payer, &pl, fmt.Sprintf("harvest transfer fees of %s from %d sources", mint, len(sources)))
}

// SwapFeesToSol продаёт собранные комиссии казны в CPMM пул за SOL.
func (m *Market) SwapFeesToSol(ctx context.Context, p SwapFeesToSolParams) (*Result, error) {
	const op = "swap_fees_to_sol"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	payer, err := parseKey(op, "payer", p.Payer)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(p.SlippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}

	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if err := requireMigrated(op, mint, curve); err != nil {
		return nil, err
	}

	d := m.deriver
	treasuryATA := d.TreasuryTokenAccount(mint)
	balance, err := m.reader.TokenBalance(ctx, op, treasuryATA)
	if err != nil {
		return nil, err
	}
	if balance == 0 {
		return nil, precondition(op, "treasury of %s holds no harvested fees", mint)
	}

	reserves, err := m.reader.PoolReserves(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	expected, err := cpmm.QuoteSwap(reserves.Quote, reserves.Base, balance, m.cfg.CPMM.TradeFeeRate)
	if err != nil {
		return nil, precondition(op, "cannot quote pool swap: %v", err)
	}
	minOut, err := types.MinAmountOut(expected, slippage)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}

	treasury := d.Treasury(mint)
	accounts := []*solana.AccountMeta{
		signer(payer),
		readonly(mint),
		readonly(d.BondingCurve(mint)),
		writable(treasury),
		writable(treasuryATA),
		writable(d.TreasuryWSOLAccount(mint)),
	}
	accounts = append(accounts, m.treasurySwapAccounts(mint)...)
	accounts = append(accounts, readonly(AssociatedTokenProgramID), readonly(solana.SystemProgramID))

	ix, err := buildInstruction(m.cfg.ProgramID, IxSwapFeesToSol, accounts, u64Arg(minOut))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: []solana.Instruction{createATAIdempotent(payer, treasury, WSOLMint, TokenProgramID)},
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, payer, &pl, fmt.Sprintf("swap %s fee tokens of %s for min %s",
		formatTokens(balance), mint, formatSol(minOut)))
}
