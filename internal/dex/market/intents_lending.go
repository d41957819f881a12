// =============================
// File: internal/dex/market/intents_lending.go
// =============================
package market

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc/computebudget"
)

// lendingPrelude читает кривую и требует завершённой миграции: цена залога берётся из пула.
func (m *Market) lendingPrelude(ctx context.Context, op string, mint solana.PublicKey) error {
	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return err
	}
	return requireMigrated(op, mint, curve)
}

func (m *Market) poolPriceAccounts(mint solana.PublicKey) []*solana.AccountMeta {
	pool := m.deriver.Pool(mint)
	solVault, _ := pool.VaultFor(WSOLMint)
	tokenVault, _ := pool.VaultFor(mint)
	return []*solana.AccountMeta{
		readonly(pool.PoolState),
		readonly(solVault),
		readonly(tokenVault),
	}
}

// Borrow вносит залог и занимает SOL из казны токена. LTV проверяет программа.
func (m *Market) Borrow(ctx context.Context, p BorrowParams) (*Result, error) {
	const op = "borrow"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	borrower, err := parseKey(op, "borrower", p.Borrower)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(op, "sol to borrow", p.SolToBorrow); err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	if err := m.lendingPrelude(ctx, op, mint); err != nil {
		return nil, err
	}
	mode, err := m.resolveFunding(ctx, op, borrower, creator, &mint)
	if err != nil {
		return nil, err
	}

	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(borrower),
		readonly(d.GlobalConfig()),
		readonly(mint),
		readonly(d.BondingCurve(mint)),
		writable(d.Treasury(mint)),
		writable(d.CollateralVault(mint)),
		writable(AssociatedTokenAddress(borrower, mint, Token2022ProgramID)),
		writable(d.LoanPosition(mint, borrower)),
	}
	accounts = append(accounts, m.poolPriceAccounts(mint)...)
	accounts = append(accounts, m.fundingAccounts(mode, true)...)
	accounts = append(accounts, readonly(Token2022ProgramID), readonly(solana.SystemProgramID))

	ix, err := buildInstruction(m.cfg.ProgramID, IxBorrow, accounts,
		u64Arg(p.CollateralAmount), u64Arg(p.SolToBorrow))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: append([]solana.Instruction{createATAIdempotent(borrower, borrower, mint, Token2022ProgramID)}, fundingCreates(borrower, mode, mint)...),
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, borrower, &pl, fmt.Sprintf("borrow %s against %s tokens of %s%s",
		formatSol(p.SolToBorrow), formatTokens(p.CollateralAmount), mint, describeFunding(mode)))
}

// Repay гасит долг; при полном погашении программа возвращает залог.
func (m *Market) Repay(ctx context.Context, p RepayParams) (*Result, error) {
	const op = "repay"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	borrower, err := parseKey(op, "borrower", p.Borrower)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(op, "amount", p.Lamports); err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	if err := m.lendingPrelude(ctx, op, mint); err != nil {
		return nil, err
	}
	loan, err := m.reader.LoanPosition(ctx, op, mint, borrower)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, notFound(op, fmt.Sprintf("no loan position for %s on %s", borrower, mint), nil)
	}
	mode, err := m.resolveFunding(ctx, op, borrower, creator, &mint)
	if err != nil {
		return nil, err
	}

	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(borrower),
		readonly(mint),
		writable(d.Treasury(mint)),
		writable(d.CollateralVault(mint)),
		writable(AssociatedTokenAddress(borrower, mint, Token2022ProgramID)),
		writable(d.LoanPosition(mint, borrower)),
	}
	accounts = append(accounts, m.fundingAccounts(mode, true)...)
	accounts = append(accounts, readonly(Token2022ProgramID), readonly(solana.SystemProgramID))

	ix, err := buildInstruction(m.cfg.ProgramID, IxRepay, accounts, u64Arg(p.Lamports))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		creates: append([]solana.Instruction{createATAIdempotent(borrower, borrower, mint, Token2022ProgramID)}, fundingCreates(borrower, mode, mint)...),
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, borrower, &pl, fmt.Sprintf("repay %s of %s debt %s on %s%s",
		formatSol(p.Lamports), borrower, formatSol(loan.Principal+loan.AccruedInterest), mint, describeFunding(mode)))
}

// Liquidate ликвидирует позицию. Вызов permissionless; превышение порога LTV
// проверяет программа в момент исполнения.
func (m *Market) Liquidate(ctx context.Context, p LiquidateParams) (*Result, error) {
	const op = "liquidate"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	liquidator, err := parseKey(op, "liquidator", p.Liquidator)
	if err != nil {
		return nil, err
	}
	borrower, err := parseKey(op, "borrower", p.Borrower)
	if err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	if err := m.lendingPrelude(ctx, op, mint); err != nil {
		return nil, err
	}
	loan, err := m.reader.LoanPosition(ctx, op, mint, borrower)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, notFound(op, fmt.Sprintf("no loan position for %s on %s", borrower, mint), nil)
	}
	mode, err := m.resolveFunding(ctx, op, liquidator, creator, &mint)
	if err != nil {
		return nil, err
	}

	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(liquidator),
		readonly(d.GlobalConfig()),
		readonly(borrower),
		readonly(mint),
		readonly(d.BondingCurve(mint)),
		writable(d.Treasury(mint)),
		writable(d.CollateralVault(mint)),
		writable(AssociatedTokenAddress(liquidator, mint, Token2022ProgramID)),
		writable(d.LoanPosition(mint, borrower)),
	}
	accounts = append(accounts, m.poolPriceAccounts(mint)...)
	accounts = append(accounts, m.fundingAccounts(mode, true)...)
	accounts = append(accounts,
		readonly(Token2022ProgramID),
		readonly(AssociatedTokenProgramID),
		readonly(solana.SystemProgramID),
	)

	ix, err := buildInstruction(m.cfg.ProgramID, IxLiquidate, accounts)
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: append([]solana.Instruction{createATAIdempotent(liquidator, liquidator, mint, Token2022ProgramID)}, fundingCreates(liquidator, mode, mint)...),
		primary: []solana.Instruction{ix},
	}
	return m.single(ctx, op, liquidator, &pl, fmt.Sprintf("liquidate %s on %s, collateral %s tokens%s",
		borrower, mint, formatTokens(loan.Collateral), describeFunding(mode)))
}
