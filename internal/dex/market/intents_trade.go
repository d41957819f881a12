// =============================
// File: internal/dex/market/intents_trade.go
// =============================
package market

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc/computebudget"
	"github.com/rovshanmuradov/launchpad-sdk/internal/types"
)

// QuoteBuy считает покупку по текущему состоянию кривой.
func (m *Market) QuoteBuy(ctx context.Context, mintAddr string, amountLamports uint64, slippageBps *uint16) (*BuyQuote, error) {
	const op = "quote_buy"

	mint, err := parseKey(op, "mint", mintAddr)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(slippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}
	if err := requirePositive(op, "amount", amountLamports); err != nil {
		return nil, err
	}

	global, curve, err := m.reader.MarketState(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	quote, err := QuoteBuy(NewBuyQuoteInput(global, curve, amountLamports, slippage))
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// QuoteSell считает продажу по текущему состоянию кривой.
func (m *Market) QuoteSell(ctx context.Context, mintAddr string, tokenAmount uint64, slippageBps *uint16) (*SellQuote, error) {
	const op = "quote_sell"

	mint, err := parseKey(op, "mint", mintAddr)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(slippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}
	if err := requirePositive(op, "token amount", tokenAmount); err != nil {
		return nil, err
	}

	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	quote, err := QuoteSell(SellQuoteInput{
		TokensIn:      tokenAmount,
		VirtualSol:    curve.VirtualSol,
		VirtualTokens: curve.VirtualTokens,
		Complete:      curve.Complete,
		SlippageBps:   slippage,
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateToken создаёт токен с новым минтом. Минт подписывает транзакцию сразу,
// подпись создателя добавляет вызывающий.
func (m *Market) CreateToken(ctx context.Context, p CreateTokenParams) (*Result, error) {
	const op = "create_token"

	creator, err := parseKey(op, "creator", p.Creator)
	if err != nil {
		return nil, err
	}
	if err := validateTokenMetadata(op, p.Name, p.Symbol, p.URI); err != nil {
		return nil, err
	}

	mintKey, attempts, err := generateVanity(m.newKey, m.cfg.VanitySuffix, m.cfg.VanityAttempts)
	if err != nil {
		return nil, compositionFailed(op, "failed to generate mint keypair", err)
	}
	mint := mintKey.PublicKey()
	m.logger.Debug("Mint keypair generated",
		zap.String("mint", mint.String()),
		zap.Int("attempts", attempts))

	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(creator),
		writable(d.GlobalConfig()),
		signer(mint),
		writable(d.BondingCurve(mint)),
		writable(d.CurveTokenAccount(mint)),
		writable(d.Treasury(mint)),
		writable(d.TreasuryTokenAccount(mint)),
		writable(d.TreasuryLock(mint)),
		writable(d.TreasuryLockTokenAccount(mint)),
		readonly(Token2022ProgramID),
		readonly(AssociatedTokenProgramID),
		readonly(solana.SystemProgramID),
		readonly(SysvarRentPubkey),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxCreateToken, accounts,
		strArg(p.Name), strArg(p.Symbol), strArg(p.URI))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		primary: []solana.Instruction{ix},
	}
	summary := fmt.Sprintf("create token %s (%s) mint %s", p.Name, p.Symbol, mint)
	tx, err := m.compose(ctx, op, creator, pl.instructions(), summary, mintKey)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: tx, Mint: mint}, nil
}

// tradeAccounts – общий список аккаунтов buy/sell; отличается только режимом финансирования.
func (m *Market) tradeAccounts(trader, mint solana.PublicKey, mode FundingMode) []*solana.AccountMeta {
	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(trader),
		writable(d.GlobalConfig()),
		writable(d.ProtocolTreasury()),
		writable(mint),
		writable(d.BondingCurve(mint)),
		writable(d.CurveTokenAccount(mint)),
		writable(d.Treasury(mint)),
		writable(d.TreasuryTokenAccount(mint)),
		writable(AssociatedTokenAddress(trader, mint, Token2022ProgramID)),
		writable(d.Position(mint, trader)),
		writable(d.UserStats(trader)),
	}
	accounts = append(accounts, m.fundingAccounts(mode, true)...)
	return append(accounts,
		readonly(Token2022ProgramID),
		readonly(AssociatedTokenProgramID),
		readonly(solana.SystemProgramID),
		readonly(d.EventAuthority()),
		readonly(m.cfg.ProgramID),
	)
}

// Buy покупает токен на кривой. Если покупка достигает цели финансирования,
// в Result.Secondary возвращается отдельная транзакция миграции.
func (m *Market) Buy(ctx context.Context, p BuyParams) (*Result, error) {
	const op = "buy"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	buyer, err := parseKey(op, "buyer", p.Buyer)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(p.SlippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}
	if err := requirePositive(op, "amount", p.AmountLamports); err != nil {
		return nil, err
	}
	message, err := validateMessage(op, p.Message)
	if err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	global, curve, err := m.reader.MarketState(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	input := NewBuyQuoteInput(global, curve, p.AmountLamports, slippage)
	quote, err := QuoteBuy(input)
	if err != nil {
		return nil, err
	}
	mode, err := m.resolveFunding(ctx, op, buyer, creator, &mint)
	if err != nil {
		return nil, err
	}

	ix, err := buildInstruction(m.cfg.ProgramID, IxBuy, m.tradeAccounts(buyer, mint, mode),
		u64Arg(p.AmountLamports), u64Arg(quote.MinAmountOut), optBoolArg(p.Vote))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: append([]solana.Instruction{createATAIdempotent(buyer, buyer, mint, Token2022ProgramID)}, fundingCreates(buyer, mode, mint)...),
		primary: []solana.Instruction{ix},
	}
	if message != "" {
		pl.memo = []solana.Instruction{memoInstruction(buyer, message)}
	}

	summary := fmt.Sprintf("buy %s of %s, min %s tokens, impact %d bps%s",
		formatSol(p.AmountLamports), mint, formatTokens(quote.MinAmountOut), quote.PriceImpactBps, describeFunding(mode))
	primary, err := m.compose(ctx, op, buyer, pl.instructions(), summary)
	if err != nil {
		return nil, err
	}
	res := &Result{Primary: primary, BuyQuote: &quote}

	if quote.CompletesCurve {
		m.logger.Info("Buy completes bonding curve, attaching migration",
			zap.String("mint", mint.String()),
			zap.Uint64("real_sol_after", curve.RealSol+quote.SolToCurve),
			zap.Uint64("funding_target", input.FundingTarget))

		migrate, err := m.migratePlan(buyer, mint, curve.RealSol+quote.SolToCurve)
		if err != nil {
			return nil, err
		}
		res.Secondary, err = m.compose(ctx, opMigrate, buyer, migrate.instructions(),
			fmt.Sprintf("migrate %s to CPMM", mint))
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Sell продаёт токены обратно в кривую.
func (m *Market) Sell(ctx context.Context, p SellParams) (*Result, error) {
	const op = "sell"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	seller, err := parseKey(op, "seller", p.Seller)
	if err != nil {
		return nil, err
	}
	slippage, err := types.ResolveSlippageBps(p.SlippageBps, m.cfg.DefaultSlippageBps)
	if err != nil {
		return nil, invalidInputErr(op, "slippage", err)
	}
	if err := requirePositive(op, "token amount", p.TokenAmount); err != nil {
		return nil, err
	}
	message, err := validateMessage(op, p.Message)
	if err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	quote, err := QuoteSell(SellQuoteInput{
		TokensIn:      p.TokenAmount,
		VirtualSol:    curve.VirtualSol,
		VirtualTokens: curve.VirtualTokens,
		Complete:      curve.Complete,
		SlippageBps:   slippage,
	})
	if err != nil {
		return nil, err
	}
	mode, err := m.resolveFunding(ctx, op, seller, creator, &mint)
	if err != nil {
		return nil, err
	}

	ix, err := buildInstruction(m.cfg.ProgramID, IxSell, m.tradeAccounts(seller, mint, mode),
		u64Arg(p.TokenAmount), u64Arg(quote.MinAmountOut))
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.StandardUnits)),
		creates: append([]solana.Instruction{createATAIdempotent(seller, seller, mint, Token2022ProgramID)}, fundingCreates(seller, mode, mint)...),
		primary: []solana.Instruction{ix},
	}
	if message != "" {
		pl.memo = []solana.Instruction{memoInstruction(seller, message)}
	}

	summary := fmt.Sprintf("sell %s tokens of %s, min %s%s",
		formatTokens(p.TokenAmount), mint, formatSol(quote.MinAmountOut), describeFunding(mode))
	tx, err := m.compose(ctx, op, seller, pl.instructions(), summary)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: tx, SellQuote: &quote}, nil
}

// Star отмечает токен. Создатель не может отметить свой токен, повторная отметка запрещена.
func (m *Market) Star(ctx context.Context, p StarParams) (*Result, error) {
	const op = "star"

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	user, err := parseKey(op, "user", p.User)
	if err != nil {
		return nil, err
	}
	creator, err := parseVaultCreator(op, p.VaultCreator)
	if err != nil {
		return nil, err
	}

	if _, err := m.checkStar(ctx, op, user, mint); err != nil {
		return nil, err
	}
	mode, err := m.resolveFunding(ctx, op, user, creator, nil)
	if err != nil {
		return nil, err
	}

	d := m.deriver
	accounts := []*solana.AccountMeta{
		signer(user),
		readonly(d.GlobalConfig()),
		readonly(mint),
		writable(d.BondingCurve(mint)),
		writable(d.Treasury(mint)),
		writable(d.StarRecord(user, mint)),
	}
	accounts = append(accounts, m.fundingAccounts(mode, false)...)
	accounts = append(accounts, readonly(solana.SystemProgramID))

	ix, err := buildInstruction(m.cfg.ProgramID, IxStarToken, accounts)
	if err != nil {
		return nil, compositionFailed(op, "failed to build instruction", err)
	}

	pl := plan{primary: []solana.Instruction{ix}}
	tx, err := m.compose(ctx, op, user, pl.instructions(),
		fmt.Sprintf("star %s%s", mint, describeFunding(mode)))
	if err != nil {
		return nil, err
	}
	return &Result{Primary: tx}, nil
}

// opMigrate – метка операции миграции, и самостоятельной, и приложенной к покупке.
const opMigrate = "migrate"

// migratePlan: WSOL аккаунт кривой → wrap_sol → migrate_to_dex.
func (m *Market) migratePlan(payer, mint solana.PublicKey, realSol uint64) (*plan, error) {
	d := m.deriver
	curve := d.BondingCurve(mint)
	curveWSOL := d.CurveWSOLAccount(mint)
	pool := d.Pool(mint)

	wrap, err := m.wrapSolInstruction(payer, mint, curve, curveWSOL, nil, wrapSourceCurve, realSol)
	if err != nil {
		return nil, compositionFailed(opMigrate, "failed to build wrap instruction", err)
	}

	accounts := []*solana.AccountMeta{
		signer(payer),
		readonly(d.GlobalConfig()),
		writable(mint),
		writable(curve),
		writable(d.CurveTokenAccount(mint)),
		writable(d.Treasury(mint)),
		writable(d.TreasuryTokenAccount(mint)),
		writable(curveWSOL),
		readonly(m.cfg.CPMM.ProgramID),
		readonly(m.cfg.CPMM.AmmConfig),
		readonly(pool.Authority),
		writable(pool.PoolState),
		readonly(pool.Token0Mint),
		readonly(pool.Token1Mint),
		writable(pool.LPMint),
		writable(pool.Token0Vault),
		writable(pool.Token1Vault),
		writable(d.PoolLPAccount(mint, pool)),
		writable(pool.Observation),
		writable(m.cfg.CPMM.FeeReceiver),
		readonly(WSOLMint),
		readonly(TokenProgramID),
		readonly(Token2022ProgramID),
		readonly(AssociatedTokenProgramID),
		readonly(solana.SystemProgramID),
		readonly(SysvarRentPubkey),
	}
	ix, err := buildInstruction(m.cfg.ProgramID, IxMigrateToDex, accounts)
	if err != nil {
		return nil, compositionFailed(opMigrate, "failed to build instruction", err)
	}

	return &plan{
		budget:  computebudget.BuildInstructions(m.cfg.budget(computebudget.MigrateUnits)),
		creates: []solana.Instruction{createATAIdempotent(payer, curve, WSOLMint, TokenProgramID)},
		funding: []solana.Instruction{wrap},
		primary: []solana.Instruction{ix},
	}, nil
}

// Migrate переносит ликвидность завершённой кривой в CPMM пул. Вызов permissionless.
func (m *Market) Migrate(ctx context.Context, p MigrateParams) (*Result, error) {
	const op = opMigrate

	mint, err := parseKey(op, "mint", p.Mint)
	if err != nil {
		return nil, err
	}
	payer, err := parseKey(op, "payer", p.Payer)
	if err != nil {
		return nil, err
	}

	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if curve.Migrated {
		return nil, precondition(op, "token %s already migrated", mint)
	}
	if !curve.Complete {
		return nil, precondition(op, "funding target not reached: %s of %s",
			formatSol(curve.RealSol), formatSol(curve.FundingTarget))
	}

	pl, err := m.migratePlan(payer, mint, curve.RealSol)
	if err != nil {
		return nil, err
	}
	tx, err := m.compose(ctx, op, payer, pl.instructions(), fmt.Sprintf("migrate %s to CPMM", mint))
	if err != nil {
		return nil, err
	}
	return &Result{Primary: tx}, nil
}
