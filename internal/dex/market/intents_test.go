package market

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
)

func TestSlippageOutOfRangeMakesNoNetworkCalls(t *testing.T) {
	mint, user := newKey().String(), newKey().String()

	calls := map[string]func(m *Market, bps *uint16) error{
		"buy": func(m *Market, bps *uint16) error {
			_, err := m.Buy(context.Background(), BuyParams{Mint: mint, Buyer: user, AmountLamports: 1_000_000_000, SlippageBps: bps})
			return err
		},
		"sell": func(m *Market, bps *uint16) error {
			_, err := m.Sell(context.Background(), SellParams{Mint: mint, Seller: user, TokenAmount: 1_000_000, SlippageBps: bps})
			return err
		},
		"quote buy": func(m *Market, bps *uint16) error {
			_, err := m.QuoteBuy(context.Background(), mint, 1_000_000_000, bps)
			return err
		},
		"quote sell": func(m *Market, bps *uint16) error {
			_, err := m.QuoteSell(context.Background(), mint, 1_000_000, bps)
			return err
		},
		"vault swap": func(m *Market, bps *uint16) error {
			_, err := m.VaultSwap(context.Background(), VaultSwapParams{Mint: mint, Signer: user, VaultCreator: user, AmountIn: 1, Buy: true, SlippageBps: bps})
			return err
		},
		"auto buyback": func(m *Market, bps *uint16) error {
			_, err := m.AutoBuyback(context.Background(), AutoBuybackParams{Mint: mint, Payer: user, SlippageBps: bps})
			return err
		},
		"swap fees": func(m *Market, bps *uint16) error {
			_, err := m.SwapFeesToSol(context.Background(), SwapFeesToSolParams{Mint: mint, Payer: user, SlippageBps: bps})
			return err
		},
	}

	for name, call := range calls {
		for _, bps := range []uint16{0, 9, 1001, 5000} {
			m, chain := newTestMarket(t)
			err := call(m, u16(bps))
			assert.ErrorIs(t, err, ErrInvalidInput, "%s with %d bps", name, bps)
			assert.Empty(t, chain.Calls, "%s with %d bps", name, bps)
		}
	}
}

func TestBuyTriggersMigration(t *testing.T) {
	const amount = 1_000_000_000

	t.Run("crosses target", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, buyer := newKey(), newKey()

		curve := testCurve(mint, newKey())
		curve.RealSol = curve.FundingTarget - 1
		expectMarketState(t, m, chain, testGlobal(), curve)
		expectBlockhash(chain)

		res, err := m.Buy(context.Background(), BuyParams{Mint: mint.String(), Buyer: buyer.String(), AmountLamports: amount})
		require.NoError(t, err)
		require.NotNil(t, res.Secondary)
		assert.True(t, res.BuyQuote.CompletesCurve)
		assert.Len(t, res.Transactions(), 2)
		chain.AssertNumberOfCalls(t, "GetLatestBlockhash", 2)

		tx := res.Secondary.Tx
		wrap := programInstruction(t, tx, ProgramID, IxWrapSol)
		assert.Equal(t, wrapSourceCurve, wrap.Data[8])
		assert.Equal(t, curve.RealSol+res.BuyQuote.SolToCurve, leUint64(wrap.Data[9:17]))
		assert.Less(t, instructionIndex(t, tx, IxWrapSol), instructionIndex(t, tx, IxMigrateToDex))

		migrate := programInstruction(t, tx, ProgramID, IxMigrateToDex)
		assert.Len(t, migrate.Accounts, 26)
		assert.Equal(t, m.deriver.CurveWSOLAccount(mint), accountAt(t, tx, migrate, 7))
	})

	t.Run("migration compose failure keeps migrate label", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, buyer := newKey(), newKey()
		boom := errors.New("blockhash expired")

		curve := testCurve(mint, newKey())
		curve.RealSol = curve.FundingTarget - 1
		expectMarketState(t, m, chain, testGlobal(), curve)
		chain.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, uint64(1_000), nil).Once()
		chain.On("GetLatestBlockhash", mock.Anything).Return(solana.Hash{}, uint64(0), boom).Once()

		_, err := m.Buy(context.Background(), BuyParams{Mint: mint.String(), Buyer: buyer.String(), AmountLamports: amount})
		require.ErrorIs(t, err, ErrCompositionFailed)
		var merr *Error
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "migrate", merr.Op)
	})

	t.Run("stays below target", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, buyer := newKey(), newKey()

		expectMarketState(t, m, chain, testGlobal(), testCurve(mint, newKey()))
		expectBlockhash(chain)

		res, err := m.Buy(context.Background(), BuyParams{Mint: mint.String(), Buyer: buyer.String(), AmountLamports: amount})
		require.NoError(t, err)
		assert.Nil(t, res.Secondary)
		assert.Len(t, res.Transactions(), 1)
		chain.AssertNumberOfCalls(t, "GetLatestBlockhash", 1)
	})
}

func TestBuyFundingAccounts(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, buyer := newKey(), newKey()
		expectMarketState(t, m, chain, testGlobal(), testCurve(mint, newKey()))
		expectBlockhash(chain)

		vote := true
		res, err := m.Buy(context.Background(), BuyParams{
			Mint: mint.String(), Buyer: buyer.String(), AmountLamports: 2_000_000_000, Vote: &vote, Message: "first!",
		})
		require.NoError(t, err)

		tx := res.Primary.Tx
		assert.Equal(t, []solana.PublicKey{
			computeBudgetProgramID,
			AssociatedTokenProgramID,
			ProgramID,
			MemoProgramID,
		}, programSequence(t, tx))

		ix := programInstruction(t, tx, ProgramID, IxBuy)
		require.Len(t, ix.Accounts, 19)
		for i := 11; i <= 13; i++ {
			assert.Equal(t, ProgramID, accountAt(t, tx, ix, i), "slot %d", i)
		}
		assert.Equal(t, AssociatedTokenAddress(buyer, mint, Token2022ProgramID), accountAt(t, tx, ix, 8))

		// sol_amount, min_tokens_out, Some(true)
		assert.Equal(t, uint64(2_000_000_000), leUint64(ix.Data[8:16]))
		assert.Equal(t, res.BuyQuote.MinAmountOut, leUint64(ix.Data[16:24]))
		assert.Equal(t, []byte{1, 1}, ix.Data[24:26])

		assert.Equal(t, []solana.PublicKey{buyer}, res.Primary.Signers)
	})

	t.Run("via vault without linked wallets", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, buyer, creator := newKey(), newKey(), newKey()
		expectMarketState(t, m, chain, testGlobal(), testCurve(mint, newKey()))
		expectAccount(t, chain, m.deriver.Vault(creator), AccountTorchVault, &Vault{
			Creator: creator, Authority: creator, SolBalance: 5_000_000_000,
		})
		expectBlockhash(chain)

		res, err := m.Buy(context.Background(), BuyParams{
			Mint: mint.String(), Buyer: buyer.String(), AmountLamports: 1_000_000_000, VaultCreator: creator.String(),
		})
		require.NoError(t, err)

		tx := res.Primary.Tx
		vault := m.deriver.Vault(creator)
		ix := programInstruction(t, tx, ProgramID, IxBuy)
		require.Len(t, ix.Accounts, 19)
		assert.Equal(t, vault, accountAt(t, tx, ix, 11))
		assert.Equal(t, m.deriver.WalletLink(buyer), accountAt(t, tx, ix, 12))
		assert.Equal(t, m.deriver.VaultTokenAccount(vault, mint), accountAt(t, tx, ix, 13))
		assert.Equal(t, AssociatedTokenAddress(vault, mint, Token2022ProgramID), m.deriver.VaultTokenAccount(vault, mint))

		assert.Equal(t, []solana.PublicKey{
			computeBudgetProgramID,
			AssociatedTokenProgramID,
			AssociatedTokenProgramID,
			ProgramID,
		}, programSequence(t, tx))
		assert.Contains(t, res.Primary.Summary, vault.String())

		// привязку проверяет программа, локально она не читается
		chain.AssertNotCalled(t, "GetAccountData", mock.Anything, m.deriver.WalletLink(buyer))
	})

	t.Run("missing vault", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, buyer, creator := newKey(), newKey(), newKey()
		expectMarketState(t, m, chain, testGlobal(), testCurve(mint, newKey()))
		expectMissing(chain, m.deriver.Vault(creator))

		_, err := m.Buy(context.Background(), BuyParams{
			Mint: mint.String(), Buyer: buyer.String(), AmountLamports: 1_000_000_000, VaultCreator: creator.String(),
		})
		assert.ErrorIs(t, err, ErrNotFound)
		chain.AssertNotCalled(t, "GetLatestBlockhash", mock.Anything)
	})
}

func TestBuyRejectsBeforeNetwork(t *testing.T) {
	m, chain := newTestMarket(t)
	mint, buyer := newKey().String(), newKey().String()

	_, err := m.Buy(context.Background(), BuyParams{Mint: mint, Buyer: buyer, AmountLamports: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.Buy(context.Background(), BuyParams{Mint: "not-a-key", Buyer: buyer, AmountLamports: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	long := make([]byte, MaxMessageLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = m.Buy(context.Background(), BuyParams{Mint: mint, Buyer: buyer, AmountLamports: 1, Message: string(long)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, chain.Calls)
}

func TestBuyCompleteCurve(t *testing.T) {
	m, chain := newTestMarket(t)
	mint := newKey()
	expectMarketState(t, m, chain, testGlobal(), migratedCurve(mint, newKey()))

	_, err := m.Buy(context.Background(), BuyParams{Mint: mint.String(), Buyer: newKey().String(), AmountLamports: 1_000_000_000})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestSell(t *testing.T) {
	m, chain := newTestMarket(t)
	mint, seller := newKey(), newKey()
	expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, testCurve(mint, newKey()))
	expectBlockhash(chain)

	res, err := m.Sell(context.Background(), SellParams{Mint: mint.String(), Seller: seller.String(), TokenAmount: 10_000_000_000_000})
	require.NoError(t, err)
	require.NotNil(t, res.SellQuote)

	ix := programInstruction(t, res.Primary.Tx, ProgramID, IxSell)
	assert.Len(t, ix.Accounts, 19)
	assert.Equal(t, res.SellQuote.MinAmountOut, leUint64(ix.Data[16:24]))
}

func TestCreateToken(t *testing.T) {
	m, chain := newTestMarket(t)
	expectBlockhash(chain)
	creator := newKey()

	res, err := m.CreateToken(context.Background(), CreateTokenParams{
		Creator: creator.String(),
		Name:    "Moon Cat",
		Symbol:  "MCAT",
		URI:     "https://example.com/mcat.json",
	})
	require.NoError(t, err)
	require.False(t, res.Mint.IsZero())

	tx := res.Primary.Tx
	ix := programInstruction(t, tx, ProgramID, IxCreateToken)
	assert.Len(t, ix.Accounts, 13)
	assert.Equal(t, res.Mint, accountAt(t, tx, ix, 2))
	assert.Equal(t, m.deriver.BondingCurve(res.Mint), accountAt(t, tx, ix, 3))

	// минт уже подписан, создатель подписывает сам
	assert.Equal(t, []solana.PublicKey{creator}, res.Primary.Signers)
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, solana.Signature{}, tx.Signatures[0])
	assert.NotEqual(t, solana.Signature{}, tx.Signatures[1])

	_, err = m.CreateToken(context.Background(), CreateTokenParams{Creator: creator.String(), Name: "x", Symbol: "", URI: "u"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name   string
		curve  func(mint solana.PublicKey) *BondingCurve
		target error
	}{
		{"not complete", func(mint solana.PublicKey) *BondingCurve { return testCurve(mint, newKey()) }, ErrPreconditionFailed},
		{"already migrated", func(mint solana.PublicKey) *BondingCurve { return migratedCurve(mint, newKey()) }, ErrPreconditionFailed},
		{"complete", func(mint solana.PublicKey) *BondingCurve {
			c := testCurve(mint, newKey())
			c.RealSol = c.FundingTarget
			c.Complete = true
			return c
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, chain := newTestMarket(t)
			mint := newKey()
			expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, tt.curve(mint))
			expectBlockhash(chain)

			res, err := m.Migrate(context.Background(), MigrateParams{Mint: mint.String(), Payer: newKey().String()})
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
				return
			}
			require.NoError(t, err)
			wrap := programInstruction(t, res.Primary.Tx, ProgramID, IxWrapSol)
			assert.Equal(t, uint64(200_000_000_000), leUint64(wrap.Data[9:17]))
		})
	}
}

func TestVaultSwapBuy(t *testing.T) {
	m, chain := newTestMarket(t)
	mint, wallet, creator := newKey(), newKey(), newKey()

	expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, migratedCurve(mint, newKey()))
	expectAccount(t, chain, m.deriver.Vault(creator), AccountTorchVault, &Vault{Creator: creator, Authority: creator, LinkedWallets: 1})
	pool := m.deriver.Pool(mint)
	solVault, _ := pool.VaultFor(WSOLMint)
	tokenVault, _ := pool.VaultFor(mint)
	chain.On("GetTokenAccountAmount", mock.Anything, solVault).Return(uint64(85_000_000_000), nil)
	chain.On("GetTokenAccountAmount", mock.Anything, tokenVault).Return(uint64(200_000_000_000_000), nil)
	expectBlockhash(chain)

	res, err := m.VaultSwap(context.Background(), VaultSwapParams{
		Mint: mint.String(), Signer: wallet.String(), VaultCreator: creator.String(), AmountIn: 1_000_000_000, Buy: true,
	})
	require.NoError(t, err)

	tx := res.Primary.Tx
	assert.Less(t, instructionIndex(t, tx, IxWrapSol), instructionIndex(t, tx, IxVaultSwap))

	wrap := programInstruction(t, tx, ProgramID, IxWrapSol)
	vault := m.deriver.Vault(creator)
	assert.Equal(t, wrapSourceVault, wrap.Data[8])
	assert.Equal(t, vault, accountAt(t, tx, wrap, 2))
	assert.Equal(t, m.deriver.WalletLink(wallet), accountAt(t, tx, wrap, 4))

	swap := programInstruction(t, tx, ProgramID, IxVaultSwap)
	assert.Len(t, swap.Accounts, 18)
	assert.Equal(t, byte(1), swap.Data[24])
	assert.NotZero(t, leUint64(swap.Data[16:24]))
}

func TestVaultSwapRequiresMigration(t *testing.T) {
	m, chain := newTestMarket(t)
	mint := newKey()
	expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, testCurve(mint, newKey()))

	_, err := m.VaultSwap(context.Background(), VaultSwapParams{
		Mint: mint.String(), Signer: newKey().String(), VaultCreator: newKey().String(), AmountIn: 1_000_000_000, Buy: true,
	})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestCreateVaultExisting(t *testing.T) {
	m, chain := newTestMarket(t)
	creator := newKey()
	expectAccount(t, chain, m.deriver.Vault(creator), AccountTorchVault, &Vault{Creator: creator, Authority: creator})

	_, err := m.CreateVault(context.Background(), CreateVaultParams{Creator: creator.String()})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestLending(t *testing.T) {
	ctx := context.Background()

	t.Run("borrow before migration", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint := newKey()
		expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, testCurve(mint, newKey()))

		_, err := m.Borrow(ctx, BorrowParams{Mint: mint.String(), Borrower: newKey().String(), CollateralAmount: 1, SolToBorrow: 1})
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("borrow", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, borrower := newKey(), newKey()
		expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, migratedCurve(mint, newKey()))
		expectBlockhash(chain)

		res, err := m.Borrow(ctx, BorrowParams{
			Mint: mint.String(), Borrower: borrower.String(), CollateralAmount: 50_000_000_000, SolToBorrow: 1_000_000_000,
		})
		require.NoError(t, err)

		tx := res.Primary.Tx
		ix := programInstruction(t, tx, ProgramID, IxBorrow)
		assert.Len(t, ix.Accounts, 16)
		assert.Equal(t, m.deriver.LoanPosition(mint, borrower), accountAt(t, tx, ix, 7))
		assert.Equal(t, uint64(50_000_000_000), leUint64(ix.Data[8:16]))
		assert.Equal(t, uint64(1_000_000_000), leUint64(ix.Data[16:24]))
	})

	t.Run("repay without loan", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, borrower := newKey(), newKey()
		expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, migratedCurve(mint, newKey()))
		expectMissing(chain, m.deriver.LoanPosition(mint, borrower))

		_, err := m.Repay(ctx, RepayParams{Mint: mint.String(), Borrower: borrower.String(), Lamports: 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("liquidate", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint, borrower, liquidator := newKey(), newKey(), newKey()
		expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, migratedCurve(mint, newKey()))
		expectAccount(t, chain, m.deriver.LoanPosition(mint, borrower), AccountLoanPosition, &LoanPosition{
			Mint: mint, Borrower: borrower, Collateral: 10_000_000_000, Principal: 1_000_000_000,
		})
		expectBlockhash(chain)

		res, err := m.Liquidate(ctx, LiquidateParams{Mint: mint.String(), Liquidator: liquidator.String(), Borrower: borrower.String()})
		require.NoError(t, err)

		tx := res.Primary.Tx
		ix := programInstruction(t, tx, ProgramID, IxLiquidate)
		assert.Len(t, ix.Accounts, 18)
		assert.Equal(t, borrower, accountAt(t, tx, ix, 2))
		assert.Equal(t, []solana.PublicKey{liquidator}, res.Primary.Signers)
	})
}

func TestComputeLoanHealth(t *testing.T) {
	global := testGlobal()
	// 0.0004 лампорта за минимальную единицу токена
	reserves := cpmm.Reserves{Base: 80_000_000_000, Quote: 200_000_000_000_000}

	tests := []struct {
		name   string
		loan   *LoanPosition
		status HealthStatus
		ltv    uint64
	}{
		{"no loan", nil, HealthNone, 0},
		{"repaid", &LoanPosition{Collateral: 1}, HealthNone, 0},
		{"healthy", &LoanPosition{Collateral: 10_000_000_000_000, Principal: 1_000_000_000}, HealthHealthy, 2500},
		{"at risk", &LoanPosition{Collateral: 10_000_000_000_000, Principal: 2_000_000_000, AccruedInterest: 100_000_000}, HealthAtRisk, 5250},
		{"liquidatable", &LoanPosition{Collateral: 10_000_000_000_000, Principal: 3_000_000_000}, HealthLiquidatable, 7500},
		{"worthless collateral", &LoanPosition{Collateral: 1, Principal: 1}, HealthLiquidatable, ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ComputeLoanHealth(tt.loan, reserves, global)
			assert.Equal(t, tt.status, h.Status)
			assert.Equal(t, tt.ltv, h.LTVBps)
		})
	}
}

func TestTreasuryIntentsPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to claim", func(t *testing.T) {
		m, chain := newTestMarket(t)
		user := newKey()
		expectAccount(t, chain, m.deriver.UserStats(user), AccountUserStats, &UserStats{User: user, Volume: 10})

		_, err := m.ClaimProtocolRewards(ctx, ClaimProtocolRewardsParams{User: user.String()})
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("claim", func(t *testing.T) {
		m, chain := newTestMarket(t)
		user := newKey()
		expectAccount(t, chain, m.deriver.UserStats(user), AccountUserStats, &UserStats{User: user, RewardsClaimable: 42})
		expectBlockhash(chain)

		res, err := m.ClaimProtocolRewards(ctx, ClaimProtocolRewardsParams{User: user.String()})
		require.NoError(t, err)
		ix := programInstruction(t, res.Primary.Tx, ProgramID, IxClaimProtocolRewards)
		assert.Len(t, ix.Accounts, 6)
	})

	t.Run("no harvested fees", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint := newKey()
		expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, migratedCurve(mint, newKey()))
		chain.On("GetTokenAccountAmount", mock.Anything, m.deriver.TreasuryTokenAccount(mint)).Return(uint64(0), nil)

		_, err := m.SwapFeesToSol(ctx, SwapFeesToSolParams{Mint: mint.String(), Payer: newKey().String()})
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("swap fees", func(t *testing.T) {
		m, chain := newTestMarket(t)
		mint := newKey()
		expectAccount(t, chain, m.deriver.BondingCurve(mint), AccountBondingCurve, migratedCurve(mint, newKey()))
		chain.On("GetTokenAccountAmount", mock.Anything, m.deriver.TreasuryTokenAccount(mint)).Return(uint64(5_000_000_000_000), nil)
		pool := m.deriver.Pool(mint)
		solVault, _ := pool.VaultFor(WSOLMint)
		tokenVault, _ := pool.VaultFor(mint)
		chain.On("GetTokenAccountAmount", mock.Anything, solVault).Return(uint64(85_000_000_000), nil)
		chain.On("GetTokenAccountAmount", mock.Anything, tokenVault).Return(uint64(200_000_000_000_000), nil)
		expectBlockhash(chain)

		res, err := m.SwapFeesToSol(ctx, SwapFeesToSolParams{Mint: mint.String(), Payer: newKey().String()})
		require.NoError(t, err)
		ix := programInstruction(t, res.Primary.Tx, ProgramID, IxSwapFeesToSol)
		assert.Len(t, ix.Accounts, 18)
		assert.NotZero(t, leUint64(ix.Data[8:16]))
	})
}
