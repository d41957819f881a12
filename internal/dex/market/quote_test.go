package market

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioInput(amountIn uint64) BuyQuoteInput {
	curve := testCurve(newKey(), newKey())
	return NewBuyQuoteInput(testGlobal(), curve, amountIn, 100)
}

func TestQuoteBuyScenario(t *testing.T) {
	in := scenarioInput(1_000_000_000)

	q, err := QuoteBuy(in)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000), q.ProtocolFee)
	assert.Equal(t, uint64(198_000_000), q.TreasuryFee)
	assert.Equal(t, uint64(792_000_000), q.SolToCurve)
	assert.Equal(t, q.AmountIn, q.ProtocolFee+q.TreasuryFee+q.SolToCurve)

	// около 1/31 виртуального пула с поправкой на комиссии
	upper := in.VirtualTokens / 31
	lower := upper * 7 / 10
	assert.Greater(t, q.TokensOut, lower)
	assert.Less(t, q.TokensOut, upper)

	assert.Equal(t, q.TokensOut, q.TokensToUser+q.TokensToCommunity)
	assert.Equal(t, q.TokensOut/10, q.TokensToCommunity)
	assert.LessOrEqual(t, q.MinAmountOut, q.TokensToUser)
	assert.Greater(t, q.PriceAfter, q.PriceBefore)
	assert.NotZero(t, q.PriceImpactBps)
	assert.False(t, q.CompletesCurve)

	again, err := QuoteBuy(in)
	require.NoError(t, err)
	assert.Equal(t, q, again)
}

func TestQuoteRoundTripNotProfitable(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		in := scenarioInput(uint64(rnd.Int63n(150_000_000_000)) + 1_000)
		in.VirtualSol = uint64(rnd.Int63n(100_000_000_000)) + 1_000_000_000
		in.VirtualTokens = uint64(rnd.Int63n(1_000_000_000_000_000)) + 1_000_000_000

		buy, err := QuoteBuy(in)
		if err != nil {
			continue
		}
		sell, err := QuoteSell(SellQuoteInput{
			TokensIn:      buy.TokensToUser,
			VirtualSol:    in.VirtualSol + buy.SolToCurve,
			VirtualTokens: in.VirtualTokens - buy.TokensOut,
			SlippageBps:   100,
		})
		if err != nil {
			continue
		}
		require.LessOrEqual(t, sell.SolOut, buy.SolToCurve,
			"round trip profitable: in=%d vsol=%d vtok=%d", in.AmountIn, in.VirtualSol, in.VirtualTokens)
		require.Less(t, sell.SolOut, in.AmountIn)
	}
}

func TestQuoteBuyCompletesCurve(t *testing.T) {
	in := scenarioInput(1_000_000_000)
	in.RealSol = in.FundingTarget - 1

	q, err := QuoteBuy(in)
	require.NoError(t, err)
	assert.True(t, q.CompletesCurve)

	in.RealSol = 0
	q, err = QuoteBuy(in)
	require.NoError(t, err)
	assert.False(t, q.CompletesCurve)
}

func TestQuoteBuyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *BuyQuoteInput)
		target error
	}{
		{"slippage below range", func(in *BuyQuoteInput) { in.SlippageBps = 5 }, ErrInvalidInput},
		{"slippage above range", func(in *BuyQuoteInput) { in.SlippageBps = 1001 }, ErrInvalidInput},
		{"zero amount", func(in *BuyQuoteInput) { in.AmountIn = 0 }, ErrInvalidInput},
		{"complete curve", func(in *BuyQuoteInput) { in.Complete = true }, ErrPreconditionFailed},
		{"empty reserves", func(in *BuyQuoteInput) { in.VirtualTokens = 0 }, ErrPreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scenarioInput(1_000_000_000)
			tt.mutate(&in)
			_, err := QuoteBuy(in)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestQuoteBuyMinOutMonotonic(t *testing.T) {
	in := scenarioInput(5_000_000_000)

	prev := ^uint64(0)
	for bps := uint16(10); bps <= 1000; bps += 10 {
		in.SlippageBps = bps
		q, err := QuoteBuy(in)
		require.NoError(t, err)
		assert.LessOrEqual(t, q.MinAmountOut, prev, "slippage %d", bps)
		prev = q.MinAmountOut
	}
}

func TestQuoteSell(t *testing.T) {
	q, err := QuoteSell(SellQuoteInput{
		TokensIn:      10_000_000_000_000,
		VirtualSol:    30_000_000_000,
		VirtualTokens: 1_073_000_000_000_000,
		SlippageBps:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(277_008_310), q.SolOut)
	assert.Equal(t, q.SolOut, q.SolToUser)
	assert.Equal(t, q.SolOut*99/100, q.MinAmountOut)
	assert.Less(t, q.PriceAfter, q.PriceBefore)

	_, err = QuoteSell(SellQuoteInput{TokensIn: 1, VirtualSol: 1, VirtualTokens: 1, Complete: true, SlippageBps: 100})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = QuoteSell(SellQuoteInput{TokensIn: 1, VirtualSol: 30_000_000_000, VirtualTokens: 1_073_000_000_000_000, SlippageBps: 100})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTreasuryFeeBps(t *testing.T) {
	const target = 200_000_000_000

	assert.Equal(t, uint16(2000), TreasuryFeeBps(0, target, 2000, 500))
	assert.Equal(t, uint16(1250), TreasuryFeeBps(target/2, target, 2000, 500))
	assert.Equal(t, uint16(500), TreasuryFeeBps(target, target, 2000, 500))
	assert.Equal(t, uint16(500), TreasuryFeeBps(target*2, target, 2000, 500))
	assert.Equal(t, uint16(500), TreasuryFeeBps(0, 0, 2000, 500))

	prev := uint16(2000)
	for realSol := uint64(0); realSol <= target; realSol += target / 50 {
		rate := TreasuryFeeBps(realSol, target, 2000, 500)
		assert.LessOrEqual(t, rate, prev)
		prev = rate
	}
}

func TestPriceImpactBps(t *testing.T) {
	assert.Equal(t, uint64(0), PriceImpactBps(0, 1))
	assert.Equal(t, uint64(100), PriceImpactBps(1.0, 1.01))
	assert.Equal(t, uint64(500), PriceImpactBps(2.0, 1.9))
}
