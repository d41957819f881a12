// =============================
// File: internal/dex/market/quote.go
// =============================
package market

import (
	"math"
	"math/big"

	"github.com/rovshanmuradov/launchpad-sdk/internal/types"
)

// BuyQuoteInput – всё, что нужно для расчёта покупки на кривой.
type BuyQuoteInput struct {
	AmountIn      uint64
	VirtualSol    uint64
	VirtualTokens uint64
	RealSol       uint64
	FundingTarget uint64
	Complete      bool

	ProtocolFeeBps    uint16
	TreasuryFeeMaxBps uint16
	TreasuryFeeMinBps uint16
	CommunityBps      uint16

	SlippageBps uint16
}

// NewBuyQuoteInput собирает вход из состояния программы.
func NewBuyQuoteInput(global *GlobalConfig, curve *BondingCurve, amountIn uint64, slippageBps uint16) BuyQuoteInput {
	target := curve.FundingTarget
	if target == 0 {
		target = global.FundingTarget
	}
	return BuyQuoteInput{
		AmountIn:          amountIn,
		VirtualSol:        curve.VirtualSol,
		VirtualTokens:     curve.VirtualTokens,
		RealSol:           curve.RealSol,
		FundingTarget:     target,
		Complete:          curve.Complete,
		ProtocolFeeBps:    global.ProtocolFeeBps,
		TreasuryFeeMaxBps: global.TreasuryFeeMaxBps,
		TreasuryFeeMinBps: global.TreasuryFeeMinBps,
		CommunityBps:      global.CommunityBps,
		SlippageBps:       slippageBps,
	}
}

// BuyQuote – результат расчёта покупки. Не кешируется: кривая меняется с каждой сделкой.
type BuyQuote struct {
	AmountIn          uint64
	TokensOut         uint64
	TokensToUser      uint64
	TokensToCommunity uint64
	ProtocolFee       uint64
	TreasuryFee       uint64
	SolToCurve        uint64
	PriceBefore       float64
	PriceAfter        float64
	PriceImpactBps    uint64
	MinAmountOut      uint64
	CompletesCurve    bool
}

// SellQuote – результат расчёта продажи.
type SellQuote struct {
	TokensIn       uint64
	SolOut         uint64
	SolToUser      uint64
	PriceBefore    float64
	PriceAfter     float64
	PriceImpactBps uint64
	MinAmountOut   uint64
}

func mulDiv(a, b, c uint64) uint64 {
	n := new(big.Int).SetUint64(a)
	n.Mul(n, new(big.Int).SetUint64(b))
	return n.Quo(n, new(big.Int).SetUint64(c)).Uint64()
}

// TreasuryFeeBps линейно снижает ставку казны от maxBps (realSol=0) до minBps (realSol ≥ target).
func TreasuryFeeBps(realSol, fundingTarget uint64, maxBps, minBps uint16) uint16 {
	if maxBps <= minBps || fundingTarget == 0 || realSol >= fundingTarget {
		return minBps
	}
	decay := mulDiv(uint64(maxBps-minBps), realSol, fundingTarget)
	return maxBps - uint16(decay)
}

// constantProductOut = reserveOut * amountIn / (reserveIn + amountIn)
func constantProductOut(reserveIn, reserveOut, amountIn uint64) uint64 {
	num := new(big.Int).SetUint64(reserveOut)
	num.Mul(num, new(big.Int).SetUint64(amountIn))
	den := new(big.Int).SetUint64(reserveIn)
	den.Add(den, new(big.Int).SetUint64(amountIn))
	return num.Quo(num, den).Uint64()
}

// QuoteBuy повторяет формулу программы для покупки.
func QuoteBuy(in BuyQuoteInput) (BuyQuote, error) {
	const op = "quote_buy"

	if err := types.ValidateSlippageBps(in.SlippageBps); err != nil {
		return BuyQuote{}, invalidInputErr(op, "slippage", err)
	}
	if in.AmountIn == 0 {
		return BuyQuote{}, invalidInput(op, "amount must be positive")
	}
	if in.Complete {
		return BuyQuote{}, precondition(op, "bonding curve is complete, trade on external exchange instead")
	}
	if in.VirtualSol == 0 || in.VirtualTokens == 0 {
		return BuyQuote{}, precondition(op, "bonding curve has empty virtual reserves")
	}

	protocolFee := mulDiv(in.AmountIn, uint64(in.ProtocolFeeBps), bpsDenominator)
	rate := TreasuryFeeBps(in.RealSol, in.FundingTarget, in.TreasuryFeeMaxBps, in.TreasuryFeeMinBps)
	treasuryFee := mulDiv(in.AmountIn-protocolFee, uint64(rate), bpsDenominator)
	solToCurve := in.AmountIn - protocolFee - treasuryFee

	tokensOut := constantProductOut(in.VirtualSol, in.VirtualTokens, solToCurve)
	community := mulDiv(tokensOut, uint64(in.CommunityBps), bpsDenominator)
	toUser := tokensOut - community
	if toUser == 0 {
		return BuyQuote{}, invalidInput(op, "amount %d lamports is too small to buy any tokens", in.AmountIn)
	}

	minOut, err := types.MinAmountOut(toUser, in.SlippageBps)
	if err != nil {
		return BuyQuote{}, invalidInputErr(op, "slippage", err)
	}

	before := Price(in.VirtualSol, in.VirtualTokens)
	after := Price(in.VirtualSol+solToCurve, in.VirtualTokens-tokensOut)

	return BuyQuote{
		AmountIn:          in.AmountIn,
		TokensOut:         tokensOut,
		TokensToUser:      toUser,
		TokensToCommunity: community,
		ProtocolFee:       protocolFee,
		TreasuryFee:       treasuryFee,
		SolToCurve:        solToCurve,
		PriceBefore:       before,
		PriceAfter:        after,
		PriceImpactBps:    PriceImpactBps(before, after),
		MinAmountOut:      minOut,
		CompletesCurve:    in.FundingTarget > 0 && in.RealSol+solToCurve >= in.FundingTarget,
	}, nil
}

// SellQuoteInput – вход расчёта продажи.
type SellQuoteInput struct {
	TokensIn      uint64
	VirtualSol    uint64
	VirtualTokens uint64
	Complete      bool
	SlippageBps   uint16
}

// QuoteSell повторяет формулу программы для продажи.
func QuoteSell(in SellQuoteInput) (SellQuote, error) {
	const op = "quote_sell"

	if err := types.ValidateSlippageBps(in.SlippageBps); err != nil {
		return SellQuote{}, invalidInputErr(op, "slippage", err)
	}
	if in.TokensIn == 0 {
		return SellQuote{}, invalidInput(op, "token amount must be positive")
	}
	if in.Complete {
		return SellQuote{}, precondition(op, "bonding curve is complete, trade on external exchange instead")
	}
	if in.VirtualSol == 0 || in.VirtualTokens == 0 {
		return SellQuote{}, precondition(op, "bonding curve has empty virtual reserves")
	}

	solOut := constantProductOut(in.VirtualTokens, in.VirtualSol, in.TokensIn)
	if solOut == 0 {
		return SellQuote{}, invalidInput(op, "amount %d tokens is too small to receive any SOL", in.TokensIn)
	}
	minOut, err := types.MinAmountOut(solOut, in.SlippageBps)
	if err != nil {
		return SellQuote{}, invalidInputErr(op, "slippage", err)
	}

	before := Price(in.VirtualSol, in.VirtualTokens)
	after := Price(in.VirtualSol-solOut, in.VirtualTokens+in.TokensIn)

	return SellQuote{
		TokensIn:       in.TokensIn,
		SolOut:         solOut,
		SolToUser:      solOut,
		PriceBefore:    before,
		PriceAfter:     after,
		PriceImpactBps: PriceImpactBps(before, after),
		MinAmountOut:   minOut,
	}, nil
}

// Price – предельная цена в лампортах за минимальную единицу токена. Только для отображения.
func Price(virtualSol, virtualTokens uint64) float64 {
	if virtualTokens == 0 {
		return 0
	}
	return float64(virtualSol) / float64(virtualTokens)
}

// PriceImpactBps – относительное изменение предельной цены в базисных пунктах.
func PriceImpactBps(before, after float64) uint64 {
	if before <= 0 {
		return 0
	}
	return uint64(math.Round(math.Abs(after-before) / before * bpsDenominator))
}
