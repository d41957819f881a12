// =============================
// File: internal/dex/cpmm/calculations.go
// =============================
package cpmm

import (
	"errors"
	"math/big"
)

var (
	ErrZeroAmount   = errors.New("swap amount must be positive")
	ErrEmptyReserve = errors.New("pool reserve is empty")
)

// QuoteSwap вычисляет выход swap_base_input по формуле Constant Product AMM:
// amountOut = y * a' / (x + a'), где a' = a - ceil(a * fee / 1e6).
func QuoteSwap(reserveIn, reserveOut, amountIn, tradeFeeRate uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrEmptyReserve
	}

	denom := new(big.Int).SetUint64(FeeRateDenominator)
	a := new(big.Int).SetUint64(amountIn)

	// комиссия округляется вверх, как в программе
	fee := new(big.Int).Mul(a, new(big.Int).SetUint64(tradeFeeRate))
	fee.Add(fee, new(big.Int).Sub(denom, big.NewInt(1)))
	fee.Quo(fee, denom)

	a.Sub(a, fee)
	if a.Sign() <= 0 {
		return 0, nil
	}

	x := new(big.Int).SetUint64(reserveIn)
	y := new(big.Int).SetUint64(reserveOut)

	numerator := new(big.Int).Mul(y, a)
	denominator := new(big.Int).Add(x, a)
	return new(big.Int).Quo(numerator, denominator).Uint64(), nil
}
