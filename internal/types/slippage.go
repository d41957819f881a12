// internal/types/slippage.go
package types

import (
	"fmt"
	"math/big"
)

const (
	// MinSlippageBps – минимально допустимая толерантность (0.1%)
	MinSlippageBps uint16 = 10
	// MaxSlippageBps – максимально допустимая толерантность (10%)
	MaxSlippageBps uint16 = 1000
	// DefaultSlippageBps используется, если вызывающий не указал толерантность
	DefaultSlippageBps uint16 = 100

	bpsDenominator = 10_000
)

// SlippageOutOfRangeError возвращается, когда толерантность вне [MinSlippageBps, MaxSlippageBps].
type SlippageOutOfRangeError struct {
	Bps uint16
}

func (e *SlippageOutOfRangeError) Error() string {
	return fmt.Sprintf("slippage %d bps outside allowed range [%d, %d]",
		e.Bps, MinSlippageBps, MaxSlippageBps)
}

// ValidateSlippageBps проверяет толерантность проскальзывания.
func ValidateSlippageBps(bps uint16) error {
	if bps < MinSlippageBps || bps > MaxSlippageBps {
		return &SlippageOutOfRangeError{Bps: bps}
	}
	return nil
}

// ResolveSlippageBps возвращает толерантность вызывающего или значение по умолчанию.
func ResolveSlippageBps(bps *uint16, fallback uint16) (uint16, error) {
	value := fallback
	if bps != nil {
		value = *bps
	}
	if err := ValidateSlippageBps(value); err != nil {
		return 0, err
	}
	return value, nil
}

// MinAmountOut вычисляет floor(expected * (10000 - bps) / 10000) в целочисленной арифметике.
func MinAmountOut(expected uint64, bps uint16) (uint64, error) {
	if err := ValidateSlippageBps(bps); err != nil {
		return 0, err
	}
	n := new(big.Int).SetUint64(expected)
	n.Mul(n, big.NewInt(int64(bpsDenominator-int(bps))))
	n.Quo(n, big.NewInt(bpsDenominator))
	return n.Uint64(), nil
}
