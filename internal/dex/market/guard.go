// =============================
// File: internal/dex/market/guard.go
// =============================
package market

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
)

// validateMessage обрезает пробелы и проверяет длину memo.
func validateMessage(op, message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if n := utf8.RuneCountInString(trimmed); n > MaxMessageLength {
		return "", invalidInput(op, "message is %d characters, maximum is %d", n, MaxMessageLength)
	}
	return trimmed, nil
}

func validateTokenMetadata(op, name, symbol, uri string) error {
	byteLen := func(s string) int { return len(s) }
	checks := []struct {
		field   string
		value   string
		limit   int
		measure func(string) int
		unit    string
	}{
		{"name", name, MaxNameLength, utf8.RuneCountInString, "characters"},
		{"symbol", symbol, MaxSymbolLength, utf8.RuneCountInString, "characters"},
		// uri ограничен в байтах
		{"uri", uri, MaxURILength, byteLen, "bytes"},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return invalidInput(op, "%s must not be empty", c.field)
		}
		if n := c.measure(c.value); n > c.limit {
			return invalidInput(op, "%s is %d %s, maximum is %d", c.field, n, c.unit, c.limit)
		}
	}
	return nil
}

// checkStar: нельзя отмечать свой токен и отмечать дважды.
func (m *Market) checkStar(ctx context.Context, op string, user, mint solana.PublicKey) (*BondingCurve, error) {
	curve, err := m.reader.BondingCurve(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if curve.Creator.Equals(user) {
		return nil, precondition(op, "creator cannot star own token")
	}
	starred, err := m.reader.StarRecordExists(ctx, op, user, mint)
	if err != nil {
		return nil, err
	}
	if starred {
		return nil, precondition(op, "token %s already starred by %s", mint, user)
	}
	return curve, nil
}

// buybackPlan – результат успешной проверки байбэка.
type buybackPlan struct {
	curve    *BondingCurve
	treasury *Treasury
	reserves cpmm.Reserves
	amount   uint64
}

// buybackAmount = (solBalance − защищённый резерв) · buybackPercent
func buybackAmount(t *Treasury) uint64 {
	reserve := mulDiv(t.SolBalance, uint64(t.ReserveRatioBps), bpsDenominator)
	if reserve >= t.SolBalance {
		return 0
	}
	return mulDiv(t.SolBalance-reserve, uint64(t.BuybackPercentBps), bpsDenominator)
}

// priceHealthy сравнивает poolSol/poolTokens с baselineSol/baselineTokens · threshold/10000
// перекрёстным умножением, без деления.
func priceHealthy(reserves cpmm.Reserves, t *Treasury) bool {
	lhs := new(big.Int).SetUint64(reserves.Base)
	lhs.Mul(lhs, new(big.Int).SetUint64(t.BaselineTokens))
	lhs.Mul(lhs, big.NewInt(bpsDenominator))

	rhs := new(big.Int).SetUint64(t.BaselineSol)
	rhs.Mul(rhs, new(big.Int).SetUint64(reserves.Quote))
	rhs.Mul(rhs, big.NewInt(int64(t.RatioThresholdBps)))

	return lhs.Cmp(rhs) >= 0
}

// checkBuyback проверяет условия байбэка от дешёвых к дорогим.
// Порядок фиксирован: каждое чтение выполняется только после прохождения предыдущих проверок.
func (m *Market) checkBuyback(ctx context.Context, op string, mint solana.PublicKey) (*buybackPlan, error) {
	curve, treasury, locked, err := m.reader.BuybackState(ctx, op, mint)
	if err != nil {
		return nil, err
	}

	// 1. миграция
	if !curve.Migrated {
		return nil, precondition(op, "token %s has not migrated, buybacks start after migration", mint)
	}

	// 2. базовая линия
	if !treasury.BaselineInitialized {
		return nil, precondition(op, "price baseline is not initialized for %s", mint)
	}

	// 3. кулдаун
	slot, err := m.chain.GetSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read slot: %w", op, err)
	}
	readyAt := treasury.LastBuybackSlot + treasury.MinIntervalSlots
	if slot < readyAt {
		return nil, precondition(op, "buyback cooldown active, %d slots remaining", readyAt-slot)
	}

	// 4. минимальная эмиссия
	supply, err := m.chain.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read supply: %w", op, err)
	}
	circulating := uint64(0)
	if supply > locked {
		circulating = supply - locked
	}
	if circulating <= SupplyFloor {
		return nil, precondition(op, "circulating supply %d is at or below floor %d, buybacks permanently paused",
			circulating, SupplyFloor)
	}

	// 5. цена
	reserves, err := m.reader.PoolReserves(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if priceHealthy(reserves, treasury) {
		return nil, precondition(op, "price healthy: pool %d lamports / %d tokens is above %d bps of baseline %d / %d",
			reserves.Base, reserves.Quote, treasury.RatioThresholdBps, treasury.BaselineSol, treasury.BaselineTokens)
	}

	// 6. пыль
	amount := buybackAmount(treasury)
	if amount < MinBuybackLamports {
		return nil, precondition(op, "buyback amount %d lamports is below minimum %d", amount, MinBuybackLamports)
	}

	m.logger.Debug("Buyback guard passed",
		zap.String("mint", mint.String()),
		zap.Uint64("slot", slot),
		zap.Uint64("circulating", circulating),
		zap.Uint64("amount", amount))

	return &buybackPlan{curve: curve, treasury: treasury, reserves: reserves, amount: amount}, nil
}
