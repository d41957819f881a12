// =============================
// File: internal/dex/market/loan.go
// =============================
package market

import (
	"context"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
)

// HealthStatus – классификация позиции займа.
type HealthStatus string

const (
	HealthNone         HealthStatus = "none"
	HealthHealthy      HealthStatus = "healthy"
	HealthAtRisk       HealthStatus = "at_risk"
	HealthLiquidatable HealthStatus = "liquidatable"
)

// LoanHealth – справочные показатели займа для отображения.
// Право на ликвидацию определяет только программа: её вход (цена пула) может отличаться.
type LoanHealth struct {
	Position        *LoanPosition
	CollateralValue uint64 // в лампортах по текущей цене пула
	Debt            uint64
	LTVBps          uint64
	Status          HealthStatus
}

// ComputeLoanHealth оценивает LTV по резервам пула и порогам из GlobalConfig.
func ComputeLoanHealth(loan *LoanPosition, reserves cpmm.Reserves, global *GlobalConfig) LoanHealth {
	if loan == nil {
		return LoanHealth{Status: HealthNone}
	}
	debt := loan.Principal + loan.AccruedInterest
	health := LoanHealth{Position: loan, Debt: debt}
	if debt == 0 {
		health.Status = HealthNone
		return health
	}

	if reserves.Quote > 0 {
		health.CollateralValue = mulDiv(loan.Collateral, reserves.Base, reserves.Quote)
	}
	if health.CollateralValue == 0 {
		health.LTVBps = ^uint64(0)
		health.Status = HealthLiquidatable
		return health
	}

	ltv := new(big.Int).SetUint64(debt)
	ltv.Mul(ltv, big.NewInt(bpsDenominator))
	ltv.Quo(ltv, new(big.Int).SetUint64(health.CollateralValue))
	if ltv.IsUint64() {
		health.LTVBps = ltv.Uint64()
	} else {
		health.LTVBps = ^uint64(0)
	}

	switch {
	case health.LTVBps > uint64(global.LiquidationThresholdBps):
		health.Status = HealthLiquidatable
	case health.LTVBps >= uint64(global.MaxLtvBps):
		health.Status = HealthAtRisk
	default:
		health.Status = HealthHealthy
	}
	return health
}

// LoanHealth читает позицию, конфигурацию и пул и возвращает справочную оценку.
func (m *Market) LoanHealth(ctx context.Context, mintAddr, borrowerAddr string) (*LoanHealth, error) {
	const op = "loan_health"

	mint, err := parseKey(op, "mint", mintAddr)
	if err != nil {
		return nil, err
	}
	borrower, err := parseKey(op, "borrower", borrowerAddr)
	if err != nil {
		return nil, err
	}

	loan, err := m.reader.LoanPosition(ctx, op, mint, borrower)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return &LoanHealth{Status: HealthNone}, nil
	}

	global, err := m.reader.GlobalConfig(ctx, op)
	if err != nil {
		return nil, err
	}
	reserves, err := m.reader.PoolReserves(ctx, op, mint)
	if err != nil {
		return nil, err
	}

	health := ComputeLoanHealth(loan, reserves, global)
	m.logger.Debug("Loan health",
		zap.String("mint", mint.String()),
		zap.String("borrower", borrower.String()),
		zap.Uint64("ltv_bps", health.LTVBps),
		zap.String("status", string(health.Status)))
	return &health, nil
}

func requireMigrated(op string, mint solana.PublicKey, curve *BondingCurve) error {
	if !curve.Migrated {
		return precondition(op, "token %s has not migrated to the external exchange", mint)
	}
	return nil
}
