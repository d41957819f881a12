// =============================
// File: internal/dex/market/reader.go
// =============================
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
)

// Reader читает и декодирует состояние программы. Каждый вызов идёт в сеть: кеша нет.
type Reader struct {
	chain   blockchain.ChainReader
	deriver Deriver
	logger  *zap.Logger
}

// NewReader создаёт Reader поверх ChainReader.
func NewReader(chain blockchain.ChainReader, deriver Deriver, logger *zap.Logger) *Reader {
	return &Reader{chain: chain, deriver: deriver, logger: logger.Named("reader")}
}

func (r *Reader) fetch(ctx context.Context, op, what string, addr solana.PublicKey) ([]byte, error) {
	return r.fetchLabeled(ctx, op, fmt.Sprintf("%s %s", what, addr), addr)
}

// fetchLabeled – как fetch, но label описывает аккаунт в ошибках целиком.
func (r *Reader) fetchLabeled(ctx context.Context, op, label string, addr solana.PublicKey) ([]byte, error) {
	data, err := r.chain.GetAccountData(ctx, addr)
	if err != nil {
		if errors.Is(err, blockchain.ErrAccountNotFound) {
			return nil, notFound(op, label+" does not exist", err)
		}
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, label, err)
	}
	if len(data) == 0 {
		return nil, notFound(op, label+" does not exist", blockchain.ErrAccountNotFound)
	}
	return data, nil
}

func (r *Reader) fetchMany(ctx context.Context, op string, addrs ...solana.PublicKey) ([][]byte, error) {
	data, err := r.chain.GetMultipleAccountsData(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %d accounts: %w", op, len(addrs), err)
	}
	if len(data) != len(addrs) {
		return nil, fmt.Errorf("%s: expected %d accounts, got %d", op, len(addrs), len(data))
	}
	return data, nil
}

func decodeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// GlobalConfig читает глобальную конфигурацию рынка.
func (r *Reader) GlobalConfig(ctx context.Context, op string) (*GlobalConfig, error) {
	data, err := r.fetch(ctx, op, "global config", r.deriver.GlobalConfig())
	if err != nil {
		return nil, err
	}
	cfg, err := ParseGlobalConfig(data)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	return cfg, nil
}

// BondingCurve читает кривую токена.
func (r *Reader) BondingCurve(ctx context.Context, op string, mint solana.PublicKey) (*BondingCurve, error) {
	data, err := r.fetchLabeled(ctx, op, fmt.Sprintf("token %s", mint), r.deriver.BondingCurve(mint))
	if err != nil {
		return nil, err
	}
	curve, err := ParseBondingCurve(data)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	return curve, nil
}

// MarketState читает глобальную конфигурацию и кривую одним запросом.
func (r *Reader) MarketState(ctx context.Context, op string, mint solana.PublicKey) (*GlobalConfig, *BondingCurve, error) {
	globalAddr, curveAddr := r.deriver.GlobalConfig(), r.deriver.BondingCurve(mint)
	data, err := r.fetchMany(ctx, op, globalAddr, curveAddr)
	if err != nil {
		return nil, nil, err
	}
	if len(data[0]) == 0 {
		return nil, nil, notFound(op, fmt.Sprintf("global config %s does not exist", globalAddr), blockchain.ErrAccountNotFound)
	}
	if len(data[1]) == 0 {
		return nil, nil, notFound(op, fmt.Sprintf("token %s does not exist", mint), blockchain.ErrAccountNotFound)
	}

	global, err := ParseGlobalConfig(data[0])
	if err != nil {
		return nil, nil, decodeErr(op, err)
	}
	curve, err := ParseBondingCurve(data[1])
	if err != nil {
		return nil, nil, decodeErr(op, err)
	}
	return global, curve, nil
}

// BuybackState читает кривую, казну и блокировку казны одним запросом.
// Отсутствующая блокировка означает ноль заблокированных токенов.
func (r *Reader) BuybackState(ctx context.Context, op string, mint solana.PublicKey) (*BondingCurve, *Treasury, uint64, error) {
	data, err := r.fetchMany(ctx, op,
		r.deriver.BondingCurve(mint),
		r.deriver.Treasury(mint),
		r.deriver.TreasuryLock(mint),
	)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(data[0]) == 0 {
		return nil, nil, 0, notFound(op, fmt.Sprintf("token %s does not exist", mint), blockchain.ErrAccountNotFound)
	}
	if len(data[1]) == 0 {
		return nil, nil, 0, notFound(op, fmt.Sprintf("treasury for %s does not exist", mint), blockchain.ErrAccountNotFound)
	}

	curve, err := ParseBondingCurve(data[0])
	if err != nil {
		return nil, nil, 0, decodeErr(op, err)
	}
	treasury, err := ParseTreasury(data[1])
	if err != nil {
		return nil, nil, 0, decodeErr(op, err)
	}

	var locked uint64
	if len(data[2]) > 0 {
		lock, err := ParseTreasuryLock(data[2])
		if err != nil {
			return nil, nil, 0, decodeErr(op, err)
		}
		locked = lock.LockedTokens
	}
	return curve, treasury, locked, nil
}

// Vault читает vault создателя.
func (r *Reader) Vault(ctx context.Context, op string, creator solana.PublicKey) (*Vault, error) {
	data, err := r.fetch(ctx, op, "vault", r.deriver.Vault(creator))
	if err != nil {
		return nil, err
	}
	vault, err := ParseVault(data)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	return vault, nil
}

// WalletLink возвращает привязку кошелька или nil, если её нет.
func (r *Reader) WalletLink(ctx context.Context, op string, wallet solana.PublicKey) (*WalletLink, error) {
	data, err := r.fetch(ctx, op, "wallet link", r.deriver.WalletLink(wallet))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	link, err := ParseWalletLink(data)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	return link, nil
}

// LoanPosition возвращает позицию займа или nil, если её нет.
func (r *Reader) LoanPosition(ctx context.Context, op string, mint, borrower solana.PublicKey) (*LoanPosition, error) {
	data, err := r.fetch(ctx, op, "loan position", r.deriver.LoanPosition(mint, borrower))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	loan, err := ParseLoanPosition(data)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	return loan, nil
}

// StarRecordExists проверяет, отмечал ли пользователь токен.
func (r *Reader) StarRecordExists(ctx context.Context, op string, user, mint solana.PublicKey) (bool, error) {
	data, err := r.fetch(ctx, op, "star record", r.deriver.StarRecord(user, mint))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := ParseStarRecord(data); err != nil {
		return false, decodeErr(op, err)
	}
	return true, nil
}

// UserStats читает статистику пользователя.
func (r *Reader) UserStats(ctx context.Context, op string, user solana.PublicKey) (*UserStats, error) {
	data, err := r.fetch(ctx, op, "user stats", r.deriver.UserStats(user))
	if err != nil {
		return nil, err
	}
	stats, err := ParseUserStats(data)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	return stats, nil
}

// TokenBalance читает баланс токенного аккаунта; отсутствующий аккаунт – ноль.
func (r *Reader) TokenBalance(ctx context.Context, op string, account solana.PublicKey) (uint64, error) {
	amount, err := r.chain.GetTokenAccountAmount(ctx, account)
	if err != nil {
		if errors.Is(err, blockchain.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: failed to read token account %s: %w", op, account, err)
	}
	return amount, nil
}

// PoolReserves читает живые резервы CPMM пула токена (два параллельных запроса).
func (r *Reader) PoolReserves(ctx context.Context, op string, mint solana.PublicKey) (cpmm.Reserves, error) {
	pool := r.deriver.Pool(mint)
	reserves, err := cpmm.FetchReserves(ctx, r.chain, pool, WSOLMint)
	if err != nil {
		if errors.Is(err, blockchain.ErrAccountNotFound) {
			return cpmm.Reserves{}, notFound(op, fmt.Sprintf("pool for token %s does not exist", mint), err)
		}
		return cpmm.Reserves{}, fmt.Errorf("%s: %w", op, err)
	}
	r.logger.Debug("Pool reserves",
		zap.String("pool", pool.PoolState.String()),
		zap.Uint64("sol", reserves.Base),
		zap.Uint64("tokens", reserves.Quote))
	return reserves, nil
}
