// =============================
// File: internal/dex/cpmm/pool.go
// =============================
package cpmm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
)

// BalanceReader – минимальный интерфейс чтения балансов токенных аккаунтов.
type BalanceReader interface {
	GetTokenAccountAmount(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Reserves – живые остатки vault-ов пула, ориентированные по минту.
type Reserves struct {
	Base  uint64 // WSOL
	Quote uint64 // токен
}

// FetchReserves читает оба vault-а пула параллельно.
func FetchReserves(ctx context.Context, reader BalanceReader, pool PoolAddresses, baseMint solana.PublicKey) (Reserves, error) {
	baseVault, err := pool.VaultFor(baseMint)
	if err != nil {
		return Reserves{}, err
	}
	quoteVault := pool.Token0Vault
	if baseVault.Equals(pool.Token0Vault) {
		quoteVault = pool.Token1Vault
	}

	var out Reserves
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		amount, err := reader.GetTokenAccountAmount(gctx, baseVault)
		if err != nil {
			return fmt.Errorf("failed to read base vault %s: %w", baseVault, err)
		}
		out.Base = amount
		return nil
	})
	g.Go(func() error {
		amount, err := reader.GetTokenAccountAmount(gctx, quoteVault)
		if err != nil {
			return fmt.Errorf("failed to read quote vault %s: %w", quoteVault, err)
		}
		out.Quote = amount
		return nil
	})
	if err := g.Wait(); err != nil {
		return Reserves{}, err
	}
	return out, nil
}
