// =============================
// File: internal/dex/cpmm/pda.go
// =============================
package cpmm

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	authoritySeed   = "vault_and_lp_mint_auth_seed"
	poolSeed        = "pool"
	poolVaultSeed   = "pool_vault"
	poolLPMintSeed  = "pool_lp_mint"
	observationSeed = "observation"
)

// PoolAddresses – все детерминированные адреса пула для пары минтов.
type PoolAddresses struct {
	Authority   solana.PublicKey
	PoolState   solana.PublicKey
	Token0Mint  solana.PublicKey
	Token1Mint  solana.PublicKey
	Token0Vault solana.PublicKey
	Token1Vault solana.PublicKey
	LPMint      solana.PublicKey
	Observation solana.PublicKey
}

// SortMints возвращает пару в каноническом порядке: token0 < token1 по сырым байтам.
func SortMints(a, b solana.PublicKey) (token0, token1 solana.PublicKey) {
	if bytes.Compare(a[:], b[:]) < 0 {
		return a, b
	}
	return b, a
}

// VaultFor возвращает vault пула для указанного минта.
func (p PoolAddresses) VaultFor(mint solana.PublicKey) (solana.PublicKey, error) {
	switch {
	case mint.Equals(p.Token0Mint):
		return p.Token0Vault, nil
	case mint.Equals(p.Token1Mint):
		return p.Token1Vault, nil
	}
	return solana.PublicKey{}, fmt.Errorf("mint %s is not part of pool %s", mint, p.PoolState)
}

// DeriveAuthority вычисляет PDA authority пулов CPMM.
func DeriveAuthority(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(authoritySeed)}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive cpmm authority: %w", err)
	}
	return addr, nil
}

// DerivePoolAddresses вычисляет адреса пула для пары минтов в любом порядке.
func DerivePoolAddresses(cfg Config, mintA, mintB solana.PublicKey) (PoolAddresses, error) {
	token0, token1 := SortMints(mintA, mintB)
	out := PoolAddresses{Token0Mint: token0, Token1Mint: token1}

	var err error
	if out.Authority, err = DeriveAuthority(cfg.ProgramID); err != nil {
		return PoolAddresses{}, err
	}

	out.PoolState, _, err = solana.FindProgramAddress(
		[][]byte{[]byte(poolSeed), cfg.AmmConfig.Bytes(), token0.Bytes(), token1.Bytes()},
		cfg.ProgramID,
	)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("failed to derive pool state: %w", err)
	}

	derive := func(what string, seeds ...[]byte) (solana.PublicKey, error) {
		addr, _, err := solana.FindProgramAddress(seeds, cfg.ProgramID)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("failed to derive %s: %w", what, err)
		}
		return addr, nil
	}

	if out.Token0Vault, err = derive("token0 vault", []byte(poolVaultSeed), out.PoolState.Bytes(), token0.Bytes()); err != nil {
		return PoolAddresses{}, err
	}
	if out.Token1Vault, err = derive("token1 vault", []byte(poolVaultSeed), out.PoolState.Bytes(), token1.Bytes()); err != nil {
		return PoolAddresses{}, err
	}
	if out.LPMint, err = derive("lp mint", []byte(poolLPMintSeed), out.PoolState.Bytes()); err != nil {
		return PoolAddresses{}, err
	}
	if out.Observation, err = derive("observation", []byte(observationSeed), out.PoolState.Bytes()); err != nil {
		return PoolAddresses{}, err
	}

	return out, nil
}
