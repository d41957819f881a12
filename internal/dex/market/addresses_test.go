package market

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriverDeterministic(t *testing.T) {
	a := NewDeriver(GetDefaultConfig())
	b := NewDeriver(GetDefaultConfig())
	mint, user := newKey(), newKey()

	assert.Equal(t, a.GlobalConfig(), b.GlobalConfig())
	assert.Equal(t, a.BondingCurve(mint), b.BondingCurve(mint))
	assert.Equal(t, a.Treasury(mint), b.Treasury(mint))
	assert.Equal(t, a.TreasuryLock(mint), b.TreasuryLock(mint))
	assert.Equal(t, a.StarRecord(user, mint), b.StarRecord(user, mint))
	assert.Equal(t, a.LoanPosition(mint, user), b.LoanPosition(mint, user))
	assert.Equal(t, a.Vault(user), b.Vault(user))
	assert.Equal(t, a.WalletLink(user), b.WalletLink(user))
	assert.Equal(t, a.Pool(mint), b.Pool(mint))
}

func TestDeriverNoCollisions(t *testing.T) {
	d := NewDeriver(GetDefaultConfig())
	mint := newKey()

	derivations := map[string]func(owner solana.PublicKey) solana.PublicKey{
		"vault":       d.Vault,
		"wallet link": d.WalletLink,
		"user stats":  d.UserStats,
		"position":    func(owner solana.PublicKey) solana.PublicKey { return d.Position(mint, owner) },
		"loan":        func(owner solana.PublicKey) solana.PublicKey { return d.LoanPosition(mint, owner) },
		"star":        func(owner solana.PublicKey) solana.PublicKey { return d.StarRecord(owner, mint) },
		"curve":       d.BondingCurve,
		"treasury":    d.Treasury,
	}

	for name, derive := range derivations {
		t.Run(name, func(t *testing.T) {
			seen := make(map[solana.PublicKey]struct{}, 200)
			for i := 0; i < 200; i++ {
				addr := derive(newKey())
				_, dup := seen[addr]
				require.False(t, dup, "collision after %d identities", i)
				seen[addr] = struct{}{}
			}
		})
	}
}

func TestDeriverSeedsSeparate(t *testing.T) {
	d := NewDeriver(GetDefaultConfig())
	mint := newKey()

	addrs := []solana.PublicKey{
		d.BondingCurve(mint),
		d.Treasury(mint),
		d.TreasuryLock(mint),
		d.CollateralVault(mint),
		d.Vault(mint),
		d.WalletLink(mint),
		d.UserStats(mint),
	}
	seen := make(map[solana.PublicKey]struct{}, len(addrs))
	for _, a := range addrs {
		_, dup := seen[a]
		assert.False(t, dup, "address %s derived twice", a)
		seen[a] = struct{}{}
	}
}

func TestTokenAccountsUseTokenPrograms(t *testing.T) {
	d := NewDeriver(GetDefaultConfig())
	mint := newKey()
	curve := d.BondingCurve(mint)

	assert.Equal(t, AssociatedTokenAddress(curve, mint, Token2022ProgramID), d.CurveTokenAccount(mint))
	assert.Equal(t, AssociatedTokenAddress(curve, WSOLMint, TokenProgramID), d.CurveWSOLAccount(mint))
	assert.NotEqual(t, d.CurveTokenAccount(mint), d.CurveWSOLAccount(mint))

	vault := d.Vault(newKey())
	assert.Equal(t, AssociatedTokenAddress(vault, WSOLMint, TokenProgramID), d.VaultWSOLAccount(vault))
}

func TestDeriverFollowsProgramID(t *testing.T) {
	cfg := GetDefaultConfig()
	other := cfg
	other.ProgramID = newKey()

	assert.NotEqual(t, NewDeriver(cfg).GlobalConfig(), NewDeriver(other).GlobalConfig())
}
