// =============================
// File: internal/dex/market/descriptor.go
// =============================
package market

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramVersion – версия IDL программы, с которой синхронизированы билдеры.
const ProgramVersion = "3.7.0"

// Имена инструкций программы
const (
	IxCreateToken          = "create_token"
	IxBuy                  = "buy"
	IxSell                 = "sell"
	IxStarToken            = "star_token"
	IxCreateVault          = "create_vault"
	IxDepositVault         = "deposit_vault"
	IxWithdrawVault        = "withdraw_vault"
	IxLinkWallet           = "link_wallet"
	IxUnlinkWallet         = "unlink_wallet"
	IxTransferAuthority    = "transfer_authority"
	IxWithdrawTokens       = "withdraw_tokens"
	IxVaultSwap            = "vault_swap"
	IxWrapSol              = "wrap_sol"
	IxBorrow               = "borrow"
	IxRepay                = "repay"
	IxLiquidate            = "liquidate"
	IxClaimProtocolRewards = "claim_protocol_rewards"
	IxMigrateToDex         = "migrate_to_dex"
	IxExecuteAutoBuyback   = "execute_auto_buyback"
	IxHarvestFees          = "harvest_fees"
	IxSwapFeesToSol        = "swap_fees_to_sol"
)

// InstructionDef описывает одну инструкцию из IDL.
type InstructionDef struct {
	Name          string
	Discriminator [8]byte
	// Accounts – число фиксированных аккаунтов
	Accounts int
	// Remaining – допускаются дополнительные аккаунты после фиксированных
	Remaining bool
	Args      []string
}

func def(name string, accounts int, args ...string) InstructionDef {
	return InstructionDef{
		Name:          name,
		Discriminator: anchorDiscriminator("global", name),
		Accounts:      accounts,
		Args:          args,
	}
}

// Instructions – таблица инструкций для ProgramVersion.
var Instructions = map[string]InstructionDef{
	IxCreateToken:          def(IxCreateToken, 13, "name", "symbol", "uri"),
	IxBuy:                  def(IxBuy, 19, "sol_amount", "min_tokens_out", "vote"),
	IxSell:                 def(IxSell, 19, "token_amount", "min_sol_out"),
	IxStarToken:            def(IxStarToken, 9),
	IxCreateVault:          def(IxCreateVault, 4),
	IxDepositVault:         def(IxDepositVault, 3, "amount"),
	IxWithdrawVault:        def(IxWithdrawVault, 3, "amount"),
	IxLinkWallet:           def(IxLinkWallet, 5),
	IxUnlinkWallet:         def(IxUnlinkWallet, 5),
	IxTransferAuthority:    def(IxTransferAuthority, 3),
	IxWithdrawTokens:       def(IxWithdrawTokens, 6, "amount"),
	IxVaultSwap:            def(IxVaultSwap, 18, "amount_in", "minimum_out", "is_buy"),
	IxWrapSol:              def(IxWrapSol, 8, "source", "amount"),
	IxBorrow:               def(IxBorrow, 16, "collateral_amount", "sol_to_borrow"),
	IxRepay:                def(IxRepay, 11, "sol_amount"),
	IxLiquidate:            def(IxLiquidate, 18),
	IxClaimProtocolRewards: def(IxClaimProtocolRewards, 6),
	IxMigrateToDex:         def(IxMigrateToDex, 26),
	IxExecuteAutoBuyback:   def(IxExecuteAutoBuyback, 18, "minimum_out"),
	IxHarvestFees:          withRemaining(def(IxHarvestFees, 5)),
	IxSwapFeesToSol:        def(IxSwapFeesToSol, 18, "minimum_out"),
}

func withRemaining(d InstructionDef) InstructionDef {
	d.Remaining = true
	return d
}

// Имена аккаунтов программы
const (
	AccountGlobalConfig    = "GlobalConfig"
	AccountBondingCurve    = "BondingCurve"
	AccountTreasury        = "Treasury"
	AccountTreasuryLock    = "TreasuryLock"
	AccountUserStats       = "UserStats"
	AccountStarRecord      = "StarRecord"
	AccountLoanPosition    = "LoanPosition"
	AccountTorchVault      = "TorchVault"
	AccountVaultWalletLink = "VaultWalletLink"
)

func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func lookup(name string) (InstructionDef, error) {
	d, ok := Instructions[name]
	if !ok {
		return InstructionDef{}, fmt.Errorf("instruction %q is not in descriptor %s", name, ProgramVersion)
	}
	return d, nil
}

// argWriter кодирует один аргумент инструкции в Borsh.
type argWriter func(enc *bin.Encoder) error

func u8Arg(v uint8) argWriter {
	return func(enc *bin.Encoder) error { return enc.WriteUint8(v) }
}

func u64Arg(v uint64) argWriter {
	return func(enc *bin.Encoder) error { return enc.WriteUint64(v, binary.LittleEndian) }
}

func boolArg(v bool) argWriter {
	return func(enc *bin.Encoder) error { return enc.WriteBool(v) }
}

// strArg – Borsh string: u32 длина + UTF-8 байты
func strArg(s string) argWriter {
	return func(enc *bin.Encoder) error {
		if err := enc.WriteUint32(uint32(len(s)), binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteBytes([]byte(s), false)
	}
}

// optBoolArg – Borsh Option<bool>
func optBoolArg(v *bool) argWriter {
	return func(enc *bin.Encoder) error {
		if v == nil {
			return enc.WriteUint8(0)
		}
		if err := enc.WriteUint8(1); err != nil {
			return err
		}
		return enc.WriteBool(*v)
	}
}

// buildInstruction собирает инструкцию программы, сверяясь с таблицей Instructions.
func buildInstruction(programID solana.PublicKey, name string, accounts []*solana.AccountMeta, args ...argWriter) (solana.Instruction, error) {
	d, err := lookup(name)
	if err != nil {
		return nil, err
	}

	if d.Remaining {
		if len(accounts) < d.Accounts {
			return nil, fmt.Errorf("%s: expected at least %d accounts, got %d", name, d.Accounts, len(accounts))
		}
	} else if len(accounts) != d.Accounts {
		return nil, fmt.Errorf("%s: expected %d accounts, got %d", name, d.Accounts, len(accounts))
	}
	if len(args) != len(d.Args) {
		return nil, fmt.Errorf("%s: expected %d args, got %d", name, len(d.Args), len(args))
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(d.Discriminator[:], false); err != nil {
		return nil, err
	}
	for i, write := range args {
		if err := write(enc); err != nil {
			return nil, fmt.Errorf("%s: failed to encode %s: %w", name, d.Args[i], err)
		}
	}

	return solana.NewInstruction(programID, accounts, buf.Bytes()), nil
}
