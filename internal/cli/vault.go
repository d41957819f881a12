// =============================
// File: internal/cli/vault.go
// =============================
package cli

import (
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
)

// vaultCommand – операции с кастодиальным хранилищем. --vault указывает создателя
// хранилища; по умолчанию это сам кошелёк.
func (a *app) vaultCommand() *cobra.Command {
	var creator string
	vault := &cobra.Command{
		Use:   "vault",
		Short: "Manage a custodial vault and its linked wallets",
	}
	vault.PersistentFlags().StringVar(&creator, "vault", "", "vault creator (defaults to the acting wallet)")

	owner := func() (string, string, error) {
		actor, err := a.actor()
		if err != nil {
			return "", "", err
		}
		if creator == "" {
			return actor, actor, nil
		}
		return actor, creator, nil
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create the vault of the acting wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.CreateVault(cmd.Context(), market.CreateVaultParams{Creator: actor})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	deposit := &cobra.Command{
		Use:   "deposit <lamports>",
		Short: "Deposit SOL into a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			amount, err := parseAmount("lamports", args[0])
			if err != nil {
				return err
			}
			res, err := a.market.DepositVault(cmd.Context(), market.DepositVaultParams{
				Depositor: actor, VaultCreator: vaultCreator, Lamports: amount,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	withdraw := &cobra.Command{
		Use:   "withdraw <lamports>",
		Short: "Withdraw SOL from a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			amount, err := parseAmount("lamports", args[0])
			if err != nil {
				return err
			}
			res, err := a.market.WithdrawVault(cmd.Context(), market.WithdrawVaultParams{
				Authority: actor, VaultCreator: vaultCreator, Lamports: amount,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	link := &cobra.Command{
		Use:   "link <wallet>",
		Short: "Link a wallet to the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			res, err := a.market.LinkWallet(cmd.Context(), market.LinkWalletParams{
				Authority: actor, VaultCreator: vaultCreator, Wallet: args[0],
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	unlink := &cobra.Command{
		Use:   "unlink <wallet>",
		Short: "Unlink a wallet from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			res, err := a.market.UnlinkWallet(cmd.Context(), market.UnlinkWalletParams{
				Authority: actor, VaultCreator: vaultCreator, Wallet: args[0],
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	transfer := &cobra.Command{
		Use:   "transfer-authority <new-authority>",
		Short: "Hand the vault over to another authority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			res, err := a.market.TransferVaultAuthority(cmd.Context(), market.TransferVaultAuthorityParams{
				Authority: actor, VaultCreator: vaultCreator, NewAuthority: args[0],
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	var tokenProgram string
	withdrawToken := &cobra.Command{
		Use:   "withdraw-token <mint> <destination> <amount>",
		Short: "Move tokens held by the vault to a destination token account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}
			res, err := a.market.WithdrawVaultToken(cmd.Context(), market.WithdrawVaultTokenParams{
				Authority:    actor,
				VaultCreator: vaultCreator,
				Mint:         args[0],
				Destination:  args[1],
				Amount:       amount,
				TokenProgram: tokenProgram,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
	withdrawToken.Flags().StringVar(&tokenProgram, "token-program", "", "token program of the mint (defaults to Token-2022)")

	var (
		buy     bool
		message string
	)
	swap := &cobra.Command{
		Use:   "swap <mint> <amount>",
		Short: "Swap vault funds in the CPMM pool of a migrated token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, vaultCreator, err := owner()
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			res, err := a.market.VaultSwap(cmd.Context(), market.VaultSwapParams{
				Mint:         args[0],
				Signer:       actor,
				VaultCreator: vaultCreator,
				AmountIn:     amount,
				Buy:          buy,
				SlippageBps:  a.slippage(),
				Message:      message,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
	swap.Flags().BoolVar(&buy, "buy", false, "spend SOL for tokens instead of selling tokens")
	swap.Flags().StringVar(&message, "message", "", "memo attached to the swap")

	vault.AddCommand(create, deposit, withdraw, link, unlink, transfer, withdrawToken, swap)
	return vault
}
