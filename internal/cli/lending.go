// =============================
// File: internal/cli/lending.go
// =============================
package cli

import (
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
)

func (a *app) loanCommand() *cobra.Command {
	var vault string
	loan := &cobra.Command{
		Use:   "loan",
		Short: "Borrow SOL against migrated tokens",
	}
	loan.PersistentFlags().StringVar(&vault, "vault", "", "route SOL through the vault of this creator")

	health := &cobra.Command{
		Use:   "health <mint> [borrower]",
		Short: "Show the advisory health of a loan",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var borrower string
			if len(args) == 2 {
				borrower = args[1]
			} else {
				var err error
				if borrower, err = a.actor(); err != nil {
					return err
				}
			}
			h, err := a.market.LoanHealth(cmd.Context(), args[0], borrower)
			if err != nil {
				return err
			}
			printLoanHealth(a.out, h)
			return nil
		},
	}

	borrow := &cobra.Command{
		Use:   "borrow <mint> <collateral-tokens> <lamports>",
		Short: "Lock tokens as collateral and borrow SOL",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrower, err := a.actor()
			if err != nil {
				return err
			}
			collateral, err := parseAmount("collateral", args[1])
			if err != nil {
				return err
			}
			sol, err := parseAmount("lamports", args[2])
			if err != nil {
				return err
			}
			res, err := a.market.Borrow(cmd.Context(), market.BorrowParams{
				Mint:             args[0],
				Borrower:         borrower,
				CollateralAmount: collateral,
				SolToBorrow:      sol,
				VaultCreator:     vault,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	repay := &cobra.Command{
		Use:   "repay <mint> <lamports>",
		Short: "Repay part or all of a loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrower, err := a.actor()
			if err != nil {
				return err
			}
			amount, err := parseAmount("lamports", args[1])
			if err != nil {
				return err
			}
			res, err := a.market.Repay(cmd.Context(), market.RepayParams{
				Mint: args[0], Borrower: borrower, Lamports: amount, VaultCreator: vault,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	liquidate := &cobra.Command{
		Use:   "liquidate <mint> <borrower>",
		Short: "Liquidate an unhealthy loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			liquidator, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.Liquidate(cmd.Context(), market.LiquidateParams{
				Mint: args[0], Liquidator: liquidator, Borrower: args[1], VaultCreator: vault,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}

	loan.AddCommand(health, borrow, repay, liquidate)
	return loan
}
