// =============================
// File: internal/cli/treasury.go
// =============================
package cli

import (
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
)

func (a *app) buybackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "buyback <mint>",
		Short: "Crank the treasury buyback when its guards pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.AutoBuyback(cmd.Context(), market.AutoBuybackParams{
				Mint: args[0], Payer: payer, SlippageBps: a.slippage(),
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
}

func (a *app) harvestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest <mint> <source>...",
		Short: "Harvest withheld transfer fees into the treasury",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.HarvestFees(cmd.Context(), market.HarvestFeesParams{
				Mint: args[0], Payer: payer, Sources: args[1:],
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
}

func (a *app) swapFeesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "swap-fees <mint>",
		Short: "Swap harvested treasury tokens to SOL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.SwapFeesToSol(cmd.Context(), market.SwapFeesToSolParams{
				Mint: args[0], Payer: payer, SlippageBps: a.slippage(),
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
}

func (a *app) claimCommand() *cobra.Command {
	var vault string
	cmd := &cobra.Command{
		Use:   "claim-rewards",
		Short: "Claim protocol rewards accrued by the acting wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.ClaimProtocolRewards(cmd.Context(), market.ClaimProtocolRewardsParams{
				User: user, VaultCreator: vault,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
	cmd.Flags().StringVar(&vault, "vault", "", "credit rewards to the vault of this creator")
	return cmd
}
