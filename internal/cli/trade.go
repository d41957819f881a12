// =============================
// File: internal/cli/trade.go
// =============================
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
)

func (a *app) quoteCommands() []*cobra.Command {
	quoteBuy := &cobra.Command{
		Use:   "quote-buy <mint> <lamports>",
		Short: "Quote a bonding-curve buy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("lamports", args[1])
			if err != nil {
				return err
			}
			q, err := a.market.QuoteBuy(cmd.Context(), args[0], amount, a.slippage())
			if err != nil {
				return err
			}
			printBuyQuote(a.out, q)
			return nil
		},
	}

	quoteSell := &cobra.Command{
		Use:   "quote-sell <mint> <tokens>",
		Short: "Quote a bonding-curve sell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("tokens", args[1])
			if err != nil {
				return err
			}
			q, err := a.market.QuoteSell(cmd.Context(), args[0], amount, a.slippage())
			if err != nil {
				return err
			}
			printSellQuote(a.out, q)
			return nil
		},
	}
	return []*cobra.Command{quoteBuy, quoteSell}
}

func (a *app) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> <symbol> <uri>",
		Short: "Create a token with its bonding curve",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			creator, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.CreateToken(cmd.Context(), market.CreateTokenParams{
				Creator: creator,
				Name:    args[0],
				Symbol:  args[1],
				URI:     args[2],
			})
			if err != nil {
				return err
			}
			a.log.WithMint(res.Mint.String(), creator).Info("Token creation planned",
				zap.String("name", args[0]), zap.String("symbol", args[1]))
			return a.finish(cmd.Context(), res)
		},
	}
}

func (a *app) buyCommand() *cobra.Command {
	var (
		message string
		vault   string
		vote    string
	)
	cmd := &cobra.Command{
		Use:   "buy <mint> <lamports>",
		Short: "Buy tokens on the bonding curve",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			buyer, err := a.actor()
			if err != nil {
				return err
			}
			amount, err := parseAmount("lamports", args[1])
			if err != nil {
				return err
			}
			params := market.BuyParams{
				Mint:           args[0],
				Buyer:          buyer,
				AmountLamports: amount,
				SlippageBps:    a.slippage(),
				Message:        message,
				VaultCreator:   vault,
			}
			switch vote {
			case "up":
				v := true
				params.Vote = &v
			case "down":
				v := false
				params.Vote = &v
			}
			res, err := a.market.Buy(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "memo attached to the trade")
	cmd.Flags().StringVar(&vault, "vault", "", "fund the trade from the vault of this creator")
	cmd.Flags().StringVar(&vote, "vote", "", "community vote: up or down")
	return cmd
}

func (a *app) sellCommand() *cobra.Command {
	var message, vault string
	cmd := &cobra.Command{
		Use:   "sell <mint> <tokens>",
		Short: "Sell tokens back to the bonding curve",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seller, err := a.actor()
			if err != nil {
				return err
			}
			amount, err := parseAmount("tokens", args[1])
			if err != nil {
				return err
			}
			res, err := a.market.Sell(cmd.Context(), market.SellParams{
				Mint:         args[0],
				Seller:       seller,
				TokenAmount:  amount,
				SlippageBps:  a.slippage(),
				Message:      message,
				VaultCreator: vault,
			})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "memo attached to the trade")
	cmd.Flags().StringVar(&vault, "vault", "", "sell from the vault of this creator")
	return cmd
}

func (a *app) starCommand() *cobra.Command {
	var vault string
	cmd := &cobra.Command{
		Use:   "star <mint>",
		Short: "Star a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.Star(cmd.Context(), market.StarParams{Mint: args[0], User: user, VaultCreator: vault})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
	cmd.Flags().StringVar(&vault, "vault", "", "pay the star fee from the vault of this creator")
	return cmd
}

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <mint>",
		Short: "Migrate a completed curve into the CPMM pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.market.Migrate(cmd.Context(), market.MigrateParams{Mint: args[0], Payer: payer})
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), res)
		},
	}
}
