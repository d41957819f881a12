// =============================
// File: internal/cli/output.go
// =============================
package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
)

func printResult(w io.Writer, res *market.Result) error {
	if !res.Mint.IsZero() {
		fmt.Fprintf(w, "mint: %s\n", res.Mint)
	}
	if q := res.BuyQuote; q != nil {
		printBuyQuote(w, q)
	}
	if q := res.SellQuote; q != nil {
		printSellQuote(w, q)
	}
	for i, utx := range res.Transactions() {
		encoded, err := utx.Base64()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "[%d] %s\n", i+1, utx.Summary)
		fmt.Fprintf(w, "  last valid block height: %d\n", utx.LastValidBlockHeight)
		for _, s := range utx.Signers {
			fmt.Fprintf(w, "  signer: %s\n", s)
		}
		fmt.Fprintf(w, "  %s\n", encoded)
	}
	return nil
}

func printBuyQuote(w io.Writer, q *market.BuyQuote) {
	fmt.Fprintf(w, "tokens out:      %d (user %d, community %d)\n", q.TokensOut, q.TokensToUser, q.TokensToCommunity)
	fmt.Fprintf(w, "fees:            protocol %d, treasury %d lamports\n", q.ProtocolFee, q.TreasuryFee)
	fmt.Fprintf(w, "min tokens out:  %d\n", q.MinAmountOut)
	fmt.Fprintf(w, "price impact:    %d bps\n", q.PriceImpactBps)
	if q.CompletesCurve {
		fmt.Fprintln(w, "completes curve: yes, migration follows")
	}
}

func printSellQuote(w io.Writer, q *market.SellQuote) {
	fmt.Fprintf(w, "sol out:       %d lamports\n", q.SolOut)
	fmt.Fprintf(w, "min sol out:   %d\n", q.MinAmountOut)
	fmt.Fprintf(w, "price impact:  %d bps\n", q.PriceImpactBps)
}

func printLoanHealth(w io.Writer, h *market.LoanHealth) {
	fmt.Fprintf(w, "status: %s\n", h.Status)
	if h.Position == nil {
		return
	}
	fmt.Fprintf(w, "collateral: %d tokens (~%d lamports)\n", h.Position.Collateral, h.CollateralValue)
	fmt.Fprintf(w, "debt:       %d lamports\n", h.Debt)
	fmt.Fprintf(w, "ltv:        %d bps (advisory, the program decides liquidation)\n", h.LTVBps)
}

func parseAmount(name, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}
