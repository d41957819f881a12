// Package market plans transactions for the fair-launch token market program on Solana.
//
// The package turns a high-level intent (buy, sell, star, vault management, lending,
// buyback crank, fee harvest, migration) into fully resolved, correctly ordered,
// unsigned transactions. It never signs with user keys and never submits anything.
//
// Components:
//
//   - addresses.go: deterministic program-derived addresses (Deriver).
//   - quote.go: bonding curve quotes, price and price impact.
//   - guard.go, loan.go: pre-flight checks and advisory loan health.
//   - descriptor.go, instructions.go, funding.go: instruction encoding and account wiring.
//   - intents_*.go: one Market method per intent.
//   - compose.go: blockhash, fee payer, size check, ephemeral signatures.
//   - accounts.go, reader.go: decoding of remote account state.
//   - vanity.go: mint keypair generation with a cosmetic suffix.
//
// Local checks fail fast and produce actionable errors. They are not a security
// boundary: the program re-validates everything, including signer authority.
//
// Usage example:
//
//	client := solbc.NewClient(rpcURL, rpc.CommitmentConfirmed, logger)
//	m, err := market.New(client, logger, market.GetDefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := m.Buy(ctx, market.BuyParams{
//	    Mint:           "MINT_ADDRESS",
//	    Buyer:          "WALLET_ADDRESS",
//	    AmountLamports: 1_000_000_000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// res.Primary, and res.Secondary when the buy completes the curve
package market
