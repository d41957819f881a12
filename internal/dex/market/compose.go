// =============================
// File: internal/dex/market/compose.go
// =============================
package market

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// MaxTransactionSize – предел размера сериализованной транзакции.
const MaxTransactionSize = 1232

// UnsignedTx – готовая к подписи транзакция. После сборки не изменяется;
// при истечении blockhash вызывающий собирает её заново.
type UnsignedTx struct {
	Tx                   *solana.Transaction
	Summary              string
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	// Signers – подписи, которые ещё нужны от вызывающего
	Signers []solana.PublicKey
}

// Base64 сериализует транзакцию для передачи кошельку.
func (u *UnsignedTx) Base64() (string, error) {
	raw, err := u.Tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// compose ставит blockhash и плательщика, проверяет размер и подписывает эфемерными ключами.
func (m *Market) compose(
	ctx context.Context,
	op string,
	payer solana.PublicKey,
	instructions []solana.Instruction,
	summary string,
	ephemeral ...solana.PrivateKey,
) (*UnsignedTx, error) {
	blockhash, lastValid, err := m.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, compositionFailed(op, "failed to fetch recent blockhash", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, compositionFailed(op, "failed to build transaction", err)
	}

	if err := signEphemeral(tx, ephemeral); err != nil {
		return nil, compositionFailed(op, "failed to sign with ephemeral keys", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, compositionFailed(op, "failed to serialize transaction", err)
	}
	if len(raw) > MaxTransactionSize {
		return nil, compositionFailed(op,
			fmt.Sprintf("transaction is %d bytes, limit is %d", len(raw), MaxTransactionSize), nil)
	}

	var pending []solana.PublicKey
	for i, sig := range tx.Signatures {
		if sig == (solana.Signature{}) {
			pending = append(pending, tx.Message.AccountKeys[i])
		}
	}

	m.logger.Info("Transaction composed",
		zap.String("op", op),
		zap.String("summary", summary),
		zap.Int("instructions", len(instructions)),
		zap.Int("size", len(raw)),
		zap.String("blockhash", blockhash.String()))

	return &UnsignedTx{
		Tx:                   tx,
		Summary:              summary,
		Blockhash:            blockhash,
		LastValidBlockHeight: lastValid,
		Signers:              pending,
	}, nil
}

// signEphemeral создаёт пустые слоты для всех подписантов и заполняет слоты эфемерных ключей.
func signEphemeral(tx *solana.Transaction, ephemeral []solana.PrivateKey) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != required {
		tx.Signatures = make([]solana.Signature, required)
	}
	if len(ephemeral) == 0 {
		return nil
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	for _, key := range ephemeral {
		idx := -1
		for i := 0; i < required; i++ {
			if tx.Message.AccountKeys[i].Equals(key.PublicKey()) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("key %s is not a signer of the transaction", key.PublicKey())
		}
		sig, err := key.Sign(message)
		if err != nil {
			return err
		}
		tx.Signatures[idx] = sig
	}
	return nil
}
