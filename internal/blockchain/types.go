// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound is returned by ChainReader implementations when an account has no data.
var ErrAccountNotFound = errors.New("account not found")

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// ChainReader is the read-only view of the network used by the planning layer.
// Implementations must be safe for concurrent use.
type ChainReader interface {
	// GetAccountData returns raw account bytes or ErrAccountNotFound.
	GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error)
	// GetMultipleAccountsData returns one entry per key; missing accounts are nil.
	GetMultipleAccountsData(ctx context.Context, pubkeys []solana.PublicKey) ([][]byte, error)
	// GetSlot returns the current slot, used as chain time.
	GetSlot(ctx context.Context) (uint64, error)
	// GetTokenAccountAmount returns the raw amount held by a token account.
	GetTokenAccountAmount(ctx context.Context, account solana.PublicKey) (uint64, error)
	// GetTokenSupply returns the raw supply of a mint.
	GetTokenSupply(ctx context.Context, mint solana.PublicKey) (uint64, error)
	// GetLatestBlockhash returns the freshness token and its last valid block height.
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

// Submitter отправляет подписанные транзакции. Используется только CLI.
type Submitter interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, signature solana.Signature) (*rpc.SignatureStatusesResult, error)
}
