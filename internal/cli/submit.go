// =============================
// File: internal/cli/submit.go
// =============================
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain"
	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
	"github.com/rovshanmuradov/launchpad-sdk/internal/wallet"
)

var errNotConfirmed = errors.New("transaction not confirmed yet")

// confirmer подписывает, отправляет и дожидается подтверждения транзакций.
type confirmer struct {
	submitter  blockchain.Submitter
	analyzer   *solbc.ErrorAnalyzer
	logger     *zap.Logger
	commitment rpc.CommitmentType
	timeout    time.Duration
	// interval – начальный интервал опроса статуса
	interval time.Duration
}

func newConfirmer(submitter blockchain.Submitter, analyzer *solbc.ErrorAnalyzer, logger *zap.Logger,
	commitment rpc.CommitmentType, timeout time.Duration) *confirmer {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &confirmer{
		submitter:  submitter,
		analyzer:   analyzer,
		logger:     logger.Named("confirmer"),
		commitment: commitment,
		timeout:    timeout,
		interval:   500 * time.Millisecond,
	}
}

// submit подписывает транзакцию кошельком и ждёт подтверждения.
func (c *confirmer) submit(ctx context.Context, w *wallet.Wallet, utx *market.UnsignedTx) (solana.Signature, error) {
	if err := checkSigners(w, utx); err != nil {
		return solana.Signature{}, err
	}
	if err := w.SignTransaction(utx.Tx); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.submitter.SendTransactionWithOpts(ctx, utx.Tx, blockchain.TransactionOptions{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, c.analyzer.Analyze(err)
	}
	c.logger.Info("Transaction sent", zap.String("signature", sig.String()), zap.String("summary", utx.Summary))

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// checkSigners – CLI подписывает только одним ключом.
func checkSigners(w *wallet.Wallet, utx *market.UnsignedTx) error {
	for _, s := range utx.Signers {
		if !s.Equals(w.PublicKey) {
			return fmt.Errorf("transaction %q also needs a signature from %s", utx.Summary, s)
		}
	}
	return nil
}

func (c *confirmer) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.interval
	policy.MaxInterval = c.interval * 8

	notify := func(err error, d time.Duration) {
		c.logger.Debug("Waiting for confirmation",
			zap.String("signature", sig.String()), zap.Error(err), zap.Duration("backoff", d))
	}

	operation := func() (struct{}, error) {
		status, err := c.submitter.GetSignatureStatus(ctx, sig)
		if err != nil {
			return struct{}{}, err
		}
		if status == nil {
			return struct{}{}, errNotConfirmed
		}
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(c.analyzer.AnalyzeStatus(status.Err))
		}
		if reached(status.ConfirmationStatus, c.commitment) {
			return struct{}{}, nil
		}
		return struct{}{}, errNotConfirmed
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(c.timeout),
		backoff.WithNotify(notify))
	if errors.Is(err, errNotConfirmed) {
		return fmt.Errorf("transaction %s not confirmed within %s: %w", sig, c.timeout, err)
	}
	return err
}

// reached сравнивает достигнутый уровень подтверждения с требуемым.
func reached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := map[string]int{
		string(rpc.ConfirmationStatusProcessed): 1,
		string(rpc.ConfirmationStatusConfirmed): 2,
		string(rpc.ConfirmationStatusFinalized): 3,
	}
	return rank[string(got)] >= rank[string(want)] && rank[string(got)] > 0
}
