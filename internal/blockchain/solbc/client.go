// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain"
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc        *rpc.Client
	logger     *zap.Logger
	commitment rpc.CommitmentType
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, commitment rpc.CommitmentType, logger *zap.Logger) *Client {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &Client{
		rpc:        rpc.New(rpcURL),
		logger:     logger.Named("solbc-client"),
		commitment: commitment,
	}
}

// GetAccountData получает бинарные данные аккаунта.
func (c *Client) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", pubkey, blockchain.ErrAccountNotFound)
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%s: %w", pubkey, blockchain.ErrAccountNotFound)
	}
	return result.Value.Data.GetBinary(), nil
}

// GetMultipleAccountsData получает данные нескольких аккаунтов за один запрос.
func (c *Client) GetMultipleAccountsData(ctx context.Context, pubkeys []solana.PublicKey) ([][]byte, error) {
	if len(pubkeys) == 0 {
		return nil, nil
	}

	res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, pubkeys, &rpc.GetMultipleAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		c.logger.Debug("GetMultipleAccounts error", zap.Int("count", len(pubkeys)), zap.Error(err))
		return nil, err
	}

	data := make([][]byte, len(pubkeys))
	for i, info := range res.Value {
		if i >= len(data) {
			break
		}
		if info != nil {
			data[i] = info.Data.GetBinary()
		}
	}
	return data, nil
}

// GetSlot возвращает текущий слот.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	slot, err := c.rpc.GetSlot(ctx, c.commitment)
	if err != nil {
		c.logger.Debug("GetSlot error", zap.Error(err))
		return 0, err
	}
	return slot, nil
}

// GetTokenAccountAmount получает баланс токенного аккаунта в минимальных единицах.
func (c *Client) GetTokenAccountAmount(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		if isMissingAccount(err) {
			return 0, fmt.Errorf("%s: %w", account, blockchain.ErrAccountNotFound)
		}
		c.logger.Debug("GetTokenAccountBalance error",
			zap.String("account", account.String()),
			zap.Error(err))
		return 0, err
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("%s: %w", account, blockchain.ErrAccountNotFound)
	}
	return parseAmount(result.Value.Amount)
}

// GetTokenSupply получает эмиссию минта в минимальных единицах.
func (c *Client) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenSupply(ctx, mint, c.commitment)
	if err != nil {
		if isMissingAccount(err) {
			return 0, fmt.Errorf("%s: %w", mint, blockchain.ErrAccountNotFound)
		}
		c.logger.Debug("GetTokenSupply error",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return 0, err
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("%s: %w", mint, blockchain.ErrAccountNotFound)
	}
	return parseAmount(result.Value.Amount)
}

// GetLatestBlockhash получает последний blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, 0, err
	}
	if result == nil || result.Value == nil {
		return solana.Hash{}, 0, fmt.Errorf("empty blockhash response")
	}
	return result.Value.Blockhash, result.Value.LastValidBlockHeight, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetSignatureStatus получает статус одной транзакции; nil означает, что она ещё не видна.
func (c *Client) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*rpc.SignatureStatusesResult, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
	if err != nil {
		c.logger.Warn("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	if result == nil || len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}

// isMissingAccount: узел отвечает на запрос баланса/эмиссии несуществующего аккаунта
// ошибкой -32602 "Invalid param: could not find account".
func isMissingAccount(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == invalidParamsCode && strings.Contains(rpcErr.Message, "could not find account")
}

const invalidParamsCode = -32602

func parseAmount(raw string) (uint64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty token amount")
	}
	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token amount %q: %w", raw, err)
	}
	return amount, nil
}

// Гарантируем, что Client реализует интерфейсы blockchain.
var (
	_ blockchain.ChainReader = (*Client)(nil)
	_ blockchain.Submitter   = (*Client)(nil)
)
