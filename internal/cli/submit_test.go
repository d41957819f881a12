package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain"
	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain/solbc"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
	"github.com/rovshanmuradov/launchpad-sdk/internal/utils/logger"
	"github.com/rovshanmuradov/launchpad-sdk/internal/wallet"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *mockSubmitter) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*rpc.SignatureStatusesResult, error) {
	args := m.Called(ctx, signature)
	status, _ := args.Get(0).(*rpc.SignatureStatusesResult)
	return status, args.Error(1)
}

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.NewWallet(key.String())
	require.NoError(t, err)
	return w
}

func newTestTx(t *testing.T, signers ...solana.PublicKey) *market.UnsignedTx {
	t.Helper()
	accounts := make([]*solana.AccountMeta, 0, len(signers))
	for _, s := range signers {
		accounts = append(accounts, solana.Meta(s).WRITE().SIGNER())
	}
	ix := solana.NewInstruction(market.MemoProgramID, accounts, []byte("gm"))
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(signers[0]))
	require.NoError(t, err)
	return &market.UnsignedTx{Tx: tx, Summary: "memo", Signers: signers}
}

func newTestConfirmer(t *testing.T, sub blockchain.Submitter) *confirmer {
	log := zaptest.NewLogger(t)
	c := newConfirmer(sub, solbc.NewErrorAnalyzer(log, market.ProgramErrors), log, rpc.CommitmentConfirmed, 2*time.Second)
	c.interval = time.Millisecond
	return c
}

func TestSubmitWaitsForConfirmation(t *testing.T) {
	w := newTestWallet(t)
	utx := newTestTx(t, w.PublicKey)
	sig := solana.Signature{7}

	sub := new(mockSubmitter)
	sub.On("SendTransactionWithOpts", mock.Anything, utx.Tx, mock.Anything).Return(sig, nil).Once()
	sub.On("GetSignatureStatus", mock.Anything, sig).Return(nil, nil).Once()
	sub.On("GetSignatureStatus", mock.Anything, sig).
		Return(&rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed}, nil).Once()
	sub.On("GetSignatureStatus", mock.Anything, sig).
		Return(&rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}, nil).Once()

	got, err := newTestConfirmer(t, sub).submit(context.Background(), w, utx)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	assert.NotEqual(t, solana.Signature{}, utx.Tx.Signatures[0])
	sub.AssertExpectations(t)
}

func TestSubmitMapsSendError(t *testing.T) {
	w := newTestWallet(t)
	utx := newTestTx(t, w.PublicKey)

	sub := new(mockSubmitter)
	sub.On("SendTransactionWithOpts", mock.Anything, utx.Tx, mock.Anything).
		Return(solana.Signature{}, errors.New("Error processing Instruction 0: custom program error: 0x177f")).Once()

	_, err := newTestConfirmer(t, sub).submit(context.Background(), w, utx)

	var pe *solbc.ProgramError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6015, pe.Code)
	sub.AssertNotCalled(t, "GetSignatureStatus", mock.Anything, mock.Anything)
}

func TestSubmitStopsOnFailedStatus(t *testing.T) {
	w := newTestWallet(t)
	utx := newTestTx(t, w.PublicKey)
	sig := solana.Signature{9}

	sub := new(mockSubmitter)
	sub.On("SendTransactionWithOpts", mock.Anything, utx.Tx, mock.Anything).Return(sig, nil).Once()
	sub.On("GetSignatureStatus", mock.Anything, sig).Return(&rpc.SignatureStatusesResult{
		Err: map[string]interface{}{
			"InstructionError": []interface{}{float64(1), map[string]interface{}{"Custom": float64(6015)}},
		},
	}, nil).Once()

	_, err := newTestConfirmer(t, sub).submit(context.Background(), w, utx)

	var pe *solbc.ProgramError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6015, pe.Code)
	sub.AssertExpectations(t)
}

func TestSubmitRejectsForeignSigner(t *testing.T) {
	w := newTestWallet(t)
	other := newTestWallet(t)
	utx := newTestTx(t, w.PublicKey, other.PublicKey)

	sub := new(mockSubmitter)
	_, err := newTestConfirmer(t, sub).submit(context.Background(), w, utx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), other.PublicKey.String())
	sub.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
}

func TestReached(t *testing.T) {
	assert.True(t, reached(rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed))
	assert.True(t, reached(rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed))
	assert.False(t, reached(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.False(t, reached(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
	assert.False(t, reached("", rpc.CommitmentProcessed))
}

func TestPrintResult(t *testing.T) {
	w := newTestWallet(t)
	utx := newTestTx(t, w.PublicKey)

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, &market.Result{Primary: utx}))
	out := buf.String()
	assert.Contains(t, out, "[1] memo")
	assert.Contains(t, out, "signer: "+w.PublicKey.String())
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("lamports", "1000000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), v)

	_, err = parseAmount("lamports", "-1")
	assert.Error(t, err)
	_, err = parseAmount("lamports", "1.5")
	assert.Error(t, err)
}

func TestFinishSubmitsInOrder(t *testing.T) {
	w := newTestWallet(t)
	primary, secondary := newTestTx(t, w.PublicKey), newTestTx(t, w.PublicKey)
	secondary.Summary = "migrate"
	secondary.Tx.Message.RecentBlockhash = solana.Hash{2}
	sigA, sigB := solana.Signature{1}, solana.Signature{2}

	sub := new(mockSubmitter)
	confirmed := &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
	sub.On("SendTransactionWithOpts", mock.Anything, primary.Tx, mock.Anything).Return(sigA, nil).Once()
	sub.On("GetSignatureStatus", mock.Anything, sigA).Return(confirmed, nil).Once()
	sub.On("SendTransactionWithOpts", mock.Anything, secondary.Tx, mock.Anything).Return(sigB, nil).Once()
	sub.On("GetSignatureStatus", mock.Anything, sigB).Return(confirmed, nil).Once()

	log, err := logger.New(&logger.Config{})
	require.NoError(t, err)
	var out bytes.Buffer
	a := &app{submit: true, wallet: w, log: log, confirmer: newTestConfirmer(t, sub), out: &out}

	require.NoError(t, a.finish(context.Background(), &market.Result{Primary: primary, Secondary: secondary}))
	sub.AssertExpectations(t)
	assert.Less(t, bytes.Index(out.Bytes(), []byte(sigA.String())), bytes.Index(out.Bytes(), []byte(sigB.String())))
}
