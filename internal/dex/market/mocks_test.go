package market

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/launchpad-sdk/internal/blockchain"
)

// MockChainReader реализует blockchain.ChainReader
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	args := m.Called(ctx, pubkey)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockChainReader) GetMultipleAccountsData(ctx context.Context, pubkeys []solana.PublicKey) ([][]byte, error) {
	args := m.Called(ctx, pubkeys)
	data, _ := args.Get(0).([][]byte)
	return data, args.Error(1)
}

func (m *MockChainReader) GetSlot(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainReader) GetTokenAccountAmount(ctx context.Context, account solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainReader) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, mint)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainReader) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Get(1).(uint64), args.Error(2)
}

var _ blockchain.ChainReader = (*MockChainReader)(nil)

var computeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

var testBlockhash = solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N")

// newTestMarket создаёт Market с моком сети и детерминированным минтом.
func newTestMarket(t *testing.T) (*Market, *MockChainReader) {
	t.Helper()

	chain := new(MockChainReader)
	cfg := GetDefaultConfig()
	cfg.VanitySuffix = ""
	cfg.VanityAttempts = 1

	m, err := New(chain, zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	return m, chain
}

func expectBlockhash(chain *MockChainReader) {
	chain.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, uint64(1_000), nil)
}

// encodeAccount собирает данные аккаунта так же, как их пишет программа.
func encodeAccount(t *testing.T, name string, v interface{}) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	disc := anchorDiscriminator("account", name)
	buf.Write(disc[:])
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(v))
	return buf.Bytes()
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func u16(v uint16) *uint16 { return &v }

func testGlobal() *GlobalConfig {
	return &GlobalConfig{
		Authority:               newKey(),
		ProtocolTreasury:        newKey(),
		ProtocolFeeBps:          100,
		TreasuryFeeMaxBps:       2000,
		TreasuryFeeMinBps:       500,
		CommunityBps:            1000,
		InitialVirtualSol:       30_000_000_000,
		InitialVirtualTokens:    1_073_000_000_000_000,
		FundingTarget:           200_000_000_000,
		MaxLtvBps:               5000,
		LiquidationThresholdBps: 6500,
		InterestRateBps:         200,
	}
}

func testCurve(mint, creator solana.PublicKey) *BondingCurve {
	return &BondingCurve{
		Mint:          mint,
		Creator:       creator,
		VirtualSol:    30_000_000_000,
		VirtualTokens: 1_073_000_000_000_000,
		RealTokens:    793_100_000_000_000,
		FundingTarget: 200_000_000_000,
		CreatedSlot:   100,
	}
}

func migratedCurve(mint, creator solana.PublicKey) *BondingCurve {
	c := testCurve(mint, creator)
	c.RealSol = c.FundingTarget
	c.Complete = true
	c.Migrated = true
	return c
}

// expectMarketState отдаёт глобальную конфигурацию и кривую одним пакетным чтением.
func expectMarketState(t *testing.T, m *Market, chain *MockChainReader, global *GlobalConfig, curve *BondingCurve) {
	t.Helper()
	keys := []solana.PublicKey{m.deriver.GlobalConfig(), m.deriver.BondingCurve(curve.Mint)}
	chain.On("GetMultipleAccountsData", mock.Anything, keys).Return([][]byte{
		encodeAccount(t, AccountGlobalConfig, global),
		encodeAccount(t, AccountBondingCurve, curve),
	}, nil)
}

func expectAccount(t *testing.T, chain *MockChainReader, addr solana.PublicKey, name string, v interface{}) {
	t.Helper()
	chain.On("GetAccountData", mock.Anything, addr).Return(encodeAccount(t, name, v), nil)
}

func expectMissing(chain *MockChainReader, addr solana.PublicKey) {
	chain.On("GetAccountData", mock.Anything, addr).Return(nil, blockchain.ErrAccountNotFound)
}

// programInstruction возвращает первую инструкцию программы рынка с данным дискриминатором.
func programInstruction(t *testing.T, tx *solana.Transaction, programID solana.PublicKey, name string) solana.CompiledInstruction {
	t.Helper()
	disc := Instructions[name].Discriminator
	for _, ci := range tx.Message.Instructions {
		pid := tx.Message.AccountKeys[ci.ProgramIDIndex]
		if pid.Equals(programID) && len(ci.Data) >= 8 && bytes.Equal(ci.Data[:8], disc[:]) {
			return ci
		}
	}
	t.Fatalf("instruction %s not found", name)
	return solana.CompiledInstruction{}
}

func instructionIndex(t *testing.T, tx *solana.Transaction, name string) int {
	t.Helper()
	disc := Instructions[name].Discriminator
	for i, ci := range tx.Message.Instructions {
		if len(ci.Data) >= 8 && bytes.Equal(ci.Data[:8], disc[:]) {
			return i
		}
	}
	t.Fatalf("instruction %s not found", name)
	return -1
}

func leUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// accountAt разрешает индекс аккаунта инструкции в адрес.
func accountAt(t *testing.T, tx *solana.Transaction, ci solana.CompiledInstruction, i int) solana.PublicKey {
	t.Helper()
	require.Less(t, i, len(ci.Accounts))
	return tx.Message.AccountKeys[ci.Accounts[i]]
}

// programSequence – последовательность программ инструкций транзакции.
func programSequence(t *testing.T, tx *solana.Transaction) []solana.PublicKey {
	t.Helper()
	out := make([]solana.PublicKey, 0, len(tx.Message.Instructions))
	for _, ci := range tx.Message.Instructions {
		out = append(out, tx.Message.AccountKeys[ci.ProgramIDIndex])
	}
	return out
}
