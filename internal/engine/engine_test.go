package engine

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/ocpcrypto"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

func newLayer(t *testing.T, seed seedlock.Seed) *layer.Layer {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	return layer.New(st, seed, nil)
}

func instr(t *testing.T, kind string, payload interface{}) domain.Instruction {
	t.Helper()
	i, err := domain.EncodeInstruction(kind, payload)
	require.NoError(t, err)
	return i
}

func TestExecuteAppliesAcceptedTransactionsInOrder(t *testing.T) {
	l := newLayer(t, seedlock.Seed{})
	alice := []byte("alice")

	txs := []domain.Transaction{
		{Public: alice, Nonce: 0, Instruction: instr(t, domain.InstrRegister, struct{}{})},
		{Public: alice, Nonce: 1, Instruction: instr(t, domain.InstrDepositFaucet, struct{}{})},
	}

	res, err := Execute(l, 1, 10_000, "engine-test", nil, nil, 2, txs)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	require.Equal(t, domain.EventSessionStarted, res.Events[0].Type)
	require.Equal(t, domain.EventSessionStarted, res.Events[1].Type)
	require.Equal(t, uint64(2), res.ProcessedNonces[hex.EncodeToString(alice)])

	acct, err := l.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(2), acct.Nonce)
}

func TestExecuteSkipsNonceMismatchWithoutAborting(t *testing.T) {
	l := newLayer(t, seedlock.Seed{})
	alice := []byte("alice")

	txs := []domain.Transaction{
		{Public: alice, Nonce: 5, Instruction: instr(t, domain.InstrRegister, struct{}{})},
	}

	res, err := Execute(l, 1, 100, "engine-test", nil, nil, 2, txs)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	require.Equal(t, domain.EventCasinoError, res.Events[0].Type)
	require.Empty(t, res.ProcessedNonces)

	_, ok, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExecuteResolvesBattleSettleViaPrecomputeCache(t *testing.T) {
	view := uint64(10)
	sig := []byte("revealed-seed-signature-for-view-10")
	l := newLayer(t, seedlock.Seed{View: view, Signature: sig})

	alice, bob := []byte("alice"), []byte("bob")
	require.NoError(t, l.PutCasinoPlayer(alice, store.CasinoPlayer{Registered: true, Elo: domain.StartingElo}))
	require.NoError(t, l.PutCasinoPlayer(bob, store.CasinoPlayer{Registered: true, Elo: domain.StartingElo}))

	setupTxs := []domain.Transaction{
		{Public: alice, Nonce: 0, Instruction: instr(t, domain.InstrGenerate, struct{}{})},
		{Public: bob, Nonce: 0, Instruction: instr(t, domain.InstrGenerate, struct{}{})},
		{Public: alice, Nonce: 1, Instruction: instr(t, domain.InstrMatch, struct{}{})},
	}
	_, err := Execute(l, 0, 0, "engine-test", nil, nil, 2, setupTxs)
	require.NoError(t, err)

	pa, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.NotZero(t, pa.ActiveBattleID)

	b, _, err := l.GetBattle(pa.ActiveBattleID)
	require.NoError(t, err)
	b.RoundExpiryView = view
	require.NoError(t, l.PutBattle(b))

	var padding [31]byte
	ctA, err := ocpcrypto.SealMove(view, sig, 1, padding)
	require.NoError(t, err)
	ctB, err := ocpcrypto.SealMove(view, sig, 3, padding)
	require.NoError(t, err)

	roundTxs := []domain.Transaction{
		{Public: alice, Nonce: 2, Instruction: instr(t, domain.InstrMove, domain.MovePayload{CiphertextHex: hex.EncodeToString(ctA)})},
		{Public: bob, Nonce: 1, Instruction: instr(t, domain.InstrMove, domain.MovePayload{CiphertextHex: hex.EncodeToString(ctB)})},
	}
	_, err = Execute(l, view, 0, "engine-test", nil, nil, 2, roundTxs)
	require.NoError(t, err)

	settleTxs := []domain.Transaction{
		{Public: alice, Nonce: 3, Instruction: instr(t, domain.InstrSettle, struct{}{})},
	}
	res, err := Execute(l, view, 0, "engine-test", nil, nil, 2, settleTxs)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	require.Equal(t, domain.EventSettled, res.Events[0].Type)

	b, ok, err := l.GetBattle(pa.ActiveBattleID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, b.A.Health < b.A.Creature.MaxHealth)
	require.True(t, b.B.Health < b.B.Creature.MaxHealth)
}
