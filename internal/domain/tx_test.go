package domain

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionSignRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	instr, err := EncodeInstruction(InstrRegister, struct{}{})
	require.NoError(t, err)

	tx := Transaction{Public: pub, Nonce: 0, Instruction: instr}
	tx.Sign(priv)

	require.True(t, tx.Verify())

	tx.Nonce = 1
	require.False(t, tx.Verify())
}

func TestEncodeDecodeTransactionIsIdentity(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	instr, err := EncodeInstruction(InstrSwap, SwapPayload{AmountIn: 10, MinAmountOut: 1})
	require.NoError(t, err)
	tx := Transaction{Public: pub, Nonce: 3, Instruction: instr}
	tx.Sign(priv)

	b, err := EncodeTransaction(tx)
	require.NoError(t, err)

	out, err := DecodeTransaction(b)
	require.NoError(t, err)
	require.Equal(t, tx.Nonce, out.Nonce)
	require.True(t, out.Verify())
}

func TestVerifyBatchReportsFirstFailure(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	instr, _ := EncodeInstruction(InstrRegister, struct{}{})

	good := Transaction{Public: pub, Nonce: 0, Instruction: instr}
	good.Sign(priv)

	bad := Transaction{Public: pub, Nonce: 1, Instruction: instr}
	bad.Sign(priv)
	bad.Nonce = 2 // invalidate without resigning

	idx, err := VerifyBatch([]Transaction{good, bad})
	require.Error(t, err)
	require.Equal(t, 1, idx)
}
