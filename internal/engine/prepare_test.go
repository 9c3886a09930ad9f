package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/domain"
)

func TestPrepareAcceptsDistinctNonces(t *testing.T) {
	txs := []domain.Transaction{
		{Public: []byte("alice"), Nonce: 0},
		{Public: []byte("alice"), Nonce: 1},
		{Public: []byte("bob"), Nonce: 0},
	}
	require.NoError(t, Prepare(txs))
}

func TestPrepareRejectsDuplicatePublicNonce(t *testing.T) {
	txs := []domain.Transaction{
		{Public: []byte("alice"), Nonce: 0},
		{Public: []byte("alice"), Nonce: 0},
	}
	require.Error(t, Prepare(txs))
}

func TestPrepareRejectsOversizedBlock(t *testing.T) {
	txs := make([]domain.Transaction, domain.MaxBlockTransactions+1)
	for i := range txs {
		txs[i] = domain.Transaction{Public: []byte("alice"), Nonce: uint64(i)}
	}
	require.Error(t, Prepare(txs))
}
