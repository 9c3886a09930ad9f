package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/domain"
)

func tx(public string, nonce uint64) domain.Transaction {
	return domain.Transaction{Public: []byte(public), Nonce: nonce}
}

func TestAddAcceptsDistinctNonces(t *testing.T) {
	m := New(100, 10)
	out := m.Add(tx("alice", 0), 1000)
	require.True(t, out.Added)
	out = m.Add(tx("alice", 1), 1001)
	require.True(t, out.Added)

	total, accounts := m.Stats()
	require.Equal(t, 2, total)
	require.Equal(t, 1, accounts)
}

func TestAddRejectsDuplicateNonce(t *testing.T) {
	m := New(100, 10)
	require.True(t, m.Add(tx("alice", 0), 1000).Added)

	out := m.Add(tx("alice", 0), 1001)
	require.False(t, out.Added)
	require.Equal(t, ReasonDuplicateNonce, out.Reason)
}

func TestAddRejectsGlobalCapacity(t *testing.T) {
	m := New(1, 10)
	require.True(t, m.Add(tx("alice", 0), 1000).Added)

	out := m.Add(tx("bob", 0), 1001)
	require.False(t, out.Added)
	require.Equal(t, ReasonGlobalCapacity, out.Reason)
}

func TestAddTrimsHighestNonceToMakeRoomForLower(t *testing.T) {
	m := New(100, 2)
	require.True(t, m.Add(tx("alice", 0), 1000).Added)
	require.True(t, m.Add(tx("alice", 5), 1001).Added)

	out := m.Add(tx("alice", 1), 1002)
	require.True(t, out.Added)
	require.True(t, out.Trimmed)

	batch := m.PeekBatch(10)
	nonces := map[uint64]bool{}
	for _, tx := range batch {
		nonces[tx.Nonce] = true
	}
	require.True(t, nonces[0])
	require.True(t, nonces[1])
	require.False(t, nonces[5])
}

func TestAddRejectsBacklogLimitWhenNewEntryIsWorst(t *testing.T) {
	m := New(100, 2)
	require.True(t, m.Add(tx("alice", 0), 1000).Added)
	require.True(t, m.Add(tx("alice", 1), 1001).Added)

	out := m.Add(tx("alice", 2), 1002)
	require.False(t, out.Added)
	require.Equal(t, ReasonBacklogLimit, out.Reason)
}

func TestPeekBatchIsNonDestructive(t *testing.T) {
	m := New(100, 10)
	m.Add(tx("alice", 0), 1000)

	first := m.PeekBatch(10)
	second := m.PeekBatch(10)
	require.Equal(t, first, second)
	total, _ := m.Stats()
	require.Equal(t, 1, total)
}

func TestRetainDropsBelowNextNonce(t *testing.T) {
	m := New(100, 10)
	m.Add(tx("alice", 0), 1000)
	m.Add(tx("alice", 1), 1001)
	m.Add(tx("alice", 2), 1002)

	m.Retain([]byte("alice"), 2)

	batch := m.PeekBatch(10)
	require.Len(t, batch, 1)
	require.Equal(t, uint64(2), batch[0].Nonce)
}

func TestOldestAgeMsReflectsInsertionOrder(t *testing.T) {
	m := New(100, 10)
	_, ok := m.OldestAgeMs(5000)
	require.False(t, ok)

	m.Add(tx("alice", 0), 1000)
	age, ok := m.OldestAgeMs(5000)
	require.True(t, ok)
	require.Equal(t, uint64(4000), age)
}
