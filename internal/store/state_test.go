package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/store/mmr"
)

func TestUpdateVisibleBeforeSync(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutAccount([]byte("alice"), Account{Nonce: 3}))
	a, err := s.GetAccount([]byte("alice"))
	require.NoError(t, err)
	require.Equal(t, uint64(3), a.Nonce)
	require.Equal(t, 0, s.OpCount(), "sync has not run yet")
}

func TestSyncProducesContiguousRanges(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutAccount([]byte("alice"), Account{Nonce: 1}))
	require.NoError(t, s.PutAccount([]byte("bob"), Account{Nonce: 1}))
	start1, end1, err := s.Sync()
	require.NoError(t, err)
	require.Equal(t, 0, start1)
	require.Equal(t, 2, end1)

	require.NoError(t, s.PutAccount([]byte("carol"), Account{Nonce: 1}))
	start2, end2, err := s.Sync()
	require.NoError(t, err)
	require.Equal(t, end1, start2, "second block's range starts where the first ended")
	require.Equal(t, 3, end2)
}

func TestHistoricalProofRoundTrip(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.PutAccount([]byte{byte(i)}, Account{Nonce: uint64(i)}))
	}
	_, end, err := s.Sync()
	require.NoError(t, err)

	root := s.Root()
	proof, err := s.HistoricalProof(2, 7)
	require.NoError(t, err)
	require.True(t, mmr.VerifyRangeProof(root, 2, proof))
	require.Equal(t, 10, end)
}

func TestDeleteRemovesFromLive(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutAccount([]byte("alice"), Account{Nonce: 1}))
	require.NoError(t, s.Delete(AccountKey([]byte("alice"))))
	_, ok, err := s.Get(AccountKey([]byte("alice")))
	require.NoError(t, err)
	require.False(t, ok)
}
