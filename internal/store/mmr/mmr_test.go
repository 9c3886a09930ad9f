package mmr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootChangesOnAppend(t *testing.T) {
	m := New()
	roots := map[[32]byte]bool{}
	for i := 0; i < 9; i++ {
		m.Add([]byte(fmt.Sprintf("op-%d", i)))
		r := m.Root()
		require.False(t, roots[r], "root repeated at size %d", i+1)
		roots[r] = true
	}
	require.Equal(t, 9, m.Size())
}

func TestProofRoundTrip(t *testing.T) {
	m := New()
	var data [][]byte
	for i := 0; i < 37; i++ {
		d := []byte(fmt.Sprintf("leaf-%d", i))
		data = append(data, d)
		m.Add(d)
	}
	root := m.Root()
	for i := range data {
		p, err := m.GenerateProof(i)
		require.NoError(t, err)
		require.True(t, VerifyProof(root, data[i], p), "proof failed for leaf %d", i)
	}
}

func TestProofRejectsWrongLeaf(t *testing.T) {
	m := New()
	m.Add([]byte("a"))
	m.Add([]byte("b"))
	m.Add([]byte("c"))
	root := m.Root()
	p, err := m.GenerateProof(1)
	require.NoError(t, err)
	require.False(t, VerifyProof(root, []byte("wrong"), p))
}

func TestRangeProof(t *testing.T) {
	m := New()
	var data [][]byte
	for i := 0; i < 20; i++ {
		d := []byte(fmt.Sprintf("op-%d", i))
		data = append(data, d)
		m.Add(d)
	}
	root := m.Root()
	rp, err := m.GenerateRangeProof(5, 12, data[5:12])
	require.NoError(t, err)
	require.True(t, VerifyRangeProof(root, 5, rp))
}

func TestOutOfRange(t *testing.T) {
	m := New()
	m.Add([]byte("a"))
	_, err := m.GenerateProof(5)
	require.ErrorIs(t, err, ErrOutOfRange)
}
