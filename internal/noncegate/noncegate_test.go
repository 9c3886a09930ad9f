package noncegate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/layer"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

func newLayer(t *testing.T) (*layer.Layer, *store.State) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	return layer.New(st, seedlock.Seed{}, nil), st
}

func TestPrepareAcceptsExpectedNonce(t *testing.T) {
	l, _ := newLayer(t)
	pub := []byte("alice")

	res, err := Prepare(l, pub, 0)
	require.NoError(t, err)
	require.Equal(t, Accepted, res.Outcome)

	acct, err := l.GetAccount(pub)
	require.NoError(t, err)
	require.Equal(t, uint64(1), acct.Nonce)
}

func TestPrepareRejectsGapOrReplay(t *testing.T) {
	l, _ := newLayer(t)
	pub := []byte("bob")

	_, err := Prepare(l, pub, 0)
	require.NoError(t, err)

	res, err := Prepare(l, pub, 0) // replay
	require.NoError(t, err)
	require.Equal(t, RejectedMismatch, res.Outcome)
	require.Equal(t, uint64(1), res.Expected)
	require.Equal(t, uint64(0), res.Got)

	res, err = Prepare(l, pub, 5) // gap
	require.NoError(t, err)
	require.Equal(t, RejectedMismatch, res.Outcome)
}

func TestPrepareTwiceSameNonceSucceedsOnceFailsOnce(t *testing.T) {
	l, _ := newLayer(t)
	pub := []byte("carol")

	res1, err := Prepare(l, pub, 0)
	require.NoError(t, err)
	res2, err := Prepare(l, pub, 0)
	require.NoError(t, err)

	require.Equal(t, Accepted, res1.Outcome)
	require.Equal(t, RejectedMismatch, res2.Outcome)
}

func TestIntraBlockProgressionVisible(t *testing.T) {
	l, _ := newLayer(t)
	pub := []byte("dave")

	_, err := Prepare(l, pub, 0)
	require.NoError(t, err)
	res, err := Prepare(l, pub, 1)
	require.NoError(t, err)
	require.Equal(t, Accepted, res.Outcome)
}
