package battle

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

func seedPlayer(t *testing.T, l *layer.Layer, public []byte) {
	t.Helper()
	require.NoError(t, l.PutCasinoPlayer(public, store.CasinoPlayer{Registered: true, Elo: domain.StartingElo}))
}

func TestGenerateThenMatchPairsTwoEntrants(t *testing.T) {
	l := newLayer(t, seedlock.Seed{})
	alice, bob := []byte("alice"), []byte("bob")
	seedPlayer(t, l, alice)
	seedPlayer(t, l, bob)

	_, err := Generate(l, alice, 1, 100)
	require.NoError(t, err)
	_, err = Generate(l, bob, 1, 100)
	require.NoError(t, err)

	ev, err := Match(l, 1)
	require.NoError(t, err)
	require.Equal(t, domain.EventMatched, ev.Type)

	pa, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.NotZero(t, pa.ActiveBattleID)

	b, ok, err := l.GetBattle(pa.ActiveBattleID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), b.Round)
}

func TestMatchWithoutEnoughEntrantsDoesNotPair(t *testing.T) {
	l := newLayer(t, seedlock.Seed{})
	alice := []byte("alice")
	seedPlayer(t, l, alice)
	_, err := Generate(l, alice, 1, 100)
	require.NoError(t, err)

	ev, err := Match(l, 1)
	require.NoError(t, err)
	require.Equal(t, domain.EventMatched, ev.Type)

	lobby, err := l.GetLobby()
	require.NoError(t, err)
	require.Len(t, lobby.Entrants, 1)
}

func TestMoveThenSettleResolvesRound(t *testing.T) {
	view := uint64(10)
	sig := []byte("revealed-seed-signature-for-view-10")
	l := newLayer(t, seedlock.Seed{View: view, Signature: sig})

	alice, bob := []byte("alice"), []byte("bob")
	seedPlayer(t, l, alice)
	seedPlayer(t, l, bob)
	_, err := Generate(l, alice, 0, 0)
	require.NoError(t, err)
	_, err = Generate(l, bob, 0, 0)
	require.NoError(t, err)
	_, err = Match(l, 0)
	require.NoError(t, err)

	pa, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	b, _, err := l.GetBattle(pa.ActiveBattleID)
	require.NoError(t, err)
	b.RoundExpiryView = view
	require.NoError(t, l.PutBattle(b))

	var padding [31]byte
	ctA, err := ocpcrypto.SealMove(view, sig, 1, padding)
	require.NoError(t, err)
	ctB, err := ocpcrypto.SealMove(view, sig, 3, padding)
	require.NoError(t, err)

	_, err = Move(l, alice, domain.MovePayload{CiphertextHex: hex.EncodeToString(ctA)})
	require.NoError(t, err)
	_, err = Move(l, bob, domain.MovePayload{CiphertextHex: hex.EncodeToString(ctB)})
	require.NoError(t, err)

	cache, err := seedlock.Extract("battle-test", nil, view, seedlock.Seed{View: view, Signature: sig},
		[]seedlock.Task{seedlock.DecryptTask(view, ctA), seedlock.DecryptTask(view, ctB)}, nil, 2)
	require.NoError(t, err)
	l.Cache = cache

	ev, err := Settle(l, alice, view)
	require.NoError(t, err)
	require.Equal(t, domain.EventSettled, ev.Type)

	b, ok, err := l.GetBattle(pa.ActiveBattleID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, b.A.Health < b.A.Creature.MaxHealth)
	require.True(t, b.B.Health < b.B.Creature.MaxHealth)
}

func TestSettleAtRoundCapWithBothAliveIsAlwaysDraw(t *testing.T) {
	view := uint64(5)
	l := newLayer(t, seedlock.Seed{View: view})
	alice, bob := []byte("alice"), []byte("bob")
	seedPlayer(t, l, alice)
	seedPlayer(t, l, bob)

	creature := store.Creature{MaxHealth: 100, Attack: 10, Defense: 5}
	b := store.Battle{
		ID:              1,
		A:               store.BattleSide{Public: pub(alice), Creature: creature, Health: 80},
		B:               store.BattleSide{Public: pub(bob), Creature: creature, Health: 20},
		Round:           domain.MaxBattleRounds,
		RoundExpiryView: view,
	}
	require.NoError(t, l.PutBattle(b))
	pa, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	pa.ActiveBattleID = b.ID
	require.NoError(t, l.PutCasinoPlayer(alice, pa))
	pb, _, err := l.GetCasinoPlayer(bob)
	require.NoError(t, err)
	pb.ActiveBattleID = b.ID
	require.NoError(t, l.PutCasinoPlayer(bob, pb))

	_, err = Settle(l, alice, view)
	require.NoError(t, err)

	got, ok, err := l.GetBattle(b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.IsOver)
	require.Equal(t, "Draw", got.Outcome, "round cap with both players alive must always be a Draw, regardless of remaining health")
}

func TestSettleBeforeRoundExpiryIsRejected(t *testing.T) {
	l := newLayer(t, seedlock.Seed{View: 0})
	alice, bob := []byte("alice"), []byte("bob")
	seedPlayer(t, l, alice)
	seedPlayer(t, l, bob)
	_, err := Generate(l, alice, 0, 0)
	require.NoError(t, err)
	_, err = Generate(l, bob, 0, 0)
	require.NoError(t, err)
	_, err = Match(l, 0)
	require.NoError(t, err)

	ev, err := Settle(l, alice, 0)
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}
