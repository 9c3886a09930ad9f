package casino

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

func newLayer(t *testing.T) *layer.Layer {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	return layer.New(st, seedlock.Seed{}, nil)
}

func TestRegisterThenDuplicateIsAdmissionError(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")

	ev, err := Register(l, alice, 1000)
	require.NoError(t, err)
	require.Equal(t, domain.EventSessionStarted, ev.Type)

	p, ok, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(domain.StartingChips), p.CashChips)

	ev, err = Register(l, alice, 1001)
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}

func TestDepositFaucetRespectsCooldown(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	_, err := Register(l, alice, 0)
	require.NoError(t, err)

	ev, err := DepositFaucet(l, alice, 10)
	require.NoError(t, err)
	require.Equal(t, domain.EventSessionStarted, ev.Type)

	ev, err = DepositFaucet(l, alice, 20)
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)

	ev, err = DepositFaucet(l, alice, 10+domain.FaucetCooldownSecs)
	require.NoError(t, err)
	require.Equal(t, domain.EventSessionStarted, ev.Type)
}

func TestStartGameDeductsBetAndRejectsDuplicateSession(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	_, err := Register(l, alice, 0)
	require.NoError(t, err)

	ev, err := StartGame(l, alice, 0, 0, domain.StartGamePayload{GameType: "Dice", Bet: 100, SessionID: 1})
	require.NoError(t, err)
	require.Equal(t, domain.EventSessionStarted, ev.Type)

	p, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(domain.StartingChips)-100, p.CashChips)

	ev, err = StartGame(l, alice, 0, 0, domain.StartGamePayload{GameType: "Dice", Bet: 100, SessionID: 1})
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}

func TestGameMoveEventuallyCompletesSession(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	_, err := Register(l, alice, 0)
	require.NoError(t, err)
	_, err = StartGame(l, alice, 0, 0, domain.StartGamePayload{GameType: "Dice", Bet: 100, SessionID: 7})
	require.NoError(t, err)

	complete := false
	for i := 0; i < 50 && !complete; i++ {
		ev, err := GameMove(l, alice, 0, domain.GameMovePayload{SessionID: 7})
		require.NoError(t, err)
		require.Equal(t, domain.EventSessionResolved, ev.Type)

		sess, ok, err := l.GetSession(7)
		require.NoError(t, err)
		require.True(t, ok)
		complete = sess.IsComplete
	}
	require.True(t, complete, "session should terminate within 50 rounds")
}

func TestJoinTournamentRequiresRegistrationPhase(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	_, err := Register(l, alice, 0)
	require.NoError(t, err)

	ev, err := JoinTournament(l, alice, 0, domain.JoinTournamentPayload{TournamentID: 1})
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type) // no such tournament yet

	require.NoError(t, l.PutTournament(store.Tournament{ID: 1, Phase: store.PhaseRegistration}))
	ev, err = JoinTournament(l, alice, 0, domain.JoinTournamentPayload{TournamentID: 1})
	require.NoError(t, err)
	require.Equal(t, domain.EventTournamentJoined, ev.Type)
}

func TestStartAndEndTournamentDistributesFreerollCredits(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	bob := []byte("bob")
	for _, p := range [][]byte{alice, bob} {
		_, err := Register(l, p, 0)
		require.NoError(t, err)
	}
	require.NoError(t, l.PutTournament(store.Tournament{ID: 1, Phase: store.PhaseRegistration}))
	for _, p := range [][]byte{alice, bob} {
		_, err := JoinTournament(l, p, 0, domain.JoinTournamentPayload{TournamentID: 1})
		require.NoError(t, err)
	}

	require.NoError(t, l.PutPolicy(store.PolicyState{
		AnnualEmissionRateBps: 200, RewardPoolBps: 1500,
	}))

	_, err := StartTournament(l, 0, domain.StartTournamentPayload{TournamentID: 1, StartingChips: 10_000})
	require.NoError(t, err)

	alicePlayer, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	alicePlayer.TournamentChips = 20_000 // alice wins
	require.NoError(t, l.PutCasinoPlayer(alice, alicePlayer))

	ev, err := EndTournament(l, 1200, domain.EndTournamentPayload{TournamentID: 1})
	require.NoError(t, err)
	require.Equal(t, domain.EventTournamentEnded, ev.Type)

	credit, err := l.GetFreerollCredit(alice)
	require.NoError(t, err)
	require.True(t, credit.Immediate+credit.Locked > 0)

	alicePlayer, _, err = l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.False(t, alicePlayer.InTournament)
}

func TestPlayerActionArmsAndDisarmsModifiersIndependentlyOfPool(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	_, err := Register(l, alice, 0)
	require.NoError(t, err)

	p, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	p.CashDoubles = 1
	p.CashShields = 1
	require.NoError(t, l.PutCasinoPlayer(alice, p))

	_, err = PlayerAction(l, alice, domain.PlayerActionPayload{ToggleDouble: true, ToggleShield: true})
	require.NoError(t, err)
	p, _, err = l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.True(t, p.ActiveDouble)
	require.True(t, p.ActiveShield)
	require.Equal(t, uint32(1), p.CashDoubles, "toggling arms the modifier, it never spends the pool")
	require.Equal(t, uint32(1), p.CashShields)

	_, err = PlayerAction(l, alice, domain.PlayerActionPayload{ToggleDouble: true})
	require.NoError(t, err)
	p, _, err = l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.False(t, p.ActiveDouble)
	require.True(t, p.ActiveShield, "toggling double must not affect shield")
}

func TestDispatchRejectsNonAdminStartTournament(t *testing.T) {
	l := newLayer(t)
	require.NoError(t, l.PutTreasury(store.Treasury{AdminPublicHex: "61646d696e"})) // hex("admin")

	instr, err := domain.EncodeInstruction(domain.InstrStartTournament, domain.StartTournamentPayload{TournamentID: 1, StartingChips: 100})
	require.NoError(t, err)

	ev, err := Dispatch(l, []byte("eve"), 0, 0, instr)
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}
