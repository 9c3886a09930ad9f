// Package battle implements the creature-combat dialect from spec §4.5.3:
// lobby matchmaking, timelock-sealed simultaneous moves, and an Elo rating
// update on settlement.
package battle

import (
	"encoding/hex"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/ocpcrypto"
	"ocpengine/internal/store"
)

func pub(public []byte) string { return hex.EncodeToString(public) }

// genCreature deterministically assigns a combat profile from the public
// key alone, so Generate and Match agree without needing extra storage for
// a pending creature (spec §4.5.3: "Generate").
func genCreature(public []byte) store.Creature {
	rng := ocpcrypto.NewDomainRNG("battle/creature", public)
	return store.Creature{
		MaxHealth: int32(80 + rng.Intn(41)),  // 80-120
		Attack:    int32(10 + rng.Intn(16)),  // 10-25
		Defense:   int32(5 + rng.Intn(11)),   // 5-15
	}
}

// Generate enqueues the caller into the matchmaking lobby (spec §4.5.3).
func Generate(l *layer.Layer, public []byte, view uint64, now int64) (domain.Event, error) {
	lobby, err := l.GetLobby()
	if err != nil {
		return domain.Event{}, err
	}
	key := pub(public)
	for _, e := range lobby.Entrants {
		if e == key {
			return domain.NewCasinoError(domain.ErrAlreadyInTournament, nil), nil
		}
	}
	if len(lobby.Entrants) == 0 {
		lobby.OpenedAt = now
		lobby.ExpiresAtView = view + domain.LobbyExpiryViews
	}
	lobby.Entrants = append(lobby.Entrants, key)

	if err := l.PutLobby(lobby); err != nil {
		return domain.Event{}, err
	}
	creature := genCreature(public)
	return domain.NewEvent(domain.EventGenerated, struct {
		Player   string         `json:"player"`
		Creature store.Creature `json:"creature"`
	}{Player: key, Creature: creature})
}

// Match drops entrants that outlived LobbyExpiryViews, then pairs up
// MaxLobbySize entrants at a time into new Battle records (spec §4.5.3).
func Match(l *layer.Layer, view uint64) (domain.Event, error) {
	lobby, err := l.GetLobby()
	if err != nil {
		return domain.Event{}, err
	}
	if lobby.ExpiresAtView != 0 && view >= lobby.ExpiresAtView {
		lobby.Entrants = nil
	}
	if len(lobby.Entrants) < domain.MaxLobbySize {
		if err := l.PutLobby(lobby); err != nil {
			return domain.Event{}, err
		}
		return domain.NewEvent(domain.EventMatched, struct {
			Paired bool `json:"paired"`
		}{Paired: false})
	}

	aKey, bKey := lobby.Entrants[0], lobby.Entrants[1]
	lobby.Entrants = lobby.Entrants[2:]
	if len(lobby.Entrants) == 0 {
		lobby.ExpiresAtView = 0
	}

	aPub, err := hex.DecodeString(aKey)
	if err != nil {
		return domain.Event{}, err
	}
	bPub, err := hex.DecodeString(bKey)
	if err != nil {
		return domain.Event{}, err
	}

	battleID := lobby.NextBattleID
	lobby.NextBattleID++

	battle := store.Battle{
		ID: battleID,
		A: store.BattleSide{
			Public:   aKey,
			Creature: genCreature(aPub),
		},
		B: store.BattleSide{
			Public:   bKey,
			Creature: genCreature(bPub),
		},
		Round:           1,
		RoundExpiryView: view + domain.MoveExpiryViews,
	}
	battle.A.Health = battle.A.Creature.MaxHealth
	battle.B.Health = battle.B.Creature.MaxHealth

	for _, p := range []struct {
		key   []byte
		owned string
	}{{aPub, aKey}, {bPub, bKey}} {
		player, ok, err := l.GetCasinoPlayer(p.key)
		if err != nil {
			return domain.Event{}, err
		}
		if !ok {
			continue
		}
		player.ActiveBattleID = battleID
		if err := l.PutCasinoPlayer(p.key, player); err != nil {
			return domain.Event{}, err
		}
	}

	if err := l.PutBattle(battle); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutLobby(lobby); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventMatched, struct {
		BattleID uint64 `json:"battleId"`
		A        string `json:"a"`
		B        string `json:"b"`
	}{BattleID: battleID, A: aKey, B: bKey})
}

func side(b *store.Battle, public []byte) (*store.BattleSide, *store.BattleSide, bool) {
	key := pub(public)
	if b.A.Public == key {
		return &b.A, &b.B, true
	}
	if b.B.Public == key {
		return &b.B, &b.A, true
	}
	return nil, nil, false
}

// Move records a round's sealed ciphertext. A side may only submit once per
// round; resolution happens in Settle once the round's seed is revealed
// (spec §4.5.3/§4.4).
func Move(l *layer.Layer, public []byte, payload domain.MovePayload) (domain.Event, error) {
	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok || player.ActiveBattleID == 0 {
		return domain.NewCasinoError(domain.ErrSessionNotFound, nil), nil
	}
	b, ok, err := l.GetBattle(player.ActiveBattleID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok || b.IsOver {
		return domain.NewCasinoError(domain.ErrSessionComplete, nil), nil
	}
	mine, _, found := side(&b, public)
	if !found {
		return domain.NewCasinoError(domain.ErrSessionNotOwned, nil), nil
	}
	if len(mine.PendingMove) != 0 {
		return domain.NewCasinoError(domain.ErrInvalidMove, nil), nil
	}
	ciphertext, err := hex.DecodeString(payload.CiphertextHex)
	if err != nil || len(ciphertext) != 32 {
		return domain.NewCasinoError(domain.ErrInvalidMove, nil), nil
	}
	mine.PendingMove = ciphertext

	if err := l.PutBattle(b); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventMoved, struct {
		BattleID uint64 `json:"battleId"`
		Round    uint32 `json:"round"`
	}{BattleID: b.ID, Round: b.Round})
}

// openMoveOrZero reads a round's decrypted move out of the engine's
// precomputed Layer.Cache (spec §4.4). The cache already folds every failure
// mode — missing ciphertext, unverified seed, decrypt failure, out-of-range
// byte — into move 0; Settle only adds the per-battle usage cap on top of
// that (spec §4.5.3: "missing/failed/out-of-range/usage-limit-exceeded ->
// move 0"). Handlers never decrypt inline: the cache is populated once per
// block, before any transaction in it is applied.
func openMoveOrZero(l *layer.Layer, s *store.BattleSide, targetView uint64) byte {
	if len(s.PendingMove) == 0 {
		return 0
	}
	move := l.Cache.Move(targetView, s.PendingMove)
	if move == 0 || int(move) > domain.TotalMoves {
		return 0
	}
	if s.MoveUses == nil {
		s.MoveUses = map[byte]uint32{}
	}
	if s.MoveUses[move] >= domain.MaxMoveUses {
		return 0
	}
	s.MoveUses[move]++
	return move
}

// resolveRound is the illustrative attack/defense formula: damage scales
// with the attacker's Attack stat and the chosen move's power, reduced by
// the defender's Defense stat and the defender's chosen move's guard.
func resolveRound(attacker store.Creature, attackMove byte, defender store.Creature, guardMove byte) int32 {
	power := movePowerBps(attackMove)
	guard := moveGuardBps(guardMove)
	raw := mulBps(attacker.Attack, power)
	mitigated := mulBps(defender.Defense, guard)
	dmg := raw - mitigated
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

func mulBps(v int32, bps int32) int32 {
	return int32((int64(v) * int64(bps)) / 10_000)
}

func movePowerBps(move byte) int32 {
	switch move {
	case 1:
		return 10_000
	case 2:
		return 12_000
	case 3:
		return 8_000
	case 4:
		return 15_000
	default:
		return 0
	}
}

func moveGuardBps(move byte) int32 {
	switch move {
	case 1:
		return 10_000
	case 2:
		return 8_000
	case 3:
		return 14_000
	case 4:
		return 5_000
	default:
		return 5_000 // forfeit still offers baseline guard
	}
}

// Settle resolves the current round of the caller's battle once its
// RoundExpiryView's seed is revealed, applying damage, advancing the round
// or ending the battle, and — on the terminal round — updating Elo (spec
// §4.5.3).
func Settle(l *layer.Layer, public []byte, view uint64) (domain.Event, error) {
	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok || player.ActiveBattleID == 0 {
		return domain.NewCasinoError(domain.ErrSessionNotFound, nil), nil
	}
	b, ok, err := l.GetBattle(player.ActiveBattleID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok || b.IsOver {
		return domain.NewCasinoError(domain.ErrSessionComplete, nil), nil
	}
	if view < b.RoundExpiryView {
		return domain.NewCasinoError(domain.ErrInvalidMove, nil), nil
	}

	moveA := openMoveOrZero(l, &b.A, b.RoundExpiryView)
	moveB := openMoveOrZero(l, &b.B, b.RoundExpiryView)

	dmgToB := resolveRound(b.A.Creature, moveA, b.B.Creature, moveB)
	dmgToA := resolveRound(b.B.Creature, moveB, b.A.Creature, moveA)
	b.A.Health -= dmgToA
	b.B.Health -= dmgToB
	b.A.PendingMove = nil
	b.B.PendingMove = nil

	terminal := b.A.Health <= 0 || b.B.Health <= 0 || b.Round >= domain.MaxBattleRounds
	var event domain.Event
	if terminal {
		b.IsOver = true
		switch {
		case b.A.Health <= 0 && b.B.Health <= 0:
			b.Outcome = "Draw"
		case b.A.Health <= 0:
			b.Outcome = "PlayerB"
		case b.B.Health <= 0:
			b.Outcome = "PlayerA"
		default:
			// hit MaxBattleRounds with both players still alive: always a
			// Draw (spec §4.5.3), never decided by remaining health.
			b.Outcome = "Draw"
		}
		if err := settleOutcome(l, &b); err != nil {
			return domain.Event{}, err
		}
		event, err = domain.NewEvent(domain.EventSettled, struct {
			BattleID uint64 `json:"battleId"`
			Outcome  string `json:"outcome"`
		}{BattleID: b.ID, Outcome: b.Outcome})
	} else {
		b.Round++
		b.RoundExpiryView = view + domain.MoveExpiryViews
		event, err = domain.NewEvent(domain.EventSettled, struct {
			BattleID uint64 `json:"battleId"`
			Round    uint32 `json:"round"`
			HealthA  int32  `json:"healthA"`
			HealthB  int32  `json:"healthB"`
		}{BattleID: b.ID, Round: b.Round, HealthA: b.A.Health, HealthB: b.B.Health})
	}
	if err != nil {
		return domain.Event{}, err
	}

	if err := l.PutBattle(b); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

// settleOutcome updates both players' win/loss/draw counters and Elo, then
// releases them from the battle.
func settleOutcome(l *layer.Layer, b *store.Battle) error {
	aPub, err := hex.DecodeString(b.A.Public)
	if err != nil {
		return err
	}
	bPub, err := hex.DecodeString(b.B.Public)
	if err != nil {
		return err
	}
	pa, _, err := l.GetCasinoPlayer(aPub)
	if err != nil {
		return err
	}
	pb, _, err := l.GetCasinoPlayer(bPub)
	if err != nil {
		return err
	}

	// effective health is signed: overkill drives it negative, which is
	// meant to weight the margin in updateElo (spec §4.5.3).
	effA, effB := b.A.Health, b.B.Health
	newEloA, newEloB := updateElo(pa.Elo, effA, b.A.Creature.MaxHealth, pb.Elo, effB, b.B.Creature.MaxHealth)
	pa.Elo, pb.Elo = newEloA, newEloB

	switch b.Outcome {
	case "PlayerA":
		pa.BattleWins++
		pb.BattleLosses++
	case "PlayerB":
		pb.BattleWins++
		pa.BattleLosses++
	default:
		pa.BattleDraws++
		pb.BattleDraws++
	}
	pa.ActiveBattleID = 0
	pb.ActiveBattleID = 0

	if err := l.PutCasinoPlayer(aPub, pa); err != nil {
		return err
	}
	return l.PutCasinoPlayer(bPub, pb)
}

// updateElo is a deterministic, integer-only approximation of the standard
// Elo update: the actual score leans on the relative fraction of health
// remaining rather than a strict win/loss/draw, and the expected score uses
// a linear approximation of the logistic curve (consensus code must never
// depend on floating-point transcendental functions, which are not
// guaranteed bit-identical across platforms).
func updateElo(eloA int32, effHealthA, maxHealthA int32, eloB int32, effHealthB, maxHealthB int32) (int32, int32) {
	fracABps := int32(0)
	if maxHealthA > 0 {
		fracABps = effHealthA * 10_000 / maxHealthA
	}
	fracBBps := int32(0)
	if maxHealthB > 0 {
		fracBBps = effHealthB * 10_000 / maxHealthB
	}
	scoreABps := 5_000 + (fracABps-fracBBps)/2
	scoreABps = clampBps(scoreABps)

	diff := eloB - eloA
	if diff > 400 {
		diff = 400
	}
	if diff < -400 {
		diff = -400
	}
	expectedABps := clampBps(5_000 - diff*1_250/100)

	deltaA := domain.EloKFactor * (scoreABps - expectedABps) / 10_000
	return eloA + deltaA, eloB - deltaA
}

func clampBps(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 10_000 {
		return 10_000
	}
	return v
}
