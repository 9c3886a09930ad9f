// Package casino implements the wagering, tournament, and player-modifier
// state machine described in spec §4.5.1/§4.5.2 — an illustrative
// deterministic value transition the engine must execute bit-exactly.
package casino

import (
	"encoding/hex"

	sdkmath "cosmossdk.io/math"

	"ocpengine/internal/domain"
	"ocpengine/internal/economy"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

func pub(public []byte) string { return hex.EncodeToString(public) }

func netPnl(h store.HouseState) sdkmath.Int {
	if h.NetPnl == "" {
		return sdkmath.ZeroInt()
	}
	i, ok := sdkmath.NewIntFromString(h.NetPnl)
	if !ok {
		return sdkmath.ZeroInt()
	}
	return i
}

// addPnl applies a signed delta (positive = house income, negative =
// house payout) to HouseState.NetPnl, per spec §4.5.1: "cash games update
// house.net_pnl (+ on income, - on payout); never for tournament mode."
func addPnl(h *store.HouseState, delta int64) {
	cur := netPnl(*h)
	h.NetPnl = cur.Add(sdkmath.NewInt(delta)).String()
}

func registerPlayerIfAbsent(l *layer.Layer, public []byte, now int64) (store.CasinoPlayer, error) {
	p, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return p, err
	}
	if !ok {
		p = store.CasinoPlayer{
			Registered:       true,
			CashChips:        domain.StartingChips,
			CashShields:      domain.StartingShields,
			CashDoubles:      domain.StartingDoubles,
			AccountCreatedAt: now,
			Elo:              domain.StartingElo,
		}
	}
	return p, nil
}

func registerGlobally(l *layer.Layer, public []byte) error {
	reg, err := l.GetPlayerRegistry()
	if err != nil {
		return err
	}
	key := pub(public)
	for _, p := range reg.Players {
		if p == key {
			return nil
		}
	}
	// insertion-sorted so iteration order stays deterministic across replays.
	idx := 0
	for idx < len(reg.Players) && reg.Players[idx] < key {
		idx++
	}
	reg.Players = append(reg.Players, "")
	copy(reg.Players[idx+1:], reg.Players[idx:])
	reg.Players[idx] = key
	return l.PutPlayerRegistry(reg)
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func mulDivBig(a, b, d uint64) uint64 {
	return economy.MulDivU128(a, b, d)
}
