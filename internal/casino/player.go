package casino

import (
	"fmt"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
)

// Register creates the player's domain record the first time they act
// (spec §4.5: "register"). Re-registration is a no-op admission error, not
// a panic, since events never abort the block.
func Register(l *layer.Layer, public []byte, now int64) (domain.Event, error) {
	_, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if ok {
		return domain.NewCasinoError(domain.ErrPlayerAlreadyRegistered, nil), nil
	}
	p, err := registerPlayerIfAbsent(l, public, now)
	if err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, p); err != nil {
		return domain.Event{}, err
	}
	if err := registerGlobally(l, public); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventSessionStarted, struct {
		Player string `json:"player"`
	}{Player: pub(public)})
}

// DepositFaucet is the rate-limited cash-chip top-up (spec §4.5: "deposit
// (rate-limited faucet)").
func DepositFaucet(l *layer.Layer, public []byte, now int64) (domain.Event, error) {
	p, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if p.LastFaucetAt > 0 && now-p.LastFaucetAt < domain.FaucetCooldownSecs {
		return domain.NewCasinoError(domain.ErrRateLimited, nil), nil
	}
	p.CashChips += domain.FaucetAmount
	p.LastFaucetAt = now
	if err := l.PutCasinoPlayer(public, p); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventSessionStarted, struct {
		Player string `json:"player"`
		Amount uint64 `json:"amount"`
	}{Player: pub(public), Amount: domain.FaucetAmount})
}

// PlayerAction toggles per-player modifiers (spec §4.5.1: "player action
// (toggle modifiers)"). Doubles and shields are consumable pools, but a
// pool charge is only ever spent while the matching toggle is armed; this
// instruction flips the arm/disarm state, it never touches the pool count.
func PlayerAction(l *layer.Layer, public []byte, payload domain.PlayerActionPayload) (domain.Event, error) {
	p, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if payload.ToggleSuper {
		p.SuperMode = !p.SuperMode
	}
	if payload.ToggleDouble {
		p.ActiveDouble = !p.ActiveDouble
	}
	if payload.ToggleShield {
		p.ActiveShield = !p.ActiveShield
	}
	if err := l.PutCasinoPlayer(public, p); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventSessionStarted, fmt.Sprintf("player action applied for %s", pub(public)))
}
